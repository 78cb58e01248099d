// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
)

var lastcmd []string

func debugBreak(dbg *debugger.Debugger, args []string) {
	const usage = "break [add|list|remove]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x###]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		addr, err := encoding.DecodeHex(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		exists := false

		for _, breakpoint := range dbg.Breakpoints {
			if breakpoint.Addr == addr {
				exists = true
				break
			}
		}

		if !exists {
			dbg.Breakpoints = append(
				dbg.Breakpoints,
				debugger.Breakpoint{Addr: addr},
			)

			fmt.Printf("Breakpoint added [%#04x]\n", addr)
		}

	case "l", "ls", "list":
		const usage = "break list"

		if len(args) != 0 {
			log.Println(usage)
			return
		}

		var fmtstring string
		{
			digits := math.Floor(math.Log10(float64(len(dbg.Breakpoints) + 1)))
			fmtstring = fmt.Sprintf("#%%0%dd: %%#x\n", int64(digits)+1)
		}

		for i, breakpoint := range dbg.Breakpoints {
			log.Printf(fmtstring, i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Breakpoints)) {
			log.Println("Invalid breakpoint number")
			return
		}

		dbg.Breakpoints[i] = dbg.Breakpoints[len(dbg.Breakpoints)-1]
		dbg.Breakpoints = dbg.Breakpoints[:len(dbg.Breakpoints)-1]
		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = make([]debugger.Breakpoint, 0)
		fmt.Println("Breakpoints reset")

	default:
		log.Printf("break: '%s' is not a valid command\n", cmd)
	}
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usage = "watch [add|list|rm]"

	if len(args) == 0 {
		log.Println(usage)
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x###] [read|write|readwrite]"

		if len(args) != 2 {
			log.Println(usage)
			return
		}

		addr, err := encoding.DecodeHex(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "rwrite", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			log.Println(usage)
			return
		}

		exists := false

		for _, watchpoint := range dbg.Watchpoints {
			if watchpoint.Addr == addr && watchpoint.Type == wtype {
				exists = true
				break
			}
		}

		if !exists {
			dbg.Watchpoints = append(
				dbg.Watchpoints,
				debugger.Watchpoint{Addr: addr, Type: wtype},
			)

			var typename string
			switch wtype {
			case debugger.ReadWatch:
				typename = "R"
			case debugger.WriteWatch:
				typename = "W"
			case debugger.ReadWriteWatch:
				typename = "RW"
			}

			fmt.Printf("Watchpoint added [%#04x] (%s)\n", addr, typename)
		}

	case "l", "ls", "list":
		const usage = "watch list"

		if len(args) != 0 {
			log.Println(usage)
			return
		}

		var fmtstring string
		{
			digits := math.Floor(math.Log10(float64(len(dbg.Watchpoints) + 1)))
			fmtstring = fmt.Sprintf("#%%0%dd: %%#x %%s\n", int64(digits)+1)
		}

		for i, watchpoint := range dbg.Watchpoints {
			switch watchpoint.Type {
			case debugger.WriteWatch:
				log.Printf(fmtstring, i, watchpoint.Addr, "write")
			case debugger.ReadWatch:
				log.Printf(fmtstring, i, watchpoint.Addr, "read")
			case debugger.ReadWriteWatch:
				log.Printf(fmtstring, i, watchpoint.Addr, "rwrite")
			}
		}

	case "r", "rm", "remove":
		const usage = "watch rm [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Watchpoints)) {
			log.Println("Invalid watchpoint number")
			return
		}

		dbg.Watchpoints[i] = dbg.Watchpoints[len(dbg.Watchpoints)-1]
		dbg.Watchpoints = dbg.Watchpoints[:len(dbg.Watchpoints)-1]
		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = make([]debugger.Watchpoint, 0)
		fmt.Println("Watchpoints reset")

	default:
		log.Printf("watch: '%s' is not a valid command\n", cmd)
	}
}

func debugReg(mc *machine.MachineState, args []string) {
	const usage = "register [V#|PC|I|DT|ST] [0x##]"

	if len(args) > 0 {
		if len(args) != 2 {
			log.Println(usage)
			return
		}

		value, err := encoding.DecodeHex(args[1])

		if err != nil {
			log.Println(err)
			return
		}

		name := strings.ToUpper(args[0])

		switch {
		case name == "PC":
			mc.Program = value
		case name == "I":
			mc.Index = value
		case name == "DT":
			mc.DelayTimer = uint8(value)
		case name == "ST":
			mc.SoundTimer = uint8(value)
		case len(name) == 2 && name[0] == 'V':
			reg, err := encoding.DecodeKey(name[1:])

			if err != nil {
				log.Println("Invalid register")
				return
			}

			mc.Registers[reg] = uint8(value)
		default:
			log.Println("Invalid register")
			return
		}

		fmt.Printf("\033[1m%s:\033[0m %#04x\n", name, value)
	} else {
		for i, register := range mc.Registers {
			fmt.Printf("\033[1mV%X:\033[0m %#02x\t", i, register)
			if (i+1)%4 == 0 {
				fmt.Println()
			}
		}

		fmt.Printf(
			"\033[1mPC:\033[0m %#04x\t\033[1mI:\033[0m %#04x\t"+
				"\033[1mDT:\033[0m %#02x\t\033[1mST:\033[0m %#02x\n",
			mc.Program,
			mc.Index,
			mc.DelayTimer,
			mc.SoundTimer,
		)

		fmt.Printf("\033[1mSP:\033[0m %#02x", mc.SP)

		if mc.SP > 0 {
			fmt.Print(" [")
			for i := uint8(0); i < mc.SP; i++ {
				if i > 0 {
					fmt.Print(" ")
				}
				fmt.Printf("%#04x", mc.Stack[i])
			}
			fmt.Print("]")
		}

		fmt.Println()
	}
}

func debugList(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "list [0x###] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	var addr uint16 = mc.Program
	var size uint16 = 8

	if len(args) > 0 {
		parsed, err := encoding.DecodeHex(args[0])

		if err != nil {
			value, err := encoding.DecodeInt(args[0])

			if err != nil {
				log.Println(err)
				return
			}

			size = uint16(value)
		} else {
			addr = parsed
		}
	}

	if len(args) > 1 {
		value, err := encoding.DecodeInt(args[1])

		if err != nil {
			log.Println(err)
			return
		}

		size = uint16(value)
	}

	dbg.PrintDisasm(mc, addr, size)
}

func debugMemory(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "memory [0x###|#] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	var size uint16 = 1
	var addr uint16 = mc.Program

	if len(args) > 0 {
		parsed, err := encoding.DecodeHex(args[0])

		if err != nil {
			value, err := encoding.DecodeInt(args[0])

			if err != nil {
				log.Println(err)
				return
			}

			size = uint16(value)
		} else {
			addr = parsed
		}
	}

	if len(args) > 1 {
		value, err := encoding.DecodeInt(args[1])

		if err != nil {
			log.Println(err)
			return
		}

		size = uint16(value)
	}

	dbg.PrintMem(mc, addr, size)
}

func debugSet(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "set [0x###] [0x##]"

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	addr, err := encoding.DecodeHex(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	value, err := encoding.DecodeHex(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	if addr >= machine.MemorySize {
		log.Println("Address out of range")
		return
	}

	mc.Memory[addr] = uint8(value)
	dbg.PrintMem(mc, addr, 1)
}

func debugKey(mc *machine.MachineState, args []string) {
	const usage = "key [0-F] [down|up]"

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	code, err := encoding.DecodeKey(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	switch args[1] {
	case "d", "down":
		mc.Keys[code&0xF] = true
	case "u", "up":
		mc.Keys[code&0xF] = false
	default:
		log.Println(usage)
		return
	}

	fmt.Printf("\033[1mKey %X:\033[0m %t\n", code, mc.Keys[code&0xF])
}

func debugJump(mc *machine.MachineState, args []string) {
	const usage = "jump [0x###]"

	if len(args) != 1 {
		fmt.Println(usage)
		return
	}

	addr, err := encoding.DecodeHex(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	mc.Program = addr

	fmt.Printf("\033[1mPC:\033[0m %#04x\n", addr)
}

func debugREPL(dbg *debugger.Debugger, mc *machine.Machine) {
	exitRawTerm()
	defer enterRawTerm()

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		if !scanner.Scan() {
			fmt.Println()
			shouldexit = true
			return
		}

		args := strings.Split(strings.TrimSpace(scanner.Text()), " ")

		if len(args[0]) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = make([]string, len(args))
			copy(lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "r", "reg", "register", "registers":
			debugReg(&mc.State, args)

		case "l", "ls", "list":
			debugList(dbg, &mc.State, args)

		case "m", "mem", "memory":
			debugMemory(dbg, &mc.State, args)

		case "set":
			debugSet(dbg, &mc.State, args)

		case "k", "key":
			debugKey(&mc.State, args)

		case "screen":
			fmt.Print(mc.State.DisplayString())

		case "j", "jmp", "jump":
			debugJump(&mc.State, args)

		case "c", "continue":
			dbg.Break = false
			return

		case "n", "next":
			dbg.Break = true
			return

		case "q", "quit", "exit":
			shouldexit = true
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		case "reset":
			if err := mc.LoadProgram(romImage); err != nil {
				log.Println(err)
			}

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if !dbg.Break {
		fmt.Println()
		fmt.Println("Program stopped")
		dbg.PrintDisasm(&mc.State, mc.State.Program, 8)
	}
	debugREPL(dbg, mc)
}

func handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped")
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}

func handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped")
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}
