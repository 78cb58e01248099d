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
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"

	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/machine"
)

var helpvar bool
var debugvar bool
var quietvar bool
var cyclesvar int
var shouldexit bool

// romImage keeps the loaded ROM around for the debug REPL's reset
// command
var romImage []byte

const usage = "gochip8 [-debug] [-cycles #] filename"

// The machine's timers run at 60Hz no matter how fast instructions
// execute
const tickRate = time.Second / 60

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.BoolVar(&quietvar, "quiet", false, "Logs errors only")
	flag.IntVar(
		&cyclesvar, "cycles", 720,
		"Instructions executed per second, independent of the 60Hz timers",
	)
	flag.Parse()
}

func newLogger() *log.Logger {
	cfg := log.DefaultConfig()

	if debugvar {
		cfg.Level = log.DebugLevel
	} else if quietvar {
		cfg.Level = log.ErrorLevel
	}

	return log.NewWithConfig(cfg)
}

// run drives the two cadences of the machine from a single goroutine:
// instructions at the configured rate, timer ticks and frames at 60Hz.
// Wall-clock debt is accumulated separately for each so a slow host
// cannot skew the timers.
func run(ctx context.Context, mc *machine.Machine) error {
	cycleRate := time.Second / time.Duration(cyclesvar)

	var cycleDebt time.Duration
	var tickDebt time.Duration

	sounding := false
	last := time.Now()

	for !shouldexit {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		now := time.Now()
		elapsed := now.Sub(last)
		last = now

		// Cap the debt after a host stall rather than fast-forwarding
		if elapsed > 4*tickRate {
			elapsed = 4 * tickRate
		}

		cycleDebt += elapsed
		tickDebt += elapsed

		for cycleDebt >= cycleRate {
			cycleDebt -= cycleRate

			pollKeys(mc)

			if err := mc.Step(); err != nil {
				return err
			}

			if shouldexit {
				break
			}
		}

		for tickDebt >= tickRate {
			tickDebt -= tickRate

			mc.TickTimers()

			if mc.State.DrawFlag {
				renderDisplay(&mc.State)
				mc.State.DrawFlag = false
			}

			sounding = updateTone(sounding, mc.State.SoundTimer)
		}

		time.Sleep(time.Millisecond)
	}

	return nil
}

func gochip8() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	logger := newLogger()
	args := flag.Args()

	if len(args) != 1 {
		logger.Error(usage)
		return 1
	}

	rom, err := os.ReadFile(args[0])

	if err != nil {
		logger.Error("Reading ROM failed", log.Err(err))
		return 1
	}

	romImage = rom

	var mc machine.Machine

	if debugvar {
		var dbg debugger.Debugger
		dbg.HandleBreak = handleBreak
		dbg.HandleRead = handleRead
		dbg.HandleWrite = handleWrite
		mc.Debugger = &dbg
	}

	if err := mc.LoadProgram(romImage); err != nil {
		logger.Error("Loading ROM failed", log.Err(err))
		return 1
	}

	logger.Info(
		"Loaded ROM",
		log.String("file", args[0]),
		log.Int("bytes", len(romImage)),
		log.Int("cycles", cyclesvar),
	)

	enterRawTerm()
	defer exitRawTerm()

	if debugvar {
		debugREPL(mc.Debugger.(*debugger.Debugger), &mc)
	}

	if err := run(app.Context(), &mc); err != nil {
		exitRawTerm()
		logger.Error("Emulation halted", log.Err(err))
		return 1
	}

	return 0
}

func main() {
	os.Exit(gochip8())
}
