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
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/lassandro/gochip8/pkg/machine"
)

var termRestore unix.Termios

func enterRawTerm() {
	termios, err := unix.IoctlGetTermios(int(os.Stdin.Fd()), unix.TCGETS)

	if err != nil {
		panic(err)
	}

	termRestore = *termios
	termstate := *termios

	termstate.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR
	termstate.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	termstate.Cflag &^= unix.CSIZE | unix.PARENB
	termstate.Cflag |= unix.CS8

	// Nonblocking reads so the run loop can poll the keyboard
	termstate.Cc[unix.VMIN] = 0
	termstate.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(
		int(os.Stdin.Fd()), unix.TCSETS, &termstate,
	); err != nil {
		panic(err)
	}

	// Hidden cursor on a cleared screen while the renderer owns it
	os.Stdout.WriteString("\033[2J\033[H\033[?25l")
}

func exitRawTerm() {
	os.Stdout.WriteString("\033[?25h")

	if err := unix.IoctlSetTermios(
		int(os.Stdin.Fd()), unix.TCSETS, &termRestore,
	); err != nil {
		panic(err)
	}
}

// keypad maps the left-hand block of a QWERTY keyboard onto the 4x4
// CHIP-8 pad:
//
//	1 2 3 4        1 2 3 C
//	q w e r   ->   4 5 6 D
//	a s d f        7 8 9 E
//	z x c v        A 0 B F
var keypad = map[byte]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// Terminals deliver no key-up events, so a latched key decays after a
// short hold instead
const keyDecay = 150 * time.Millisecond

var keysDown [machine.NumKeys]time.Time

// pollKeys drains pending keyboard bytes and refreshes the machine's
// input latch.
func pollKeys(mc *machine.Machine) {
	var buf [16]byte

	n, _ := os.Stdin.Read(buf[:])
	now := time.Now()

	for _, b := range buf[:n] {
		if b == 0x1B { // ESC
			shouldexit = true
			continue
		}

		if code, ok := keypad[b]; ok {
			keysDown[code] = now
		}
	}

	for code := range keysDown {
		held := !keysDown[code].IsZero() && now.Sub(keysDown[code]) < keyDecay

		mc.SetKey(uint8(code), held)
	}
}

// renderDisplay repaints the whole pixel grid, two columns per pixel to
// approximate square cells.
func renderDisplay(st *machine.MachineState) {
	var sb strings.Builder

	sb.WriteString("\033[H")

	for y := 0; y < machine.DisplayHeight; y++ {
		for x := 0; x < machine.DisplayWidth; x++ {
			if st.Display[y*machine.DisplayWidth+x] == 0x01 {
				sb.WriteString("██")
			} else {
				sb.WriteString("  ")
			}
		}

		sb.WriteString("\033[K\n")
	}

	os.Stdout.WriteString(sb.String())
}

// updateTone rings the terminal bell on the sound timer's rising edge;
// the terminal has no way to hold a tone.
func updateTone(sounding bool, timer uint8) bool {
	if timer > 0 && !sounding {
		os.Stdout.WriteString("\a")
	}

	return timer > 0
}
