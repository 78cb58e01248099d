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

package machine

import (
	"math/rand"
)

// MachineState is the complete CHIP-8 machine state. Fields are exported
// so that hosts and debuggers can inspect (and, for the key latch, write)
// them directly; the machine itself only mutates state through Step,
// TickTimers and the load/reset entry points.
type MachineState struct {
	Registers [NumRegisters]uint8

	// Index is the 16-bit address register used by indirect load/store
	// and sprite fetch
	Index uint16

	// Program always points at the next instruction word to fetch
	Program uint16

	Stack [StackSize]uint16
	SP    uint8

	DelayTimer uint8
	SoundTimer uint8

	Memory [MemorySize]byte

	// Display holds one byte per pixel, 0 or 1, row-major
	Display  [DisplaySize]byte
	DrawFlag bool

	// Keys is the input latch, written by the host before each Step
	Keys [NumKeys]bool

	// WaitingKey suspends execution until a key in the latch goes down;
	// the key code is then stored in Registers[WaitReg]
	WaitingKey bool
	WaitReg    uint8
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Machine struct {
	State    MachineState
	Debugger MachineDebugger

	// Rand feeds the RND instruction. Left nil, it is seeded from the
	// wall clock on first use; tests install a fixed-seed source.
	Rand *rand.Rand
}
