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
	"errors"
	"fmt"
)

// All machine errors are fatal for the running program: the machine does
// not recover or retry, the host decides what to report and whether to
// reset.
var (
	ErrProgramTooLarge = errors.New("program exceeds available memory")
	ErrStackOverflow   = errors.New("call stack overflow")
	ErrStackUnderflow  = errors.New("return with empty call stack")
)

// MemoryFault reports a read or write outside the 4K address space,
// whether reached through the program counter, the index register or a
// sprite fetch.
type MemoryFault struct {
	Addr uint16
}

func (e MemoryFault) Error() string {
	return fmt.Sprintf("memory access out of range [%#04x]", e.Addr)
}

// UnknownInstruction reports a fetched word that matches no decoder
// pattern, along with where it was fetched from.
type UnknownInstruction struct {
	Addr uint16
	Word uint16
}

func (e UnknownInstruction) Error() string {
	return fmt.Sprintf("unknown instruction %#04x at [%#04x]", e.Word, e.Addr)
}
