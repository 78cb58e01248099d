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

// Package disasm turns CHIP-8 ROM images and memory windows back into
// assembly listings. Instruction matching runs over the canonical
// mask/value opcode tables from retrogolib; words that match no pattern
// are listed as data directives, since ROMs freely mix sprite data with
// code.
package disasm

import (
	"fmt"
	"io"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"

	"github.com/lassandro/gochip8/pkg/encoding"
)

// Line is one disassembled instruction or data word.
type Line struct {
	Addr uint16
	Word uint16
	Code string
}

// lookup matches a raw word against the opcode table for its leading
// nibble.
func lookup(word uint16) (*chip8.Instruction, bool) {
	for _, op := range chip8.Opcodes[int(word>>12)] {
		if word&op.Info.Mask == op.Info.Value {
			if op.Instruction == nil {
				return nil, false
			}

			return op.Instruction, true
		}
	}

	return nil, false
}

// DecodeWord renders one instruction word as assembly. The second
// return value is false for words outside the instruction set, for
// which a data directive is returned instead.
func DecodeWord(word uint16) (string, bool) {
	ins, ok := lookup(word)

	if !ok {
		return fmt.Sprintf(".word $%04X", word), false
	}

	if params := formatOperands(ins.Name, word); params != "" {
		return fmt.Sprintf("%s %s", ins.Name, params), true
	}

	return ins.Name, true
}

func formatOperands(name string, word uint16) string {
	x := (word >> 8) & 0xF
	y := (word >> 4) & 0xF
	n := word & 0xF
	nn := word & 0xFF
	nnn := word & 0xFFF

	switch name {
	case chip8.Cls.Name, chip8.Ret.Name:
		return ""

	case chip8.Jp.Name:
		// 1NNN jumps directly, BNNN indexes off V0
		if word&0xF000 == 0x1000 {
			return fmt.Sprintf("$%03X", nnn)
		}
		return fmt.Sprintf("V0, $%03X", nnn)

	case chip8.Call.Name:
		return fmt.Sprintf("$%03X", nnn)

	case chip8.Se.Name:
		if word&0xF000 == 0x3000 {
			return fmt.Sprintf("V%X, $%02X", x, nn)
		}
		return fmt.Sprintf("V%X, V%X", x, y)

	case chip8.Sne.Name:
		if word&0xF000 == 0x4000 {
			return fmt.Sprintf("V%X, $%02X", x, nn)
		}
		return fmt.Sprintf("V%X, V%X", x, y)

	case chip8.Add.Name:
		switch word & 0xF000 {
		case 0x7000:
			return fmt.Sprintf("V%X, $%02X", x, nn)
		case 0x8000:
			return fmt.Sprintf("V%X, V%X", x, y)
		}
		return fmt.Sprintf("I, V%X", x)

	case chip8.Or.Name, chip8.And.Name, chip8.Xor.Name,
		chip8.Sub.Name, chip8.Subn.Name:
		return fmt.Sprintf("V%X, V%X", x, y)

	case chip8.Shr.Name, chip8.Shl.Name:
		return fmt.Sprintf("V%X", x)

	case chip8.Rnd.Name:
		return fmt.Sprintf("V%X, $%02X", x, nn)

	case chip8.Drw.Name:
		return fmt.Sprintf("V%X, V%X, $%X", x, y, n)

	case chip8.Skp.Name, chip8.Sknp.Name:
		return fmt.Sprintf("V%X", x)

	case chip8.Ld.Name:
		switch word & 0xF000 {
		case 0x6000:
			return fmt.Sprintf("V%X, $%02X", x, nn)
		case 0x8000:
			return fmt.Sprintf("V%X, V%X", x, y)
		case 0xA000:
			return fmt.Sprintf("I, $%03X", nnn)
		}

		switch nn {
		case 0x07:
			return fmt.Sprintf("V%X, DT", x)
		case 0x0A:
			return fmt.Sprintf("V%X, K", x)
		case 0x15:
			return fmt.Sprintf("DT, V%X", x)
		case 0x18:
			return fmt.Sprintf("ST, V%X", x)
		case 0x29:
			return fmt.Sprintf("F, V%X", x)
		case 0x33:
			return fmt.Sprintf("B, V%X", x)
		case 0x55:
			return fmt.Sprintf("[I], V%X", x)
		case 0x65:
			return fmt.Sprintf("V%X, [I]", x)
		}
	}

	return ""
}

// Disassemble walks a byte image two bytes at a time. base is the
// memory address of the first byte, ProgramStart for a whole ROM.
func Disassemble(image []byte, base uint16) []Line {
	lines := make([]Line, 0, (len(image)+1)/2)

	for i := 0; i+1 < len(image); i += 2 {
		word := encoding.JoinWord(image[i], image[i+1])
		code, _ := DecodeWord(word)

		lines = append(lines, Line{
			Addr: base + uint16(i),
			Word: word,
			Code: code,
		})
	}

	// A trailing odd byte cannot be an instruction
	if len(image)%2 != 0 {
		last := image[len(image)-1]

		lines = append(lines, Line{
			Addr: base + uint16(len(image)-1),
			Word: uint16(last),
			Code: fmt.Sprintf(".byte $%02X", last),
		})
	}

	return lines
}

// Print writes a listing with addresses and raw words in the margin.
func Print(w io.Writer, lines []Line) error {
	for _, line := range lines {
		_, err := fmt.Fprintf(
			w, "%03X: %04X  %s\n", line.Addr, line.Word, line.Code,
		)

		if err != nil {
			return err
		}
	}

	return nil
}
