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

// Op identifies one variant of the CHIP-8 instruction set. Decode
// classifies every instruction word into exactly one Op up front so the
// executor switch stays a flat, exhaustive list.
type Op uint8

const (
	OpCls Op = iota // 00E0
	OpRet           // 00EE

	OpJp      // 1NNN
	OpCall    // 2NNN
	OpSeByte  // 3XNN
	OpSneByte // 4XNN
	OpSeReg   // 5XY0
	OpLdByte  // 6XNN
	OpAddByte // 7XNN

	OpLdReg  // 8XY0
	OpOr     // 8XY1
	OpAnd    // 8XY2
	OpXor    // 8XY3
	OpAddReg // 8XY4
	OpSub    // 8XY5
	OpShr    // 8XY6
	OpSubn   // 8XY7
	OpShl    // 8XYE

	OpSneReg // 9XY0
	OpLdI    // ANNN
	OpJpV0   // BNNN
	OpRnd    // CXNN
	OpDrw    // DXYN

	OpSkp  // EX9E
	OpSknp // EXA1

	OpLdFromDelay // FX07
	OpLdKey       // FX0A
	OpLdToDelay   // FX15
	OpLdToSound   // FX18
	OpAddI        // FX1E
	OpLdFont      // FX29
	OpLdBCD       // FX33
	OpLdStore     // FX55
	OpLdLoad      // FX65
)

// Instruction is one decoded instruction word with every operand field
// unpacked. Fields that a given Op does not use are still populated;
// they are simply ignored by the executor.
type Instruction struct {
	Op   Op
	X    uint8  // second nibble, register index
	Y    uint8  // third nibble, register index
	N    uint8  // low nibble
	NN   uint8  // low byte
	NNN  uint16 // low 12 bits, address
	Word uint16
}

// Decode classifies a raw instruction word. The second return value is
// false for any word outside the documented instruction set, including
// the historical 0NNN machine-code call, which no ROM in circulation
// relies on.
func Decode(word uint16) (Instruction, bool) {
	inst := Instruction{
		X:    uint8(word>>8) & 0xF,
		Y:    uint8(word>>4) & 0xF,
		N:    uint8(word) & 0xF,
		NN:   uint8(word),
		NNN:  word & 0x0FFF,
		Word: word,
	}

	switch word >> 12 {
	case 0x0:
		switch word {
		case 0x00E0:
			inst.Op = OpCls
		case 0x00EE:
			inst.Op = OpRet
		default:
			return inst, false
		}

	case 0x1:
		inst.Op = OpJp

	case 0x2:
		inst.Op = OpCall

	case 0x3:
		inst.Op = OpSeByte

	case 0x4:
		inst.Op = OpSneByte

	case 0x5:
		if inst.N != 0x0 {
			return inst, false
		}
		inst.Op = OpSeReg

	case 0x6:
		inst.Op = OpLdByte

	case 0x7:
		inst.Op = OpAddByte

	case 0x8:
		switch inst.N {
		case 0x0:
			inst.Op = OpLdReg
		case 0x1:
			inst.Op = OpOr
		case 0x2:
			inst.Op = OpAnd
		case 0x3:
			inst.Op = OpXor
		case 0x4:
			inst.Op = OpAddReg
		case 0x5:
			inst.Op = OpSub
		case 0x6:
			inst.Op = OpShr
		case 0x7:
			inst.Op = OpSubn
		case 0xE:
			inst.Op = OpShl
		default:
			return inst, false
		}

	case 0x9:
		if inst.N != 0x0 {
			return inst, false
		}
		inst.Op = OpSneReg

	case 0xA:
		inst.Op = OpLdI

	case 0xB:
		inst.Op = OpJpV0

	case 0xC:
		inst.Op = OpRnd

	case 0xD:
		inst.Op = OpDrw

	case 0xE:
		switch inst.NN {
		case 0x9E:
			inst.Op = OpSkp
		case 0xA1:
			inst.Op = OpSknp
		default:
			return inst, false
		}

	case 0xF:
		switch inst.NN {
		case 0x07:
			inst.Op = OpLdFromDelay
		case 0x0A:
			inst.Op = OpLdKey
		case 0x15:
			inst.Op = OpLdToDelay
		case 0x18:
			inst.Op = OpLdToSound
		case 0x1E:
			inst.Op = OpAddI
		case 0x29:
			inst.Op = OpLdFont
		case 0x33:
			inst.Op = OpLdBCD
		case 0x55:
			inst.Op = OpLdStore
		case 0x65:
			inst.Op = OpLdLoad
		default:
			return inst, false
		}
	}

	return inst, true
}
