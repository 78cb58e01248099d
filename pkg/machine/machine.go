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
	"io"
	"math/rand"
	"strings"
	"time"
)

func (st *MachineState) Reset() {
	for i := range st.Registers {
		st.Registers[i] = 0x00
	}

	for i := range st.Memory {
		st.Memory[i] = 0x00
	}

	for i := range st.Display {
		st.Display[i] = 0x00
	}

	for i := range st.Stack {
		st.Stack[i] = 0x0000
	}

	for i := range st.Keys {
		st.Keys[i] = false
	}

	st.Index = 0x0000
	st.SP = 0
	st.DelayTimer = 0
	st.SoundTimer = 0
	st.DrawFlag = false
	st.WaitingKey = false
	st.WaitReg = 0

	// Program execution begins at the start of ROM space; everything
	// below it belongs to the interpreter
	st.Program = ProgramStart

	copy(st.Memory[FontStart:], fontset[:])
}

// LoadProgram resets the machine and copies a ROM image into memory at
// ProgramStart. An oversized image fails with ErrProgramTooLarge before
// any state is touched.
func (mc *Machine) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return ErrProgramTooLarge
	}

	mc.State.Reset()
	copy(mc.State.Memory[ProgramStart:], program)

	return nil
}

func (mc *Machine) LoadROM(reader io.Reader) error {
	program, err := io.ReadAll(reader)

	if err != nil {
		return err
	}

	return mc.LoadProgram(program)
}

func (mc *Machine) push(value uint16) error {
	if mc.State.SP >= StackSize {
		return ErrStackOverflow
	}

	mc.State.Stack[mc.State.SP] = value
	mc.State.SP++

	return nil
}

func (mc *Machine) pop() (uint16, error) {
	if mc.State.SP == 0 {
		return 0, ErrStackUnderflow
	}

	mc.State.SP--

	return mc.State.Stack[mc.State.SP], nil
}

func (mc *Machine) ReadByte(addr uint16) (uint8, error) {
	if addr >= MemorySize {
		return 0, MemoryFault{addr}
	}

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory[addr], nil
}

func (mc *Machine) WriteByte(addr uint16, value uint8) error {
	if addr >= MemorySize {
		return MemoryFault{addr}
	}

	mc.State.Memory[addr] = value

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}

	return nil
}

// ReadWord reads a big-endian 16-bit word, the machine's instruction
// format.
func (mc *Machine) ReadWord(addr uint16) (uint16, error) {
	hi, err := mc.ReadByte(addr)

	if err != nil {
		return 0, err
	}

	lo, err := mc.ReadByte(addr + 1)

	if err != nil {
		return 0, err
	}

	return uint16(hi)<<8 | uint16(lo), nil
}

// SetKey updates one flag of the input latch. Codes above 0xF are
// masked to the pad range.
func (mc *Machine) SetKey(code uint8, pressed bool) {
	mc.State.Keys[code&0xF] = pressed
}

func (mc *Machine) IsPressed(code uint8) bool {
	return mc.State.Keys[code&0xF]
}

// TickTimers decrements the delay and sound timers, saturating at zero.
// The host calls this at 60Hz regardless of how often Step runs; the
// machine keeps no clock of its own.
func (mc *Machine) TickTimers() {
	if mc.State.DelayTimer > 0 {
		mc.State.DelayTimer--
	}

	if mc.State.SoundTimer > 0 {
		mc.State.SoundTimer--
	}
}

func (mc *Machine) randByte() uint8 {
	if mc.Rand == nil {
		mc.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return uint8(mc.Rand.Intn(256))
}

// pressedKey scans the latch for a held key, lowest code first.
func (st *MachineState) pressedKey() (uint8, bool) {
	for code := uint8(0); code < NumKeys; code++ {
		if st.Keys[code] {
			return code, true
		}
	}

	return 0, false
}

// Step executes exactly one instruction: fetch the word at the program
// counter, decode it, advance the counter by two and run the variant's
// semantics. Jumps, calls and skips overwrite the default advance.
//
// While the machine is waiting on a key (LD VX, K) the program counter
// holds still and Step only polls the latch.
func (mc *Machine) Step() error {
	st := &mc.State

	if st.WaitingKey {
		if code, ok := st.pressedKey(); ok {
			st.Registers[st.WaitReg] = code
			st.WaitingKey = false
			st.Program += 2
		}

		return nil
	}

	addr := st.Program
	word, err := mc.ReadWord(addr)

	if err != nil {
		return err
	}

	inst, ok := Decode(word)

	if !ok {
		return UnknownInstruction{Addr: addr, Word: word}
	}

	st.Program += 2

	switch inst.Op {
	// CLS  |0000 0000 1110 0000| Clear the display
	case OpCls:
		for i := range st.Display {
			st.Display[i] = 0x00
		}
		st.DrawFlag = true

	// RET  |0000 0000 1110 1110| Return from subroutine
	case OpRet:
		addr, err := mc.pop()

		if err != nil {
			return err
		}

		st.Program = addr

	// JP   |0001|nnnn nnnn nnnn| Jump to NNN
	case OpJp:
		st.Program = inst.NNN

	// CALL |0010|nnnn nnnn nnnn| Push return address, jump to NNN
	case OpCall:
		if err := mc.push(st.Program); err != nil {
			return err
		}

		st.Program = inst.NNN

	// SE   |0011|xxxx|nnnn nnnn| Skip next if VX == NN
	case OpSeByte:
		if st.Registers[inst.X] == inst.NN {
			st.Program += 2
		}

	// SNE  |0100|xxxx|nnnn nnnn| Skip next if VX != NN
	case OpSneByte:
		if st.Registers[inst.X] != inst.NN {
			st.Program += 2
		}

	// SE   |0101|xxxx|yyyy|0000| Skip next if VX == VY
	case OpSeReg:
		if st.Registers[inst.X] == st.Registers[inst.Y] {
			st.Program += 2
		}

	// LD   |0110|xxxx|nnnn nnnn| VX = NN
	case OpLdByte:
		st.Registers[inst.X] = inst.NN

	// ADD  |0111|xxxx|nnnn nnnn| VX += NN, flags untouched
	case OpAddByte:
		st.Registers[inst.X] += inst.NN

	// LD   |1000|xxxx|yyyy|0000| VX = VY
	case OpLdReg:
		st.Registers[inst.X] = st.Registers[inst.Y]

	// OR   |1000|xxxx|yyyy|0001| VX |= VY
	case OpOr:
		st.Registers[inst.X] |= st.Registers[inst.Y]

	// AND  |1000|xxxx|yyyy|0010| VX &= VY
	case OpAnd:
		st.Registers[inst.X] &= st.Registers[inst.Y]

	// XOR  |1000|xxxx|yyyy|0011| VX ^= VY
	case OpXor:
		st.Registers[inst.X] ^= st.Registers[inst.Y]

	// ADD  |1000|xxxx|yyyy|0100| VX += VY, VF = carry
	case OpAddReg:
		sum := uint16(st.Registers[inst.X]) + uint16(st.Registers[inst.Y])

		st.Registers[inst.X] = uint8(sum)

		if sum > 0xFF {
			st.Registers[0xF] = 1
		} else {
			st.Registers[0xF] = 0
		}

	// SUB  |1000|xxxx|yyyy|0101| VX -= VY, VF = 0 on borrow else 1
	case OpSub:
		vx := st.Registers[inst.X]
		vy := st.Registers[inst.Y]

		st.Registers[inst.X] = vx - vy

		if vy > vx {
			st.Registers[0xF] = 0
		} else {
			st.Registers[0xF] = 1
		}

	// SHR  |1000|xxxx|yyyy|0110| VX >>= 1, VF = bit shifted out
	//
	// VY is ignored, shifting VX in place
	case OpShr:
		vx := st.Registers[inst.X]

		st.Registers[inst.X] = vx >> 1
		st.Registers[0xF] = vx & 0x1

	// SUBN |1000|xxxx|yyyy|0111| VX = VY - VX, VF = 0 on borrow else 1
	case OpSubn:
		vx := st.Registers[inst.X]
		vy := st.Registers[inst.Y]

		st.Registers[inst.X] = vy - vx

		if vx > vy {
			st.Registers[0xF] = 0
		} else {
			st.Registers[0xF] = 1
		}

	// SHL  |1000|xxxx|yyyy|1110| VX <<= 1, VF = bit shifted out
	case OpShl:
		vx := st.Registers[inst.X]

		st.Registers[inst.X] = vx << 1
		st.Registers[0xF] = vx >> 7

	// SNE  |1001|xxxx|yyyy|0000| Skip next if VX != VY
	case OpSneReg:
		if st.Registers[inst.X] != st.Registers[inst.Y] {
			st.Program += 2
		}

	// LD   |1010|nnnn nnnn nnnn| I = NNN
	case OpLdI:
		st.Index = inst.NNN

	// JP   |1011|nnnn nnnn nnnn| Jump to NNN + V0
	case OpJpV0:
		st.Program = inst.NNN + uint16(st.Registers[0x0])

	// RND  |1100|xxxx|nnnn nnnn| VX = random byte AND NN
	case OpRnd:
		st.Registers[inst.X] = mc.randByte() & inst.NN

	// DRW  |1101|xxxx|yyyy|nnnn| XOR-draw N-byte sprite from I at
	//                            (VX, VY), VF = collision
	case OpDrw:
		x0 := uint16(st.Registers[inst.X]) % DisplayWidth
		y0 := uint16(st.Registers[inst.Y]) % DisplayHeight

		st.Registers[0xF] = 0

		for row := uint16(0); row < uint16(inst.N); row++ {
			sprite, err := mc.ReadByte(st.Index + row)

			if err != nil {
				return err
			}

			py := (y0 + row) % DisplayHeight

			for bit := uint16(0); bit < 8; bit++ {
				if sprite&(0x80>>bit) == 0 {
					continue
				}

				px := (x0 + bit) % DisplayWidth
				pixel := py*DisplayWidth + px

				if st.Display[pixel] == 0x01 {
					st.Registers[0xF] = 1
				}

				st.Display[pixel] ^= 0x01
			}
		}

		st.DrawFlag = true

	// SKP  |1110|xxxx|1001 1110| Skip next if key VX held
	case OpSkp:
		if st.Keys[st.Registers[inst.X]&0xF] {
			st.Program += 2
		}

	// SKNP |1110|xxxx|1010 0001| Skip next if key VX not held
	case OpSknp:
		if !st.Keys[st.Registers[inst.X]&0xF] {
			st.Program += 2
		}

	// LD   |1111|xxxx|0000 0111| VX = delay timer
	case OpLdFromDelay:
		st.Registers[inst.X] = st.DelayTimer

	// LD   |1111|xxxx|0000 1010| Wait for a key press, VX = key code
	case OpLdKey:
		if code, ok := st.pressedKey(); ok {
			st.Registers[inst.X] = code
		} else {
			// Hold the program counter on this instruction until the
			// host latches a key down
			st.Program -= 2
			st.WaitingKey = true
			st.WaitReg = inst.X
		}

	// LD   |1111|xxxx|0001 0101| Delay timer = VX
	case OpLdToDelay:
		st.DelayTimer = st.Registers[inst.X]

	// LD   |1111|xxxx|0001 1000| Sound timer = VX
	case OpLdToSound:
		st.SoundTimer = st.Registers[inst.X]

	// ADD  |1111|xxxx|0001 1110| I += VX, VF = 1 past address space
	case OpAddI:
		sum := st.Index + uint16(st.Registers[inst.X])

		if sum > 0x0FFF {
			st.Registers[0xF] = 1
		} else {
			st.Registers[0xF] = 0
		}

		st.Index = sum

	// LD   |1111|xxxx|0010 1001| I = font glyph address for VX's low
	//                            nibble
	case OpLdFont:
		glyph := uint16(st.Registers[inst.X] & 0xF)

		st.Index = FontStart + glyph*FontGlyphSize

	// LD   |1111|xxxx|0011 0011| Memory[I..I+2] = BCD digits of VX
	case OpLdBCD:
		vx := st.Registers[inst.X]

		if err := mc.WriteByte(st.Index, vx/100); err != nil {
			return err
		}

		if err := mc.WriteByte(st.Index+1, vx/10%10); err != nil {
			return err
		}

		if err := mc.WriteByte(st.Index+2, vx%10); err != nil {
			return err
		}

	// LD   |1111|xxxx|0101 0101| Memory[I..I+X] = V0..VX, I untouched
	case OpLdStore:
		for i := uint16(0); i <= uint16(inst.X); i++ {
			if err := mc.WriteByte(st.Index+i, st.Registers[i]); err != nil {
				return err
			}
		}

	// LD   |1111|xxxx|0110 0101| V0..VX = Memory[I..I+X], I untouched
	case OpLdLoad:
		for i := uint16(0); i <= uint16(inst.X); i++ {
			value, err := mc.ReadByte(st.Index + i)

			if err != nil {
				return err
			}

			st.Registers[i] = value
		}
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return nil
}

// DisplayString renders the pixel grid as text, one '*' per lit pixel.
// Diagnostic output for the debug REPL, not the real renderer.
func (st *MachineState) DisplayString() string {
	var sb strings.Builder

	for y := 0; y < DisplayHeight; y++ {
		for x := 0; x < DisplayWidth; x++ {
			if st.Display[y*DisplayWidth+x] == 0x01 {
				sb.WriteByte('*')
			} else {
				sb.WriteByte(' ')
			}
		}

		sb.WriteByte('\n')
	}

	return sb.String()
}
