package assembler

import (
	"encoding/binary"
	"fmt"
)

func makeRTypeInstruction(opcode, rd, rs1, rs2, func7, func3 uint32) uint32 {
	return (func7 << 25) | (rs2 << 20) | (rs1 << 15) | (func3 << 12) | (rd << 7) | opcode
}

func makeITypeInstruction(opcode, rd, rs1, imm, func3 uint32) uint32 {
	imm = imm & 0xFFF
	return (imm << 20) | (rs1 << 15) | (func3 << 12) | (rd << 7) | opcode
}

func makeSTypeInstruction(opcode, rs1, rs2, imm, func3 uint32) uint32 {
	imm = imm & 0xFFF
	return ((imm >> 5) << 25) | (rs2 << 20) | (rs1 << 15) | (func3 << 12) | ((imm & 0x1F) << 7) | opcode
}

// imm is the byte offset; bit 0 is dropped.
func makeBTypeInstruction(opcode, rs1, rs2, imm, func3 uint32) uint32 {
	imm = imm & 0x1FFF

	instr := (rs2 << 20) | (rs1 << 15) | (func3 << 12) | opcode
	instr |= ((imm >> 12) & 0x1) << 31
	instr |= ((imm >> 5) & 0x3F) << 25
	instr |= ((imm >> 1) & 0xF) << 8
	instr |= ((imm >> 11) & 0x1) << 7
	return instr
}

// imm is the upper 20 bits, placed verbatim.
func makeUTypeInstruction(opcode, rd, imm uint32) uint32 {
	imm = imm & 0xFFFFF
	return (imm << 12) | (rd << 7) | opcode
}

// imm is the byte offset; bit 0 is dropped.
func makeJTypeInstruction(opcode, rd, imm uint32) uint32 {
	imm = imm & 0x1FFFFF

	instr := (rd << 7) | opcode
	instr |= ((imm >> 20) & 0x1) << 31
	instr |= ((imm >> 1) & 0x3FF) << 21
	instr |= ((imm >> 11) & 0x1) << 20
	instr |= ((imm >> 12) & 0xFF) << 12
	return instr
}

func mustOpcode(mnemonic string) Opcode {
	op, ok := opcodeTable[mnemonic]
	if !ok {
		panic(fmt.Sprintf("assembler: encoding unknown mnemonic %q", mnemonic))
	}
	return op
}

func mustImmediate(inst Instruction, imm Operand) uint32 {
	if imm.IsLabel() {
		panic(fmt.Sprintf("assembler: encoding %s with unresolved label %q", inst.Name(), imm.Label))
	}
	return uint32(imm.Value)
}

// EncodeWord packs a resolved instruction into its machine word. A
// descriptor whose mnemonic does not belong to its variant, or whose
// immediate is still a label, is a programming error and panics.
func EncodeWord(inst Instruction) uint32 {
	op := mustOpcode(inst.Name())
	if op.Format != inst.Format() {
		panic(fmt.Sprintf("assembler: %s is a %s instruction, not %s", inst.Name(), op.Format, inst.Format()))
	}

	switch i := inst.(type) {
	case RType:
		return makeRTypeInstruction(op.Opcode, uint32(i.Rd), uint32(i.Rs1), uint32(i.Rs2), op.Funct7, op.Funct3)
	case IType:
		imm := mustImmediate(i, i.Imm)
		if op.Shift {
			imm &= 0x1F
		}
		return makeITypeInstruction(op.Opcode, uint32(i.Rd), uint32(i.Rs1), imm|op.ImmFlag, op.Funct3)
	case LoadType:
		return makeITypeInstruction(op.Opcode, uint32(i.Rd), uint32(i.Rs1), mustImmediate(i, i.Imm), op.Funct3)
	case JALRType:
		return makeITypeInstruction(op.Opcode, uint32(i.Rd), uint32(i.Rs1), mustImmediate(i, i.Imm), op.Funct3)
	case SType:
		return makeSTypeInstruction(op.Opcode, uint32(i.Rs1), uint32(i.Rs2), mustImmediate(i, i.Imm), op.Funct3)
	case BType:
		return makeBTypeInstruction(op.Opcode, uint32(i.Rs1), uint32(i.Rs2), mustImmediate(i, i.Imm), op.Funct3)
	case JType:
		return makeJTypeInstruction(op.Opcode, uint32(i.Rd), mustImmediate(i, i.Imm))
	case UType:
		return makeUTypeInstruction(op.Opcode, uint32(i.Rd), mustImmediate(i, i.Imm))
	}
	panic(fmt.Sprintf("assembler: unknown instruction variant %T", inst))
}

// Encode returns the machine word most significant byte first.
func Encode(inst Instruction) [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], EncodeWord(inst))
	return b
}

func signExtend(v uint32, bits uint) int64 {
	shift := 32 - bits
	return int64(int32(v<<shift) >> shift)
}

func DecodeRTypeInstruction(instruction uint32) (opcode, rd, rs1, rs2, func7, func3 uint32) {
	opcode = instruction & 0x7F
	rd = (instruction >> 7) & 0x1F
	func3 = (instruction >> 12) & 0x7
	rs1 = (instruction >> 15) & 0x1F
	rs2 = (instruction >> 20) & 0x1F
	func7 = (instruction >> 25) & 0x7F
	return
}

func DecodeITypeInstruction(instruction uint32) (opcode, rd, rs1, imm, func3 uint32) {
	opcode = instruction & 0x7F
	rd = (instruction >> 7) & 0x1F
	func3 = (instruction >> 12) & 0x7
	rs1 = (instruction >> 15) & 0x1F
	imm = (instruction >> 20) & 0xFFF
	return
}

func DecodeSTypeInstruction(instruction uint32) (opcode, rs1, rs2, imm, func3 uint32) {
	opcode = instruction & 0x7F
	func3 = (instruction >> 12) & 0x7
	rs1 = (instruction >> 15) & 0x1F
	rs2 = (instruction >> 20) & 0x1F
	imm = (((instruction >> 25) & 0x7F) << 5) | ((instruction >> 7) & 0x1F)
	return
}

func DecodeBTypeInstruction(instruction uint32) (opcode, rs1, rs2, imm, func3 uint32) {
	opcode = instruction & 0x7F
	func3 = (instruction >> 12) & 0x7
	rs1 = (instruction >> 15) & 0x1F
	rs2 = (instruction >> 20) & 0x1F
	imm = ((instruction >> 31) & 0x1) << 12
	imm |= ((instruction >> 7) & 0x1) << 11
	imm |= ((instruction >> 25) & 0x3F) << 5
	imm |= ((instruction >> 8) & 0xF) << 1
	return
}

func DecodeUTypeInstruction(instruction uint32) (opcode, rd, imm uint32) {
	opcode = instruction & 0x7F
	rd = (instruction >> 7) & 0x1F
	imm = (instruction >> 12) & 0xFFFFF
	return
}

func DecodeJTypeInstruction(instruction uint32) (opcode, rd, imm uint32) {
	opcode = instruction & 0x7F
	rd = (instruction >> 7) & 0x1F
	imm = ((instruction >> 31) & 0x1) << 20
	imm |= ((instruction >> 21) & 0x3FF) << 1
	imm |= ((instruction >> 20) & 0x1) << 11
	imm |= ((instruction >> 12) & 0xFF) << 12
	return
}

func GetOpCode(instruction uint32) uint32 {
	return instruction & 0x7F
}

// DecodeImmediate returns the sign extended immediate of an encoded word.
// Upper immediates are returned as the raw 20 bit field.
func DecodeImmediate(instruction uint32) int64 {
	switch GetOpCode(instruction) {
	case OPCODE_ITYPE, OPCODE_MEMITYPE, OPCODE_JALR:
		_, _, _, imm, _ := DecodeITypeInstruction(instruction)
		return signExtend(imm, 12)
	case OPCODE_STYPE:
		_, _, _, imm, _ := DecodeSTypeInstruction(instruction)
		return signExtend(imm, 12)
	case OPCODE_BTYPE:
		_, _, _, imm, _ := DecodeBTypeInstruction(instruction)
		return signExtend(imm, 13)
	case OPCODE_JAL:
		_, _, imm := DecodeJTypeInstruction(instruction)
		return signExtend(imm, 21)
	case OPCODE_LUI, OPCODE_AUIPC:
		_, _, imm := DecodeUTypeInstruction(instruction)
		return int64(imm)
	}
	return 0
}
