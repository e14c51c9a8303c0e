package assembler_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.gatech.edu/ECEInnovation/RISC-V-Assembler/assembler"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		inst     assembler.Instruction
		expected [4]byte
	}{
		{assembler.RType{Mnemonic: "add", Rd: 1, Rs1: 1, Rs2: 1}, [4]byte{0x00, 0x10, 0x80, 0xB3}},
		{assembler.UType{Mnemonic: "lui", Rd: 12, Imm: assembler.Imm(0xDEAD)}, [4]byte{0x0D, 0xEA, 0xD6, 0x37}},
		{assembler.JType{Mnemonic: "jal", Rd: 1, Imm: assembler.Imm(0b101010101010101010101)}, [4]byte{0xD5, 0x45, 0x50, 0xEF}},
		{assembler.BType{Mnemonic: "beq", Rs1: 21, Rs2: 12, Imm: assembler.Imm(1234)}, [4]byte{0x4C, 0xCA, 0x89, 0x63}},
		{assembler.LoadType{Mnemonic: "lb", Rd: 1, Rs1: 1, Imm: assembler.Imm(1)}, [4]byte{0x00, 0x10, 0x80, 0x83}},
		{assembler.IType{Mnemonic: "addi", Rd: 14, Rs1: 21, Imm: assembler.Imm(123)}, [4]byte{0x07, 0xBA, 0x87, 0x13}},
		{assembler.IType{Mnemonic: "srai", Rd: 30, Rs1: 5, Imm: assembler.Imm(12)}, [4]byte{0x40, 0xC2, 0xDF, 0x13}},
		{assembler.JALRType{Mnemonic: "jalr", Rd: 23, Rs1: 3, Imm: assembler.Imm(564)}, [4]byte{0x23, 0x41, 0x8B, 0xE7}},
		{assembler.SType{Mnemonic: "sw", Rs1: 3, Rs2: 10, Imm: assembler.Imm(0b100101101010)}, [4]byte{0x96, 0xA1, 0xA5, 0x23}},
		{assembler.SType{Mnemonic: "sb", Rs1: 24, Rs2: 2, Imm: assembler.Imm(0b001010011100)}, [4]byte{0x28, 0x2C, 0x0E, 0x23}},
		{assembler.UType{Mnemonic: "auipc", Rd: 1, Imm: assembler.Imm(0xD1DF2)}, [4]byte{0xD1, 0xDF, 0x20, 0x97}},
		{assembler.BType{Mnemonic: "beq", Rs1: 10, Rs2: 23, Imm: assembler.Imm(0b1010101010101)}, [4]byte{0xD5, 0x75, 0x0A, 0x63}},
		{assembler.JType{Mnemonic: "jal", Rd: 21, Imm: assembler.Imm(0b100111010001010011011)}, [4]byte{0xA9, 0xA3, 0xAA, 0xEF}},
		{assembler.BType{Mnemonic: "bne", Rs1: 11, Rs2: 3, Imm: assembler.Imm(0b0110111010101)}, [4]byte{0x5C, 0x35, 0x9A, 0xE3}},
		{assembler.BType{Mnemonic: "blt", Rs1: 10, Rs2: 11, Imm: assembler.Imm(-8)}, [4]byte{0xFE, 0xB5, 0x4C, 0xE3}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(fmt.Sprintf("%s %v", tc.inst.Name(), tc.inst), func(t *testing.T) {
			require.Equal(t, tc.expected, assembler.Encode(tc.inst))
		})
	}
}

func zeroOperandInstruction(t *testing.T, mnemonic string) assembler.Instruction {
	t.Helper()
	format, err := assembler.Classify(mnemonic)
	require.NoError(t, err)

	switch format {
	case assembler.FormatRegisterRegister:
		return assembler.RType{Mnemonic: mnemonic}
	case assembler.FormatRegisterImmediate:
		return assembler.IType{Mnemonic: mnemonic}
	case assembler.FormatLoad:
		return assembler.LoadType{Mnemonic: mnemonic}
	case assembler.FormatStore:
		return assembler.SType{Mnemonic: mnemonic}
	case assembler.FormatBranch:
		return assembler.BType{Mnemonic: mnemonic}
	case assembler.FormatJump:
		return assembler.JType{Mnemonic: mnemonic}
	case assembler.FormatJumpRegister:
		return assembler.JALRType{Mnemonic: mnemonic}
	case assembler.FormatUpperImmediate:
		return assembler.UType{Mnemonic: mnemonic}
	}
	t.Fatalf("no descriptor for format %v", format)
	return nil
}

func TestEncodeZeroOperands(t *testing.T) {
	mnemonics := assembler.Mnemonics()
	require.NotEmpty(t, mnemonics)

	for _, mnemonic := range mnemonics {
		mnemonic := mnemonic
		t.Run(mnemonic, func(t *testing.T) {
			op, err := assembler.LookupOpcode(mnemonic)
			require.NoError(t, err)

			expected := op.Opcode | op.Funct3<<12 | op.Funct7<<25 | op.ImmFlag<<20
			require.Equal(t, expected, assembler.EncodeWord(zeroOperandInstruction(t, mnemonic)))
		})
	}
}

func TestEncodeShiftImmediateFlag(t *testing.T) {
	srli := assembler.EncodeWord(assembler.IType{Mnemonic: "srli", Rd: 1, Rs1: 2, Imm: assembler.Imm(3)})
	srai := assembler.EncodeWord(assembler.IType{Mnemonic: "srai", Rd: 1, Rs1: 2, Imm: assembler.Imm(3)})
	require.Equal(t, uint32(0x40000000), srli^srai)
}

func TestEncodeNegativeImmediates(t *testing.T) {
	require.Equal(t, uint32(0xfff00093), assembler.EncodeWord(assembler.IType{Mnemonic: "addi", Rd: 1, Imm: assembler.Imm(-1)}))
	require.Equal(t, uint32(0xfe112e23), assembler.EncodeWord(assembler.SType{Mnemonic: "sw", Rs1: 2, Rs2: 1, Imm: assembler.Imm(-4)}))
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, imm := range []int64{-2048, -1, 0, 1, 2047} {
		for _, inst := range []assembler.Instruction{
			assembler.IType{Mnemonic: "addi", Rd: 5, Rs1: 6, Imm: assembler.Imm(imm)},
			assembler.LoadType{Mnemonic: "lw", Rd: 5, Rs1: 6, Imm: assembler.Imm(imm)},
			assembler.JALRType{Mnemonic: "jalr", Rd: 5, Rs1: 6, Imm: assembler.Imm(imm)},
			assembler.SType{Mnemonic: "sh", Rs1: 6, Rs2: 7, Imm: assembler.Imm(imm)},
		} {
			require.Equal(t, imm, assembler.DecodeImmediate(assembler.EncodeWord(inst)), "%v", inst)
		}
	}

	for _, imm := range []int64{-4096, -8, 0, 2, 4094} {
		word := assembler.EncodeWord(assembler.BType{Mnemonic: "bgeu", Rs1: 31, Rs2: 30, Imm: assembler.Imm(imm)})
		require.Equal(t, imm, assembler.DecodeImmediate(word))

		_, rs1, rs2, _, func3 := assembler.DecodeBTypeInstruction(word)
		require.Equal(t, uint32(31), rs1)
		require.Equal(t, uint32(30), rs2)
		require.Equal(t, uint32(0b111), func3)
	}

	for _, imm := range []int64{-(1 << 20), -4, 0, 2, 1<<20 - 2} {
		word := assembler.EncodeWord(assembler.JType{Mnemonic: "jal", Rd: 17, Imm: assembler.Imm(imm)})
		require.Equal(t, imm, assembler.DecodeImmediate(word))

		_, rd, _ := assembler.DecodeJTypeInstruction(word)
		require.Equal(t, uint32(17), rd)
	}

	for _, imm := range []int64{0, 1, 0x80000, 0xFFFFF} {
		word := assembler.EncodeWord(assembler.UType{Mnemonic: "lui", Rd: 9, Imm: assembler.Imm(imm)})
		require.Equal(t, imm, assembler.DecodeImmediate(word))
	}

	word := assembler.EncodeWord(assembler.RType{Mnemonic: "sra", Rd: 3, Rs1: 4, Rs2: 5})
	opcode, rd, rs1, rs2, func7, func3 := assembler.DecodeRTypeInstruction(word)
	require.Equal(t, []uint32{assembler.OPCODE_RTYPE, 3, 4, 5, 0b0100000, 0b101}, []uint32{opcode, rd, rs1, rs2, func7, func3})
}

func TestEncodePanicsOnMisuse(t *testing.T) {
	require.Panics(t, func() {
		assembler.EncodeWord(assembler.RType{Mnemonic: "addi"})
	})
	require.Panics(t, func() {
		assembler.EncodeWord(assembler.BType{Mnemonic: "beq", Imm: assembler.LabelRef("loop")})
	})
	require.Panics(t, func() {
		assembler.EncodeWord(assembler.IType{Mnemonic: "nope"})
	})
}
