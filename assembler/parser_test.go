package assembler_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.gatech.edu/ECEInnovation/RISC-V-Assembler/assembler"
)

func parseOne(t *testing.T, source string) assembler.LineRecord {
	t.Helper()
	records, err := assembler.Parse(source)
	require.NoError(t, err)
	require.Len(t, records, 1)
	return records[0]
}

func TestParseInstructions(t *testing.T) {
	tests := []struct {
		source   string
		expected assembler.Instruction
	}{
		{"add a0, a1, a2", assembler.RType{Mnemonic: "add", Rd: 10, Rs1: 11, Rs2: 12}},
		{"ADD x1 x2 x3", assembler.RType{Mnemonic: "add", Rd: 1, Rs1: 2, Rs2: 3}},
		{"addi sp, sp, -16", assembler.IType{Mnemonic: "addi", Rd: 2, Rs1: 2, Imm: assembler.Imm(-16)}},
		{"xori a0, a0, 0b101", assembler.IType{Mnemonic: "xori", Rd: 10, Rs1: 10, Imm: assembler.Imm(5)}},
		{"andi t0, t1, 0xfff", assembler.IType{Mnemonic: "andi", Rd: 5, Rs1: 6, Imm: assembler.Imm(0xfff)}},
		{"addi a0, a0, -0x800", assembler.IType{Mnemonic: "addi", Rd: 10, Rs1: 10, Imm: assembler.Imm(-2048)}},
		{"slli a0, a0, 31", assembler.IType{Mnemonic: "slli", Rd: 10, Rs1: 10, Imm: assembler.Imm(31)}},
		{"addi a0, a0, value", assembler.IType{Mnemonic: "addi", Rd: 10, Rs1: 10, Imm: assembler.LabelRef("value")}},
		{"lw a0, 8(sp)", assembler.LoadType{Mnemonic: "lw", Rd: 10, Rs1: 2, Imm: assembler.Imm(8)}},
		{"lbu a0, -1 ( a1 )", assembler.LoadType{Mnemonic: "lbu", Rd: 10, Rs1: 11, Imm: assembler.Imm(-1)}},
		{"lw x1, (x2)", assembler.LoadType{Mnemonic: "lw", Rd: 1, Rs1: 2}},
		{"lw x1, MyWord(gp)", assembler.LoadType{Mnemonic: "lw", Rd: 1, Rs1: 3, Imm: assembler.LabelRef("MyWord")}},
		{"sw a0, 4(sp)", assembler.SType{Mnemonic: "sw", Rs1: 2, Rs2: 10, Imm: assembler.Imm(4)}},
		{"sb a0, (sp)", assembler.SType{Mnemonic: "sb", Rs1: 2, Rs2: 10}},
		{"beq s5, a2, 1234", assembler.BType{Mnemonic: "beq", Rs1: 21, Rs2: 12, Imm: assembler.Imm(1234)}},
		{"bne a0, zero, loop", assembler.BType{Mnemonic: "bne", Rs1: 10, Rs2: 0, Imm: assembler.LabelRef("loop")}},
		{"jal ra, 2048", assembler.JType{Mnemonic: "jal", Rd: 1, Imm: assembler.Imm(2048)}},
		{"jal zero 0x12312A", assembler.JType{Mnemonic: "jal", Rd: 0, Imm: assembler.Imm(0x12312A)}},
		{"jal ra, 0x1FFFFE", assembler.JType{Mnemonic: "jal", Rd: 1, Imm: assembler.Imm(0x1FFFFE)}},
		{"beq a0, a1, 0x1FFE", assembler.BType{Mnemonic: "beq", Rs1: 10, Rs2: 11, Imm: assembler.Imm(0x1FFE)}},
		{"jal func", assembler.JType{Mnemonic: "jal", Rd: 1, Imm: assembler.LabelRef("func")}},
		{"jalr x0, 0xabc(ra)", assembler.JALRType{Mnemonic: "jalr", Rd: 0, Rs1: 1, Imm: assembler.Imm(0xabc)}},
		{"jalr ra, t0, 4", assembler.JALRType{Mnemonic: "jalr", Rd: 1, Rs1: 5, Imm: assembler.Imm(4)}},
		{"jalr ra, t0", assembler.JALRType{Mnemonic: "jalr", Rd: 1, Rs1: 5}},
		{"jalr t1", assembler.JALRType{Mnemonic: "jalr", Rd: 1, Rs1: 6}},
		{"lui a0, 0xFFFFF", assembler.UType{Mnemonic: "lui", Rd: 10, Imm: assembler.Imm(0xFFFFF)}},
		{"auipc gp, -1", assembler.UType{Mnemonic: "auipc", Rd: 3, Imm: assembler.Imm(-1)}},
		{"mul a0, a1, a2", assembler.RType{Mnemonic: "mul", Rd: 10, Rs1: 11, Rs2: 12}},
	}

	for _, tc := range tests {
		rec := parseOne(t, tc.source)
		require.Equal(t, tc.expected, rec.Instruction, tc.source)
		require.Nil(t, rec.Directive, tc.source)
		require.Equal(t, assembler.SegmentText, rec.Segment(), tc.source)
	}
}

func TestParsePseudoInstructions(t *testing.T) {
	tests := []struct {
		source   string
		expected assembler.Instruction
	}{
		{"nop", assembler.IType{Mnemonic: "addi"}},
		{"ret", assembler.JALRType{Mnemonic: "jalr", Rd: 0, Rs1: 1}},
		{"mv a0, a1", assembler.IType{Mnemonic: "addi", Rd: 10, Rs1: 11}},
		{"not t0, t1", assembler.IType{Mnemonic: "xori", Rd: 5, Rs1: 6, Imm: assembler.Imm(-1)}},
		{"neg a0, a0", assembler.RType{Mnemonic: "sub", Rd: 10, Rs1: 0, Rs2: 10}},
		{"j loop", assembler.JType{Mnemonic: "jal", Rd: 0, Imm: assembler.LabelRef("loop")}},
		{"J -4", assembler.JType{Mnemonic: "jal", Rd: 0, Imm: assembler.Imm(-4)}},
	}

	for _, tc := range tests {
		require.Equal(t, tc.expected, parseOne(t, tc.source).Instruction, tc.source)
	}
}

func TestParseLabels(t *testing.T) {
	source := `
first:
second: third: add x1, x1, x1  # trailing comment
	; full line comment
	// another comment
fourth: nop
`
	records, err := assembler.Parse(source)
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, []string{"first", "second", "third"}, records[0].LabelNames())
	require.Equal(t, 2, records[0].Line)
	require.Equal(t, 1, records[0].Labels[0].Range.Start.Line)
	require.Equal(t, 8, records[0].Labels[2].Range.Start.Char)

	require.Equal(t, []string{"fourth"}, records[1].LabelNames())
	require.Equal(t, 5, records[1].Line)
	require.Equal(t, assembler.TextRange{
		Start: assembler.TextPosition{Line: 5, Char: 8},
		End:   assembler.TextPosition{Line: 5, Char: 11},
	}, records[1].Range)
}

func TestParseLabelNames(t *testing.T) {
	records, err := assembler.Parse("_start: nop\n.L1$x: nop\nloop.2: nop")
	require.NoError(t, err)
	require.Equal(t, []string{"_start"}, records[0].LabelNames())
	require.Equal(t, []string{".L1$x"}, records[1].LabelNames())
	require.Equal(t, []string{"loop.2"}, records[2].LabelNames())
}

func TestParseDataDirectives(t *testing.T) {
	source := `
	.data
	.globl table
	.section .rodata
	.word 1, -1, table
	.half 0xffff
	.byte 'a'
`
	_, err := assembler.Parse(source)
	require.ErrorIs(t, err, assembler.ErrSyntax)

	source = strings.Replace(source, ".byte 'a'", ".byte 97 200", 1)
	records, err := assembler.Parse(source)
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.Equal(t, &assembler.DataDirective{
		Name:   ".word",
		Size:   assembler.DataSizeWord,
		Values: []assembler.Operand{assembler.Imm(1), assembler.Imm(-1), assembler.LabelRef("table")},
	}, records[0].Directive)
	require.Equal(t, uint32(12), records[0].Directive.ByteCount())
	require.Equal(t, assembler.SegmentData, records[0].Segment())

	require.Equal(t, []assembler.Operand{assembler.Imm(0xffff)}, records[1].Directive.Values)
	require.Equal(t, assembler.DataSizeHalf, records[1].Directive.Size)
	require.Equal(t, []assembler.Operand{assembler.Imm(97), assembler.Imm(200)}, records[2].Directive.Values)
}

func TestParseStrings(t *testing.T) {
	tests := []struct {
		source   string
		expected []byte
	}{
		{`.string "hi\n"`, []byte("hi\n\x00")},
		{`.asciz ""`, []byte{0}},
		{`.ascii "a\"b\\c\t\r"`, []byte("a\"b\\c\t\r")},
		{`.ascii "x\0y"`, []byte{'x', 0, 'y'}},
		{`.ascii "# not; a // comment"`, []byte("# not; a // comment")},
		{`.space 3`, []byte{0, 0, 0}},
		{`.zero 0`, []byte{}},
	}
	for _, tc := range tests {
		rec := parseOne(t, tc.source)
		require.Equal(t, tc.expected, rec.Directive.Bytes, tc.source)
		require.Equal(t, uint32(len(tc.expected)), rec.Directive.ByteCount(), tc.source)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		source string
		kind   assembler.ErrorKind
	}{
		{"add x1, x1, x32", assembler.ErrUnknownRegister},
		{"add x1, x1, A0", assembler.ErrUnknownRegister},
		{"lw a0, 0(a9)", assembler.ErrUnknownRegister},
		{"foo x1, x2", assembler.ErrUnknownMnemonic},
		{"ecall", assembler.ErrUnknownMnemonic},
		{"add x1, x1", assembler.ErrSyntax},
		{"add x1, x1, x1, x1", assembler.ErrSyntax},
		{"add x1,, x1, x1", assembler.ErrSyntax},
		{"addi x1, x1, 12ab", assembler.ErrSyntax},
		{"addi x1, x1, 0x", assembler.ErrSyntax},
		{"addi x1, x1, @", assembler.ErrSyntax},
		{"lw x1, 8(sp", assembler.ErrSyntax},
		{"lw x1, 8", assembler.ErrSyntax},
		{"nop x1", assembler.ErrSyntax},
		{"1abc: nop", assembler.ErrSyntax},
		{"dangling:", assembler.ErrSyntax},
		{"dangling:\n.data\n.word 1", assembler.ErrSyntax},
		{".foo 1", assembler.ErrSyntax},
		{".word", assembler.ErrSyntax},
		{`.string "abc`, assembler.ErrSyntax},
		{`.string "a\qb"`, assembler.ErrSyntax},
		{".string abc", assembler.ErrSyntax},
		{".text extra", assembler.ErrSyntax},
		{"addi x1, x1, 0x100000000", assembler.ErrNumericOverflow},
		{"addi x1, x1, -2147483649", assembler.ErrNumericOverflow},
		{"addi x1, x1, 99999999999999999999999", assembler.ErrNumericOverflow},
		{".word 4294967296", assembler.ErrNumericOverflow},
		{"addi x1, x1, 4096", assembler.ErrImmediateOutOfRange},
		{"addi x1, x1, -2049", assembler.ErrImmediateOutOfRange},
		{"slli x1, x1, 32", assembler.ErrImmediateOutOfRange},
		{"srai x1, x1, -1", assembler.ErrImmediateOutOfRange},
		{"beq x1, x2, 3", assembler.ErrImmediateOutOfRange},
		{"beq x1, x2, 8192", assembler.ErrImmediateOutOfRange},
		{"beq x1, x2, -4098", assembler.ErrImmediateOutOfRange},
		{"jal x1, 0x200000", assembler.ErrImmediateOutOfRange},
		{"jal x1, -1048578", assembler.ErrImmediateOutOfRange},
		{"j 7", assembler.ErrImmediateOutOfRange},
		{"lui x1, 0x100000", assembler.ErrImmediateOutOfRange},
		{"sw x1, 5000(sp)", assembler.ErrImmediateOutOfRange},
		{".byte 256", assembler.ErrImmediateOutOfRange},
		{".byte -129", assembler.ErrImmediateOutOfRange},
		{".half 65536", assembler.ErrImmediateOutOfRange},
		{".space -1", assembler.ErrImmediateOutOfRange},
	}

	for _, tc := range tests {
		records, err := assembler.Parse(tc.source)
		require.Nil(t, records, tc.source)
		require.Error(t, err, tc.source)
		require.True(t, errors.Is(err, tc.kind), "%q: expected %v, got %v", tc.source, tc.kind, err)

		var asmErr *assembler.AssemblyError
		require.ErrorAs(t, err, &asmErr, tc.source)
		require.Equal(t, tc.kind, asmErr.Kind, tc.source)
	}
}

func TestParseErrorRange(t *testing.T) {
	_, err := assembler.Parse("\n  addi x1, x1, 4096")

	var asmErr *assembler.AssemblyError
	require.ErrorAs(t, err, &asmErr)
	require.Equal(t, assembler.TextRange{
		Start: assembler.TextPosition{Line: 1, Char: 15},
		End:   assembler.TextPosition{Line: 1, Char: 19},
	}, asmErr.Range)
	require.Equal(t, "line 2:16: Immediate value \"4096\" is out of range [-2048, 4095]", asmErr.Error())
}
