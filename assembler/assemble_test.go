package assembler_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.gatech.edu/ECEInnovation/RISC-V-Assembler/assembler"
)

func TestProgramIType(t *testing.T) {
	source := `
	.text
		addi x1, x0, 1
		addi x2, x0, 2
	`
	expected := []uint32{
		0x00100093,
		0x00200113,
	}

	validateResult(t, source, expected, nil)
}

func TestProgramBranchesAndLabels(t *testing.T) {
	source := `
	.text
		label1: addi x1, x0, 1
		addi x2, x0, 2
		beq x1, x2, label1 # should evaluate to -8
	`

	expected := []uint32{
		0x00100093,
		0x00200113,
		0xfe208ce3,
	}

	validateResult(t, source, expected, nil)
}

func TestProgramBackwardBranch(t *testing.T) {
	source := `
top:	addi a0, a0, 1
	nop
	blt a0, a1, top
`
	expected := []uint32{
		0x00150513,
		0x00000013,
		0xfeb54ce3,
	}

	validateResult(t, source, expected, nil)
}

func TestProgramJumps(t *testing.T) {
	source := `
	.text
		jal x1, label1
		addi x2, x0, 2
		label1: addi x3, x0, 3
	`

	expected := []uint32{
		0x008000ef,
		0x00200113,
		0x00300193,
	}

	validateResult(t, source, expected, nil)
}

func TestProgramBitPatternOffsets(t *testing.T) {
	source := `
		jal zero 0x12312A
		beq a0, a1, 0x1FFE
		beq a0, a1, -2
		jal ra, 0x1FFFFE
	`

	expected := []uint32{
		0x92a2306f,
		0xfeb50fe3,
		0xfeb50fe3,
		0xfffff0ef,
	}

	validateResult(t, source, expected, nil)
}

func TestDataWord(t *testing.T) {
	source := `
	.data
	MyWord: .word 0x12345678
	`

	validateResult(t, source, nil, []byte{0x12, 0x34, 0x56, 0x78})
}

func TestDataString(t *testing.T) {
	source := `
	.data
	MyString: .ascii "Hello World!"
	Terminated: .string "ok"
	`

	expected := append([]byte("Hello World!"), 'o', 'k', 0)
	validateResult(t, source, nil, expected)
}

func TestDataMixedSizes(t *testing.T) {
	source := `
	.data
	b:	.byte 1, 0xff, -1
	h:	.half 0x1234
	w:	.word -2, b, h
	pad:	.zero 2
	`

	expected := []byte{
		0x01, 0xff, 0xff,
		0x12, 0x34,
		0xff, 0xff, 0xff, 0xfe,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x03,
		0x00, 0x00,
	}
	validateResult(t, source, nil, expected)
}

func TestDataInProgram(t *testing.T) {
	source := `
	.data
	MyWord: .word 0x12345678
	Other:  .word 1
	.text
	lw x1, MyWord(gp)
	lw x1, Other(gp)
	`

	expectedText := []uint32{
		0x0001a083,
		0x0041a083,
	}

	validateResult(t, source, expectedText, []byte{0x12, 0x34, 0x56, 0x78, 0x00, 0x00, 0x00, 0x01})
}

func TestProgramInterleavedSegments(t *testing.T) {
	source := `
	.data
	first: .byte 7
	.text
	main: addi a0, zero, 1
	.data
	second: .byte 8
	.text
	      j main
	`

	res, err := assembler.Assemble(source)
	require.NoError(t, err)
	require.Equal(t, []byte{7, 8}, res.Data)
	require.Equal(t, []uint32{0x00100513, 0xffdff06f}, res.Words)

	second, ok := res.Symbols.Lookup("second")
	require.True(t, ok)
	require.Equal(t, assembler.SegmentData, second.Segment)
	require.Equal(t, uint32(1), second.Offset)
}

func TestEmptyProgram(t *testing.T) {
	for _, source := range []string{"", "\n\n", "# only a comment\n\t.text\n.data\n"} {
		res, err := assembler.Assemble(source)
		require.NoError(t, err)
		require.Empty(t, res.Text)
		require.Empty(t, res.Data)
		require.Equal(t, 0, res.Symbols.Len())
	}
}

func TestUndefinedLabelProducesNoOutput(t *testing.T) {
	res, err := assembler.Assemble("jal a0, missing")
	require.Nil(t, res)
	require.True(t, errors.Is(err, assembler.ErrUndefinedLabel))

	var asmErr *assembler.AssemblyError
	require.ErrorAs(t, err, &asmErr)
	require.Equal(t, 0, asmErr.Range.Start.Line)
	require.Contains(t, asmErr.Error(), "missing")
}

func TestFirstErrorWins(t *testing.T) {
	source := `
	addi x1, x1, 1
	add x1, x1, x99
	foo x1
	`
	_, err := assembler.Assemble(source)
	require.ErrorIs(t, err, assembler.ErrUnknownRegister)
}

func TestLittleEndianOutput(t *testing.T) {
	cfg := assembler.DefaultConfig()
	cfg.ByteOrder = "little"

	res, err := assembler.AssembleWithConfig("addi x1, x0, 1\n.data\n.half 0x1234\n.word 0x12345678", cfg)
	require.NoError(t, err)
	require.Equal(t, []byte{0x93, 0x00, 0x10, 0x00}, res.Text)
	require.Equal(t, []byte{0x34, 0x12, 0x78, 0x56, 0x34, 0x12}, res.Data)
	require.Equal(t, binary.LittleEndian, res.ByteOrder)
}

func TestExtensionDisabled(t *testing.T) {
	cfg := assembler.AssemblerConfig{ByteOrder: "big"}

	_, err := assembler.AssembleWithConfig("mul a0, a1, a2", cfg)
	require.ErrorIs(t, err, assembler.ErrUnknownMnemonic)

	res, err := assembler.AssembleWithConfig("mul a0, a1, a2", assembler.DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, []uint32{0x02c58533}, res.Words)
}

func TestInvalidConfigRejected(t *testing.T) {
	_, err := assembler.AssembleWithConfig("nop", assembler.AssemblerConfig{ByteOrder: "middle"})
	require.Error(t, err)
}

func TestAddressToLine(t *testing.T) {
	source := "start:\n  addi a0, a0, 1\n\n  # comment\n  j start\n"
	res, err := assembler.Assemble(source)
	require.NoError(t, err)
	require.Equal(t, map[uint32]int{0: 1, 4: 4}, res.AddressToLine)

	addr, ok := res.AddressOf(4)
	require.True(t, ok)
	require.Equal(t, uint32(4), addr)
}

func TestBytesConcatenatesSegments(t *testing.T) {
	res, err := assembler.Assemble("nop\n.data\n.byte 1, 2")
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x13, 0x01, 0x02}, res.Bytes())
}

func TestDiagnosticConversion(t *testing.T) {
	_, err := assembler.Assemble("add x1, x1, x32")
	require.Error(t, err)

	d := assembler.ToDiagnostic(err)
	require.Equal(t, assembler.Error, d.Severity)
	require.Equal(t, assembler.TextRange{
		Start: assembler.TextPosition{Line: 0, Char: 12},
		End:   assembler.TextPosition{Line: 0, Char: 15},
	}, d.Range)
	require.Equal(t, "Expected register, got: \"x32\"", d.Message)
}

func validateResult(t *testing.T, source string, expectedText []uint32, expectedData []byte) {
	t.Helper()

	program, err := assembler.Assemble(source)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(program.Words) != len(expectedText) {
		t.Fatalf("Expected %d instructions, got %d", len(expectedText), len(program.Words))
	}

	for i, instruction := range program.Words {
		if instruction != expectedText[i] {
			t.Errorf("Expected instruction %d to be 0x%08x, got 0x%08x", i, expectedText[i], instruction)
		}
		got := binary.BigEndian.Uint32(program.Text[i*4:])
		if got != instruction {
			t.Errorf("Expected text bytes %d to hold 0x%08x, got 0x%08x", i, instruction, got)
		}
	}

	if len(program.Data) != len(expectedData) {
		t.Fatalf("Expected %d data bytes, got %d", len(expectedData), len(program.Data))
	}

	for i, b := range program.Data {
		if b != expectedData[i] {
			t.Errorf("Expected data byte %d to be 0x%02x, got 0x%02x", i, expectedData[i], b)
		}
	}
}
