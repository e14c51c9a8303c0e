package assembler

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// maxFill bounds .space and .zero so a typo cannot allocate gigabytes.
const maxFill = 1 << 24

type immediateRange struct {
	min, max int64
	even     bool
}

func (ir immediateRange) check(value int64, literal string, r TextRange) error {
	if value < ir.min || value > ir.max {
		return Errors.ImmediateOutOfRange(literal, ir.min, ir.max, r)
	}
	if ir.even && value%2 != 0 {
		return Errors.MisalignedOffset(literal, r)
	}
	return nil
}

var (
	twelveBitRange = immediateRange{min: -2048, max: 4095}
	shiftRange     = immediateRange{min: 0, max: 31}
	upperRange     = immediateRange{min: -(1 << 19), max: 1<<20 - 1}
	branchRange    = immediateRange{min: -4096, max: 4095, even: true}
	jumpRange      = immediateRange{min: -(1 << 20), max: 1<<20 - 1, even: true}
	byteRange      = immediateRange{min: -128, max: 255}
	halfRange      = immediateRange{min: -32768, max: 65535}
	wordRange      = immediateRange{min: math.MinInt32, max: math.MaxUint32}

	// Literal offsets may also be written as the raw bit pattern of the
	// field, like 12-bit immediates. Label distances use the signed ranges.
	branchLiteralRange = immediateRange{min: -4096, max: 1<<13 - 1, even: true}
	jumpLiteralRange   = immediateRange{min: -(1 << 20), max: 1<<21 - 1, even: true}
)

// literalRange is the accepted range of a numeric immediate written in the
// source for the given instruction.
func literalRange(op Opcode) immediateRange {
	switch op.Format {
	case FormatRegisterImmediate:
		if op.Shift {
			return shiftRange
		}
		return twelveBitRange
	case FormatBranch:
		return branchLiteralRange
	case FormatJump:
		return jumpLiteralRange
	case FormatUpperImmediate:
		return upperRange
	}
	return twelveBitRange
}

func dataRange(size DataSize) immediateRange {
	switch size {
	case DataSizeByte:
		return byteRange
	case DataSizeHalf:
		return halfRange
	}
	return wordRange
}

type pseudoInstruction struct {
	syntax string
	expand func(r *operandReader) (Instruction, error)
}

var pseudoInstructions = map[string]pseudoInstruction{
	"nop": {
		syntax: "nop",
		expand: func(r *operandReader) (Instruction, error) {
			return IType{Mnemonic: "addi"}, nil
		},
	},
	"ret": {
		syntax: "ret",
		expand: func(r *operandReader) (Instruction, error) {
			return JALRType{Mnemonic: "jalr", Rd: 0, Rs1: 1}, nil
		},
	},
	"mv": {
		syntax: "mv <reg>, <reg>",
		expand: func(r *operandReader) (Instruction, error) {
			rd, rs, err := r.registerPair()
			return IType{Mnemonic: "addi", Rd: rd, Rs1: rs}, err
		},
	},
	"not": {
		syntax: "not <reg>, <reg>",
		expand: func(r *operandReader) (Instruction, error) {
			rd, rs, err := r.registerPair()
			return IType{Mnemonic: "xori", Rd: rd, Rs1: rs, Imm: Imm(-1)}, err
		},
	},
	"neg": {
		syntax: "neg <reg>, <reg>",
		expand: func(r *operandReader) (Instruction, error) {
			rd, rs, err := r.registerPair()
			return RType{Mnemonic: "sub", Rd: rd, Rs1: 0, Rs2: rs}, err
		},
	},
	"j": {
		syntax: "j <imm|label>",
		expand: func(r *operandReader) (Instruction, error) {
			target, err := r.checkedImmediate(jumpLiteralRange)
			return JType{Mnemonic: "jal", Rd: 0, Imm: target}, err
		},
	},
}

// PseudoInstructions lists the accepted shorthands and their operand syntax.
func PseudoInstructions() map[string]string {
	out := make(map[string]string, len(pseudoInstructions))
	for name, p := range pseudoInstructions {
		out[name] = p.syntax
	}
	return out
}

type parser struct {
	cfg     AssemblerConfig
	records []LineRecord
	pending []Label
}

// Parse turns source text into line records using the package config. Label
// operands are left unresolved.
func Parse(source string) ([]LineRecord, error) {
	return parseWithConfig(source, assemblerConfig)
}

func parseWithConfig(source string, cfg AssemblerConfig) ([]LineRecord, error) {
	p := parser{cfg: cfg}
	for i, line := range strings.Split(source, "\n") {
		if err := p.parseLine(line, i); err != nil {
			return nil, err
		}
	}
	if len(p.pending) > 0 {
		return nil, Errors.DanglingLabel(p.pending[0].Name, p.pending[0].Range)
	}
	return p.records, nil
}

func (p *parser) emit(rec LineRecord) {
	rec.Labels = p.pending
	p.pending = nil
	p.records = append(p.records, rec)
}

func (p *parser) parseLine(line string, lineNum int) error {
	toks, err := lexLine(line, lineNum)
	if err != nil {
		return err
	}

	for len(toks) >= 2 && toks[1].kind == tokenColon {
		if toks[0].kind != tokenIdent {
			return Errors.InvalidSymbolName(toks[0].text, "labels must start with a letter, '_', '.' or '$'",
				lineRange(lineNum, toks[0].start, toks[0].end))
		}
		p.pending = append(p.pending, Label{Name: toks[0].text, Range: lineRange(lineNum, toks[0].start, toks[0].end)})
		toks = toks[2:]
	}
	if len(toks) == 0 {
		return nil
	}

	first := toks[0]
	if first.kind != tokenIdent {
		return Errors.UnexpectedToken("instruction or directive", first.text, lineRange(lineNum, first.start, first.end))
	}

	stmt := lineRange(lineNum, first.start, toks[len(toks)-1].end)
	if strings.HasPrefix(first.text, ".") {
		return p.parseDirective(toks, lineNum, stmt)
	}

	inst, err := p.parseInstruction(toks, lineNum, stmt)
	if err != nil {
		return err
	}
	p.emit(LineRecord{Line: lineNum, Range: stmt, Instruction: inst})
	return nil
}

func (p *parser) parseInstruction(toks []token, lineNum int, stmt TextRange) (Instruction, error) {
	mnemonic := strings.ToLower(toks[0].text)
	r := &operandReader{toks: toks[1:], line: lineNum, stmt: stmt, name: mnemonic}

	if pseudo, ok := pseudoInstructions[mnemonic]; ok {
		r.syntax = pseudo.syntax
		inst, err := pseudo.expand(r)
		if err != nil {
			return nil, err
		}
		return inst, r.end()
	}

	op, err := p.cfg.lookupOpcode(mnemonic)
	if err != nil {
		return nil, Errors.UnknownMnemonic(toks[0].text, lineRange(lineNum, toks[0].start, toks[0].end))
	}
	r.syntax = op.Format.Syntax()

	inst, err := parseOperands(op, r)
	if err != nil {
		return nil, err
	}
	if err := r.end(); err != nil {
		return nil, err
	}
	return inst, nil
}

func parseOperands(op Opcode, r *operandReader) (Instruction, error) {
	switch op.Format {
	case FormatRegisterRegister:
		rd, err := r.register()
		if err != nil {
			return nil, err
		}
		rs1, rs2, err := r.registerPair()
		if err != nil {
			return nil, err
		}
		return RType{Mnemonic: op.Name, Rd: rd, Rs1: rs1, Rs2: rs2}, nil

	case FormatRegisterImmediate:
		rd, rs1, err := r.registerPair()
		if err != nil {
			return nil, err
		}
		imm, err := r.checkedImmediate(literalRange(op))
		if err != nil {
			return nil, err
		}
		return IType{Mnemonic: op.Name, Rd: rd, Rs1: rs1, Imm: imm}, nil

	case FormatLoad:
		rd, err := r.register()
		if err != nil {
			return nil, err
		}
		imm, rs1, err := r.memory()
		if err != nil {
			return nil, err
		}
		return LoadType{Mnemonic: op.Name, Rd: rd, Rs1: rs1, Imm: imm}, nil

	case FormatStore:
		rs2, err := r.register()
		if err != nil {
			return nil, err
		}
		imm, rs1, err := r.memory()
		if err != nil {
			return nil, err
		}
		return SType{Mnemonic: op.Name, Rs1: rs1, Rs2: rs2, Imm: imm}, nil

	case FormatBranch:
		rs1, rs2, err := r.registerPair()
		if err != nil {
			return nil, err
		}
		imm, err := r.checkedImmediate(branchLiteralRange)
		if err != nil {
			return nil, err
		}
		return BType{Mnemonic: op.Name, Rs1: rs1, Rs2: rs2, Imm: imm}, nil

	case FormatJump:
		// "jal target" links through ra
		if r.remaining() == 1 {
			imm, err := r.checkedImmediate(jumpLiteralRange)
			return JType{Mnemonic: op.Name, Rd: 1, Imm: imm}, err
		}
		rd, err := r.register()
		if err != nil {
			return nil, err
		}
		imm, err := r.checkedImmediate(jumpLiteralRange)
		if err != nil {
			return nil, err
		}
		return JType{Mnemonic: op.Name, Rd: rd, Imm: imm}, nil

	case FormatJumpRegister:
		rd, err := r.register()
		if err != nil {
			return nil, err
		}
		if r.done() {
			// "jalr rs" is "jalr ra, 0(rs)"
			return JALRType{Mnemonic: op.Name, Rd: 1, Rs1: rd}, nil
		}
		if r.atMemoryOperand() {
			imm, rs1, err := r.memory()
			if err != nil {
				return nil, err
			}
			return JALRType{Mnemonic: op.Name, Rd: rd, Rs1: rs1, Imm: imm}, nil
		}
		rs1, err := r.register()
		if err != nil {
			return nil, err
		}
		var imm Operand
		if !r.done() {
			if imm, err = r.checkedImmediate(twelveBitRange); err != nil {
				return nil, err
			}
		}
		return JALRType{Mnemonic: op.Name, Rd: rd, Rs1: rs1, Imm: imm}, nil

	case FormatUpperImmediate:
		rd, err := r.register()
		if err != nil {
			return nil, err
		}
		imm, err := r.checkedImmediate(upperRange)
		if err != nil {
			return nil, err
		}
		return UType{Mnemonic: op.Name, Rd: rd, Imm: imm}, nil
	}
	panic("assembler: unknown format family " + op.Format.String())
}

func (p *parser) parseDirective(toks []token, lineNum int, stmt TextRange) error {
	name := strings.ToLower(toks[0].text)
	r := &operandReader{toks: toks[1:], line: lineNum, stmt: stmt, name: name}

	switch name {
	case ".text", ".data", ".section":
		if len(p.pending) > 0 {
			return Errors.DanglingLabel(p.pending[0].Name, p.pending[0].Range)
		}
		if name == ".section" {
			r.syntax = ".section <name>"
			return r.skipRest()
		}
		return r.end()

	case ".globl", ".global":
		r.syntax = name + " <symbol>"
		t, err := r.next()
		if err != nil {
			return err
		}
		if t.kind != tokenIdent {
			return Errors.InvalidSymbolName(t.text, "expected a symbol name", r.rangeOf(t))
		}
		return r.end()

	case ".byte", ".half", ".word":
		size := map[string]DataSize{".byte": DataSizeByte, ".half": DataSizeHalf, ".word": DataSizeWord}[name]
		r.syntax = name + " <imm|label>, ..."
		var values []Operand
		for !r.done() {
			v, err := r.checkedImmediate(dataRange(size))
			if err != nil {
				return err
			}
			values = append(values, v)
		}
		if len(values) == 0 {
			return Errors.UnexpectedToken("value", "", stmt)
		}
		p.emit(LineRecord{Line: lineNum, Range: stmt, Directive: &DataDirective{Name: name, Size: size, Values: values}})
		return nil

	case ".string", ".asciz", ".ascii":
		r.syntax = name + " \"<text>\""
		t, err := r.next()
		if err != nil {
			return err
		}
		if t.kind != tokenString {
			return Errors.UnexpectedToken("string literal", t.text, r.rangeOf(t))
		}
		b, err := unquote(t, lineNum)
		if err != nil {
			return err
		}
		if name != ".ascii" {
			b = append(b, 0)
		}
		if err := r.end(); err != nil {
			return err
		}
		p.emit(LineRecord{Line: lineNum, Range: stmt, Directive: &DataDirective{Name: name, Size: DataSizeByte, Bytes: b}})
		return nil

	case ".space", ".zero":
		r.syntax = name + " <count>"
		t, err := r.next()
		if err != nil {
			return err
		}
		if t.kind != tokenNumber {
			return Errors.InvalidIntegerLiteral(t.text, r.rangeOf(t))
		}
		n, err := parseNumber(t, lineNum)
		if err != nil {
			return err
		}
		if err := (immediateRange{min: 0, max: maxFill}).check(n, t.text, r.rangeOf(t)); err != nil {
			return err
		}
		if err := r.end(); err != nil {
			return err
		}
		p.emit(LineRecord{Line: lineNum, Range: stmt, Directive: &DataDirective{Name: name, Size: DataSizeByte, Bytes: make([]byte, n)}})
		return nil
	}

	return Errors.InvalidDataSection(toks[0].text, lineRange(lineNum, toks[0].start, toks[0].end))
}

// operandReader walks the operands of one statement. Operands may be
// separated by a comma or by whitespace alone.
type operandReader struct {
	toks   []token
	pos    int
	line   int
	stmt   TextRange
	name   string
	syntax string
}

func (r *operandReader) rangeOf(t token) TextRange {
	return lineRange(r.line, t.start, t.end)
}

func (r *operandReader) formatError() error {
	return Errors.InvalidInstructionFormat(r.syntax, r.name, r.stmt)
}

func (r *operandReader) done() bool {
	return r.pos >= len(r.toks)
}

// remaining counts operand tokens left, ignoring separators.
func (r *operandReader) remaining() int {
	n := 0
	for _, t := range r.toks[r.pos:] {
		if t.kind != tokenComma {
			n++
		}
	}
	return n
}

func (r *operandReader) next() (token, error) {
	if r.done() {
		return token{}, r.formatError()
	}
	t := r.toks[r.pos]
	r.pos++
	return t, nil
}

func (r *operandReader) separator() {
	if r.pos > 0 && r.pos < len(r.toks) && r.toks[r.pos].kind == tokenComma {
		r.pos++
	}
}

func (r *operandReader) end() error {
	if r.done() {
		return nil
	}
	t := r.toks[r.pos]
	return Errors.UnexpectedToken("end of line", t.text, r.rangeOf(t))
}

func (r *operandReader) skipRest() error {
	r.pos = len(r.toks)
	return nil
}

func (r *operandReader) register() (Register, error) {
	r.separator()
	return r.registerToken()
}

func (r *operandReader) registerToken() (Register, error) {
	t, err := r.next()
	if err != nil {
		return 0, err
	}
	if t.kind != tokenIdent && t.kind != tokenNumber {
		return 0, Errors.UnexpectedToken("register", t.text, r.rangeOf(t))
	}
	reg, err := ResolveRegister(t.text)
	if err != nil {
		return 0, Errors.UnknownRegister(t.text, r.rangeOf(t))
	}
	return reg, nil
}

func (r *operandReader) registerPair() (Register, Register, error) {
	a, err := r.register()
	if err != nil {
		return 0, 0, err
	}
	b, err := r.register()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// value reads a numeric literal or a label reference.
func (r *operandReader) value() (Operand, token, error) {
	t, err := r.next()
	if err != nil {
		return Operand{}, t, err
	}
	switch t.kind {
	case tokenNumber:
		v, err := parseNumber(t, r.line)
		return Imm(v), t, err
	case tokenIdent:
		return LabelRef(t.text), t, nil
	}
	return Operand{}, t, Errors.UnexpectedToken("immediate or label", t.text, r.rangeOf(t))
}

// checkedImmediate reads a value and range checks it when it is a literal.
// Label operands are checked by the resolver.
func (r *operandReader) checkedImmediate(ir immediateRange) (Operand, error) {
	r.separator()
	v, t, err := r.value()
	if err != nil {
		return Operand{}, err
	}
	if !v.IsLabel() {
		if err := ir.check(v.Value, t.text, r.rangeOf(t)); err != nil {
			return Operand{}, err
		}
	}
	return v, nil
}

func (r *operandReader) atMemoryOperand() bool {
	i := r.pos
	if i < len(r.toks) && r.toks[i].kind == tokenComma {
		i++
	}
	if i < len(r.toks) && r.toks[i].kind == tokenLParen {
		return true
	}
	return i+1 < len(r.toks) && r.toks[i+1].kind == tokenLParen
}

// memory reads "imm(reg)" where the immediate may be omitted.
func (r *operandReader) memory() (Operand, Register, error) {
	r.separator()
	var imm Operand
	if !r.done() && r.toks[r.pos].kind != tokenLParen {
		v, t, err := r.value()
		if err != nil {
			return Operand{}, 0, err
		}
		if !v.IsLabel() {
			if err := twelveBitRange.check(v.Value, t.text, r.rangeOf(t)); err != nil {
				return Operand{}, 0, err
			}
		}
		imm = v
	}

	t, err := r.next()
	if err != nil {
		return Operand{}, 0, err
	}
	if t.kind != tokenLParen {
		return Operand{}, 0, Errors.UnexpectedToken("\"(\"", t.text, r.rangeOf(t))
	}
	reg, err := r.registerToken()
	if err != nil {
		return Operand{}, 0, err
	}
	if t, err = r.next(); err != nil {
		return Operand{}, 0, err
	}
	if t.kind != tokenRParen {
		return Operand{}, 0, Errors.UnexpectedToken("\")\"", t.text, r.rangeOf(t))
	}
	return imm, reg, nil
}

// parseNumber reads a decimal, 0x hexadecimal or 0b binary literal with an
// optional sign. The value must fit in 32 bits, signed or unsigned.
func parseNumber(t token, line int) (int64, error) {
	r := lineRange(line, t.start, t.end)
	text := t.text
	negative := false
	switch text[0] {
	case '-':
		negative = true
		text = text[1:]
	case '+':
		text = text[1:]
	}

	base := 10
	if len(text) >= 2 && text[0] == '0' {
		switch text[1] {
		case 'x', 'X':
			base = 16
			text = text[2:]
		case 'b', 'B':
			base = 2
			text = text[2:]
		}
	}
	if text == "" {
		return 0, Errors.InvalidIntegerLiteral(t.text, r)
	}

	magnitude, err := strconv.ParseUint(text, base, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, Errors.NumericOverflow(t.text, r)
		}
		return 0, Errors.InvalidIntegerLiteral(t.text, r)
	}
	if negative {
		if magnitude > 1<<31 {
			return 0, Errors.NumericOverflow(t.text, r)
		}
		return -int64(magnitude), nil
	}
	if magnitude > math.MaxUint32 {
		return 0, Errors.NumericOverflow(t.text, r)
	}
	return int64(magnitude), nil
}
