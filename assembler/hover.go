package assembler

import (
	"fmt"
	"strconv"
	"strings"
)

// EvaluateHover returns markdown describing the token under position, and
// false when there is nothing to describe.
func (a *AssembledResult) EvaluateHover(position TextPosition) (string, bool) {
	if position.Line < 0 || position.Line >= len(a.fileContents) {
		return "", false
	}

	toks, err := lexLine(a.fileContents[position.Line], position.Line)
	if err != nil {
		return "", false
	}

	// labels come first, the statement keyword after them
	stmtStart := 0
	for stmtStart+1 < len(toks) && toks[stmtStart+1].kind == tokenColon {
		stmtStart += 2
	}

	for i, t := range toks {
		if position.Char < t.start || position.Char >= t.end {
			continue
		}
		switch {
		case i < stmtStart:
			return a.labelDefinitionHover(t.text)
		case i == stmtStart && t.kind == tokenIdent:
			return a.keywordHover(t.text)
		}
		return a.operandHover(t, position.Line)
	}
	return "", false
}

func (a *AssembledResult) labelDefinitionHover(name string) (string, bool) {
	sym, ok := a.Symbols.Lookup(name)
	if !ok {
		return "", false
	}
	kind := "Offset"
	if sym.Segment == SegmentText {
		kind = "Address"
	}
	return fmt.Sprintf(hoverInfoFormats.labelDefinition, sym.Name, kind, sym.Offset, sym.Segment), true
}

func (a *AssembledResult) operandHover(t token, line int) (string, bool) {
	switch t.kind {
	case tokenNumber:
		v, err := parseNumber(t, line)
		if err != nil {
			return "", false
		}
		return fmt.Sprintf(hoverInfoFormats.integerLiteral, v, "0x"+strconv.FormatUint(uint64(v)&0xFFFFFFFF, 16)), true
	case tokenIdent:
	default:
		return "", false
	}

	if reg, ok := RegisterNameMap[t.text]; ok {
		return getHoverInfoForRegister(reg, t.text), true
	}

	sym, ok := a.Symbols.Lookup(t.text)
	if !ok {
		return "", false
	}
	value := int64(sym.Offset)
	if rec, ok := a.LineAt(line); ok && rec.Instruction != nil {
		if imm, ok := immediateOf(rec.Instruction); ok {
			value = imm.Value
		}
	}
	return fmt.Sprintf(hoverInfoFormats.labelReference, t.text, value), true
}

// keywordHover describes a mnemonic or directive under the config the
// result was assembled with.
func (a *AssembledResult) keywordHover(keyword string) (string, bool) {
	keyword = strings.ToLower(keyword)

	if doc, ok := directiveDocs[keyword]; ok {
		return fmt.Sprintf(hoverInfoFormats.directive, keyword, doc.title, doc.operation), true
	}

	if doc, ok := pseudoDocs[keyword]; ok {
		return fmt.Sprintf(hoverInfoFormats.pseudo, doc.title, pseudoInstructions[keyword].syntax, doc.operation), true
	}

	op, err := a.config.lookupOpcode(keyword)
	if err != nil {
		return "", false
	}
	doc := instructionDocs[op.Name]
	syntax := strings.Replace(op.Format.Syntax(), "<opcode>", op.Name, 1)
	text := fmt.Sprintf(hoverInfoFormats.instruction, doc.title, syntax, doc.operation)
	return text + rangeNote(op), true
}

func rangeNote(op Opcode) string {
	if op.Format == FormatRegisterRegister {
		return ""
	}
	ir := literalRange(op)
	note := fmt.Sprintf("\n\nThe immediate must be between %d and %d", ir.min, ir.max)
	if ir.even {
		note += " and a multiple of 2"
	}
	note += "."
	switch op.Format {
	case FormatBranch, FormatJump:
		note += " An instruction label may be used and is encoded relative to this instruction."
	case FormatRegisterImmediate:
		if op.Shift {
			return note
		}
		fallthrough
	default:
		note += " A label may be used and evaluates to its segment offset."
	}
	return note
}

func getHoverInfoForRegister(register Register, name string) string {
	switch register {
	case 0:
		return hoverInfoFormats.zeroRegister
	case 1:
		return hoverInfoFormats.raRegister
	case 2:
		return hoverInfoFormats.spRegister
	case 3:
		return hoverInfoFormats.gpRegister
	case 4:
		return hoverInfoFormats.tpRegister
	}
	if !strings.HasPrefix(name, "x") {
		return fmt.Sprintf(hoverInfoFormats.namedGenericRegister, name, register)
	}
	return fmt.Sprintf(hoverInfoFormats.genericRegister, register)
}
