package assembler

import (
	"sort"
	"strconv"
)

// SymbolTable maps label names to their segment offsets. It is filled once by
// AssignOffsets and read-only afterwards.
type SymbolTable struct {
	symbols map[string]Symbol
}

func newSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]Symbol)}
}

func (t *SymbolTable) Lookup(name string) (Symbol, bool) {
	sym, ok := t.symbols[name]
	return sym, ok
}

// Names returns every defined label in lexical order.
func (t *SymbolTable) Names() []string {
	names := make([]string, 0, len(t.symbols))
	for name := range t.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Symbols returns every symbol ordered by segment, then offset, then name.
func (t *SymbolTable) Symbols() []Symbol {
	out := make([]Symbol, 0, len(t.symbols))
	for _, sym := range t.symbols {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Segment != out[j].Segment {
			return out[i].Segment < out[j].Segment
		}
		if out[i].Offset != out[j].Offset {
			return out[i].Offset < out[j].Offset
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (t *SymbolTable) Len() int {
	return len(t.symbols)
}

func (t *SymbolTable) define(sym Symbol, r TextRange) error {
	if prev, ok := t.symbols[sym.Name]; ok {
		return Errors.DuplicateLabel(sym.Name, prev.Line, r)
	}
	t.symbols[sym.Name] = sym
	return nil
}

// AssignOffsets walks the records in order and binds every label to the
// offset of its record within that record's segment. Instructions take four
// bytes of text; data directives take their emitted size.
func AssignOffsets(records []LineRecord) (*SymbolTable, error) {
	table := newSymbolTable()
	var textOffset, dataOffset uint32

	for _, rec := range records {
		seg := rec.Segment()
		offset := dataOffset
		if seg == SegmentText {
			offset = textOffset
		}

		for _, label := range rec.Labels {
			sym := Symbol{Name: label.Name, Segment: seg, Offset: offset, Line: label.Range.Start.Line}
			if err := table.define(sym, label.Range); err != nil {
				return nil, err
			}
		}

		if seg == SegmentText {
			textOffset += 4
		} else {
			dataOffset += rec.Directive.ByteCount()
		}
	}
	return table, nil
}

var (
	absoluteRange   = immediateRange{min: 0, max: 2047}
	upperLabelRange = immediateRange{min: 0, max: 1<<20 - 1}
)

// ResolveReferences replaces every label operand with a number. Branch and
// jump targets become the distance from the referencing instruction; all
// other references become the label's offset within its segment. The input
// records are not modified.
func ResolveReferences(records []LineRecord, table *SymbolTable) ([]LineRecord, error) {
	out := make([]LineRecord, len(records))
	var pc uint32

	for i, rec := range records {
		out[i] = rec
		switch {
		case rec.Instruction != nil:
			inst, err := resolveInstruction(rec, pc, table)
			if err != nil {
				return nil, err
			}
			out[i].Instruction = inst
			pc += 4
		case rec.Directive != nil:
			d, err := resolveDirective(rec, table)
			if err != nil {
				return nil, err
			}
			out[i].Directive = d
		}
	}
	return out, nil
}

func resolveInstruction(rec LineRecord, pc uint32, table *SymbolTable) (Instruction, error) {
	imm, ok := immediateOf(rec.Instruction)
	if !ok || !imm.IsLabel() {
		return rec.Instruction, nil
	}

	sym, found := table.Lookup(imm.Label)
	if !found {
		return nil, Errors.UndefinedLabel(imm.Label, rec.Range)
	}

	switch rec.Instruction.Format() {
	case FormatBranch, FormatJump:
		if sym.Segment != SegmentText {
			return nil, Errors.LabelNotInText(imm.Label, rec.Range)
		}
		distance := int64(sym.Offset) - int64(pc)
		ir, bits := branchRange, 13
		if rec.Instruction.Format() == FormatJump {
			ir, bits = jumpRange, 21
		}
		if distance < ir.min || distance > ir.max {
			return nil, Errors.LabelTooFar(imm.Label, distance, bits, rec.Range)
		}
		return withImmediate(rec.Instruction, Imm(distance)), nil

	case FormatUpperImmediate:
		if err := upperLabelRange.check(int64(sym.Offset), imm.Label, rec.Range); err != nil {
			return nil, err
		}
		return withImmediate(rec.Instruction, Imm(int64(sym.Offset))), nil
	}

	if err := absoluteRange.check(int64(sym.Offset), imm.Label, rec.Range); err != nil {
		return nil, err
	}
	return withImmediate(rec.Instruction, Imm(int64(sym.Offset))), nil
}

func resolveDirective(rec LineRecord, table *SymbolTable) (*DataDirective, error) {
	d := *rec.Directive
	if d.Values == nil {
		return &d, nil
	}

	values := make([]Operand, len(d.Values))
	for i, v := range d.Values {
		if !v.IsLabel() {
			values[i] = v
			continue
		}
		sym, found := table.Lookup(v.Label)
		if !found {
			return nil, Errors.UndefinedLabel(v.Label, rec.Range)
		}
		if err := dataRange(d.Size).check(int64(sym.Offset), v.Label+" = "+strconv.FormatUint(uint64(sym.Offset), 10), rec.Range); err != nil {
			return nil, err
		}
		values[i] = Imm(int64(sym.Offset))
	}
	d.Values = values
	return &d, nil
}
