package assembler

import (
	"encoding/binary"
	"strings"
)

// Assemble translates source text into its text and data segments using the
// package config. The first error aborts assembly; no partial output is
// returned.
func Assemble(source string) (*AssembledResult, error) {
	return AssembleWithConfig(source, assemblerConfig)
}

func AssembleWithConfig(source string, cfg AssemblerConfig) (*AssembledResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	records, err := parseWithConfig(source, cfg)
	if err != nil {
		return nil, err
	}

	table, err := AssignOffsets(records)
	if err != nil {
		return nil, err
	}

	resolved, err := ResolveReferences(records, table)
	if err != nil {
		return nil, err
	}

	order := cfg.Order()
	res := &AssembledResult{
		Text:          []byte{},
		Data:          []byte{},
		Symbols:       table,
		Records:       resolved,
		AddressToLine: make(map[uint32]int),
		ByteOrder:     order,
		config:        cfg,
		fileContents:  strings.Split(source, "\n"),
	}

	var word [4]byte
	for _, rec := range resolved {
		if rec.Instruction != nil {
			encoded := EncodeWord(rec.Instruction)
			res.AddressToLine[uint32(len(res.Text))] = rec.Line
			res.Words = append(res.Words, encoded)
			order.PutUint32(word[:], encoded)
			res.Text = append(res.Text, word[:]...)
			continue
		}
		res.Data = appendData(res.Data, rec.Directive, order)
	}
	return res, nil
}

func appendData(dst []byte, d *DataDirective, order binary.ByteOrder) []byte {
	if d.Values == nil {
		return append(dst, d.Bytes...)
	}

	var buf [4]byte
	for _, v := range d.Values {
		switch d.Size {
		case DataSizeByte:
			dst = append(dst, byte(v.Value))
		case DataSizeHalf:
			order.PutUint16(buf[:2], uint16(v.Value))
			dst = append(dst, buf[:2]...)
		case DataSizeWord:
			order.PutUint32(buf[:], uint32(v.Value))
			dst = append(dst, buf[:]...)
		}
	}
	return dst
}

// LineAt returns the record that starts on the given zero based line.
func (a *AssembledResult) LineAt(line int) (LineRecord, bool) {
	for _, rec := range a.Records {
		if rec.Line == line {
			return rec, true
		}
	}
	return LineRecord{}, false
}

// AddressOf returns the text offset of the instruction on a line.
func (a *AssembledResult) AddressOf(line int) (uint32, bool) {
	for addr, l := range a.AddressToLine {
		if l == line {
			return addr, true
		}
	}
	return 0, false
}

// SourceLine returns the trimmed source text of a zero based line.
func (a *AssembledResult) SourceLine(line int) string {
	if line < 0 || line >= len(a.fileContents) {
		return ""
	}
	return strings.TrimSpace(a.fileContents[line])
}
