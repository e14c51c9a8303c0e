package assembler

import "encoding/binary"

// Register is a general purpose register index in [0, 31].
type Register uint8

// Operand is either a numeric immediate or a reference to a label that the
// resolver has not rewritten yet.
type Operand struct {
	Value int64
	Label string // non-empty until the resolver replaces it with Value
}

func Imm(v int64) Operand {
	return Operand{Value: v}
}

func LabelRef(name string) Operand {
	return Operand{Label: name}
}

func (o Operand) IsLabel() bool {
	return o.Label != ""
}

type DataSize int

const (
	DataSizeByte DataSize = 1
	DataSizeHalf DataSize = 2
	DataSizeWord DataSize = 4
)

// DataDirective is one data segment line. Sized lists (.byte/.half/.word)
// carry Values; string and fill directives carry their raw bytes.
type DataDirective struct {
	Name   string
	Size   DataSize
	Values []Operand
	Bytes  []byte
}

func (d *DataDirective) ByteCount() uint32 {
	if d.Values != nil {
		return uint32(len(d.Values)) * uint32(d.Size)
	}
	return uint32(len(d.Bytes))
}

// Label is a label definition and where it was written.
type Label struct {
	Name  string
	Range TextRange
}

// LineRecord is one parsed source line. Exactly one of Instruction and
// Directive is set. Labels may come from earlier lines that held nothing
// else.
type LineRecord struct {
	Labels      []Label
	Line        int       // zero based, for diagnostics
	Range       TextRange // the statement, without its labels
	Instruction Instruction
	Directive   *DataDirective
}

func (r LineRecord) LabelNames() []string {
	names := make([]string, len(r.Labels))
	for i, l := range r.Labels {
		names[i] = l.Name
	}
	return names
}

func (r LineRecord) Segment() Segment {
	if r.Instruction != nil {
		return SegmentText
	}
	return SegmentData
}

type Segment int

const (
	SegmentText Segment = iota
	SegmentData
)

func (s Segment) String() string {
	if s == SegmentText {
		return "text"
	}
	return "data"
}

type Symbol struct {
	Name    string
	Segment Segment
	Offset  uint32
	Line    int
}

type AssembledResult struct {
	Text          []byte
	Data          []byte
	Words         []uint32 // text segment as instruction words, independent of byte order
	Symbols       *SymbolTable
	Records       []LineRecord // resolved records
	AddressToLine map[uint32]int
	ByteOrder     binary.ByteOrder

	config       AssemblerConfig
	fileContents []string
}

// Bytes returns the text segment followed by the data segment.
func (a *AssembledResult) Bytes() []byte {
	out := make([]byte, 0, len(a.Text)+len(a.Data))
	out = append(out, a.Text...)
	return append(out, a.Data...)
}

type TextPosition struct {
	Line int `json:"line"`
	Char int `json:"character"`
}

type TextRange struct {
	Start TextPosition `json:"start"`
	End   TextPosition `json:"end"`
}

type CodeDescription struct {
	URL string `json:"href"`
}

type DiagnosticSeverity int

const (
	Error       DiagnosticSeverity = 1
	Warning     DiagnosticSeverity = 2
	Information DiagnosticSeverity = 3
	Hint        DiagnosticSeverity = 4
)

type Diagnostic struct {
	Range           TextRange          `json:"range"`
	Message         string             `json:"message"`
	Source          string             `json:"source,omitempty"`
	CodeDescription *CodeDescription   `json:"codeDescription,omitempty"`
	Severity        DiagnosticSeverity `json:"severity,omitempty"`
}
