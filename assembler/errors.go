package assembler

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrorKind classifies every failure the assembler can report. The kinds
// double as sentinels, so callers can write errors.Is(err, ErrUndefinedLabel).
type ErrorKind int

const (
	ErrUnknownRegister ErrorKind = iota + 1
	ErrUnknownMnemonic
	ErrSyntax
	ErrNumericOverflow
	ErrDuplicateLabel
	ErrUndefinedLabel
	ErrImmediateOutOfRange
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnknownRegister:
		return "UnknownRegister"
	case ErrUnknownMnemonic:
		return "UnknownMnemonic"
	case ErrSyntax:
		return "SyntaxError"
	case ErrNumericOverflow:
		return "NumericOverflow"
	case ErrDuplicateLabel:
		return "DuplicateLabel"
	case ErrUndefinedLabel:
		return "UndefinedLabel"
	case ErrImmediateOutOfRange:
		return "ImmediateOutOfRange"
	}
	return "ErrorKind(" + strconv.Itoa(int(k)) + ")"
}

func (k ErrorKind) Error() string {
	return k.String()
}

// AssemblyError is a user facing failure tied to a range of the source text.
type AssemblyError struct {
	Kind    ErrorKind
	Range   TextRange
	Message string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Range.Start.Line+1, e.Range.Start.Char+1, e.Message)
}

func (e *AssemblyError) Unwrap() error {
	return e.Kind
}

// ToDiagnostic converts an assembly failure into the editor facing form.
func ToDiagnostic(err error) Diagnostic {
	var asmErr *AssemblyError
	if errors.As(err, &asmErr) {
		return Diagnostic{
			Range:    asmErr.Range,
			Message:  asmErr.Message,
			Source:   "Assembler",
			Severity: Error,
		}
	}
	return Diagnostic{
		Message:  err.Error(),
		Source:   "Assembler",
		Severity: Error,
	}
}

func lineRange(line, start, end int) TextRange {
	return TextRange{
		Start: TextPosition{Line: line, Char: start},
		End:   TextPosition{Line: line, Char: end},
	}
}

// Errors
type assemblyError struct{}

var Errors assemblyError

func newError(kind ErrorKind, r TextRange, message string) *AssemblyError {
	return &AssemblyError{Kind: kind, Range: r, Message: message}
}

func (assemblyError) UnknownRegister(register string, r TextRange) *AssemblyError {
	return newError(ErrUnknownRegister, r, "Expected register, got: \""+register+"\"")
}

func (assemblyError) UnknownMnemonic(mnemonic string, r TextRange) *AssemblyError {
	return newError(ErrUnknownMnemonic, r, "Invalid instruction: \""+mnemonic+"\"")
}

func (assemblyError) InvalidInstructionFormat(format string, mnemonic string, r TextRange) *AssemblyError {
	return newError(ErrSyntax, r, "Invalid instruction format for "+mnemonic+"\nFormat: "+format)
}

func (assemblyError) UnexpectedToken(expected, got string, r TextRange) *AssemblyError {
	if got == "" {
		return newError(ErrSyntax, r, "Expected "+expected+", got end of line")
	}
	return newError(ErrSyntax, r, "Expected "+expected+", got: \""+got+"\"")
}

func (assemblyError) InvalidDataSection(directive string, r TextRange) *AssemblyError {
	return newError(ErrSyntax, r, "Invalid data section: \""+directive+"\"")
}

func (assemblyError) InvalidStringLiteral(literal, reason string, r TextRange) *AssemblyError {
	return newError(ErrSyntax, r, "Invalid string literal "+literal+": "+reason)
}

func (assemblyError) InvalidSymbolName(symbolName, context string, r TextRange) *AssemblyError {
	return newError(ErrSyntax, r, "Invalid symbol name: \""+symbolName+"\", "+context)
}

func (assemblyError) DanglingLabel(label string, r TextRange) *AssemblyError {
	return newError(ErrSyntax, r, "Label \""+label+"\" is not followed by an instruction or data directive")
}

func (assemblyError) InvalidIntegerLiteral(literal string, r TextRange) *AssemblyError {
	return newError(ErrSyntax, r, "Expected integer literal, got: \""+literal+"\"")
}

func (assemblyError) NumericOverflow(literal string, r TextRange) *AssemblyError {
	return newError(ErrNumericOverflow, r, "Integer literal \""+literal+"\" does not fit in 32 bits")
}

func (assemblyError) DuplicateLabel(label string, firstLine int, r TextRange) *AssemblyError {
	return newError(ErrDuplicateLabel, r, fmt.Sprintf("Label \"%s\" is already defined on line %d", label, firstLine+1))
}

func (assemblyError) UndefinedLabel(label string, r TextRange) *AssemblyError {
	return newError(ErrUndefinedLabel, r, "Unresolved symbol name: \""+label+"\"")
}

func (assemblyError) LabelNotInText(label string, r TextRange) *AssemblyError {
	return newError(ErrUndefinedLabel, r, "Label \""+label+"\" is not defined in the text segment")
}

func (assemblyError) ImmediateOutOfRange(value string, min, max int64, r TextRange) *AssemblyError {
	return newError(ErrImmediateOutOfRange, r, fmt.Sprintf("Immediate value \"%s\" is out of range [%d, %d]", value, min, max))
}

func (assemblyError) MisalignedOffset(value string, r TextRange) *AssemblyError {
	return newError(ErrImmediateOutOfRange, r, "Offset \""+value+"\" must be a multiple of 2")
}

func (assemblyError) LabelTooFar(label string, distance int64, bits int, r TextRange) *AssemblyError {
	return newError(ErrImmediateOutOfRange, r, fmt.Sprintf("Label \"%s\" is too far away (%d bytes) for a %d bit offset. Use jal or auipc instead", label, distance, bits))
}
