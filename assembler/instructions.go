package assembler

import (
	"sort"
	"strings"
)

// FormatFamily selects the operand fields and the bit layout of an instruction.
type FormatFamily int

const (
	FormatRegisterRegister FormatFamily = iota
	FormatRegisterImmediate
	FormatLoad
	FormatStore
	FormatBranch
	FormatJump
	FormatJumpRegister
	FormatUpperImmediate
)

func (f FormatFamily) String() string {
	switch f {
	case FormatRegisterRegister:
		return "Register-Register"
	case FormatRegisterImmediate:
		return "Register-Immediate"
	case FormatLoad:
		return "Load"
	case FormatStore:
		return "Store"
	case FormatBranch:
		return "Branch"
	case FormatJump:
		return "Jump"
	case FormatJumpRegister:
		return "JumpRegister"
	case FormatUpperImmediate:
		return "UpperImmediate"
	}
	return "Unknown"
}

// Syntax is the operand layout shown in format diagnostics.
func (f FormatFamily) Syntax() string {
	switch f {
	case FormatRegisterRegister:
		return "<opcode> <reg>, <reg>, <reg>"
	case FormatRegisterImmediate:
		return "<opcode> <reg>, <reg>, <imm>"
	case FormatLoad, FormatStore, FormatJumpRegister:
		return "<opcode> <reg>, <imm>(<reg>)"
	case FormatBranch:
		return "<opcode> <reg>, <reg>, <imm|label>"
	case FormatJump:
		return "<opcode> <reg>, <imm|label>"
	case FormatUpperImmediate:
		return "<opcode> <reg>, <imm>"
	}
	return "<opcode>"
}

// Opcode holds the architecture defined bit constants of one mnemonic.
type Opcode struct {
	Name      string
	Format    FormatFamily
	Opcode    uint32
	Funct3    uint32
	Funct7    uint32
	ImmFlag   uint32 // OR'd into the I-type immediate field (srai)
	Shift     bool   // immediate is a 5 bit shift amount
	Extension string // "" for the base integer set
}

// opcode conversions
const (
	OPCODE_RTYPE    = 0b0110011
	OPCODE_ITYPE    = 0b0010011
	OPCODE_STYPE    = 0b0100011
	OPCODE_BTYPE    = 0b1100011
	OPCODE_LUI      = 0b0110111
	OPCODE_AUIPC    = 0b0010111
	OPCODE_JAL      = 0b1101111
	OPCODE_JALR     = 0b1100111
	OPCODE_MEMITYPE = 0b0000011
)

var opcodeTable = map[string]Opcode{
	"add":  {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b000, Funct7: 0b0000000},
	"sub":  {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b000, Funct7: 0b0100000},
	"sll":  {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b001, Funct7: 0b0000000},
	"slt":  {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b010, Funct7: 0b0000000},
	"sltu": {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b011, Funct7: 0b0000000},
	"xor":  {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b100, Funct7: 0b0000000},
	"srl":  {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b101, Funct7: 0b0000000},
	"sra":  {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b101, Funct7: 0b0100000},
	"or":   {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b110, Funct7: 0b0000000},
	"and":  {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b111, Funct7: 0b0000000},

	"mul":    {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b000, Funct7: 0b0000001, Extension: "m"},
	"mulh":   {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b001, Funct7: 0b0000001, Extension: "m"},
	"mulhsu": {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b010, Funct7: 0b0000001, Extension: "m"},
	"mulhu":  {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b011, Funct7: 0b0000001, Extension: "m"},
	"div":    {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b100, Funct7: 0b0000001, Extension: "m"},
	"divu":   {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b101, Funct7: 0b0000001, Extension: "m"},
	"rem":    {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b110, Funct7: 0b0000001, Extension: "m"},
	"remu":   {Format: FormatRegisterRegister, Opcode: OPCODE_RTYPE, Funct3: 0b111, Funct7: 0b0000001, Extension: "m"},

	"addi":  {Format: FormatRegisterImmediate, Opcode: OPCODE_ITYPE, Funct3: 0b000},
	"slti":  {Format: FormatRegisterImmediate, Opcode: OPCODE_ITYPE, Funct3: 0b010},
	"sltiu": {Format: FormatRegisterImmediate, Opcode: OPCODE_ITYPE, Funct3: 0b011},
	"xori":  {Format: FormatRegisterImmediate, Opcode: OPCODE_ITYPE, Funct3: 0b100},
	"ori":   {Format: FormatRegisterImmediate, Opcode: OPCODE_ITYPE, Funct3: 0b110},
	"andi":  {Format: FormatRegisterImmediate, Opcode: OPCODE_ITYPE, Funct3: 0b111},
	"slli":  {Format: FormatRegisterImmediate, Opcode: OPCODE_ITYPE, Funct3: 0b001, Shift: true},
	"srli":  {Format: FormatRegisterImmediate, Opcode: OPCODE_ITYPE, Funct3: 0b101, Shift: true},
	"srai":  {Format: FormatRegisterImmediate, Opcode: OPCODE_ITYPE, Funct3: 0b101, Shift: true, ImmFlag: 0b010000000000},

	"lb":  {Format: FormatLoad, Opcode: OPCODE_MEMITYPE, Funct3: 0b000},
	"lh":  {Format: FormatLoad, Opcode: OPCODE_MEMITYPE, Funct3: 0b001},
	"lw":  {Format: FormatLoad, Opcode: OPCODE_MEMITYPE, Funct3: 0b010},
	"lbu": {Format: FormatLoad, Opcode: OPCODE_MEMITYPE, Funct3: 0b100},
	"lhu": {Format: FormatLoad, Opcode: OPCODE_MEMITYPE, Funct3: 0b101},

	"sb": {Format: FormatStore, Opcode: OPCODE_STYPE, Funct3: 0b000},
	"sh": {Format: FormatStore, Opcode: OPCODE_STYPE, Funct3: 0b001},
	"sw": {Format: FormatStore, Opcode: OPCODE_STYPE, Funct3: 0b010},

	"beq":  {Format: FormatBranch, Opcode: OPCODE_BTYPE, Funct3: 0b000},
	"bne":  {Format: FormatBranch, Opcode: OPCODE_BTYPE, Funct3: 0b001},
	"blt":  {Format: FormatBranch, Opcode: OPCODE_BTYPE, Funct3: 0b100},
	"bge":  {Format: FormatBranch, Opcode: OPCODE_BTYPE, Funct3: 0b101},
	"bltu": {Format: FormatBranch, Opcode: OPCODE_BTYPE, Funct3: 0b110},
	"bgeu": {Format: FormatBranch, Opcode: OPCODE_BTYPE, Funct3: 0b111},

	"jal":  {Format: FormatJump, Opcode: OPCODE_JAL},
	"jalr": {Format: FormatJumpRegister, Opcode: OPCODE_JALR, Funct3: 0b000},

	"lui":   {Format: FormatUpperImmediate, Opcode: OPCODE_LUI},
	"auipc": {Format: FormatUpperImmediate, Opcode: OPCODE_AUIPC},
}

func init() {
	for name, op := range opcodeTable {
		op.Name = name
		opcodeTable[name] = op
	}
}

// LookupOpcode returns the bit constants of a mnemonic. The match is case
// insensitive; mnemonics of extensions disabled in the package config are
// unknown.
func LookupOpcode(mnemonic string) (Opcode, error) {
	return assemblerConfig.lookupOpcode(mnemonic)
}

func (c AssemblerConfig) lookupOpcode(mnemonic string) (Opcode, error) {
	op, ok := opcodeTable[strings.ToLower(mnemonic)]
	if !ok || !c.HasExtension(op.Extension) {
		return Opcode{}, ErrUnknownMnemonic
	}
	return op, nil
}

func Classify(mnemonic string) (FormatFamily, error) {
	op, err := LookupOpcode(mnemonic)
	if err != nil {
		return 0, err
	}
	return op.Format, nil
}

// Mnemonics lists every mnemonic known under the current configuration.
func Mnemonics() []string {
	names := make([]string, 0, len(opcodeTable))
	for name, op := range opcodeTable {
		if assemblerConfig.HasExtension(op.Extension) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Instruction is a fully parsed instruction descriptor. The set of
// implementations is closed; each one carries exactly the fields of its
// format family.
type Instruction interface {
	Name() string
	Format() FormatFamily
	isInstruction()
}

type RType struct {
	Mnemonic     string
	Rd, Rs1, Rs2 Register
}

type IType struct {
	Mnemonic string
	Rd, Rs1  Register
	Imm      Operand
}

type LoadType struct {
	Mnemonic string
	Rd, Rs1  Register
	Imm      Operand
}

type SType struct {
	Mnemonic string
	Rs1, Rs2 Register
	Imm      Operand
}

type BType struct {
	Mnemonic string
	Rs1, Rs2 Register
	Imm      Operand
}

type JType struct {
	Mnemonic string
	Rd       Register
	Imm      Operand
}

type JALRType struct {
	Mnemonic string
	Rd, Rs1  Register
	Imm      Operand
}

type UType struct {
	Mnemonic string
	Rd       Register
	Imm      Operand
}

func (i RType) Name() string    { return i.Mnemonic }
func (i IType) Name() string    { return i.Mnemonic }
func (i LoadType) Name() string { return i.Mnemonic }
func (i SType) Name() string    { return i.Mnemonic }
func (i BType) Name() string    { return i.Mnemonic }
func (i JType) Name() string    { return i.Mnemonic }
func (i JALRType) Name() string { return i.Mnemonic }
func (i UType) Name() string    { return i.Mnemonic }

func (RType) Format() FormatFamily    { return FormatRegisterRegister }
func (IType) Format() FormatFamily    { return FormatRegisterImmediate }
func (LoadType) Format() FormatFamily { return FormatLoad }
func (SType) Format() FormatFamily    { return FormatStore }
func (BType) Format() FormatFamily    { return FormatBranch }
func (JType) Format() FormatFamily    { return FormatJump }
func (JALRType) Format() FormatFamily { return FormatJumpRegister }
func (UType) Format() FormatFamily    { return FormatUpperImmediate }

func (RType) isInstruction()    {}
func (IType) isInstruction()    {}
func (LoadType) isInstruction() {}
func (SType) isInstruction()    {}
func (BType) isInstruction()    {}
func (JType) isInstruction()    {}
func (JALRType) isInstruction() {}
func (UType) isInstruction()    {}

// immediateOf returns the immediate operand of an instruction, if its format
// has one.
func immediateOf(inst Instruction) (Operand, bool) {
	switch i := inst.(type) {
	case RType:
		return Operand{}, false
	case IType:
		return i.Imm, true
	case LoadType:
		return i.Imm, true
	case SType:
		return i.Imm, true
	case BType:
		return i.Imm, true
	case JType:
		return i.Imm, true
	case JALRType:
		return i.Imm, true
	case UType:
		return i.Imm, true
	}
	panic("assembler: unknown instruction variant")
}

// withImmediate returns a copy of inst carrying imm.
func withImmediate(inst Instruction, imm Operand) Instruction {
	switch i := inst.(type) {
	case IType:
		i.Imm = imm
		return i
	case LoadType:
		i.Imm = imm
		return i
	case SType:
		i.Imm = imm
		return i
	case BType:
		i.Imm = imm
		return i
	case JType:
		i.Imm = imm
		return i
	case JALRType:
		i.Imm = imm
		return i
	case UType:
		i.Imm = imm
		return i
	}
	panic("assembler: instruction variant has no immediate")
}
