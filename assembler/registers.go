package assembler

import "strconv"

var abiRegisterNames = [32]string{
	"zero", "ra", "sp", "gp", "tp",
	"t0", "t1", "t2",
	"s0", "s1",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11",
	"t3", "t4", "t5", "t6",
}

// RegisterNameMap holds every accepted spelling of a register: the decimal
// index, the x-name and the ABI name. Lookups are case sensitive.
var RegisterNameMap = make(map[string]Register, 32*3+1)

func init() {
	for i, name := range abiRegisterNames {
		RegisterNameMap[name] = Register(i)
		RegisterNameMap[strconv.Itoa(i)] = Register(i)
		RegisterNameMap["x"+strconv.Itoa(i)] = Register(i)
	}
	RegisterNameMap["fp"] = 8
}

// ResolveRegister maps a register token to its index.
func ResolveRegister(name string) (Register, error) {
	reg, ok := RegisterNameMap[name]
	if !ok {
		return 0, ErrUnknownRegister
	}
	return reg, nil
}

// ABIName returns the calling convention name of a register.
func (r Register) ABIName() string {
	if int(r) >= len(abiRegisterNames) {
		return "x" + strconv.Itoa(int(r))
	}
	return abiRegisterNames[r]
}
