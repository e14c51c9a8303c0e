package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.gatech.edu/ECEInnovation/RISC-V-Assembler/assembler"
)

// writeListing prints one instruction word per line next to its source,
// followed by a hex dump of the data segment.
func writeListing(w io.Writer, res *assembler.AssembledResult) error {
	b := strings.Builder{}
	b.WriteString(".text\n")
	for i, word := range res.Words {
		addr := uint32(i * 4)
		fmt.Fprintf(&b, "%08x: %08x", addr, word)
		if line, ok := res.AddressToLine[addr]; ok {
			fmt.Fprintf(&b, "  %s", res.SourceLine(line))
		}
		b.WriteByte('\n')
	}
	if len(res.Data) > 0 {
		b.WriteString(".data\n")
		b.WriteString(hex.Dump(res.Data))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
