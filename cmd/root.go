package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.gatech.edu/ECEInnovation/RISC-V-Assembler/assembler"
	"github.gatech.edu/ECEInnovation/RISC-V-Assembler/util"
)

type rootOptions struct {
	configPath  string
	byteOrder   string
	symbols     bool
	logging     bool
	logEndpoint string
}

// NewRootCommand builds the command tree. Every call returns an independent
// tree so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	o := &rootOptions{}
	root := &cobra.Command{
		Use:   "riscv-asm <input-file> <output-file>",
		Short: "Assembler for the RV32I base integer instruction set",
		Long: `riscv-asm translates RV32I assembly source into raw machine code.

The output file receives the text segment followed by the data segment.
Pass "-" as the output file to write to stdout; on a terminal a hex
listing is printed instead of raw bytes.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.apply(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssemble(cmd, o, args[0], args[1])
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "JSON assembler config file")
	flags.StringVar(&o.byteOrder, "byte-order", "big", `byte order of emitted words, "big" or "little"`)
	flags.BoolVar(&o.logging, "log", false, "enable debug logging to stderr")
	flags.StringVar(&o.logEndpoint, "log-endpoint", "", "POST debug log messages to this URL instead of stderr")
	root.Flags().BoolVar(&o.symbols, "symbols", false, "dump the symbol table to stderr")

	root.AddCommand(newLanguageServerCommand(), newServeCommand())
	return root
}

// apply loads the config file and flag overrides into the assembler's
// package config.
func (o *rootOptions) apply(cmd *cobra.Command) error {
	util.LoggingEnabled = o.logging || o.logEndpoint != ""
	util.LogEndpoint = o.logEndpoint

	cfg := assembler.DefaultConfig()
	if o.configPath != "" {
		loaded, err := assembler.LoadConfig(o.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("byte-order") {
		cfg.ByteOrder = o.byteOrder
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	assembler.SetConfig(cfg)
	util.LogF("assembler config: %+v", cfg)
	return nil
}

func runAssemble(cmd *cobra.Command, o *rootOptions, input, output string) error {
	if _, err := os.Stat(input); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("file `%s` does not exist", input)
		}
		return err
	}
	b, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("could not read file %s: %w", input, err)
	}

	res, err := assembler.Assemble(string(b))
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	util.LogF("assembled %s: %d text bytes, %d data bytes", input, len(res.Text), len(res.Data))

	if o.symbols {
		dumpSymbols(cmd.ErrOrStderr(), res)
	}

	if output == "-" {
		out := cmd.OutOrStdout()
		if isTerminal(out) {
			return writeListing(out, res)
		}
		_, err = out.Write(res.Bytes())
		return err
	}
	if err := os.WriteFile(output, res.Bytes(), 0o644); err != nil {
		return fmt.Errorf("could not write file %s: %w", output, err)
	}
	return nil
}

func dumpSymbols(w io.Writer, res *assembler.AssembledResult) {
	printer := pp.New()
	printer.SetOutput(w)
	printer.SetColoringEnabled(isTerminal(w))
	printer.Println(res.Symbols.Symbols())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
