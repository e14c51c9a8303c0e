package cmd

import (
	"github.com/spf13/cobra"

	"github.gatech.edu/ECEInnovation/RISC-V-Assembler/assembler"
	"github.gatech.edu/ECEInnovation/RISC-V-Assembler/languageServer"
	"github.gatech.edu/ECEInnovation/RISC-V-Assembler/playground"
	"github.gatech.edu/ECEInnovation/RISC-V-Assembler/util"
)

func newLanguageServerCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "languageServer [debug]",
		Short: "Run the language server over stdin/stdout, or TCP with --tcp",
		Long: `Run the language server.

Editors talk to it over stdin/stdout. With --tcp it listens for TCP
connections instead, so it can be attached to and debugged remotely.`,
		ValidArgs: []string{"debug"},
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				util.LoggingEnabled = true
			}
			if addr != "" {
				return languageServer.ListenAndServeTCP(cmd.Context(), addr, assembler.GetConfig())
			}
			return languageServer.ListenAndServe(cmd.Context(), assembler.GetConfig())
		},
	}
	cmd.Flags().StringVar(&addr, "tcp", "", "listen for TCP connections on this address")
	cmd.Flags().Lookup("tcp").NoOptDefVal = ":2035"
	return cmd
}

func newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assembler playground web page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return playground.ListenAndServe(cmd.Context(), addr, assembler.GetConfig())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":2035", "address to listen on")
	return cmd
}
