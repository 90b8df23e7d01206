// Command filactl is a small operator CLI for the fila service. It talks
// to the HTTP API of a running instance and prints tabular output.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

const defaultBaseURL = "http://localhost:9080"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "filactl",
		Short:         "Operator commands for the fila distribution service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("addr", defaultBaseURL, "Base URL of the fila service")

	root.AddCommand(
		newOverviewCommand(),
		newAnalystsCommand(),
		newRedistributeCommand(),
	)
	return root
}
