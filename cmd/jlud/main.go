// Package main запускает клиент jlud.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Информация о сборке, задаётся через -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jlud",
		Short: "Campus network authentication client",
		Long: `jlud authenticates against a Dr.COM style UDP server and keeps
the session alive.

Credentials are stored in an encrypted file created with "jlud user create".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		authCmd(),
		userCmd(),
		initCmd(),
		versionCmd(),
	)
	return root
}
