package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/udisondev/jlud/internal/appdir"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the application directories and default config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appdir.Init(); err != nil {
				return fmt.Errorf("init app directory: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Initialized: %s\n", appdir.Dir())
			fmt.Fprintf(out, "Config: %s\n", appdir.ConfigPath())
			fmt.Fprintf(out, "User file: %s\n", appdir.UserFilePath())
			fmt.Fprintf(out, "Logs: %s\n", appdir.LogsDir())
			return nil
		},
	}
}
