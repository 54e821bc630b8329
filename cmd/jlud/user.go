package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/udisondev/jlud/internal/appdir"
	"github.com/udisondev/jlud/pkg/credentials"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the encrypted credentials file",
	}
	cmd.AddCommand(userCreateCmd(), userInspectCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var username, password, mac, file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an encrypted credentials file",
		Long: `Create an encrypted credentials file.

Missing username and password are asked interactively. Without --mac the
MAC address is taken from the network interface at login time.

Examples:
  jlud user create -u 2021001 -m 00:1a:2b:3c:4d:5e
  jlud user create -u 2021001 -p secret -f ./user`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

			var err error
			if username == "" {
				if username, err = p.line("Username"); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = p.password("Password"); err != nil {
					return err
				}
			}

			u := &credentials.User{Username: username, Password: password}
			if mac != "" {
				if u.MAC, err = credentials.ParseMAC(mac); err != nil {
					return err
				}
			}

			if err := credentials.Save(file, u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s\n", file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (asked if empty)")
	cmd.Flags().StringVarP(&mac, "mac", "m", "", "MAC address aa:bb:cc:dd:ee:ff (interface MAC if empty)")
	cmd.Flags().StringVarP(&file, "file", "f", appdir.UserFilePath(), "credentials file")

	return cmd
}

func userInspectCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print username and MAC from a credentials file",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := credentials.Load(file)
			if err != nil {
				return err
			}

			mac := "(interface)"
			if u.HasMAC() {
				mac = credentials.FormatMAC(u.MAC)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Username: %s\n", u.Username)
			fmt.Fprintf(cmd.OutOrStdout(), "MAC:      %s\n", mac)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", appdir.UserFilePath(), "credentials file")
	return cmd
}
