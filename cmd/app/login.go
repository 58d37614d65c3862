// File: cmd/app/login.go
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"agentloop-chat/internal/infra/auth"
	"agentloop-chat/internal/infra/logging"
)

func newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain and store an access/refresh token pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			in := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				fmt.Fprint(cmd.OutOrStdout(), "username: ")
				line, err := in.ReadString('\n')
				if err != nil {
					return err
				}
				username = strings.TrimSpace(line)
			}
			if password == "" {
				if password = os.Getenv("AGENTLOOP_PASSWORD"); password == "" {
					fmt.Fprint(cmd.OutOrStdout(), "password: ")
					line, err := in.ReadString('\n')
					if err != nil {
						return err
					}
					password = strings.TrimSpace(line)
				}
			}

			creds, err := a.client.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			a.log.Info().Str("access", logging.Redact(creds.Access, a.cfg.Runtime.Dev)).Msg("logged in")

			if exp, err := auth.AccessExpiry(creds.Access); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "logged in; access token valid until %s\n", exp.Local().Format("2006-01-02 15:04"))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "logged in")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (or AGENTLOOP_PASSWORD env)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the stored token pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.client.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}
