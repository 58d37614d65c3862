// File: cmd/app/sessions.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List your chat session ids within a project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			project, err := a.projectID(projectID)
			if err != nil {
				return err
			}

			list, err := a.client.ListChatSessions(cmd.Context(), project)
			if err != nil {
				return err
			}
			if len(list.Sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
				return nil
			}
			for _, id := range list.Sessions {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "P", "", "project id (defaults to chat.project_id)")
	return cmd
}
