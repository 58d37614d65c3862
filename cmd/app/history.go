// File: cmd/app/history.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or delete persisted chat transcripts",
	}
	cmd.PersistentFlags().StringVarP(&projectID, "project", "P", "", "project id (defaults to chat.project_id)")

	show := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print one session's transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			project, err := a.projectID(projectID)
			if err != nil {
				return err
			}

			hist, err := a.client.GetChatHistory(cmd.Context(), args[0], project)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s (project %s)\n\n", hist.SessionID, hist.ProjectName)
			for _, msg := range hist.History {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", msg.Type, msg.Content)
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <session-id>...",
		Short: "Delete one or more sessions' transcripts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			project, err := a.projectID(projectID)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				if err := a.client.DeleteChatHistory(cmd.Context(), args[0], project); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted 1 session")
				return nil
			}

			res, err := a.client.BatchDeleteChatHistory(cmd.Context(), args, project)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d records across %d sessions (%d failed)\n",
				res.DeletedCount, res.ProcessedSessions, len(res.FailedSessions))
			return nil
		},
	}

	cmd.AddCommand(show, del)
	return cmd
}
