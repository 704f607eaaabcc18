package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xushun007/agentcore/internal/engine/memory"
	"github.com/xushun007/agentcore/internal/engine/session"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect past sessions",
	}
	cmd.AddCommand(newSessionsListCmd())
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rollout files under the session directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace, _ := cmd.Flags().GetString("workspace")
			sessionDir, _ := cmd.Flags().GetString("session-dir")
			if sessionDir == "" {
				sessionDir = memory.DefaultSessionDir(workspace)
			}

			files, err := session.ListSessions(sessionDir)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			if len(files) == 0 {
				fmt.Println("no sessions found in", sessionDir)
				return nil
			}
			for _, f := range files {
				fmt.Printf("%-40s %-20s %-30s %s\n", f.Meta.SessionID, f.Meta.ModelName, f.Meta.CreatedAt.Format("2006-01-02 15:04:05"), f.Path)
			}
			return nil
		},
	}
}
