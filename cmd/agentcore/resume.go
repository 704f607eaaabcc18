package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xushun007/agentcore/internal/engine/session"
)

func newResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume <rollout-file> [prompt]",
		Short: "Resume a past session from its rollout file and submit a prompt",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			configPath, _ := cmd.Flags().GetString("config")
			workspace, _ := cmd.Flags().GetString("workspace")
			sessionDir, _ := cmd.Flags().GetString("session-dir")

			a, err := resolveApp(ctx, configPath, workspace, sessionDir)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			rolloutPath := args[0]
			sess, err := session.Resume(a.newSessionConfig(""), rolloutPath)
			if err != nil {
				return fmt.Errorf("resume session: %w", err)
			}
			defer sess.Close()

			fmt.Printf("resumed session %s (rollout: %s)\n", sess.SessionID(), sess.RolloutPath())
			return driveSession(ctx, sess, strings.Join(args[1:], " "))
		},
	}
	return cmd
}
