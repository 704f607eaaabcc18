package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xushun007/agentcore/internal/engine/session"
	"github.com/xushun007/agentcore/internal/model"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Start a new session and submit a prompt",
		Args:  cobra.MinimumNArgs(1),
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

			sess, err := session.New(a.newSessionConfig(""))
			if err != nil {
				return fmt.Errorf("start session: %w", err)
			}
			defer sess.Close()

			fmt.Printf("session %s (rollout: %s)\n", sess.SessionID(), sess.RolloutPath())
			return driveSession(ctx, sess, strings.Join(args, " "))
		},
	}
	return cmd
}

// driveSession submits prompt, runs the session to completion, and prints
// events to stdout, grounded on the teacher's cmd/nexus TUI event loop
// (adapted to a plain line-oriented CLI instead of a terminal UI).
func driveSession(ctx context.Context, sess *session.Session, prompt string) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sess.Run(runCtx)

	if err := sess.Submit(model.Submission{ID: "cli", Op: model.OpUserInput, Text: prompt}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	for event := range sess.Events() {
		switch event.Msg.Type {
		case model.EventAgentMessage:
			if text, ok := event.Msg.Data["message"].(string); ok {
				fmt.Println(text)
			}
		case model.EventToolExecutionBegin:
			fmt.Printf("... %v\n", event.Msg.Data["name"])
		case model.EventApprovalRequest:
			fmt.Printf("approval requested for %v (auto-denied; run with an approval policy of never to skip)\n", event.Msg.Data["name"])
		case model.EventTaskComplete:
			return nil
		case model.EventTurnAborted:
			return fmt.Errorf("turn aborted: %v", event.Msg.Data["reason"])
		case model.EventError:
			return fmt.Errorf("%v", event.Msg.Data["message"])
		}
	}
	return nil
}
