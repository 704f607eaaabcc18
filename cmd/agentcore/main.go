// Command agentcore is the coding-assistant engine's CLI: run/resume a
// session against a workspace, list past sessions, and sanity-check a
// config file. Grounded on the structure of the teacher's cmd/nexus/main.go
// (cobra root command wiring only — that binary's subcommands all drove the
// deleted multi-channel gateway).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "agentcore",
		Short: "Run and inspect coding-assistant agent sessions",
	}
	root.PersistentFlags().String("config", "", "path to config file (yaml or json5)")
	root.PersistentFlags().String("workspace", ".", "workspace directory the session operates on")
	root.PersistentFlags().String("session-dir", "", "directory for rollout files (defaults to <workspace>/.agentcore/sessions)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newResumeCmd())
	root.AddCommand(newSessionsCmd())
	root.AddCommand(newDoctorCmd())
	return root
}
