package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xushun007/agentcore/internal/config"
	"github.com/xushun007/agentcore/internal/models"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate a config file and the configured model/provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")

			var cfg *config.Config
			var err error
			if configPath != "" {
				cfg, err = config.Load(configPath)
			} else {
				cfg = config.Default()
			}
			if err != nil {
				fmt.Printf("FAIL  config: %v\n", err)
				return err
			}
			fmt.Println("OK    config loaded")

			provider := models.Provider(cfg.Model.Provider)
			catalogModel, ok := models.Get(cfg.Model.Name)
			switch {
			case !ok:
				fmt.Printf("WARN  model %q is not in the built-in catalogue (it may still work if the provider accepts it)\n", cfg.Model.Name)
			case catalogModel.Provider != provider:
				fmt.Printf("WARN  model %q is catalogued under provider %q, not %q\n", cfg.Model.Name, catalogModel.Provider, provider)
			default:
				fmt.Printf("OK    model %s (%s): tools=%v vision=%v streaming=%v\n",
					catalogModel.Name, catalogModel.Provider,
					catalogModel.SupportsTools(), catalogModel.SupportsVision(), catalogModel.SupportsStreaming())
			}

			if cfg.Model.APIKeyEnv != "" {
				if os.Getenv(cfg.Model.APIKeyEnv) == "" {
					fmt.Printf("WARN  %s is not set in the environment\n", cfg.Model.APIKeyEnv)
				} else {
					fmt.Printf("OK    %s is set\n", cfg.Model.APIKeyEnv)
				}
			}

			fmt.Printf("OK    approval.policy=%s approval.sandbox=%s session.max_turns=%d\n",
				cfg.Approval.Policy, cfg.Approval.Sandbox, cfg.Session.MaxTurns)
			return nil
		},
	}
}
