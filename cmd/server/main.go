package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/wordbomb-backend/internal/config"
)

const releaseVersion = "0.1.0"

func newCmd(cfg *config.Config) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:           "wordbomb",
		Short:         "Team word game server: find a word containing the sequence before the bomb goes off.",
		Args:          cobra.ExactArgs(0),
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	if err := config.BindFlags(cmd.Flags(), cfg); err != nil {
		return nil, err
	}

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("wordbomb v{{.Version}}\n")
	return cmd, nil
}

func main() {
	cobra.CheckErr(config.LoadDotEnv(".env"))

	cfg := &config.Config{}
	cmd, err := newCmd(cfg)
	cobra.CheckErr(err)

	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
