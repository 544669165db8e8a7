package cmd

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"pokerverse/internal/config"
)

func newConfigCmd(load func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret != "" {
				cfg.Auth.JWTSecret = "<redacted>"
			}
			if cfg.Redis.Password != "" {
				cfg.Redis.Password = "<redacted>"
			}
			out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(out, '\n'))
			return err
		},
	}
}
