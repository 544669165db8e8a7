package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pokerverse/internal/config"
)

// NewRootCmd returns the pokerverse command tree.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "pokerverse",
		Short:         "Multi-room Texas Hold'em table server",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")

	load := func() (config.Config, error) {
		return config.Load(v, cfgFile)
	}
	rootCmd.AddCommand(newServeCmd(load), newConfigCmd(load))
	return rootCmd
}
