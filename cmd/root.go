package cmd

import (
	"fmt"

	"github.com/bnema/wayframe/internal/config"
	"github.com/bnema/wayframe/internal/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "wayframe",
		Short: "wayframe - minimal Wayland client",
		Long: `wayframe opens a single xdg-shell toplevel window backed by one
shared-memory buffer and keeps it alive until the compositor disconnects
or asks it to close.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to wayframe.toml")
}

func initConfig(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		config.SetConfigPath(configPath)
	}
	if err := config.Init(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if lvl := config.Get().Logging.LogLevel; lvl != "" {
		logger.SetLevel(lvl)
	}
	logger.Debug("configuration loaded", "path", config.GetConfigPath())
	return nil
}
