package cli

import (
	"os"

	"github.com/spf13/cobra"
	"math-quiz-service/internal/config"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	config.LoadDotEnv()

	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "quiz-service",
		Short:        "Math quiz service for one teacher and many students",
		SilenceUsage: true,
	}

	// an empty --port defers to PORT or the config file
	cmd.PersistentFlags().StringVar(&port, "port", "", "port to listen on")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewResetCmd(&configPath))
	cmd.AddCommand(NewExportCmd(&configPath))
	return cmd
}
