// Package cli holds the cobra commands of the blink binary.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blink-inc/blink/internal/infrastructure/config"
	"github.com/blink-inc/blink/internal/shared/constants"
	"github.com/blink-inc/blink/internal/shared/logger"
)

// Flags are the options shared by every command.
type Flags struct {
	Env        string
	ConfigPath string
}

// Bind registers --env and --config on cmd.
func (f *Flags) Bind(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&f.Env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&f.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
}

// Bootstrap loads the configuration and initializes the process logger.
// The ENV variable overrides --env.
func Bootstrap(f *Flags) (*config.Config, logger.Interface, error) {
	env := f.Env
	if v := os.Getenv("ENV"); v != "" {
		env = v
	}

	cfg, err := config.Load(env, f.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, env != constants.EnvProduction); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger.NewLogger(), nil
}
