// Package cmdutil holds the flag handling shared by the devchat subcommands.
package cmdutil

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/devchat/pkg/config"
	"github.com/papercomputeco/devchat/pkg/logger"
)

// Persistent flag names defined on the root command.
const (
	ConfigFlag = "config"
	DebugFlag  = "debug"
)

// AddPersistentFlags registers --config and --debug on the root command.
func AddPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(ConfigFlag, config.DefaultPath(), "Path to the TOML config file")
	cmd.PersistentFlags().Bool(DebugFlag, false, "Enable debug logging")
}

// ConfigPath returns the --config value, or the default path when the flag
// is not registered (subcommands run on their own in tests).
func ConfigPath(cmd *cobra.Command) string {
	if f := cmd.Flags().Lookup(ConfigFlag); f != nil {
		return f.Value.String()
	}
	return config.DefaultPath()
}

// LoadConfig loads the configuration named by --config and applies --debug.
func LoadConfig(cmd *cobra.Command) (config.Config, error) {
	path := ConfigPath(cmd)
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if f := cmd.Flags().Lookup(DebugFlag); f != nil && f.Changed {
		cfg.Debug = f.Value.String() == "true"
	}
	return cfg, nil
}

// NewLogger builds the command logger writing to out.
func NewLogger(cfg config.Config, out io.Writer) *zap.Logger {
	return logger.New(logger.Options{Debug: cfg.Debug, Output: out})
}

// CheckCredential reports a missing API key. With strict it is an error;
// otherwise it is logged and chat replies will carry the configuration
// message until a key is configured.
func CheckCredential(cfg config.Config, strict bool, log *zap.Logger) error {
	err := cfg.CheckCredential()
	if err == nil {
		return nil
	}
	if strict {
		return fmt.Errorf("refusing to start: %w", err)
	}
	log.Warn("chat mode is unavailable until an API key is configured", zap.Error(err))
	return nil
}
