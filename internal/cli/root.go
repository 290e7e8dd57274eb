// Package cli provides the command-line interface for devdrive.
package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/javanstorm/devdrive/internal/config"
	"github.com/javanstorm/devdrive/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "devdrive",
	Short: "devdrive - a scratch build volume for Windows CI runners",
	Long: `devdrive creates a VHDX-backed volume on a Windows CI runner and points
rustup, cargo and pixi at it through the runner's environment file.

Build caches on a dedicated ReFS volume avoid the I/O overhead of the
system drive. The volume lives until the runner is torn down.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		switch cmd.Name() {
		case "version", "completion":
			return nil
		}
		if err := config.Load(); err != nil {
			return err
		}
		if err := logger.Configure(logger.Options{
			Level:  config.Global.LogLevel,
			Format: logger.Format(config.Global.LogFormat),
			Out:    cmd.ErrOrStderr(),
		}); err != nil {
			log.Warn().Err(err).Msg("falling back to info logging")
		}
		log.Debug().Str("config_file", config.ConfigFileUsed()).Msg("configuration loaded")
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	mustBind("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	mustBind("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(statusCmd)
}

// mustBind binds a flag to a viper key so flags override file and environment.
func mustBind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
