package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/javanstorm/devdrive/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration provision would use and any problems with it.

Settings come from flags, DEVDRIVE_* environment variables, devdrive.yaml
in the working directory or the user config directory, and built-in
defaults, in that order. The env file falls back to $GITHUB_ENV.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := config.Global
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	printConfig(cmd.OutOrStdout(), cfg, config.ConfigFileUsed())
	return checkConfig(cmd.OutOrStdout(), cfg)
}

func printConfig(w io.Writer, cfg *config.Config, file string) {
	if file == "" {
		file = "(none, using defaults)"
	}

	fmt.Fprintln(w, "devdrive Configuration")
	fmt.Fprintln(w, "======================")
	fmt.Fprintf(w, "Config file: %s\n", file)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Size:         %s\n", cfg.Size)
	fmt.Fprintf(w, "  Backing path: %s\n", cfg.BackingPath)
	fmt.Fprintf(w, "  Filesystem:   %s\n", cfg.FileSystem)
	fmt.Fprintf(w, "  Dynamic:      %s\n", formatBool(cfg.Dynamic))
	fmt.Fprintf(w, "  Dev Drive:    %s\n", formatBool(cfg.DevDrive))
	fmt.Fprintf(w, "  Step timeout: %s\n", formatTimeout(cfg))
	fmt.Fprintf(w, "  Env file:     %s\n", formatEnvFile(cfg.EnvFile))
	fmt.Fprintf(w, "  Log:          %s (%s)\n", cfg.LogLevel, cfg.LogFormat)
	fmt.Fprintln(w)
}

// formatBool formats a boolean for display.
func formatBool(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func formatTimeout(cfg *config.Config) string {
	if cfg.StepTimeout == 0 {
		return "none"
	}
	return cfg.StepTimeout.String()
}

func formatEnvFile(path string) string {
	if path == "" {
		return "(stdout)"
	}
	return path
}
