package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javanstorm/devdrive/internal/config"
	"github.com/javanstorm/devdrive/internal/devdrive"
	"github.com/javanstorm/devdrive/internal/disk"
	"github.com/javanstorm/devdrive/internal/envfile"
)

var envCmd = &cobra.Command{
	Use:   "env <drive-or-path>",
	Short: "Print the variables exported for a mount path",
	Long: `Print the build tool variables for an already mounted volume.

A bare drive letter ("E" or "E:") is turned into its mount path. With
--export the variables are appended to the environment file instead.

Examples:
  devdrive env E
  devdrive env E: --export`,
	Args: cobra.ExactArgs(1),
	RunE: runEnv,
}

var envExport bool

func init() {
	envCmd.Flags().BoolVar(&envExport, "export", false, "Append to the environment file instead of printing")
}

func runEnv(cmd *cobra.Command, args []string) error {
	mountPath := resolveMountPath(args[0])
	if mountPath == "" {
		return fmt.Errorf("%q is not a drive letter or mount path", args[0])
	}
	vars := devdrive.DeriveEnv(mountPath)

	if !envExport {
		return envfile.NewWriterSink(cmd.OutOrStdout()).Export(vars...)
	}
	envFile := ""
	if config.Global != nil {
		envFile = config.Global.EnvFile
	}
	if err := newSink(envFile, cmd.OutOrStdout()).Export(vars...); err != nil {
		return fmt.Errorf("export environment: %w", err)
	}
	return nil
}

// resolveMountPath turns "e" or "E:" into "E:" and leaves other paths alone.
func resolveMountPath(arg string) string {
	trimmed := strings.TrimSpace(arg)
	if mountPath := disk.MountPathForLetter(trimmed); mountPath != "" {
		return mountPath
	}
	return strings.TrimRight(trimmed, `/\`)
}
