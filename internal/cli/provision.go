package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/c2h5oh/datasize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/javanstorm/devdrive/internal/config"
	"github.com/javanstorm/devdrive/internal/devdrive"
	"github.com/javanstorm/devdrive/internal/disk"
	"github.com/javanstorm/devdrive/internal/envfile"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create, mount and format the dev volume and export its variables",
	Long: `Provision a VHDX-backed volume and point build tools at it.

This command:
1. Creates the virtual disk (refuses to overwrite an existing file)
2. Mounts it
3. Initializes a GPT partition table
4. Creates one partition over the whole disk with a drive letter
5. Formats it (ReFS by default)
6. Creates <drive>/pixi-tmp
7. Appends DEV_DRIVE, RUSTUP_HOME, CARGO_HOME and PIXI_WORKSPACE to the
   runner's environment file ($GITHUB_ENV), or prints them if none is set

Requires Windows with the Hyper-V storage cmdlets and administrator rights.
Any failing step aborts the run; nothing is cleaned up.

Examples:
  devdrive provision
  devdrive provision --size 64GB --dev-drive
  devdrive provision --path D:/dev.vhdx --filesystem NTFS --timing`,
	RunE: runProvision,
}

var provisionTiming bool

func init() {
	f := provisionCmd.Flags()
	f.String("size", "", "Virtual disk size, e.g. 20GB (default 20GB)")
	f.String("path", "", "Backing VHDX path (default C:/pixi_dev_drive.vhdx)")
	f.String("filesystem", "", "Filesystem: ReFS or NTFS (default ReFS)")
	f.Bool("dynamic", true, "Create an expanding disk instead of allocating it up front")
	f.Bool("dev-drive", false, "Format as a Windows Dev Drive (50GB minimum)")
	f.String("env-file", "", "Environment file to append to (default $GITHUB_ENV)")
	f.Duration("step-timeout", 0, "Timeout for each disk operation (default 10m)")
	f.BoolVar(&provisionTiming, "timing", false, "Print how long each step took")

	mustBind("size", f.Lookup("size"))
	mustBind("backing_path", f.Lookup("path"))
	mustBind("filesystem", f.Lookup("filesystem"))
	mustBind("dynamic", f.Lookup("dynamic"))
	mustBind("dev_drive", f.Lookup("dev-drive"))
	mustBind("env_file", f.Lookup("env-file"))
	mustBind("step_timeout", f.Lookup("step-timeout"))
}

func runProvision(cmd *cobra.Command, args []string) error {
	cfg := config.Global
	if err := checkConfig(cmd.ErrOrStderr(), cfg); err != nil {
		return err
	}
	if !disk.SupportedPlatform() {
		return disk.ErrUnsupportedPlatform
	}

	req, err := cfg.Request()
	if err != nil {
		return err
	}
	d := disk.NewManager(disk.NewPowerShell())
	return provision(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, req, d)
}

// checkConfig prints validation problems and fails on fatal ones.
func checkConfig(w io.Writer, cfg *config.Config) error {
	problems := config.ValidateConfig(cfg)
	if len(problems) == 0 {
		return nil
	}
	fmt.Fprint(w, config.FormatValidationErrors(problems))
	if config.HasFatal(problems) {
		return errors.New("invalid configuration")
	}
	return nil
}

// newSink returns the env file sink, or stdout when no env file is configured.
func newSink(envFile string, stdout io.Writer) envfile.Sink {
	if envFile == "" {
		return envfile.NewWriterSink(stdout)
	}
	return envfile.NewFileSink(envFile)
}

func provision(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, req devdrive.Request, d devdrive.Disk) error {
	ctx = log.Logger.WithContext(ctx)

	p := devdrive.New(d, newSink(cfg.EnvFile, stdout), devdrive.WithStepTimeout(cfg.StepTimeout))
	res, err := p.Provision(ctx, req)
	if err != nil {
		return err
	}

	if provisionTiming {
		res.Timer.Report(stderr)
	}

	// Summary goes to stderr: stdout may be carrying the exports.
	fmt.Fprintln(stderr)
	fmt.Fprintf(stderr, "Dev drive ready at %s\n", res.MountPath)
	fmt.Fprintf(stderr, "  Backing file: %s\n", res.Volume.BackingPath)
	fmt.Fprintf(stderr, "  Size:         %s\n", datasize.ByteSize(res.Volume.CapacityBytes).HumanReadable())
	fmt.Fprintf(stderr, "  Filesystem:   %s\n", res.Volume.FormattedAs)
	fmt.Fprintf(stderr, "  Temp dir:     %s\n", res.TmpDir)
	if cfg.EnvFile != "" {
		fmt.Fprintf(stderr, "  Exported to:  %s\n", cfg.EnvFile)
		for _, v := range res.Env {
			fmt.Fprintf(stderr, "    %s\n", v)
		}
	}
	return nil
}
