package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/javanstorm/devdrive/internal/config"
	"github.com/javanstorm/devdrive/internal/devdrive"
	"github.com/javanstorm/devdrive/internal/disk"
	"github.com/javanstorm/devdrive/internal/envfile"
)

var statusCmd = &cobra.Command{
	Use:   "status [drive]",
	Short: "Show the dev volume and the variables exported for it",
	Long: `Display the volume behind a drive letter and compare it with the configured
request, then list the dev drive variables found in the environment file.

The drive defaults to DEV_DRIVE from the environment file or the process
environment.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

var errStatusMismatch = errors.New("volume does not match the configured request")

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Global
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	exported := map[string]string{}
	if cfg.EnvFile != "" {
		env, err := envfile.Read(cfg.EnvFile)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		} else {
			exported = env
		}
	}

	drive := ""
	switch {
	case len(args) == 1:
		drive = args[0]
	case exported[devdrive.EnvDevDrive] != "":
		drive = exported[devdrive.EnvDevDrive]
	default:
		drive = os.Getenv(devdrive.EnvDevDrive)
	}
	if drive == "" {
		return errors.New("no drive given and DEV_DRIVE is not set")
	}

	if !disk.SupportedPlatform() {
		return disk.ErrUnsupportedPlatform
	}
	req, err := cfg.Request()
	if err != nil {
		return err
	}

	info, err := disk.NewManager(disk.NewPowerShell()).Describe(cmd.Context(), drive)
	if err != nil {
		return err
	}
	return renderStatus(cmd.OutOrStdout(), info, req, exported)
}

// renderStatus prints the volume and export tables. It fails when the
// volume's filesystem differs from the request.
func renderStatus(w io.Writer, info *disk.VolumeInfo, req devdrive.Request, exported map[string]string) error {
	fsOK := info.FileSystem.Equal(req.FileSystem)

	vt := table.NewWriter()
	vt.SetOutputMirror(w)
	vt.SetStyle(table.StyleLight)
	vt.SetTitle("Volume %s:", info.DriveLetter)
	vt.AppendHeader(table.Row{"Property", "Value", "Expected"})
	vt.AppendRows([]table.Row{
		{"Filesystem", string(info.FileSystem), check(fsOK, string(req.FileSystem))},
		{"Size", datasize.ByteSize(info.SizeBytes).HumanReadable(), datasize.ByteSize(req.SizeBytes).HumanReadable() + " disk"},
		{"Free", datasize.ByteSize(info.RemainingBytes).HumanReadable(), ""},
		{"Label", info.Label, ""},
		{"Health", info.Health, ""},
	})
	vt.Render()

	mountPath := disk.MountPathForLetter(info.DriveLetter)
	et := table.NewWriter()
	et.SetOutputMirror(w)
	et.SetStyle(table.StyleLight)
	et.SetTitle("Exported variables")
	et.AppendHeader(table.Row{"Variable", "Value", "Expected"})
	for _, v := range devdrive.DeriveEnv(mountPath) {
		got, ok := exported[v.Key]
		if !ok {
			got = "(missing)"
		}
		et.AppendRow(table.Row{v.Key, got, check(got == v.Value, v.Value)})
	}
	et.Render()

	if !fsOK {
		return errStatusMismatch
	}
	return nil
}

func check(ok bool, expected string) string {
	if ok {
		return "ok"
	}
	return "want " + expected
}
