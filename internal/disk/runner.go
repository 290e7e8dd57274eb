package disk

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
)

// Runner executes a PowerShell script and returns its standard output.
type Runner interface {
	Run(ctx context.Context, script string) ([]byte, error)
}

// PowerShell runs scripts through a PowerShell executable.
type PowerShell struct {
	// Path is the executable to run (default "powershell.exe").
	Path string
}

// NewPowerShell returns a runner for the Windows PowerShell host.
func NewPowerShell() *PowerShell {
	return &PowerShell{Path: "powershell.exe"}
}

// Run executes script with -NoProfile -NonInteractive. Failures carry the
// script and its stderr in a *CommandError.
func (p *PowerShell) Run(ctx context.Context, script string) ([]byte, error) {
	// Non-terminating cmdlet errors must still fail the process.
	full := "$ErrorActionPreference = 'Stop'; " + script

	cmd := exec.CommandContext(ctx, p.Path, "-NoProfile", "-NonInteractive", "-Command", full)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Ctx(ctx).Debug().Str("script", script).Msg("running powershell")
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &CommandError{Script: script, Output: stderr.String(), Err: err}
	}
	return stdout.Bytes(), nil
}

// SupportedPlatform reports whether the storage cmdlets are available on this OS.
func SupportedPlatform() bool {
	return runtime.GOOS == "windows"
}

// quote returns s as a single-quoted PowerShell literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
