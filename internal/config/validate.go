package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/c2h5oh/datasize"

	"github.com/javanstorm/devdrive/internal/disk"
)

// MinDevDriveSize is the smallest volume Windows accepts as a Dev Drive.
const MinDevDriveSize = 50 * datasize.GB

// ValidationError represents a configuration issue.
type ValidationError struct {
	Field   string
	Message string
	Fatal   bool // true = can't proceed, false = will be ignored
}

// ValidateConfig checks configuration before anything touches the host.
// Returns a list of validation errors/warnings.
func ValidateConfig(cfg *Config) []ValidationError {
	var errors []ValidationError

	size, err := cfg.SizeBytes()
	switch {
	case err != nil:
		errors = append(errors, ValidationError{Field: "Size", Message: err.Error(), Fatal: true})
	case size == 0:
		errors = append(errors, ValidationError{Field: "Size", Message: "size must be greater than zero", Fatal: true})
	case cfg.DevDrive && size < MinDevDriveSize.Bytes():
		errors = append(errors, ValidationError{
			Field:   "DevDrive",
			Message: fmt.Sprintf("Dev Drive volumes need at least %s, got %s", MinDevDriveSize.HumanReadable(), datasize.ByteSize(size).HumanReadable()),
			Fatal:   true,
		})
	}

	if _, err := disk.ParseFileSystem(cfg.FileSystem); err != nil {
		errors = append(errors, ValidationError{Field: "FileSystem", Message: err.Error(), Fatal: true})
	} else if cfg.DevDrive && !strings.EqualFold(cfg.FileSystem, string(disk.ReFS)) {
		errors = append(errors, ValidationError{Field: "DevDrive", Message: "Dev Drive volumes must be formatted as ReFS", Fatal: true})
	}

	switch {
	case cfg.BackingPath == "":
		errors = append(errors, ValidationError{Field: "BackingPath", Message: "backing path is required", Fatal: true})
	case !IsAbsHostPath(cfg.BackingPath):
		errors = append(errors, ValidationError{Field: "BackingPath", Message: fmt.Sprintf("backing path %q must be absolute", cfg.BackingPath), Fatal: true})
	default:
		ext := strings.ToLower(filepath.Ext(cfg.BackingPath))
		if ext != ".vhdx" && ext != ".vhd" {
			errors = append(errors, ValidationError{Field: "BackingPath", Message: fmt.Sprintf("backing path %q must end in .vhdx or .vhd", cfg.BackingPath), Fatal: true})
		}
	}

	if cfg.StepTimeout < 0 {
		errors = append(errors, ValidationError{Field: "StepTimeout", Message: "step timeout cannot be negative", Fatal: true})
	}

	if cfg.EnvFile == "" {
		errors = append(errors, ValidationError{
			Field:   "EnvFile",
			Message: "no env file configured (GITHUB_ENV unset); variables will be printed to stdout",
			Fatal:   false,
		})
	}

	return errors
}

// HasFatal reports whether any validation error prevents provisioning.
func HasFatal(errors []ValidationError) bool {
	for _, e := range errors {
		if e.Fatal {
			return true
		}
	}
	return false
}

// FormatValidationErrors returns human-readable error summary.
func FormatValidationErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Configuration problems:\n")
	for _, e := range errors {
		prefix := "Warning"
		if e.Fatal {
			prefix = "Error"
		}
		fmt.Fprintf(&b, "  %s [%s]: %s\n", prefix, e.Field, e.Message)
	}
	return b.String()
}
