package config

import (
	"strings"
	"testing"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
		wantFatal bool
	}{
		{"bad size", func(c *Config) { c.Size = "big" }, "Size", true},
		{"zero size", func(c *Config) { c.Size = "0B" }, "Size", true},
		{"small dev drive", func(c *Config) { c.DevDrive = true }, "DevDrive", true},
		{"dev drive on ntfs", func(c *Config) { c.DevDrive = true; c.Size = "64GB"; c.FileSystem = "NTFS" }, "DevDrive", true},
		{"unknown filesystem", func(c *Config) { c.FileSystem = "ext4" }, "FileSystem", true},
		{"missing path", func(c *Config) { c.BackingPath = "" }, "BackingPath", true},
		{"relative path", func(c *Config) { c.BackingPath = "dev.vhdx" }, "BackingPath", true},
		{"wrong extension", func(c *Config) { c.BackingPath = "C:/dev.img" }, "BackingPath", true},
		{"negative timeout", func(c *Config) { c.StepTimeout = -1 }, "StepTimeout", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.EnvFile = "/runner/env"
			tt.mutate(cfg)

			errs := ValidateConfig(cfg)
			found := false
			for _, e := range errs {
				if e.Field == tt.wantField && e.Fatal == tt.wantFatal {
					found = true
				}
			}
			if !found {
				t.Errorf("expected %s error (fatal=%v), got %+v", tt.wantField, tt.wantFatal, errs)
			}
			if HasFatal(errs) != tt.wantFatal {
				t.Errorf("HasFatal() = %v, want %v", HasFatal(errs), tt.wantFatal)
			}
		})
	}
}

func TestValidateConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnvFile = "/runner/env"

	if errs := ValidateConfig(cfg); len(errs) != 0 {
		t.Errorf("default config should be valid, got %+v", errs)
	}
}

func TestValidateConfigLargeDevDrive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnvFile = "/runner/env"
	cfg.DevDrive = true
	cfg.Size = "50GB"

	if errs := ValidateConfig(cfg); len(errs) != 0 {
		t.Errorf("50GB ReFS dev drive should be valid, got %+v", errs)
	}
}

func TestValidateConfigMissingEnvFileIsWarning(t *testing.T) {
	errs := ValidateConfig(DefaultConfig())

	if len(errs) != 1 || errs[0].Field != "EnvFile" {
		t.Fatalf("expected single EnvFile warning, got %+v", errs)
	}
	if HasFatal(errs) {
		t.Error("missing env file should not be fatal")
	}
}

func TestFormatValidationErrors(t *testing.T) {
	if got := FormatValidationErrors(nil); got != "" {
		t.Errorf("FormatValidationErrors(nil) = %q, want empty", got)
	}

	out := FormatValidationErrors([]ValidationError{
		{Field: "Size", Message: "size must be greater than zero", Fatal: true},
		{Field: "EnvFile", Message: "no env file", Fatal: false},
	})
	if !strings.Contains(out, "Error [Size]: size must be greater than zero") {
		t.Errorf("missing fatal line:\n%s", out)
	}
	if !strings.Contains(out, "Warning [EnvFile]: no env file") {
		t.Errorf("missing warning line:\n%s", out)
	}
}
