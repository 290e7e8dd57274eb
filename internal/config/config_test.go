package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanstorm/devdrive/internal/disk"
)

// isolate points config lookups and the CI env variables at a clean state.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("GITHUB_ENV", "")
	t.Setenv("DEVDRIVE_ENV_FILE", "")
	chdir(t, dir)
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Size != "20GB" {
		t.Errorf("Size should be '20GB', got %q", cfg.Size)
	}
	if cfg.BackingPath != "C:/pixi_dev_drive.vhdx" {
		t.Errorf("BackingPath should be 'C:/pixi_dev_drive.vhdx', got %q", cfg.BackingPath)
	}
	if cfg.FileSystem != "ReFS" {
		t.Errorf("FileSystem should be 'ReFS', got %q", cfg.FileSystem)
	}
	if !cfg.Dynamic {
		t.Error("Dynamic should be true by default")
	}
	if cfg.DevDrive {
		t.Error("DevDrive should be false by default")
	}

	size, err := cfg.SizeBytes()
	if err != nil {
		t.Fatalf("SizeBytes: %v", err)
	}
	if size != 20*1024*1024*1024 {
		t.Errorf("default size should be 20GiB, got %d", size)
	}
}

func TestLoadFromDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("DEVDRIVE_SIZE", "64GB")
	t.Setenv("DEVDRIVE_FILESYSTEM", "NTFS")
	t.Setenv("DEVDRIVE_DEV_DRIVE", "true")
	t.Setenv("DEVDRIVE_STEP_TIMEOUT", "90s")
	t.Setenv("GITHUB_ENV", `D:\a\_temp\_runner_file_commands\set_env_123`)

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "64GB", cfg.Size)
	assert.Equal(t, "NTFS", cfg.FileSystem)
	assert.True(t, cfg.DevDrive)
	assert.Equal(t, 90*time.Second, cfg.StepTimeout)
	assert.Equal(t, `D:\a\_temp\_runner_file_commands\set_env_123`, cfg.EnvFile)
}

func TestLoadFromEnvFileOverride(t *testing.T) {
	isolate(t)
	t.Setenv("GITHUB_ENV", "/runner/env")
	t.Setenv("DEVDRIVE_ENV_FILE", "/custom/env")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "/custom/env", cfg.EnvFile)
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := isolate(t)
	yaml := strings.Join([]string{
		"size: 30GB",
		"backing_path: D:/cache/dev.vhdx",
		"dynamic: false",
		"log_level: debug",
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "devdrive.yaml"), []byte(yaml), 0644))

	v := viper.New()
	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "30GB", cfg.Size)
	assert.Equal(t, "D:/cache/dev.vhdx", cfg.BackingPath)
	assert.False(t, cfg.Dynamic)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "ReFS", cfg.FileSystem)
	assert.Equal(t, filepath.Join(dir, "devdrive.yaml"), v.ConfigFileUsed())
}

func TestLoadFromBrokenConfigFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "devdrive.yaml"), []byte("size: [unterminated"), 0644))

	_, err := LoadFrom(viper.New())
	require.Error(t, err)
}

func TestRequest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FileSystem = "refs"

	req, err := cfg.Request()
	require.NoError(t, err)
	assert.Equal(t, uint64(21474836480), req.SizeBytes)
	assert.Equal(t, "C:/pixi_dev_drive.vhdx", req.BackingPath)
	assert.Equal(t, disk.ReFS, req.FileSystem)
	assert.True(t, req.Dynamic)

	cfg.Size = "lots"
	_, err = cfg.Request()
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.FileSystem = "FAT32"
	_, err = cfg.Request()
	require.ErrorIs(t, err, disk.ErrUnsupportedFileSystem)
}

func TestGetPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	paths, err := GetPaths()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(paths.ConfigDir))
	assert.Equal(t, "devdrive", filepath.Base(paths.ConfigDir))
	assert.Equal(t, filepath.Join(paths.ConfigDir, "devdrive.yaml"), paths.ConfigFile)
}

func TestIsAbsHostPath(t *testing.T) {
	tests := map[string]bool{
		"C:/pixi_dev_drive.vhdx":  true,
		`C:\pixi_dev_drive.vhdx`:  true,
		`\\server\share\d.vhdx`:   true,
		"pixi_dev_drive.vhdx":     false,
		"C:pixi_dev_drive.vhdx":   false,
		filepath.Join("/", "tmp"): true,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsAbsHostPath(in), in)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
