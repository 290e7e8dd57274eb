package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/viper"

	"github.com/javanstorm/devdrive/internal/devdrive"
	"github.com/javanstorm/devdrive/internal/disk"
	"github.com/javanstorm/devdrive/internal/envfile"
)

// Config holds all devdrive configuration.
type Config struct {
	// Size is the virtual disk size, e.g. "20GB" (binary units).
	Size string `mapstructure:"size"`

	// BackingPath is the VHDX file created on the host volume.
	BackingPath string `mapstructure:"backing_path"`

	// FileSystem is the filesystem written to the volume.
	FileSystem string `mapstructure:"filesystem"`

	// Dynamic creates an expanding VHDX instead of a fully allocated one.
	Dynamic bool `mapstructure:"dynamic"`

	// DevDrive formats the volume as a Windows Dev Drive (needs 50GB or more).
	DevDrive bool `mapstructure:"dev_drive"`

	// StepTimeout bounds each disk operation (0 = unbounded).
	StepTimeout time.Duration `mapstructure:"step_timeout"`

	// EnvFile is the CI environment file variables are appended to.
	// Empty prints them to stdout instead.
	EnvFile string `mapstructure:"env_file"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"log_format"`
}

// DefaultConfig returns the values the CI workflow has always used.
func DefaultConfig() *Config {
	return &Config{
		Size:        "20GB",
		BackingPath: "C:/pixi_dev_drive.vhdx",
		FileSystem:  string(disk.ReFS),
		Dynamic:     true,
		DevDrive:    false,
		StepTimeout: 10 * time.Minute,
		EnvFile:     "",
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Global holds the loaded configuration.
var Global *Config

// Load reads configuration from the global viper instance (which cobra flags
// are bound to) and stores it in Global.
func Load() error {
	cfg, err := LoadFrom(viper.GetViper())
	if err != nil {
		return err
	}
	Global = cfg
	return nil
}

// LoadFrom reads configuration from file, environment, and defaults into v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	defaults := DefaultConfig()
	v.SetDefault("size", defaults.Size)
	v.SetDefault("backing_path", defaults.BackingPath)
	v.SetDefault("filesystem", defaults.FileSystem)
	v.SetDefault("dynamic", defaults.Dynamic)
	v.SetDefault("dev_drive", defaults.DevDrive)
	v.SetDefault("step_timeout", defaults.StepTimeout)
	v.SetDefault("env_file", defaults.EnvFile)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)

	// Config file settings
	v.SetConfigName("devdrive")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if paths, err := GetPaths(); err == nil {
		v.AddConfigPath(paths.ConfigDir)
	}

	// Environment variable support: DEVDRIVE_SIZE, DEVDRIVE_BACKING_PATH, etc.
	v.SetEnvPrefix("DEVDRIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// The runner's own env file variable is the fallback for env_file.
	if err := v.BindEnv("env_file", "DEVDRIVE_ENV_FILE", envfile.DefaultVariable); err != nil {
		return nil, fmt.Errorf("bind env_file: %w", err)
	}

	// Read config file (optional - not an error if missing)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// SizeBytes parses Size.
func (c *Config) SizeBytes() (uint64, error) {
	var size datasize.ByteSize
	if err := size.UnmarshalText([]byte(strings.TrimSpace(c.Size))); err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", c.Size, err)
	}
	return size.Bytes(), nil
}

// Request converts the configuration into a provisioning request.
func (c *Config) Request() (devdrive.Request, error) {
	size, err := c.SizeBytes()
	if err != nil {
		return devdrive.Request{}, err
	}
	fs, err := disk.ParseFileSystem(c.FileSystem)
	if err != nil {
		return devdrive.Request{}, err
	}
	return devdrive.Request{
		SizeBytes:   size,
		BackingPath: c.BackingPath,
		FileSystem:  fs,
		Dynamic:     c.Dynamic,
		DevDrive:    c.DevDrive,
	}, nil
}

// ConfigFileUsed returns the path of the config file being used, if any.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
