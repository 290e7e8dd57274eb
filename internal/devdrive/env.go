package devdrive

import "github.com/javanstorm/devdrive/internal/envfile"

// TmpDirName is the directory created on the volume for pixi temporary files.
const TmpDirName = "pixi-tmp"

// Exported variable names.
const (
	EnvDevDrive      = "DEV_DRIVE"
	EnvRustupHome    = "RUSTUP_HOME"
	EnvCargoHome     = "CARGO_HOME"
	EnvPixiWorkspace = "PIXI_WORKSPACE"
)

// Paths are joined with "/" rather than filepath.Join: on Windows
// filepath.Join("E:", "x") yields the drive-relative "E:x".

// TmpDir returns the pixi temporary directory under mountPath.
func TmpDir(mountPath string) string {
	return mountPath + "/" + TmpDirName
}

// DeriveEnv returns the variables that point build tools at mountPath, in
// export order.
func DeriveEnv(mountPath string) []envfile.Var {
	return []envfile.Var{
		{Key: EnvDevDrive, Value: mountPath},
		{Key: EnvRustupHome, Value: mountPath + "/.rustup"},
		{Key: EnvCargoHome, Value: mountPath + "/.cargo"},
		{Key: EnvPixiWorkspace, Value: mountPath + "/pixi"},
	}
}

// EnvKeys lists the exported variable names in export order.
func EnvKeys() []string {
	return []string{EnvDevDrive, EnvRustupHome, EnvCargoHome, EnvPixiWorkspace}
}
