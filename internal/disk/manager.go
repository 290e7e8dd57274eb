package disk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/rs/zerolog/log"
)

// FreeSpaceFunc reports the bytes available to the caller on the volume holding path.
type FreeSpaceFunc func(path string) (uint64, error)

// Manager performs the provisioning steps against a Runner.
type Manager struct {
	runner    Runner
	freeSpace FreeSpaceFunc
}

// NewManager creates a manager that runs scripts with runner.
func NewManager(runner Runner) *Manager {
	return &Manager{runner: runner, freeSpace: AvailableBytes}
}

// WithFreeSpace overrides how free space is measured before creating a disk.
func (m *Manager) WithFreeSpace(fn FreeSpaceFunc) *Manager {
	m.freeSpace = fn
	return m
}

// Create writes a new VHDX at v.BackingPath. It never replaces an existing file.
func (m *Manager) Create(ctx context.Context, v *Volume) error {
	if v.SizeBytes == 0 {
		return fmt.Errorf("create disk: size must be positive")
	}
	if err := m.preflight(ctx, v); err != nil {
		return err
	}

	kind := "-Dynamic"
	if !v.Dynamic {
		kind = "-Fixed"
	}
	script := fmt.Sprintf("New-VHD -Path %s -SizeBytes %d %s | Out-Null", quote(v.BackingPath), v.SizeBytes, kind)
	if _, err := m.runner.Run(ctx, script); err != nil {
		return fmt.Errorf("create disk: %w", err)
	}
	return nil
}

// preflight checks that the backing file is absent and its volume has room.
func (m *Manager) preflight(ctx context.Context, v *Volume) error {
	if _, err := os.Stat(v.BackingPath); err == nil {
		return fmt.Errorf("%w: %s", ErrBackingFileExists, v.BackingPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat backing file: %w", err)
	}

	if m.freeSpace == nil {
		return nil
	}
	dir := filepath.Dir(v.BackingPath)
	free, err := m.freeSpace(dir)
	if err != nil {
		return fmt.Errorf("check free space: %w", err)
	}
	if free >= v.SizeBytes {
		return nil
	}

	want := datasize.ByteSize(v.SizeBytes).HumanReadable()
	have := datasize.ByteSize(free).HumanReadable()
	if !v.Dynamic {
		return fmt.Errorf("%w: need %s on %s, have %s", ErrInsufficientSpace, want, dir, have)
	}
	// Dynamic disks grow on write, so a short host volume only fails later.
	log.Ctx(ctx).Warn().
		Str("dir", dir).
		Str("requested", want).
		Str("available", have).
		Msg("host volume has less free space than the dynamic disk may grow to")
	return nil
}

type mountResult struct {
	DiskNumber int    `json:"DiskNumber"`
	Size       uint64 `json:"Size"`
}

// Mount attaches the VHDX and records its disk number and capacity.
func (m *Manager) Mount(ctx context.Context, v *Volume) error {
	script := fmt.Sprintf("Mount-VHD -Path %s -Passthru | Select-Object DiskNumber, Size | ConvertTo-Json -Compress", quote(v.BackingPath))
	var res mountResult
	if err := m.runJSON(ctx, script, &res); err != nil {
		return fmt.Errorf("mount disk: %w", err)
	}

	v.DiskNumber = res.DiskNumber
	v.CapacityBytes = res.Size
	if v.CapacityBytes < v.SizeBytes {
		return fmt.Errorf("%w: mounted %d bytes, requested %d", ErrCapacityShort, v.CapacityBytes, v.SizeBytes)
	}
	return nil
}

// Initialize writes a GPT partition table to the mounted disk.
func (m *Manager) Initialize(ctx context.Context, v *Volume) error {
	if v.DiskNumber < 0 {
		return fmt.Errorf("initialize disk: disk is not mounted")
	}
	script := fmt.Sprintf("Initialize-Disk -Number %d -PartitionStyle GPT | Out-Null", v.DiskNumber)
	if _, err := m.runner.Run(ctx, script); err != nil {
		return fmt.Errorf("initialize disk: %w", err)
	}
	return nil
}

type partitionResult struct {
	DriveLetter string `json:"DriveLetter"`
	Size        uint64 `json:"Size"`
}

// Partition creates one partition spanning the disk and assigns it a drive letter.
func (m *Manager) Partition(ctx context.Context, v *Volume) error {
	if v.DiskNumber < 0 {
		return fmt.Errorf("create partition: disk is not mounted")
	}
	script := fmt.Sprintf("New-Partition -DiskNumber %d -AssignDriveLetter -UseMaximumSize | "+
		"Select-Object @{n='DriveLetter';e={[string]$_.DriveLetter}}, Size | ConvertTo-Json -Compress", v.DiskNumber)
	var res partitionResult
	if err := m.runJSON(ctx, script, &res); err != nil {
		return fmt.Errorf("create partition: %w", err)
	}

	mountPath := MountPathForLetter(res.DriveLetter)
	if mountPath == "" {
		return fmt.Errorf("create partition: %w", ErrNoDriveLetter)
	}
	v.DriveLetter = strings.TrimSuffix(mountPath, ":")
	v.MountPath = mountPath
	return nil
}

// Format writes the requested filesystem to the partition.
func (m *Manager) Format(ctx context.Context, v *Volume) error {
	if v.DriveLetter == "" {
		return fmt.Errorf("format volume: %w", ErrNoDriveLetter)
	}
	args := fmt.Sprintf("-DriveLetter %s -FileSystem %s", v.DriveLetter, v.FileSystem)
	if v.DevDrive {
		args += " -DevDrive"
	}
	script := fmt.Sprintf("Format-Volume %s -Confirm:$false -Force | %s", args, selectVolume)
	var info VolumeInfo
	if err := m.runJSON(ctx, script, &info); err != nil {
		return fmt.Errorf("format volume: %w", err)
	}

	v.FormattedAs = info.FileSystem
	v.FormattedBytes = info.SizeBytes
	if !v.FormattedAs.Equal(v.FileSystem) {
		return fmt.Errorf("%w: requested %s, got %s", ErrFileSystemMismatch, v.FileSystem, v.FormattedAs)
	}
	return nil
}

// Describe reports the volume behind a drive letter.
func (m *Manager) Describe(ctx context.Context, driveLetter string) (*VolumeInfo, error) {
	letter := strings.TrimSuffix(MountPathForLetter(driveLetter), ":")
	if letter == "" {
		return nil, ErrNoDriveLetter
	}
	script := fmt.Sprintf("Get-Volume -DriveLetter %s -ErrorAction SilentlyContinue | %s", letter, selectVolume)
	out, err := m.runner.Run(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("describe volume: %w", err)
	}
	if len(strings.TrimSpace(string(out))) == 0 {
		return nil, fmt.Errorf("%w: %s:", ErrVolumeNotFound, letter)
	}
	var info VolumeInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("describe volume: parse output: %w", err)
	}
	return &info, nil
}

// selectVolume converts volume objects into the VolumeInfo JSON shape.
const selectVolume = "Select-Object @{n='DriveLetter';e={[string]$_.DriveLetter}}, " +
	"@{n='FileSystemType';e={[string]$_.FileSystemType}}, FileSystemLabel, Size, SizeRemaining, " +
	"@{n='HealthStatus';e={[string]$_.HealthStatus}} | ConvertTo-Json -Compress"

func (m *Manager) runJSON(ctx context.Context, script string, v any) error {
	out, err := m.runner.Run(ctx, script)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out, v); err != nil {
		return fmt.Errorf("parse output %q: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}
