package disk

import (
	"errors"
	"fmt"
	"strings"
)

// Creation errors
var (
	ErrBackingFileExists     = errors.New("disk: backing file already exists")
	ErrInsufficientSpace     = errors.New("disk: not enough free space for backing file")
	ErrUnsupportedFileSystem = errors.New("disk: filesystem must be 'ReFS' or 'NTFS'")
)

// Attach errors
var (
	ErrCapacityShort      = errors.New("disk: mounted capacity is smaller than requested size")
	ErrNoDriveLetter      = errors.New("disk: partition has no drive letter assigned")
	ErrFileSystemMismatch = errors.New("disk: formatted filesystem does not match request")
	ErrVolumeNotFound     = errors.New("disk: volume not found")
)

// Platform errors
var (
	ErrUnsupportedPlatform = errors.New("disk: virtual disk provisioning requires Windows")
)

// CommandError is returned when a PowerShell script exits unsuccessfully.
type CommandError struct {
	Script string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("failed to run %q: %v", e.Script, e.Err)
	}
	return fmt.Sprintf("failed to run %q: %q: %v", e.Script, out, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
