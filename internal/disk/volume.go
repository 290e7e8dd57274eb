// Package disk creates, mounts, partitions and formats VHDX-backed volumes
// using the Windows storage cmdlets.
package disk

import (
	"fmt"
	"strings"
)

// FileSystem is a filesystem that Format-Volume can write.
type FileSystem string

const (
	ReFS FileSystem = "ReFS"
	NTFS FileSystem = "NTFS"
)

// ParseFileSystem returns the FileSystem named by s, ignoring case.
func ParseFileSystem(s string) (FileSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "refs":
		return ReFS, nil
	case "ntfs":
		return NTFS, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrUnsupportedFileSystem, s)
	}
}

// Equal reports whether two filesystem names refer to the same filesystem.
func (f FileSystem) Equal(other FileSystem) bool {
	return strings.EqualFold(string(f), string(other))
}

// Volume is a virtual disk as it moves through provisioning.
// Create reads the request fields, Mount through Format fill in the rest.
type Volume struct {
	// BackingPath is the VHDX file on the host volume.
	BackingPath string

	// SizeBytes is the requested virtual disk size.
	SizeBytes uint64

	// FileSystem is the requested filesystem.
	FileSystem FileSystem

	// Dynamic creates an expanding disk instead of a fully allocated one.
	Dynamic bool

	// DevDrive formats the volume as a Windows Dev Drive.
	DevDrive bool

	// DiskNumber is the number Windows assigned on mount (-1 until mounted).
	DiskNumber int

	// CapacityBytes is the virtual size reported by the mount.
	CapacityBytes uint64

	// DriveLetter is the letter assigned to the partition.
	DriveLetter string

	// MountPath is where the volume is reachable, e.g. "E:".
	MountPath string

	// FormattedAs is the filesystem reported after formatting.
	FormattedAs FileSystem

	// FormattedBytes is the size of the formatted volume.
	FormattedBytes uint64
}

// NewVolume returns an unmounted volume request.
func NewVolume(backingPath string, sizeBytes uint64, fs FileSystem) *Volume {
	return &Volume{
		BackingPath: backingPath,
		SizeBytes:   sizeBytes,
		FileSystem:  fs,
		Dynamic:     true,
		DiskNumber:  -1,
	}
}

// Mounted reports whether the volume has a usable mount path.
func (v *Volume) Mounted() bool {
	return v.MountPath != ""
}

// MountPathForLetter returns the mount path for a drive letter ("E" -> "E:").
// Anything other than a single letter A-Z yields "", including the NUL
// character New-Partition reports when no letter was assigned.
func MountPathForLetter(letter string) string {
	letter = strings.TrimSuffix(strings.TrimSpace(letter), ":")
	if len(letter) != 1 {
		return ""
	}
	c := letter[0] &^ 0x20
	if c < 'A' || c > 'Z' {
		return ""
	}
	return string(c) + ":"
}

// VolumeInfo is what Get-Volume reports for a drive letter.
type VolumeInfo struct {
	DriveLetter    string     `json:"DriveLetter"`
	FileSystem     FileSystem `json:"FileSystemType"`
	Label          string     `json:"FileSystemLabel"`
	SizeBytes      uint64     `json:"Size"`
	RemainingBytes uint64     `json:"SizeRemaining"`
	Health         string     `json:"HealthStatus"`
}
