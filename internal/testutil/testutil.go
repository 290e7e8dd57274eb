// Package testutil provides common test helpers for devdrive tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// Response is the scripted result for one cmdlet.
type Response struct {
	Output string
	Err    error
}

// FakeRunner answers PowerShell scripts by their leading cmdlet name and
// records every script it receives.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]Response
	scripts   []string
}

// NewFakeRunner returns a runner with no scripted responses.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string]Response)}
}

// On makes cmdlet succeed with output.
func (f *FakeRunner) On(cmdlet, output string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdlet] = Response{Output: output}
	return f
}

// Fail makes cmdlet return err.
func (f *FakeRunner) Fail(cmdlet string, err error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdlet] = Response{Err: err}
	return f
}

// Run implements disk.Runner.
func (f *FakeRunner) Run(ctx context.Context, script string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts = append(f.scripts, script)

	resp, ok := f.responses[Cmdlet(script)]
	if !ok {
		return nil, fmt.Errorf("fake runner: unexpected script %q", script)
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return []byte(resp.Output), nil
}

// Scripts returns every script run so far.
func (f *FakeRunner) Scripts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.scripts...)
}

// Cmdlets returns the leading cmdlet of every script run so far, in order.
func (f *FakeRunner) Cmdlets() []string {
	scripts := f.Scripts()
	out := make([]string, len(scripts))
	for i, s := range scripts {
		out[i] = Cmdlet(s)
	}
	return out
}

// Cmdlet returns the first word of a script.
func Cmdlet(script string) string {
	fields := strings.Fields(script)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ProvisioningRunner returns a runner scripted for a successful provisioning
// of a disk of sizeBytes that ends up at drive letter and formatted as fs.
func ProvisioningRunner(sizeBytes uint64, letter, fs string) *FakeRunner {
	return NewFakeRunner().
		On("New-VHD", "").
		On("Mount-VHD", fmt.Sprintf(`{"DiskNumber":3,"Size":%d}`, sizeBytes)).
		On("Initialize-Disk", "").
		On("New-Partition", fmt.Sprintf(`{"DriveLetter":%q,"Size":%d}`, letter, sizeBytes-16*1024*1024)).
		On("Format-Volume", VolumeJSON(letter, fs, sizeBytes-16*1024*1024)).
		On("Get-Volume", VolumeJSON(letter, fs, sizeBytes-16*1024*1024))
}

// VolumeJSON renders a Get-Volume/Format-Volume result.
func VolumeJSON(letter, fs string, size uint64) string {
	return fmt.Sprintf(`{"DriveLetter":%q,"FileSystemType":%q,"FileSystemLabel":"","Size":%d,"SizeRemaining":%d,"HealthStatus":"Healthy"}`,
		letter, fs, size, size)
}

// CreateBackingFile creates a sparse file at path with the given size.
func CreateBackingFile(t *testing.T, path string, sizeBytes int64) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create backing file at %s: %v", path, err)
	}
	defer f.Close()

	if err := f.Truncate(sizeBytes); err != nil {
		t.Fatalf("failed to truncate backing file to %d bytes: %v", sizeBytes, err)
	}
}

// PlentyOfSpace is a free-space probe that always reports 1TiB.
func PlentyOfSpace(string) (uint64, error) {
	return 1 << 40, nil
}
