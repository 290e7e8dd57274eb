package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFakeRunnerScriptedResponses(t *testing.T) {
	boom := errors.New("boom")
	r := NewFakeRunner().
		On("Get-Volume", `{"DriveLetter":"E"}`).
		Fail("Mount-VHD", boom)

	out, err := r.Run(context.Background(), "Get-Volume -DriveLetter E")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(out) != `{"DriveLetter":"E"}` {
		t.Errorf("output = %q", out)
	}

	if _, err := r.Run(context.Background(), "Mount-VHD -Path 'x'"); !errors.Is(err, boom) {
		t.Errorf("expected scripted error, got %v", err)
	}

	if _, err := r.Run(context.Background(), "Dismount-VHD -Path 'x'"); err == nil {
		t.Error("expected error for unscripted cmdlet")
	}

	want := []string{"Get-Volume", "Mount-VHD", "Dismount-VHD"}
	got := r.Cmdlets()
	if len(got) != len(want) {
		t.Fatalf("Cmdlets() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Cmdlets()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFakeRunnerCancelledContext(t *testing.T) {
	r := NewFakeRunner().On("New-VHD", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Run(ctx, "New-VHD -Path 'x'"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(r.Scripts()) != 0 {
		t.Error("cancelled run should not be recorded")
	}
}

func TestCmdlet(t *testing.T) {
	tests := []struct {
		script string
		want   string
	}{
		{"New-VHD -Path 'C:/a.vhdx'", "New-VHD"},
		{"  Format-Volume -DriveLetter E", "Format-Volume"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Cmdlet(tt.script); got != tt.want {
			t.Errorf("Cmdlet(%q) = %q, want %q", tt.script, got, tt.want)
		}
	}
}

func TestCreateBackingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "disk.vhdx")

	CreateBackingFile(t, path, 1024*1024)

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("backing file not created: %v", err)
	}
	if info.Size() != 1024*1024 {
		t.Errorf("size = %d, want %d", info.Size(), 1024*1024)
	}
}
