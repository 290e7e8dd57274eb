package timing

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestTimerMark(t *testing.T) {
	timer := New("Provisioning Timing")

	time.Sleep(10 * time.Millisecond)
	d1 := timer.Mark("create")

	time.Sleep(15 * time.Millisecond)
	timer.Mark("mount")

	phases := timer.Phases()
	if len(phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(phases))
	}

	if phases[0].Name != "create" {
		t.Errorf("expected create, got %s", phases[0].Name)
	}
	if phases[0].Duration < 10*time.Millisecond {
		t.Errorf("create duration too short: %v", phases[0].Duration)
	}
	if d1 != phases[0].Duration {
		t.Errorf("Mark returned %v, phase recorded %v", d1, phases[0].Duration)
	}

	if phases[1].Name != "mount" {
		t.Errorf("expected mount, got %s", phases[1].Name)
	}
	if phases[1].Duration < 15*time.Millisecond {
		t.Errorf("mount duration too short: %v", phases[1].Duration)
	}
}

func TestTimerTotal(t *testing.T) {
	timer := New("x")

	time.Sleep(10 * time.Millisecond)
	timer.Mark("create")

	if total := timer.Total(); total < 10*time.Millisecond {
		t.Errorf("total too short: %v", total)
	}
}

func TestTimerReport(t *testing.T) {
	timer := New("Provisioning Timing")

	time.Sleep(5 * time.Millisecond)
	timer.Mark("create")
	timer.Mark("format")

	var buf bytes.Buffer
	timer.Report(&buf)
	output := buf.String()

	for _, want := range []string{"=== Provisioning Timing ===", "create:", "format:", "TOTAL:"} {
		if !strings.Contains(output, want) {
			t.Errorf("report missing %q:\n%s", want, output)
		}
	}
}

func TestTimerEmpty(t *testing.T) {
	timer := New("x")

	if phases := timer.Phases(); len(phases) != 0 {
		t.Errorf("expected 0 phases, got %d", len(phases))
	}

	var buf bytes.Buffer
	timer.Report(&buf)
	if !strings.Contains(buf.String(), "TOTAL:") {
		t.Error("empty report should still have total")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{500 * time.Microsecond, "500µs"},
		{50 * time.Millisecond, "50ms"},
		{1500 * time.Millisecond, "1.50s"},
		{2 * time.Second, "2.00s"},
	}

	for _, tt := range tests {
		if result := FormatDuration(tt.d); result != tt.expected {
			t.Errorf("FormatDuration(%v) = %s, expected %s", tt.d, result, tt.expected)
		}
	}
}
