package observ

import (
	"errors"
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	if err := tm.Track("discover", func() (string, error) { return "3 files", nil }); err != nil {
		t.Fatalf("track: %v", err)
	}
	boom := errors.New("boom")
	if err := tm.Track("check", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("track should return fn error, got %v", err)
	}
	tm.End(42, "ignored")

	report := tm.Report()
	if len(report.Phases) != 2 || report.Phases[0].Note != "3 files" || report.Phases[1].Note != "failed" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.TotalMS < report.Phases[0].DurationMS {
		t.Fatalf("total smaller than a phase: %+v", report)
	}
	summary := tm.Summary()
	for _, want := range []string{"timings:", "discover", "3 files", "check", "total"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}
}
