package perf

import (
	"strings"
	"testing"
	"time"
)

func TestDisabledRecordsNothing(t *testing.T) {
	p := New()
	p.Start(Inference)
	time.Sleep(time.Millisecond)
	p.End(Inference)
	if s := p.StatsFor(Inference); s.Count != 0 {
		t.Fatalf("disabled profiler recorded %d events", s.Count)
	}
}

func TestStartEndRecords(t *testing.T) {
	p := New()
	p.Enable()

	for i := 0; i < 3; i++ {
		p.Start(Inference)
		time.Sleep(time.Millisecond)
		p.End(Inference)
	}
	s := p.StatsFor(Inference)
	if s.Count != 3 {
		t.Fatalf("count = %d, want 3", s.Count)
	}
	if s.Min <= 0 || s.Max < s.Min || s.Avg < s.Min || s.Avg > s.Max {
		t.Fatalf("inconsistent stats: %+v", s)
	}
	if s.Name != "inference" {
		t.Fatalf("name = %q", s.Name)
	}
}

func TestEndWithoutStartIgnored(t *testing.T) {
	p := New()
	p.Enable()
	p.End(SensorRead)
	if s := p.StatsFor(SensorRead); s.Count != 0 {
		t.Fatalf("unmatched End recorded %d events", s.Count)
	}
}

func TestResetDiscardsEvents(t *testing.T) {
	p := New()
	p.Enable()
	p.Start(ShakeDetect)
	p.End(ShakeDetect)
	p.Reset()
	if s := p.StatsFor(ShakeDetect); s.Count != 0 {
		t.Fatalf("reset kept %d events", s.Count)
	}
	// An open marker does not survive a reset either.
	p.Start(ShakeDetect)
	p.Reset()
	p.End(ShakeDetect)
	if s := p.StatsFor(ShakeDetect); s.Count != 0 {
		t.Fatalf("marker opened before reset recorded %d events", s.Count)
	}
}

func TestRingOverwritesOldest(t *testing.T) {
	p := New()
	p.Enable()
	for i := 0; i < maxEvents+100; i++ {
		p.Start(SensorRead)
		p.End(SensorRead)
	}
	if s := p.StatsFor(SensorRead); s.Count != maxEvents {
		t.Fatalf("count = %d, want ring capacity %d", s.Count, maxEvents)
	}
}

func TestReport(t *testing.T) {
	p := New()
	p.Enable()
	p.Start(SpeechFetch)
	p.End(SpeechFetch)

	var sb strings.Builder
	if err := p.Report(&sb); err != nil {
		t.Fatalf("Report: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "speech_fetch") {
		t.Fatalf("report missing recorded marker:\n%s", out)
	}
	if strings.Contains(out, "inference") {
		t.Fatalf("report includes marker with no events:\n%s", out)
	}
}
