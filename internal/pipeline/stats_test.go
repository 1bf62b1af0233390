package pipeline

import (
	"testing"
	"time"
)

func TestStats_Empty(t *testing.T) {
	if snap := NewStats(time.Minute).Snapshot(); snap != (StatsSnapshot{}) {
		t.Errorf("expected zero snapshot, got %+v", snap)
	}
}

func TestStats_Snapshot(t *testing.T) {
	s := NewStats(time.Minute)
	for _, ms := range []int{40, 10, 30, 20} {
		s.Record(time.Duration(ms)*time.Millisecond, 100)
	}
	snap := s.Snapshot()
	if snap.Count != 4 {
		t.Errorf("expected 4 samples, got %d", snap.Count)
	}
	if snap.MinMs != 10 || snap.MaxMs != 40 {
		t.Errorf("expected min 10 max 40, got %d %d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 25 {
		t.Errorf("expected avg 25, got %v", snap.AvgMs)
	}
	if snap.P50Ms != 25 {
		t.Errorf("expected p50 25, got %v", snap.P50Ms)
	}
	if snap.TotalBytes != 400 {
		t.Errorf("expected 400 bytes, got %d", snap.TotalBytes)
	}
}

func TestStats_Window(t *testing.T) {
	s := NewStats(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Record(5*time.Millisecond, 1)
	now = now.Add(2 * time.Minute)
	s.Record(7*time.Millisecond, 1)

	snap := s.Snapshot()
	if snap.Count != 1 || snap.MinMs != 7 {
		t.Errorf("expected only the recent sample, got %+v", snap)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		pct  float64
		want float64
	}{
		{0, 1},
		{50, 5.5},
		{90, 9.1},
		{100, 10},
	}
	for _, tt := range tests {
		got := percentile(sorted, tt.pct)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("percentile(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
	if percentile(nil, 50) != 0 {
		t.Error("expected 0 for empty input")
	}
}
