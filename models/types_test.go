// ABOUTME: Tests for billing data models
// ABOUTME: Validates sprint status derivation, containment and rate fallback
package models

import (
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestSprintStatusOn(t *testing.T) {
	start := mustDate(t, "2025-03-01")
	end := mustDate(t, "2025-03-31")

	tests := []struct {
		today    string
		expected string
	}{
		{"2025-02-28", SprintUpcoming},
		{"2025-03-01", SprintActive},
		{"2025-03-15", SprintActive},
		{"2025-03-31", SprintActive},
		{"2025-04-01", SprintCompleted},
	}

	for _, tt := range tests {
		got := SprintStatusOn(start, end, mustDate(t, tt.today))
		if got != tt.expected {
			t.Errorf("SprintStatusOn(today=%s) = %s, want %s", tt.today, got, tt.expected)
		}
	}
}

func TestSprintContainsInclusiveBounds(t *testing.T) {
	s := &Sprint{StartDate: mustDate(t, "2025-03-01"), EndDate: mustDate(t, "2025-03-31")}

	if !s.Contains(mustDate(t, "2025-03-01")) {
		t.Error("start date should be contained")
	}
	if !s.Contains(mustDate(t, "2025-03-31")) {
		t.Error("end date should be contained")
	}
	// Time of day must not push the end date out of the sprint.
	if !s.Contains(time.Date(2025, 3, 31, 23, 59, 0, 0, time.UTC)) {
		t.Error("late on the end date should be contained")
	}
	if s.Contains(mustDate(t, "2025-04-01")) {
		t.Error("day after end should not be contained")
	}
	if s.Contains(mustDate(t, "2025-02-28")) {
		t.Error("day before start should not be contained")
	}
}

func TestEffectiveRateFallsBackToClient(t *testing.T) {
	clientRate := 3800.0
	sprintRate := 4200.0
	client := &Client{MonthlyRate: &clientRate}

	s := &Sprint{}
	if got := s.EffectiveRate(client); got == nil || *got != clientRate {
		t.Errorf("expected client rate %v, got %v", clientRate, got)
	}

	s.MonthlyRate = &sprintRate
	if got := s.EffectiveRate(client); got == nil || *got != sprintRate {
		t.Errorf("expected sprint rate %v, got %v", sprintRate, got)
	}

	if got := (&Sprint{}).EffectiveRate(nil); got != nil {
		t.Errorf("expected nil rate, got %v", *got)
	}
}

func TestDateOfDropsClock(t *testing.T) {
	in := time.Date(2025, 2, 20, 18, 45, 0, 0, time.FixedZone("AEST", 10*3600))
	got := DateOf(in)
	if FormatDate(got) != "2025-02-20" {
		t.Errorf("DateOf = %s, want 2025-02-20", FormatDate(got))
	}
	if got.Hour() != 0 || got.Location() != time.UTC {
		t.Errorf("expected UTC midnight, got %v", got)
	}
}
