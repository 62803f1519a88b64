package model

import "testing"

func TestDateOf(t *testing.T) {
	if got := DateOf(1720396800); got != "2024-07-08" {
		t.Fatalf("date mismatch: %s", got)
	}
	if got := DateOf(1720483199); got != "2024-07-08" {
		t.Fatalf("end of day mismatch: %s", got)
	}
}

func TestDayStart(t *testing.T) {
	ts, err := DayStart("2024-07-08")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts != 1720396800 {
		t.Fatalf("timestamp mismatch: %d", ts)
	}
	if _, err := DayStart("07/08/2024"); err == nil {
		t.Fatalf("expected error for bad layout")
	}
}
