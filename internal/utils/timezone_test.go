package utils

import (
	"testing"
	"time"
)

func TestLoadLocationFallsBackToUTC(t *testing.T) {
	if LoadLocation("Not/AZone") != time.UTC {
		t.Fatal("expected UTC fallback for unknown zone")
	}
	if LoadLocation("") != time.UTC {
		t.Fatal("expected UTC for empty zone")
	}
}

func TestBusinessDate(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	if got := BusinessDate(at, loc); got != "2026-03-02" {
		t.Fatalf("expected next local day, got %s", got)
	}
}
