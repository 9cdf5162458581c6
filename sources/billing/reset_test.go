package billing

import (
	"testing"
	"time"
	"musegate/sources/platform"
)

func TestCurrentWindowStartUsesLocalClock(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2026, 3, 10, 2, 30, 0, 0, zone)

	got := CurrentWindowStart(platform.ResetPeriodDaily, now)
	want := time.Date(2026, 3, 10, 0, 0, 0, 0, zone)
	if !got.Equal(want) {
		t.Errorf("window start = %s, want %s", got, want)
	}

	// UTC truncation lands on a different instant for any non-UTC zone.
	if utc := now.Truncate(24 * time.Hour); got.Equal(utc) {
		t.Errorf("window start %s must not coincide with UTC truncation %s", got, utc)
	}
}

func TestNextResetTimeFollowsWindowStart(t *testing.T) {
	zone := time.FixedZone("UTC-3", -3*3600)
	now := time.Date(2026, 3, 10, 23, 59, 0, 0, zone)

	daily := NextResetTime(platform.ResetPeriodDaily, now)
	if want := time.Date(2026, 3, 11, 0, 0, 0, 0, zone); !daily.Equal(want) {
		t.Errorf("daily reset = %s, want %s", daily, want)
	}

	monthly := NextResetTime(platform.ResetPeriodMonthly, now)
	if want := time.Date(2026, 4, 1, 0, 0, 0, 0, zone); !monthly.Equal(want) {
		t.Errorf("monthly reset = %s, want %s", monthly, want)
	}
}
