package billing

import (
	"strings"
	"testing"
	"musegate/sources/configuration"
	"musegate/sources/tracing"
)

func newEstimator(t *testing.T) *CostEstimator {
	t.Helper()
	return NewCostEstimator(&configuration.Config{}, tracing.NewConsoleLogger())
}

func TestTextCostScalesWithLength(t *testing.T) {
	estimator := newEstimator(t)

	if cost := estimator.TextCost("short prompt"); cost != 1 {
		t.Errorf("short prompt cost = %d, want 1", cost)
	}

	long := strings.Repeat("alpha beta gamma delta ", 400)
	if cost := estimator.TextCost(long); cost < 2 {
		t.Errorf("long prompt cost = %d, want >= 2", cost)
	}
}

func TestImageCost(t *testing.T) {
	estimator := newEstimator(t)

	cases := []struct {
		width, height int
		quality       string
		want          int
	}{
		{1024, 1024, "standard", 1},
		{1024, 1024, "hd", 2},
		{1792, 1024, "standard", 2},
		{1792, 1024, "hd", 4},
	}

	for _, tc := range cases {
		if got := estimator.ImageCost(tc.width, tc.height, tc.quality); got != tc.want {
			t.Errorf("ImageCost(%d, %d, %s) = %d, want %d", tc.width, tc.height, tc.quality, got, tc.want)
		}
	}
}

func TestVideoCost(t *testing.T) {
	estimator := newEstimator(t)

	cases := []struct {
		seconds int
		mode    string
		want    int
	}{
		{5, "std", 1},
		{6, "std", 2},
		{10, "std", 2},
		{5, "pro", 2},
		{0, "std", 1},
	}

	for _, tc := range cases {
		if got := estimator.VideoCost(tc.seconds, tc.mode); got != tc.want {
			t.Errorf("VideoCost(%d, %s) = %d, want %d", tc.seconds, tc.mode, got, tc.want)
		}
	}
}

func TestMusicCostIsFlat(t *testing.T) {
	estimator := newEstimator(t)
	if estimator.MusicCost(30) != 1 || estimator.MusicCost(240) != 1 {
		t.Error("music cost should be flat")
	}
}
