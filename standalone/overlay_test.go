//go:build !libretro

package standalone

import (
	"strings"
	"testing"
	"time"

	"github.com/user-none/hwbridge/pump"
	"github.com/user-none/hwbridge/surface"
)

func TestNotification_Visibility(t *testing.T) {
	var n Notification
	if n.IsVisible() {
		t.Error("empty notification is visible")
	}

	n.Show("saved", time.Hour)
	if !n.IsVisible() {
		t.Error("notification not visible after Show")
	}

	n.Clear()
	if n.IsVisible() {
		t.Error("notification visible after Clear")
	}

	n.Show("expired", 0)
	if n.IsVisible() {
		t.Error("zero-duration notification is visible")
	}
}

func TestStatsText(t *testing.T) {
	s := pump.StatsSnapshot{Presented: 120, Duped: 3, FenceTimeouts: 2, AudioUnderruns: 7}
	got := statsText(s, 1, 1)

	for _, want := range []string{"presented 120", "duped 3", "timeouts 2", "underruns 7", "pauses 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("stats text %q does not contain %q", got, want)
		}
	}
	if lines := strings.Count(got, "\n") + 1; lines != 4 {
		t.Errorf("stats text has %d lines, want 4", lines)
	}
}

func TestSurfaceText(t *testing.T) {
	tests := []struct {
		name string
		s    *surface.Surface
		want string
	}{
		{"unallocated", nil, "surface not allocated"},
		{
			"grown",
			&surface.Surface{Width: 320, Height: 240, ContentWidth: 256, ContentHeight: 224, Generation: 3},
			"surface 320x240  content 256x224  generation 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := surfaceText(tt.s); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
