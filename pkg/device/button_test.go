package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// pollHold polls the button once per millisecond with the line held low,
// starting at fromMs, for the given number of milliseconds. It returns how
// many long-press events fired.
func pollHold(b *Button, fromMs, holdMs int64) int {
	longs := 0
	for t := fromMs; t < fromMs+holdMs; t++ {
		b.Poll(false, t)
		if b.LongPress() {
			longs++
		}
	}
	return longs
}

func newTestButton() *Button {
	return newButton(DefaultDebounce, DefaultLongPress)
}

func TestButton_ShortPress(t *testing.T) {
	b := newTestButton()

	longs := pollHold(b, 100, 500)
	assert.Zero(t, longs)

	b.Poll(true, 600)
	assert.True(t, b.ShortPress(), "short press expected at release edge")
	assert.False(t, b.LongPress())

	// Event is consumed by the next poll.
	b.Poll(true, 601)
	assert.False(t, b.ShortPress())
}

func TestButton_ShortPress_JustUnderLongThreshold(t *testing.T) {
	b := newTestButton()

	longs := pollHold(b, 100, 1999)
	assert.Zero(t, longs, "1999 ms hold must not register as long press")

	b.Poll(true, 2099)
	assert.True(t, b.ShortPress())
}

func TestButton_NoiseBelowDebounce(t *testing.T) {
	tests := []struct {
		name   string
		holdMs int64
	}{
		{"10 ms blip", 10},
		{"exactly the debounce window", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestButton()
			longs := pollHold(b, 100, tt.holdMs)
			b.Poll(true, 100+tt.holdMs)
			assert.False(t, b.ShortPress())
			assert.Zero(t, longs)
		})
	}
}

func TestButton_LongPress_OneShot(t *testing.T) {
	b := newTestButton()

	// Held for 10 seconds: the long press fires exactly once, while held.
	longs := pollHold(b, 100, 10_000)
	assert.Equal(t, 1, longs)

	// Releasing a long-held button is not a short press.
	b.Poll(true, 10_100)
	assert.False(t, b.ShortPress())
}

func TestButton_LongPress_FiresWhileHeld(t *testing.T) {
	b := newTestButton()

	longs := pollHold(b, 100, 2000)
	assert.Zero(t, longs, "threshold is exclusive")

	b.Poll(false, 2101)
	assert.True(t, b.LongPress(), "must fire without waiting for release")
}

func TestButton_BounceAfterRelease(t *testing.T) {
	b := newTestButton()

	// Genuine press and release.
	pollHold(b, 100, 500)
	b.Poll(true, 600)
	assert.True(t, b.ShortPress())

	// Contact bounce 10 ms after the release: the press edge is inside the
	// debounce window and must be rejected outright.
	b.Poll(false, 610)
	b.Poll(true, 620)
	assert.False(t, b.ShortPress(), "bounce must not produce a second event")

	// A real press after the window works again.
	pollHold(b, 700, 300)
	b.Poll(true, 1000)
	assert.True(t, b.ShortPress())
}

func TestButton_OneShotResetsOnNextPress(t *testing.T) {
	b := newTestButton()

	assert.Equal(t, 1, pollHold(b, 100, 3000))
	b.Poll(true, 3100)

	// Second long hold fires its own long press.
	assert.Equal(t, 1, pollHold(b, 3200, 3000))
}

func TestButton_DefaultThresholds(t *testing.T) {
	b := newButton(50*time.Millisecond, 2*time.Second)
	assert.Equal(t, int64(50), b.debounceMs)
	assert.Equal(t, int64(2000), b.longPressMs)
	assert.True(t, b.current, "line idles high")
}
