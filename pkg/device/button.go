package device

import "time"

// Button recognizes press gestures on a single debounced active-low line.
// Poll must be called once per control-loop iteration with the raw line
// level; ShortPress and LongPress report gestures detected by that poll and
// stay true only until the next one.
//
// A press edge is accepted only if the line has been released for longer
// than the debounce window, which rejects electrical bounce immediately
// after a release. A short press is reported exactly once, at the release
// edge, when the press lasted longer than the debounce window but less than
// the long-press threshold. A long press is reported exactly once per press,
// while the button is still held, as soon as the hold exceeds the threshold.
type Button struct {
	debounceMs  int64
	longPressMs int64

	last    bool // previous sampled level, true = idle (line high)
	current bool

	pressMs   int64
	releaseMs int64

	pressValid bool // press edge passed the debounce check
	longFired  bool // one-shot, reset on the next accepted press edge

	short bool
	long  bool
}

func newButton(debounce, longPress time.Duration) *Button {
	return &Button{
		debounceMs:  debounce.Milliseconds(),
		longPressMs: longPress.Milliseconds(),
		last:        true,
		current:     true,
	}
}

// Poll feeds one sampled line level (true = idle high, false = pressed) at
// the given monotonic millisecond timestamp.
func (b *Button) Poll(level bool, nowMs int64) {
	b.last = b.current
	b.current = level
	b.short = false
	b.long = false

	// Press edge: idle -> active.
	if b.last && !b.current {
		if nowMs-b.releaseMs > b.debounceMs {
			b.pressMs = nowMs
			b.pressValid = true
			b.longFired = false
		}
	}

	// Release edge: active -> idle.
	if !b.last && b.current {
		b.releaseMs = nowMs
		if b.pressValid {
			duration := b.releaseMs - b.pressMs
			if duration > b.debounceMs && duration < b.longPressMs {
				b.short = true
			}
			b.pressValid = false
		}
	}

	// Long press fires while the button is still held.
	if !b.current && b.pressValid && !b.longFired && nowMs-b.pressMs > b.longPressMs {
		b.longFired = true
		b.long = true
	}
}

// ShortPress reports whether the last Poll observed a completed short press.
func (b *Button) ShortPress() bool { return b.short }

// LongPress reports whether the last Poll crossed the long-press threshold.
func (b *Button) LongPress() bool { return b.long }
