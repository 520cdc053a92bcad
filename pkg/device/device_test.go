package device

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually stepped Clock.
type fakeClock struct {
	us int64
}

func (c *fakeClock) Micros() int64 { return c.us }

func (c *fakeClock) advance(d time.Duration) { c.us += d.Microseconds() }

// fakeHardware holds scripted button states (logical: true = pressed) and
// records the indicator line.
type fakeHardware struct {
	validPressed   bool
	invalidPressed bool
	indicator      bool
	indicatorSets  int
}

func (h *fakeHardware) ButtonValid() bool   { return !h.validPressed }
func (h *fakeHardware) ButtonInvalid() bool { return !h.invalidPressed }

func (h *fakeHardware) SetIndicator(on bool) {
	h.indicator = on
	h.indicatorSets++
}

// scriptedLines is a LineSource fed by tests.
type scriptedLines struct {
	lines []string
}

func (s *scriptedLines) push(line string) { s.lines = append(s.lines, line) }

func (s *scriptedLines) ReadLine() (string, bool) {
	if len(s.lines) == 0 {
		return "", false
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, true
}

type harness struct {
	clock *fakeClock
	hw    *fakeHardware
	cmds  *scriptedLines
	out   *bytes.Buffer
	dev   *Device
}

func newHarness() *harness {
	h := &harness{
		clock: &fakeClock{},
		hw:    &fakeHardware{},
		cmds:  &scriptedLines{},
		out:   &bytes.Buffer{},
	}
	h.dev = New(Config{
		Clock:    h.clock,
		Hardware: h.hw,
		Commands: h.cmds,
		Output:   h.out,
		Source: func(p Profile, _ float32) float32 {
			if p == ProfileAdversarial {
				return -1
			}
			return 1
		},
	})
	// Let the debounce window from the t=0 release origin expire.
	h.clock.advance(time.Second)
	return h
}

// run steps the loop with the given iteration period for the given duration.
func (h *harness) run(total, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		h.clock.advance(step)
		h.dev.Step()
	}
}

// tap simulates a short button press and release.
func (h *harness) tap(valid bool) {
	if valid {
		h.hw.validPressed = true
	} else {
		h.hw.invalidPressed = true
	}
	h.run(200*time.Millisecond, time.Millisecond)
	h.hw.validPressed = false
	h.hw.invalidPressed = false
	h.run(2*time.Millisecond, time.Millisecond)
}

// hold simulates holding a button for the given duration.
func (h *harness) hold(valid bool, d time.Duration) {
	if valid {
		h.hw.validPressed = true
	} else {
		h.hw.invalidPressed = true
	}
	h.run(d, time.Millisecond)
	h.hw.validPressed = false
	h.hw.invalidPressed = false
	h.run(2*time.Millisecond, time.Millisecond)
}

func TestDevice_New_Defaults(t *testing.T) {
	d := New(Config{})
	require.NotNil(t, d)
	assert.Equal(t, ModeIdle, d.Mode())
	assert.Equal(t, ProfileCooperative, d.Profile())
	assert.Equal(t, int64(4000), d.sampleIntervalUs)
	assert.Equal(t, int64(10_000), d.testDurationMs)

	// A bare device must be steppable without panicking.
	d.Step()
}

func TestDevice_StartThenStatus(t *testing.T) {
	h := newHarness()

	h.cmds.push("START")
	h.clock.advance(time.Millisecond)
	h.dev.Step()

	assert.Equal(t, ModeStreaming, h.dev.Mode())
	assert.Equal(t, ProfileCooperative, h.dev.Profile())
	assert.Zero(t, h.dev.Samples())

	h.cmds.push("STATUS")
	h.clock.advance(time.Millisecond)
	h.dev.Step()

	assert.Contains(t, h.out.String(), "STATUS:Mode=STREAMING,Profile=COOPERATIVE,Samples=0")
}

func TestDevice_IdleEmitsNothing(t *testing.T) {
	h := newHarness()
	h.run(time.Second, time.Millisecond)
	assert.NotContains(t, h.out.String(), "DATA,")
	assert.Zero(t, h.dev.Samples())
}

func TestDevice_SampleRate(t *testing.T) {
	h := newHarness()
	h.dev.Execute("START")

	h.run(time.Second, time.Millisecond)

	assert.InDelta(t, 250, float64(h.dev.Samples()), 1, "one second of streaming at 250 Hz")
	assert.Equal(t, 250, strings.Count(h.out.String(), "DATA,"))
}

func TestDevice_NoDriftUnderLateIterations(t *testing.T) {
	h := newHarness()
	h.dev.Execute("START")

	// Mostly 1 ms iterations with a 20 ms stall every 100th: the scheduler
	// catches up by firing on consecutive iterations, so the long-run count
	// stays locked to elapsed/4ms.
	var elapsed time.Duration
	for i := 0; elapsed < 10*time.Second; i++ {
		step := time.Millisecond
		if i%100 == 99 {
			step = 20 * time.Millisecond
		}
		h.clock.advance(step)
		h.dev.Step()
		elapsed += step
	}

	expected := float64(elapsed / (4 * time.Millisecond))
	assert.InDelta(t, expected, float64(h.dev.Samples()), 2)
}

func TestDevice_DataLineFormat(t *testing.T) {
	h := newHarness()
	h.dev.Execute("START")
	h.run(10*time.Millisecond, time.Millisecond)

	require.Contains(t, h.out.String(), "DATA,4,1.000\n")
	require.Contains(t, h.out.String(), "DATA,8,1.000\n")
}

func TestDevice_ButtonTest_AutoStops(t *testing.T) {
	h := newHarness()

	h.tap(true)
	require.Equal(t, ModeAuthValid, h.dev.Mode())
	assert.Equal(t, ProfileCooperative, h.dev.Profile())
	assert.True(t, h.hw.indicator, "indicator asserted during test")
	assert.Contains(t, h.out.String(), "VALID USER TEST STARTED")

	h.run(11*time.Second, time.Millisecond)

	assert.Equal(t, ModeIdle, h.dev.Mode())
	assert.False(t, h.hw.indicator)
	assert.Equal(t, 1, strings.Count(h.out.String(), "TEST COMPLETE"),
		"exactly one completion report")
	assert.Contains(t, h.out.String(), "STATUS:Completed VALID user test")
	assert.InDelta(t, 2500, float64(h.dev.Samples()), 2,
		"10 s at 250 Hz, within one period of the cap")
}

func TestDevice_InvalidButton_AdversarialProfile(t *testing.T) {
	h := newHarness()

	h.tap(false)
	require.Equal(t, ModeAuthInvalid, h.dev.Mode())
	assert.Equal(t, ProfileAdversarial, h.dev.Profile())

	h.run(11*time.Second, time.Millisecond)
	assert.Contains(t, h.out.String(), "STATUS:Completed INVALID user test")
}

func TestDevice_ShortPressIgnoredDuringTest(t *testing.T) {
	h := newHarness()

	h.tap(true)
	require.Equal(t, ModeAuthValid, h.dev.Mode())

	h.tap(false)
	assert.Equal(t, ModeAuthValid, h.dev.Mode(), "tests cannot be preempted by another tap")
	assert.Equal(t, ProfileCooperative, h.dev.Profile())
}

func TestDevice_LongPressAborts(t *testing.T) {
	h := newHarness()
	h.dev.Execute("START")
	h.run(100*time.Millisecond, time.Millisecond)

	h.hold(true, 2500*time.Millisecond)

	assert.Equal(t, ModeIdle, h.dev.Mode())
	assert.False(t, h.hw.indicator)
	assert.Contains(t, h.out.String(), "STATUS:Long press detected - Returned to idle")
}

func TestDevice_LongPressWhileIdle_NoOp(t *testing.T) {
	h := newHarness()
	h.hold(false, 2500*time.Millisecond)

	assert.Equal(t, ModeIdle, h.dev.Mode())
	assert.NotContains(t, h.out.String(), "TEST STOPPED")
}

func TestDevice_GestureAppliedBeforeCommand(t *testing.T) {
	h := newHarness()

	// Hold the valid button, then release it in the same iteration that a
	// START command becomes available. The gesture transition lands first,
	// the command second, against the already-updated mode.
	h.hw.validPressed = true
	h.run(500*time.Millisecond, time.Millisecond)
	h.hw.validPressed = false
	h.cmds.push("START")
	h.clock.advance(time.Millisecond)
	h.dev.Step()

	assert.Equal(t, ModeStreaming, h.dev.Mode())

	out := h.out.String()
	gesture := strings.Index(out, "VALID USER TEST STARTED")
	command := strings.Index(out, "STATUS:Started streaming")
	require.GreaterOrEqual(t, gesture, 0)
	require.GreaterOrEqual(t, command, 0)
	assert.Less(t, gesture, command, "gesture output precedes command output")
}

func TestDevice_StartSupersedesTestSilently(t *testing.T) {
	h := newHarness()

	h.tap(true)
	require.Equal(t, ModeAuthValid, h.dev.Mode())

	h.cmds.push("START")
	h.clock.advance(time.Millisecond)
	h.dev.Step()
	require.Equal(t, ModeStreaming, h.dev.Mode())

	// Past where the test would have auto-stopped: no completion report for
	// the superseded run.
	h.run(12*time.Second, time.Millisecond)
	assert.Equal(t, ModeStreaming, h.dev.Mode())
	assert.NotContains(t, h.out.String(), "TEST COMPLETE")
}

func TestDevice_Heartbeat(t *testing.T) {
	h := newHarness()
	h.dev.Execute("START")

	// 250 samples in: the indicator toggles on.
	h.run(time.Second+4*time.Millisecond, time.Millisecond)
	require.GreaterOrEqual(t, h.dev.Samples(), uint64(250))
	assert.True(t, h.hw.indicator)

	// Another 250: toggles back off.
	h.run(time.Second, time.Millisecond)
	require.GreaterOrEqual(t, h.dev.Samples(), uint64(500))
	assert.False(t, h.hw.indicator)
}

func TestDevice_CountersFrozenOnIdle(t *testing.T) {
	h := newHarness()
	h.dev.Execute("START")
	h.run(time.Second, time.Millisecond)
	count := h.dev.Samples()
	require.NotZero(t, count)

	h.dev.Execute("STOP")
	assert.Equal(t, count, h.dev.Samples(), "count frozen, not reset, on stop")

	reply := h.dev.Execute("STATUS")
	assert.Contains(t, reply, "Mode=IDLE")

	h.dev.Execute("START")
	assert.Zero(t, h.dev.Samples(), "new run resets the counter")
}
