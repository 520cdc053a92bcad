// Package device implements the acquisition core of the CortexKey firmware:
// a cooperative, single-threaded control loop that polls two button gesture
// recognizers, a non-blocking command source, and a drift-free 250 Hz sample
// scheduler, in that fixed order. The core has no hardware imports; the
// physical lines, the clock, and the signal source are all injected, so the
// whole loop can be exercised with stepped simulated time.
package device

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Default timing parameters, matching the deployed hardware.
const (
	// DefaultSampleInterval is one period of the 250 Hz acquisition rate.
	DefaultSampleInterval = 4 * time.Millisecond
	// DefaultDebounce is the minimum time since release before a new press
	// is accepted.
	DefaultDebounce = 50 * time.Millisecond
	// DefaultLongPress is the hold duration that reclassifies a press as a
	// long gesture.
	DefaultLongPress = 2 * time.Second
	// DefaultTestDuration is the wall-clock cap on button-triggered tests.
	DefaultTestDuration = 10 * time.Second

	// heartbeatSamples is how often the activity indicator toggles while
	// sampling: every 250 samples, roughly once per second.
	heartbeatSamples = 250
)

// Hardware abstracts the physical lines the control loop touches. Button
// levels are raw: idle high (pull-up), low while pressed.
type Hardware interface {
	ButtonValid() bool
	ButtonInvalid() bool
	SetIndicator(on bool)
}

// LineSource delivers complete command lines without blocking.
type LineSource interface {
	// ReadLine returns the next complete line and true, or "", false when
	// no full line is pending.
	ReadLine() (string, bool)
}

// SourceFunc returns one signal sample for the given profile at the given
// elapsed run time in seconds.
type SourceFunc func(p Profile, elapsed float32) float32

// Config assembles a Device. Zero-value fields get safe defaults.
type Config struct {
	Clock    Clock
	Hardware Hardware
	Commands LineSource
	Source   SourceFunc
	Output   io.Writer

	SampleInterval time.Duration
	Debounce       time.Duration
	LongPress      time.Duration
	TestDuration   time.Duration
}

// Device holds all mutable state of the control loop. It is not safe for
// concurrent use: Step, Execute and the accessors must be called from a
// single goroutine.
type Device struct {
	clock  Clock
	hw     Hardware
	cmds   LineSource
	source SourceFunc
	out    io.Writer

	sampleIntervalUs int64
	testDurationMs   int64

	mode    Mode
	profile Profile

	// Run counters: reset when a non-idle mode is entered, frozen on return
	// to idle.
	sampleCount uint64
	startMs     int64
	nextFireUs  int64

	btnValid   *Button
	btnInvalid *Button
	indicator  bool
}

// New creates a Device from cfg, applying defaults for any unset field.
func New(cfg Config) *Device {
	if cfg.Clock == nil {
		cfg.Clock = NewClock()
	}
	if cfg.Hardware == nil {
		cfg.Hardware = nopHardware{}
	}
	if cfg.Commands == nil {
		cfg.Commands = nopLineSource{}
	}
	if cfg.Source == nil {
		cfg.Source = func(Profile, float32) float32 { return 0 }
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = DefaultSampleInterval
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.LongPress <= 0 {
		cfg.LongPress = DefaultLongPress
	}
	if cfg.TestDuration <= 0 {
		cfg.TestDuration = DefaultTestDuration
	}

	return &Device{
		clock:            cfg.Clock,
		hw:               cfg.Hardware,
		cmds:             cfg.Commands,
		source:           cfg.Source,
		out:              cfg.Output,
		sampleIntervalUs: cfg.SampleInterval.Microseconds(),
		testDurationMs:   cfg.TestDuration.Milliseconds(),
		btnValid:         newButton(cfg.Debounce, cfg.LongPress),
		btnInvalid:       newButton(cfg.Debounce, cfg.LongPress),
	}
}

// Mode returns the current operating mode.
func (d *Device) Mode() Mode { return d.mode }

// Profile returns the active signal profile.
func (d *Device) Profile() Profile { return d.profile }

// Samples returns the sample count of the current (or last) run.
func (d *Device) Samples() uint64 { return d.sampleCount }

// Step runs one control-loop iteration. The evaluation order is a fixed
// policy: button gestures first, then at most one pending command, then the
// sample scheduler. Gesture and command transitions therefore compose within
// a single iteration, the command seeing the mode already updated by the
// gesture.
func (d *Device) Step() {
	nowMs := d.clock.Micros() / 1000

	d.btnValid.Poll(d.hw.ButtonValid(), nowMs)
	d.btnInvalid.Poll(d.hw.ButtonInvalid(), nowMs)

	if d.btnValid.ShortPress() {
		d.beginTest(ModeAuthValid)
	}
	if d.btnInvalid.ShortPress() {
		d.beginTest(ModeAuthInvalid)
	}
	if d.btnValid.LongPress() || d.btnInvalid.LongPress() {
		d.abortRun()
	}

	if line, ok := d.cmds.ReadLine(); ok {
		d.Execute(line)
	}

	d.tick()
}

// Run steps the control loop until ctx is cancelled. The short sleep keeps
// the loop cooperative without compromising the 4 ms sample cadence.
func (d *Device) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.Step()
		time.Sleep(100 * time.Microsecond)
	}
}

// beginTest enters a button-triggered test mode. Only reachable from idle or
// streaming; a short press during a running test is ignored.
func (d *Device) beginTest(m Mode) {
	if d.mode != ModeIdle && d.mode != ModeStreaming {
		return
	}
	d.mode = m
	if m == ModeAuthValid {
		d.profile = ProfileCooperative
	} else {
		d.profile = ProfileAdversarial
	}
	d.resetRun()
	d.setIndicator(true)

	fmt.Fprintf(d.out, "\n========== %s USER TEST STARTED ==========\n", m.testName())
	fmt.Fprintf(d.out, "STATUS:Button pressed - Starting %s user test\n", m.testName())
}

// abortRun returns to idle on a long press. A long press while already idle
// is a no-op.
func (d *Device) abortRun() {
	if d.mode == ModeIdle {
		return
	}
	d.mode = ModeIdle
	d.setIndicator(false)

	fmt.Fprint(d.out, "\n========== TEST STOPPED ==========\n")
	fmt.Fprint(d.out, "STATUS:Long press detected - Returned to idle\n")
}

// resetRun starts a new run: zero sample count, new elapsed-time origin, and
// a fresh scheduler deadline one period out.
func (d *Device) resetRun() {
	d.sampleCount = 0
	d.startMs = d.clock.Micros() / 1000
	d.nextFireUs = d.clock.Micros() + d.sampleIntervalUs
}

// tick is the sample scheduler: at most one sample per call, fired when the
// next-fire deadline has passed. The deadline advances by exactly one period
// from its previous value, not from "now", so a late loop iteration shifts
// timing without accumulating rate error.
func (d *Device) tick() {
	if !d.mode.active() {
		return
	}
	nowUs := d.clock.Micros()
	if nowUs < d.nextFireUs {
		return
	}
	d.nextFireUs += d.sampleIntervalUs

	nowMs := nowUs / 1000
	elapsedMs := nowMs - d.startMs
	value := d.source(d.profile, float32(elapsedMs)/1000)

	fmt.Fprintf(d.out, "DATA,%d,%.3f\n", elapsedMs, value)
	d.sampleCount++

	if d.sampleCount%heartbeatSamples == 0 {
		d.setIndicator(!d.indicator)
	}

	// Button-triggered tests stop themselves after the wall-clock cap.
	if d.mode.test() && elapsedMs > d.testDurationMs {
		fmt.Fprintf(d.out, "\n========== TEST COMPLETE (%ds) ==========\n", d.testDurationMs/1000)
		fmt.Fprintf(d.out, "STATUS:Completed %s user test - %d samples collected\n",
			d.mode.testName(), d.sampleCount)
		d.mode = ModeIdle
		d.setIndicator(false)
	}
}

func (d *Device) setIndicator(on bool) {
	d.indicator = on
	d.hw.SetIndicator(on)
}

// nopHardware keeps a Device usable without physical lines: buttons read as
// idle high, the indicator goes nowhere.
type nopHardware struct{}

func (nopHardware) ButtonValid() bool   { return true }
func (nopHardware) ButtonInvalid() bool { return true }
func (nopHardware) SetIndicator(bool)   {}

type nopLineSource struct{}

func (nopLineSource) ReadLine() (string, bool) { return "", false }
