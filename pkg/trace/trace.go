// Package trace maintains the host-side view of the sample stream: a
// time-windowed FIFO of recent samples plus summary statistics, feeding the
// scope display through update callbacks.
package trace

import (
	"sync"
	"time"

	"github.com/vabhinavrao/cortexkey/pkg/config"
	"github.com/vabhinavrao/cortexkey/pkg/cortex"
)

// Stats summarizes the samples currently inside the window.
type Stats struct {
	Count int
	Min   float64
	Max   float64
	// Rate is the measured delivery rate in samples per second, derived
	// from device timestamps. Nominally 250.
	Rate float64
}

// Trace buffers the most recent window of samples.
//
// Internally a FIFO slice ordered oldest first; eviction is by device
// timestamp (time window), not by count, so the window stays a fixed span of
// run time regardless of delivery jitter. A drop in the device's elapsed
// clock marks a new run and clears the buffer.
type Trace struct {
	cfg *config.Config

	samples []cortex.Sample
	stats   Stats
	mu      sync.RWMutex

	callbacks []func(samples []cortex.Sample, stats Stats)
	cbMu      sync.RWMutex

	window time.Duration

	// Set when the input channel closes; suppresses further callbacks.
	shutdown bool
}

// New creates a Trace sized from cfg's display window.
func New(cfg *config.Config) *Trace {
	return &Trace{
		cfg:     cfg,
		samples: make([]cortex.Sample, 0),
		window:  time.Duration(cfg.Display.WindowSeconds * float64(time.Second)),
	}
}

// ProcessSamples consumes the input channel until it closes. Run it in a
// goroutine; it sets the shutdown flag on exit so late callbacks cannot fire
// into a torn-down display.
func (t *Trace) ProcessSamples(input <-chan cortex.Sample) {
	for s := range input {
		t.processSample(s)
	}
	t.mu.Lock()
	t.shutdown = true
	t.mu.Unlock()
}

func (t *Trace) processSample(s cortex.Sample) {
	t.mu.Lock()

	// Elapsed going backwards means the device started a new run.
	if n := len(t.samples); n > 0 && s.Elapsed < t.samples[n-1].Elapsed {
		t.samples = t.samples[:0]
	}

	t.samples = append(t.samples, s)

	// Evict everything older than the window, measured against the newest
	// device timestamp.
	cutoff := s.Elapsed - t.window
	idx := 0
	for idx < len(t.samples) && t.samples[idx].Elapsed < cutoff {
		idx++
	}
	if idx > 0 {
		t.samples = t.samples[idx:]
	}

	t.stats = computeStats(t.samples)

	shouldNotify := !t.shutdown
	t.mu.Unlock()

	if shouldNotify {
		t.notifyCallbacks()
	}
}

func computeStats(samples []cortex.Sample) Stats {
	st := Stats{Count: len(samples)}
	if len(samples) == 0 {
		return st
	}

	st.Min = samples[0].Value
	st.Max = samples[0].Value
	for _, s := range samples[1:] {
		if s.Value < st.Min {
			st.Min = s.Value
		}
		if s.Value > st.Max {
			st.Max = s.Value
		}
	}

	if len(samples) >= 2 {
		span := samples[len(samples)-1].Elapsed - samples[0].Elapsed
		if span > 0 {
			st.Rate = float64(len(samples)-1) / span.Seconds()
		}
	}
	return st
}

// Samples returns a copy of the buffered window, oldest first.
func (t *Trace) Samples() []cortex.Sample {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]cortex.Sample, len(t.samples))
	copy(result, t.samples)
	return result
}

// Stats returns the statistics of the current window.
func (t *Trace) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}

// Reset clears the buffered window, e.g. when reconnecting.
func (t *Trace) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = t.samples[:0]
	t.stats = Stats{}
}

// OnUpdate registers a callback invoked after each processed sample with a
// copy of the window and its stats. Callbacks must return quickly.
func (t *Trace) OnUpdate(callback func(samples []cortex.Sample, stats Stats)) {
	t.cbMu.Lock()
	defer t.cbMu.Unlock()
	t.callbacks = append(t.callbacks, callback)
}

// ResetShutdown re-arms callbacks before a new processing chain is started.
func (t *Trace) ResetShutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shutdown = false
}

// notifyCallbacks copies data under the read lock, then invokes callbacks
// without holding any lock.
func (t *Trace) notifyCallbacks() {
	t.mu.RLock()
	samplesCopy := make([]cortex.Sample, len(t.samples))
	copy(samplesCopy, t.samples)
	stats := t.stats
	t.mu.RUnlock()

	t.cbMu.RLock()
	callbacks := make([]func(samples []cortex.Sample, stats Stats), len(t.callbacks))
	copy(callbacks, t.callbacks)
	t.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(samplesCopy, stats)
		}
	}
}

// Downsample decimates samples to at most maxPoints for display.
// Destination-based: reuses dst when its capacity suffices, otherwise
// allocates. Returns the destination slice.
func Downsample(dst []cortex.Sample, samples []cortex.Sample, maxPoints int) []cortex.Sample {
	if len(samples) <= maxPoints {
		if cap(dst) >= len(samples) {
			dst = dst[:len(samples)]
			copy(dst, samples)
			return dst
		}
		result := make([]cortex.Sample, len(samples))
		copy(result, samples)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]cortex.Sample, 0, maxPoints)
	}

	step := float64(len(samples)) / float64(maxPoints)
	for i := 0; i < maxPoints; i++ {
		idx := int(float64(i) * step)
		if idx < len(samples) {
			dst = append(dst, samples[idx])
		}
	}
	return dst
}
