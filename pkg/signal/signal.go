// Package signal synthesizes single-channel EEG-like waveforms for the two
// acquisition profiles. The generators are pure functions of elapsed time and
// a supplied random stream, so tests can inject a seeded source and get
// reproducible output. Frequencies are divided by 5 compared to real rhythms
// so the shapes stay visible on a live plot.
package signal

import (
	"math/rand"
	"time"

	"github.com/chewxy/math32"
)

const twoPi = 2 * math32.Pi

// Generator produces waveform samples. All math is float32: the same code
// runs on the MCU, where float64 soft-float is prohibitively slow.
type Generator struct {
	rng *rand.Rand
}

// New creates a Generator backed by the given random stream.
// A nil rng falls back to a time-seeded source.
func New(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// Cooperative returns one sample of a clean, rhythmic trace at elapsed time t
// (seconds): strong alpha, moderate beta, low noise, slow breathing
// modulation, and an eye-blink artifact every 5 seconds.
func (g *Generator) Cooperative(t float32) float32 {
	alpha := 25 * math32.Sin(twoPi*2*t)
	beta := 12 * math32.Sin(twoPi*4*t)
	theta := 6 * math32.Sin(twoPi*1.2*t)
	delta := 4 * math32.Sin(twoPi*0.5*t)

	noise := 3 * g.uniform()

	// Breathing artifact, ~0.06 Hz.
	modulation := 1 + 0.15*math32.Sin(twoPi*0.06*t)

	// Eye blink: every 5 seconds, 300 ms wide Gaussian bump.
	var blink float32
	if math32.Mod(t*1000, 5000) < 300 {
		blinkT := math32.Mod(t*1000, 5000) / 300
		blink = 50 * math32.Exp(-math32.Pow(blinkT-0.2, 2)/0.02)
	}

	return (alpha+beta+theta+delta)*modulation + noise + blink
}

// Adversarial returns one sample of a noisy, incoherent trace at elapsed time
// t (seconds): weak phase-jittered alpha, elevated beta, heavy noise, and
// occasional muscle artifacts and movement spikes.
func (g *Generator) Adversarial(t float32) float32 {
	alpha := 8 * math32.Sin(twoPi*1.5*t+g.rng.Float32()*2)
	beta := 15 * math32.Sin(twoPi*4.4*t+g.rng.Float32()*2)
	theta := 4 * math32.Sin(twoPi*1.1*t)

	noise := 12 * g.uniform()
	whiteNoise := 8 * g.uniform()

	// Muscle artifact, 5% chance per sample.
	var muscle float32
	if g.rng.Intn(1000) < 50 {
		muscle = 30 * math32.Sin(twoPi*9*t)
	}

	// Movement spike, 1% chance per sample.
	var spike float32
	if g.rng.Intn(1000) < 10 {
		spike = 40 * g.uniform()
	}

	return alpha + beta + theta + noise + whiteNoise + muscle + spike
}

// uniform returns a value in [-1, 1).
func (g *Generator) uniform() float32 {
	return g.rng.Float32()*2 - 1
}
