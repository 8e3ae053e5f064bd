package utils

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// sampleGamma returns a sample from the Gamma(shape, scale) distribution using
// the Marsaglia-Tsang squeeze method. shape must be >= 1.
func sampleGamma(shape, scale float64) float64 {
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		x := rand.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		x2 := x * x
		u := rand.Float64()
		// Fast accept path
		if u < 1.0-0.0331*(x2*x2) {
			return d * v * scale
		}
		// Slow accept path
		if math.Log(u) < 0.5*x2+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// Jitter spreads milliseconds with a Gamma(4, 0.25) multiplier (mean 1.0)
// clamped to [0.4, 2.5], so consecutive clicks never share the same delay.
func Jitter(milliseconds int) time.Duration {
	if milliseconds <= 0 {
		return 0
	}
	const shape = 4.0
	const scale = 0.25
	multiplier := min(max(sampleGamma(shape, scale), 0.4), 2.5)
	return time.Duration(float64(milliseconds)*multiplier) * time.Millisecond
}

// Sleep pauses for a jittered duration around milliseconds. It returns early
// with the context error when ctx is done.
func Sleep(ctx context.Context, milliseconds int) error {
	d := Jitter(milliseconds)
	if d == 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
