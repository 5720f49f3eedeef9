package keystate

import "time"

// SmoothingFactor is the share of the remaining distance covered per tick.
const SmoothingFactor = 0.1

// IdleParams describes how the window dims after the last key press.
type IdleParams struct {
	IdleTimeout  time.Duration
	FadeDuration time.Duration
	MinAlpha     float64
	MaxAlpha     float64
}

// IdleOpacity returns the target window alpha. Within the idle timeout the
// window stays at MaxAlpha; afterwards it falls linearly to MinAlpha over
// FadeDuration and stays there.
func IdleOpacity(now, lastActivity time.Time, p IdleParams) float64 {
	elapsed := now.Sub(lastActivity)
	if elapsed <= p.IdleTimeout {
		return p.MaxAlpha
	}

	fraction := 1.0
	if p.FadeDuration > 0 {
		fraction = clamp((elapsed-p.IdleTimeout).Seconds()/p.FadeDuration.Seconds(), 0, 1)
	}

	return max(p.MinAlpha, p.MaxAlpha-fraction*(p.MaxAlpha-p.MinAlpha))
}

// Opacity converges the current alpha toward a target with exponential smoothing.
type Opacity struct {
	Current float64
	Target  float64
}

func NewOpacity(initial float64) *Opacity {
	return &Opacity{Current: initial, Target: initial}
}

// Step moves Current one tick toward target and returns the new value.
func (o *Opacity) Step(target float64) float64 {
	o.Target = target
	o.Current += (o.Target - o.Current) * SmoothingFactor

	return o.Current
}

// Cap lowers both values to at most ceiling, used when the max alpha setting shrinks.
func (o *Opacity) Cap(ceiling float64) {
	o.Current = min(o.Current, ceiling)
	o.Target = min(o.Target, ceiling)
}
