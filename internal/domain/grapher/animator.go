package grapher

import "time"

// DefaultAnimationDuration is how long the indicator takes to settle on a
// new value.
const DefaultAnimationDuration = 400 * time.Millisecond

// Animator interpolates a displayed value towards a target over a fixed
// duration. It is driven by the caller's clock through Step and never starts
// goroutines. Starting a new animation replaces the running one.
type Animator struct {
	duration time.Duration
	from     float64
	to       float64
	started  time.Time
	current  float64
	running  bool
}

// NewAnimator returns an idle animator displaying value.
func NewAnimator(value float64, duration time.Duration) *Animator {
	return &Animator{duration: duration, current: value, from: value, to: value}
}

// Start animates from the value on screen to target. A running animation is
// dropped; the new one begins where the old one currently is.
func (a *Animator) Start(target float64, now time.Time) {
	a.Step(now)
	if a.current == target {
		a.running = false
		a.to = target
		return
	}
	a.from = a.current
	a.to = target
	a.started = now
	a.running = a.duration > 0
	if !a.running {
		a.current = target
	}
}

// Step advances the animation to now and returns the value to display.
func (a *Animator) Step(now time.Time) float64 {
	if !a.running {
		return a.current
	}

	elapsed := now.Sub(a.started)
	if elapsed >= a.duration {
		a.current = a.to
		a.running = false
		return a.current
	}
	if elapsed < 0 {
		elapsed = 0
	}

	t := easeInOut(float64(elapsed) / float64(a.duration))
	a.current = a.from + (a.to-a.from)*t
	return a.current
}

// Value returns the value last computed by Step.
func (a *Animator) Value() float64 { return a.current }

// Running reports whether an animation is in progress.
func (a *Animator) Running() bool { return a.running }

// easeInOut is a cubic ease: slow start, fast middle, slow finish.
func easeInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}
