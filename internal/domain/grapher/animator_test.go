package grapher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAnimator_ReachesTarget(t *testing.T) {
	start := time.Unix(0, 0)
	a := NewAnimator(0, 400*time.Millisecond)

	a.Start(10, start)
	assert.True(t, a.Running())

	v := a.Step(start.Add(100 * time.Millisecond))
	assert.Greater(t, v, 0.0)
	assert.Less(t, v, 5.0, "ease-in starts slowly")

	assert.Equal(t, 10.0, a.Step(start.Add(400*time.Millisecond)))
	assert.False(t, a.Running())
}

func TestAnimator_SameTargetIsIdle(t *testing.T) {
	a := NewAnimator(3, DefaultAnimationDuration)
	a.Start(3, time.Unix(0, 0))
	assert.False(t, a.Running())
}

func TestAnimator_RestartFromCurrent(t *testing.T) {
	start := time.Unix(0, 0)
	a := NewAnimator(0, DefaultAnimationDuration)
	a.Start(1, start)
	mid := a.Step(start.Add(DefaultAnimationDuration / 2))

	// Last write wins; the new animation begins where the old one is.
	a.Start(-1, start.Add(DefaultAnimationDuration/2))
	assert.Equal(t, mid, a.Value())
	assert.Equal(t, -1.0, a.Step(start.Add(time.Hour)))
}

func TestAnimator_ZeroDurationSnaps(t *testing.T) {
	a := NewAnimator(0, 0)
	a.Start(2, time.Unix(0, 0))
	assert.False(t, a.Running())
	assert.Equal(t, 2.0, a.Value())
}
