// pkg/physics/world_test.go
package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixedDt = 1.0 / 60

func newCircleBody(t *testing.T, pos, vel Vector2D, radius float64, sensor bool) *Body {
	t.Helper()
	b, err := NewBody(BodyOptions{
		Mass:     1,
		Position: pos,
		Velocity: vel,
		Shapes:   []Shape{Circle{Radius: radius, Sensor: sensor}},
	})
	require.NoError(t, err)
	return b
}

func TestWorld_AddRemoveBody(t *testing.T) {
	w := NewWorld(WorldOptions{})
	b := newCircleBody(t, Vector2D{}, Vector2D{}, 5, false)

	require.NoError(t, w.AddBody(b))
	assert.True(t, w.Contains(b))
	assert.True(t, b.InWorld())
	assert.Equal(t, 1, w.BodyCount())
	assert.ErrorIs(t, w.AddBody(b), ErrBodyInWorld)

	assert.True(t, w.RemoveBody(b))
	assert.False(t, w.Contains(b))
	assert.False(t, w.RemoveBody(b), "second removal must be a no-op")
	assert.Equal(t, 0, w.BodyCount())
	assert.Empty(t, w.Bodies())
}

func TestWorld_StepIntegratesVelocity(t *testing.T) {
	w := NewWorld(WorldOptions{})
	b := newCircleBody(t, Vector2D{X: 50, Y: 50}, Vector2D{X: 5, Y: 5}, 5, false)
	require.NoError(t, w.AddBody(b))

	total := 0
	for i := 0; i < 60; i++ {
		total += w.Step(fixedDt, fixedDt)
	}
	assert.Equal(t, 60, total)
	assert.InDelta(t, 55, b.Position().X, 1e-6)
	assert.InDelta(t, 55, b.Position().Y, 1e-6)
}

func TestWorld_StepEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		elapsed float64
		steps   int
	}{
		{"zero_elapsed", 0, 0},
		{"negative_elapsed", -1, 0},
		{"nan_elapsed", math.NaN(), 0},
		{"infinite_elapsed", math.Inf(1), 0},
		{"less_than_one_step", fixedDt / 2, 0},
		{"capped_at_max_substeps", 10, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorld(WorldOptions{MaxSubSteps: 4})
			b := newCircleBody(t, Vector2D{}, Vector2D{X: 1}, 1, false)
			require.NoError(t, w.AddBody(b))
			assert.Equal(t, tt.steps, w.Step(fixedDt, tt.elapsed))
			assert.True(t, b.Position().IsFinite())
		})
	}
}

func TestWorld_Interpolation(t *testing.T) {
	w := NewWorld(WorldOptions{})
	b := newCircleBody(t, Vector2D{}, Vector2D{X: 60}, 1, false)
	require.NoError(t, w.AddBody(b))

	// One and a half steps: the interpolated pose sits half way between
	// the previous and the current step.
	steps := w.Step(fixedDt, 1.5*fixedDt)
	require.Equal(t, 1, steps)
	assert.InDelta(t, 1.0, b.Position().X, 1e-9)
	assert.InDelta(t, 0.5, b.InterpolatedPosition().X, 1e-9)
}

func TestWorld_ContactBeginAndEnd(t *testing.T) {
	w := NewWorld(WorldOptions{})
	a := newCircleBody(t, Vector2D{X: 0}, Vector2D{X: 60}, 10, false)
	b := newCircleBody(t, Vector2D{X: 25}, Vector2D{}, 10, true)
	require.NoError(t, w.AddBody(a))
	require.NoError(t, w.AddBody(b))

	var begins, ends []Contact
	w.OnContactBegin(a, func(c Contact) { begins = append(begins, c) })
	w.OnContactEnd(a, func(c Contact) { ends = append(ends, c) })

	for i := 0; i < 10 && len(begins) == 0; i++ {
		w.Step(fixedDt, fixedDt)
	}
	require.Len(t, begins, 1)
	assert.Same(t, a, begins[0].Self)
	assert.Same(t, b, begins[0].Other)
	assert.Equal(t, ContactBegin, begins[0].Kind)
	assert.True(t, begins[0].Sensor)
	assert.InDelta(t, 60, begins[0].Velocity.X, 1e-9)

	w.RemoveBody(b)
	w.Step(fixedDt, fixedDt)
	require.Len(t, ends, 1)
	assert.Same(t, b, ends[0].Other)
}

func TestWorld_HandlerMayRemoveBodies(t *testing.T) {
	w := NewWorld(WorldOptions{})
	a := newCircleBody(t, Vector2D{X: 0}, Vector2D{}, 10, false)
	b := newCircleBody(t, Vector2D{X: 5}, Vector2D{}, 10, false)
	require.NoError(t, w.AddBody(a))
	require.NoError(t, w.AddBody(b))

	calls := 0
	removeBoth := func(c Contact) {
		calls++
		w.RemoveBody(c.Self)
		w.RemoveBody(c.Other)
	}
	w.OnContactBegin(a, removeBoth)
	w.OnContactBegin(b, removeBoth)

	assert.NotPanics(t, func() { w.Step(fixedDt, fixedDt) })
	assert.Equal(t, 0, w.BodyCount())
	// Whichever handler runs first removes both bodies, so the other
	// body's handler never runs.
	assert.Equal(t, 1, calls)
}

func TestWorld_SubStepHooks(t *testing.T) {
	w := NewWorld(WorldOptions{})
	b := newCircleBody(t, Vector2D{}, Vector2D{}, 1, false)
	require.NoError(t, w.AddBody(b))

	var seen []float64
	id := w.OnSubStep(b, func(dt float64) {
		seen = append(seen, dt)
		b.ApplyLocalForce(Vector2D{X: 60}, Vector2D{})
	})

	w.Step(fixedDt, 3*fixedDt)
	assert.Len(t, seen, 3)
	assert.Greater(t, b.Velocity().X, 0.0)

	w.RemoveSubStep(id)
	w.RemoveSubStep(id)
	w.Step(fixedDt, fixedDt)
	assert.Len(t, seen, 3)
}

func TestWorld_FaultHandlerIsolatesPanics(t *testing.T) {
	w := NewWorld(WorldOptions{})
	var faults []any
	w.SetFaultHandler(func(owner any, recovered any) {
		faults = append(faults, owner)
	})

	ran := false
	w.OnSubStep("bad", func(float64) { panic("boom") })
	w.OnSubStep("good", func(float64) { ran = true })

	assert.NotPanics(t, func() { w.Step(fixedDt, fixedDt) })
	assert.True(t, ran)
	assert.Equal(t, []any{"bad"}, faults)
}

func TestWorld_Springs(t *testing.T) {
	w := NewWorld(WorldOptions{})
	a := newCircleBody(t, Vector2D{X: 0}, Vector2D{}, 1, true)
	b := newCircleBody(t, Vector2D{X: 100}, Vector2D{}, 1, true)

	s, err := NewSpring(SpringOptions{A: a, B: b, RestLength: 10, Stiffness: 20, Damping: 5})
	require.NoError(t, err)
	assert.ErrorIs(t, w.AddSpring(s), ErrBodyNotInWorld)

	require.NoError(t, w.AddBody(a))
	require.NoError(t, w.AddBody(b))
	require.NoError(t, w.AddSpring(s))
	assert.True(t, s.Active())
	assert.Equal(t, 1, w.SpringCount())

	for i := 0; i < 30; i++ {
		w.Step(fixedDt, fixedDt)
	}
	pa, pb := s.Endpoints()
	assert.Less(t, pa.Distance(pb), 100.0, "spring should pull the bodies together")

	w.RemoveBody(a)
	assert.False(t, s.Active(), "removing a body releases its springs")
	assert.Equal(t, 0, w.SpringCount())
}

func TestNewSpring_Validation(t *testing.T) {
	a := newCircleBody(t, Vector2D{}, Vector2D{}, 1, false)
	_, err := NewSpring(SpringOptions{A: a, B: a})
	assert.Error(t, err)
	_, err = NewSpring(SpringOptions{A: a})
	assert.Error(t, err)
}
