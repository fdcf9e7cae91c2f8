// pkg/physics/world.go
package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
)

// DefaultMaxSubSteps bounds how many fixed steps a single Step call may run.
const DefaultMaxSubSteps = 10

// maxDispatchRounds bounds re-entrant contact dispatch within one sub-step.
const maxDispatchRounds = 8

var (
	// ErrBodyInWorld is returned when adding a body that already belongs to a world.
	ErrBodyInWorld = errors.New("body already in a world")
	// ErrBodyNotInWorld is returned when a spring references a body outside this world.
	ErrBodyNotInWorld = errors.New("body not in this world")
)

// ContactKind distinguishes contact-begin from contact-end notifications.
type ContactKind int

const (
	ContactBegin ContactKind = iota
	ContactEnd
)

func (k ContactKind) String() string {
	if k == ContactBegin {
		return "begin"
	}
	return "end"
}

// Contact is delivered to the handlers registered for Self.
type Contact struct {
	Kind  ContactKind
	Self  *Body
	Other *Body
	// Point is the world-space point on Other's surface where the shapes
	// touch. Only set for begin notifications with HasPoint true.
	Point    Vector2D
	HasPoint bool
	// Velocity is the velocity of Self when the contact began, before the
	// collision response of that step was applied.
	Velocity Vector2D
	// Sensor is set when either shape of the pair is a sensor.
	Sensor bool
}

// ContactHandler reacts to a contact notification. Handlers run after the
// physics step that produced the contact, so they may add or remove bodies
// and springs freely.
type ContactHandler func(c Contact)

// SubStepFunc runs once before every fixed simulation step.
type SubStepFunc func(dt float64)

// FaultHandler is told about a panic raised by a handler or hook. owner is
// the owner registered with the hook, or the Owner of the handled body.
type FaultHandler func(owner any, recovered any)

// HookID identifies a registered sub-step hook.
type HookID uint64

type queuedContact struct {
	kind       ContactKind
	a, b       *Body
	pointA     Vector2D
	pointB     Vector2D
	velA, velB Vector2D
	hasPoint   bool
	sensor     bool
}

type subStepHook struct {
	id    HookID
	owner any
	fn    SubStepFunc
}

type bodyHandlers struct {
	begin []ContactHandler
	end   []ContactHandler
}

// WorldOptions configures a World.
type WorldOptions struct {
	MaxSubSteps int
	Gravity     Vector2D
	Iterations  uint
}

// World owns every body and spring of the simulation and advances them with
// a fixed time step.
type World struct {
	space       *cp.Space
	maxSubSteps int

	bodies   []*Body
	springs  map[*Spring]struct{}
	handlers map[*Body]*bodyHandlers
	hooks    []subStepHook
	nextHook HookID
	onFault  FaultHandler

	accumulator float64
	pending     []queuedContact
	stepping    bool
}

// NewWorld creates an empty world.
func NewWorld(opts WorldOptions) *World {
	if opts.MaxSubSteps <= 0 {
		opts.MaxSubSteps = DefaultMaxSubSteps
	}

	w := &World{
		space:       cp.NewSpace(),
		maxSubSteps: opts.MaxSubSteps,
		springs:     make(map[*Spring]struct{}),
		handlers:    make(map[*Body]*bodyHandlers),
	}
	w.space.SetGravity(toCP(opts.Gravity))
	if opts.Iterations > 0 {
		w.space.Iterations = opts.Iterations
	}

	handler := w.space.NewCollisionHandler(0, 0)
	handler.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
		w.queue(ContactBegin, arb)
		return true
	}
	handler.SeparateFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) {
		w.queue(ContactEnd, arb)
	}
	return w
}

// SetFaultHandler installs the callback used when a hook or contact handler panics.
func (w *World) SetFaultHandler(fn FaultHandler) {
	w.onFault = fn
}

// AddBody inserts a body and its shapes into the simulation.
func (w *World) AddBody(b *Body) error {
	if b.world != nil {
		return ErrBodyInWorld
	}
	w.space.AddBody(b.cpBody)
	for _, shape := range b.shapes {
		w.space.AddShape(shape)
	}
	b.world = w
	b.snapshotPose()
	b.interpPos, b.interpAngle = b.prevPosition, b.prevAngle
	w.bodies = append(w.bodies, b)
	return nil
}

// RemoveBody takes a body, its shapes, its contact handlers and every spring
// attached to it out of the simulation. Removing a body that is not in this
// world is a no-op; the return value reports whether anything was removed.
func (w *World) RemoveBody(b *Body) bool {
	if b == nil || b.world != w {
		return false
	}
	for s := range w.springs {
		if s.a == b || s.b == b {
			w.RemoveSpring(s)
		}
	}
	// Mark removed first so separate notifications raised while the shapes
	// leave the space are not routed back to this body.
	b.world = nil
	delete(w.handlers, b)
	for _, shape := range b.shapes {
		if w.space.ContainsShape(shape) {
			w.space.RemoveShape(shape)
		}
	}
	w.space.RemoveBody(b.cpBody)

	for i, other := range w.bodies {
		if other == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether b is part of this world.
func (w *World) Contains(b *Body) bool {
	return b != nil && b.world == w
}

// Bodies returns a copy of the bodies currently in the world.
func (w *World) Bodies() []*Body {
	out := make([]*Body, len(w.bodies))
	copy(out, w.bodies)
	return out
}

// BodyCount returns the number of bodies in the world.
func (w *World) BodyCount() int {
	return len(w.bodies)
}

// AddSpring activates a spring. Both of its bodies must be in this world.
func (w *World) AddSpring(s *Spring) error {
	if s.world != nil {
		return fmt.Errorf("spring already active")
	}
	if s.a.world != w || s.b.world != w {
		return ErrBodyNotInWorld
	}
	w.space.AddConstraint(s.constraint)
	s.world = w
	w.springs[s] = struct{}{}
	return nil
}

// RemoveSpring deactivates a spring. Removing an inactive spring is a no-op.
func (w *World) RemoveSpring(s *Spring) {
	if s == nil || s.world != w {
		return
	}
	if w.space.ContainsConstraint(s.constraint) {
		w.space.RemoveConstraint(s.constraint)
	}
	s.world = nil
	delete(w.springs, s)
}

// SpringCount returns the number of active springs.
func (w *World) SpringCount() int {
	return len(w.springs)
}

// OnContactBegin registers a handler for new contacts involving b.
func (w *World) OnContactBegin(b *Body, h ContactHandler) {
	w.handlersFor(b).begin = append(w.handlersFor(b).begin, h)
}

// OnContactEnd registers a handler for contacts involving b that ended.
func (w *World) OnContactEnd(b *Body, h ContactHandler) {
	w.handlersFor(b).end = append(w.handlersFor(b).end, h)
}

func (w *World) handlersFor(b *Body) *bodyHandlers {
	hs, ok := w.handlers[b]
	if !ok {
		hs = &bodyHandlers{}
		w.handlers[b] = hs
	}
	return hs
}

// OnSubStep registers fn to run before each fixed step. owner is reported
// to the fault handler if fn panics.
func (w *World) OnSubStep(owner any, fn SubStepFunc) HookID {
	w.nextHook++
	w.hooks = append(w.hooks, subStepHook{id: w.nextHook, owner: owner, fn: fn})
	return w.nextHook
}

// RemoveSubStep unregisters a hook. Unknown ids are ignored.
func (w *World) RemoveSubStep(id HookID) {
	for i, h := range w.hooks {
		if h.id == id {
			w.hooks = append(w.hooks[:i], w.hooks[i+1:]...)
			return
		}
	}
}

// Step advances the simulation to cover elapsed seconds using steps of
// fixedDt, running at most MaxSubSteps steps. Time left over is carried to
// the next call and used to interpolate render poses. It returns the number
// of steps taken. Calls from within a hook or handler are ignored.
func (w *World) Step(fixedDt, elapsed float64) int {
	if w.stepping || !(fixedDt > 0) {
		return 0
	}
	if !(elapsed > 0) || math.IsInf(elapsed, 0) {
		elapsed = 0
	}

	w.stepping = true
	defer func() { w.stepping = false }()

	w.accumulator += elapsed
	steps := 0
	for w.accumulator >= fixedDt && steps < w.maxSubSteps {
		for _, b := range w.bodies {
			b.snapshotPose()
		}
		w.runHooks(fixedDt)
		w.space.Step(fixedDt)
		w.dispatch()
		w.accumulator -= fixedDt
		steps++
	}
	if w.accumulator >= fixedDt {
		w.accumulator = math.Mod(w.accumulator, fixedDt)
	}

	alpha := w.accumulator / fixedDt
	for _, b := range w.bodies {
		b.interpolate(alpha)
	}
	return steps
}

func (w *World) runHooks(dt float64) {
	hooks := make([]subStepHook, len(w.hooks))
	copy(hooks, w.hooks)
	for _, h := range hooks {
		w.guard(h.owner, func() { h.fn(dt) })
	}
}

func (w *World) queue(kind ContactKind, arb *cp.Arbiter) {
	cpA, cpB := arb.Bodies()
	a, okA := cpA.UserData.(*Body)
	b, okB := cpB.UserData.(*Body)
	if !okA || !okB {
		return
	}
	shapeA, shapeB := arb.Shapes()
	qc := queuedContact{
		kind:   kind,
		a:      a,
		b:      b,
		velA:   a.Velocity(),
		velB:   b.Velocity(),
		sensor: shapeA.Sensor() || shapeB.Sensor(),
	}
	if kind == ContactBegin {
		if set := arb.ContactPointSet(); set.Count > 0 {
			qc.pointA = fromCP(set.Points[0].PointA)
			qc.pointB = fromCP(set.Points[0].PointB)
			qc.hasPoint = true
		}
	}
	w.pending = append(w.pending, qc)
}

// dispatch routes queued contacts to the handlers of each participant.
// Contacts raised while handlers run (for example by removing a body) are
// delivered in a further round.
func (w *World) dispatch() {
	for round := 0; round < maxDispatchRounds && len(w.pending) > 0; round++ {
		batch := w.pending
		w.pending = nil
		for _, qc := range batch {
			w.deliver(qc, qc.a, qc.b, qc.pointB, qc.velA)
			w.deliver(qc, qc.b, qc.a, qc.pointA, qc.velB)
		}
	}
	w.pending = nil
}

func (w *World) deliver(qc queuedContact, self, other *Body, point, velocity Vector2D) {
	if self.world != w {
		return
	}
	hs, ok := w.handlers[self]
	if !ok {
		return
	}
	list := hs.begin
	if qc.kind == ContactEnd {
		list = hs.end
	}
	c := Contact{
		Kind:     qc.kind,
		Self:     self,
		Other:    other,
		Point:    point,
		HasPoint: qc.hasPoint,
		Velocity: velocity,
		Sensor:   qc.sensor,
	}
	for _, h := range append([]ContactHandler(nil), list...) {
		if self.world != w {
			return
		}
		w.guard(self.owner, func() { h(c) })
	}
}

func (w *World) guard(owner any, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if w.onFault == nil {
				panic(r)
			}
			w.onFault(owner, r)
		}
	}()
	fn()
}
