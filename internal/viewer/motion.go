package viewer

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// RotationAxis tracks the angle and angular velocity of one axis. The
// velocity eases back to zero on a critically damped spring.
type RotationAxis struct {
	Position float64
	Velocity float64

	spring harmonica.Spring
	accel  float64 // the spring's own velocity while it pulls Velocity to 0
}

// NewRotationAxis creates a resting axis stepped fps times per second.
func NewRotationAxis(fps int) RotationAxis {
	// Frequency 4 settles in about a second without overshoot.
	return RotationAxis{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

// Update advances the angle by one step and decays the velocity.
func (a *RotationAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, 0)
}

// RotationState holds pitch, yaw and roll, the object's rotation about X, Y
// and Z.
type RotationState struct {
	Pitch, Yaw, Roll RotationAxis
	fps              int
}

func NewRotationState(fps int) *RotationState {
	r := &RotationState{fps: fps}
	r.Reset()
	return r
}

func (r *RotationState) Update() {
	r.Pitch.Update()
	r.Yaw.Update()
	r.Roll.Update()
}

// ApplyImpulse adds angular velocity in radians per step.
func (r *RotationState) ApplyImpulse(pitch, yaw, roll float64) {
	r.Pitch.Velocity += pitch
	r.Yaw.Velocity += yaw
	r.Roll.Velocity += roll
}

// Reset stops all motion and returns to zero angles.
func (r *RotationState) Reset() {
	r.Pitch = NewRotationAxis(r.fps)
	r.Yaw = NewRotationAxis(r.fps)
	r.Roll = NewRotationAxis(r.fps)
}

// Moving reports whether any axis still turns noticeably.
func (r *RotationState) Moving() bool {
	const still = 1e-5
	return math.Abs(r.Pitch.Velocity) > still || math.Abs(r.Yaw.Velocity) > still || math.Abs(r.Roll.Velocity) > still
}

// Zoom eases the camera distance toward a target on an underdamped spring,
// so zooming overshoots slightly and settles.
type Zoom struct {
	Distance float64
	target   float64
	velocity float64
	min, max float64
	spring   harmonica.Spring
}

// NewZoom starts at distance, limited to [lo, hi].
func NewZoom(fps int, distance, lo, hi float64) *Zoom {
	return &Zoom{
		Distance: distance,
		target:   distance,
		min:      lo,
		max:      hi,
		spring:   harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.8),
	}
}

// Target returns the distance the zoom is heading to.
func (z *Zoom) Target() float64 { return z.target }

// SetTarget changes the destination, clamped to the zoom range.
func (z *Zoom) SetTarget(d float64) {
	z.target = max(z.min, min(z.max, d))
}

// Add moves the destination by delta.
func (z *Zoom) Add(delta float64) {
	z.SetTarget(z.target + delta)
}

// Jump moves straight to d with no animation.
func (z *Zoom) Jump(d float64) {
	z.SetTarget(d)
	z.Distance = z.target
	z.velocity = 0
}

// Update advances one step. The distance never leaves the range, even while
// the spring overshoots.
func (z *Zoom) Update() {
	z.Distance, z.velocity = z.spring.Update(z.Distance, z.velocity, z.target)
	z.Distance = max(z.min, min(z.max, z.Distance))
}
