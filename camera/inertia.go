package camera

import (
	"math"

	vkngmath "github.com/vkngwrapper/math"
)

const (
	// KeyTau is the damping time constant applied to keyboard-driven motion.
	KeyTau float32 = 0.10
	// MouseTau is the damping time constant applied to mouse-driven motion.
	MouseTau float32 = 0.03
	// MoveStep is the translation applied per key press or scroll notch.
	MoveStep float32 = 0.2
)

// InertiaCamera holds a goal pose and a current pose and exponentially eases
// the current pose toward the goal, so discrete inputs produce smooth motion.
// Tau is the damping time constant in seconds; smaller is snappier.
type InertiaCamera struct {
	Tau float32

	up vkngmath.Vec3[float32]

	eyeGoal    vkngmath.Vec3[float32]
	eyeCurrent vkngmath.Vec3[float32]

	focusGoal    vkngmath.Vec3[float32]
	focusCurrent vkngmath.Vec3[float32]
}

// NewInertiaCamera returns a camera at rest at the given pose.
func NewInertiaCamera(eye, focus vkngmath.Vec3[float32]) *InertiaCamera {
	return &InertiaCamera{
		Tau:          KeyTau,
		up:           vkngmath.Vec3[float32]{Y: 1},
		eyeGoal:      eye,
		eyeCurrent:   eye,
		focusGoal:    focus,
		focusCurrent: focus,
	}
}

// SetLookAt moves both the goal and current pose, with no easing.
func (c *InertiaCamera) SetLookAt(eye, focus vkngmath.Vec3[float32]) {
	c.eyeGoal = eye
	c.eyeCurrent = eye
	c.focusGoal = focus
	c.focusCurrent = focus
}

// Eye reports the eased eye position.
func (c *InertiaCamera) Eye() vkngmath.Vec3[float32] {
	return c.eyeCurrent
}

// Focus reports the eased focus position.
func (c *InertiaCamera) Focus() vkngmath.Vec3[float32] {
	return c.focusCurrent
}

// RotateH turns the goal view direction horizontally around the up axis.
// With pan set, eye and focus instead slide sideways together.
func (c *InertiaCamera) RotateH(speed float32, pan bool) {
	view := sub(c.focusGoal, c.eyeGoal)
	right := normalize(cross(view, c.up))

	if pan {
		offset := scale(right, speed*length(view))
		c.eyeGoal = add(c.eyeGoal, offset)
		c.focusGoal = add(c.focusGoal, offset)
		return
	}

	c.focusGoal = add(c.eyeGoal, rotateAround(view, c.up, -speed))
}

// RotateV tilts the goal view direction around the view's right axis. With
// pan set, eye and focus instead slide vertically together.
func (c *InertiaCamera) RotateV(speed float32, pan bool) {
	view := sub(c.focusGoal, c.eyeGoal)
	right := normalize(cross(view, c.up))

	if pan {
		offset := scale(c.up, -speed*length(view))
		c.eyeGoal = add(c.eyeGoal, offset)
		c.focusGoal = add(c.focusGoal, offset)
		return
	}

	tilted := rotateAround(view, right, -speed)
	if absF(dot(normalize(tilted), c.up)) < 0.99 {
		c.focusGoal = add(c.eyeGoal, tilted)
	}
}

// Move advances the goal eye along the view direction. With pan set, the
// focus travels with it so the view direction is preserved; otherwise the
// camera closes on (or backs away from) the focus.
func (c *InertiaCamera) Move(speed float32, pan bool) {
	view := sub(c.focusGoal, c.eyeGoal)
	offset := scale(normalize(view), speed)

	if !pan && speed > 0 && length(view) <= length(offset)+1e-4 {
		// Do not overshoot through the focus point.
		return
	}

	c.eyeGoal = add(c.eyeGoal, offset)
	if pan {
		c.focusGoal = add(c.focusGoal, offset)
	}
}

// Update advances the eased pose by dt seconds. The blend factor follows an
// exponential decay with time constant Tau, so motion converges to the goal
// without ever overshooting it.
func (c *InertiaCamera) Update(dt float32) {
	if dt <= 0 {
		return
	}

	t := float32(1.0)
	if c.Tau > 0 {
		t = 1 - float32(math.Exp(float64(-dt/c.Tau)))
	}

	c.eyeCurrent = lerp(c.eyeCurrent, c.eyeGoal, t)
	c.focusCurrent = lerp(c.focusCurrent, c.focusGoal, t)
}

// ViewMatrix builds the look-at matrix for the eased pose.
func (c *InertiaCamera) ViewMatrix() *vkngmath.Mat4x4[float32] {
	var view vkngmath.Mat4x4[float32]
	view.SetLookAt(&c.eyeCurrent, &c.focusCurrent, &c.up)
	return &view
}

func lerp(a, b vkngmath.Vec3[float32], t float32) vkngmath.Vec3[float32] {
	return add(a, scale(sub(b, a), t))
}
