// Package camera provides the camera-manipulation math for a windowed
// renderer: a look-at manipulator driven by mouse input and an inertial
// camera that eases toward its goal over time.
package camera

import (
	"math"

	vkngmath "github.com/vkngwrapper/math"
)

// Inputs mirrors the modifier and button state held while an event fires.
type Inputs struct {
	Lmb, Mmb, Rmb    bool
	Ctrl, Shift, Alt bool
}

// Manipulator maintains a look-at camera and maps normalized mouse motion
// onto orbit, pan, and dolly actions.
type Manipulator struct {
	eye    vkngmath.Vec3[float32]
	center vkngmath.Vec3[float32]
	up     vkngmath.Vec3[float32]

	width  int
	height int

	mouseX int
	mouseY int
}

func NewManipulator() *Manipulator {
	return &Manipulator{
		eye:    vkngmath.Vec3[float32]{X: 2, Y: 2, Z: 2},
		center: vkngmath.Vec3[float32]{},
		up:     vkngmath.Vec3[float32]{Y: 1},
		width:  1,
		height: 1,
	}
}

// SetLookAt replaces the camera pose.
func (m *Manipulator) SetLookAt(eye, center, up vkngmath.Vec3[float32]) {
	m.eye = eye
	m.center = center
	m.up = up
}

// LookAt reports the current camera pose.
func (m *Manipulator) LookAt() (eye, center, up vkngmath.Vec3[float32]) {
	return m.eye, m.center, m.up
}

// SetWindowSize records the drawable size used to normalize mouse motion.
func (m *Manipulator) SetWindowSize(width, height int) {
	if width > 0 {
		m.width = width
	}
	if height > 0 {
		m.height = height
	}
}

// SetMousePosition anchors the reference position deltas are measured from.
// Call it on every button press.
func (m *Manipulator) SetMousePosition(x, y int) {
	m.mouseX = x
	m.mouseY = y
}

// MousePosition reports the last anchored position.
func (m *Manipulator) MousePosition() (int, int) {
	return m.mouseX, m.mouseY
}

// MouseMove applies the motion since the last anchored position: orbit with
// the left button, pan with the middle button, dolly with the right button.
func (m *Manipulator) MouseMove(x, y int, inputs Inputs) {
	dx := float32(x-m.mouseX) / float32(m.width)
	dy := float32(y-m.mouseY) / float32(m.height)

	switch {
	case inputs.Lmb:
		m.Orbit(dx, dy)
	case inputs.Mmb:
		m.Pan(dx, dy)
	case inputs.Rmb:
		m.Dolly(dy)
	}

	m.mouseX = x
	m.mouseY = y
}

// Wheel dollies one step per scroll notch, toward the center on scroll up.
func (m *Manipulator) Wheel(delta int, inputs Inputs) {
	step := float32(delta) * 0.1
	if inputs.Shift {
		step *= 0.1
	}
	m.Dolly(step)
}

// Orbit rotates the eye around the center, horizontally about the up axis and
// vertically about the view's right axis.
func (m *Manipulator) Orbit(dx, dy float32) {
	offset := sub(m.eye, m.center)

	horizontal := rotateAround(offset, m.up, -dx*2*math.Pi)
	right := normalize(cross(m.up, horizontal))
	rotated := rotateAround(horizontal, right, -dy*math.Pi)

	// Refuse to flip over the pole: the view direction must keep a usable
	// angle to the up axis.
	if absF(dot(normalize(rotated), m.up)) < 0.99 {
		horizontal = rotated
	}

	m.eye = add(m.center, horizontal)
}

// Pan translates eye and center together in the view plane.
func (m *Manipulator) Pan(dx, dy float32) {
	view := sub(m.center, m.eye)
	distance := length(view)
	forward := normalize(view)
	right := normalize(cross(forward, m.up))
	realUp := cross(right, forward)

	offset := add(scale(right, -dx*distance), scale(realUp, dy*distance))
	m.eye = add(m.eye, offset)
	m.center = add(m.center, offset)
}

// Dolly moves the eye toward (positive) or away from (negative) the center,
// never through it.
func (m *Manipulator) Dolly(dz float32) {
	view := sub(m.center, m.eye)
	distance := length(view)

	factor := dz
	if factor >= 1.0 {
		factor = 0.9
	}
	m.eye = add(m.eye, scale(view, factor))

	// Keep a minimum standoff so the next motion still has a view direction.
	if distance*(1-factor) < 1e-4 {
		m.eye = sub(m.center, scale(normalize(view), 1e-4))
	}
}

// ViewMatrix builds the look-at matrix for the current pose.
func (m *Manipulator) ViewMatrix() *vkngmath.Mat4x4[float32] {
	var view vkngmath.Mat4x4[float32]
	view.SetLookAt(&m.eye, &m.center, &m.up)
	return &view
}

func add(a, b vkngmath.Vec3[float32]) vkngmath.Vec3[float32] {
	return vkngmath.Vec3[float32]{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}

func sub(a, b vkngmath.Vec3[float32]) vkngmath.Vec3[float32] {
	return vkngmath.Vec3[float32]{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func scale(v vkngmath.Vec3[float32], s float32) vkngmath.Vec3[float32] {
	return vkngmath.Vec3[float32]{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func dot(a, b vkngmath.Vec3[float32]) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func cross(a, b vkngmath.Vec3[float32]) vkngmath.Vec3[float32] {
	return vkngmath.Vec3[float32]{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func length(v vkngmath.Vec3[float32]) float32 {
	return float32(math.Sqrt(float64(dot(v, v))))
}

func normalize(v vkngmath.Vec3[float32]) vkngmath.Vec3[float32] {
	l := length(v)
	if l == 0 {
		return v
	}
	return scale(v, 1/l)
}

func absF(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

// rotateAround rotates v about the (not necessarily unit) axis by angle
// radians, using the Rodrigues formula.
func rotateAround(v, axis vkngmath.Vec3[float32], angle float32) vkngmath.Vec3[float32] {
	k := normalize(axis)
	cosA := float32(math.Cos(float64(angle)))
	sinA := float32(math.Sin(float64(angle)))

	term1 := scale(v, cosA)
	term2 := scale(cross(k, v), sinA)
	term3 := scale(k, dot(k, v)*(1-cosA))

	return add(add(term1, term2), term3)
}
