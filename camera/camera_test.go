package camera

import (
	"math"
	"testing"

	vkngmath "github.com/vkngwrapper/math"
)

const epsilon = 1e-4

func vecNear(a, b vkngmath.Vec3[float32]) bool {
	return length(sub(a, b)) < epsilon
}

func TestInertiaConvergesToGoal(t *testing.T) {
	cam := NewInertiaCamera(
		vkngmath.Vec3[float32]{X: 2, Y: 2, Z: 2},
		vkngmath.Vec3[float32]{},
	)
	cam.Tau = 0.1
	cam.Move(MoveStep, false)

	goal := cam.eyeGoal
	if vecNear(cam.Eye(), goal) {
		t.Fatal("goal must lead the eased position immediately after a move")
	}

	for i := 0; i < 200; i++ {
		cam.Update(0.016)
	}
	if !vecNear(cam.Eye(), goal) {
		t.Errorf("eye %+v never converged to goal %+v", cam.Eye(), goal)
	}
}

func TestInertiaSmallerTauConvergesFaster(t *testing.T) {
	start := vkngmath.Vec3[float32]{X: 2, Y: 2, Z: 2}
	snappy := NewInertiaCamera(start, vkngmath.Vec3[float32]{})
	sluggish := NewInertiaCamera(start, vkngmath.Vec3[float32]{})
	snappy.Tau = MouseTau
	sluggish.Tau = KeyTau

	snappy.Move(MoveStep, false)
	sluggish.Move(MoveStep, false)
	snappy.Update(0.016)
	sluggish.Update(0.016)

	snappyRemaining := length(sub(snappy.eyeGoal, snappy.Eye()))
	sluggishRemaining := length(sub(sluggish.eyeGoal, sluggish.Eye()))
	if snappyRemaining >= sluggishRemaining {
		t.Errorf("tau %v left %v to go, tau %v left %v", snappy.Tau, snappyRemaining, sluggish.Tau, sluggishRemaining)
	}
}

func TestInertiaZeroDeltaIsNoOp(t *testing.T) {
	cam := NewInertiaCamera(
		vkngmath.Vec3[float32]{X: 1, Y: 1, Z: 1},
		vkngmath.Vec3[float32]{},
	)
	cam.Move(MoveStep, false)

	before := cam.Eye()
	cam.Update(0)
	cam.Update(-0.016)
	if !vecNear(cam.Eye(), before) {
		t.Errorf("eye moved on non-positive dt: %+v -> %+v", before, cam.Eye())
	}
}

func TestInertiaPanPreservesViewDirection(t *testing.T) {
	cam := NewInertiaCamera(
		vkngmath.Vec3[float32]{Z: 5},
		vkngmath.Vec3[float32]{},
	)
	viewBefore := sub(cam.focusGoal, cam.eyeGoal)

	cam.RotateH(0.5, true)
	cam.RotateV(0.5, true)
	cam.Move(MoveStep, true)

	viewAfter := sub(cam.focusGoal, cam.eyeGoal)
	if !vecNear(viewBefore, viewAfter) {
		t.Errorf("panning changed the view direction: %+v -> %+v", viewBefore, viewAfter)
	}
}

func TestInertiaRotatePreservesEye(t *testing.T) {
	eye := vkngmath.Vec3[float32]{Z: 5}
	cam := NewInertiaCamera(eye, vkngmath.Vec3[float32]{})

	cam.RotateH(0.3, false)
	cam.RotateV(0.2, false)

	if !vecNear(cam.eyeGoal, eye) {
		t.Errorf("rotating moved the eye: %+v", cam.eyeGoal)
	}
	if vecNear(cam.focusGoal, vkngmath.Vec3[float32]{}) {
		t.Error("rotating did not move the focus")
	}
}

func TestInertiaMoveStopsAtFocus(t *testing.T) {
	cam := NewInertiaCamera(
		vkngmath.Vec3[float32]{Z: 0.1},
		vkngmath.Vec3[float32]{},
	)

	for i := 0; i < 10; i++ {
		cam.Move(MoveStep, false)
	}

	if length(sub(cam.focusGoal, cam.eyeGoal)) < epsilon {
		t.Error("eye reached the focus point")
	}
}

func TestManipulatorOrbitKeepsDistance(t *testing.T) {
	m := NewManipulator()
	m.SetLookAt(
		vkngmath.Vec3[float32]{Z: 5},
		vkngmath.Vec3[float32]{},
		vkngmath.Vec3[float32]{Y: 1},
	)
	m.SetWindowSize(800, 600)

	m.SetMousePosition(400, 300)
	m.MouseMove(420, 310, Inputs{Lmb: true})

	eye, center, _ := m.LookAt()
	distance := length(sub(eye, center))
	if math.Abs(float64(distance-5)) > epsilon {
		t.Errorf("orbit changed the distance to center: %v", distance)
	}
	if vecNear(eye, vkngmath.Vec3[float32]{Z: 5}) {
		t.Error("orbit did not move the eye")
	}
}

func TestManipulatorPanMovesEyeAndCenterTogether(t *testing.T) {
	m := NewManipulator()
	m.SetLookAt(
		vkngmath.Vec3[float32]{Z: 5},
		vkngmath.Vec3[float32]{},
		vkngmath.Vec3[float32]{Y: 1},
	)
	m.SetWindowSize(800, 600)

	eyeBefore, centerBefore, _ := m.LookAt()
	m.SetMousePosition(400, 300)
	m.MouseMove(440, 320, Inputs{Mmb: true})

	eyeAfter, centerAfter, _ := m.LookAt()
	eyeDelta := sub(eyeAfter, eyeBefore)
	centerDelta := sub(centerAfter, centerBefore)
	if length(eyeDelta) < epsilon {
		t.Fatal("pan did not move the camera")
	}
	if !vecNear(eyeDelta, centerDelta) {
		t.Errorf("pan moved eye by %+v but center by %+v", eyeDelta, centerDelta)
	}
}

func TestManipulatorDollyClosesOnCenter(t *testing.T) {
	m := NewManipulator()
	m.SetLookAt(
		vkngmath.Vec3[float32]{Z: 5},
		vkngmath.Vec3[float32]{},
		vkngmath.Vec3[float32]{Y: 1},
	)
	m.SetWindowSize(800, 600)

	m.SetMousePosition(400, 300)
	m.MouseMove(400, 360, Inputs{Rmb: true})

	eye, center, _ := m.LookAt()
	if length(sub(eye, center)) >= 5 {
		t.Errorf("dolly did not close on the center: %v", length(sub(eye, center)))
	}
	if !vecNear(center, vkngmath.Vec3[float32]{}) {
		t.Errorf("dolly moved the center: %+v", center)
	}
}

func TestManipulatorDollyNeverCrossesCenter(t *testing.T) {
	m := NewManipulator()
	m.SetLookAt(
		vkngmath.Vec3[float32]{Z: 1},
		vkngmath.Vec3[float32]{},
		vkngmath.Vec3[float32]{Y: 1},
	)

	for i := 0; i < 50; i++ {
		m.Dolly(0.9)
	}

	eye, center, _ := m.LookAt()
	if eye.Z <= center.Z {
		t.Errorf("eye crossed the center: %+v", eye)
	}
}

func TestManipulatorWheelDollies(t *testing.T) {
	m := NewManipulator()
	m.SetLookAt(
		vkngmath.Vec3[float32]{Z: 5},
		vkngmath.Vec3[float32]{},
		vkngmath.Vec3[float32]{Y: 1},
	)

	m.Wheel(1, Inputs{})
	eye, center, _ := m.LookAt()
	closer := length(sub(eye, center))
	if closer >= 5 {
		t.Errorf("scrolling up did not close in: %v", closer)
	}

	m.Wheel(-2, Inputs{})
	eye, center, _ = m.LookAt()
	if length(sub(eye, center)) <= closer {
		t.Error("scrolling down did not back away")
	}
}

func TestManipulatorMouseMoveUpdatesAnchor(t *testing.T) {
	m := NewManipulator()
	m.SetWindowSize(800, 600)
	m.SetMousePosition(10, 20)

	m.MouseMove(30, 40, Inputs{})
	x, y := m.MousePosition()
	if x != 30 || y != 40 {
		t.Errorf("anchor not updated: (%d, %d)", x, y)
	}
}
