package main

import (
	"log"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkforge/vkbase/backend"
	"github.com/vkforge/vkbase/camera"
)

// inputState routes window and input events to the backend and the cameras:
// keyboard and scroll motion feeds the inertial camera, mouse drags feed the
// manipulator, resizes feed the backend.
type inputState struct {
	backend     *backend.Backend
	manipulator *camera.Manipulator
	inert       *camera.InertiaCamera

	inputs camera.Inputs
	quit   bool

	windowWidth  int
	windowHeight int
}

func (s *inputState) handleEvent(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		s.quit = true

	case *sdl.KeyboardEvent:
		s.handleKeyboard(e)

	case *sdl.MouseButtonEvent:
		s.handleMouseButton(e)

	case *sdl.MouseMotionEvent:
		s.handleMouseMotion(e)

	case *sdl.MouseWheelEvent:
		s.handleMouseWheel(e)

	case *sdl.WindowEvent:
		s.handleWindow(e)
	}
}

func (s *inputState) handleKeyboard(e *sdl.KeyboardEvent) {
	pressed := e.State == sdl.PRESSED

	switch e.Keysym.Sym {
	case sdl.K_LCTRL, sdl.K_RCTRL:
		s.inputs.Ctrl = pressed
		return
	case sdl.K_LSHIFT, sdl.K_RSHIFT:
		s.inputs.Shift = pressed
		return
	case sdl.K_LALT, sdl.K_RALT:
		s.inputs.Alt = pressed
		return
	}

	if !pressed {
		return
	}

	s.inert.Tau = camera.KeyTau
	switch e.Keysym.Sym {
	case sdl.K_ESCAPE, sdl.K_q:
		s.quit = true
	case sdl.K_LEFT:
		s.inert.RotateH(camera.MoveStep, s.inputs.Ctrl)
	case sdl.K_RIGHT:
		s.inert.RotateH(-camera.MoveStep, s.inputs.Ctrl)
	case sdl.K_UP:
		s.inert.RotateV(camera.MoveStep, s.inputs.Ctrl)
	case sdl.K_DOWN:
		s.inert.RotateV(-camera.MoveStep, s.inputs.Ctrl)
	case sdl.K_PAGEUP:
		s.inert.Move(camera.MoveStep, s.inputs.Ctrl)
	case sdl.K_PAGEDOWN:
		s.inert.Move(-camera.MoveStep, s.inputs.Ctrl)
	}
}

func (s *inputState) handleMouseButton(e *sdl.MouseButtonEvent) {
	s.manipulator.SetMousePosition(int(e.X), int(e.Y))

	pressed := e.State == sdl.PRESSED
	switch e.Button {
	case sdl.BUTTON_LEFT:
		s.inputs.Lmb = pressed
	case sdl.BUTTON_MIDDLE:
		s.inputs.Mmb = pressed
	case sdl.BUTTON_RIGHT:
		s.inputs.Rmb = pressed
	}
}

func (s *inputState) handleMouseMotion(e *sdl.MouseMotionEvent) {
	if !s.inputs.Lmb && !s.inputs.Mmb && !s.inputs.Rmb {
		return
	}

	oldX, oldY := s.manipulator.MousePosition()
	s.manipulator.MouseMove(int(e.X), int(e.Y), s.inputs)

	width, height := s.windowSize()
	hval := 2 * float32(int(e.X)-oldX) / float32(width)
	vval := 2 * float32(int(e.Y)-oldY) / float32(height)

	s.inert.Tau = camera.MouseTau
	switch {
	case s.inputs.Lmb:
		s.inert.RotateH(hval, s.inputs.Ctrl)
		s.inert.RotateV(vval, s.inputs.Ctrl)
	case s.inputs.Mmb:
		s.inert.RotateH(hval, true)
		s.inert.RotateV(vval, true)
	case s.inputs.Rmb:
		s.inert.RotateH(hval, s.inputs.Ctrl)
		s.inert.Move(-vval, s.inputs.Ctrl)
	}
}

func (s *inputState) handleMouseWheel(e *sdl.MouseWheelEvent) {
	delta := 1
	if e.Y < 0 {
		delta = -1
	}

	s.manipulator.Wheel(delta, s.inputs)

	s.inert.Tau = camera.KeyTau
	s.inert.Move(float32(delta)*camera.MoveStep, s.inputs.Ctrl)
}

func (s *inputState) handleWindow(e *sdl.WindowEvent) {
	switch e.Event {
	case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
		width := int(e.Data1)
		height := int(e.Data2)
		s.windowWidth = width
		s.windowHeight = height
		s.manipulator.SetWindowSize(width, height)

		err := s.backend.OnWindowResize(width, height)
		if err != nil {
			log.Printf("swapchain rebuild failed: %+v", err)
		}
	}
}

func (s *inputState) windowSize() (int, int) {
	if s.windowWidth == 0 || s.windowHeight == 0 {
		return windowWidth, windowHeight
	}
	return s.windowWidth, s.windowHeight
}
