package main

import (
	"log"
	"runtime"

	"github.com/loov/hrtime"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkforge/vkbase/backend"
	"github.com/vkforge/vkbase/camera"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	vkngmath "github.com/vkngwrapper/math"
)

const (
	windowTitle  = "vkbase"
	windowWidth  = 800
	windowHeight = 600
)

// clearRenderer is the minimal render collaborator: it records a render pass
// that does nothing but clear the color and depth attachments.
type clearRenderer struct {
	backend *backend.Backend
	extent  core1_0.Extent2D
}

func (r *clearRenderer) OnResize(extent core1_0.Extent2D) {
	r.extent = extent
}

// record re-records the active image's command buffer. The command pool
// allows per-buffer resets, so beginning the buffer again is sufficient.
func (r *clearRenderer) record() error {
	device := r.backend.Device()
	commandBuffer := r.backend.ActiveCommandBuffer()

	_, err := device.BeginCommandBuffer(commandBuffer, core1_0.CommandBufferBeginInfo{})
	if err != nil {
		return err
	}

	device.CmdBeginRenderPass(commandBuffer, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  r.backend.RenderPass(),
			Framebuffer: r.backend.ActiveFramebuffer(),
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: r.extent,
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat{0, 0, 0, 1},
				core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0},
			},
		})

	device.CmdEndRenderPass(commandBuffer)

	_, err = device.EndCommandBuffer(commandBuffer)
	return err
}

func main() {
	runtime.LockOSThread()

	err := run()
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}

func run() error {
	err := sdl.Init(sdl.INIT_VIDEO)
	if err != nil {
		return err
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow(windowTitle,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		windowWidth, windowHeight,
		sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return err
	}
	defer func() {
		_ = window.Destroy()
	}()

	config := backend.NewContextConfig(windowTitle)
	config.AddInstanceExtension("VK_KHR_get_physical_device_properties2")
	config.AddDeviceExtension(khr_swapchain.ExtensionName, "VK_KHR_get_memory_requirements2")
	config.SetValidation(true)

	b := backend.New(config)

	scene := &clearRenderer{backend: b}
	b.SetResizeListener(scene)

	err = b.Setup(window)
	if err != nil {
		return err
	}
	defer b.Destroy()
	scene.extent = b.Extent()

	manipulator := camera.NewManipulator()
	manipulator.SetWindowSize(windowWidth, windowHeight)
	manipulator.SetLookAt(
		vkngmath.Vec3[float32]{X: 2, Y: 2, Z: 2},
		vkngmath.Vec3[float32]{},
		vkngmath.Vec3[float32]{Y: 1},
	)

	inert := camera.NewInertiaCamera(
		vkngmath.Vec3[float32]{X: 2, Y: 2, Z: 2},
		vkngmath.Vec3[float32]{},
	)

	input := &inputState{
		backend:     b,
		manipulator: manipulator,
		inert:       inert,
	}

	lastTime := hrtime.Now()
	for !input.quit {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			input.handleEvent(event)
		}

		now := hrtime.Now()
		inert.Update(float32((now - lastTime).Seconds()))
		lastTime = now

		if b.IsMinimized(true) {
			continue
		}

		err = b.PrepareFrame()
		if err != nil {
			return err
		}

		err = scene.record()
		if err != nil {
			return err
		}

		err = b.SubmitFrame()
		if err != nil {
			return err
		}
	}

	return nil
}
