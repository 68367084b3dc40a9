// Package backend manages the GPU device and resource lifecycle for a
// windowed Vulkan application: device bring-up, swapchain and render-target
// bring-up, per-image frame synchronization, resize rebuilds, and ordered
// teardown.
package backend

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	core "github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"
)

// ResizeListener is notified with the new extent after the swapchain has been
// rebuilt but before the depth buffer and framebuffers are recreated, so
// render-side resources can follow the backend's.
type ResizeListener interface {
	OnResize(extent core1_0.Extent2D)
}

// Backend owns the device handle set and every GPU resource beneath it.
// Setup brings everything up in strict dependency order; Destroy tears it
// down in reverse. Between the two, the frame loop drives PrepareFrame and
// SubmitFrame, and window resizes route through OnWindowResize.
type Backend struct {
	window *sdl.Window
	config *ContextConfig

	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver
	deviceDriver   core1_0.CoreDeviceDriver

	debugDriver    ext_debug_utils.ExtensionDriver
	debugMessenger ext_debug_utils.DebugUtilsMessenger

	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	sampleCount    core1_0.SampleCountFlags

	graphicsFamily int
	presentFamily  int
	graphicsQueue  core1_0.Queue
	presentQueue   core1_0.Queue

	swapchain *Swapchain

	commandPool    core1_0.CommandPool
	commandBuffers []core1_0.CommandBuffer

	depthFormat core1_0.Format
	depthImage  core1_0.Image
	depthMemory core1_0.DeviceMemory
	depthView   core1_0.ImageView

	renderPass    core1_0.RenderPass
	pipelineCache core1_0.PipelineCache
	cachePath     string

	framebuffers []core1_0.Framebuffer

	fences             []core1_0.Fence
	imageAvailableSems []core1_0.Semaphore
	renderFinishedSems []core1_0.Semaphore
	semaphoreIndex     int
	activeImage        int

	resizeListener ResizeListener
}

// New returns a backend for the given configuration. Nothing touches the GPU
// until Setup.
func New(config *ContextConfig) *Backend {
	return &Backend{
		config:      config,
		sampleCount: core1_0.Samples1,
		cachePath:   DefaultPipelineCachePath,
	}
}

// SetResizeListener registers the render collaborator notified on resize.
func (b *Backend) SetResizeListener(listener ResizeListener) {
	b.resizeListener = listener
}

// SetPipelineCachePath overrides where the pipeline cache blob is persisted.
// Must be called before Setup.
func (b *Backend) SetPipelineCachePath(path string) {
	b.cachePath = path
}

// Setup brings up the entire backend against the given window. On failure
// the backend is left in a state where Destroy is safe to call, and the
// process should exit: driver and device setup failures are not recoverable.
func (b *Backend) Setup(window *sdl.Window) error {
	b.window = window

	var err error
	b.globalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return err
	}

	err = b.createInstance()
	if err != nil {
		return err
	}

	err = b.setupDebugMessenger()
	if err != nil {
		return err
	}

	err = b.createSurface()
	if err != nil {
		return err
	}

	err = b.pickPhysicalDevice()
	if err != nil {
		return err
	}

	err = b.createLogicalDevice()
	if err != nil {
		return err
	}

	err = b.createSwapchain()
	if err != nil {
		return err
	}

	err = b.createCommandPool()
	if err != nil {
		return err
	}

	err = b.createCommandBuffers()
	if err != nil {
		return err
	}

	err = b.createDepthBuffer()
	if err != nil {
		return err
	}

	err = b.createRenderPass()
	if err != nil {
		return err
	}

	err = b.createPipelineCache()
	if err != nil {
		return err
	}

	err = b.createFrameBuffers()
	if err != nil {
		return err
	}

	return b.createSyncObjects()
}

func (b *Backend) createSurface() error {
	b.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(b.instanceDriver)
	surface, err := vkng_sdl2.CreateSurface(b.instanceDriver.Instance(), b.surfaceExtension, b.window)
	if err != nil {
		return errors.Mark(err, ErrSurfaceCreate)
	}

	b.surface = surface
	return nil
}

func (b *Backend) createSwapchain() error {
	b.swapchain = &Swapchain{
		extension:        khr_swapchain.CreateExtensionDriverFromCoreDriver(b.deviceDriver),
		deviceDriver:     b.deviceDriver,
		physicalDevice:   b.physicalDevice,
		surfaceExtension: b.surfaceExtension,
		surface:          b.surface,
		graphicsFamily:   b.graphicsFamily,
		presentFamily:    b.presentFamily,
	}

	width, height := b.window.VulkanGetDrawableSize()
	return b.swapchain.setup(int(width), int(height))
}

// Destroy tears the backend down in strict reverse-dependency order. GPU
// resource destruction order is a correctness requirement, not a
// convenience: the depth image must outlive its view, the device must
// outlive everything it allocated.
func (b *Backend) Destroy() {
	if b.deviceDriver != nil {
		_, _ = b.deviceDriver.DeviceWaitIdle()
	}

	if b.renderPass.Initialized() {
		b.deviceDriver.DestroyRenderPass(b.renderPass, nil)
		b.renderPass = core1_0.RenderPass{}
	}

	if b.depthView.Initialized() {
		b.deviceDriver.DestroyImageView(b.depthView, nil)
		b.depthView = core1_0.ImageView{}
	}
	if b.depthImage.Initialized() {
		b.deviceDriver.DestroyImage(b.depthImage, nil)
		b.depthImage = core1_0.Image{}
	}
	if b.depthMemory.Initialized() {
		b.deviceDriver.FreeMemory(b.depthMemory, nil)
		b.depthMemory = core1_0.DeviceMemory{}
	}

	if b.pipelineCache.Initialized() {
		b.savePipelineCache()
		b.deviceDriver.DestroyPipelineCache(b.pipelineCache, nil)
		b.pipelineCache = core1_0.PipelineCache{}
	}

	for _, framebuffer := range b.framebuffers {
		b.deviceDriver.DestroyFramebuffer(framebuffer, nil)
	}
	b.framebuffers = nil

	if b.deviceDriver != nil {
		b.destroySyncObjects()
	}

	if len(b.commandBuffers) > 0 {
		b.deviceDriver.FreeCommandBuffers(b.commandBuffers...)
		b.commandBuffers = nil
	}

	if b.swapchain != nil {
		b.swapchain.destroy()
		b.swapchain = nil
	}

	if b.commandPool.Initialized() {
		b.deviceDriver.DestroyCommandPool(b.commandPool, nil)
		b.commandPool = core1_0.CommandPool{}
	}

	if b.deviceDriver != nil {
		b.deviceDriver.DestroyDevice(nil)
		b.deviceDriver = nil
	}

	if b.debugMessenger.Initialized() {
		b.debugDriver.DestroyDebugUtilsMessenger(b.debugMessenger, nil)
		b.debugMessenger = ext_debug_utils.DebugUtilsMessenger{}
	}

	if b.surface.Initialized() {
		b.surfaceExtension.DestroySurface(b.surface, nil)
		b.surface = khr_surface.Surface{}
	}

	if b.instanceDriver != nil {
		b.instanceDriver.DestroyInstance(nil)
		b.instanceDriver = nil
	}
}

// Device exposes the logical device driver to render collaborators.
func (b *Backend) Device() core1_0.CoreDeviceDriver {
	return b.deviceDriver
}

// Instance exposes the instance driver to render collaborators.
func (b *Backend) Instance() core1_0.CoreInstanceDriver {
	return b.instanceDriver
}

// PhysicalDevice reports the adapter selected at bring-up.
func (b *Backend) PhysicalDevice() core1_0.PhysicalDevice {
	return b.physicalDevice
}

// GraphicsQueueFamily reports the queue family index used for graphics work.
func (b *Backend) GraphicsQueueFamily() int {
	return b.graphicsFamily
}

// Extent reports the current swapchain extent.
func (b *Backend) Extent() core1_0.Extent2D {
	return b.swapchain.Extent()
}

// RenderPass exposes the backend's render pass for pipeline creation and
// command recording.
func (b *Backend) RenderPass() core1_0.RenderPass {
	return b.renderPass
}

// PipelineCache exposes the device pipeline cache for pipeline creation.
func (b *Backend) PipelineCache() core1_0.PipelineCache {
	return b.pipelineCache
}

// MaxSampleCount reports the highest sample count the selected device
// supports for combined color and depth attachments.
func (b *Backend) MaxSampleCount() core1_0.SampleCountFlags {
	return b.sampleCount
}

// ActiveCommandBuffer returns the command buffer for the image acquired by
// the last PrepareFrame. The caller records into it before SubmitFrame and
// must not touch any other image's buffer.
func (b *Backend) ActiveCommandBuffer() core1_0.CommandBuffer {
	return b.commandBuffers[b.activeImage]
}

// ActiveFramebuffer returns the framebuffer for the image acquired by the
// last PrepareFrame.
func (b *Backend) ActiveFramebuffer() core1_0.Framebuffer {
	return b.framebuffers[b.activeImage]
}
