package backend

import (
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// Swapchain owns the presentable image ring and everything derived directly
// from it. The backend drives it through setup/update/destroy and acquires
// and presents images through it, but never touches its internals.
type Swapchain struct {
	extension khr_swapchain.ExtensionDriver

	deviceDriver     core1_0.CoreDeviceDriver
	physicalDevice   core1_0.PhysicalDevice
	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface

	graphicsFamily int
	presentFamily  int

	handle khr_swapchain.Swapchain
	images []core1_0.Image
	views  []core1_0.ImageView
	format core1_0.Format
	extent core1_0.Extent2D
}

func (s *Swapchain) setup(width, height int) error {
	support, _, err := s.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(s.surface, s.physicalDevice)
	if err != nil {
		return err
	}

	formats, _, err := s.surfaceExtension.GetPhysicalDeviceSurfaceFormats(s.surface, s.physicalDevice)
	if err != nil {
		return err
	}

	presentModes, _, err := s.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(s.surface, s.physicalDevice)
	if err != nil {
		return err
	}

	surfaceFormat := chooseSurfaceFormat(formats)
	presentMode := choosePresentMode(presentModes)
	extent := chooseSwapExtent(support, width, height)
	imageCount := chooseImageCount(support)

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if s.graphicsFamily != s.presentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, s.graphicsFamily, s.presentFamily)
	}

	swapchain, _, err := s.extension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: s.surface,

		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   support.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	})
	if err != nil {
		return err
	}

	s.handle = swapchain
	s.format = surfaceFormat.Format
	s.extent = extent

	return s.createImageViews()
}

func (s *Swapchain) createImageViews() error {
	images, _, err := s.extension.GetSwapchainImages(s.handle)
	if err != nil {
		return err
	}
	s.images = images

	var views []core1_0.ImageView
	for _, image := range images {
		view, _, err := s.deviceDriver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
			Image:    image,
			ViewType: core1_0.ImageViewType2D,
			Format:   s.format,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		})
		if err != nil {
			return err
		}
		views = append(views, view)
	}
	s.views = views

	return nil
}

// update tears down the image ring and rebuilds it at the new extent. The
// caller is responsible for idling the device first.
func (s *Swapchain) update(width, height int) error {
	s.destroy()
	return s.setup(width, height)
}

func (s *Swapchain) destroy() {
	for _, view := range s.views {
		s.deviceDriver.DestroyImageView(view, nil)
	}
	s.views = nil
	s.images = nil

	if s.handle.Initialized() {
		s.extension.DestroySwapchain(s.handle, nil)
		s.handle = khr_swapchain.Swapchain{}
	}
}

func (s *Swapchain) acquire(signal *core1_0.Semaphore) (int, common.VkResult, error) {
	return s.extension.AcquireNextImage(s.handle, common.NoTimeout, signal, nil)
}

func (s *Swapchain) present(queue core1_0.Queue, imageIndex int, wait core1_0.Semaphore) (common.VkResult, error) {
	return s.extension.QueuePresent(queue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{wait},
		Swapchains:     []khr_swapchain.Swapchain{s.handle},
		ImageIndices:   []int{imageIndex},
	})
}

// ImageCount reports the size of the presentable image ring. Every per-image
// resource collection in the backend is sized off this.
func (s *Swapchain) ImageCount() int {
	return len(s.images)
}

// Extent reports the current swapchain extent.
func (s *Swapchain) Extent() core1_0.Extent2D {
	return s.extent
}

// Format reports the color attachment format chosen at setup.
func (s *Swapchain) Format() core1_0.Format {
	return s.format
}

func chooseSurfaceFormat(availableFormats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

func choosePresentMode(availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == khr_surface.PresentModeMailbox {
			return presentMode
		}
	}

	return khr_surface.PresentModeFIFO
}

func chooseSwapExtent(capabilities *khr_surface.SurfaceCapabilities, width, height int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	if width < capabilities.MinImageExtent.Width {
		width = capabilities.MinImageExtent.Width
	}
	if width > capabilities.MaxImageExtent.Width {
		width = capabilities.MaxImageExtent.Width
	}
	if height < capabilities.MinImageExtent.Height {
		height = capabilities.MinImageExtent.Height
	}
	if height > capabilities.MaxImageExtent.Height {
		height = capabilities.MaxImageExtent.Height
	}

	return core1_0.Extent2D{Width: width, Height: height}
}

func chooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}
