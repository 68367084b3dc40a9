package backend

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

func (b *Backend) createCommandPool() error {
	pool, _, err := b.deviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: b.graphicsFamily,
	})
	if err != nil {
		return err
	}
	b.commandPool = pool

	return nil
}

func (b *Backend) createCommandBuffers() error {
	if len(b.commandBuffers) > 0 {
		b.deviceDriver.FreeCommandBuffers(b.commandBuffers...)
		b.commandBuffers = nil
	}

	buffers, _, err := b.deviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        b.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: b.swapchain.ImageCount(),
	})
	if err != nil {
		return err
	}
	b.commandBuffers = buffers

	return nil
}

// createDepthBuffer (re)creates the depth attachment at the current swapchain
// extent. Any previous view/image/memory is destroyed first, in that order,
// so the call is safe to repeat on every resize.
func (b *Backend) createDepthBuffer() error {
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

	depthFormat, err := b.findDepthFormat()
	if err != nil {
		return err
	}
	b.depthFormat = depthFormat

	extent := b.swapchain.Extent()
	b.depthImage, b.depthMemory, err = b.createImage(
		extent.Width,
		extent.Height,
		depthFormat,
		core1_0.ImageTilingOptimal,
		core1_0.ImageUsageDepthStencilAttachment,
		core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return err
	}

	// The render pass expects the attachment in the depth-optimal layout; a
	// blocking one-shot transition keeps this out of the frame loop.
	err = b.transitionDepthImage(b.depthImage, depthFormat)
	if err != nil {
		return err
	}

	aspect := core1_0.ImageAspectDepth
	if hasStencilComponent(depthFormat) {
		aspect |= core1_0.ImageAspectStencil
	}
	b.depthView, err = b.createImageView(b.depthImage, depthFormat, aspect)

	return err
}

func (b *Backend) createRenderPass() error {
	if b.renderPass.Initialized() {
		b.deviceDriver.DestroyRenderPass(b.renderPass, nil)
		b.renderPass = core1_0.RenderPass{}
	}

	depthFormat, err := b.findDepthFormat()
	if err != nil {
		return err
	}

	renderPass, _, err := b.deviceDriver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         b.swapchain.Format(),
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
			{
				Format:         depthFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
				DepthStencilAttachment: &core1_0.AttachmentReference{
					Attachment: 1,
					Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: core1_0.AccessMemoryRead,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentRead | core1_0.AccessColorAttachmentWrite,

				DependencyFlags: core1_0.DependencyByRegion,
			},
		},
	})
	if err != nil {
		return err
	}

	b.renderPass = renderPass

	return nil
}

// createFrameBuffers rebuilds the framebuffer set: one per swapchain image,
// each binding that image's color view and the shared depth view.
func (b *Backend) createFrameBuffers() error {
	for _, framebuffer := range b.framebuffers {
		b.deviceDriver.DestroyFramebuffer(framebuffer, nil)
	}
	b.framebuffers = nil

	extent := b.swapchain.Extent()
	for _, imageView := range b.swapchain.views {
		framebuffer, _, err := b.deviceDriver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass: b.renderPass,
			Layers:     1,
			Attachments: []core1_0.ImageView{
				imageView,
				b.depthView,
			},
			Width:  extent.Width,
			Height: extent.Height,
		})
		if err != nil {
			return err
		}

		b.framebuffers = append(b.framebuffers, framebuffer)
	}

	return nil
}

func (b *Backend) findDepthFormat() (core1_0.Format, error) {
	return b.findSupportedFormat(
		[]core1_0.Format{
			core1_0.FormatD32SignedFloat,
			core1_0.FormatD32SignedFloatS8UnsignedInt,
			core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
		},
		core1_0.ImageTilingOptimal,
		core1_0.FormatFeatureDepthStencilAttachment)
}

func (b *Backend) findSupportedFormat(formats []core1_0.Format, tiling core1_0.ImageTiling, features core1_0.FormatFeatureFlags) (core1_0.Format, error) {
	for _, format := range formats {
		props := b.instanceDriver.GetPhysicalDeviceFormatProperties(b.physicalDevice, format)

		if tiling == core1_0.ImageTilingLinear && (props.LinearTilingFeatures&features) == features {
			return format, nil
		} else if tiling == core1_0.ImageTilingOptimal && (props.OptimalTilingFeatures&features) == features {
			return format, nil
		}
	}

	return 0, errors.Errorf("no supported format for tiling %s, featureset %s", tiling, features)
}

func hasStencilComponent(format core1_0.Format) bool {
	return format == core1_0.FormatD32SignedFloatS8UnsignedInt || format == core1_0.FormatD24UnsignedNormalizedS8UnsignedInt
}

// findMemoryTypeIndex picks the first memory type compatible with the
// allocation's type filter that also carries every required property flag.
func findMemoryTypeIndex(memoryTypes []core1_0.MemoryType, typeFilter uint32, required core1_0.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range memoryTypes {
		typeBit := uint32(1 << i)

		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&required) == required {
			return i, nil
		}
	}

	return 0, errors.Wrapf(ErrMemoryType, "type filter 0x%x, required flags %s", typeFilter, required)
}

func (b *Backend) createImage(width, height int, format core1_0.Format, tiling core1_0.ImageTiling, usage core1_0.ImageUsageFlags, memoryProperties core1_0.MemoryPropertyFlags) (core1_0.Image, core1_0.DeviceMemory, error) {
	image, _, err := b.deviceDriver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return core1_0.Image{}, core1_0.DeviceMemory{}, err
	}

	memReqs := b.deviceDriver.GetImageMemoryRequirements(image)
	memProperties := b.instanceDriver.GetPhysicalDeviceMemoryProperties(b.physicalDevice)
	memoryIndex, err := findMemoryTypeIndex(memProperties.MemoryTypes, memReqs.MemoryTypeBits, memoryProperties)
	if err != nil {
		return core1_0.Image{}, core1_0.DeviceMemory{}, err
	}

	imageMemory, _, err := b.deviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryIndex,
	})
	if err != nil {
		return core1_0.Image{}, core1_0.DeviceMemory{}, err
	}

	_, err = b.deviceDriver.BindImageMemory(image, imageMemory, 0)
	if err != nil {
		return core1_0.Image{}, core1_0.DeviceMemory{}, err
	}

	return image, imageMemory, nil
}

func (b *Backend) createImageView(image core1_0.Image, format core1_0.Format, aspect core1_0.ImageAspectFlags) (core1_0.ImageView, error) {
	imageView, _, err := b.deviceDriver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	return imageView, err
}

// transitionDepthImage moves a freshly-created depth image from the undefined
// layout into the depth-stencil-attachment layout with a one-shot command
// buffer, submitted and waited before returning.
func (b *Backend) transitionDepthImage(image core1_0.Image, format core1_0.Format) error {
	buffer, err := b.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	aspect := core1_0.ImageAspectDepth
	if hasStencilComponent(format) {
		aspect |= core1_0.ImageAspectStencil
	}

	err = b.deviceDriver.CmdPipelineBarrier(buffer,
		core1_0.PipelineStageTopOfPipe,
		core1_0.PipelineStageEarlyFragmentTests,
		0, nil, nil,
		[]core1_0.ImageMemoryBarrier{
			{
				OldLayout:           core1_0.ImageLayoutUndefined,
				NewLayout:           core1_0.ImageLayoutDepthStencilAttachmentOptimal,
				SrcQueueFamilyIndex: -1,
				DstQueueFamilyIndex: -1,
				Image:               image,
				SubresourceRange: core1_0.ImageSubresourceRange{
					AspectMask:     aspect,
					BaseMipLevel:   0,
					LevelCount:     1,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
				SrcAccessMask: 0,
				DstAccessMask: core1_0.AccessDepthStencilAttachmentRead | core1_0.AccessDepthStencilAttachmentWrite,
			},
		})
	if err != nil {
		return err
	}

	return b.endSingleTimeCommands(buffer)
}

func (b *Backend) beginSingleTimeCommands() (core1_0.CommandBuffer, error) {
	buffers, _, err := b.deviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        b.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return core1_0.CommandBuffer{}, err
	}

	buffer := buffers[0]
	_, err = b.deviceDriver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	return buffer, err
}

func (b *Backend) endSingleTimeCommands(buffer core1_0.CommandBuffer) error {
	_, err := b.deviceDriver.EndCommandBuffer(buffer)
	if err != nil {
		return err
	}

	_, err = b.deviceDriver.QueueSubmit(b.graphicsQueue, nil,
		core1_0.SubmitInfo{
			CommandBuffers: []core1_0.CommandBuffer{buffer},
		},
	)
	if err != nil {
		return err
	}

	_, err = b.deviceDriver.QueueWaitIdle(b.graphicsQueue)
	if err != nil {
		return err
	}

	b.deviceDriver.FreeCommandBuffers(buffer)
	return nil
}
