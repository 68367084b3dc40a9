package backend

import (
	"time"

	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// fencePollInterval bounds each fence wait. A timeout is a polling interval,
// not a deadline: the wait is simply retried.
const fencePollInterval = 10 * time.Millisecond

// createSyncObjects builds the per-image synchronization state: a signaled
// fence per image so the first frame sails through, plus acquire/present
// semaphore rings.
func (b *Backend) createSyncObjects() error {
	b.destroySyncObjects()

	imageCount := b.swapchain.ImageCount()
	for i := 0; i < imageCount; i++ {
		fence, _, err := b.deviceDriver.CreateFence(nil, core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		})
		if err != nil {
			return err
		}
		b.fences = append(b.fences, fence)

		acquired, _, err := b.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return err
		}
		b.imageAvailableSems = append(b.imageAvailableSems, acquired)

		finished, _, err := b.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return err
		}
		b.renderFinishedSems = append(b.renderFinishedSems, finished)
	}

	b.semaphoreIndex = 0

	return nil
}

func (b *Backend) destroySyncObjects() {
	for _, fence := range b.fences {
		b.deviceDriver.DestroyFence(fence, nil)
	}
	b.fences = nil

	for _, semaphore := range b.imageAvailableSems {
		b.deviceDriver.DestroySemaphore(semaphore, nil)
	}
	b.imageAvailableSems = nil

	for _, semaphore := range b.renderFinishedSems {
		b.deviceDriver.DestroySemaphore(semaphore, nil)
	}
	b.renderFinishedSems = nil
}

// needsRebuild reports whether an acquire or present result means the
// swapchain no longer matches the surface and must be rebuilt. Neither
// condition is an error.
func needsRebuild(res common.VkResult) bool {
	return res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal
}

// PrepareFrame acquires the next swapchain image and blocks until the GPU has
// finished the previous submission that used it, so its command buffer is
// safe to record over. An out-of-date or suboptimal surface triggers the
// resize path and another acquire.
func (b *Backend) PrepareFrame() error {
	for {
		imageIndex, res, err := b.swapchain.acquire(&b.imageAvailableSems[b.semaphoreIndex])
		if needsRebuild(res) {
			width, height := b.window.VulkanGetDrawableSize()
			err = b.OnWindowResize(int(width), int(height))
			if err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		b.activeImage = imageIndex
		break
	}

	for {
		res, err := b.deviceDriver.WaitForFences(true, fencePollInterval, b.fences[b.activeImage])
		if err != nil {
			return err
		}
		if res != core1_0.VKTimeout {
			return nil
		}
	}
}

// SubmitFrame submits the active image's command buffer and requests
// presentation. The fence for the image is reset first and signaled again by
// the GPU when the submission completes, which is what PrepareFrame waits on
// next time this image comes around.
func (b *Backend) SubmitFrame() error {
	image := b.activeImage

	_, err := b.deviceDriver.ResetFences(b.fences[image])
	if err != nil {
		return err
	}

	_, err = b.deviceDriver.QueueSubmit(b.graphicsQueue, &b.fences[image],
		core1_0.SubmitInfo{
			WaitSemaphores:   []core1_0.Semaphore{b.imageAvailableSems[b.semaphoreIndex]},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{b.commandBuffers[image]},
			SignalSemaphores: []core1_0.Semaphore{b.renderFinishedSems[image]},
		},
	)
	if err != nil {
		return err
	}

	res, err := b.swapchain.present(b.presentQueue, image, b.renderFinishedSems[image])
	if needsRebuild(res) {
		width, height := b.window.VulkanGetDrawableSize()
		err = b.OnWindowResize(int(width), int(height))
	}
	if err != nil {
		return err
	}

	b.semaphoreIndex = (b.semaphoreIndex + 1) % len(b.imageAvailableSems)

	return nil
}

// OnWindowResize rebuilds the window-size-dependent resources at the new
// extent. A zero width or height means the window is minimized and the call
// is a no-op. In-flight frames may still reference the resources about to be
// destroyed, so nothing cheaper than a full device and queue idle is safe.
func (b *Backend) OnWindowResize(width, height int) error {
	if width == 0 || height == 0 {
		return nil
	}

	_, err := b.deviceDriver.DeviceWaitIdle()
	if err != nil {
		return err
	}
	_, err = b.deviceDriver.QueueWaitIdle(b.graphicsQueue)
	if err != nil {
		return err
	}

	err = b.swapchain.update(width, height)
	if err != nil {
		return err
	}

	if b.resizeListener != nil {
		b.resizeListener.OnResize(b.swapchain.Extent())
	}

	err = b.createDepthBuffer()
	if err != nil {
		return err
	}

	err = b.createFrameBuffers()
	if err != nil {
		return err
	}

	// The driver may hand back a different image count at the new extent;
	// per-image collections have to follow it.
	if len(b.fences) != b.swapchain.ImageCount() {
		err = b.createCommandBuffers()
		if err != nil {
			return err
		}
		err = b.createSyncObjects()
		if err != nil {
			return err
		}
	}

	return nil
}

// IsMinimized reports whether the drawable area is currently zero on either
// axis. When sleepIfSo is set it naps briefly so a minimized window does not
// spin the render loop.
func (b *Backend) IsMinimized(sleepIfSo bool) bool {
	width, height := b.window.VulkanGetDrawableSize()
	minimized := width == 0 || height == 0
	if minimized && sleepIfSo {
		time.Sleep(50 * time.Millisecond)
	}
	return minimized
}
