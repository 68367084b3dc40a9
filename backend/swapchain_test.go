package backend

import (
	"testing"

	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

func TestChooseSwapExtentUsesCurrentExtent(t *testing.T) {
	caps := &khr_surface.SurfaceCapabilities{
		CurrentExtent: core1_0.Extent2D{Width: 800, Height: 600},
	}

	extent := chooseSwapExtent(caps, 1024, 768)
	if extent.Width != 800 || extent.Height != 600 {
		t.Errorf("expected 800x600, got %dx%d", extent.Width, extent.Height)
	}
}

func TestChooseSwapExtentClampsToCapabilities(t *testing.T) {
	caps := &khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
		MinImageExtent: core1_0.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: core1_0.Extent2D{Width: 1920, Height: 1080},
	}

	extent := chooseSwapExtent(caps, 4096, 16)
	if extent.Width != 1920 {
		t.Errorf("expected width clamped to 1920, got %d", extent.Width)
	}
	if extent.Height != 64 {
		t.Errorf("expected height clamped to 64, got %d", extent.Height)
	}

	extent = chooseSwapExtent(caps, 1024, 768)
	if extent.Width != 1024 || extent.Height != 768 {
		t.Errorf("expected 1024x768 passed through, got %dx%d", extent.Width, extent.Height)
	}
}

func TestChooseImageCount(t *testing.T) {
	unbounded := &khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}
	if count := chooseImageCount(unbounded); count != 3 {
		t.Errorf("expected min+1=3, got %d", count)
	}

	bounded := &khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}
	if count := chooseImageCount(bounded); count != 2 {
		t.Errorf("expected clamp to max=2, got %d", count)
	}
}

func TestChooseSurfaceFormatPrefersSRGB(t *testing.T) {
	preferred := khr_surface.SurfaceFormat{
		Format:     core1_0.FormatB8G8R8A8SRGB,
		ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
	}
	other := khr_surface.SurfaceFormat{
		Format:     core1_0.FormatR8G8B8A8UnsignedNormalized,
		ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
	}

	got := chooseSurfaceFormat([]khr_surface.SurfaceFormat{other, preferred})
	if got != preferred {
		t.Errorf("expected sRGB format preferred, got %+v", got)
	}

	got = chooseSurfaceFormat([]khr_surface.SurfaceFormat{other})
	if got != other {
		t.Errorf("expected first format as fallback, got %+v", got)
	}
}

func TestChoosePresentModePrefersMailbox(t *testing.T) {
	modes := []khr_surface.PresentMode{khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox}
	if got := choosePresentMode(modes); got != khr_surface.PresentModeMailbox {
		t.Errorf("expected mailbox, got %v", got)
	}

	modes = []khr_surface.PresentMode{khr_surface.PresentModeFIFO}
	if got := choosePresentMode(modes); got != khr_surface.PresentModeFIFO {
		t.Errorf("expected FIFO fallback, got %v", got)
	}
}
