package backend

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

func capableProfile(name string) deviceProfile {
	return deviceProfile{
		name:             name,
		formatCount:      2,
		presentModeCount: 2,
		extensions: map[string]bool{
			khr_swapchain.ExtensionName:        true,
			"VK_KHR_get_memory_requirements2": true,
		},
		queueFamilies: []queueFamilyInfo{
			{flags: core1_0.QueueGraphics | core1_0.QueueCompute, canPresent: true},
		},
	}
}

func TestSelectDeviceFirstQualifyingWins(t *testing.T) {
	required := []string{khr_swapchain.ExtensionName}

	noFormats := capableProfile("noFormats")
	noFormats.formatCount = 0

	first := capableProfile("first")
	second := capableProfile("second")

	chosen, err := selectDevice([]deviceProfile{noFormats, first, second}, required)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chosen.name != "first" {
		t.Errorf("expected first qualifying device, got %s", chosen.name)
	}
}

func TestSelectDeviceQualificationPredicates(t *testing.T) {
	required := []string{khr_swapchain.ExtensionName, "VK_KHR_get_memory_requirements2"}

	tests := []struct {
		name   string
		mutate func(*deviceProfile)
	}{
		{"no surface formats", func(p *deviceProfile) { p.formatCount = 0 }},
		{"no present modes", func(p *deviceProfile) { p.presentModeCount = 0 }},
		{"missing extension", func(p *deviceProfile) {
			delete(p.extensions, "VK_KHR_get_memory_requirements2")
		}},
		{"no graphics family", func(p *deviceProfile) {
			p.queueFamilies = []queueFamilyInfo{{flags: core1_0.QueueCompute, canPresent: true}}
		}},
		{"no present family", func(p *deviceProfile) {
			p.queueFamilies = []queueFamilyInfo{{flags: core1_0.QueueGraphics, canPresent: false}}
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			profile := capableProfile("broken")
			test.mutate(&profile)

			_, err := selectDevice([]deviceProfile{profile}, required)
			if !errors.Is(err, ErrNoDevice) {
				t.Errorf("expected ErrNoDevice, got %v", err)
			}
		})
	}
}

func TestSelectDeviceNoneEnumerated(t *testing.T) {
	_, err := selectDevice(nil, nil)
	if !errors.Is(err, ErrNoDevice) {
		t.Errorf("expected ErrNoDevice, got %v", err)
	}
}

func TestQueueFamilySelectionIsLowestIndex(t *testing.T) {
	profile := capableProfile("multiFamily")
	profile.queueFamilies = []queueFamilyInfo{
		{flags: core1_0.QueueTransfer, canPresent: false},
		{flags: core1_0.QueueGraphics, canPresent: false},
		{flags: core1_0.QueueGraphics, canPresent: true},
	}

	graphics, ok := profile.graphicsFamily()
	if !ok || graphics != 1 {
		t.Errorf("expected graphics family 1, got %d (ok=%v)", graphics, ok)
	}

	present, ok := profile.presentFamily()
	if !ok || present != 2 {
		t.Errorf("expected present family 2, got %d (ok=%v)", present, ok)
	}
}

func TestChooseSampleCountDescending(t *testing.T) {
	tests := []struct {
		name   string
		color  core1_0.SampleCountFlags
		depth  core1_0.SampleCountFlags
		expect core1_0.SampleCountFlags
	}{
		{
			// A device reporting 1|2|4|8 must resolve to 8, never a lower
			// count from an overlapping bit.
			name:   "highest of overlapping set",
			color:  core1_0.Samples1 | core1_0.Samples2 | core1_0.Samples4 | core1_0.Samples8,
			depth:  core1_0.Samples1 | core1_0.Samples2 | core1_0.Samples4 | core1_0.Samples8,
			expect: core1_0.Samples8,
		},
		{
			name:   "limited by depth support",
			color:  core1_0.Samples1 | core1_0.Samples2 | core1_0.Samples4 | core1_0.Samples8,
			depth:  core1_0.Samples1 | core1_0.Samples2,
			expect: core1_0.Samples2,
		},
		{
			name:   "full support picks 64",
			color:  core1_0.Samples1 | core1_0.Samples2 | core1_0.Samples4 | core1_0.Samples8 | core1_0.Samples16 | core1_0.Samples32 | core1_0.Samples64,
			depth:  core1_0.Samples1 | core1_0.Samples2 | core1_0.Samples4 | core1_0.Samples8 | core1_0.Samples16 | core1_0.Samples32 | core1_0.Samples64,
			expect: core1_0.Samples64,
		},
		{
			name:   "no shared multisampling falls back to 1",
			color:  core1_0.Samples1 | core1_0.Samples4,
			depth:  core1_0.Samples1 | core1_0.Samples2,
			expect: core1_0.Samples1,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := chooseSampleCount(test.color, test.depth)
			if got != test.expect {
				t.Errorf("expected %v, got %v", test.expect, got)
			}
		})
	}
}
