package backend

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/core1_2"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"golang.org/x/sync/errgroup"
)

func (b *Backend) createInstance() error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    b.config.AppName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         b.config.EngineName,
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := b.globalDriver.AvailableExtensions()
	if err != nil {
		return err
	}

	// The windowing integration knows which platform surface extensions it
	// needs; the config carries everything else.
	requested := b.window.VulkanGetInstanceExtensions()
	requested = append(requested, b.config.InstanceExtensions...)
	for _, ext := range requested {
		_, hasExt := extensions[ext]
		if !hasExt {
			return errors.Errorf("createInstance: required instance extension %s is not available", ext)
		}
		instanceOptions.EnabledExtensionNames = appendUnique(instanceOptions.EnabledExtensionNames, ext)
	}

	// Required to run on top of MoltenVK and other portability implementations.
	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if b.config.Validation {
		layers, _, err := b.globalDriver.AvailableLayers()
		if err != nil {
			return err
		}

		for _, layer := range b.config.ValidationLayers {
			_, hasLayer := layers[layer]
			if !hasLayer {
				return errors.Wrapf(ErrLayerMissing, "layer %s (install the LunarG Vulkan SDK)", layer)
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}

		// Covers instance creation and teardown, before the messenger exists.
		instanceOptions.Next = b.debugMessengerOptions()
	}

	b.instanceDriver, _, err = b.globalDriver.CreateInstance(nil, instanceOptions)
	if err != nil {
		return err
	}

	return nil
}

// queueFamilyInfo is the per-family slice of a capability snapshot.
type queueFamilyInfo struct {
	flags      core1_0.QueueFlags
	canPresent bool
}

// deviceProfile is a read-only capability snapshot of one physical device,
// gathered once so the selection logic runs over plain data.
type deviceProfile struct {
	device core1_0.PhysicalDevice
	name   string

	formatCount      int
	presentModeCount int
	extensions       map[string]bool
	queueFamilies    []queueFamilyInfo

	colorSampleCounts core1_0.SampleCountFlags
	depthSampleCounts core1_0.SampleCountFlags
}

// graphicsFamily returns the lowest queue family index with graphics support.
func (p *deviceProfile) graphicsFamily() (int, bool) {
	for idx, family := range p.queueFamilies {
		if (family.flags & core1_0.QueueGraphics) != 0 {
			return idx, true
		}
	}
	return 0, false
}

// presentFamily returns the lowest queue family index able to present to the
// surface the profile was gathered against.
func (p *deviceProfile) presentFamily() (int, bool) {
	for idx, family := range p.queueFamilies {
		if family.canPresent {
			return idx, true
		}
	}
	return 0, false
}

// qualifies reports whether the device can drive the surface at all: at least
// one surface format, at least one present mode, every required device
// extension, and queue families for both graphics work and presentation.
func (p *deviceProfile) qualifies(requiredExtensions []string) bool {
	if p.formatCount == 0 || p.presentModeCount == 0 {
		return false
	}

	for _, ext := range requiredExtensions {
		if !p.extensions[ext] {
			return false
		}
	}

	_, hasGraphics := p.graphicsFamily()
	_, hasPresent := p.presentFamily()
	return hasGraphics && hasPresent
}

// selectDevice picks the first qualifying profile in enumeration order. There
// is no scoring: the first device that can do the job wins.
func selectDevice(profiles []deviceProfile, requiredExtensions []string) (*deviceProfile, error) {
	for i := range profiles {
		if profiles[i].qualifies(requiredExtensions) {
			return &profiles[i], nil
		}
	}
	return nil, errors.Wrapf(ErrNoDevice, "%d device(s) enumerated", len(profiles))
}

// chooseSampleCount returns the highest sample count supported by both the
// color and depth framebuffer limits, checked from highest to lowest.
func chooseSampleCount(colorCounts, depthCounts core1_0.SampleCountFlags) core1_0.SampleCountFlags {
	counts := colorCounts & depthCounts

	ordered := []core1_0.SampleCountFlags{
		core1_0.Samples64,
		core1_0.Samples32,
		core1_0.Samples16,
		core1_0.Samples8,
		core1_0.Samples4,
		core1_0.Samples2,
	}
	for _, count := range ordered {
		if (counts & count) != 0 {
			return count
		}
	}
	return core1_0.Samples1
}

func (b *Backend) queryDeviceProfile(device core1_0.PhysicalDevice) (deviceProfile, error) {
	profile := deviceProfile{device: device}

	properties, err := b.instanceDriver.GetPhysicalDeviceProperties(device)
	if err != nil {
		return profile, err
	}
	profile.name = properties.DeviceName
	profile.colorSampleCounts = properties.Limits.FramebufferColorSampleCounts
	profile.depthSampleCounts = properties.Limits.FramebufferDepthSampleCounts

	formats, _, err := b.surfaceExtension.GetPhysicalDeviceSurfaceFormats(b.surface, device)
	if err != nil {
		return profile, err
	}
	profile.formatCount = len(formats)

	presentModes, _, err := b.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(b.surface, device)
	if err != nil {
		return profile, err
	}
	profile.presentModeCount = len(presentModes)

	extensions, _, err := b.instanceDriver.EnumerateDeviceExtensionProperties(device)
	if err != nil {
		return profile, err
	}
	profile.extensions = make(map[string]bool, len(extensions))
	for name := range extensions {
		profile.extensions[name] = true
	}

	queueFamilies := b.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(device)
	for familyIdx, family := range queueFamilies {
		supported, _, err := b.surfaceExtension.GetPhysicalDeviceSurfaceSupport(b.surface, device, familyIdx)
		if err != nil {
			return profile, err
		}

		profile.queueFamilies = append(profile.queueFamilies, queueFamilyInfo{
			flags:      family.QueueFlags,
			canPresent: supported,
		})
	}

	return profile, nil
}

// gatherDeviceProfiles snapshots every enumerated device concurrently,
// preserving enumeration order.
func (b *Backend) gatherDeviceProfiles() ([]deviceProfile, error) {
	devices, _, err := b.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return nil, err
	}

	profiles := make([]deviceProfile, len(devices))
	group, _ := errgroup.WithContext(context.Background())
	for i, device := range devices {
		i, device := i, device
		group.Go(func() error {
			profile, err := b.queryDeviceProfile(device)
			if err != nil {
				return err
			}
			profiles[i] = profile
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return profiles, nil
}

func (b *Backend) pickPhysicalDevice() error {
	profiles, err := b.gatherDeviceProfiles()
	if err != nil {
		return err
	}

	chosen, err := selectDevice(profiles, b.config.DeviceExtensions)
	if err != nil {
		return err
	}

	b.physicalDevice = chosen.device
	b.graphicsFamily, _ = chosen.graphicsFamily()
	b.presentFamily, _ = chosen.presentFamily()
	b.sampleCount = chooseSampleCount(chosen.colorSampleCounts, chosen.depthSampleCounts)

	return nil
}

func (b *Backend) createLogicalDevice() error {
	uniqueQueueFamilies := []int{b.graphicsFamily}
	if b.presentFamily != b.graphicsFamily {
		uniqueQueueFamilies = append(uniqueQueueFamilies, b.presentFamily)
	}

	var queueOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range uniqueQueueFamilies {
		queueOptions = append(queueOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, b.config.DeviceExtensions...)

	// Devices that advertise the portability subset require it to be enabled.
	extensions, _, err := b.instanceDriver.EnumerateDeviceExtensionProperties(b.physicalDevice)
	if err != nil {
		return err
	}

	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	deviceOptions := core1_0.DeviceCreateInfo{
		QueueCreateInfos: queueOptions,
		EnabledFeatures: &core1_0.PhysicalDeviceFeatures{
			SamplerAnisotropy: true,
		},
		EnabledExtensionNames: extensionNames,
	}
	deviceOptions.Next = core1_2.PhysicalDeviceVulkan12Features{
		ScalarBlockLayout:  true,
		DescriptorIndexing: true,
	}

	b.deviceDriver, _, err = b.instanceDriver.CreateDevice(b.physicalDevice, nil, deviceOptions)
	if err != nil {
		return errors.Mark(err, ErrDeviceCreate)
	}

	b.graphicsQueue = b.deviceDriver.GetQueue(b.graphicsFamily, 0)
	b.presentQueue = b.deviceDriver.GetQueue(b.presentFamily, 0)

	return nil
}
