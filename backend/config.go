package backend

import (
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
)

// KhronosValidationLayer is the standard validation layer shipped with the
// LunarG Vulkan SDK.
const KhronosValidationLayer = "VK_LAYER_KHRONOS_validation"

// ContextConfig enumerates the capabilities requested from the Vulkan runtime.
// Build it before calling Backend.Setup; the backend treats it as read-only
// afterward.
type ContextConfig struct {
	AppName    string
	EngineName string

	InstanceExtensions []string
	DeviceExtensions   []string
	ValidationLayers   []string

	// Validation toggles the debug messenger and layer verification.
	Validation bool
}

// NewContextConfig returns a config with no extensions or layers requested.
func NewContextConfig(appName string) *ContextConfig {
	return &ContextConfig{
		AppName:    appName,
		EngineName: appName,
	}
}

// AddInstanceExtension requests instance extensions, skipping duplicates.
func (c *ContextConfig) AddInstanceExtension(names ...string) {
	for _, name := range names {
		c.InstanceExtensions = appendUnique(c.InstanceExtensions, name)
	}
}

// AddDeviceExtension requests device extensions, skipping duplicates.
func (c *ContextConfig) AddDeviceExtension(names ...string) {
	for _, name := range names {
		c.DeviceExtensions = appendUnique(c.DeviceExtensions, name)
	}
}

// AddValidationLayer requests validation layers, skipping duplicates.
func (c *ContextConfig) AddValidationLayer(names ...string) {
	for _, name := range names {
		c.ValidationLayers = appendUnique(c.ValidationLayers, name)
	}
}

// SetValidation enables or disables validation. Enabling it requests the
// Khronos validation layer and the debug-utils instance extension.
func (c *ContextConfig) SetValidation(enabled bool) {
	c.Validation = enabled
	if enabled {
		c.AddValidationLayer(KhronosValidationLayer)
		c.AddInstanceExtension(ext_debug_utils.ExtensionName)
	}
}

func appendUnique(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}
