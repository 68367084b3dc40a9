package backend

import (
	"bytes"
	"encoding/binary"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// DefaultPipelineCachePath is where the pipeline cache blob is persisted
// between runs when the caller does not override it.
const DefaultPipelineCachePath = "pipeline_cache_data.bin"

// createPipelineCache creates the device pipeline cache once, seeded from the
// on-disk blob when its header still matches the selected device. A stale or
// corrupt blob is discarded; it never fails bring-up.
func (b *Backend) createPipelineCache() error {
	props, err := b.instanceDriver.GetPhysicalDeviceProperties(b.physicalDevice)
	if err != nil {
		return err
	}

	cacheData, err := os.ReadFile(b.cachePath)
	if err != nil && !os.IsNotExist(err) {
		log.Printf("pipeline cache: cannot read %s: %v", b.cachePath, err)
		cacheData = nil
	}

	if cacheData != nil {
		reason := validateCacheHeader(cacheData, props.VendorID, props.DeviceID, props.PipelineCacheUUID)
		if reason != "" {
			log.Printf("pipeline cache: discarding %s: %s", b.cachePath, reason)
			cacheData = nil
			// Clear the stale blob so the next run starts clean.
			_ = os.Remove(b.cachePath)
		}
	}

	b.pipelineCache, _, err = b.deviceDriver.CreatePipelineCache(nil, core1_0.PipelineCacheCreateInfo{
		InitialData: cacheData,
	})
	return err
}

// savePipelineCache writes the cache blob back to disk so later runs skip
// redundant pipeline compilation. Called during teardown, before the cache is
// destroyed; failures are logged and ignored.
func (b *Backend) savePipelineCache() {
	cacheData, _, err := b.deviceDriver.GetPipelineCacheData(b.pipelineCache)
	if err != nil {
		log.Printf("pipeline cache: cannot retrieve data: %v", err)
		return
	}

	err = os.WriteFile(b.cachePath, cacheData, 0o644)
	if err != nil {
		log.Printf("pipeline cache: cannot write %s: %v", b.cachePath, err)
	}
}

// validateCacheHeader checks a pipeline cache blob's header against the
// device it is about to seed. It returns a non-empty reason when the blob
// must not be used.
//
// Header layout (Vulkan pipeline cache header version one):
//
//	Offset  Size          Meaning
//	     0  4             length in bytes of the entire header
//	     4  4             VkPipelineCacheHeaderVersion value
//	     8  4             vendor ID
//	    12  4             device ID
//	    16  VK_UUID_SIZE  pipeline cache UUID
//
// All fields little-endian.
func validateCacheHeader(cacheData []byte, vendorID, deviceID uint32, cacheUUID uuid.UUID) string {
	var headerLength uint32
	var headerVersion common.PipelineCacheHeaderVersion
	var blobVendorID, blobDeviceID uint32
	var blobUUID uuid.UUID

	reader := bytes.NewReader(cacheData)
	fields := []interface{}{&headerLength, &headerVersion, &blobVendorID, &blobDeviceID, &blobUUID}
	for _, field := range fields {
		if err := binary.Read(reader, common.ByteOrder, field); err != nil {
			return "truncated header"
		}
	}

	if headerLength == 0 {
		return "bad header length"
	}
	if headerVersion != common.PipelineCacheHeaderVersion1 {
		return "unsupported header version"
	}
	if blobVendorID != vendorID {
		return "vendor ID mismatch"
	}
	if blobDeviceID != deviceID {
		return "device ID mismatch"
	}
	if blobUUID != cacheUUID {
		return "pipeline cache UUID mismatch"
	}

	return ""
}
