package backend

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
)

func buildCacheBlob(t *testing.T, headerLength uint32, version common.PipelineCacheHeaderVersion, vendorID, deviceID uint32, cacheUUID uuid.UUID) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	for _, field := range []interface{}{headerLength, version, vendorID, deviceID, cacheUUID} {
		if err := binary.Write(buf, common.ByteOrder, field); err != nil {
			t.Fatalf("building blob: %v", err)
		}
	}
	return buf.Bytes()
}

func TestValidateCacheHeaderAccepts(t *testing.T) {
	cacheUUID := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	blob := buildCacheBlob(t, 32, common.PipelineCacheHeaderVersion1, 0x10de, 0x2204, cacheUUID)

	if reason := validateCacheHeader(blob, 0x10de, 0x2204, cacheUUID); reason != "" {
		t.Errorf("expected valid header, got: %s", reason)
	}
}

func TestValidateCacheHeaderRejects(t *testing.T) {
	cacheUUID := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	otherUUID := uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		name string
		blob []byte
	}{
		{"truncated", []byte{1, 2, 3}},
		{"empty", nil},
		{"zero header length", buildCacheBlob(t, 0, common.PipelineCacheHeaderVersion1, 0x10de, 0x2204, cacheUUID)},
		{"vendor mismatch", buildCacheBlob(t, 32, common.PipelineCacheHeaderVersion1, 0x8086, 0x2204, cacheUUID)},
		{"device mismatch", buildCacheBlob(t, 32, common.PipelineCacheHeaderVersion1, 0x10de, 0x9999, cacheUUID)},
		{"uuid mismatch", buildCacheBlob(t, 32, common.PipelineCacheHeaderVersion1, 0x10de, 0x2204, otherUUID)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if reason := validateCacheHeader(test.blob, 0x10de, 0x2204, cacheUUID); reason == "" {
				t.Error("expected rejection, header validated")
			}
		})
	}
}
