// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestHeadlessHasNoDevice(t *testing.T) {
	tests := []struct {
		name   string
		handle DeviceHandle
		format gputypes.TextureFormat
	}{
		{"zero", Headless{}, gputypes.TextureFormatUndefined},
		{"readback format", Headless{Format: gputypes.TextureFormatRGBA8Unorm}, gputypes.TextureFormatRGBA8Unorm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if HasDevice(tt.handle) {
				t.Error("HasDevice() = true, want false")
			}
			if tt.handle.Queue() != nil || tt.handle.Adapter() != nil {
				t.Error("headless handle should expose no queue or adapter")
			}
			if got := tt.handle.SurfaceFormat(); got != tt.format {
				t.Errorf("SurfaceFormat() = %v, want %v", got, tt.format)
			}
		})
	}
}

func TestHasDeviceNil(t *testing.T) {
	if HasDevice(nil) {
		t.Error("HasDevice(nil) = true, want false")
	}
}
