package raster

// GPURasterStatus is the outcome of the GPU rasterization decision table.
type GPURasterStatus int

const (
	// GPURasterOffDevice means the device or driver does not allow GPU raster.
	GPURasterOffDevice GPURasterStatus = iota

	// GPURasterOnForced means GPU raster is forced on by settings.
	GPURasterOnForced

	// GPURasterOffViewport means content carries no GPU raster trigger.
	GPURasterOffViewport

	// GPURasterOn means GPU raster is used for suitable content.
	GPURasterOn

	// GPURasterMsaaContent means GPU raster is used with multisampling
	// because content is unsuitable for the non-MSAA path.
	GPURasterMsaaContent

	// GPURasterOffContent means content is unsuitable and MSAA is unavailable.
	GPURasterOffContent
)

// String returns the status name.
func (s GPURasterStatus) String() string {
	switch s {
	case GPURasterOffDevice:
		return "OffDevice"
	case GPURasterOnForced:
		return "OnForced"
	case GPURasterOffViewport:
		return "OffViewport"
	case GPURasterOn:
		return "On"
	case GPURasterMsaaContent:
		return "MsaaContent"
	case GPURasterOffContent:
		return "OffContent"
	default:
		return "Unknown"
	}
}

// GPURasterInputs are the facts the decision table is evaluated over.
type GPURasterInputs struct {
	// Forced is the gpu_rasterization_forced setting.
	Forced bool

	// DeviceEnabled reports whether the device allows GPU raster.
	DeviceEnabled bool

	// HasTrigger reports whether content requested GPU raster.
	HasTrigger bool

	// ContentSuitable reports whether content rasterizes well without MSAA.
	ContentSuitable bool

	// RequestedSamples is the MSAA sample count asked for (see RequestedMSAASampleCount).
	RequestedSamples int

	// MaxSamples is the device limit, 0 when MSAA is slow on the device.
	MaxSamples int

	// CurrentlyUsingGPU reports whether GPU raster is already in use.
	CurrentlyUsingGPU bool

	// CanUseGPU reports whether a GPU raster context can be created now.
	CanUseGPU bool
}

// GPURasterDecision is the result of DecideGPURasterization.
type GPURasterDecision struct {
	Status  GPURasterStatus
	UseGPU  bool
	UseMSAA bool
}

// DecideGPURasterization evaluates the GPU rasterization decision table.
//
// Order of precedence:
//   - Forced: on, falling back to MSAA when content is unsuitable and MSAA is usable
//   - Device disabled: off
//   - No trigger: off
//   - Suitable content: on
//   - MSAA usable: on with MSAA
//   - Otherwise: off for content
//
// Switching to GPU when it is not already in use additionally requires
// CanUseGPU; otherwise the result is OffDevice.
func DecideGPURasterization(in GPURasterInputs) GPURasterDecision {
	msaaUsable := in.RequestedSamples > 0 && in.MaxSamples >= in.RequestedSamples

	var d GPURasterDecision
	switch {
	case in.Forced:
		d = GPURasterDecision{Status: GPURasterOnForced, UseGPU: true}
		if !in.ContentSuitable && msaaUsable {
			d.UseMSAA = true
			d.Status = GPURasterMsaaContent
		}
	case !in.DeviceEnabled:
		d.Status = GPURasterOffDevice
	case !in.HasTrigger:
		d.Status = GPURasterOffViewport
	case in.ContentSuitable:
		d = GPURasterDecision{Status: GPURasterOn, UseGPU: true}
	case msaaUsable:
		d = GPURasterDecision{Status: GPURasterMsaaContent, UseGPU: true, UseMSAA: true}
	default:
		d.Status = GPURasterOffContent
	}

	if d.UseGPU && !in.CurrentlyUsingGPU && !in.CanUseGPU {
		return GPURasterDecision{Status: GPURasterOffDevice}
	}
	return d
}

// RequestedMSAASampleCount resolves the MSAA sample count setting.
// A setting of -1 picks 4 samples on high density displays and 8 otherwise.
func RequestedMSAASampleCount(setting int, deviceScale float64) int {
	if setting == -1 {
		if deviceScale >= 2 {
			return 4
		}
		return 8
	}
	return setting
}
