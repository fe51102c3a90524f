package compositor

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/compositor/animation"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/scroll"
)

// Settings are the static configuration of a Pipeline.
//
// Settings load from YAML:
//
//	commit_to_active_tree: false
//	max_memory_for_prepaint_percentage: 100
//	gpu_rasterization_enabled: true
//	gpu_rasterization_msaa_sample_count: -1
//	scrollbar_fade_delay: 300ms
//	memory_policy:
//	  bytes_limit_when_visible: 67108864
//	  priority_cutoff_when_visible: 3
type Settings struct {
	// CommitToActiveTree commits straight into the active tree, without a
	// pending tree.
	CommitToActiveTree bool `yaml:"commit_to_active_tree" mapstructure:"commit_to_active_tree"`

	// MaxMemoryForPrepaintPercentage is the soft raster limit as a
	// percentage of the hard limit.
	MaxMemoryForPrepaintPercentage int `yaml:"max_memory_for_prepaint_percentage" mapstructure:"max_memory_for_prepaint_percentage"`

	GPURasterizationForced  bool `yaml:"gpu_rasterization_forced" mapstructure:"gpu_rasterization_forced"`
	GPURasterizationEnabled bool `yaml:"gpu_rasterization_enabled" mapstructure:"gpu_rasterization_enabled"`

	// GPURasterizationMSAASampleCount is the requested MSAA sample count;
	// -1 picks one from the device scale.
	GPURasterizationMSAASampleCount int `yaml:"gpu_rasterization_msaa_sample_count" mapstructure:"gpu_rasterization_msaa_sample_count"`

	// MaxMSAASamples is the device sample limit, 0 when MSAA is slow.
	MaxMSAASamples int `yaml:"max_msaa_samples" mapstructure:"max_msaa_samples"`

	// RasterWorkers is the tile worker count, 0 for GOMAXPROCS.
	RasterWorkers int `yaml:"raster_workers" mapstructure:"raster_workers"`

	SnapAngleDegrees float64 `yaml:"snap_angle_degrees" mapstructure:"snap_angle_degrees"`

	ScrollbarFadeDelay    time.Duration `yaml:"scrollbar_fade_delay" mapstructure:"scrollbar_fade_delay"`
	ScrollbarFadeDuration time.Duration `yaml:"scrollbar_fade_duration" mapstructure:"scrollbar_fade_duration"`
	ScrollbarThinDuration time.Duration `yaml:"scrollbar_thin_duration" mapstructure:"scrollbar_thin_duration"`

	ShowFPSCounter bool `yaml:"show_fps_counter" mapstructure:"show_fps_counter"`

	MemoryPolicy raster.MemoryPolicy `yaml:"memory_policy" mapstructure:"memory_policy"`
}

// DefaultSettings returns the settings used when none are given.
func DefaultSettings() Settings {
	sb := animation.DefaultScrollbarSettings()
	return Settings{
		MaxMemoryForPrepaintPercentage:  100,
		GPURasterizationEnabled:         true,
		GPURasterizationMSAASampleCount: -1,
		MaxMSAASamples:                  8,
		SnapAngleDegrees:                scroll.DefaultSnapAngleDegrees,
		ScrollbarFadeDelay:              sb.FadeDelay,
		ScrollbarFadeDuration:           sb.FadeDuration,
		ScrollbarThinDuration:           sb.ThinDuration,
		MemoryPolicy:                    raster.DefaultMemoryPolicy(),
	}
}

// Validate reports the first out-of-range value, wrapped in
// ErrInvalidSettings.
func (s Settings) Validate() error {
	switch {
	case s.MaxMemoryForPrepaintPercentage < 0 || s.MaxMemoryForPrepaintPercentage > 100:
		return fmt.Errorf("%w: max_memory_for_prepaint_percentage %d not in [0, 100]",
			ErrInvalidSettings, s.MaxMemoryForPrepaintPercentage)
	case s.GPURasterizationMSAASampleCount < -1:
		return fmt.Errorf("%w: gpu_rasterization_msaa_sample_count %d",
			ErrInvalidSettings, s.GPURasterizationMSAASampleCount)
	case s.MaxMSAASamples < 0:
		return fmt.Errorf("%w: max_msaa_samples %d", ErrInvalidSettings, s.MaxMSAASamples)
	case s.RasterWorkers < 0:
		return fmt.Errorf("%w: raster_workers %d", ErrInvalidSettings, s.RasterWorkers)
	case s.SnapAngleDegrees < 0 || s.SnapAngleDegrees > 90:
		return fmt.Errorf("%w: snap_angle_degrees %g not in [0, 90]", ErrInvalidSettings, s.SnapAngleDegrees)
	case s.ScrollbarFadeDelay < 0 || s.ScrollbarFadeDuration < 0 || s.ScrollbarThinDuration < 0:
		return fmt.Errorf("%w: negative scrollbar duration", ErrInvalidSettings)
	case s.MemoryPolicy.NumResourcesLimit < 0:
		return fmt.Errorf("%w: memory_policy.num_resources_limit %d",
			ErrInvalidSettings, s.MemoryPolicy.NumResourcesLimit)
	}
	return nil
}

func (s Settings) scrollbarSettings() animation.ScrollbarSettings {
	return animation.ScrollbarSettings{
		FadeDelay:    s.ScrollbarFadeDelay,
		FadeDuration: s.ScrollbarFadeDuration,
		ThinDuration: s.ScrollbarThinDuration,
	}
}

// ParseSettings decodes YAML on top of DefaultSettings and validates the
// result.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("compositor: parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadSettings reads and parses a YAML settings file.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("compositor: load settings: %w", err)
	}
	return ParseSettings(data)
}

// ApplyOverrides decodes key=value pairs into s. Keys are the YAML names;
// nested fields use dots, as in memory_policy.bytes_limit_when_visible.
// Values are converted to the field type.
func (s *Settings) ApplyOverrides(pairs []string) error {
	tree := make(map[string]any)
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return fmt.Errorf("%w: override %q is not key=value", ErrInvalidSettings, kv)
		}
		insertPath(tree, strings.Split(key, "."), value)
	}

	out := *s
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &out,
	})
	if err != nil {
		return fmt.Errorf("compositor: override decoder: %w", err)
	}
	if err := dec.Decode(tree); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*s = out
	return nil
}

func insertPath(m map[string]any, path []string, value string) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}
