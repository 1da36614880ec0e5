// Package config handles conversion settings loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid")

// Camera and light sources.
const (
	SourceDefault = "default"
	SourceScene   = "scene"
	SourceSun     = "sun" // light only, direction from azimuth and elevation
)

// Projections.
const (
	ProjectionPerspective  = "perspective"
	ProjectionOrthographic = "orthographic"
)

// ClipNone selects the bind pose instead of an animation clip.
const ClipNone = "none"

// Config holds all conversion settings.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Render    RenderConfig    `yaml:"render"`
	Camera    CameraConfig    `yaml:"camera"`
	Light     LightConfig     `yaml:"light"`
	Animation AnimationConfig `yaml:"animation"`
	Preview   PreviewConfig   `yaml:"preview"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// InputConfig holds the model document path.
type InputConfig struct {
	Model string `yaml:"model"`
}

// OutputConfig holds output paths and the prefab name.
type OutputConfig struct {
	Prefab string `yaml:"prefab"`
	Theme  string `yaml:"theme"` // optional
	Name   string `yaml:"name"`
}

// RenderConfig holds sampling and viewport settings.
type RenderConfig struct {
	Duration     float64 `yaml:"duration"`  // seconds
	FrameRate    float64 `yaml:"framerate"` // frames per second
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	ShadingDepth int     `yaml:"shading_depth"` // 0 disables lighting
}

// FrameDuration returns the sampling interval in seconds.
func (r RenderConfig) FrameDuration() float64 {
	return 1 / r.FrameRate
}

// CameraConfig selects and tunes the camera. A zero near/far range and a nil
// position keep the projection's own defaults.
type CameraConfig struct {
	Source     string      `yaml:"source"`
	Projection string      `yaml:"projection"`
	FOV        float64     `yaml:"fov"` // degrees
	Size       float64     `yaml:"size"`
	Near       float64     `yaml:"near,omitempty"`
	Far        float64     `yaml:"far,omitempty"`
	Position   *[3]float64 `yaml:"position,omitempty"`
}

// HasDepthRange reports whether near/far were set.
func (c CameraConfig) HasDepthRange() bool {
	return c.Near != 0 || c.Far != 0
}

// LightConfig selects and tunes the directional light.
type LightConfig struct {
	Source    string     `yaml:"source"`
	Direction [3]float64 `yaml:"direction"`
	Azimuth   float64    `yaml:"azimuth"`   // degrees, sun source
	Elevation float64    `yaml:"elevation"` // degrees, sun source
	Color     [3]float64 `yaml:"color"`
	Ambient   float64    `yaml:"ambient"`
}

// AnimationConfig selects the clip to sample. Empty picks the first clip.
type AnimationConfig struct {
	Clip string `yaml:"clip"`
}

// PreviewConfig holds preview rendering settings.
type PreviewConfig struct {
	Path        string `yaml:"path"`       // .webp or .tga, empty disables
	FramesDir   string `yaml:"frames_dir"` // one PNG per frame, empty disables
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Supersample int    `yaml:"supersample"`
	Workers     int    `yaml:"workers"` // 0 uses all CPUs
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Name: "trifold",
		},
		Render: RenderConfig{
			Duration:     10,
			FrameRate:    4,
			Width:        5,
			Height:       5,
			ShadingDepth: 4,
		},
		Camera: CameraConfig{
			Source:     SourceDefault,
			Projection: ProjectionPerspective,
			FOV:        60,
			Size:       10,
		},
		Light: LightConfig{
			Source:    SourceDefault,
			Direction: [3]float64{0, 0, -1},
			Color:     [3]float64{1, 1, 1},
			Ambient:   0.1,
		},
		Preview: PreviewConfig{
			Width:       256,
			Height:      256,
			Supersample: 2,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks that the config can drive a conversion.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.Input.Model != "", "input.model is required")
	check(c.Output.Prefab != "", "output.prefab is required")
	check(c.Render.Duration > 0, "render.duration must be positive, got %g", c.Render.Duration)
	check(c.Render.FrameRate > 0, "render.framerate must be positive, got %g", c.Render.FrameRate)
	check(c.Render.Width > 0 && c.Render.Height > 0,
		"render viewport must be positive, got %gx%g", c.Render.Width, c.Render.Height)
	check(c.Render.ShadingDepth >= 0, "render.shading_depth must not be negative, got %d", c.Render.ShadingDepth)

	check(c.Camera.Source == SourceDefault || c.Camera.Source == SourceScene,
		"camera.source must be %q or %q, got %q", SourceDefault, SourceScene, c.Camera.Source)
	check(c.Camera.Projection == ProjectionPerspective || c.Camera.Projection == ProjectionOrthographic,
		"camera.projection must be %q or %q, got %q", ProjectionPerspective, ProjectionOrthographic, c.Camera.Projection)
	check(!c.Camera.HasDepthRange() || c.Camera.Far > c.Camera.Near, "camera.far must exceed camera.near")
	check(c.Light.Source == SourceDefault || c.Light.Source == SourceScene || c.Light.Source == SourceSun,
		"light.source must be %q, %q or %q, got %q", SourceDefault, SourceScene, SourceSun, c.Light.Source)

	if c.Preview.Path != "" || c.Preview.FramesDir != "" {
		check(c.Preview.Width > 0 && c.Preview.Height > 0,
			"preview size must be positive, got %dx%d", c.Preview.Width, c.Preview.Height)
		check(c.Preview.Workers >= 0, "preview.workers must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
