package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagModel     = flag.String("model", "", "Input model document path")
	flagOutput    = flag.String("output", "", "Prefab output path")
	flagTheme     = flag.String("theme", "", "Theme output path")
	flagName      = flag.String("name", "", "Output prefab name")
	flagDepth     = flag.Int("depth", -1, "Shading depth (0 for no shading)")
	flagWidth     = flag.Float64("width", 0, "Viewport width")
	flagHeight    = flag.Float64("height", 0, "Viewport height")
	flagFrameRate = flag.Float64("framerate", 0, "Frames per second")
	flagDuration  = flag.Float64("duration", 0, "Duration in seconds")
	flagClip      = flag.String("clip", "", "Animation clip name (\"none\" for the bind pose)")
	flagPreview   = flag.String("preview", "", "Preview output path (.webp or .tga)")
	flagSave      = flag.String("save-config", "", "Write the effective config to this path")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SavePath returns the path given via --save-config.
func SavePath() string {
	return *flagSave
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagModel != "" {
		cfg.Input.Model = *flagModel
	}
	if *flagOutput != "" {
		cfg.Output.Prefab = *flagOutput
	}
	if *flagTheme != "" {
		cfg.Output.Theme = *flagTheme
	}
	if *flagName != "" {
		cfg.Output.Name = *flagName
	}
	if *flagDepth >= 0 {
		cfg.Render.ShadingDepth = *flagDepth
	}
	if *flagWidth > 0 {
		cfg.Render.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Render.Height = *flagHeight
	}
	if *flagFrameRate > 0 {
		cfg.Render.FrameRate = *flagFrameRate
	}
	if *flagDuration > 0 {
		cfg.Render.Duration = *flagDuration
	}
	if *flagClip != "" {
		cfg.Animation.Clip = *flagClip
	}
	if *flagPreview != "" {
		cfg.Preview.Path = *flagPreview
	}
}
