package main

import (
	"fmt"
	"io"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/trifold/internal/config"
	"github.com/Faultbox/trifold/internal/convert"
	"github.com/Faultbox/trifold/internal/engine/animation"
	"github.com/Faultbox/trifold/internal/engine/camera"
	"github.com/Faultbox/trifold/internal/engine/shader"
	"github.com/Faultbox/trifold/internal/logger"
	"github.com/Faultbox/trifold/internal/prefab"
	"github.com/Faultbox/trifold/internal/preview"
	"github.com/Faultbox/trifold/internal/scene"
	"github.com/Faultbox/trifold/pkg/math"
)

// run imports the model, converts it and writes every requested output.
func run(cfg *config.Config) (*convert.Result, error) {
	var importer scene.Importer = scene.DocumentImporter{}
	model, err := importer.Import(cfg.Input.Model)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", cfg.Input.Model, err)
	}
	defer model.Close()

	logger.Info("model imported",
		zap.String("path", cfg.Input.Model),
		zap.Int("nodes", len(model.Nodes())),
		zap.Int("meshes", len(model.Meshes)),
		zap.Int("clips", len(model.Clips)))

	conv := convert.New(model, convert.Options{
		Name:          cfg.Output.Name,
		Duration:      cfg.Render.Duration,
		FrameDuration: cfg.Render.FrameDuration(),
		Width:         cfg.Render.Width,
		Height:        cfg.Render.Height,
		ShadingDepth:  cfg.Render.ShadingDepth,
	})
	conv.Camera = cameraFromConfig(cfg.Camera)
	conv.Light = lightFromConfig(cfg.Light)
	conv.SceneCamera = cfg.Camera.Source == config.SourceScene
	conv.SceneLight = cfg.Light.Source == config.SourceScene
	conv.Observer = func(p convert.Progress) {
		logger.Debug("progress", zap.String("stage", string(p.Stage)), zap.Int("frame", p.Frame), zap.Float64("time", p.Time))
	}

	sampler, err := samplerFor(model, cfg.Animation.Clip)
	if err != nil {
		return nil, err
	}
	conv.Sampler = sampler

	res, err := conv.Run()
	if err != nil {
		return nil, err
	}

	if err := res.Prefab.ExportToFile(cfg.Output.Prefab); err != nil {
		return nil, fmt.Errorf("export prefab: %w", err)
	}

	if cfg.Output.Theme != "" {
		theme := prefab.NewTheme(cfg.Output.Name)
		hexes := make([]string, len(res.Palette))
		for i := range res.Palette {
			hexes[i] = res.Palette.Hex(i)
		}
		if err := theme.SetObjects(hexes); err != nil {
			return nil, err
		}
		if err := theme.ExportToFile(cfg.Output.Theme); err != nil {
			return nil, fmt.Errorf("export theme: %w", err)
		}
	}

	if cfg.Preview.Path != "" || cfg.Preview.FramesDir != "" {
		if err := writePreview(cfg, res); err != nil {
			return nil, fmt.Errorf("preview: %w", err)
		}
	}

	return res, nil
}

func writePreview(cfg *config.Config, res *convert.Result) error {
	opts := preview.DefaultOptions()
	opts.Width, opts.Height = cfg.Preview.Width, cfg.Preview.Height
	opts.Supersample = cfg.Preview.Supersample
	opts.Workers = cfg.Preview.Workers
	opts.FrameDuration = cfg.Render.FrameDuration()

	images, err := preview.Render(res.Prefab, res.Palette, opts)
	if err != nil {
		return err
	}

	if cfg.Preview.Path != "" {
		if err := preview.Save(cfg.Preview.Path, images, opts.FrameDuration); err != nil {
			return err
		}
	}
	if cfg.Preview.FramesDir != "" {
		paths, err := preview.NewFrameDump(cfg.Preview.FramesDir, cfg.Output.Name).Write(images)
		if err != nil {
			return err
		}
		logger.Info("preview frames written", zap.String("dir", cfg.Preview.FramesDir), zap.Int("files", len(paths)))
	}
	return nil
}

// samplerFor returns a sampler playing the named clip. An empty name picks
// the first clip; ClipNone and clip-less models render the bind pose.
func samplerFor(model *scene.Model, name string) (*animation.Sampler, error) {
	if name == config.ClipNone || (name == "" && len(model.Clips) == 0) {
		return nil, nil
	}

	var clip *scene.Clip
	if name == "" {
		clip = &model.Clips[0]
	} else {
		var ok bool
		if clip, ok = model.Clip(name); !ok {
			return nil, fmt.Errorf("animation clip %q not found", name)
		}
	}

	s := animation.NewSampler(model)
	if err := s.SetClip(clip); err != nil {
		return nil, fmt.Errorf("clip %q: %w", clip.Name, err)
	}
	logger.Info("clip selected", zap.String("clip", clip.Name), zap.Float64("ticks", clip.DurationTicks))
	return s, nil
}

func cameraFromConfig(c config.CameraConfig) camera.Camera {
	cam := camera.NewPerspective()
	if c.Projection == config.ProjectionOrthographic {
		cam = camera.NewOrthographic()
	}
	if c.Position != nil {
		cam.Position = math.Vec3{X: c.Position[0], Y: c.Position[1], Z: c.Position[2]}
	}
	if c.HasDepthRange() {
		cam.Near, cam.Far = c.Near, c.Far
	}
	if c.FOV > 0 {
		cam.FOV = c.FOV * gomath.Pi / 180
	}
	if c.Size > 0 {
		cam.Size = c.Size
	}
	return cam
}

func lightFromConfig(c config.LightConfig) shader.Light {
	light := shader.DefaultLight()
	dir := math.Vec3{X: c.Direction[0], Y: c.Direction[1], Z: c.Direction[2]}
	if c.Source == config.SourceSun {
		dir = shader.SunDirection(c.Azimuth, c.Elevation)
	}
	if dir.Length() > 0 {
		light.Direction = dir.Normalize()
	}
	light.Color = math.Vec3{X: c.Color[0], Y: c.Color[1], Z: c.Color[2]}
	light.Ambient = math.Vec3{X: c.Ambient, Y: c.Ambient, Z: c.Ambient}
	return light
}

func printSummary(w io.Writer, cfg *config.Config, res *convert.Result) {
	fmt.Fprintf(w, "Rendered %d frames.\n", res.FrameCount)
	fmt.Fprintf(w, "Exported prefab to '%s'. (%d objects, %d colors)\n",
		cfg.Output.Prefab, res.ObjectCount, len(res.Palette))
	if cfg.Output.Theme != "" {
		fmt.Fprintf(w, "Exported theme to '%s'.\n", cfg.Output.Theme)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Theme object colors:")
	for i := range res.Palette {
		fmt.Fprintf(w, "  %d: %s\n", i+1, res.Palette.Hex(i))
	}
}
