// Package convert turns an animated model into a prefab of right-triangle
// objects.
package convert

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/trifold/internal/convert/compress"
	"github.com/Faultbox/trifold/internal/convert/geometry"
	"github.com/Faultbox/trifold/internal/convert/palette"
	"github.com/Faultbox/trifold/internal/engine/animation"
	"github.com/Faultbox/trifold/internal/engine/camera"
	"github.com/Faultbox/trifold/internal/engine/pipeline"
	"github.com/Faultbox/trifold/internal/engine/shader"
	"github.com/Faultbox/trifold/internal/logger"
	"github.com/Faultbox/trifold/internal/prefab"
	"github.com/Faultbox/trifold/internal/scene"
	"github.com/Faultbox/trifold/pkg/math"
)

// ErrInvalidOptions is returned for non-positive timing or viewport values.
var ErrInvalidOptions = errors.New("convert: invalid options")

// Object names in the produced prefab.
const (
	ViewportName = "Viewport"
	TriangleName = "Triangle"
)

// PrefabTriangle is a placed primitive with its depth key and palette index.
type PrefabTriangle = compress.Triangle

// Options are the run parameters.
type Options struct {
	Name          string
	Duration      float64 // seconds
	FrameDuration float64 // seconds between samples
	Width, Height float64 // viewport size, also the root object's scale
	ShadingDepth  int     // 0 disables lighting
}

// Validate checks the options.
func (o Options) Validate() error {
	switch {
	case o.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidOptions, o.Duration)
	case o.FrameDuration <= 0:
		return fmt.Errorf("%w: frame duration must be positive, got %g", ErrInvalidOptions, o.FrameDuration)
	case o.Width <= 0 || o.Height <= 0:
		return fmt.Errorf("%w: viewport must be positive, got %gx%g", ErrInvalidOptions, o.Width, o.Height)
	case o.ShadingDepth < 0:
		return fmt.Errorf("%w: shading depth must not be negative, got %d", ErrInvalidOptions, o.ShadingDepth)
	}
	return nil
}

// Stage names a phase of the run.
type Stage string

const (
	StageRender   Stage = "render"
	StageCompress Stage = "compress"
)

// Progress is reported once per frame and stage.
type Progress struct {
	Stage  Stage
	Frame  int
	Frames int // known after rendering, 0 while rendering
	Time   float64
}

// Observer receives progress updates.
type Observer func(Progress)

// Frame is the primitive set of one sampled time.
type Frame struct {
	Time      float64
	Triangles []PrefabTriangle
}

// Result is the outcome of a run.
type Result struct {
	Prefab      *prefab.Prefab
	Palette     palette.Palette
	ObjectCount int
	FrameCount  int
	Frames      []Frame
}

// Converter runs the conversion of one model.
type Converter struct {
	Options Options

	// Sampler animates the model. Nil renders the bind pose.
	Sampler *animation.Sampler
	// Camera and Light are used unless the scene variants are enabled.
	Camera camera.Camera
	Light  shader.Light
	// SceneCamera and SceneLight resolve the model's first camera or light
	// every frame, following the animation.
	SceneCamera bool
	SceneLight  bool

	Observer Observer

	model *scene.Model
}

// New returns a converter with the default camera and light.
func New(model *scene.Model, opts Options) *Converter {
	return &Converter{
		Options: opts,
		Camera:  camera.NewPerspective(),
		Light:   shader.DefaultLight(),
		model:   model,
	}
}

// Run renders every frame, compresses the frames into slots and builds the
// prefab. Any error aborts the run.
func (c *Converter) Run() (*Result, error) {
	if err := c.model.CheckOpen(); err != nil {
		return nil, err
	}
	if err := c.Options.Validate(); err != nil {
		return nil, err
	}

	log := logger.Named("convert").With(zap.String("prefab", c.Options.Name))

	start := time.Now()
	pal := palette.Build(c.model.Materials, c.Options.ShadingDepth)
	log.Debug("palette built", zap.Int("colors", len(pal)), zap.Int("shading_depth", c.Options.ShadingDepth))

	frames, err := c.render(log, pal)
	if err != nil {
		return nil, err
	}

	capacity := 0
	for _, f := range frames {
		capacity = max(capacity, len(f.Triangles))
	}

	pool := compress.NewPool(capacity)
	for i, f := range frames {
		c.report(Progress{Stage: StageCompress, Frame: i, Frames: len(frames), Time: f.Time})
		if err := pool.AddFrame(f.Time, f.Triangles); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}

	objects := pool.Finalize(c.Options.Duration)
	pf := c.buildPrefab(objects)

	log.Info("conversion finished",
		zap.Int("frames", len(frames)),
		zap.Int("slots", capacity),
		zap.Int("objects", len(objects)),
		zap.Int("colors", len(pal)),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{
		Prefab:      pf,
		Palette:     pal,
		ObjectCount: len(objects),
		FrameCount:  len(frames),
		Frames:      frames,
	}, nil
}

func (c *Converter) render(log *zap.Logger, pal palette.Palette) ([]Frame, error) {
	var transforms scene.LocalTransformer
	if c.Sampler != nil {
		transforms = c.Sampler
	}

	stage := shader.NewTriangleStage(c.Options.ShadingDepth, c.Light)
	pipe := pipeline.New(c.model, transforms, c.Camera, stage)
	aspect := c.Options.Width / c.Options.Height

	var frames []Frame
	for i := 0; ; i++ {
		t := float64(i) * c.Options.FrameDuration
		if t >= c.Options.Duration {
			break
		}
		c.report(Progress{Stage: StageRender, Frame: i, Time: t})

		if c.Sampler != nil {
			if err := c.Sampler.Update(t); err != nil {
				return nil, fmt.Errorf("frame %d: %w", i, err)
			}
		}

		if c.SceneCamera {
			cam, err := camera.FromScene(c.model, transforms)
			if err != nil {
				return nil, err
			}
			pipe.SetCamera(cam)
		}
		if c.SceneLight {
			light, err := shader.LightFromScene(c.model, transforms)
			if err != nil {
				return nil, err
			}
			stage.Light = light
			pipe.SetStage(stage)
		}

		shaded, err := pipe.Render(aspect)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}

		tris := Primitives(shaded, pal)
		log.Debug("frame rendered",
			zap.Int("frame", i),
			zap.Float64("time", t),
			zap.Int("shaded", len(shaded)),
			zap.Int("primitives", len(tris)))

		frames = append(frames, Frame{Time: t, Triangles: tris})
	}
	return frames, nil
}

// Primitives clips, culls and decomposes the shaded triangles of one frame.
// A triangle survives when its mean depth lies in [0, 1] and it winds
// counter-clockwise on screen.
func Primitives(shaded []pipeline.ShadedTriangle, pal palette.Palette) []PrefabTriangle {
	out := make([]PrefabTriangle, 0, len(shaded)*2)
	for _, tri := range shaded {
		depth := tri.Depth()
		if depth < 0 || depth > 1 {
			continue
		}
		if tri.Winding() < 0 {
			continue
		}

		color := pal.Nearest(tri.Color)
		src := geometry.Triangle{tri.Points[0].XY(), tri.Points[1].XY(), tri.Points[2].XY()}
		for _, p := range geometry.Decompose(src) {
			out = append(out, PrefabTriangle{
				Position: p.Position,
				Scale:    p.Scale,
				Rotation: p.Rotation,
				Depth:    depth,
				Color:    color,
			})
		}
	}
	return out
}

func (c *Converter) buildPrefab(objects []compress.Object) *prefab.Prefab {
	pf := prefab.New(c.Options.Name)

	root := pf.CreateObject(ViewportName)
	root.Type = prefab.ObjectEmpty
	root.Parenting = prefab.Parenting{Position: true, Scale: true, Rotation: true}
	root.AutoKill = prefab.AutoKill{Type: prefab.AutoKillFixed, Offset: c.Options.Duration}
	root.Events = prefab.Events{
		Position: []prefab.VectorKeyframe{{Easing: prefab.EasingLinear}},
		Scale: []prefab.VectorKeyframe{{
			Value:  prefab.Vec2{X: c.Options.Width, Y: c.Options.Height},
			Easing: prefab.EasingLinear,
		}},
		Rotation: []prefab.RotationKeyframe{{Easing: prefab.EasingLinear}},
		Color:    []prefab.ColorKeyframe{{Easing: prefab.EasingLinear}},
	}

	for _, o := range objects {
		obj := pf.CreateObject(TriangleName)
		obj.Type = prefab.ObjectDecoration
		obj.Shape = prefab.ShapeTriangle
		obj.ShapeOption = prefab.TriangleRightAngledSolid
		obj.Origin = prefab.Vec2{X: 0.5, Y: 0.5}
		obj.Parenting = prefab.Parenting{Position: true, Scale: true, Rotation: true}
		obj.StartTime = o.StartTime
		obj.AutoKill = prefab.AutoKill{Type: prefab.AutoKillFixed, Offset: o.Lifetime}
		obj.RenderDepth = o.RenderDepth
		obj.Events = events(o)
		pf.AddChild(root, obj)
	}
	return pf
}

func events(o compress.Object) prefab.Events {
	var ev prefab.Events
	for _, k := range o.Position {
		ev.Position = append(ev.Position, prefab.VectorKeyframe{
			Time: k.Time, Value: vec2(k.Value), Easing: prefab.EasingInstant,
		})
	}
	for _, k := range o.Scale {
		ev.Scale = append(ev.Scale, prefab.VectorKeyframe{
			Time: k.Time, Value: vec2(k.Value), Easing: prefab.EasingInstant,
		})
	}
	for _, k := range o.Rotation {
		ev.Rotation = append(ev.Rotation, prefab.RotationKeyframe{
			Time: k.Time, Value: k.Value, Easing: prefab.EasingInstant,
		})
	}
	for _, k := range o.Color {
		ev.Color = append(ev.Color, prefab.ColorKeyframe{
			Time: k.Time, Value: k.Value, Easing: prefab.EasingInstant,
		})
	}
	return ev
}

func vec2(v math.Vec2) prefab.Vec2 {
	return prefab.Vec2{X: v.X, Y: v.Y}
}

func (c *Converter) report(p Progress) {
	if c.Observer != nil {
		c.Observer(p)
	}
}
