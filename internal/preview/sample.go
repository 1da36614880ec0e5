package preview

import (
	"errors"
	gomath "math"

	"github.com/Faultbox/trifold/internal/convert"
	"github.com/Faultbox/trifold/internal/prefab"
	"github.com/Faultbox/trifold/pkg/math"
)

// ErrNoViewport is returned for a prefab without an empty root object.
var ErrNoViewport = errors.New("preview: prefab has no viewport object")

const timeEpsilon = 1e-9

// Viewport returns the empty root object the triangles are parented to.
func Viewport(pf *prefab.Prefab) (*prefab.Object, error) {
	if pf == nil {
		return nil, ErrNoViewport
	}
	for _, o := range pf.Objects {
		if o.ParentID == "" && o.Type == prefab.ObjectEmpty {
			return o, nil
		}
	}
	return nil, ErrNoViewport
}

// FrameTimes returns the sample times of a prefab: every frameDuration from
// zero up to, but excluding, the viewport lifetime.
func FrameTimes(pf *prefab.Prefab, frameDuration float64) ([]float64, error) {
	root, err := Viewport(pf)
	if err != nil {
		return nil, err
	}
	if frameDuration <= 0 {
		return nil, ErrNoFrames
	}

	var times []float64
	for i := 0; ; i++ {
		t := float64(i) * frameDuration
		if t >= root.AutoKill.Offset {
			break
		}
		times = append(times, t)
	}
	if len(times) == 0 {
		return nil, ErrNoFrames
	}
	return times, nil
}

// Sample evaluates the viewport's children at time t the way the editor
// plays them back: keyframes hold until the next one, rotation keyframes
// accumulate, and fixed-lifetime objects vanish after their offset.
// Values stay viewport-relative; the root transform is not applied.
func Sample(pf *prefab.Prefab, t float64) ([]convert.PrefabTriangle, error) {
	root, err := Viewport(pf)
	if err != nil {
		return nil, err
	}

	var out []convert.PrefabTriangle
	for _, o := range pf.Children(root) {
		if o.Shape != prefab.ShapeTriangle {
			continue
		}
		local := t - o.StartTime
		if local < -timeEpsilon {
			continue
		}
		if o.AutoKill.Type == prefab.AutoKillFixed && local >= o.AutoKill.Offset-timeEpsilon {
			continue
		}

		pos, ok := vectorAt(o.Events.Position, local)
		if !ok {
			continue
		}
		scale, _ := vectorAt(o.Events.Scale, local)
		color, _ := colorAt(o.Events.Color, local)

		out = append(out, convert.PrefabTriangle{
			Position: math.Vec2{X: pos.X, Y: pos.Y},
			Scale:    math.Vec2{X: scale.X, Y: scale.Y},
			Rotation: rotationAt(o.Events.Rotation, local) * gomath.Pi / 180,
			Depth:    float64(o.RenderDepth),
			Color:    color,
		})
	}
	return out, nil
}

func vectorAt(track []prefab.VectorKeyframe, t float64) (prefab.Vec2, bool) {
	var v prefab.Vec2
	found := false
	for _, k := range track {
		if k.Time > t+timeEpsilon {
			break
		}
		v, found = k.Value, true
	}
	return v, found
}

func colorAt(track []prefab.ColorKeyframe, t float64) (int, bool) {
	v, found := 0, false
	for _, k := range track {
		if k.Time > t+timeEpsilon {
			break
		}
		v, found = k.Value, true
	}
	return v, found
}

// rotationAt sums the deltas up to t, in degrees.
func rotationAt(track []prefab.RotationKeyframe, t float64) float64 {
	sum := 0.0
	for _, k := range track {
		if k.Time > t+timeEpsilon {
			break
		}
		sum += k.Value
	}
	return sum
}
