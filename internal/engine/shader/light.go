package shader

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/trifold/internal/scene"
	"github.com/Faultbox/trifold/pkg/math"
)

var (
	// ErrMissingLight is returned when a scene light is requested but the
	// model has none.
	ErrMissingLight = errors.New("shader: model has no light")
	// ErrUnsupportedLightType is returned for lights other than directional.
	ErrUnsupportedLightType = errors.New("shader: unsupported light type")
)

// DefaultAmbient is the ambient term used when none is configured.
const DefaultAmbient = 0.1

// Light is a directional light plus an ambient term.
type Light struct {
	Direction math.Vec3 // direction the light travels
	Color     math.Vec3
	Ambient   math.Vec3
}

// DefaultLight shines down the -Z axis, away from the default camera.
func DefaultLight() Light {
	return Light{
		Direction: math.Vec3{Z: -1},
		Color:     math.Vec3{X: 1, Y: 1, Z: 1},
		Ambient:   math.Vec3{X: DefaultAmbient, Y: DefaultAmbient, Z: DefaultAmbient},
	}
}

// LightFromScene builds a light from the model's first light, oriented by
// its node's world transform. When transforms is nil the bind pose is used.
func LightFromScene(model *scene.Model, transforms scene.LocalTransformer) (Light, error) {
	if len(model.Lights) == 0 {
		return Light{}, ErrMissingLight
	}
	sl := model.Lights[0]

	if sl.Type != scene.LightDirectional {
		return Light{}, fmt.Errorf("light %q is %s: %w", sl.Name, sl.Type, ErrUnsupportedLightType)
	}

	node, ok := model.FindNode(sl.Node)
	if !ok {
		return Light{}, fmt.Errorf("light %q node %q: %w", sl.Name, sl.Node, scene.ErrUnknownNodeReference)
	}

	var world math.Mat4
	if transforms != nil {
		world = model.WorldTransformFunc(node, transforms.LocalTransform)
	} else {
		world = model.WorldTransform(node)
	}

	light := DefaultLight()
	light.Direction = world.TransformDirection(sl.Direction).Normalize()
	light.Color = sl.Color
	return light, nil
}

// SunDirection converts sun angles in degrees to the direction the light
// travels. Azimuth rotates around Y starting from +Z, elevation is measured
// up from the horizon.
func SunDirection(azimuth, elevation float64) math.Vec3 {
	az := azimuth * gomath.Pi / 180
	el := elevation * gomath.Pi / 180

	toSun := math.Vec3{
		X: gomath.Cos(el) * gomath.Sin(az),
		Y: gomath.Sin(el),
		Z: gomath.Cos(el) * gomath.Cos(az),
	}
	return toSun.Negate()
}
