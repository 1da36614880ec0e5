// Package camera provides the view and projection used to rasterize a model.
package camera

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/trifold/internal/scene"
	"github.com/Faultbox/trifold/pkg/math"
)

// ErrMissingCamera is returned when a scene camera is requested but the
// model has none.
var ErrMissingCamera = errors.New("camera: model has no camera")

// Kind selects the projection.
type Kind int

const (
	Perspective Kind = iota
	Orthographic
)

func (k Kind) String() string {
	if k == Orthographic {
		return "orthographic"
	}
	return "perspective"
}

// Defaults for a camera built without scene data.
const (
	DefaultFOV       = gomath.Pi / 3 // 60 degrees
	DefaultNear      = 0.1
	DefaultFar       = 10.0
	DefaultOrthoSize = 10.0
	DefaultOrthoNear = -1.0
	DefaultOrthoFar  = 1.0
)

// Camera looks down its local -Z axis.
type Camera struct {
	Kind     Kind
	Position math.Vec3
	Rotation math.Quat

	Near, Far float64

	FOV  float64 // vertical field of view in radians, perspective only
	Size float64 // view height, orthographic only
}

// NewPerspective returns a perspective camera two units back from the origin.
func NewPerspective() Camera {
	return Camera{
		Kind:     Perspective,
		Position: math.Vec3{Z: 2},
		Rotation: math.QuatIdentity(),
		Near:     DefaultNear,
		Far:      DefaultFar,
		FOV:      DefaultFOV,
	}
}

// NewOrthographic returns an orthographic camera at the origin.
func NewOrthographic() Camera {
	return Camera{
		Kind:     Orthographic,
		Rotation: math.QuatIdentity(),
		Near:     DefaultOrthoNear,
		Far:      DefaultOrthoFar,
		Size:     DefaultOrthoSize,
	}
}

// ViewMatrix returns the inverse of the camera's world transform.
func (c Camera) ViewMatrix() math.Mat4 {
	return math.Translate(c.Position).Mul(c.Rotation.ToMat4()).Inverse()
}

// ProjectionMatrix returns the projection for the given width/height ratio.
func (c Camera) ProjectionMatrix(aspect float64) math.Mat4 {
	if c.Kind == Orthographic {
		w, h := c.Size*aspect/2, c.Size/2
		return math.Ortho(-w, w, -h, h, c.Near, c.Far)
	}
	return math.Perspective(c.FOV, aspect, c.Near, c.Far)
}

// ViewProjection returns the view and projection matrices.
func (c Camera) ViewProjection(aspect float64) (view, projection math.Mat4) {
	return c.ViewMatrix(), c.ProjectionMatrix(aspect)
}

// FromScene builds a camera from the model's first camera, placed at its
// node's world transform. When transforms is nil the bind pose is used.
func FromScene(model *scene.Model, transforms scene.LocalTransformer) (Camera, error) {
	if len(model.Cameras) == 0 {
		return Camera{}, ErrMissingCamera
	}
	sc := model.Cameras[0]

	node, ok := model.FindNode(sc.Node)
	if !ok {
		return Camera{}, fmt.Errorf("camera %q node %q: %w", sc.Name, sc.Node, scene.ErrUnknownNodeReference)
	}

	var world math.Mat4
	if transforms != nil {
		world = model.WorldTransformFunc(node, transforms.LocalTransform)
	} else {
		world = model.WorldTransform(node)
	}
	pos, _, rot := world.Decompose()

	var c Camera
	if sc.Orthographic {
		c = NewOrthographic()
		if sc.Size > 0 {
			c.Size = sc.Size
		}
	} else {
		c = NewPerspective()
		if sc.FOV > 0 {
			c.FOV = sc.FOV
		}
	}
	if sc.Far > sc.Near {
		c.Near, c.Far = sc.Near, sc.Far
	}
	c.Position = pos
	c.Rotation = rot
	return c, nil
}
