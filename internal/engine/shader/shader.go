// Package shader implements the per-vertex and per-triangle stages of the
// software rasterizer.
package shader

import (
	"github.com/Faultbox/trifold/pkg/math"
)

// InputVertex is a mesh vertex paired with its material albedo.
type InputVertex struct {
	Position math.Vec3
	Normal   math.Vec3
	Color    math.Vec3
	Albedo   math.Vec3
}

// StagingVertex is a vertex in clip space, before the perspective divide.
type StagingVertex struct {
	Position math.Vec4
	Normal   math.Vec3
	Color    math.Vec3
}

// VertexStage transforms vertices of one mesh instance.
type VertexStage struct {
	model math.Mat4
	mvp   math.Mat4
}

// NewVertexStage builds a stage for the given model, view and projection.
func NewVertexStage(model, view, projection math.Mat4) VertexStage {
	return VertexStage{
		model: model,
		mvp:   projection.Mul(view).Mul(model),
	}
}

// Process transforms a vertex to clip space. Normals are transformed by the
// model matrix only, which assumes uniform scale.
func (s VertexStage) Process(v InputVertex) StagingVertex {
	return StagingVertex{
		Position: s.mvp.MulVec4(math.Vec4{X: v.Position.X, Y: v.Position.Y, Z: v.Position.Z, W: 1}),
		Normal:   s.model.TransformDirection(v.Normal).Normalize(),
		Color:    v.Color.Mul(v.Albedo),
	}
}

// Triangle is three assembled staging vertices.
type Triangle [3]StagingVertex

// ShadedTriangle is a triangle in normalized device coordinates with one
// flat color.
type ShadedTriangle struct {
	Points [3]math.Vec3
	Color  math.Vec3
}

// Depth returns the mean Z of the three points.
func (t ShadedTriangle) Depth() float64 {
	return (t.Points[0].Z + t.Points[1].Z + t.Points[2].Z) / 3
}

// Winding returns the Z component of the cross product of the two edges
// from the first point, restricted to X and Y. Counter-clockwise is positive.
func (t ShadedTriangle) Winding() float64 {
	ab := t.Points[1].XY().Sub(t.Points[0].XY())
	ac := t.Points[2].XY().Sub(t.Points[0].XY())
	return ab.Cross(ac)
}

// Mode selects the triangle stage variant.
type Mode int

const (
	Lit Mode = iota
	Unlit
)

func (m Mode) String() string {
	if m == Unlit {
		return "unlit"
	}
	return "lit"
}

// TriangleStage divides and shades assembled triangles.
type TriangleStage struct {
	Mode  Mode
	Light Light
}

// NewTriangleStage picks the unlit variant when shadingDepth is zero.
func NewTriangleStage(shadingDepth int, light Light) TriangleStage {
	mode := Lit
	if shadingDepth == 0 {
		mode = Unlit
	}
	return TriangleStage{Mode: mode, Light: light}
}

// Process divides each vertex by w and averages the vertex colors into a
// flat triangle color.
func (s TriangleStage) Process(tri Triangle) ShadedTriangle {
	var out ShadedTriangle
	var sum math.Vec3
	for i, v := range tri {
		out.Points[i] = v.Position.PerspectiveDivide()
		sum = sum.Add(s.shade(v))
	}
	out.Color = sum.Scale(1.0 / 3.0)
	return out
}

func (s TriangleStage) shade(v StagingVertex) math.Vec3 {
	if s.Mode == Unlit {
		return v.Color
	}
	intensity := v.Normal.Dot(s.Light.Direction.Negate())
	return v.Color.Mul(s.Light.Color).Scale(intensity).Add(v.Color.Mul(s.Light.Ambient))
}
