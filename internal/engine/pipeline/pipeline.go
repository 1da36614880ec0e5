// Package pipeline walks a model's node tree and rasterizes it into flat
// shaded triangles in normalized device coordinates.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/Faultbox/trifold/internal/engine/camera"
	"github.com/Faultbox/trifold/internal/engine/shader"
	"github.com/Faultbox/trifold/internal/scene"
	"github.com/Faultbox/trifold/pkg/math"
)

// ErrMalformedVertexStream is returned when the vertex count of a frame is
// not a multiple of three.
var ErrMalformedVertexStream = errors.New("pipeline: vertex stream is not a triangle list")

// ShadedTriangle is one output triangle of a frame.
type ShadedTriangle = shader.ShadedTriangle

// RenderData is one mesh instance ready for the vertex stage.
type RenderData struct {
	Vertices []shader.InputVertex
	Model    math.Mat4
}

// Pipeline renders a model through a camera.
type Pipeline struct {
	model      *scene.Model
	transforms scene.LocalTransformer
	camera     camera.Camera
	stage      shader.TriangleStage
}

// New creates a pipeline. transforms may be nil, in which case every node
// uses its bind transform.
func New(model *scene.Model, transforms scene.LocalTransformer, cam camera.Camera, stage shader.TriangleStage) *Pipeline {
	return &Pipeline{
		model:      model,
		transforms: transforms,
		camera:     cam,
		stage:      stage,
	}
}

// SetCamera replaces the camera used by later renders.
func (p *Pipeline) SetCamera(cam camera.Camera) {
	p.camera = cam
}

// SetStage replaces the triangle stage used by later renders.
func (p *Pipeline) SetStage(stage shader.TriangleStage) {
	p.stage = stage
}

// Render produces the shaded triangles of the current frame.
func (p *Pipeline) Render(aspect float64) ([]ShadedTriangle, error) {
	if err := p.model.CheckOpen(); err != nil {
		return nil, err
	}

	view, projection := p.camera.ViewProjection(aspect)

	var staged []shader.StagingVertex
	for _, rd := range p.Collect() {
		vs := shader.NewVertexStage(rd.Model, view, projection)
		for _, v := range rd.Vertices {
			staged = append(staged, vs.Process(v))
		}
	}

	triangles, err := Assemble(staged)
	if err != nil {
		return nil, err
	}

	shaded := make([]ShadedTriangle, len(triangles))
	for i, tri := range triangles {
		shaded[i] = p.stage.Process(tri)
	}
	return shaded, nil
}

type frame struct {
	node   *scene.Node
	parent math.Mat4
}

// Collect walks the tree depth-first and returns one RenderData per mesh
// instance, in traversal order.
func (p *Pipeline) Collect() []RenderData {
	if p.model.Root == nil {
		return nil
	}

	var out []RenderData
	stack := []frame{{node: p.model.Root, parent: math.Identity()}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		world := f.parent.Mul(p.localTransform(f.node))
		for _, ref := range f.node.Meshes {
			out = append(out, RenderData{
				Vertices: p.meshVertices(ref),
				Model:    world,
			})
		}

		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], parent: world})
		}
	}
	return out
}

func (p *Pipeline) localTransform(n *scene.Node) math.Mat4 {
	if p.transforms != nil {
		return p.transforms.LocalTransform(n)
	}
	return n.Transform
}

// meshVertices expands an indexed mesh into a flat vertex list. Meshes
// without indices are taken as-is.
func (p *Pipeline) meshVertices(ref scene.MeshRef) []shader.InputVertex {
	mesh := &p.model.Meshes[ref.Mesh]
	albedo := p.model.Materials[ref.Material].Albedo

	convert := func(v scene.Vertex) shader.InputVertex {
		return shader.InputVertex{Position: v.Position, Normal: v.Normal, Color: v.Color, Albedo: albedo}
	}

	if len(mesh.Indices) == 0 {
		out := make([]shader.InputVertex, len(mesh.Vertices))
		for i, v := range mesh.Vertices {
			out[i] = convert(v)
		}
		return out
	}

	out := make([]shader.InputVertex, len(mesh.Indices))
	for i, idx := range mesh.Indices {
		out[i] = convert(mesh.Vertices[idx])
	}
	return out
}

// Assemble groups a vertex stream into consecutive triangles.
func Assemble(vertices []shader.StagingVertex) ([]shader.Triangle, error) {
	if rem := len(vertices) % 3; rem != 0 {
		return nil, fmt.Errorf("%d vertices left over: %w", rem, ErrMalformedVertexStream)
	}

	triangles := make([]shader.Triangle, 0, len(vertices)/3)
	for i := 0; i < len(vertices); i += 3 {
		triangles = append(triangles, shader.Triangle{vertices[i], vertices[i+1], vertices[i+2]})
	}
	return triangles, nil
}
