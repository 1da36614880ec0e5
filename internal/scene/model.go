// Package scene holds the read-only model data consumed by the conversion
// pipeline: the node tree, meshes, materials, animation clips, cameras and
// lights.
package scene

import (
	"errors"
	"sync/atomic"

	"github.com/Faultbox/trifold/pkg/keyframe"
	"github.com/Faultbox/trifold/pkg/math"
)

var (
	// ErrUnknownNodeReference is returned when a clip channel, camera or
	// light names a node that is not in the tree.
	ErrUnknownNodeReference = errors.New("scene: unknown node reference")
	// ErrModelReleased is returned when a closed model is used.
	ErrModelReleased = errors.New("scene: model has been released")
)

// Vertex is one mesh vertex.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	Color    math.Vec3
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []int
}

// Material carries surface parameters. Only Albedo is used for shading.
type Material struct {
	Name      string
	Albedo    math.Vec3
	Metallic  float64
	Roughness float64
}

// MeshRef binds a mesh to a material, both by index into the model.
type MeshRef struct {
	Mesh     int
	Material int
}

// Node is a scene graph node. Parents own their children.
type Node struct {
	ID        int
	Name      string
	Transform math.Mat4 // local bind transform
	Meshes    []MeshRef
	Children  []*Node
}

// Channel animates one node, referenced by name.
type Channel struct {
	Node     string
	Position keyframe.Track[math.Vec3]
	Scale    keyframe.Track[math.Vec3]
	Rotation keyframe.Track[math.Quat]
}

// Clip is a named animation. Key times are in ticks.
type Clip struct {
	Name           string
	DurationTicks  float64
	TicksPerSecond float64
	Channels       []Channel
}

// Camera is a camera attached to a named node.
type Camera struct {
	Name         string
	Node         string
	Orthographic bool
	FOV          float64 // vertical, radians
	Size         float64 // orthographic view height
	Near, Far    float64
}

// LightType identifies the kind of light source.
type LightType int

const (
	LightDirectional LightType = iota
	LightPoint
	LightSpot
)

func (t LightType) String() string {
	switch t {
	case LightDirectional:
		return "directional"
	case LightPoint:
		return "point"
	case LightSpot:
		return "spot"
	default:
		return "unknown"
	}
}

// Light is a light source attached to a named node.
type Light struct {
	Name      string
	Node      string
	Type      LightType
	Color     math.Vec3
	Direction math.Vec3 // in the node's local space
}

// Model is an imported model. It is read-only once built and must be
// closed when no longer needed.
type Model struct {
	Root      *Node
	Meshes    []Mesh
	Materials []Material
	Clips     []Clip
	Cameras   []Camera
	Lights    []Light

	nodes    []*Node
	byName   map[string]*Node
	released atomic.Bool
}

// NewModel indexes the tree rooted at root, assigning node IDs in
// depth-first pre-order.
func NewModel(root *Node) *Model {
	m := &Model{Root: root, byName: make(map[string]*Node)}
	if root == nil {
		return m
	}

	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n.ID = len(m.nodes)
		m.nodes = append(m.nodes, n)
		if _, ok := m.byName[n.Name]; !ok {
			m.byName[n.Name] = n
		}

		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return m
}

// Nodes returns every node, indexed by ID.
func (m *Model) Nodes() []*Node {
	return m.nodes
}

// FindNode returns the first node with the given name in pre-order.
func (m *Model) FindNode(name string) (*Node, bool) {
	n, ok := m.byName[name]
	return n, ok
}

// Clip returns the clip with the given name.
func (m *Model) Clip(name string) (*Clip, bool) {
	for i := range m.Clips {
		if m.Clips[i].Name == name {
			return &m.Clips[i], true
		}
	}
	return nil, false
}

// LocalTransformer resolves a node's current local transform.
type LocalTransformer interface {
	LocalTransform(n *Node) math.Mat4
}

// WorldTransform returns the accumulated bind transform of a node.
func (m *Model) WorldTransform(n *Node) math.Mat4 {
	return m.WorldTransformFunc(n, func(n *Node) math.Mat4 { return n.Transform })
}

// WorldTransformFunc accumulates local transforms from the root down to n,
// resolving each node's local transform through local.
func (m *Model) WorldTransformFunc(n *Node, local func(*Node) math.Mat4) math.Mat4 {
	path := m.pathTo(n)
	world := math.Identity()
	for _, p := range path {
		world = world.Mul(local(p))
	}
	return world
}

func (m *Model) pathTo(target *Node) []*Node {
	if m.Root == nil || target == nil {
		return nil
	}

	parent := make(map[*Node]*Node, len(m.nodes))
	for _, n := range m.nodes {
		for _, c := range n.Children {
			parent[c] = n
		}
	}

	var path []*Node
	for n := target; n != nil; n = parent[n] {
		path = append(path, n)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Close releases the model. Using it afterwards fails with ErrModelReleased.
func (m *Model) Close() error {
	m.released.Store(true)
	return nil
}

// Released reports whether Close has been called.
func (m *Model) Released() bool {
	return m.released.Load()
}

// CheckOpen returns ErrModelReleased if the model has been closed.
func (m *Model) CheckOpen() error {
	if m.Released() {
		return ErrModelReleased
	}
	return nil
}
