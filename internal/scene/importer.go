package scene

import (
	"errors"
	"fmt"
	"io"
	gomath "math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/trifold/pkg/keyframe"
	"github.com/Faultbox/trifold/pkg/math"
)

// ErrInvalidDocument is returned for structurally invalid model documents.
var ErrInvalidDocument = errors.New("scene: invalid model document")

// Importer loads a model from a path.
type Importer interface {
	Import(path string) (*Model, error)
}

// DocumentImporter reads YAML model documents. Meshes in the document must
// already be triangulated.
type DocumentImporter struct{}

// Import reads and decodes the document at path.
func (DocumentImporter) Import(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return m, nil
}

type vec3Doc [3]float64

func (v vec3Doc) vec() math.Vec3 { return math.Vec3{X: v[0], Y: v[1], Z: v[2]} }

type quatDoc [4]float64

func (q quatDoc) quat() math.Quat { return math.Quat{X: q[0], Y: q[1], Z: q[2], W: q[3]} }

type vertexDoc struct {
	Position vec3Doc  `yaml:"position"`
	Normal   vec3Doc  `yaml:"normal"`
	Color    *vec3Doc `yaml:"color"`
}

type meshDoc struct {
	Name     string      `yaml:"name"`
	Vertices []vertexDoc `yaml:"vertices"`
	Indices  []int       `yaml:"indices"`
}

type materialDoc struct {
	Name      string  `yaml:"name"`
	Albedo    vec3Doc `yaml:"albedo"`
	Metallic  float64 `yaml:"metallic"`
	Roughness float64 `yaml:"roughness"`
}

type meshRefDoc struct {
	Mesh     int `yaml:"mesh"`
	Material int `yaml:"material"`
}

type nodeDoc struct {
	Name        string       `yaml:"name"`
	Matrix      []float64    `yaml:"matrix"` // column-major, overrides TRS
	Translation *vec3Doc     `yaml:"translation"`
	Rotation    *quatDoc     `yaml:"rotation"` // x, y, z, w
	Scale       *vec3Doc     `yaml:"scale"`
	Meshes      []meshRefDoc `yaml:"meshes"`
	Children    []nodeDoc    `yaml:"children"`
}

type vec3KeyDoc struct {
	Time  float64 `yaml:"time"`
	Value vec3Doc `yaml:"value"`
}

type quatKeyDoc struct {
	Time  float64 `yaml:"time"`
	Value quatDoc `yaml:"value"`
}

type channelDoc struct {
	Node     string       `yaml:"node"`
	Position []vec3KeyDoc `yaml:"position"`
	Scale    []vec3KeyDoc `yaml:"scale"`
	Rotation []quatKeyDoc `yaml:"rotation"`
}

type clipDoc struct {
	Name           string       `yaml:"name"`
	Duration       float64      `yaml:"duration"` // ticks
	TicksPerSecond float64      `yaml:"ticks_per_second"`
	Channels       []channelDoc `yaml:"channels"`
}

type cameraDoc struct {
	Name       string  `yaml:"name"`
	Node       string  `yaml:"node"`
	Projection string  `yaml:"projection"` // perspective or orthographic
	FOV        float64 `yaml:"fov"`        // degrees
	Size       float64 `yaml:"size"`
	Near       float64 `yaml:"near"`
	Far        float64 `yaml:"far"`
}

type lightDoc struct {
	Name      string   `yaml:"name"`
	Node      string   `yaml:"node"`
	Type      string   `yaml:"type"`
	Color     *vec3Doc `yaml:"color"`
	Direction *vec3Doc `yaml:"direction"`
}

type document struct {
	Root      nodeDoc       `yaml:"root"`
	Meshes    []meshDoc     `yaml:"meshes"`
	Materials []materialDoc `yaml:"materials"`
	Clips     []clipDoc     `yaml:"clips"`
	Cameras   []cameraDoc   `yaml:"cameras"`
	Lights    []lightDoc    `yaml:"lights"`
}

// Decode builds a model from a YAML document.
func Decode(r io.Reader) (*Model, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	meshes, err := buildMeshes(doc.Meshes)
	if err != nil {
		return nil, err
	}

	materials := make([]Material, len(doc.Materials))
	for i, md := range doc.Materials {
		materials[i] = Material{
			Name:      md.Name,
			Albedo:    md.Albedo.vec(),
			Metallic:  md.Metallic,
			Roughness: md.Roughness,
		}
	}

	root, err := buildNode(&doc.Root, len(meshes), len(materials))
	if err != nil {
		return nil, err
	}

	m := NewModel(root)
	m.Meshes = meshes
	m.Materials = materials

	for _, cd := range doc.Clips {
		clip, err := buildClip(cd)
		if err != nil {
			return nil, err
		}
		m.Clips = append(m.Clips, clip)
	}

	for _, cd := range doc.Cameras {
		cam, err := buildCamera(cd)
		if err != nil {
			return nil, err
		}
		m.Cameras = append(m.Cameras, cam)
	}

	for _, ld := range doc.Lights {
		light, err := buildLight(ld)
		if err != nil {
			return nil, err
		}
		m.Lights = append(m.Lights, light)
	}

	return m, nil
}

func buildMeshes(docs []meshDoc) ([]Mesh, error) {
	meshes := make([]Mesh, len(docs))
	for i, md := range docs {
		if len(md.Indices)%3 != 0 {
			return nil, fmt.Errorf("%w: mesh %q has %d indices, not a triangle list",
				ErrInvalidDocument, md.Name, len(md.Indices))
		}

		mesh := Mesh{Name: md.Name, Vertices: make([]Vertex, len(md.Vertices)), Indices: md.Indices}
		for j, vd := range md.Vertices {
			color := math.Vec3{X: 1, Y: 1, Z: 1}
			if vd.Color != nil {
				color = vd.Color.vec()
			}
			mesh.Vertices[j] = Vertex{Position: vd.Position.vec(), Normal: vd.Normal.vec(), Color: color}
		}
		for _, idx := range md.Indices {
			if idx < 0 || idx >= len(mesh.Vertices) {
				return nil, fmt.Errorf("%w: mesh %q index %d out of range", ErrInvalidDocument, md.Name, idx)
			}
		}
		meshes[i] = mesh
	}
	return meshes, nil
}

func buildNode(nd *nodeDoc, meshCount, materialCount int) (*Node, error) {
	n := &Node{Name: nd.Name}

	switch {
	case len(nd.Matrix) == 16:
		copy(n.Transform[:], nd.Matrix)
	case len(nd.Matrix) != 0:
		return nil, fmt.Errorf("%w: node %q matrix has %d elements, want 16",
			ErrInvalidDocument, nd.Name, len(nd.Matrix))
	default:
		t, r, s := math.Vec3{}, math.QuatIdentity(), math.Vec3{X: 1, Y: 1, Z: 1}
		if nd.Translation != nil {
			t = nd.Translation.vec()
		}
		if nd.Rotation != nil {
			r = nd.Rotation.quat().Normalize()
		}
		if nd.Scale != nil {
			s = nd.Scale.vec()
		}
		n.Transform = math.Translate(t).Mul(r.ToMat4()).Mul(math.Scale(s))
	}

	for _, ref := range nd.Meshes {
		if ref.Mesh < 0 || ref.Mesh >= meshCount {
			return nil, fmt.Errorf("%w: node %q references mesh %d", ErrInvalidDocument, nd.Name, ref.Mesh)
		}
		if ref.Material < 0 || ref.Material >= materialCount {
			return nil, fmt.Errorf("%w: node %q references material %d", ErrInvalidDocument, nd.Name, ref.Material)
		}
		n.Meshes = append(n.Meshes, MeshRef{Mesh: ref.Mesh, Material: ref.Material})
	}

	for i := range nd.Children {
		child, err := buildNode(&nd.Children[i], meshCount, materialCount)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

func buildClip(cd clipDoc) (Clip, error) {
	if cd.Duration <= 0 {
		return Clip{}, fmt.Errorf("%w: clip %q has non-positive duration", ErrInvalidDocument, cd.Name)
	}
	tps := cd.TicksPerSecond
	if tps <= 0 {
		// Treat unset rates as one tick per second
		tps = 1
	}

	clip := Clip{Name: cd.Name, DurationTicks: cd.Duration, TicksPerSecond: tps}
	for _, ch := range cd.Channels {
		c := Channel{Node: ch.Node}
		for _, k := range ch.Position {
			c.Position = append(c.Position, keyframe.Key[math.Vec3]{Time: k.Time, Value: k.Value.vec()})
		}
		for _, k := range ch.Scale {
			c.Scale = append(c.Scale, keyframe.Key[math.Vec3]{Time: k.Time, Value: k.Value.vec()})
		}
		for _, k := range ch.Rotation {
			c.Rotation = append(c.Rotation, keyframe.Key[math.Quat]{Time: k.Time, Value: k.Value.quat().Normalize()})
		}
		clip.Channels = append(clip.Channels, c)
	}
	return clip, nil
}

func buildCamera(cd cameraDoc) (Camera, error) {
	cam := Camera{Name: cd.Name, Node: cd.Node, Near: cd.Near, Far: cd.Far}
	switch cd.Projection {
	case "", "perspective":
		cam.FOV = cd.FOV * gomath.Pi / 180
	case "orthographic":
		cam.Orthographic = true
		cam.Size = cd.Size
	default:
		return Camera{}, fmt.Errorf("%w: camera %q has unknown projection %q",
			ErrInvalidDocument, cd.Name, cd.Projection)
	}
	return cam, nil
}

func buildLight(ld lightDoc) (Light, error) {
	light := Light{
		Name:      ld.Name,
		Node:      ld.Node,
		Color:     math.Vec3{X: 1, Y: 1, Z: 1},
		Direction: math.Vec3{Z: -1},
	}
	if ld.Color != nil {
		light.Color = ld.Color.vec()
	}
	if ld.Direction != nil {
		light.Direction = ld.Direction.vec()
	}

	switch ld.Type {
	case "", "directional":
		light.Type = LightDirectional
	case "point":
		light.Type = LightPoint
	case "spot":
		light.Type = LightSpot
	default:
		return Light{}, fmt.Errorf("%w: light %q has unknown type %q", ErrInvalidDocument, ld.Name, ld.Type)
	}
	return light, nil
}
