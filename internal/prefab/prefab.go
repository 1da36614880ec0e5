// Package prefab models the keyframed 2D scene that conversions produce and
// writes it to disk.
package prefab

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ObjectType controls how the player interacts with an object.
type ObjectType string

const (
	ObjectNormal     ObjectType = "normal"
	ObjectDecoration ObjectType = "decoration"
	ObjectEmpty      ObjectType = "empty"
)

// Shape is the drawable primitive.
type Shape string

const (
	ShapeSquare   Shape = "square"
	ShapeTriangle Shape = "triangle"
)

// Triangle shape options.
const (
	TriangleSolid            = 0
	TriangleRightAngledSolid = 2
)

// AutoKillType selects when an object despawns.
type AutoKillType string

const (
	AutoKillNone  AutoKillType = "none"
	AutoKillFixed AutoKillType = "fixed" // Offset seconds after start
)

// Easing is the interpolation toward a keyframe.
type Easing string

const (
	EasingLinear  Easing = "linear"
	EasingInstant Easing = "instant"
)

// Vec2 is a 2D value.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// VectorKeyframe animates position or scale.
type VectorKeyframe struct {
	Time   float64 `json:"time"`
	Value  Vec2    `json:"value"`
	Easing Easing  `json:"easing"`
}

// RotationKeyframe animates rotation by a delta in degrees.
type RotationKeyframe struct {
	Time   float64 `json:"time"`
	Value  float64 `json:"value"`
	Easing Easing  `json:"easing"`
}

// ColorKeyframe selects a theme object color by index.
type ColorKeyframe struct {
	Time   float64 `json:"time"`
	Value  int     `json:"value"`
	Easing Easing  `json:"easing"`
}

// AutoKill describes an object's lifetime.
type AutoKill struct {
	Type   AutoKillType `json:"type"`
	Offset float64      `json:"offset"`
}

// Parenting selects which parent transforms an object inherits.
type Parenting struct {
	Position bool `json:"position"`
	Scale    bool `json:"scale"`
	Rotation bool `json:"rotation"`
}

// Events holds the four keyframe tracks of an object.
type Events struct {
	Position []VectorKeyframe   `json:"position"`
	Scale    []VectorKeyframe   `json:"scale"`
	Rotation []RotationKeyframe `json:"rotation"`
	Color    []ColorKeyframe    `json:"color"`
}

// Object is one timeline object.
type Object struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	ParentID    string     `json:"parent,omitempty"`
	Type        ObjectType `json:"type"`
	StartTime   float64    `json:"start_time"`
	AutoKill    AutoKill   `json:"autokill"`
	RenderDepth int        `json:"depth"`
	Parenting   Parenting  `json:"parenting"`
	Origin      Vec2       `json:"origin"`
	Shape       Shape      `json:"shape"`
	ShapeOption int        `json:"shape_option"`
	Events      Events     `json:"events"`
}

// Prefab is a named collection of objects.
type Prefab struct {
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Offset   float64   `json:"offset"`
	Objects  []*Object `json:"objects"`

	nextID int
}

// DefaultCategory is the prefab category used for converted models.
const DefaultCategory = "characters"

// New returns an empty prefab.
func New(name string) *Prefab {
	return &Prefab{Name: name, Category: DefaultCategory}
}

// CreateObject adds a new object with a unique ID.
func (p *Prefab) CreateObject(name string) *Object {
	p.nextID++
	obj := &Object{
		ID:       fmt.Sprintf("%08x", p.nextID),
		Name:     name,
		Type:     ObjectNormal,
		AutoKill: AutoKill{Type: AutoKillNone},
		Shape:    ShapeSquare,
	}
	p.Objects = append(p.Objects, obj)
	return obj
}

// AddChild parents child to parent.
func (p *Prefab) AddChild(parent, child *Object) {
	child.ParentID = parent.ID
}

// Children returns the objects parented to obj, in creation order.
func (p *Prefab) Children(obj *Object) []*Object {
	var out []*Object
	for _, o := range p.Objects {
		if o.ParentID == obj.ID {
			out = append(out, o)
		}
	}
	return out
}

// Write encodes the prefab as indented JSON.
func (p *Prefab) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// ExportToFile writes the prefab to path, creating parent directories.
func (p *Prefab) ExportToFile(path string) error {
	return writeFile(path, p.Write)
}

// Read decodes a prefab written by Write.
func Read(r io.Reader) (*Prefab, error) {
	var p Prefab
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode prefab: %w", err)
	}
	p.nextID = len(p.Objects)
	return &p, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
