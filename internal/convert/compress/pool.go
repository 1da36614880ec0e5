// Package compress maps per-frame triangle sets onto a fixed pool of
// persistent objects with deduplicated keyframe tracks.
package compress

import (
	"errors"
	"fmt"
	gomath "math"
	"sort"

	"github.com/Faultbox/trifold/pkg/math"
)

// ErrPoolCapacityExceeded is returned when a frame holds more triangles than
// the pool has slots.
var ErrPoolCapacityExceeded = errors.New("compress: frame exceeds pool capacity")

// Render depth budget shared by all emitted objects.
const (
	DepthStart = 80.0
	DepthRange = 160.0
)

// Triangle is one right-triangle primitive of a frame.
type Triangle struct {
	Position math.Vec2
	Scale    math.Vec2
	Rotation float64 // radians
	Depth    float64 // larger is further back
	Color    int     // palette index
}

// Keyframe is a step-interpolated sample.
type Keyframe[T comparable] struct {
	Time  float64
	Value T
}

// Track is a list of keyframes in time order.
type Track[T comparable] []Keyframe[T]

// push appends a keyframe unless it repeats the last value.
func (t *Track[T]) push(time float64, v T) bool {
	if n := len(*t); n > 0 && (*t)[n-1].Value == v {
		return false
	}
	*t = append(*t, Keyframe[T]{Time: time, Value: v})
	return true
}

// Slot is one persistent object: "the i-th frontmost triangle".
type Slot struct {
	Position Track[math.Vec2]
	Scale    Track[math.Vec2]
	Rotation Track[float64] // degrees
	Color    Track[int]

	StartTime float64
	KillTime  float64
	written   bool
}

func (s *Slot) add(time float64, pos, scale math.Vec2, rotation float64, color int) {
	appended := s.Position.push(time, pos)
	appended = s.Scale.push(time, scale) || appended
	appended = s.Rotation.push(time, rotation) || appended
	appended = s.Color.push(time, color) || appended
	if !appended {
		return
	}

	if !s.written {
		s.StartTime = time
		s.written = true
	}
	s.KillTime = time
}

// Written reports whether any keyframe was ever recorded.
func (s *Slot) Written() bool {
	return s.written
}

// Pool is a fixed set of slots.
type Pool struct {
	slots []Slot
}

// NewPool allocates capacity slots.
func NewPool(capacity int) *Pool {
	return &Pool{slots: make([]Slot, capacity)}
}

// Capacity returns the number of slots.
func (p *Pool) Capacity() int {
	return len(p.slots)
}

// Slot returns slot i.
func (p *Pool) Slot(i int) *Slot {
	return &p.slots[i]
}

// AddFrame records one frame. Triangles are ordered back to front and
// assigned to slots in that order; unused slots are parked with zeroed
// keyframes.
func (p *Pool) AddFrame(time float64, triangles []Triangle) error {
	if len(triangles) > len(p.slots) {
		return fmt.Errorf("%d triangles for %d slots at t=%g: %w",
			len(triangles), len(p.slots), time, ErrPoolCapacityExceeded)
	}

	sorted := make([]Triangle, len(triangles))
	copy(sorted, triangles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Depth > sorted[j].Depth
	})

	for i, tri := range sorted {
		p.slots[i].add(time, tri.Position, tri.Scale, degrees(tri.Rotation), tri.Color)
	}
	for i := len(sorted); i < len(p.slots); i++ {
		p.slots[i].add(time, math.Vec2{}, math.Vec2{}, 0, 0)
	}
	return nil
}

// Object is a finalized slot. Keyframe times are relative to StartTime and
// rotation keyframes hold deltas in degrees.
type Object struct {
	StartTime   float64
	Lifetime    float64
	RenderDepth int

	Position Track[math.Vec2]
	Scale    Track[math.Vec2]
	Rotation Track[float64]
	Color    Track[int]
}

// Finalize converts every written slot into an object. Slots written only
// once live until duration.
func (p *Pool) Finalize(duration float64) []Object {
	step := DepthRange / float64(len(p.slots))
	depth := DepthStart

	var objects []Object
	for i := range p.slots {
		s := &p.slots[i]
		if !s.written {
			continue
		}

		kill := s.KillTime
		if s.StartTime == kill {
			kill = duration
		}

		objects = append(objects, Object{
			StartTime:   s.StartTime,
			Lifetime:    kill - s.StartTime,
			RenderDepth: int(depth),
			Position:    rebase(s.Position, s.StartTime),
			Scale:       rebase(s.Scale, s.StartTime),
			Rotation:    rotationDeltas(rebase(s.Rotation, s.StartTime)),
			Color:       rebase(s.Color, s.StartTime),
		})
		depth -= step
	}
	return objects
}

func rebase[T comparable](t Track[T], start float64) Track[T] {
	out := make(Track[T], len(t))
	for i, k := range t {
		out[i] = Keyframe[T]{Time: k.Time - start, Value: k.Value}
	}
	return out
}

// rotationDeltas reduces each angle into [0, 360) and stores it as the
// difference from the previous reduced angle, starting from zero.
func rotationDeltas(t Track[float64]) Track[float64] {
	last := 0.0
	for i := range t {
		v := gomath.Mod(t[i].Value, 360)
		if v < 0 {
			v += 360
		}
		if v >= 360 {
			v -= 360
		}
		t[i].Value = v - last
		last = v
	}
	return t
}

func degrees(rad float64) float64 {
	return rad * 180 / gomath.Pi
}
