// Package polybool wraps the go.clipper Vatti clipper as the boolean
// primitive of the occlusion pipeline.
//
// The primitive works in three stages: a polygon is converted to
// segments, two segment sets are combined, and the difference is
// selected from the combination. Any stage may fail with
// ErrDegenerate when the clipper's integer grid is too coarse for the
// given coordinates. Callers are expected to recover from that error.
//
// Coordinates are snapped to a grid of 1/scale units. Regions follow
// the even-odd rule: a region inside another region is a hole.
package polybool

import (
	"errors"
	"fmt"
	"math"

	clipper "github.com/ctessum/go.clipper"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// DefaultScale is the grid resolution used by New callers that have no
// better idea: 1e-7 units, one tenth of the shortest edge the occluder
// keeps.
const DefaultScale = 1e7

// maxCoord is the largest grid coordinate the clipper accepts.
const maxCoord = 0x3FFFFFFFFFFFFFFF

var (
	// ErrDegenerate is returned when the input or output of an operation
	// has an edge too short for the grid, or the clipper gives up.
	ErrDegenerate = errors.New("polybool: degenerate segment")

	// ErrInverted is returned for inverted polygons, which the clipper
	// backend does not support.
	ErrInverted = errors.New("polybool: inverted polygons are not supported")
)

// Polygon is a set of closed regions. With Inverted set the polygon
// would denote the complement of its regions.
type Polygon struct {
	Regions  [][]v2.Vec
	Inverted bool
}

// Segments is a polygon in the primitive's internal form.
type Segments struct {
	paths clipper.Paths
}

// Empty reports whether s holds no regions.
func (s Segments) Empty() bool {
	return len(s.paths) == 0
}

// Len returns the number of regions in s.
func (s Segments) Len() int {
	return len(s.paths)
}

// Combined pairs a subject and a clip segment set, ready for selection.
type Combined struct {
	subject, clip clipper.Paths
}

// Primitive is the fallible boolean primitive the occluder depends on.
type Primitive interface {
	Segments(p Polygon) (Segments, error)
	Combine(a, b Segments) (Combined, error)
	SelectDifference(c Combined) (Segments, error)
	Polygon(s Segments) Polygon
}

// Compile-time interface check.
var _ Primitive = (*Engine)(nil)

// Engine implements Primitive on a fixed grid.
type Engine struct {
	scale float64
}

// New returns an engine snapping coordinates to 1/scale units.
// A non-positive scale selects DefaultScale.
func New(scale float64) *Engine {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Engine{scale: scale}
}

// Scale returns the grid resolution.
func (e *Engine) Scale() float64 {
	return e.scale
}

// Segments converts p to segments. Every region must survive snapping
// to the grid without losing an edge.
func (e *Engine) Segments(p Polygon) (Segments, error) {
	if p.Inverted {
		return Segments{}, ErrInverted
	}
	paths := make(clipper.Paths, 0, len(p.Regions))
	for i, region := range p.Regions {
		path, err := e.toPath(region)
		if err != nil {
			return Segments{}, fmt.Errorf("polybool: region %d: %w", i, err)
		}
		paths = append(paths, path)
	}
	return Segments{paths: paths}, nil
}

// Combine pairs a with b as subject and clip.
func (e *Engine) Combine(a, b Segments) (Combined, error) {
	return Combined{subject: a.paths, clip: b.paths}, nil
}

// SelectDifference returns the part of the subject not covered by the
// clip.
func (e *Engine) SelectDifference(c Combined) (s Segments, err error) {
	if len(c.subject) == 0 {
		return Segments{}, nil
	}
	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(*clipper.ClipperException)
			if !ok {
				panic(r)
			}
			s, err = Segments{}, fmt.Errorf("%w: %v", ErrDegenerate, ce)
		}
	}()

	cl := clipper.NewClipper(clipper.IoNone)
	if !cl.AddPaths(c.subject, clipper.PtSubject, true) {
		// The subject has no area left.
		return Segments{}, nil
	}
	// Clip regions with no area cover nothing.
	cl.AddPaths(c.clip, clipper.PtClip, true)

	out, ok := cl.Execute1(clipper.CtDifference, clipper.PftEvenOdd, clipper.PftEvenOdd)
	if !ok {
		return Segments{}, fmt.Errorf("%w: clipper failed", ErrDegenerate)
	}
	paths := make(clipper.Paths, 0, len(out))
	for _, path := range out {
		if len(path) < 3 {
			continue
		}
		if i := shortEdge(path); i >= 0 {
			return Segments{}, fmt.Errorf("%w: result edge %d", ErrDegenerate, i)
		}
		paths = append(paths, path)
	}
	return Segments{paths: paths}, nil
}

// Polygon converts s back to a polygon.
func (e *Engine) Polygon(s Segments) Polygon {
	regions := make([][]v2.Vec, 0, len(s.paths))
	for _, path := range s.paths {
		region := make([]v2.Vec, len(path))
		for i, pt := range path {
			region[i] = v2.Vec{X: float64(pt.X) / e.scale, Y: float64(pt.Y) / e.scale}
		}
		regions = append(regions, region)
	}
	return Polygon{Regions: regions}
}

// Difference is a convenience for a single subject and clip.
func (e *Engine) Difference(subject, clip Polygon) (Polygon, error) {
	a, err := e.Segments(subject)
	if err != nil {
		return Polygon{}, err
	}
	b, err := e.Segments(clip)
	if err != nil {
		return Polygon{}, err
	}
	c, err := e.Combine(a, b)
	if err != nil {
		return Polygon{}, err
	}
	d, err := e.SelectDifference(c)
	if err != nil {
		return Polygon{}, err
	}
	return e.Polygon(d), nil
}

func (e *Engine) toPath(region []v2.Vec) (clipper.Path, error) {
	if len(region) < 3 {
		return nil, fmt.Errorf("%w: %d vertices", ErrDegenerate, len(region))
	}
	path := make(clipper.Path, len(region))
	for i, v := range region {
		x, y := math.Round(v.X*e.scale), math.Round(v.Y*e.scale)
		if math.IsNaN(x) || math.IsNaN(y) || math.Abs(x) > maxCoord || math.Abs(y) > maxCoord {
			return nil, fmt.Errorf("%w: vertex %d (%v, %v) out of range", ErrDegenerate, i, v.X, v.Y)
		}
		path[i] = clipper.NewIntPoint(clipper.CInt(x), clipper.CInt(y))
	}
	if i := collapsedEdge(path); i >= 0 {
		return nil, fmt.Errorf("%w: edge %d collapses", ErrDegenerate, i)
	}
	return path, nil
}

// collapsedEdge returns the index of the first edge whose endpoints
// snapped to the same grid point, or -1.
func collapsedEdge(path clipper.Path) int {
	n := len(path)
	for i := 0; i < n; i++ {
		if *path[i] == *path[(i+1)%n] {
			return i
		}
	}
	return -1
}

// shortEdge returns the index of the first edge no longer than one grid
// unit, or -1.
func shortEdge(path clipper.Path) int {
	n := len(path)
	for i := 0; i < n; i++ {
		a, b := path[i], path[(i+1)%n]
		dx, dy := float64(a.X-b.X), float64(a.Y-b.Y)
		if dx*dx+dy*dy <= 1 {
			return i
		}
	}
	return -1
}
