// Package occlude removes the parts of a triangle mesh that another mesh
// hides from view along a coordinate axis.
//
// Every subject triangle is flattened onto the coordinate plane in which
// it has the largest area. The triangles of the other mesh that could
// cover it are cut to the half-space in front of it, projected onto its
// plane along the view axis and flattened the same way. Their union is
// subtracted with the boolean primitive, and what remains is
// triangulated and lifted back onto the triangle's plane.
//
// The primitive may reject near-degenerate input. Occluders it rejects
// are repaired with the recovery package and subtracted again, for a
// bounded number of attempts.
package occlude

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/chazu/armorsight/pkg/geom"
	"github.com/chazu/armorsight/pkg/mesh"
	"github.com/chazu/armorsight/pkg/polybool"
	"github.com/chazu/armorsight/pkg/recovery"
	"github.com/chazu/armorsight/pkg/tessellate"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Defaults.
const (
	// MaxAngle is the angle in degrees between a triangle's normal and the
	// view axis beyond which the triangle counts as seen edge-on.
	MaxAngle = 89.5
	// MinLength is the shortest edge kept in projected polygons.
	MinLength = 1e-6
	// MaxRetries is the number of subtraction attempts per triangle.
	MaxRetries = 3
)

// collinearTol is the relative tolerance for dropping collinear vertices
// from the final regions.
const collinearTol = 1e-9

// coplanarTol is the relative distance below which an occluder vertex
// lies in the subject's plane.
const coplanarTol = 1e-12

// ErrInvalidAxis is returned for a view axis other than 0, 1 or 2.
var ErrInvalidAxis = errors.New("occlude: view axis must be 0, 1 or 2")

// Options configures an Occluder. Zero fields take their defaults.
type Options struct {
	MaxAngle   float64 // degrees
	MinLength  float64
	MaxRetries int
	Logger     *slog.Logger
	Primitive  polybool.Primitive
}

// DefaultOptions returns the default thresholds, the default logger and
// a primitive on the default grid.
func DefaultOptions() Options {
	return Options{
		MaxAngle:   MaxAngle,
		MinLength:  MinLength,
		MaxRetries: MaxRetries,
		Logger:     slog.Default(),
		Primitive:  polybool.New(polybool.DefaultScale),
	}
}

// Occluder runs occlusion with fixed thresholds. It holds no per-call
// state and may be shared between goroutines as long as its primitive
// can.
type Occluder struct {
	angleEps   float64
	minLenSq   float64
	maxRetries int
	log        *slog.Logger
	prim       polybool.Primitive
}

// New returns an occluder configured by opts.
func New(opts Options) *Occluder {
	def := DefaultOptions()
	if opts.MaxAngle <= 0 || opts.MaxAngle >= 90 {
		opts.MaxAngle = def.MaxAngle
	}
	if opts.MinLength <= 0 {
		opts.MinLength = def.MinLength
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = def.MaxRetries
	}
	if opts.Logger == nil {
		opts.Logger = def.Logger
	}
	if opts.Primitive == nil {
		opts.Primitive = def.Primitive
	}
	c := math.Cos(opts.MaxAngle * math.Pi / 180)
	return &Occluder{
		angleEps:   c * c,
		minLenSq:   opts.MinLength * opts.MinLength,
		maxRetries: opts.MaxRetries,
		log:        opts.Logger.With("component", "occlude"),
		prim:       opts.Primitive,
	}
}

// Occlude runs an occluder with DefaultOptions.
func Occlude(subject, other *mesh.Mesh, viewAxis int) (*mesh.Mesh, error) {
	return New(DefaultOptions()).Occlude(subject, other, viewAxis)
}

// Occlude replaces every triangle of subject by the triangles covering
// its part that other does not hide along viewAxis, and returns subject.
// Triangles seen edge-on are removed. Triangles with no candidate
// occluders are kept as they are.
//
// other is read as it was when the call started, so other may be
// subject itself. On error subject is left unchanged.
func (o *Occluder) Occlude(subject, other *mesh.Mesh, viewAxis int) (*mesh.Mesh, error) {
	if !geom.ValidAxis(viewAxis) {
		return subject, fmt.Errorf("occlude: axis %d: %w", viewAxis, ErrInvalidAxis)
	}
	view := geom.AxisVector(viewAxis)
	snapshot := append([]*sdf.Triangle3(nil), other.Triangles...)
	idx := geom.NewIndex(snapshot)

	debug := o.log.Enabled(context.Background(), slog.LevelDebug)
	out := make([]*sdf.Triangle3, 0, len(subject.Triangles))
	for i, t := range subject.Triangles {
		// Everything below logs at debug level.
		log := o.log
		if debug {
			log = o.log.With("mesh", subject.ID, "other", other.ID, "triangle", i)
		}
		tris, err := o.triangle(log, t, idx, view, viewAxis)
		if err != nil {
			return subject, fmt.Errorf("occlude: mesh %q triangle %d: %w", subject.ID, i, err)
		}
		out = append(out, tris...)
	}
	subject.Triangles = out
	return subject, nil
}

// perpendicular reports whether a plane with normal n is seen edge-on
// along view.
func (o *Occluder) perpendicular(n, view v3.Vec) bool {
	d := n.Dot(view)
	return d*d < o.angleEps*n.Length2()
}

// triangle returns the visible replacement of t.
func (o *Occluder) triangle(log *slog.Logger, t *sdf.Triangle3, idx *geom.Index, view v3.Vec, viewAxis int) ([]*sdf.Triangle3, error) {
	plane := geom.TrianglePlane(t)
	if plane.Degenerate() {
		log.Debug("removed degenerate triangle")
		return nil, nil
	}
	if o.perpendicular(plane.Normal, view) {
		if log.Enabled(context.Background(), slog.LevelDebug) {
			n := plane.Normal
			angle := math.Acos(math.Abs(n.Dot(view))/n.Length()) * 180 / math.Pi
			log.Debug("removed edge-on triangle", "angle", angle)
		}
		return nil, nil
	}
	axis := geom.DominantAxis(plane.Normal)

	occluders := o.occluders(t, plane, idx, view, viewAxis, axis)
	if len(occluders) == 0 {
		return []*sdf.Triangle3{t}, nil
	}

	regions := [][]v2.Vec{geom.ConvertDown(t[:], axis)}
	for attempt := 1; ; attempt++ {
		var failed [][]v2.Vec
		regions, failed = o.subtract(log, regions, occluders)
		if len(failed) == 0 {
			break
		}
		log.Debug("primitive rejected occluders", "attempt", attempt, "count", len(failed))

		var err error
		regions, occluders, err = o.recover(log, regions, failed)
		if err != nil {
			return nil, err
		}
		log.Debug("recovered", "regions", len(regions), "occluders", len(occluders))
		if attempt >= o.maxRetries {
			log.Debug("gave up recovery", "attempts", attempt)
			break
		}
	}

	tris := tessellate.Regions(o.clean(regions), plane, axis)
	log.Debug("triangulated", "triangles", len(tris))
	return tris, nil
}

// occluders returns the flattened outlines of the indexed triangles that
// may hide parts of t.
func (o *Occluder) occluders(t *sdf.Triangle3, plane geom.Plane, idx *geom.Index, view v3.Vec, viewAxis, axis int) [][]v2.Vec {
	above := plane.Normal.Dot(view) > 0
	var out [][]v2.Vec
	for _, c := range idx.Overlapping(idx.Boxes().Get(t), viewAxis) {
		if c == t {
			continue
		}
		cp := geom.TrianglePlane(c)
		if cp.Degenerate() || o.perpendicular(cp.Normal, view) || coplanar(c, plane) {
			continue
		}
		poly := geom.Cut(c[:], plane, above)
		if len(poly) < 3 {
			continue
		}
		poly = geom.Project(poly, plane, viewAxis)
		flat := geom.Fuse(geom.ConvertDown(poly, axis), o.minLenSq)
		if len(flat) < 3 {
			continue
		}
		out = append(out, flat)
	}
	return out
}

// coplanar reports whether every vertex of t lies in plane. Such a
// triangle is beside the subject, never in front of it.
func coplanar(t *sdf.Triangle3, plane geom.Plane) bool {
	n := plane.Normal.Length()
	for _, v := range t {
		tol := coplanarTol * n * math.Max(1, v.Abs().MaxComponent())
		if math.Abs(plane.Side(v)) > tol {
			return false
		}
	}
	return true
}

// subtract removes the occluders from regions one at a time. Occluders
// the primitive rejects are returned and skipped. If regions themselves
// are rejected they come back unchanged.
func (o *Occluder) subtract(log *slog.Logger, regions, occluders [][]v2.Vec) ([][]v2.Vec, [][]v2.Vec) {
	segs, err := o.prim.Segments(polybool.Polygon{Regions: regions})
	if err != nil {
		log.Debug("primitive rejected subject", "err", err)
		return regions, nil
	}

	var failed [][]v2.Vec
	for _, occ := range occluders {
		next, err := o.difference(segs, occ)
		if err != nil {
			failed = append(failed, occ)
			continue
		}
		segs = next
		if segs.Empty() {
			log.Debug("fully occluded")
			failed = nil
			break
		}
	}
	return o.prim.Polygon(segs).Regions, failed
}

func (o *Occluder) difference(segs polybool.Segments, occ []v2.Vec) (polybool.Segments, error) {
	clip, err := o.prim.Segments(polybool.Polygon{Regions: [][]v2.Vec{occ}})
	if err != nil {
		return polybool.Segments{}, err
	}
	comb, err := o.prim.Combine(segs, clip)
	if err != nil {
		return polybool.Segments{}, err
	}
	return o.prim.SelectDifference(comb)
}

// recover repairs every pair of region and rejected occluder, last to
// first. Each region is split into pieces as the occluders are applied
// to it in turn. An occluder whose boundary met a piece is replaced by
// its recovered regions. It returns the pieces in region order and the
// occluders for the next attempt. A piece identical to an occluder is
// the one error.
func (o *Occluder) recover(log *slog.Logger, regions, failed [][]v2.Vec) ([][]v2.Vec, [][]v2.Vec, error) {
	clips := append([][]v2.Vec(nil), failed...)
	pieces := make([][][]v2.Vec, len(regions))

	for i := len(regions) - 1; i >= 0; i-- {
		cur := [][]v2.Vec{regions[i]}
		for j := len(clips) - 1; j >= 0 && len(cur) > 0; j-- {
			var next, recovered [][]v2.Vec
			touched := false
			for _, p := range cur {
				res, err := recovery.Recover(p, clips[j], o.minLenSq)
				if errors.Is(err, recovery.ErrIdenticalPolygons) {
					return nil, nil, fmt.Errorf("region %d, occluder %d: %w", i, j, err)
				}
				if err != nil {
					// Links could not be kept one to one; leave the pair as it was.
					log.Debug("recovery failed", "region", i, "occluder", j, "err", err)
					next = append(next, p)
					continue
				}
				next = append(next, o.filter(res.Subject)...)
				if res.Touched {
					touched = true
					recovered = append(recovered, o.filter(res.Clip)...)
				}
			}
			if touched {
				clips = append(clips[:j], append(recovered, clips[j+1:]...)...)
			}
			cur = next
		}
		pieces[i] = cur
	}

	var out [][]v2.Vec
	for _, p := range pieces {
		out = append(out, p...)
	}
	return out, clips, nil
}

// filter fuses short edges away and drops polygons left with fewer than
// three vertices.
func (o *Occluder) filter(polys [][]v2.Vec) [][]v2.Vec {
	out := make([][]v2.Vec, 0, len(polys))
	for _, p := range polys {
		if p = geom.Fuse(p, o.minLenSq); len(p) >= 3 {
			out = append(out, p)
		}
	}
	return out
}

// clean prepares regions for triangulation: short edges and collinear
// vertices are dropped, and so are regions left with fewer than three
// vertices.
func (o *Occluder) clean(regions [][]v2.Vec) [][]v2.Vec {
	out := make([][]v2.Vec, 0, len(regions))
	for _, r := range o.filter(regions) {
		r = dropCollinear(r)
		if len(r) >= 3 {
			out = append(out, r)
		}
	}
	return out
}

func dropCollinear(r []v2.Vec) []v2.Vec {
	for changed := true; changed && len(r) >= 3; {
		changed = false
		for i := 0; i < len(r) && len(r) >= 3; i++ {
			n := len(r)
			if geom.Collinear(r[(i+n-1)%n], r[i], r[(i+1)%n], collinearTol) {
				r = append(r[:i:i], r[i+1:]...)
				changed = true
				i--
			}
		}
	}
	return r
}
