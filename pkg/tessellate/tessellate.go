// Package tessellate turns the 2D regions left over from occlusion back
// into triangles and lifts them onto the plane of the triangle they came
// from.
package tessellate

import (
	"math"
	"sort"

	"github.com/chazu/armorsight/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// boundaryEps2 is the squared distance within which a vertex counts as
// lying on another region's boundary.
const boundaryEps2 = 1e-20

// areaEps is the doubled area below which a triangle is dropped.
const areaEps = 1e-18

// shape is an outer boundary with the holes directly inside it.
type shape struct {
	outer []v2.Vec
	holes [][]v2.Vec
}

// Triangulate splits regions into triangles under the even-odd rule.
// A region nested inside an odd number of other regions is a hole in
// the innermost of them. Every triangle winds counter-clockwise.
func Triangulate(regions [][]v2.Vec) [][3]v2.Vec {
	var rings [][]v2.Vec
	for _, r := range regions {
		r = dedupe(r)
		if len(r) >= 3 && math.Abs(geom.SignedArea(r)) > areaEps {
			rings = append(rings, r)
		}
	}

	var tris [][3]v2.Vec
	for _, s := range nest(rings) {
		tris = append(tris, earClip(bridge(s))...)
	}
	return tris
}

// Lift maps 2D triangles produced in the coordinates of ConvertDown(axis)
// onto plane. The lifted triangles face the same way as the plane normal.
func Lift(tris [][3]v2.Vec, plane geom.Plane, axis int) []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, len(tris))
	for _, t := range tris {
		p := geom.Project(geom.ConvertUp(t[:], axis), plane, axis)
		tri := &sdf.Triangle3{p[0], p[1], p[2]}
		if n := p[1].Sub(p[0]).Cross(p[2].Sub(p[0])); n.Dot(plane.Normal) < 0 {
			tri[1], tri[2] = tri[2], tri[1]
		}
		out = append(out, tri)
	}
	return out
}

// Regions triangulates regions and lifts the result onto plane.
func Regions(regions [][]v2.Vec, plane geom.Plane, axis int) []*sdf.Triangle3 {
	return Lift(Triangulate(regions), plane, axis)
}

// Area returns the summed area of 2D triangles.
func Area(tris [][3]v2.Vec) float64 {
	var sum float64
	for _, t := range tris {
		sum += math.Abs(geom.Orient(t[0], t[1], t[2])) / 2
	}
	return sum
}

// ----------------------------------------------------------------------------
// Nesting
// ----------------------------------------------------------------------------

// inside reports whether ring a lies inside ring b, judged by the first
// vertex of a that is not on the boundary of b.
func inside(a, b []v2.Vec) bool {
	for _, p := range a {
		if !geom.OnBoundary(b, p, boundaryEps2) {
			return geom.Contains(b, p)
		}
	}
	return false
}

// nest groups rings into outer boundaries and their holes.
func nest(rings [][]v2.Vec) []shape {
	n := len(rings)
	depth := make([]int, n)
	parent := make([]int, n)
	for i := range rings {
		parent[i] = -1
		for j := range rings {
			if i == j || !inside(rings[i], rings[j]) {
				continue
			}
			depth[i]++
			// The innermost container has the smallest area.
			if parent[i] < 0 || math.Abs(geom.SignedArea(rings[j])) < math.Abs(geom.SignedArea(rings[parent[i]])) {
				parent[i] = j
			}
		}
	}

	shapes := make(map[int]*shape)
	var order []int
	for i, r := range rings {
		if depth[i]%2 == 0 {
			shapes[i] = &shape{outer: orient(r, true)}
			order = append(order, i)
		}
	}
	for i, r := range rings {
		if depth[i]%2 == 1 && parent[i] >= 0 {
			if s, ok := shapes[parent[i]]; ok {
				s.holes = append(s.holes, orient(r, false))
			}
		}
	}

	out := make([]shape, 0, len(order))
	for _, i := range order {
		out = append(out, *shapes[i])
	}
	return out
}

// orient returns r wound counter-clockwise if ccw, clockwise otherwise.
func orient(r []v2.Vec, ccw bool) []v2.Vec {
	out := append([]v2.Vec(nil), r...)
	if (geom.SignedArea(out) > 0) != ccw {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func dedupe(r []v2.Vec) []v2.Vec {
	out := make([]v2.Vec, 0, len(r))
	for _, p := range r {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[len(out)-1] == out[0] {
		out = out[:len(out)-1]
	}
	return out
}

// ----------------------------------------------------------------------------
// Hole bridging
// ----------------------------------------------------------------------------

// bridge merges the holes of s into its outer ring, each through a pair
// of coincident edges from the hole's rightmost vertex to the nearest
// outer vertex it can see.
func bridge(s shape) []v2.Vec {
	ring := s.outer
	holes := append([][]v2.Vec(nil), s.holes...)
	sort.SliceStable(holes, func(i, j int) bool {
		return holes[i][rightmost(holes[i])].X > holes[j][rightmost(holes[j])].X
	})

	for k, h := range holes {
		m := rightmost(h)
		mp := h[m]
		pending := holes[k+1:]

		best, bestD := -1, math.Inf(1)
		for i, p := range ring {
			d := p.Sub(mp).Length2()
			if d >= bestD || !visible(mp, p, ring, h, pending) {
				continue
			}
			best, bestD = i, d
		}
		if best < 0 {
			// Nothing visible; leave the hole out rather than corrupt the ring.
			continue
		}

		merged := make([]v2.Vec, 0, len(ring)+len(h)+2)
		merged = append(merged, ring[:best+1]...)
		for i := 0; i <= len(h); i++ {
			merged = append(merged, h[(m+i)%len(h)])
		}
		merged = append(merged, ring[best])
		merged = append(merged, ring[best+1:]...)
		ring = merged
	}
	return ring
}

func rightmost(r []v2.Vec) int {
	best := 0
	for i, p := range r {
		if p.X > r[best].X || (p.X == r[best].X && p.Y < r[best].Y) {
			best = i
		}
	}
	return best
}

// visible reports whether the segment ab crosses no edge of the given
// rings, apart from edges touching a or b.
func visible(a, b v2.Vec, ring, hole []v2.Vec, others [][]v2.Vec) bool {
	rings := append([][]v2.Vec{ring, hole}, others...)
	for _, r := range rings {
		n := len(r)
		for i := 0; i < n; i++ {
			c, d := r[i], r[(i+1)%n]
			if c == a || c == b || d == a || d == b {
				continue
			}
			if segmentsCross(a, b, c, d) {
				return false
			}
		}
	}
	return true
}

// segmentsCross reports whether the closed segments ab and cd intersect.
func segmentsCross(a, b, c, d v2.Vec) bool {
	d1, d2 := geom.Orient(a, b, c), geom.Orient(a, b, d)
	d3, d4 := geom.Orient(c, d, a), geom.Orient(c, d, b)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	onSeg := func(p, q, r v2.Vec) bool {
		return math.Min(p.X, q.X) <= r.X && r.X <= math.Max(p.X, q.X) &&
			math.Min(p.Y, q.Y) <= r.Y && r.Y <= math.Max(p.Y, q.Y)
	}
	return (d1 == 0 && onSeg(a, b, c)) || (d2 == 0 && onSeg(a, b, d)) ||
		(d3 == 0 && onSeg(c, d, a)) || (d4 == 0 && onSeg(c, d, b))
}

// ----------------------------------------------------------------------------
// Ear clipping
// ----------------------------------------------------------------------------

// earClip triangulates a counter-clockwise ring that may touch itself at
// bridge vertices.
func earClip(ring []v2.Vec) [][3]v2.Vec {
	idx := make([]int, len(ring))
	for i := range idx {
		idx[i] = i
	}
	var out [][3]v2.Vec
	for len(idx) > 3 {
		n := len(idx)
		ear := -1
		for i := 0; i < n; i++ {
			if isEar(ring, idx, i) {
				ear = i
				break
			}
		}
		if ear < 0 {
			// Only degenerate corners left: drop the flattest one.
			ear = flattest(ring, idx)
			idx = append(idx[:ear], idx[ear+1:]...)
			continue
		}
		a, b, c := ring[idx[(ear+n-1)%n]], ring[idx[ear]], ring[idx[(ear+1)%n]]
		if geom.Orient(a, b, c) > areaEps {
			out = append(out, [3]v2.Vec{a, b, c})
		}
		idx = append(idx[:ear], idx[ear+1:]...)
	}
	if len(idx) == 3 {
		a, b, c := ring[idx[0]], ring[idx[1]], ring[idx[2]]
		if geom.Orient(a, b, c) > areaEps {
			out = append(out, [3]v2.Vec{a, b, c})
		}
	}
	return out
}

func isEar(ring []v2.Vec, idx []int, i int) bool {
	n := len(idx)
	a, b, c := ring[idx[(i+n-1)%n]], ring[idx[i]], ring[idx[(i+1)%n]]
	if geom.Orient(a, b, c) <= areaEps {
		return false
	}
	for _, j := range idx {
		p := ring[j]
		if p == a || p == b || p == c {
			continue
		}
		if geom.Orient(a, b, p) >= 0 && geom.Orient(b, c, p) >= 0 && geom.Orient(c, a, p) >= 0 {
			return false
		}
	}
	return true
}

func flattest(ring []v2.Vec, idx []int) int {
	n := len(idx)
	best, bestA := 0, math.Inf(1)
	for i := 0; i < n; i++ {
		a := geom.Orient(ring[idx[(i+n-1)%n]], ring[idx[i]], ring[idx[(i+1)%n]])
		if a < bestA {
			best, bestA = i, a
		}
	}
	return best
}

// Vertices flattens lifted triangles to their corner points.
func Vertices(tris []*sdf.Triangle3) []v3.Vec {
	out := make([]v3.Vec, 0, 3*len(tris))
	for _, t := range tris {
		out = append(out, t[0], t[1], t[2])
	}
	return out
}
