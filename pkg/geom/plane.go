// Package geom holds the 3D and 2D helpers of the occlusion pipeline:
// bounding boxes, planes, projection along a coordinate axis, and the
// reduction of planar 3D polygons to 2D and back.
//
// Axes are numbered 0 (x), 1 (y) and 2 (z).
package geom

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Plane is the set of points x with Normal·x = D. Normal is not
// necessarily of unit length.
type Plane struct {
	Normal v3.Vec
	D      float64
}

// TrianglePlane returns the plane through t, with the unnormalized
// normal (t1-t0)×(t2-t0).
func TrianglePlane(t *sdf.Triangle3) Plane {
	n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
	return Plane{Normal: n, D: n.Dot(t[0])}
}

// Degenerate reports whether the plane has a zero normal.
func (p Plane) Degenerate() bool {
	return p.Normal.Length2() == 0
}

// Side returns the signed, unnormalized distance of v from the plane.
func (p Plane) Side(v v3.Vec) float64 {
	return p.Normal.Dot(v) - p.D
}

// AxisVector returns the unit vector along axis.
func AxisVector(axis int) v3.Vec {
	var v v3.Vec
	v.Set(axis, 1)
	return v
}

// ValidAxis reports whether axis is 0, 1 or 2.
func ValidAxis(axis int) bool {
	return axis >= 0 && axis < 3
}

// DominantAxis returns the axis with the largest absolute normal
// component, the axis along which a projection of the plane has the
// largest area. Ties go to the higher axis.
func DominantAxis(n v3.Vec) int {
	a := n.Abs()
	axis := 0
	for i := 1; i < 3; i++ {
		if a.Get(i) >= a.Get(axis) {
			axis = i
		}
	}
	return axis
}

// Cut clips the polygon poly against the plane and returns the part on
// the positive side (above) or on the negative side (!above). Points on
// the plane belong to both sides.
func Cut(poly []v3.Vec, p Plane, above bool) []v3.Vec {
	n := len(poly)
	if n == 0 {
		return nil
	}
	inside := func(v v3.Vec) bool {
		s := p.Side(v)
		if above {
			return s >= 0
		}
		return s <= 0
	}

	out := make([]v3.Vec, 0, n+1)
	for i := 0; i < n; i++ {
		cur := poly[i]
		next := poly[(i+1)%n]
		curIn, nextIn := inside(cur), inside(next)
		if curIn {
			out = append(out, cur)
		}
		if curIn == nextIn {
			continue
		}
		// A vertex on the plane is its own crossing point.
		sc, sn := p.Side(cur), p.Side(next)
		if sc != 0 && sn != 0 {
			t := sc / (sc - sn)
			out = append(out, cur.Add(next.Sub(cur).MulScalar(t)))
		}
	}
	return out
}

// Project moves every point of poly along axis until it lies on the
// plane. The plane must not be parallel to axis.
func Project(poly []v3.Vec, p Plane, axis int) []v3.Vec {
	na := p.Normal.Get(axis)
	out := make([]v3.Vec, len(poly))
	for i, v := range poly {
		w := v
		w.Set(axis, 0)
		w.Set(axis, (p.D-p.Normal.Dot(w))/na)
		out[i] = w
	}
	return out
}
