package geom

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ConvertDown drops coordinate axis from every point. The remaining two
// coordinates keep their order: axis 0 gives (y, z), axis 1 gives (x, z)
// and axis 2 gives (x, y).
func ConvertDown(poly []v3.Vec, axis int) []v2.Vec {
	out := make([]v2.Vec, len(poly))
	for i, v := range poly {
		switch axis {
		case 0:
			out[i] = v2.Vec{X: v.Y, Y: v.Z}
		case 1:
			out[i] = v2.Vec{X: v.X, Y: v.Z}
		default:
			out[i] = v2.Vec{X: v.X, Y: v.Y}
		}
	}
	return out
}

// ConvertUp is the inverse of ConvertDown. The coordinate on axis is zero.
func ConvertUp(poly []v2.Vec, axis int) []v3.Vec {
	out := make([]v3.Vec, len(poly))
	for i, v := range poly {
		switch axis {
		case 0:
			out[i] = v3.Vec{Y: v.X, Z: v.Y}
		case 1:
			out[i] = v3.Vec{X: v.X, Z: v.Y}
		default:
			out[i] = v3.Vec{X: v.X, Y: v.Y}
		}
	}
	return out
}

// Fuse removes vertices closer than √minLengthSq to the previously kept
// vertex, including across the closing edge. The result is a new slice.
func Fuse(poly []v2.Vec, minLengthSq float64) []v2.Vec {
	out := make([]v2.Vec, 0, len(poly))
	for _, v := range poly {
		if len(out) > 0 && v.Sub(out[len(out)-1]).Length2() < minLengthSq {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && out[len(out)-1].Sub(out[0]).Length2() < minLengthSq {
		out = out[:len(out)-1]
	}
	return out
}

// SignedArea returns the shoelace area of poly, positive when the ring
// winds counter-clockwise.
func SignedArea(poly []v2.Vec) float64 {
	var sum float64
	n := len(poly)
	for i := 0; i < n; i++ {
		sum += poly[i].Cross(poly[(i+1)%n])
	}
	return sum / 2
}

// Orient returns the doubled signed area of the triangle abc.
func Orient(a, b, c v2.Vec) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

// Collinear reports whether b lies on the line through a and c, with a
// tolerance relative to the lengths involved.
func Collinear(a, b, c v2.Vec, tol float64) bool {
	ab, ac := b.Sub(a), c.Sub(a)
	scale := math.Max(ab.Length2(), ac.Length2())
	if scale == 0 {
		return true
	}
	cr := ab.Cross(ac)
	return cr*cr <= tol*tol*scale*scale
}

// SegmentDistance2 returns the squared distance from p to the segment ab
// and the parameter of the closest point, clamped to [0, 1].
func SegmentDistance2(p, a, b v2.Vec) (float64, float64) {
	ab := b.Sub(a)
	l2 := ab.Length2()
	if l2 == 0 {
		return p.Sub(a).Length2(), 0
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Sub(a.Add(ab.MulScalar(t))).Length2(), t
}

// Contains reports whether p lies inside poly using the even-odd rule.
// Points on the boundary may go either way.
func Contains(poly []v2.Vec, p v2.Vec) bool {
	in := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < x {
				in = !in
			}
		}
	}
	return in
}

// OnBoundary reports whether p lies within sqrt(eps2) of an edge of poly.
func OnBoundary(poly []v2.Vec, p v2.Vec, eps2 float64) bool {
	n := len(poly)
	for i := 0; i < n; i++ {
		if d, _ := SegmentDistance2(p, poly[i], poly[(i+1)%n]); d <= eps2 {
			return true
		}
	}
	return false
}
