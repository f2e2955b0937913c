package recovery

import (
	"sort"

	"github.com/chazu/armorsight/pkg/geom"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// insertion is a vertex to be placed on an edge, at parameter t from the
// edge's start.
type insertion struct {
	t   float64
	idx int
}

// edgeInserts collects insertions per edge of one ring.
type edgeInserts map[int][]insertion

func (e edgeInserts) add(edge int, t float64, idx int) {
	e[edge] = append(e[edge], insertion{t: t, idx: idx})
}

// apply returns r with the insertions placed after the start of their
// edges, ordered by parameter.
func (e edgeInserts) apply(r Ring) Ring {
	if len(e) == 0 {
		return r
	}
	out := make(Ring, 0, len(r)+len(e))
	for i, idx := range r {
		out = append(out, idx)
		ins := e[i]
		sort.SliceStable(ins, func(a, b int) bool { return ins[a].t < ins[b].t })
		for _, in := range ins {
			out = append(out, in.idx)
		}
	}
	return out
}

func near(a, b v2.Vec) bool {
	return a.Sub(b).Length2() <= eps2
}

// Interconnect inserts every intersection of the boundaries of subject
// and clip into both rings and links each pair with Corresponding.
// Proper crossings, vertices lying on the other ring's edges, shared
// vertices and the endpoints of overlapping collinear edges are all
// intersections. A vertex already at an intersection is marked and
// linked in place. The input rings are not modified.
func (g *Graph) Interconnect(subject, clip Ring) (Ring, Ring) {
	ns, nc := len(subject), len(clip)
	sIns, cIns := edgeInserts{}, edgeInserts{}
	linkedC := make(map[int]bool)

	// Subject vertices on clip edges.
	for _, si := range subject {
		p := g.V[si].Point
		for j := 0; j < nc; j++ {
			a, b := clip[j], clip[(j+1)%nc]
			d2, u := geom.SegmentDistance2(p, g.V[a].Point, g.V[b].Point)
			if d2 > eps2 {
				continue
			}
			switch {
			case near(p, g.V[a].Point):
				g.linkVertex(si, a, j, cIns)
				linkedC[a] = true
			case near(p, g.V[b].Point):
				g.linkVertex(si, b, (j+1)%nc, cIns)
				linkedC[b] = true
			default:
				n := g.Add(p)
				g.Link(si, n)
				cIns.add(j, u, n)
			}
			break
		}
	}

	// Clip vertices inside subject edges.
	for _, ci := range clip {
		if linkedC[ci] {
			continue
		}
		q := g.V[ci].Point
		for i := 0; i < ns; i++ {
			a, b := subject[i], subject[(i+1)%ns]
			if near(q, g.V[a].Point) {
				if g.V[a].Corresponding == None {
					g.Link(a, ci)
				} else {
					g.linkVertex(ci, a, i, sIns)
				}
				break
			}
			if near(q, g.V[b].Point) {
				continue
			}
			d2, t := geom.SegmentDistance2(q, g.V[a].Point, g.V[b].Point)
			if d2 > eps2 {
				continue
			}
			n := g.Add(q)
			g.Link(n, ci)
			sIns.add(i, t, n)
			break
		}
	}

	// Proper crossings of edge interiors.
	for i := 0; i < ns; i++ {
		a, b := g.V[subject[i]].Point, g.V[subject[(i+1)%ns]].Point
		for j := 0; j < nc; j++ {
			c, d := g.V[clip[j]].Point, g.V[clip[(j+1)%nc]].Point
			p, t, u, ok := crossing(a, b, c, d)
			if !ok || near(p, a) || near(p, b) || near(p, c) || near(p, d) {
				continue
			}
			sn, cn := g.Add(p), g.Add(p)
			g.Link(sn, cn)
			sIns.add(i, t, sn)
			cIns.add(j, u, cn)
		}
	}

	return sIns.apply(subject), cIns.apply(clip)
}

// linkVertex links v to the vertex w of the other ring at the same point.
// A ring touching itself can bring a second vertex to a w that is already
// linked; that one gets a coincident copy of w, inserted at the start of
// w's outgoing edge, so every link stays one to one.
func (g *Graph) linkVertex(v, w, edge int, ins edgeInserts) {
	if g.V[w].Corresponding == None {
		g.Link(v, w)
		return
	}
	n := g.Add(g.V[w].Point)
	g.Link(v, n)
	ins.add(edge, 0, n)
}

// crossing intersects the segments ab and cd. It reports false for
// parallel segments and for intersections outside either segment.
func crossing(a, b, c, d v2.Vec) (v2.Vec, float64, float64, bool) {
	r, s := b.Sub(a), d.Sub(c)
	den := r.Cross(s)
	if den == 0 {
		return v2.Vec{}, 0, 0, false
	}
	ac := c.Sub(a)
	t := ac.Cross(s) / den
	u := ac.Cross(r) / den
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return v2.Vec{}, 0, 0, false
	}
	return a.Add(r.MulScalar(t)), t, u, true
}
