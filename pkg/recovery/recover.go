// Package recovery repairs pairs of 2D polygons that the boolean
// primitive rejected as degenerate.
//
// Both polygons are loaded into one vertex arena (Graph) and their
// boundaries are interconnected at every intersection. Intersections
// are labeled as entries into or exits from the other polygon, entry and
// exit pairs closer than the minimum edge length are snapped together,
// and each polygon is separated at the snapped junctions into simple
// polygons that no longer carry near-zero-length edges.
//
// All links between vertices are arena indices and are set in pairs, so
// corresponding and fused relations are symmetric.
package recovery

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Result holds the recovered subject and clip polygons. Touched is false
// when the boundaries never met and both polygons came back as they were.
type Result struct {
	Subject [][]v2.Vec
	Clip    [][]v2.Vec
	Touched bool
}

// Recover runs interconnect, label, split, fuse, separate and clean on a
// subject and a clip polygon. Polygons whose boundaries do not meet come
// back unchanged. Errors are ErrIdenticalPolygons, and ErrAsymmetric if
// the graph could not keep its links one to one.
func Recover(subject, clip []v2.Vec, minLengthSq float64) (Result, error) {
	g := &Graph{}
	s, c := g.Interconnect(g.AddRing(subject), g.AddRing(clip))
	if g.Intersections(s) == 0 {
		return Result{
			Subject: [][]v2.Vec{append([]v2.Vec(nil), subject...)},
			Clip:    [][]v2.Vec{append([]v2.Vec(nil), clip...)},
		}, nil
	}

	if err := g.Label(s, c); err != nil {
		return Result{}, err
	}
	if err := g.Label(c, s); err != nil {
		return Result{}, err
	}
	s, c = g.SplitHybrids(s, c)
	c, s = g.SplitHybrids(c, s)
	g.Fuse(s, minLengthSq)
	g.Fuse(c, minLengthSq)
	if err := g.Check(); err != nil {
		return Result{}, err
	}

	return Result{
		Subject: g.polygons(g.Clean(g.Separate(s))),
		Clip:    g.polygons(g.Clean(g.Separate(c))),
		Touched: true,
	}, nil
}

func (g *Graph) polygons(rings []Ring) [][]v2.Vec {
	out := make([][]v2.Vec, len(rings))
	for i, r := range rings {
		out[i] = g.Points(r)
	}
	return out
}
