package recovery

import "github.com/chazu/armorsight/pkg/geom"

// Separate splits polygon into simple polygons at its fused junctions.
// Tracing runs once around the ring; when it reaches a vertex whose
// fused partner is already on the current trace, the loop starting at
// the partner is split off as a polygon of its own. The set of
// polygons does not depend on where the ring starts.
func (g *Graph) Separate(polygon Ring) []Ring {
	var out []Ring
	current := make(Ring, 0, len(polygon))
	pos := make(map[int]int, len(polygon))

	for _, v := range polygon {
		if f := g.V[v].Fused; f != None {
			if k, ok := pos[f]; ok {
				loop := make(Ring, len(current)-k)
				copy(loop, current[k:])
				out = append(out, loop)
				for _, w := range current[k+1:] {
					delete(pos, w)
				}
				current = current[:k+1]
				continue
			}
		}
		pos[v] = len(current)
		current = append(current, v)
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}

// collinearTol is the relative tolerance for dropping a vertex between
// two collinear neighbours.
const collinearTol = 1e-9

// Clean removes duplicate vertices and vertices between collinear
// neighbours from every polygon, and drops polygons left with fewer
// than three vertices.
func (g *Graph) Clean(polygons []Ring) []Ring {
	out := make([]Ring, 0, len(polygons))
	for _, r := range polygons {
		r = g.clean(r)
		if len(r) >= 3 {
			out = append(out, r)
		}
	}
	return out
}

func (g *Graph) clean(r Ring) Ring {
	r = append(Ring(nil), r...)
	for changed := true; changed && len(r) >= 3; {
		changed = false
		for i := 0; i < len(r) && len(r) >= 3; i++ {
			n := len(r)
			prev := g.V[r[(i+n-1)%n]].Point
			cur := g.V[r[i]].Point
			next := g.V[r[(i+1)%n]].Point
			if near(prev, cur) || geom.Collinear(prev, cur, next, collinearTol) {
				r = append(r[:i], r[i+1:]...)
				changed = true
				i--
			}
		}
	}
	return r
}
