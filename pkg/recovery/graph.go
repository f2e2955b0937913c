package recovery

import (
	"errors"
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// None marks an unset link.
const None = -1

// Epsilon is the distance below which two points coincide.
const Epsilon = 1e-10

const eps2 = Epsilon * Epsilon

// Vertex is a polygon vertex in the intersection graph. Corresponding
// and Fused are indices into the owning Graph, or None.
type Vertex struct {
	Point        v2.Vec
	Intersection bool
	// Corresponding is the same intersection in the other polygon.
	Corresponding int
	Entry, Exit   bool
	// Fused is the vertex this one was snapped together with.
	Fused int
}

// Labeled reports whether v is an entry or an exit.
func (v *Vertex) Labeled() bool {
	return v.Entry || v.Exit
}

// Ring is a closed polygon given as the cyclic sequence of its vertex
// indices.
type Ring []int

// Graph is the vertex arena shared by the subject and clip rings of one
// recovery run.
type Graph struct {
	V []Vertex
}

// Add appends an unlinked vertex at p and returns its index.
func (g *Graph) Add(p v2.Vec) int {
	g.V = append(g.V, Vertex{Point: p, Corresponding: None, Fused: None})
	return len(g.V) - 1
}

// AddRing adds one vertex per point and returns the ring over them.
func (g *Graph) AddRing(pts []v2.Vec) Ring {
	r := make(Ring, len(pts))
	for i, p := range pts {
		r[i] = g.Add(p)
	}
	return r
}

// Copy adds a vertex with the point and labels of vertex i, but none of
// its links.
func (g *Graph) Copy(i int) int {
	v := g.V[i]
	v.Corresponding, v.Fused = None, None
	g.V = append(g.V, v)
	return len(g.V) - 1
}

// Link marks a and b as the same intersection.
func (g *Graph) Link(a, b int) {
	g.V[a].Intersection, g.V[b].Intersection = true, true
	g.V[a].Corresponding, g.V[b].Corresponding = b, a
}

// FuseLink records that a and b were snapped to one point.
func (g *Graph) FuseLink(a, b int) {
	g.V[a].Fused, g.V[b].Fused = b, a
}

// Points returns the coordinates of r.
func (g *Graph) Points(r Ring) []v2.Vec {
	pts := make([]v2.Vec, len(r))
	for i, idx := range r {
		pts[i] = g.V[idx].Point
	}
	return pts
}

// Intersections returns the number of intersection vertices in r.
func (g *Graph) Intersections(r Ring) int {
	n := 0
	for _, idx := range r {
		if g.V[idx].Intersection {
			n++
		}
	}
	return n
}

// ErrAsymmetric is returned by Check when a link is not returned by the
// vertex it points to.
var ErrAsymmetric = errors.New("recovery: asymmetric link")

// Check verifies that every link in the arena is symmetric.
func (g *Graph) Check() error {
	for i, v := range g.V {
		if c := v.Corresponding; c != None && g.V[c].Corresponding != i {
			return fmt.Errorf("%w: vertex %d corresponds to %d, which corresponds to %d", ErrAsymmetric, i, c, g.V[c].Corresponding)
		}
		if f := v.Fused; f != None && g.V[f].Fused != i {
			return fmt.Errorf("%w: vertex %d is fused to %d, which is fused to %d", ErrAsymmetric, i, f, g.V[f].Fused)
		}
	}
	return nil
}
