package recovery

import (
	"errors"

	"github.com/chazu/armorsight/pkg/geom"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// ErrIdenticalPolygons is returned by Label when every edge of the
// subject lies on the clip boundary.
var ErrIdenticalPolygons = errors.New("recovery: subject and clip are identical")

type side int

const (
	outside side = iota
	inside
	on
)

// edgeSides classifies every edge of r by where its midpoint lies
// relative to the polygon other.
func (g *Graph) edgeSides(r Ring, other []v2.Vec) []side {
	n := len(r)
	sides := make([]side, n)
	for i := 0; i < n; i++ {
		a, b := g.V[r[i]].Point, g.V[r[(i+1)%n]].Point
		mid := a.Add(b).MulScalar(0.5)
		switch {
		case geom.OnBoundary(other, mid, eps2):
			sides[i] = on
		case geom.Contains(other, mid):
			sides[i] = inside
		default:
			sides[i] = outside
		}
	}
	return sides
}

// Label marks the intersection vertices of subject as entries into or
// exits from clip.
//
// A crossing from outside to inside is an entry, from inside to outside
// an exit. A vertex where the boundary touches clip from inside and
// returns inside is both; one that touches from outside is neither.
// A chain of edges running along the clip boundary is labeled at its
// ends only, by the sides before and after it: outside to inside makes
// the end an entry, inside to outside makes the start an exit, and
// inside on both sides makes the start an exit and the end an entry.
func (g *Graph) Label(subject, clip Ring) error {
	n := len(subject)
	if n == 0 {
		return nil
	}
	sides := g.edgeSides(subject, g.Points(clip))
	prev := func(i int) side { return sides[(i+n-1)%n] }

	allOn := true
	for _, s := range sides {
		if s != on {
			allOn = false
			break
		}
	}
	if allOn {
		return ErrIdenticalPolygons
	}

	for i := 0; i < n; i++ {
		v := &g.V[subject[i]]
		if !v.Intersection {
			continue
		}
		before, after := prev(i), sides[i]
		switch {
		case before == on:
			// Inside a chain or at its end; handled from the chain start.
		case after != on:
			switch {
			case before == outside && after == inside:
				v.Entry = true
			case before == inside && after == outside:
				v.Exit = true
			case before == inside && after == inside:
				v.Entry, v.Exit = true, true
			}
		default:
			j := i
			for sides[j] == on {
				j = (j + 1) % n
			}
			end := &g.V[subject[j]]
			after = sides[j]
			if before == inside {
				v.Exit = true
			}
			if after == inside && end.Intersection {
				end.Entry = true
			}
		}
	}
	return nil
}
