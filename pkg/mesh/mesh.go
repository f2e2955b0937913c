// Package mesh defines the triangle mesh type shared by the occlusion
// engine and its collaborators. Triangles are held by pointer: two
// triangles with equal coordinates are still different triangles, and
// caches and self-occlusion checks rely on that identity.
package mesh

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is an ordered, mutable sequence of triangles.
// ID is an opaque tag used in diagnostics only.
type Mesh struct {
	ID        string
	Triangles []*sdf.Triangle3
}

// New returns a mesh with the given id and triangles.
func New(id string, tris ...*sdf.Triangle3) *Mesh {
	return &Mesh{ID: id, Triangles: tris}
}

// Triangle allocates a new triangle from three vertices.
func Triangle(a, b, c v3.Vec) *sdf.Triangle3 {
	return &sdf.Triangle3{a, b, c}
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Triangles) == 0
}

// Clone returns a mesh with a fresh triangle slice holding the same
// triangle pointers. Mutating the clone's slice leaves m untouched.
func (m *Mesh) Clone() *Mesh {
	tris := make([]*sdf.Triangle3, len(m.Triangles))
	copy(tris, m.Triangles)
	return &Mesh{ID: m.ID, Triangles: tris}
}

// Area returns the summed area of all triangles.
func (m *Mesh) Area() float64 {
	var sum float64
	for _, t := range m.Triangles {
		sum += TriangleArea(t)
	}
	return sum
}

// TriangleArea returns the area of t.
func TriangleArea(t *sdf.Triangle3) float64 {
	return t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Length() / 2
}

// String implements fmt.Stringer.
func (m *Mesh) String() string {
	return fmt.Sprintf("mesh %q (%d triangles)", m.ID, len(m.Triangles))
}
