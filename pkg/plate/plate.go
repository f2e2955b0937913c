// Package plate builds armor meshes for the occlusion engine: analytic
// boxes and quads, solids rendered from sdfx signed distance functions,
// and STL files.
package plate

import (
	"fmt"
	"math"

	"github.com/chazu/armorsight/pkg/mesh"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultCells controls marching cubes resolution along the longest side
// of a solid.
const DefaultCells = 200

// Quad returns the two triangles abc and acd. The quad faces the way
// abc winds.
func Quad(id string, a, b, c, d v3.Vec) *mesh.Mesh {
	return mesh.New(id, mesh.Triangle(a, b, c), mesh.Triangle(a, c, d))
}

// Box returns the 12 triangles of an axis-aligned box, all facing
// outward.
func Box(id string, min, max v3.Vec) *mesh.Mesh {
	x0, y0, z0 := min.X, min.Y, min.Z
	x1, y1, z1 := max.X, max.Y, max.Z
	faces := [][4]v3.Vec{
		{{X: x0, Y: y0, Z: z0}, {X: x0, Y: y1, Z: z0}, {X: x1, Y: y1, Z: z0}, {X: x1, Y: y0, Z: z0}}, // -z
		{{X: x0, Y: y0, Z: z1}, {X: x1, Y: y0, Z: z1}, {X: x1, Y: y1, Z: z1}, {X: x0, Y: y1, Z: z1}}, // +z
		{{X: x0, Y: y0, Z: z0}, {X: x1, Y: y0, Z: z0}, {X: x1, Y: y0, Z: z1}, {X: x0, Y: y0, Z: z1}}, // -y
		{{X: x0, Y: y1, Z: z0}, {X: x0, Y: y1, Z: z1}, {X: x1, Y: y1, Z: z1}, {X: x1, Y: y1, Z: z0}}, // +y
		{{X: x0, Y: y0, Z: z0}, {X: x0, Y: y0, Z: z1}, {X: x0, Y: y1, Z: z1}, {X: x0, Y: y1, Z: z0}}, // -x
		{{X: x1, Y: y0, Z: z0}, {X: x1, Y: y1, Z: z0}, {X: x1, Y: y1, Z: z1}, {X: x1, Y: y0, Z: z1}}, // +x
	}
	m := mesh.New(id)
	for _, f := range faces {
		m.Triangles = append(m.Triangles,
			mesh.Triangle(f[0], f[1], f[2]),
			mesh.Triangle(f[0], f[2], f[3]))
	}
	return m
}

// Slab returns a box solid of the given size with its minimum corner at
// the origin, rotated by Euler angles in degrees around X, Y and Z and
// then moved to at.
func Slab(size, at, rotate v3.Vec) (sdf.SDF3, error) {
	s, err := sdf.Box3D(size, 0)
	if err != nil {
		return nil, fmt.Errorf("plate: slab %v: %w", size, err)
	}
	// sdf.Box3D centers the box at the origin.
	m := sdf.Translate3d(at).
		Mul(rotation(rotate)).
		Mul(sdf.Translate3d(size.MulScalar(0.5)))
	return sdf.Transform3D(s, m), nil
}

func rotation(deg v3.Vec) sdf.M44 {
	r := deg.MulScalar(math.Pi / 180)
	return sdf.RotateZ(r.Z).Mul(sdf.RotateY(r.Y)).Mul(sdf.RotateX(r.X))
}

// FromSDF renders s to a mesh with uniform marching cubes. A cells value
// below one selects DefaultCells.
func FromSDF(id string, s sdf.SDF3, cells int) *mesh.Mesh {
	if cells < 1 {
		cells = DefaultCells
	}
	renderer := render.NewMarchingCubesUniform(cells)
	return mesh.New(id, render.ToTriangles(s, renderer)...)
}

// Hull renders the union of solids as one mesh.
func Hull(id string, cells int, solids ...sdf.SDF3) (*mesh.Mesh, error) {
	if len(solids) == 0 {
		return nil, fmt.Errorf("plate: hull %q: no solids", id)
	}
	return FromSDF(id, sdf.Union3D(solids...), cells), nil
}

// Transform returns a copy of m with every vertex mapped through t.
func Transform(m *mesh.Mesh, t sdf.M44) *mesh.Mesh {
	out := mesh.New(m.ID)
	out.Triangles = make([]*sdf.Triangle3, len(m.Triangles))
	for i, tri := range m.Triangles {
		out.Triangles[i] = mesh.Triangle(t.MulPosition(tri[0]), t.MulPosition(tri[1]), t.MulPosition(tri[2]))
	}
	return out
}

// LoadSTL reads an ASCII or binary STL file into a mesh.
func LoadSTL(id, path string) (*mesh.Mesh, error) {
	tris, err := render.LoadSTL(path)
	if err != nil {
		return nil, fmt.Errorf("plate: load %s: %w", path, err)
	}
	return mesh.New(id, tris...), nil
}

// SaveSTL writes m to a binary STL file.
func SaveSTL(path string, m *mesh.Mesh) error {
	if err := render.SaveSTL(path, m.Triangles); err != nil {
		return fmt.Errorf("plate: save %s: %w", path, err)
	}
	return nil
}
