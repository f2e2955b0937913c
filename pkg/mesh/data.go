package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrMalformed is returned by FromData for inconsistent buffers.
var ErrMalformed = errors.New("mesh: malformed data")

// Data is the flat wire form of a mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Data struct {
	Vertices []float64 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float64 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // mesh ID
}

// VertexCount returns the number of vertices.
func (d *Data) VertexCount() int {
	return len(d.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (d *Data) TriangleCount() int {
	return len(d.Indices) / 3
}

// ToData flattens m. Every triangle gets its own three vertices, each
// carrying the face normal. Degenerate triangles get a zero normal.
func (m *Mesh) ToData() *Data {
	n := len(m.Triangles)
	d := &Data{
		Vertices: make([]float64, 0, n*9),
		Normals:  make([]float64, 0, n*9),
		Indices:  make([]uint32, 0, n*3),
		PartName: m.ID,
	}
	for i, tri := range m.Triangles {
		nrm := tri.Normal()
		if math.IsNaN(nrm.X) || math.IsNaN(nrm.Y) || math.IsNaN(nrm.Z) {
			nrm = v3.Vec{}
		}
		for j := 0; j < 3; j++ {
			v := tri[j]
			d.Vertices = append(d.Vertices, v.X, v.Y, v.Z)
			d.Normals = append(d.Normals, nrm.X, nrm.Y, nrm.Z)
			d.Indices = append(d.Indices, uint32(i*3+j))
		}
	}
	return d
}

// FromData rebuilds a mesh from its wire form. Normals are ignored; the
// winding of the index buffer defines each face.
func FromData(d *Data) (*Mesh, error) {
	if len(d.Vertices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d vertex floats", ErrMalformed, len(d.Vertices))
	}
	if len(d.Indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices", ErrMalformed, len(d.Indices))
	}
	nv := uint32(d.VertexCount())
	vertex := func(i uint32) v3.Vec {
		return v3.Vec{X: d.Vertices[3*i], Y: d.Vertices[3*i+1], Z: d.Vertices[3*i+2]}
	}

	tris := make([]*sdf.Triangle3, 0, d.TriangleCount())
	for i := 0; i < len(d.Indices); i += 3 {
		a, b, c := d.Indices[i], d.Indices[i+1], d.Indices[i+2]
		if a >= nv || b >= nv || c >= nv {
			return nil, fmt.Errorf("%w: triangle %d references vertex beyond %d", ErrMalformed, i/3, nv)
		}
		tris = append(tris, Triangle(vertex(a), vertex(b), vertex(c)))
	}
	return &Mesh{ID: d.PartName, Triangles: tris}, nil
}
