package occlude_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/chazu/armorsight/pkg/mesh"
	"github.com/chazu/armorsight/pkg/occlude"
	"github.com/chazu/armorsight/pkg/polybool"
	"github.com/chazu/armorsight/pkg/recovery"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vec(x, y, z float64) v3.Vec { return v3.Vec{X: x, Y: y, Z: z} }

// quad returns the two triangles abc and acd.
func quad(id string, a, b, c, d v3.Vec) *mesh.Mesh {
	return mesh.New(id, mesh.Triangle(a, b, c), mesh.Triangle(a, c, d))
}

// floor is a 2x2 square in the z=0 plane facing +z.
func floor() *mesh.Mesh {
	return quad("floor", vec(0, 0, 0), vec(2, 0, 0), vec(2, 2, 0), vec(0, 2, 0))
}

// flipped is floor facing -z.
func flipped() *mesh.Mesh {
	return quad("flipped", vec(0, 0, 0), vec(0, 2, 0), vec(2, 2, 0), vec(2, 0, 0))
}

func bounds(m *mesh.Mesh) sdf.Box3 {
	b := m.Triangles[0].BoundingBox()
	for _, t := range m.Triangles[1:] {
		b = b.Extend(t.BoundingBox())
	}
	return b
}

func TestOcclude(t *testing.T) {
	tests := []struct {
		name    string
		subject *mesh.Mesh
		other   *mesh.Mesh
		area    float64
		box     sdf.Box3
	}{
		{
			name:    "corner covered",
			subject: floor(),
			other:   quad("lid", vec(1, 1, 1), vec(3, 1, 1), vec(3, 3, 1), vec(1, 3, 1)),
			area:    3,
			box:     sdf.Box3{Min: vec(0, 0, 0), Max: vec(2, 2, 0)},
		},
		{
			name:    "fully covered",
			subject: floor(),
			other:   quad("lid", vec(-1, -1, 1), vec(3, -1, 1), vec(3, 3, 1), vec(-1, 3, 1)),
			area:    0,
		},
		{
			name:    "ramp in front",
			subject: floor(),
			other:   quad("ramp", vec(0, 0, -1), vec(2, 0, 1), vec(2, 2, 1), vec(0, 2, -1)),
			area:    2,
			box:     sdf.Box3{Min: vec(0, 0, 0), Max: vec(1, 2, 0)},
		},
		{
			// Winding does not change which side is in front.
			name:    "ramp over flipped floor",
			subject: flipped(),
			other:   quad("ramp", vec(0, 0, -1), vec(2, 0, 1), vec(2, 2, 1), vec(0, 2, -1)),
			area:    2,
			box:     sdf.Box3{Min: vec(0, 0, 0), Max: vec(1, 2, 0)},
		},
		{
			name:    "seen edge-on",
			subject: quad("wall", vec(0, 0, 0), vec(0, 2, 0), vec(0, 2, 2), vec(0, 0, 2)),
			other:   mesh.New("empty"),
			area:    0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normal := tt.subject.Triangles[0].Normal()
			got, err := occlude.Occlude(tt.subject, tt.other, 2)
			require.NoError(t, err)
			assert.Same(t, tt.subject, got)
			assert.InDelta(t, tt.area, got.Area(), 1e-9)
			if tt.area == 0 {
				assert.True(t, got.IsEmpty())
				return
			}

			b := bounds(got)
			assert.InDelta(t, tt.box.Min.X, b.Min.X, 1e-9)
			assert.InDelta(t, tt.box.Min.Y, b.Min.Y, 1e-9)
			assert.InDelta(t, tt.box.Max.X, b.Max.X, 1e-9)
			assert.InDelta(t, tt.box.Max.Y, b.Max.Y, 1e-9)
			assert.InDelta(t, 0, b.Min.Z, 1e-12)
			assert.InDelta(t, 0, b.Max.Z, 1e-12)
			for i, tri := range got.Triangles {
				assert.Greater(t, tri.Normal().Dot(normal), 0.0, "triangle %d winding", i)
			}
		})
	}
}

func TestOccludeKeepsUncoveredTriangles(t *testing.T) {
	subject := floor()
	before := append([]*sdf.Triangle3(nil), subject.Triangles...)
	behind := quad("below", vec(0, 0, -1), vec(2, 0, -1), vec(2, 2, -1), vec(0, 2, -1))
	aside := quad("aside", vec(5, 5, 1), vec(6, 5, 1), vec(6, 6, 1), vec(5, 6, 1))

	for _, other := range []*mesh.Mesh{behind, aside, mesh.New("empty")} {
		got, err := occlude.Occlude(subject, other, 2)
		require.NoError(t, err)
		require.Len(t, got.Triangles, 2)
		assert.Same(t, before[0], got.Triangles[0])
		assert.Same(t, before[1], got.Triangles[1])
	}
}

func TestOccludeSelf(t *testing.T) {
	// Two stacked floors in one mesh: the upper one hides the lower one.
	m := mesh.New("stack",
		mesh.Triangle(vec(0, 0, 0), vec(2, 0, 0), vec(2, 2, 0)),
		mesh.Triangle(vec(0, 0, 0), vec(2, 2, 0), vec(0, 2, 0)),
		mesh.Triangle(vec(0, 0, 1), vec(2, 0, 1), vec(2, 2, 1)),
		mesh.Triangle(vec(0, 0, 1), vec(2, 2, 1), vec(0, 2, 1)),
	)
	upper := append([]*sdf.Triangle3(nil), m.Triangles[2:]...)

	got, err := occlude.Occlude(m, m, 2)
	require.NoError(t, err)
	require.Len(t, got.Triangles, 2)
	assert.Same(t, upper[0], got.Triangles[0])
	assert.Same(t, upper[1], got.Triangles[1])
}

func TestOccludeInvalidAxis(t *testing.T) {
	subject := floor()
	before := append([]*sdf.Triangle3(nil), subject.Triangles...)
	for _, axis := range []int{-1, 3} {
		_, err := occlude.Occlude(subject, floor(), axis)
		assert.ErrorIs(t, err, occlude.ErrInvalidAxis)
		assert.Equal(t, before, subject.Triangles)
	}
}

// flaky fails SelectDifference on the calls selected by fail.
type flaky struct {
	polybool.Primitive
	fail  func(call int) bool
	calls int
}

func (f *flaky) SelectDifference(c polybool.Combined) (polybool.Segments, error) {
	f.calls++
	if f.fail(f.calls) {
		return polybool.Segments{}, polybool.ErrDegenerate
	}
	return f.Primitive.SelectDifference(c)
}

func TestOccludeRetries(t *testing.T) {
	lid := func() *mesh.Mesh {
		return quad("lid", vec(1, 1, 1), vec(3, 1, 1), vec(3, 3, 1), vec(1, 3, 1))
	}

	t.Run("recovers", func(t *testing.T) {
		prim := &flaky{Primitive: polybool.New(0), fail: func(call int) bool { return call == 1 }}
		opts := occlude.DefaultOptions()
		opts.Primitive = prim
		got, err := occlude.New(opts).Occlude(floor(), lid(), 2)
		require.NoError(t, err)
		assert.InDelta(t, 3, got.Area(), 1e-9)
	})

	t.Run("gives up", func(t *testing.T) {
		prim := &flaky{Primitive: polybool.New(0), fail: func(int) bool { return true }}
		opts := occlude.DefaultOptions()
		opts.Primitive = prim
		got, err := occlude.New(opts).Occlude(floor(), lid(), 2)
		require.NoError(t, err)
		// Nothing could be subtracted: two triangles, two occluders each,
		// three attempts.
		assert.Equal(t, 12, prim.calls)
		assert.InDelta(t, 4, got.Area(), 1e-9)
	})
}

func TestOccludeIdenticalOccluder(t *testing.T) {
	plate := mesh.Triangle(vec(0, 0, 0), vec(2, 0, 0), vec(0, 2, 0))
	subject := mesh.New("plate", plate)
	cover := mesh.New("cover", mesh.Triangle(vec(0, 0, 1), vec(2, 0, 1), vec(0, 2, 1)))

	prim := &flaky{Primitive: polybool.New(0), fail: func(call int) bool { return call == 1 }}
	opts := occlude.DefaultOptions()
	opts.Primitive = prim
	_, err := occlude.New(opts).Occlude(subject, cover, 2)
	require.ErrorIs(t, err, recovery.ErrIdenticalPolygons)
	assert.Contains(t, err.Error(), `mesh "plate" triangle 0`)
	require.Len(t, subject.Triangles, 1)
	assert.Same(t, plate, subject.Triangles[0])
}

func TestOccludeRecoversTouchingRegion(t *testing.T) {
	// The two wedges leave two lobes of the plate meeting at (2,2). The
	// sliver shares that corner and is rejected by the primitive.
	subject := mesh.New("plate", mesh.Triangle(vec(0, 0, 0), vec(6, 0, 0), vec(0, 6, 0)))
	other := mesh.New("wedges",
		mesh.Triangle(vec(0, 0, 1), vec(4, 0, 1), vec(2, 2, 1)),
		mesh.Triangle(vec(2, 2, 1), vec(3, 3, 1), vec(0, 6, 1)),
		mesh.Triangle(vec(2, 2, 1), vec(2.5, 0.5, 1), vec(3, 1, 1)),
	)
	prim := &flaky{Primitive: polybool.New(0), fail: func(call int) bool { return call == 3 }}
	opts := occlude.DefaultOptions()
	opts.Primitive = prim

	var got *mesh.Mesh
	var err error
	require.NotPanics(t, func() {
		got, err = occlude.New(opts).Occlude(subject, other, 2)
	})
	require.NoError(t, err)
	assert.Greater(t, prim.calls, 3)
	assert.InDelta(t, 11, got.Area(), 1e-6)
}

func TestOccludeDebugLog(t *testing.T) {
	lid := quad("lid", vec(1, 1, 1), vec(3, 1, 1), vec(3, 3, 1), vec(1, 3, 1))

	var buf bytes.Buffer
	opts := occlude.DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err := occlude.New(opts).Occlude(floor(), lid, 2)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "component=occlude")
	assert.Contains(t, buf.String(), "mesh=floor other=lid triangle=1")

	buf.Reset()
	opts.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	_, err = occlude.New(opts).Occlude(floor(), lid, 2)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestNewDefaults(t *testing.T) {
	// Zero options behave like the defaults.
	a, err := occlude.New(occlude.Options{}).Occlude(floor(), quad("lid", vec(1, 1, 1), vec(3, 1, 1), vec(3, 3, 1), vec(1, 3, 1)), 2)
	require.NoError(t, err)
	assert.InDelta(t, 3, a.Area(), 1e-9)
}
