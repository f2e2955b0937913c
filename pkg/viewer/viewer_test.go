package viewer_test

import (
	"context"
	"testing"

	"github.com/chazu/armorsight/pkg/mesh"
	"github.com/chazu/armorsight/pkg/plate"
	"github.com/chazu/armorsight/pkg/viewer"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseView(t *testing.T) {
	tests := []struct {
		name string
		want viewer.View
		axis int
		err  bool
	}{
		{"side", viewer.Side, 0, false},
		{"top", viewer.Top, 1, false},
		{"Front", viewer.Front, 2, false},
		{" top ", viewer.Top, 1, false},
		{"bottom", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := viewer.ParseView(tt.name)
			if tt.err {
				assert.ErrorIs(t, err, viewer.ErrUnknownView)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.axis, got.Axis())
		})
	}
}

func TestViewString(t *testing.T) {
	assert.Equal(t, "front", viewer.Front.String())
	assert.Equal(t, "View(7)", viewer.View(7).String())
}

func unitBox(id string, at v3.Vec) *mesh.Mesh {
	return plate.Box(id, at, at.Add(v3.Vec{X: 1, Y: 1, Z: 1}))
}

func snapshot(m *mesh.Mesh) []sdf.Triangle3 {
	out := make([]sdf.Triangle3, len(m.Triangles))
	for i, t := range m.Triangles {
		out[i] = *t
	}
	return out
}

func TestViewBoxKeepsFacingSide(t *testing.T) {
	box := unitBox("box", v3.Vec{})
	v := viewer.New(nil, viewer.WithConcurrency(1))

	got, err := v.View(context.Background(), []*mesh.Mesh{box}, viewer.Top)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotSame(t, box, got[0])
	assert.Equal(t, "box", got[0].ID)
	assert.InDelta(t, 1, got[0].Area(), 1e-9)
	for _, tri := range got[0].Triangles {
		for _, p := range tri {
			assert.Equal(t, 1.0, p.Y)
		}
		assert.Greater(t, tri.Normal().Y, 0.0)
	}
	assert.Equal(t, 12, box.TriangleCount())
}

func TestViewStack(t *testing.T) {
	lower := unitBox("lower", v3.Vec{})
	upper := unitBox("upper", v3.Vec{Y: 2})
	aside := unitBox("aside", v3.Vec{X: 5})
	in := []*mesh.Mesh{lower, upper, aside}
	before := make([][]sdf.Triangle3, len(in))
	for i, m := range in {
		before[i] = snapshot(m)
	}

	v := viewer.New(nil, viewer.WithConcurrency(2))
	areas, err := v.VisibleArea(context.Background(), in, viewer.Top)
	require.NoError(t, err)
	assert.InDelta(t, 0, areas["lower"], 1e-9)
	assert.InDelta(t, 1, areas["upper"], 1e-9)
	assert.InDelta(t, 1, areas["aside"], 1e-9)

	for i, m := range in {
		assert.Equal(t, before[i], snapshot(m), "input %s modified", m.ID)
	}
}

func TestViewOrderAndDeterminism(t *testing.T) {
	var in []*mesh.Mesh
	for i := 0; i < 6; i++ {
		in = append(in, unitBox(string(rune('a'+i)), v3.Vec{X: float64(i) * 0.5, Y: float64(i)}))
	}
	v := viewer.New(nil, viewer.WithConcurrency(3))

	first, err := v.View(context.Background(), in, viewer.Top)
	require.NoError(t, err)
	second, err := v.View(context.Background(), in, viewer.Top)
	require.NoError(t, err)

	require.Len(t, first, len(in))
	for i := range in {
		assert.Equal(t, in[i].ID, first[i].ID)
		assert.Equal(t, snapshot(first[i]), snapshot(second[i]))
	}
	// The highest box is not covered by anything.
	assert.InDelta(t, 1, first[len(first)-1].Area(), 1e-9)
}

func TestViewCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := viewer.New(nil).View(ctx, []*mesh.Mesh{unitBox("box", v3.Vec{})}, viewer.Side)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestViewUnknown(t *testing.T) {
	_, err := viewer.New(nil).View(context.Background(), nil, viewer.View(5))
	assert.ErrorIs(t, err, viewer.ErrUnknownView)
}
