// Package viewer occludes a set of armor meshes against each other for a
// named view. Every mesh is seen through all meshes of the set, itself
// included, as they were before the view was computed.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/chazu/armorsight/pkg/mesh"
	"github.com/chazu/armorsight/pkg/occlude"
	"golang.org/x/sync/errgroup"
)

// View is a named view direction.
type View int

const (
	Side  View = iota // along x
	Top               // along y
	Front             // along z
)

var viewNames = [...]string{"side", "top", "front"}

// ErrUnknownView is returned by ParseView for names other than side, top
// and front.
var ErrUnknownView = errors.New("viewer: unknown view")

// ParseView returns the view called name, ignoring case.
func ParseView(name string) (View, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range viewNames {
		if s == n {
			return View(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownView, name)
}

// Axis returns the coordinate axis the view looks along.
func (v View) Axis() int {
	return int(v)
}

// String implements fmt.Stringer.
func (v View) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return fmt.Sprintf("View(%d)", int(v))
	}
	return viewNames[v]
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithConcurrency bounds the number of meshes occluded at once. Values
// below one select runtime.GOMAXPROCS(0).
func WithConcurrency(n int) Option {
	return func(v *Viewer) {
		v.concurrency = n
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(v *Viewer) {
		v.log = l
	}
}

// Viewer computes views with a shared occluder.
type Viewer struct {
	occ         *occlude.Occluder
	concurrency int
	log         *slog.Logger
}

// New returns a viewer using occ. A nil occ selects an occluder with
// occlude.DefaultOptions.
func New(occ *occlude.Occluder, opts ...Option) *Viewer {
	if occ == nil {
		occ = occlude.New(occlude.DefaultOptions())
	}
	v := &Viewer{occ: occ, log: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	if v.concurrency < 1 {
		v.concurrency = runtime.GOMAXPROCS(0)
	}
	v.log = v.log.With("component", "viewer")
	return v
}

// View returns, for every mesh in meshes and in the same order, a new
// mesh holding what remains visible from view. The input meshes are not
// modified. The first error cancels the remaining work.
func (v *Viewer) View(ctx context.Context, meshes []*mesh.Mesh, view View) ([]*mesh.Mesh, error) {
	if view < 0 || int(view) >= len(viewNames) {
		return nil, fmt.Errorf("%w: %v", ErrUnknownView, view)
	}
	snapshots := make([]*mesh.Mesh, len(meshes))
	for i, m := range meshes {
		snapshots[i] = m.Clone()
	}

	out := make([]*mesh.Mesh, len(meshes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)
	for i := range snapshots {
		g.Go(func() error {
			res := snapshots[i].Clone()
			for _, other := range snapshots {
				if err := ctx.Err(); err != nil {
					return err
				}
				if _, err := v.occ.Occlude(res, other, view.Axis()); err != nil {
					return fmt.Errorf("viewer: %s view: %w", view, err)
				}
				if res.IsEmpty() {
					break
				}
			}
			v.log.Debug("mesh done", "mesh", res.ID, "view", view.String(),
				"before", snapshots[i].TriangleCount(), "after", res.TriangleCount())
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// VisibleArea returns the visible area of every mesh from view, keyed by
// mesh ID. Meshes sharing an ID are summed.
func (v *Viewer) VisibleArea(ctx context.Context, meshes []*mesh.Mesh, view View) (map[string]float64, error) {
	visible, err := v.View(ctx, meshes, view)
	if err != nil {
		return nil, err
	}
	areas := make(map[string]float64, len(visible))
	for _, m := range visible {
		areas[m.ID] += m.Area()
	}
	return areas, nil
}
