package geom

import (
	"math"
	"sort"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dhconnelly/rtreego"
)

// R-tree branching factors, the defaults sdfx uses for triangle meshes.
const (
	minChildren = 3
	maxChildren = 5
)

// queryPad widens query rectangles, relative to the extent of the index.
// rtreego treats touching rectangles as disjoint, while Overlaps does not.
const queryPad = 1e-9

type indexed struct {
	tri *sdf.Triangle3
	pos int
	bb  rtreego.Rect
}

func (e *indexed) Bounds() rtreego.Rect { return e.bb }

func toPoint(v v3.Vec) rtreego.Point {
	return rtreego.Point{v.X, v.Y, v.Z}
}

// toRect converts b. NewRectFromPoints only fails on points of different
// dimensions, and both points here have three.
func toRect(b sdf.Box3) rtreego.Rect {
	r, err := rtreego.NewRectFromPoints(toPoint(b.Min), toPoint(b.Max))
	if err != nil {
		panic(err)
	}
	return r
}

// Index answers "which triangles overlap this box when viewed along an
// axis" for a fixed triangle slice. Results come back in slice order and
// are exact with respect to Overlaps; the r-tree only narrows the scan.
type Index struct {
	tris  []*sdf.Triangle3
	cache *BoxCache
	tree  *rtreego.Rtree
	ext   sdf.Box3
	pad   float64
}

// NewIndex builds an index over tris. The slice is not copied; callers
// must not modify it while the index is in use.
func NewIndex(tris []*sdf.Triangle3) *Index {
	idx := &Index{tris: tris, cache: NewBoxCache(tris)}
	if len(tris) == 0 {
		return idx
	}
	bulk := make([]rtreego.Spatial, len(tris))
	idx.ext = idx.cache.Get(tris[0])
	for i, t := range tris {
		b := idx.cache.Get(t)
		bulk[i] = &indexed{tri: t, pos: i, bb: toRect(b)}
		idx.ext = idx.ext.Extend(b)
	}
	idx.tree = rtreego.NewTree(3, minChildren, maxChildren, bulk...)
	scale := math.Max(idx.ext.Min.Abs().MaxComponent(), idx.ext.Max.Abs().MaxComponent())
	idx.pad = queryPad * math.Max(1, scale)
	return idx
}

// Boxes returns the box cache backing the index.
func (idx *Index) Boxes() *BoxCache {
	return idx.cache
}

// Len returns the number of indexed triangles.
func (idx *Index) Len() int {
	return len(idx.tris)
}

// Overlapping returns the indexed triangles whose boxes overlap box in
// every dimension except skipAxis, in their original order.
func (idx *Index) Overlapping(box sdf.Box3, skipAxis int) []*sdf.Triangle3 {
	if idx.tree == nil {
		return nil
	}
	q := box
	if skipAxis >= 0 && skipAxis < 3 {
		q.Min.Set(skipAxis, idx.ext.Min.Get(skipAxis))
		q.Max.Set(skipAxis, idx.ext.Max.Get(skipAxis))
	}
	pad := v3.Vec{X: idx.pad, Y: idx.pad, Z: idx.pad}
	q = sdf.Box3{Min: q.Min.Sub(pad), Max: q.Max.Add(pad)}

	hits := idx.tree.SearchIntersect(toRect(q))
	sort.Slice(hits, func(i, j int) bool {
		return hits[i].(*indexed).pos < hits[j].(*indexed).pos
	})
	out := make([]*sdf.Triangle3, 0, len(hits))
	for _, h := range hits {
		t := h.(*indexed).tri
		if Overlaps(box, idx.cache.Get(t), skipAxis) {
			out = append(out, t)
		}
	}
	return out
}
