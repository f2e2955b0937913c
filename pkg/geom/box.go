package geom

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// BoundingBox returns the axis-aligned bounding box of a non-empty point set.
func BoundingBox(points []v3.Vec) sdf.Box3 {
	set := v3.VecSet(points)
	return sdf.Box3{Min: set.Min(), Max: set.Max()}
}

// Overlaps reports whether a and b overlap in every dimension except
// skipAxis. Boxes that only touch count as overlapping. Pass a skipAxis
// outside 0..2 to compare all three dimensions.
func Overlaps(a, b sdf.Box3, skipAxis int) bool {
	for i := 0; i < 3; i++ {
		if i == skipAxis {
			continue
		}
		if b.Min.Get(i) > a.Max.Get(i) || b.Max.Get(i) < a.Min.Get(i) {
			return false
		}
	}
	return true
}

// BoxCache memoizes bounding boxes keyed by triangle identity.
// It never evicts. A BoxCache is not safe for concurrent use.
type BoxCache struct {
	boxes map[*sdf.Triangle3]sdf.Box3
}

// NewBoxCache returns a cache pre-populated with the boxes of tris.
func NewBoxCache(tris []*sdf.Triangle3) *BoxCache {
	c := &BoxCache{boxes: make(map[*sdf.Triangle3]sdf.Box3, len(tris))}
	for _, t := range tris {
		c.boxes[t] = t.BoundingBox()
	}
	return c
}

// Get returns the bounding box of t, computing and storing it on a miss.
// A miss happens when the mesh changed after the cache was built.
func (c *BoxCache) Get(t *sdf.Triangle3) sdf.Box3 {
	if b, ok := c.boxes[t]; ok {
		return b
	}
	b := t.BoundingBox()
	c.boxes[t] = b
	return b
}

// Len returns the number of cached boxes.
func (c *BoxCache) Len() int {
	return len(c.boxes)
}
