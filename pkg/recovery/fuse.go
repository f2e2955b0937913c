package recovery

// SplitHybrids replaces every vertex of subject labeled as both entry
// and exit by an exit followed by an entry at the same point. The
// corresponding vertex in clip is duplicated right after itself so that
// each half keeps its own counterpart.
func (g *Graph) SplitHybrids(subject, clip Ring) (Ring, Ring) {
	after := make(map[int][]int)
	out := make(Ring, 0, len(subject))
	for _, v := range subject {
		out = append(out, v)
		if !g.V[v].Entry || !g.V[v].Exit {
			continue
		}
		g.V[v].Entry = false
		split := g.Add(g.V[v].Point)
		g.V[split].Intersection = true
		g.V[split].Entry = true
		out = append(out, split)

		if c := g.V[v].Corresponding; c != None {
			dup := g.Copy(c)
			g.Link(split, dup)
			after[c] = append(after[c], dup)
		}
	}
	if len(after) == 0 {
		return out, clip
	}

	clipOut := make(Ring, 0, len(clip)+len(after))
	for _, c := range clip {
		clipOut = append(clipOut, c)
		clipOut = append(clipOut, after[c]...)
	}
	return out, clipOut
}

// Fuse snaps every entry of polygon and the next exit after it to their
// midpoint when they are closer than √minLengthSq. Unlabeled vertices may
// lie between the two; another entry may not. The counterparts of the
// pair move to the same point and are linked with Fused, so that the
// other polygon can be separated there.
func (g *Graph) Fuse(polygon Ring, minLengthSq float64) {
	n := len(polygon)
	for i, idx := range polygon {
		if !g.V[idx].Entry {
			continue
		}
		exit := None
		for k := 1; k < n; k++ {
			w := polygon[(i+k)%n]
			if g.V[w].Exit {
				exit = w
				break
			}
			if g.V[w].Entry {
				break
			}
		}
		if exit == None {
			continue
		}

		entry := &g.V[idx]
		ce, cx := entry.Corresponding, g.V[exit].Corresponding
		if ce != None && cx != None && (g.V[ce].Fused != None || g.V[cx].Fused != None) {
			continue
		}
		a, b := entry.Point, g.V[exit].Point
		if a.Sub(b).Length2() >= minLengthSq {
			continue
		}

		p := a.Add(b).MulScalar(0.5)
		for _, w := range []int{idx, exit, ce, cx} {
			if w != None {
				g.V[w].Point = p
			}
		}
		if ce != None && cx != None && ce != cx {
			g.FuseLink(ce, cx)
		}
	}
}
