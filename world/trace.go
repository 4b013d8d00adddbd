// SPDX-License-Identifier: GPL-2.0-or-later

package world

import (
	"github.com/elliotchance/orderedmap/v2"
	cube "github.com/ethaniccc/float32-cube/cube"

	"qmove/bsp"
	"qmove/conlog"
	"qmove/math/vec"
	"qmove/pmove"
)

// NoEntity disables the pass entity of a trace.
const NoEntity = pmove.NoEntity

type moveClip struct {
	m          *bsp.Model
	start, end vec.Vec3
	mins, maxs vec.Vec3
	box        cube.BBox // bounds of the whole move
	mask       int
	pass       int
	passOwner  int
	trace      bsp.Trace
}

// Trace sweeps the box through the world model and every linked entity
// that has contents in mask. The world is entity 0. pass and the entities
// it owns, or that own it, are ignored. Triggers are gated by mask like
// any other volume.
func (x *Index) Trace(m *bsp.Model, start, mins, maxs, end vec.Vec3, head bsp.NodeRef,
	mask int, pass int) bsp.Trace {
	clip := moveClip{
		m:     m,
		start: start,
		end:   end,
		mins:  mins,
		maxs:  maxs,
		mask:  mask,
		pass:  pass,
		trace: m.BoxTrace(start, end, mins, maxs, head, mask),
	}
	if clip.trace.Hit() {
		clip.trace.EntPointer = true
		clip.trace.EntNumber = 0
	} else {
		clip.trace.EntNumber = NoEntity
	}
	if l, ok := x.links[pass]; ok {
		clip.passOwner = l.v.Owner
	}

	// create the bounding box of the entire move
	lo, hi := vec.MinMax(start, end)
	one := vec.Vec3{1, 1, 1}
	clip.box = boxOf(vec.Sub(vec.Add(lo, mins), one), vec.Add(vec.Add(hi, maxs), one))

	x.clipToLinks(x.root, &clip)
	return clip.trace
}

func (x *Index) clipToLinks(a *areaNode, clip *moveClip) {
	x.clipList(a.solids, clip)
	x.clipList(a.triggers, clip)

	if a.axis == -1 {
		return
	}
	if clip.box.Max()[a.axis] > a.dist {
		x.clipToLinks(a.children[0], clip)
	}
	if clip.box.Min()[a.axis] < a.dist {
		x.clipToLinks(a.children[1], clip)
	}
}

func (x *Index) clipList(list *orderedmap.OrderedMap[int, *link], clip *moveClip) {
	for el := list.Front(); el != nil; el = el.Next() {
		if clip.trace.AllSolid {
			return
		}
		touch := el.Key
		l := el.Value
		if touch == clip.pass {
			continue
		}
		if l.v.Contents&clip.mask == 0 {
			continue
		}
		if !clip.box.IntersectsWith(l.abs) {
			continue
		}
		if clip.pass != NoEntity {
			if l.v.Owner != 0 && l.v.Owner == clip.pass {
				continue // don't clip against own missiles
			}
			if clip.passOwner != 0 && clip.passOwner == touch {
				continue // don't clip against owner
			}
		}

		t := x.clipMoveToEntity(l, clip)
		merge(&clip.trace, &t, touch)
	}
}

func (x *Index) clipMoveToEntity(l *link, clip *moveClip) bsp.Trace {
	if l.box != nil {
		return l.box.TransformedBoxTrace(clip.start, clip.end, clip.mins, clip.maxs,
			bsp.AllBrushes, clip.mask, l.v.Origin)
	}
	head, err := clip.m.Headnode(l.v.SubModel)
	if err != nil {
		conlog.Warnf("world: entity %d: %v", l.v.ID, err)
		return bsp.Trace{Fraction: 1, EndPos: clip.end}
	}
	return clip.m.TransformedBoxTrace(clip.start, clip.end, clip.mins, clip.maxs,
		head, clip.mask, l.v.Origin)
}

// merge folds the entity trace t into dst. A strictly nearer hit replaces
// dst, starting inside the entity marks dst as started in solid.
func merge(dst, t *bsp.Trace, id int) {
	if t.Fraction < dst.Fraction {
		startSolid := dst.StartSolid
		*dst = *t
		dst.StartSolid = startSolid || t.StartSolid
		dst.EntPointer = true
		dst.EntNumber = id
		return
	}
	if t.StartSolid {
		dst.StartSolid = true
		dst.AllSolid = dst.AllSolid || t.AllSolid
		dst.EntPointer = true
		dst.EntNumber = id
	}
}

// PointContents returns the world contents at p together with the contents
// of every solid entity containing p.
func (x *Index) PointContents(m *bsp.Model, p vec.Vec3, head bsp.NodeRef) int {
	c := m.PointContents(p, head)
	var walk func(a *areaNode)
	walk = func(a *areaNode) {
		for el := a.solids.Front(); el != nil; el = el.Next() {
			l := el.Value
			if !contains(l.abs, p) {
				continue
			}
			if l.box != nil {
				if contains(l.v.bounds(), p) {
					c |= l.v.Contents
				}
				continue
			}
			if h, err := m.Headnode(l.v.SubModel); err == nil {
				c |= m.PointContents(vec.Sub(p, l.v.Origin), h)
			}
		}
		if a.axis == -1 {
			return
		}
		if p[a.axis] >= a.dist {
			walk(a.children[0])
		}
		if p[a.axis] <= a.dist {
			walk(a.children[1])
		}
	}
	walk(x.root)
	return c
}

// TestPosition reports whether v is stuck in the world or another entity.
func (x *Index) TestPosition(m *bsp.Model, head bsp.NodeRef, v Volume, mask int) bool {
	t := x.Trace(m, v.Origin, v.Mins, v.Maxs, v.Origin, head, mask, v.ID)
	return t.StartSolid
}

// Env binds the movement code to this index and m with pass as the moving
// entity.
func (x *Index) Env(m *bsp.Model, pass, mask int, cfg pmove.Config) pmove.Env {
	head := WorldHead(m)
	return pmove.Env{
		Trace: func(start, mins, maxs, end vec.Vec3) bsp.Trace {
			return x.Trace(m, start, mins, maxs, end, head, mask, pass)
		},
		PointContents: func(p vec.Vec3) int {
			return x.PointContents(m, p, head)
		},
		Config: cfg,
	}
}
