// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"qmove/math"
	"qmove/math/vec"
)

// DistEpsilon keeps the end position 1/32 unit off the surfaces.
const DistEpsilon = 0.03125

type Trace struct {
	AllSolid   bool // the whole sweep was inside solid
	StartSolid bool // the start position was inside solid
	Fraction   float32
	EndPos     vec.Vec3
	Plane      Plane
	Surface    SurfaceFlags
	Contents   int
	EntPointer bool
	EntNumber  int
}

// Hit reports whether the trace was stopped by something.
func (t *Trace) Hit() bool {
	return t.Fraction < 1 || t.StartSolid
}

type traceWork struct {
	m        *Model
	mask     int
	start    vec.Vec3
	end      vec.Vec3
	mins     vec.Vec3
	maxs     vec.Vec3
	extents  vec.Vec3
	isPoint  bool
	maxDepth int
	trace    Trace
}

func corrupt(format string, args ...interface{}) {
	panic(errors.Wrapf(ErrCorruptModel, format, args...))
}

// BoxTrace sweeps the box mins/maxs from start to end through the tree at
// head. Only brushes with contents in brushMask can stop the box.
// A model failing the NewModel checks panics with ErrCorruptModel.
func (m *Model) BoxTrace(start, end, mins, maxs vec.Vec3, head NodeRef, brushMask int) Trace {
	w := traceWork{
		m:        m,
		mask:     brushMask,
		start:    start,
		end:      end,
		mins:     mins,
		maxs:     maxs,
		maxDepth: m.depth + 1,
		trace: Trace{
			Fraction: 1,
		},
	}

	if start == end {
		w.positionTest(head)
		w.trace.EndPos = start
		return w.trace
	}

	w.isPoint = mins == (vec.Vec3{}) && maxs == (vec.Vec3{})
	for i := 0; i < 3; i++ {
		w.extents[i] = math32.Max(-mins[i], maxs[i])
	}

	if head == AllBrushes {
		w.traceAll()
	} else {
		w.recursiveCheck(head, 0, 1, start, end, 0)
	}

	if w.trace.Fraction == 1 {
		w.trace.EndPos = end
	} else {
		w.trace.EndPos = vec.Lerp(start, end, w.trace.Fraction)
	}
	return w.trace
}

// TransformedBoxTrace traces against a sub-model that has been moved to
// origin. Brush models do not rotate.
func (m *Model) TransformedBoxTrace(start, end, mins, maxs vec.Vec3, head NodeRef,
	brushMask int, origin vec.Vec3) Trace {
	ls := vec.Sub(start, origin)
	le := vec.Sub(end, origin)
	t := m.BoxTrace(ls, le, mins, maxs, head, brushMask)
	if t.Fraction == 1 {
		t.EndPos = end
	} else {
		t.EndPos = vec.Lerp(start, end, t.Fraction)
	}
	if t.Plane.Normal != (vec.Vec3{}) {
		t.Plane.Dist += vec.Dot(t.Plane.Normal, origin)
	}
	return t
}

func (w *traceWork) node(r NodeRef) *Node {
	if r.index < 0 || r.index >= len(w.m.Nodes) {
		corrupt("bad node number %d", r.index)
	}
	return &w.m.Nodes[r.index]
}

func (w *traceWork) plane(i int) *Plane {
	if i < 0 || i >= len(w.m.Planes) {
		corrupt("bad plane number %d", i)
	}
	return &w.m.Planes[i]
}

func (w *traceWork) leaf(r NodeRef) *Leaf {
	if r.index < 0 || r.index >= len(w.m.Leaves) {
		corrupt("bad leaf number %d", r.index)
	}
	return &w.m.Leaves[r.index]
}

func (w *traceWork) leafBrushes(l *Leaf) []int {
	if l.FirstLeafBrush < 0 || l.NumLeafBrushes < 0 ||
		l.FirstLeafBrush+l.NumLeafBrushes > len(w.m.LeafBrushes) {
		corrupt("bad leaf brush range %d+%d", l.FirstLeafBrush, l.NumLeafBrushes)
	}
	return w.m.LeafBrushes[l.FirstLeafBrush : l.FirstLeafBrush+l.NumLeafBrushes]
}

func (w *traceWork) brush(i int) *Brush {
	if i < 0 || i >= len(w.m.Brushes) {
		corrupt("bad brush number %d", i)
	}
	b := &w.m.Brushes[i]
	if len(b.Sides) == 0 {
		corrupt("brush %d has no sides", i)
	}
	return b
}

func (w *traceWork) recursiveCheck(r NodeRef, p1f, p2f float32, p1, p2 vec.Vec3, depth int) {
	if w.trace.Fraction <= p1f {
		return // already hit something nearer
	}
	if depth > w.maxDepth {
		corrupt("trace recursion deeper than %d at %v", w.maxDepth, r)
	}

	switch r.kind {
	case refLeaf:
		w.traceToLeaf(w.leaf(r))
		return
	case refAllBrushes:
		w.traceAll()
		return
	}

	node := w.node(r)
	plane := w.plane(node.Plane)

	var t1, t2, offset float32
	if plane.Type < 3 {
		n := plane.Normal[plane.Type]
		t1 = n*p1[plane.Type] - plane.Dist
		t2 = n*p2[plane.Type] - plane.Dist
		offset = w.extents[plane.Type]
	} else {
		t1 = vec.Dot(plane.Normal, p1) - plane.Dist
		t2 = vec.Dot(plane.Normal, p2) - plane.Dist
		if !w.isPoint {
			offset = math32.Abs(w.extents[0]*plane.Normal[0]) +
				math32.Abs(w.extents[1]*plane.Normal[1]) +
				math32.Abs(w.extents[2]*plane.Normal[2])
		}
	}

	if t1 >= offset && t2 >= offset {
		w.recursiveCheck(node.Children[0], p1f, p2f, p1, p2, depth+1)
		return
	}
	if t1 < -offset && t2 < -offset {
		w.recursiveCheck(node.Children[1], p1f, p2f, p1, p2, depth+1)
		return
	}

	// put the crosspoint DistEpsilon units on the near side
	var side int
	var frac, frac2 float32
	switch {
	case t1 < t2:
		idist := 1 / (t1 - t2)
		side = 1
		frac2 = (t1 + offset + DistEpsilon) * idist
		frac = (t1 - offset + DistEpsilon) * idist
	case t1 > t2:
		idist := 1 / (t1 - t2)
		frac2 = (t1 - offset - DistEpsilon) * idist
		frac = (t1 + offset + DistEpsilon) * idist
	default:
		frac = 1
		frac2 = 0
	}

	// move up to the node
	frac = math.Clamp(0, frac, 1)
	midf := math.Lerp(p1f, p2f, frac)
	mid := vec.Lerp(p1, p2, frac)
	w.recursiveCheck(node.Children[side], p1f, midf, p1, mid, depth+1)

	// go past the node
	frac2 = math.Clamp(0, frac2, 1)
	midf = math.Lerp(p1f, p2f, frac2)
	mid = vec.Lerp(p1, p2, frac2)
	w.recursiveCheck(node.Children[side^1], midf, p2f, mid, p2, depth+1)
}

func (w *traceWork) traceToLeaf(l *Leaf) {
	if l.Contents&w.mask == 0 {
		return
	}
	for _, bi := range w.leafBrushes(l) {
		b := w.brush(bi)
		if b.Contents&w.mask == 0 {
			continue
		}
		w.clipBoxToBrush(b)
		if w.trace.Fraction == 0 {
			return
		}
	}
}

func (w *traceWork) traceAll() {
	for i := range w.m.Brushes {
		b := w.brush(i)
		if b.Contents&w.mask == 0 {
			continue
		}
		w.clipBoxToBrush(b)
		if w.trace.Fraction == 0 {
			return
		}
	}
}

// corner returns the box corner that lies deepest behind a plane with the
// given signbits.
func corner(signBits byte, mins, maxs vec.Vec3) vec.Vec3 {
	var c vec.Vec3
	for j := 0; j < 3; j++ {
		if signBits&(1<<j) != 0 {
			c[j] = maxs[j]
		} else {
			c[j] = mins[j]
		}
	}
	return c
}

func (w *traceWork) clipBoxToBrush(b *Brush) {
	enterFrac := float32(-1)
	leaveFrac := float32(1)
	var clipPlane *Plane
	var leadSide *BrushSide
	getOut := false
	startOut := false

	for i := range b.Sides {
		side := &b.Sides[i]
		plane := w.plane(side.Plane)

		dist := plane.Dist
		if !w.isPoint {
			dist -= vec.Dot(corner(plane.SignBits, w.mins, w.maxs), plane.Normal)
		}

		d1 := vec.Dot(w.start, plane.Normal) - dist
		d2 := vec.Dot(w.end, plane.Normal) - dist

		if d2 > 0 {
			getOut = true // endpoint is not in solid
		}
		if d1 > 0 {
			startOut = true
		}

		// completely in front of face, no intersection
		if d1 > 0 && d2 >= d1 {
			return
		}
		if d1 <= 0 && d2 <= 0 {
			continue
		}

		// crosses face
		if d1 > d2 { // enter
			f := (d1 - DistEpsilon) / (d1 - d2)
			if f > enterFrac {
				enterFrac = f
				clipPlane = plane
				leadSide = side
			}
		} else { // leave
			f := (d1 + DistEpsilon) / (d1 - d2)
			if f < leaveFrac {
				leaveFrac = f
			}
		}
	}

	if !startOut {
		// original point was inside brush
		w.trace.StartSolid = true
		w.trace.Contents |= b.Contents
		if !getOut {
			w.trace.AllSolid = true
			w.trace.Fraction = 0
		}
		return
	}
	if enterFrac < leaveFrac && enterFrac > -1 && enterFrac < w.trace.Fraction {
		if enterFrac < 0 {
			enterFrac = 0
		}
		w.trace.Fraction = enterFrac
		w.trace.Plane = *clipPlane
		w.trace.Surface = leadSide.Surface
		w.trace.Contents = b.Contents
	}
}

func (w *traceWork) testBoxInBrush(b *Brush) {
	for i := range b.Sides {
		plane := w.plane(b.Sides[i].Plane)
		dist := plane.Dist - vec.Dot(corner(plane.SignBits, w.mins, w.maxs), plane.Normal)
		if vec.Dot(w.start, plane.Normal)-dist > 0 {
			return
		}
	}
	// inside this brush
	w.trace.StartSolid = true
	w.trace.AllSolid = true
	w.trace.Fraction = 0
	w.trace.Contents = b.Contents
}

func (w *traceWork) testInLeaf(l *Leaf) {
	if l.Contents&w.mask == 0 {
		return
	}
	for _, bi := range w.leafBrushes(l) {
		b := w.brush(bi)
		if b.Contents&w.mask == 0 {
			continue
		}
		w.testBoxInBrush(b)
		if w.trace.AllSolid {
			return
		}
	}
}

// positionTest handles sweeps that do not move.
func (w *traceWork) positionTest(head NodeRef) {
	if head == AllBrushes {
		for i := range w.m.Brushes {
			b := w.brush(i)
			if b.Contents&w.mask == 0 {
				continue
			}
			w.testBoxInBrush(b)
			if w.trace.AllSolid {
				return
			}
		}
		return
	}
	one := vec.Vec3{1, 1, 1}
	mins := vec.Sub(vec.Add(w.start, w.mins), one)
	maxs := vec.Add(vec.Add(w.start, w.maxs), one)
	w.boxLeafs(head, mins, maxs, 0, func(l *Leaf) bool {
		w.testInLeaf(l)
		return !w.trace.AllSolid
	})
}

// boxLeafs calls f for every leaf touching the box until f returns false.
func (w *traceWork) boxLeafs(r NodeRef, mins, maxs vec.Vec3, depth int, f func(*Leaf) bool) bool {
	for {
		if depth > w.maxDepth {
			corrupt("box leaf walk deeper than %d at %v", w.maxDepth, r)
		}
		if r.kind == refLeaf {
			return f(w.leaf(r))
		}
		node := w.node(r)
		switch w.plane(node.Plane).BoxOnPlaneSide(mins, maxs) {
		case 1:
			r = node.Children[0]
		case 2:
			r = node.Children[1]
		default:
			if !w.boxLeafs(node.Children[0], mins, maxs, depth+1, f) {
				return false
			}
			r = node.Children[1]
		}
		depth++
	}
}

// PointContents returns the contents of all brushes containing p. Leafs
// without brushes report their own contents.
func (m *Model) PointContents(p vec.Vec3, head NodeRef) int {
	w := traceWork{m: m, maxDepth: m.depth + 1}
	inside := func(b *Brush) bool {
		for i := range b.Sides {
			if w.plane(b.Sides[i].Plane).Distance(p) > 0 {
				return false
			}
		}
		return true
	}
	if head == AllBrushes {
		c := 0
		for i := range m.Brushes {
			if b := w.brush(i); inside(b) {
				c |= b.Contents
			}
		}
		return c
	}

	r := head
	for depth := 0; !r.IsLeaf(); depth++ {
		if depth > w.maxDepth {
			corrupt("point contents walk deeper than %d at %v", w.maxDepth, r)
		}
		node := w.node(r)
		if w.plane(node.Plane).Distance(p) < 0 {
			r = node.Children[1]
		} else {
			r = node.Children[0]
		}
	}
	l := w.leaf(r)
	lb := w.leafBrushes(l)
	if len(lb) == 0 {
		return l.Contents
	}
	c := 0
	for _, bi := range lb {
		if b := w.brush(bi); inside(b) {
			c |= b.Contents
		}
	}
	return c
}

// BoxModel returns a model holding a single axial box brush, used to trace
// against entities that are not brush models.
func BoxModel(mins, maxs vec.Vec3, contents int) *Model {
	var b Builder
	b.Leaf(b.BoxBrush(mins, maxs, contents, 0))
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}
