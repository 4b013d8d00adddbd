// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"sort"

	"qmove/math/vec"
)

const (
	// brushes built from raw sides have no known bounds
	unboundedExtent = 1 << 20
	maxTreeDepth    = 32
)

// Builder assembles a Model by hand. The zero value is ready to use.
type Builder struct {
	planes      []Plane
	planeIndex  map[Plane]int
	nodes       []Node
	leaves      []Leaf
	brushes     []Brush
	bounds      [][2]vec.Vec3
	leafBrushes []int
	subModels   []SubModel
}

// Plane adds a plane and returns its index. Identical planes share an index.
func (b *Builder) Plane(normal vec.Vec3, dist float32) int {
	p := NewPlane(normal, dist)
	if i, ok := b.planeIndex[p]; ok {
		return i
	}
	if b.planeIndex == nil {
		b.planeIndex = make(map[Plane]int)
	}
	b.planes = append(b.planes, p)
	b.planeIndex[p] = len(b.planes) - 1
	return len(b.planes) - 1
}

// Brush adds a brush made of the given sides and returns its index.
func (b *Builder) Brush(contents int, sides ...BrushSide) int {
	u := vec.Vec3{unboundedExtent, unboundedExtent, unboundedExtent}
	return b.addBrush(Brush{Contents: contents, Sides: sides}, vec.Scale(-1, u), u)
}

func (b *Builder) addBrush(br Brush, mins, maxs vec.Vec3) int {
	b.brushes = append(b.brushes, br)
	b.bounds = append(b.bounds, [2]vec.Vec3{mins, maxs})
	return len(b.brushes) - 1
}

// BoxBrush adds an axial box brush.
func (b *Builder) BoxBrush(mins, maxs vec.Vec3, contents int, surface SurfaceFlags) int {
	sides := make([]BrushSide, 0, 6)
	for i := 0; i < 3; i++ {
		var n vec.Vec3
		n[i] = 1
		sides = append(sides, BrushSide{Plane: b.Plane(n, maxs[i]), Surface: surface})
		n[i] = -1
		sides = append(sides, BrushSide{Plane: b.Plane(n, -mins[i]), Surface: surface})
	}
	return b.addBrush(Brush{Contents: contents, Sides: sides}, mins, maxs)
}

// Leaf adds a leaf holding the given brushes. Its contents are the union
// of the brush contents.
func (b *Builder) Leaf(brushes ...int) NodeRef {
	l := Leaf{
		FirstLeafBrush: len(b.leafBrushes),
		NumLeafBrushes: len(brushes),
		Cluster:        -1,
	}
	for _, i := range brushes {
		if i >= 0 && i < len(b.brushes) {
			l.Contents |= b.brushes[i].Contents
		}
	}
	b.leafBrushes = append(b.leafBrushes, brushes...)
	b.leaves = append(b.leaves, l)
	return LeafIndex(len(b.leaves) - 1)
}

// Node adds a node split by plane. Children may reference nodes that are
// added later.
func (b *Builder) Node(plane int, front, back NodeRef) NodeRef {
	b.nodes = append(b.nodes, Node{Plane: plane, Children: [2]NodeRef{front, back}})
	return NodeIndex(len(b.nodes) - 1)
}

func (b *Builder) SubModel(mins, maxs, origin vec.Vec3, head NodeRef) int {
	b.subModels = append(b.subModels, SubModel{
		Mins:     mins,
		Maxs:     maxs,
		Origin:   origin,
		Headnode: head,
	})
	return len(b.subModels) - 1
}

// BuildAxialTree partitions the brushes with axial planes taken from the
// brush faces and returns the root. Brushes crossing a split end up on both
// sides.
func (b *Builder) BuildAxialTree(brushes []int) NodeRef {
	if len(brushes) == 0 {
		return b.Leaf()
	}
	mins := b.bounds[brushes[0]][0]
	maxs := b.bounds[brushes[0]][1]
	for _, i := range brushes[1:] {
		for j := 0; j < 3; j++ {
			if m := b.bounds[i][0][j]; m < mins[j] {
				mins[j] = m
			}
			if m := b.bounds[i][1][j]; m > maxs[j] {
				maxs[j] = m
			}
		}
	}
	return b.axialTree(brushes, mins, maxs, 0)
}

func (b *Builder) axialTree(brushes []int, mins, maxs vec.Vec3, depth int) NodeRef {
	if len(brushes) <= 1 || depth >= maxTreeDepth {
		return b.Leaf(brushes...)
	}
	axis, dist, ok := b.chooseSplit(brushes, mins, maxs)
	if !ok {
		return b.Leaf(brushes...)
	}
	var front, back []int
	for _, i := range brushes {
		if b.bounds[i][1][axis] > dist {
			front = append(front, i)
		}
		if b.bounds[i][0][axis] < dist {
			back = append(back, i)
		}
	}
	var n vec.Vec3
	n[axis] = 1
	plane := b.Plane(n, dist)
	// reserve the node before the children so the root gets the lowest index
	b.nodes = append(b.nodes, Node{Plane: plane})
	self := len(b.nodes) - 1

	fmins, bmaxs := mins, maxs
	fmins[axis] = dist
	bmaxs[axis] = dist
	f := b.axialTree(front, fmins, maxs, depth+1)
	k := b.axialTree(back, mins, bmaxs, depth+1)
	b.nodes[self].Children = [2]NodeRef{f, k}
	return NodeIndex(self)
}

// chooseSplit picks the face coordinate that best balances the two sides.
func (b *Builder) chooseSplit(brushes []int, mins, maxs vec.Vec3) (int, float32, bool) {
	best := len(brushes)
	bestAxis := 0
	var bestDist float32
	found := false
	for axis := 0; axis < 3; axis++ {
		var cands []float32
		for _, i := range brushes {
			for _, c := range []float32{b.bounds[i][0][axis], b.bounds[i][1][axis]} {
				if c > mins[axis] && c < maxs[axis] {
					cands = append(cands, c)
				}
			}
		}
		sort.Slice(cands, func(i, j int) bool { return cands[i] < cands[j] })
		for _, c := range cands {
			nf, nb := 0, 0
			for _, i := range brushes {
				if b.bounds[i][1][axis] > c {
					nf++
				}
				if b.bounds[i][0][axis] < c {
					nb++
				}
			}
			worst := nf
			if nb > worst {
				worst = nb
			}
			if worst < best {
				best = worst
				bestAxis = axis
				bestDist = c
				found = true
			}
		}
	}
	return bestAxis, bestDist, found
}

// Build validates what has been added and returns the model.
func (b *Builder) Build() (*Model, error) {
	return NewModel(
		append([]Plane(nil), b.planes...),
		append([]Node(nil), b.nodes...),
		append([]Leaf(nil), b.leaves...),
		append([]Brush(nil), b.brushes...),
		append([]int(nil), b.leafBrushes...),
		append([]SubModel(nil), b.subModels...))
}
