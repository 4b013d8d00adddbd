// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"fmt"

	"github.com/pkg/errors"

	"qmove/math/vec"
)

var ErrCorruptModel = errors.New("corrupt collision model")

type refKind byte

const (
	refNode refKind = iota
	refLeaf
	refAllBrushes
)

// NodeRef points either at a node or at a leaf of a Model.
// The zero value is node 0, the usual world headnode.
type NodeRef struct {
	kind  refKind
	index int
}

// AllBrushes makes a trace treat the whole model as a single leaf holding
// every brush.
var AllBrushes = NodeRef{kind: refAllBrushes}

func NodeIndex(i int) NodeRef {
	return NodeRef{kind: refNode, index: i}
}

func LeafIndex(i int) NodeRef {
	return NodeRef{kind: refLeaf, index: i}
}

// DecodeChild decodes the on-disk child encoding, negative values are
// leafs stored as -(leaf+1).
func DecodeChild(c int32) NodeRef {
	if c < 0 {
		return LeafIndex(int(-(c + 1)))
	}
	return NodeIndex(int(c))
}

func (r NodeRef) Encode() int32 {
	if r.kind == refLeaf {
		return -int32(r.index) - 1
	}
	return int32(r.index)
}

func (r NodeRef) IsLeaf() bool {
	return r.kind == refLeaf
}

func (r NodeRef) Index() int {
	return r.index
}

func (r NodeRef) String() string {
	switch r.kind {
	case refLeaf:
		return fmt.Sprintf("leaf %d", r.index)
	case refAllBrushes:
		return "all brushes"
	}
	return fmt.Sprintf("node %d", r.index)
}

type BrushSide struct {
	Plane   int
	Surface SurfaceFlags
}

// Brush is a convex volume, the intersection of the back sides of its
// planes.
type Brush struct {
	Contents int
	Sides    []BrushSide
}

type Leaf struct {
	Contents       int
	Cluster        int
	Area           int
	FirstLeafBrush int
	NumLeafBrushes int
}

type Node struct {
	Plane    int
	Children [2]NodeRef // front, back
}

// SubModel is an inline brush model, the world is SubModel 0.
type SubModel struct {
	Mins     vec.Vec3
	Maxs     vec.Vec3
	Origin   vec.Vec3
	Headnode NodeRef
}

// Model is the immutable collision world. It is never modified by traces
// and can be shared between goroutines.
type Model struct {
	Planes      []Plane
	Nodes       []Node
	Leaves      []Leaf
	Brushes     []Brush
	LeafBrushes []int
	SubModels   []SubModel

	// depth is the deepest node chain below any root, the recursion
	// bound for traces.
	depth int
}

// NewModel validates the data and returns a Model ready for tracing.
func NewModel(planes []Plane, nodes []Node, leaves []Leaf, brushes []Brush,
	leafBrushes []int, subModels []SubModel) (*Model, error) {
	m := &Model{
		Planes:      planes,
		Nodes:       nodes,
		Leaves:      leaves,
		Brushes:     brushes,
		LeafBrushes: leafBrushes,
		SubModels:   subModels,
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) validate() error {
	for i := range m.Planes {
		if err := m.Planes[i].validate(); err != nil {
			return errors.Wrapf(err, "plane %d", i)
		}
	}
	for i, b := range m.Brushes {
		if len(b.Sides) == 0 {
			return errors.Wrapf(ErrCorruptModel, "brush %d has no sides", i)
		}
		for _, s := range b.Sides {
			if s.Plane < 0 || s.Plane >= len(m.Planes) {
				return errors.Wrapf(ErrCorruptModel, "brush %d references plane %d", i, s.Plane)
			}
		}
	}
	for i, lb := range m.LeafBrushes {
		if lb < 0 || lb >= len(m.Brushes) {
			return errors.Wrapf(ErrCorruptModel, "leaf brush %d references brush %d", i, lb)
		}
	}
	for i, l := range m.Leaves {
		if l.FirstLeafBrush < 0 || l.NumLeafBrushes < 0 ||
			l.FirstLeafBrush+l.NumLeafBrushes > len(m.LeafBrushes) {
			return errors.Wrapf(ErrCorruptModel, "leaf %d has leaf brushes [%d,+%d)",
				i, l.FirstLeafBrush, l.NumLeafBrushes)
		}
	}
	for i, n := range m.Nodes {
		if n.Plane < 0 || n.Plane >= len(m.Planes) {
			return errors.Wrapf(ErrCorruptModel, "node %d references plane %d", i, n.Plane)
		}
		for _, c := range n.Children {
			if err := m.checkRef(c); err != nil {
				return errors.Wrapf(err, "node %d", i)
			}
		}
	}
	for i, s := range m.SubModels {
		if err := m.checkRef(s.Headnode); err != nil {
			return errors.Wrapf(err, "submodel %d", i)
		}
	}
	return m.measureDepth()
}

func (m *Model) checkRef(r NodeRef) error {
	switch r.kind {
	case refLeaf:
		if r.index < 0 || r.index >= len(m.Leaves) {
			return errors.Wrapf(ErrCorruptModel, "leaf %d out of range", r.index)
		}
	case refNode:
		if r.index < 0 || r.index >= len(m.Nodes) {
			return errors.Wrapf(ErrCorruptModel, "node %d out of range", r.index)
		}
	case refAllBrushes:
		return errors.Wrap(ErrCorruptModel, "all brushes used as a child")
	}
	return nil
}

// measureDepth walks the node graph with a white/grey/black colouring and
// fails on any cycle.
func (m *Model) measureDepth() error {
	const (
		white = iota
		grey
		black
	)
	color := make([]byte, len(m.Nodes))
	depth := make([]int, len(m.Nodes))
	var visit func(n int) error
	visit = func(n int) error {
		switch color[n] {
		case grey:
			return errors.Wrapf(ErrCorruptModel, "node %d is part of a cycle", n)
		case black:
			return nil
		}
		color[n] = grey
		d := 0
		for _, c := range m.Nodes[n].Children {
			if c.kind != refNode {
				continue
			}
			if err := visit(c.index); err != nil {
				return err
			}
			if depth[c.index] > d {
				d = depth[c.index]
			}
		}
		depth[n] = d + 1
		color[n] = black
		if depth[n] > m.depth {
			m.depth = depth[n]
		}
		return nil
	}
	for i := range m.Nodes {
		if err := visit(i); err != nil {
			return err
		}
	}
	return nil
}

// Depth returns the number of nodes on the longest path from any node down
// to a leaf.
func (m *Model) Depth() int {
	return m.depth
}

// Headnode returns the root of submodel i.
func (m *Model) Headnode(i int) (NodeRef, error) {
	if i < 0 || i >= len(m.SubModels) {
		return NodeRef{}, errors.Errorf("submodel %d out of range [0,%d)", i, len(m.SubModels))
	}
	return m.SubModels[i].Headnode, nil
}
