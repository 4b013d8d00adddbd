// SPDX-License-Identifier: GPL-2.0-or-later

// Package world keeps the entities that can block movement and traces
// against them together with the bsp model.
package world

import (
	"github.com/elliotchance/orderedmap/v2"
	cube "github.com/ethaniccc/float32-cube/cube"
	"github.com/pkg/errors"

	"qmove/bsp"
	"qmove/conlog"
	"qmove/math/vec"
)

var (
	ErrAlreadyLinked = errors.New("entity already linked")
	ErrNotLinked     = errors.New("entity not linked")
	ErrInvalidVolume = errors.New("invalid entity volume")
)

const areaDepth = 4

// Volume is the collision shape of an entity.
type Volume struct {
	ID     int
	Origin vec.Vec3
	Mins   vec.Vec3
	Maxs   vec.Vec3
	// Contents of zero are linked but never collide.
	Contents int
	// SubModel > 0 makes the volume the given inline model of the world,
	// moved to Origin. Otherwise the volume is the box Mins/Maxs.
	SubModel int
	// Owner is not blocked by this volume and the other way round.
	Owner int
}

func (v *Volume) isTrigger() bool {
	return v.Contents&bsp.ContentsTrigger != 0
}

type link struct {
	v    Volume
	abs  cube.BBox
	box  *bsp.Model
	node *areaNode
}

type areaNode struct {
	axis     int // -1 for leafs
	dist     float32
	children [2]*areaNode
	triggers *orderedmap.OrderedMap[int, *link]
	solids   *orderedmap.OrderedMap[int, *link]
}

// Index holds the linked entities. It is not safe for concurrent use.
type Index struct {
	root  *areaNode
	links map[int]*link
}

// NewIndex builds an empty index for a world with the given bounds.
func NewIndex(worldMins, worldMaxs vec.Vec3) *Index {
	return &Index{
		root:  createAreaNode(0, worldMins, worldMaxs),
		links: make(map[int]*link),
	}
}

func createAreaNode(depth int, mins, maxs vec.Vec3) *areaNode {
	an := &areaNode{
		axis:     -1,
		triggers: orderedmap.NewOrderedMap[int, *link](),
		solids:   orderedmap.NewOrderedMap[int, *link](),
	}
	if depth == areaDepth {
		return an
	}
	s := vec.Sub(maxs, mins)
	an.axis = 1
	if s[0] > s[1] {
		an.axis = 0
	}
	an.dist = 0.5 * (maxs[an.axis] + mins[an.axis])

	mins1, maxs1 := mins, maxs
	mins2, maxs2 := mins, maxs
	maxs1[an.axis] = an.dist
	mins2[an.axis] = an.dist

	an.children[0] = createAreaNode(depth+1, mins2, maxs2)
	an.children[1] = createAreaNode(depth+1, mins1, maxs1)
	return an
}

func boxOf(mins, maxs vec.Vec3) cube.BBox {
	return cube.Box(mins[0], mins[1], mins[2], maxs[0], maxs[1], maxs[2])
}

// bounds is the unpadded world space box of v.
func (v *Volume) bounds() cube.BBox {
	return boxOf(vec.Add(v.Origin, v.Mins), vec.Add(v.Origin, v.Maxs))
}

func validate(v *Volume) error {
	if v.ID <= 0 {
		return errors.Wrapf(ErrInvalidVolume, "id %d", v.ID)
	}
	if !vec.Finite(v.Origin) || !vec.Finite(v.Mins) || !vec.Finite(v.Maxs) {
		return errors.Wrapf(ErrInvalidVolume, "entity %d is not finite", v.ID)
	}
	for i := 0; i < 3; i++ {
		if v.Mins[i] > v.Maxs[i] {
			return errors.Wrapf(ErrInvalidVolume, "entity %d mins %v above maxs %v", v.ID, v.Mins, v.Maxs)
		}
	}
	if v.SubModel < 0 {
		return errors.Wrapf(ErrInvalidVolume, "entity %d submodel %d", v.ID, v.SubModel)
	}
	return nil
}

// Link adds v to the index.
func (x *Index) Link(v Volume) error {
	if err := validate(&v); err != nil {
		conlog.DPrintf("world.Link: %v", err)
		return err
	}
	if _, ok := x.links[v.ID]; ok {
		conlog.DPrintf("world.Link: entity %d linked twice", v.ID)
		return errors.Wrapf(ErrAlreadyLinked, "entity %d", v.ID)
	}

	l := &link{v: v}
	// because movement is clipped an epsilon away from an actual edge,
	// we must fully check even when bounding boxes don't quite touch
	l.abs = v.bounds().Grow(1)
	if v.SubModel == 0 {
		l.box = bsp.BoxModel(v.Mins, v.Maxs, v.Contents)
	}
	x.links[v.ID] = l

	if v.Contents == 0 {
		return nil
	}

	node := x.root
	for node.axis != -1 {
		if l.abs.Min()[node.axis] > node.dist {
			node = node.children[0]
		} else if l.abs.Max()[node.axis] < node.dist {
			node = node.children[1]
		} else {
			break // crosses the node
		}
	}
	l.node = node
	if v.isTrigger() {
		node.triggers.Set(v.ID, l)
	} else {
		node.solids.Set(v.ID, l)
	}
	return nil
}

// Unlink removes the entity id. Other entities are not affected by a
// failing call.
func (x *Index) Unlink(id int) error {
	l, ok := x.links[id]
	if !ok {
		conlog.DPrintf("world.Unlink: entity %d not linked", id)
		return errors.Wrapf(ErrNotLinked, "entity %d", id)
	}
	if l.node != nil {
		l.node.triggers.Delete(id)
		l.node.solids.Delete(id)
	}
	delete(x.links, id)
	return nil
}

// Relink moves an already linked entity to v.
func (x *Index) Relink(v Volume) error {
	if err := validate(&v); err != nil {
		return err
	}
	if err := x.Unlink(v.ID); err != nil {
		return err
	}
	return x.Link(v)
}

// Volume returns the linked volume of id.
func (x *Index) Volume(id int) (Volume, bool) {
	l, ok := x.links[id]
	if !ok {
		return Volume{}, false
	}
	return l.v, true
}

func (x *Index) Len() int {
	return len(x.links)
}

// TriggerTouches returns the triggers overlapping the box, in the order
// they were linked per area.
func (x *Index) TriggerTouches(origin, mins, maxs vec.Vec3) []int {
	box := boxOf(vec.Add(origin, mins), vec.Add(origin, maxs))
	var ret []int
	var walk func(a *areaNode)
	walk = func(a *areaNode) {
		for el := a.triggers.Front(); el != nil; el = el.Next() {
			if overlaps(box, el.Value.v.bounds()) {
				ret = append(ret, el.Key)
			}
		}
		if a.axis == -1 {
			return
		}
		if box.Max()[a.axis] > a.dist {
			walk(a.children[0])
		}
		if box.Min()[a.axis] < a.dist {
			walk(a.children[1])
		}
	}
	walk(x.root)
	return ret
}

// overlaps treats touching boxes as overlapping.
func overlaps(a, b cube.BBox) bool {
	return a.Grow(0.01).IntersectsWith(b)
}

func contains(b cube.BBox, p vec.Vec3) bool {
	mins, maxs := b.Min(), b.Max()
	for i := 0; i < 3; i++ {
		if p[i] < mins[i] || p[i] > maxs[i] {
			return false
		}
	}
	return true
}

// WorldHead returns the root node of the world model.
func WorldHead(m *bsp.Model) bsp.NodeRef {
	if h, err := m.Headnode(0); err == nil {
		return h
	}
	return bsp.NodeIndex(0)
}
