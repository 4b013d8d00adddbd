// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/pkg/errors"

	"qmove/bsp"
	"qmove/math/vec"
	"qmove/physics"
	"qmove/world"
)

const (
	playerID = 1
	crateID  = 2
	buttonID = 3
	doorID   = 4
)

var (
	levelMins = vec.Vec3{-1024, -1024, -64}
	levelMaxs = vec.Vec3{1024, 1024, 512}
)

type level struct {
	model *bsp.Model
	index *world.Index
	crate physics.Mover
}

// buildLevel makes a floor with a step, a water pool and a ladder. The door
// is inline model 1.
func buildLevel() (*level, error) {
	var b bsp.Builder
	brushes := []int{
		b.BoxBrush(vec.Vec3{-1024, -1024, -64}, vec.Vec3{1024, 1024, 0}, bsp.ContentsSolid, 0),
		b.BoxBrush(vec.Vec3{200, -64, 0}, vec.Vec3{264, 64, 16}, bsp.ContentsSolid, 0),
		b.BoxBrush(vec.Vec3{-400, -200, 0}, vec.Vec3{-200, 200, 64}, bsp.ContentsWater, bsp.SurfWarp),
		b.BoxBrush(vec.Vec3{600, -32, 0}, vec.Vec3{616, 32, 256}, bsp.ContentsSolid|bsp.ContentsLadder, 0),
		b.BoxBrush(vec.Vec3{1000, -1024, 0}, vec.Vec3{1024, 1024, 512}, bsp.ContentsSolid, 0),
		b.BoxBrush(vec.Vec3{-1024, -1024, 0}, vec.Vec3{-1000, 1024, 512}, bsp.ContentsSolid, 0),
	}
	b.SubModel(levelMins, levelMaxs, vec.Vec3{}, b.BuildAxialTree(brushes))
	door := b.BoxBrush(vec.Vec3{-8, -64, 0}, vec.Vec3{8, 64, 112}, bsp.ContentsSolid, 0)
	b.SubModel(vec.Vec3{-8, -64, 0}, vec.Vec3{8, 64, 112}, vec.Vec3{}, b.Leaf(door))

	m, err := b.Build()
	if err != nil {
		return nil, errors.Wrap(err, "sample level")
	}

	l := &level{
		model: m,
		index: world.NewIndex(levelMins, levelMaxs),
		crate: physics.Mover{
			Origin: vec.Vec3{100, 200, 120},
			Mins:   vec.Vec3{-16, -16, 0},
			Maxs:   vec.Vec3{16, 16, 32},
			Kind:   physics.Bounce,
		},
	}
	vols := []world.Volume{
		l.crateVolume(),
		{
			ID:       buttonID,
			Origin:   vec.Vec3{400, 0, 32},
			Mins:     vec.Vec3{-32, -32, -32},
			Maxs:     vec.Vec3{32, 32, 32},
			Contents: bsp.ContentsTrigger,
		},
		{
			ID:       doorID,
			Origin:   vec.Vec3{0, 400, 0},
			Mins:     vec.Vec3{-8, -64, 0},
			Maxs:     vec.Vec3{8, 64, 112},
			Contents: bsp.ContentsSolid,
			SubModel: 1,
		},
	}
	for _, v := range vols {
		if err := l.index.Link(v); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *level) crateVolume() world.Volume {
	return world.Volume{
		ID:       crateID,
		Origin:   l.crate.Origin,
		Mins:     l.crate.Mins,
		Maxs:     l.crate.Maxs,
		Contents: bsp.ContentsSolid,
	}
}
