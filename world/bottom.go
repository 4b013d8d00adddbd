// SPDX-License-Identifier: GPL-2.0-or-later

package world

import (
	"qmove/bsp"
	"qmove/math/vec"
)

// CheckBottom returns false if any part of the bottom of v is off an edge
// that is not a staircase.
func (x *Index) CheckBottom(m *bsp.Model, head bsp.NodeRef, v Volume, stepSize float32) bool {
	mins := vec.Add(v.Origin, v.Mins)
	maxs := vec.Add(v.Origin, v.Maxs)

	// if all of the points under the corners are solid world, don't bother
	// with the tougher checks
	d := []vec.Vec3{
		{mins[0], mins[1], mins[2] - 1},
		{mins[0], maxs[1], mins[2] - 1},
		{maxs[0], mins[1], mins[2] - 1},
		{maxs[0], maxs[1], mins[2] - 1},
	}
	for _, p := range d {
		if m.PointContents(p, head)&bsp.ContentsSolid == 0 {
			return x.expensiveCheckBottom(m, head, v.ID, mins, maxs, stepSize)
		}
	}
	return true
}

func (x *Index) expensiveCheckBottom(m *bsp.Model, head bsp.NodeRef, id int, mins, maxs vec.Vec3, stepSize float32) bool {
	// the midpoint must be within 16 of the bottom
	level := mins[2]
	below := mins[2] - 2*stepSize
	start := vec.Vec3{
		(mins[0] + maxs[0]) * 0.5,
		(mins[1] + maxs[1]) * 0.5,
		level,
	}
	stop := vec.Vec3{start[0], start[1], below}
	t := x.Trace(m, start, vec.Vec3{}, vec.Vec3{}, stop, head, bsp.MaskSolid, id)
	if t.Fraction == 1 {
		return false
	}
	mid := t.EndPos[2]

	// the corners must be within 16 of the midpoint
	d := []vec.Vec3{
		{mins[0], mins[1], 0},
		{mins[0], maxs[1], 0},
		{maxs[0], mins[1], 0},
		{maxs[0], maxs[1], 0},
	}
	for _, p := range d {
		start := vec.Vec3{p[0], p[1], level}
		stop := vec.Vec3{p[0], p[1], below}
		t := x.Trace(m, start, vec.Vec3{}, vec.Vec3{}, stop, head, bsp.MaskSolid, id)
		if t.Fraction == 1 || mid-t.EndPos[2] > stepSize {
			return false
		}
	}
	return true
}
