// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"qmove/math/vec"
)

// Plane types. 0-2 are axial planes, 3-5 are non-axial planes snapped to
// the nearest axis.
const (
	PlaneX = iota
	PlaneY
	PlaneZ
	PlaneAnyX
	PlaneAnyY
	PlaneAnyZ
)

type Plane struct {
	Normal   vec.Vec3
	Dist     float32
	Type     byte
	SignBits byte
}

// NewPlane derives Type and SignBits from the normal.
func NewPlane(normal vec.Vec3, dist float32) Plane {
	return Plane{
		Normal:   normal,
		Dist:     dist,
		Type:     planeType(normal),
		SignBits: signBits(normal),
	}
}

func planeType(n vec.Vec3) byte {
	switch {
	case n[0] == 1 || n[0] == -1:
		if n[1] == 0 && n[2] == 0 {
			return PlaneX
		}
	case n[1] == 1 || n[1] == -1:
		if n[0] == 0 && n[2] == 0 {
			return PlaneY
		}
	case n[2] == 1 || n[2] == -1:
		if n[0] == 0 && n[1] == 0 {
			return PlaneZ
		}
	}
	ax := math32.Abs(n[0])
	ay := math32.Abs(n[1])
	az := math32.Abs(n[2])
	if ax >= ay && ax >= az {
		return PlaneAnyX
	}
	if ay >= ax && ay >= az {
		return PlaneAnyY
	}
	return PlaneAnyZ
}

// signBits sets bit i when normal[i] is negative.
func signBits(n vec.Vec3) byte {
	var b byte
	for i := 0; i < 3; i++ {
		if n[i] < 0 {
			b |= 1 << i
		}
	}
	return b
}

func (p *Plane) validate() error {
	if !vec.Finite(p.Normal) || !vec.Finite(vec.Vec3{p.Dist}) {
		return errors.Wrapf(ErrCorruptModel, "plane %v %v is not finite", p.Normal, p.Dist)
	}
	if l := vec.Length(p.Normal); math32.Abs(l-1) > 0.01 {
		return errors.Wrapf(ErrCorruptModel, "plane normal %v has length %v", p.Normal, l)
	}
	if p.SignBits != signBits(p.Normal) {
		return errors.Wrapf(ErrCorruptModel, "plane %v has signbits %d", p.Normal, p.SignBits)
	}
	if p.Type != planeType(p.Normal) {
		return errors.Wrapf(ErrCorruptModel, "plane %v has type %d", p.Normal, p.Type)
	}
	return nil
}

// Distance returns the signed distance of p to the plane.
func (p *Plane) Distance(v vec.Vec3) float32 {
	if p.Type < 3 {
		return p.Normal[p.Type]*v[p.Type] - p.Dist
	}
	return vec.DoublePrecDot(p.Normal, v) - p.Dist
}

// Flip returns the same plane facing the other way.
func (p Plane) Flip() Plane {
	return NewPlane(vec.Scale(-1, p.Normal), -p.Dist)
}

// BoxOnPlaneSide returns 1 if the box is in front, 2 if it is behind and 3
// if it crosses the plane.
func (p *Plane) BoxOnPlaneSide(mins, maxs vec.Vec3) int {
	if p.Type < 3 && p.Normal[p.Type] == 1 {
		if p.Dist <= mins[p.Type] {
			return 1
		}
		if p.Dist >= maxs[p.Type] {
			return 2
		}
		return 3
	}
	// d1 uses the corner farthest along the normal, d2 the nearest one
	n := p.Normal
	var near, far vec.Vec3
	for i := 0; i < 3; i++ {
		if p.SignBits&(1<<i) != 0 {
			far[i], near[i] = mins[i], maxs[i]
		} else {
			far[i], near[i] = maxs[i], mins[i]
		}
	}
	d1 := vec.Dot(n, far)
	d2 := vec.Dot(n, near)
	sides := 0
	if d1 >= p.Dist {
		sides = 1
	}
	if d2 < p.Dist {
		sides |= 2
	}
	return sides
}
