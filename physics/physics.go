// SPDX-License-Identifier: GPL-2.0-or-later

// Package physics moves the non-player objects of the world.
//
// Toss objects fall and come to rest on the first floor they hit. Bounce
// objects lose a part of their speed on each impact and rest once they hit a
// floor slowly. WallBounce objects keep all of it. Fly objects do not obey
// gravity.
package physics

import (
	"github.com/chewxy/math32"

	"qmove/bsp"
	"qmove/conlog"
	"qmove/math/vec"
	"qmove/pmove"
)

type MoveKind int

const (
	Toss MoveKind = iota
	Bounce
	WallBounce
	Fly
)

func (k MoveKind) String() string {
	switch k {
	case Toss:
		return "toss"
	case Bounce:
		return "bounce"
	case WallBounce:
		return "wallbounce"
	case Fly:
		return "fly"
	}
	return "unknown"
}

func (k MoveKind) backoff() float32 {
	switch k {
	case Bounce:
		return pmove.BackoffBounce
	case WallBounce:
		return pmove.BackoffElastic
	}
	return pmove.BackoffSlide
}

func (k MoveKind) bounces() bool {
	return k == Bounce || k == WallBounce
}

const (
	floorNormal   = 0.7
	restSpeed     = 60
	groundProbe   = 0.25
	unstickHeight = 18
)

type Mover struct {
	Origin    vec.Vec3
	Velocity  vec.Vec3
	Angles    vec.Vec3
	AVelocity vec.Vec3
	Mins      vec.Vec3
	Maxs      vec.Vec3
	Kind      MoveKind

	OnGround     bool
	GroundEntity int
	// Impact is the entity hit during the last Step or pmove.NoEntity.
	Impact int

	WaterLevel pmove.WaterLevel
	WaterType  int
}

// Step advances m by dt seconds. Movers resting on the ground do not move
// until the ground goes away or they get an upward push.
func Step(m Mover, dt, gravity float32, env pmove.Env) Mover {
	m.Impact = pmove.NoEntity
	if m.OnGround {
		if m.Velocity[2] > 0 || !groundBelow(&m, env) {
			m.OnGround = false
			m.GroundEntity = pmove.NoEntity
		} else {
			return m
		}
	}

	m.Velocity = clampVelocity(m.Velocity, env.Config.MaxVelocity)
	if m.Kind != Fly {
		m.Velocity[2] -= gravity * dt
	}
	m.Angles = vec.MA(m.Angles, dt, m.AVelocity)

	end := vec.MA(m.Origin, dt, m.Velocity)
	t := env.Trace(m.Origin, m.Mins, m.Maxs, end)
	m.Origin = t.EndPos
	if t.Fraction == 1 {
		checkWater(&m, env)
		return m
	}
	if t.EntPointer {
		m.Impact = t.EntNumber
	}

	m.Velocity = pmove.ClipVelocity(m.Velocity, t.Plane.Normal, m.Kind.backoff())

	// stop if on ground
	if t.Plane.Normal[2] > floorNormal {
		if m.Velocity[2] < restSpeed || !m.Kind.bounces() {
			m.OnGround = true
			m.GroundEntity = t.EntNumber
			m.Velocity = vec.Vec3{}
			m.AVelocity = vec.Vec3{}
		}
	}

	checkWater(&m, env)
	return m
}

func groundBelow(m *Mover, env pmove.Env) bool {
	end := m.Origin
	end[2] -= groundProbe
	t := env.Trace(m.Origin, m.Mins, m.Maxs, end)
	return t.Fraction < 1 && t.Plane.Normal[2] > floorNormal
}

func clampVelocity(v vec.Vec3, max float32) vec.Vec3 {
	if max <= 0 {
		return v
	}
	for i := 0; i < 3; i++ {
		if math32.IsNaN(v[i]) {
			conlog.DPrintf("physics: velocity %d is NaN", i)
			v[i] = 0
		}
		if v[i] > max {
			v[i] = max
		} else if v[i] < -max {
			v[i] = -max
		}
	}
	return v
}

// checkWater samples feet, center and top of the box. An env without
// PointContents has no water.
func checkWater(m *Mover, env pmove.Env) {
	m.WaterLevel = pmove.WaterNone
	m.WaterType = 0
	if env.PointContents == nil {
		return
	}
	p := m.Origin
	p[2] += m.Mins[2] + 1
	c := env.PointContents(p)
	if c&bsp.MaskWater == 0 {
		return
	}
	m.WaterType = c
	m.WaterLevel = pmove.WaterFeet
	p[2] = m.Origin[2] + (m.Mins[2]+m.Maxs[2])*0.5
	if env.PointContents(p)&bsp.MaskWater == 0 {
		return
	}
	m.WaterLevel = pmove.WaterWaist
	p[2] = m.Origin[2] + m.Maxs[2] - 1
	if env.PointContents(p)&bsp.MaskWater == 0 {
		return
	}
	m.WaterLevel = pmove.WaterUnder
}

func stuck(m *Mover, env pmove.Env) bool {
	return env.Trace(m.Origin, m.Mins, m.Maxs, m.Origin).StartSolid
}

// Unstick tries to get m out of solid, first by moving it back to old and
// then by nudging it around and upwards. It reports whether m is free.
func Unstick(m Mover, old vec.Vec3, env pmove.Env) (Mover, bool) {
	if !stuck(&m, env) {
		return m, true
	}

	org := m.Origin
	m.Origin = old
	if !stuck(&m, env) {
		conlog.DPrintf("Unstuck.")
		return m, true
	}

	for z := float32(0); z < unstickHeight; z++ {
		for i := float32(-1); i <= 1; i++ {
			for j := float32(-1); j <= 1; j++ {
				m.Origin = vec.Vec3{org[0] + i, org[1] + j, org[2] + z}
				if !stuck(&m, env) {
					conlog.DPrintf("Unstuck.")
					return m, true
				}
			}
		}
	}

	m.Origin = org
	conlog.DPrintf("mover is stuck.")
	return m, false
}
