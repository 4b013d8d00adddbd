// SPDX-License-Identifier: GPL-2.0-or-later

package pmove

import (
	"qmove/bsp"
	"qmove/math/vec"
)

// mover holds the working copy of one movement tick.
type mover struct {
	s         State
	cmd       Cmd
	env       *Env
	frametime float32

	viewAngles vec.Vec3
	forward    vec.Vec3
	right      vec.Vec3
	up         vec.Vec3

	ground     Ground
	prevOrigin vec.Vec3
	touched    []int
}

func newMover(s State, cmd Cmd, env *Env) *mover {
	m := &mover{
		s:          s,
		cmd:        cmd,
		env:        env,
		frametime:  float32(cmd.Msec) / 1000,
		prevOrigin: s.Origin,
	}
	m.setAngles(cmd.Angles)
	return m
}

func (m *mover) setAngles(a vec.Vec3) {
	m.viewAngles = a
	m.forward, m.right, m.up = vec.AngleVectors(a)
}

func (m *mover) trace(start, end vec.Vec3) bsp.Trace {
	return m.env.Trace(start, m.s.Mins, m.s.Maxs, end)
}

func (m *mover) pointContents(p vec.Vec3) int {
	if m.env.PointContents == nil {
		return 0
	}
	return m.env.PointContents(p)
}

func (m *mover) touch(t *bsp.Trace) {
	if !t.EntPointer || t.EntNumber <= 0 {
		return
	}
	for _, e := range m.touched {
		if e == t.EntNumber {
			return
		}
	}
	m.touched = append(m.touched, t.EntNumber)
}

func (m *mover) onGround() bool {
	return m.s.Flags&OnGround != 0
}

func (m *mover) onLadder() bool {
	return m.s.Flags&OnLadder != 0
}

func (m *mover) clearGround() {
	m.s.Flags &^= OnGround
	m.s.GroundEntity = NoEntity
}

func (m *mover) clearTimers() {
	m.s.Flags &^= timers
	m.s.Time = 0
}
