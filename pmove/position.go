// SPDX-License-Identifier: GPL-2.0-or-later

package pmove

import (
	"qmove/bsp"
	"qmove/math/vec"
)

// CategorizePosition finds the ground below s and how deep s is in water.
func CategorizePosition(s State, env Env) (State, Ground) {
	m := newMover(s, Cmd{}, &env)
	m.categorizePosition()
	return m.s, m.ground
}

func (m *mover) categorizePosition() {
	// if the player hull point one quarter unit down is solid, the player
	// is on ground
	point := m.s.Origin
	point[2] -= groundProbe

	if m.s.Velocity[2] > maxGroundZSpeed {
		m.clearGround()
		m.ground = Ground{}
	} else {
		t := m.trace(m.s.Origin, point)
		m.ground = Ground{
			Plane:    t.Plane,
			Surface:  t.Surface,
			Contents: t.Contents,
		}
		if !t.Hit() || (t.Plane.Normal[2] < minStepNormal && !t.StartSolid) {
			m.clearGround()
		} else {
			m.s.GroundEntity = 0
			if t.EntPointer {
				m.s.GroundEntity = t.EntNumber
			}
			// hitting solid ground will end a waterjump
			if m.s.Flags&TimeWaterJump != 0 {
				m.clearTimers()
			}
			if !m.onGround() {
				// just hit the ground
				m.s.Flags |= OnGround
				// don't do landing time if we were just going down a slope
				if m.s.Velocity[2] < landFallSpeed {
					m.s.Flags |= TimeLand
					if m.s.Velocity[2] < hardFallSpeed {
						m.s.Time = 25
					} else {
						m.s.Time = 18
					}
				}
			}
		}
		m.touch(&t)
	}

	m.categorizeWater()
}

// categorizeWater samples the feet, the waist and the eyes.
func (m *mover) categorizeWater() {
	m.s.WaterLevel = WaterNone
	m.s.WaterType = 0

	sample2 := m.s.ViewHeight - m.s.Mins[2]
	sample1 := sample2 / 2

	point := m.s.Origin
	point[2] = m.s.Origin[2] + m.s.Mins[2] + 1
	cont := m.pointContents(point)
	if cont&bsp.MaskWater == 0 {
		return
	}
	m.s.WaterType = cont
	m.s.WaterLevel = WaterFeet
	point[2] = m.s.Origin[2] + m.s.Mins[2] + sample1
	if m.pointContents(point)&bsp.MaskWater == 0 {
		return
	}
	m.s.WaterLevel = WaterWaist
	point[2] = m.s.Origin[2] + m.s.Mins[2] + sample2
	if m.pointContents(point)&bsp.MaskWater == 0 {
		return
	}
	m.s.WaterLevel = WaterUnder
}

// CheckDuck updates the box and view height for the crouch input. It
// reports whether the box changed, callers should categorize the position
// again if it did.
func CheckDuck(s State, cmd Cmd, env Env) (State, bool) {
	m := newMover(s, cmd, &env)
	return m.s, m.checkDuck()
}

func (m *mover) checkDuck() bool {
	if m.env.Config.N64Physics {
		return false
	}
	oldMins, oldMaxs := m.s.Mins, m.s.Maxs

	switch {
	case m.s.Type == Dead || m.s.Type == Gib:
		m.s.Flags |= Ducked
	case m.cmd.wantsCrouch() && (m.onGround() || m.onLadder()):
		if m.s.Flags&Ducked == 0 && m.fits(standMins, duckMaxs) {
			m.s.Flags |= Ducked
		}
	case m.s.Flags&Ducked != 0:
		// try to stand up
		if m.fits(standMins, standMaxs) {
			m.s.Flags &^= Ducked
		}
	}

	m.s.Mins = standMins
	if m.s.Flags&Ducked != 0 {
		m.s.Maxs = duckMaxs
		m.s.ViewHeight = duckViewHeight
	} else {
		m.s.Maxs = standMaxs
		m.s.ViewHeight = standViewHeight
	}
	return m.s.Mins != oldMins || m.s.Maxs != oldMaxs
}

func (m *mover) fits(mins, maxs vec.Vec3) bool {
	t := m.env.Trace(m.s.Origin, mins, maxs, m.s.Origin)
	return !t.AllSolid
}

// CheckJump starts a jump on the rising edge of the jump input.
func CheckJump(s State, cmd Cmd) State {
	m := newMover(s, cmd, &Env{})
	m.checkJump()
	return m.s
}

func (m *mover) checkJump() {
	if m.s.Flags&TimeLand != 0 {
		// hasn't been long enough since landing to jump again
		return
	}
	if !m.cmd.wantsJump() {
		// not holding jump
		m.s.Flags &^= JumpHeld
		return
	}
	// must wait for jump to be released
	if m.s.Flags&JumpHeld != 0 {
		return
	}
	if m.s.Type == Dead || m.s.Type == Gib {
		return
	}

	if m.s.WaterLevel >= WaterWaist {
		// swimming, not jumping
		m.clearGround()
		if m.s.Velocity[2] <= -300 {
			return
		}
		switch {
		case m.s.WaterType&bsp.ContentsWater != 0:
			m.s.Velocity[2] = 100
		case m.s.WaterType&bsp.ContentsSlime != 0:
			m.s.Velocity[2] = 80
		default:
			m.s.Velocity[2] = 50
		}
		return
	}

	if !m.onGround() {
		if m.onLadder() {
			m.s.Flags |= JumpHeld
			if m.s.Velocity[2] < ladderJump {
				m.s.Velocity[2] = ladderJump
			}
		}
		// in air, so no effect
		return
	}

	m.s.Flags |= JumpHeld
	m.clearGround()
	m.s.Velocity[2] += jumpImpulse
	if m.s.Velocity[2] < jumpImpulse {
		m.s.Velocity[2] = jumpImpulse
	}
}
