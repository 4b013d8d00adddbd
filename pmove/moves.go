// SPDX-License-Identifier: GPL-2.0-or-later

package pmove

import (
	"qmove/bsp"
	"qmove/math/vec"
)

func (m *mover) clampWish(wishvel vec.Vec3, max float32) (vec.Vec3, float32) {
	wishdir, wishspeed := vec.Normalize(wishvel)
	if wishspeed > max {
		wishspeed = max
	}
	return wishdir, wishspeed
}

func (m *mover) maxSpeed() float32 {
	if m.s.Flags&Ducked != 0 {
		return duckSpeed
	}
	return maxSpeed
}

func (m *mover) waterMove() {
	wishvel := vec.Add(
		vec.Scale(m.cmd.ForwardMove, m.forward),
		vec.Scale(m.cmd.SideMove, m.right))

	if m.cmd.ForwardMove == 0 && m.cmd.SideMove == 0 && m.cmd.UpMove == 0 {
		wishvel[2] -= 60 // drift towards bottom
	} else {
		wishvel[2] += m.cmd.UpMove
	}

	wishvel = m.addCurrents(wishvel)
	wishdir, wishspeed := m.clampWish(wishvel, maxSpeed)
	wishspeed *= 0.5

	m.accelerate(wishdir, wishspeed, waterAccelerate)
	m.stepSlideMove()
}

// walkMove covers ladders, ground and air. It expects the air angles with
// the reduced pitch.
func (m *mover) walkMove(mode moveMode) {
	fmove := m.cmd.ForwardMove
	smove := m.cmd.SideMove

	wishvel := vec.Vec3{
		m.forward[0]*fmove + m.right[0]*smove,
		m.forward[1]*fmove + m.right[1]*smove,
		0,
	}
	wishvel = m.addCurrents(wishvel)
	wishdir, wishspeed := m.clampWish(wishvel, m.maxSpeed())

	switch mode {
	case modeLadder:
		m.accelerate(wishdir, wishspeed, accelerate)
		if wishvel[2] == 0 {
			if m.s.Velocity[2] > 0 {
				m.s.Velocity[2] -= m.s.Gravity * m.frametime
				if m.s.Velocity[2] < 0 {
					m.s.Velocity[2] = 0
				}
			} else {
				m.s.Velocity[2] += m.s.Gravity * m.frametime
				if m.s.Velocity[2] > 0 {
					m.s.Velocity[2] = 0
				}
			}
		}
		m.stepSlideMove()

	case modeGround:
		m.s.Velocity[2] = 0
		m.accelerate(wishdir, wishspeed, accelerate)
		if m.s.Gravity > 0 {
			m.s.Velocity[2] = 0
		} else {
			m.s.Velocity[2] -= m.s.Gravity * m.frametime
		}
		if m.s.Velocity[0] == 0 && m.s.Velocity[1] == 0 {
			return
		}
		m.stepSlideMove()

	default:
		// not on ground, so little effect on velocity
		if m.env.Config.AirAccelerate != 0 {
			m.airAccelerate(wishdir, wishspeed, m.env.Config.AirAccelerate)
		} else {
			m.accelerate(wishdir, wishspeed, 1)
		}
		m.s.Velocity[2] -= m.s.Gravity * m.frametime
		m.stepSlideMove()
	}
}

// flyMove moves spectators without any clipping.
func (m *mover) flyMove() {
	m.s.ViewHeight = standViewHeight

	speed := vec.Length(m.s.Velocity)
	if speed < 1 {
		m.s.Velocity = vec.Vec3{}
	} else {
		control := speed
		if speed < stopSpeed {
			control = stopSpeed
		}
		drop := control * friction * 1.5 * m.frametime
		newspeed := speed - drop
		if newspeed < 0 {
			newspeed = 0
		}
		m.s.Velocity = vec.Scale(newspeed/speed, m.s.Velocity)
	}

	forward, _ := vec.Normalize(m.forward)
	right, _ := vec.Normalize(m.right)
	wishvel := vec.Add(vec.Scale(m.cmd.ForwardMove, forward), vec.Scale(m.cmd.SideMove, right))
	wishvel[2] += m.cmd.UpMove

	wishdir, wishspeed := m.clampWish(wishvel, maxSpeed)
	m.accelerate(wishdir, wishspeed, accelerate)

	m.s.Origin = vec.MA(m.s.Origin, m.frametime, m.s.Velocity)
}

func (m *mover) deadMove() {
	if !m.onGround() {
		return
	}
	// extra friction
	v, speed := vec.Normalize(m.s.Velocity)
	speed -= deadFriction
	if speed <= 0 {
		m.s.Velocity = vec.Vec3{}
		return
	}
	m.s.Velocity = vec.Scale(speed, v)
}

func (m *mover) waterJumpMove() {
	// waterjump has no control, but falls
	m.s.Velocity[2] -= m.s.Gravity * m.frametime
	if m.s.Velocity[2] < 0 {
		// cancel as soon as we are falling down again
		m.clearTimers()
	}
	m.stepSlideMove()
}

// CheckSpecialMovement looks for a ladder in front of s and starts a
// water jump when s swims against a ledge.
func CheckSpecialMovement(s State, cmd Cmd, env Env) State {
	m := newMover(s, cmd, &env)
	m.checkSpecialMovement()
	return m.s
}

func (m *mover) checkSpecialMovement() {
	if m.s.Time != 0 {
		return
	}
	m.s.Flags &^= OnLadder

	// check for ladder
	flatforward, _ := vec.Normalize(vec.Vec3{m.forward[0], m.forward[1], 0})
	spot := vec.Add(m.s.Origin, flatforward)
	t := m.trace(m.s.Origin, spot)
	if t.Fraction < 1 && t.Contents&bsp.ContentsLadder != 0 {
		m.s.Flags |= OnLadder
	}

	// check for water jump
	if m.s.WaterLevel != WaterWaist {
		return
	}
	spot = vec.MA(m.s.Origin, 30, flatforward)
	spot[2] += 4
	if m.pointContents(spot)&bsp.ContentsSolid == 0 {
		return
	}
	spot[2] += 16
	if m.pointContents(spot) != 0 {
		return
	}
	// jump out of water
	m.s.Velocity = vec.Scale(waterJumpPush, flatforward)
	m.s.Velocity[2] = waterJumpSpeed
	m.s.Flags |= TimeWaterJump
	m.s.Time = waterJumpTime
}
