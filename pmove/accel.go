// SPDX-License-Identifier: GPL-2.0-or-later

package pmove

import (
	"github.com/chewxy/math32"

	"qmove/bsp"
	"qmove/math/vec"
)

// friction handles both ground friction and water friction.
func (m *mover) friction() {
	vel := m.s.Velocity
	speed := vec.Length(vel)
	if speed < 1 {
		m.s.Velocity[0] = 0
		m.s.Velocity[1] = 0
		return
	}

	drop := float32(0)

	// apply ground friction
	if (m.onGround() && m.ground.Surface&bsp.SurfSlick == 0) || m.onLadder() {
		control := speed
		if speed < stopSpeed {
			control = stopSpeed
		}
		drop += control * friction * m.frametime
	}

	// apply water friction
	if m.s.WaterLevel != WaterNone && !m.onLadder() {
		drop += speed * waterFriction * float32(m.s.WaterLevel) * m.frametime
	}

	newspeed := speed - drop
	if newspeed < 0 {
		newspeed = 0
	}
	newspeed /= speed
	m.s.Velocity = vec.Scale(newspeed, vel)
}

func (m *mover) accelerate(wishdir vec.Vec3, wishspeed, accel float32) {
	currentspeed := vec.Dot(m.s.Velocity, wishdir)
	addspeed := wishspeed - currentspeed
	if addspeed <= 0 {
		return
	}
	accelspeed := accel * m.frametime * wishspeed
	if accelspeed > addspeed {
		accelspeed = addspeed
	}
	m.s.Velocity = vec.MA(m.s.Velocity, accelspeed, wishdir)
}

func (m *mover) airAccelerate(wishdir vec.Vec3, wishspeed, accel float32) {
	wishspd := wishspeed
	if wishspd > 30 {
		wishspd = 30
	}
	currentspeed := vec.Dot(m.s.Velocity, wishdir)
	addspeed := wishspd - currentspeed
	if addspeed <= 0 {
		return
	}
	accelspeed := accel * wishspeed * m.frametime
	if accelspeed > addspeed {
		accelspeed = addspeed
	}
	m.s.Velocity = vec.MA(m.s.Velocity, accelspeed, wishdir)
}

func currentVector(contents int) vec.Vec3 {
	var v vec.Vec3
	if contents&bsp.ContentsCurrent0 != 0 {
		v[0]++
	}
	if contents&bsp.ContentsCurrent90 != 0 {
		v[1]++
	}
	if contents&bsp.ContentsCurrent180 != 0 {
		v[0]--
	}
	if contents&bsp.ContentsCurrent270 != 0 {
		v[1]--
	}
	if contents&bsp.ContentsCurrentUp != 0 {
		v[2]++
	}
	if contents&bsp.ContentsCurrentDown != 0 {
		v[2]--
	}
	return v
}

// addCurrents adds ladder climbing, water currents and conveyors to wishvel.
func (m *mover) addCurrents(wishvel vec.Vec3) vec.Vec3 {
	// account for ladders
	if m.onLadder() && math32.Abs(m.s.Velocity[2]) <= ladderSpeed {
		switch {
		case m.viewAngles[0] <= -15 && m.cmd.ForwardMove > 0:
			wishvel[2] = ladderSpeed
		case m.viewAngles[0] >= 15 && m.cmd.ForwardMove > 0:
			wishvel[2] = -ladderSpeed
		case m.cmd.UpMove > 0:
			wishvel[2] = ladderSpeed
		case m.cmd.UpMove < 0:
			wishvel[2] = -ladderSpeed
		default:
			wishvel[2] = 0
		}
		// limit horizontal speed when on a ladder
		for i := 0; i < 2; i++ {
			if wishvel[i] < -25 {
				wishvel[i] = -25
			} else if wishvel[i] > 25 {
				wishvel[i] = 25
			}
		}
	}

	// add water currents
	if m.s.WaterType&bsp.MaskCurrent != 0 {
		s := float32(waterSpeed)
		if m.s.WaterLevel == WaterFeet && m.onGround() {
			s /= 2
		}
		wishvel = vec.MA(wishvel, s, currentVector(m.s.WaterType))
	}

	// add conveyor belt velocities
	if m.onGround() {
		wishvel = vec.MA(wishvel, 100, currentVector(m.ground.Contents))
	}
	return wishvel
}

// Friction returns s with ground, ladder and water friction applied for
// frametime seconds. ground is what CategorizePosition reported.
func Friction(s State, ground Ground, frametime float32) State {
	m := &mover{s: s, ground: ground, frametime: frametime}
	m.friction()
	return m.s
}

// Accelerate adds up to accel*wishspeed*frametime along wishdir without
// going faster than wishspeed in that direction.
func Accelerate(vel, wishdir vec.Vec3, wishspeed, accel, frametime float32) vec.Vec3 {
	m := &mover{s: State{Velocity: vel}, frametime: frametime}
	m.accelerate(wishdir, wishspeed, accel)
	return m.s.Velocity
}

// AirAccelerate is Accelerate with the wish speed capped at 30, which
// allows air strafing.
func AirAccelerate(vel, wishdir vec.Vec3, wishspeed, accel, frametime float32) vec.Vec3 {
	m := &mover{s: State{Velocity: vel}, frametime: frametime}
	m.airAccelerate(wishdir, wishspeed, accel)
	return m.s.Velocity
}

// AddCurrents adds ladder climbing, water currents and conveyors to wishvel.
func AddCurrents(s State, cmd Cmd, ground Ground, wishvel vec.Vec3) vec.Vec3 {
	m := newMover(s, cmd, nil)
	m.ground = ground
	m.clampAngles()
	return m.addCurrents(wishvel)
}
