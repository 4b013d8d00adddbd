// SPDX-License-Identifier: GPL-2.0-or-later

package pmove

import (
	"github.com/pkg/errors"

	"qmove/conlog"
	"qmove/math"
	"qmove/math/vec"
)

type moveMode byte

const (
	modeFreeze moveMode = iota
	modeSpectator
	modeTeleportPause
	modeWaterJump
	modeWater
	modeLadder
	modeGround
	modeAir
)

// Run simulates one tick of cmd starting at prev. It only reads the world
// through env and has no other inputs, so client and server get the same
// result from the same arguments.
func Run(prev State, cmd Cmd, env Env) (Result, error) {
	if env.Trace == nil {
		return Result{State: prev}, ErrInvalidEnv
	}
	if err := validateCmd(&cmd); err != nil {
		return Result{State: prev}, err
	}
	if err := validateState(&prev); err != nil {
		return Result{State: prev}, err
	}

	m := newMover(prev, cmd, &env)
	m.run()
	return Result{State: m.s, Touched: m.touched}, nil
}

func validateCmd(c *Cmd) error {
	if !vec.Finite(c.Angles) {
		return errors.Wrapf(ErrInvalidCommand, "angles %v", c.Angles)
	}
	if !vec.Finite(vec.Vec3{c.ForwardMove, c.SideMove, c.UpMove}) {
		return errors.Wrapf(ErrInvalidCommand, "move %v %v %v", c.ForwardMove, c.SideMove, c.UpMove)
	}
	return nil
}

func validateState(s *State) error {
	if s.Type > Freeze {
		return errors.Wrapf(ErrInvalidState, "type %d", s.Type)
	}
	for _, v := range []vec.Vec3{s.Origin, s.Velocity, s.Mins, s.Maxs} {
		if !vec.Finite(v) {
			return errors.Wrapf(ErrInvalidState, "vector %v", v)
		}
	}
	if !math.Finite(s.Gravity) || !math.Finite(s.ViewHeight) {
		return errors.Wrapf(ErrInvalidState, "gravity %v viewheight %v", s.Gravity, s.ViewHeight)
	}
	for i := 0; i < 3; i++ {
		if s.Mins[i] > s.Maxs[i] {
			return errors.Wrapf(ErrInvalidState, "mins %v above maxs %v", s.Mins, s.Maxs)
		}
	}
	return nil
}

func (m *mover) clampAngles() {
	a := m.cmd.Angles
	if m.s.Flags&TimeTeleport != 0 {
		a = vec.Vec3{0, a[1], 0}
	}
	a[0] = math.Clamp(-89, math.Angle180(a[0]), 89)
	m.setAngles(a)
}

func (m *mover) run() {
	m.touched = nil
	m.clampAngles()

	switch m.s.Type {
	case Spectator:
		m.dispatch(modeSpectator)
		return
	case Dead, Gib:
		m.cmd.ForwardMove = 0
		m.cmd.SideMove = 0
		m.cmd.UpMove = 0
	case Freeze:
		m.dispatch(modeFreeze)
		return
	}

	// set mins, maxs, and viewheight
	if m.checkDuck() {
		m.categorizePosition()
	}

	// set groundentity, watertype, and waterlevel
	m.categorizePosition()

	if m.s.Type == Dead {
		m.deadMove()
	}

	m.checkSpecialMovement()
	m.dropTime()

	if m.s.Flags&(TimeTeleport|TimeWaterJump) == 0 {
		m.checkJump()
		m.friction()
	}
	m.dispatch(m.selectMode())

	// set groundentity, watertype, and waterlevel for final spot
	m.categorizePosition()
	m.finish()
}

func (m *mover) dropTime() {
	if m.s.Time == 0 {
		return
	}
	msec := uint16(m.cmd.Msec >> 3)
	if msec == 0 {
		msec = 1
	}
	if msec >= m.s.Time {
		m.clearTimers()
	} else {
		m.s.Time -= msec
	}
}

func (m *mover) selectMode() moveMode {
	switch {
	case m.s.Flags&TimeTeleport != 0:
		return modeTeleportPause
	case m.s.Flags&TimeWaterJump != 0:
		return modeWaterJump
	case m.s.WaterLevel >= WaterWaist:
		return modeWater
	case m.onLadder():
		return modeLadder
	case m.onGround():
		return modeGround
	}
	return modeAir
}

func (m *mover) dispatch(mode moveMode) {
	switch mode {
	case modeFreeze:
		// no movement at all
	case modeSpectator:
		m.flyMove()
	case modeTeleportPause:
		// teleport pause stays exactly in place
	case modeWaterJump:
		m.waterJumpMove()
	case modeWater:
		m.waterMove()
	case modeLadder, modeGround, modeAir:
		// walking uses flattened pitch
		a := m.viewAngles
		a[0] /= 3
		m.forward, m.right, m.up = vec.AngleVectors(a)
		m.walkMove(mode)
	}
}

// finish clamps the result and puts the box back where it started when
// the move left it stuck in solid.
func (m *mover) finish() {
	max := m.env.Config.MaxVelocity
	if max > 0 {
		for i := 0; i < 3; i++ {
			m.s.Velocity[i] = math.Clamp(-max, m.s.Velocity[i], max)
		}
	}
	if ext := m.env.Config.WorldExtent; ext > 0 {
		for i := 0; i < 3; i++ {
			m.s.Origin[i] = math.Clamp(-ext, m.s.Origin[i], ext)
		}
	}
	if m.s.Origin == m.prevOrigin {
		return
	}
	if t := m.trace(m.s.Origin, m.s.Origin); !t.AllSolid {
		return
	}
	if t := m.trace(m.prevOrigin, m.prevOrigin); t.AllSolid {
		return
	}
	conlog.DPrintf("pmove: stuck at %v, back to %v", m.s.Origin, m.prevOrigin)
	m.s.Origin = m.prevOrigin
	m.categorizePosition()
}
