// SPDX-License-Identifier: GPL-2.0-or-later

package pmove

import (
	"qmove/math/vec"
)

// SlideMove moves s for frametime seconds, sliding along everything it
// hits. It returns the new state and the entities it touched.
func SlideMove(s State, frametime float32, env Env) (State, []int) {
	m := newMover(s, Cmd{}, &env)
	m.frametime = frametime
	m.slideMove()
	return m.s, m.touched
}

// StepSlideMove is SlideMove that also tries to climb steps.
func StepSlideMove(s State, frametime float32, env Env) (State, []int) {
	m := newMover(s, Cmd{}, &env)
	m.frametime = frametime
	m.stepSlideMove()
	return m.s, m.touched
}

func (m *mover) slideMove() {
	var planes [maxClipPlanes]vec.Vec3
	numPlanes := 0
	primal := m.s.Velocity
	timeLeft := m.frametime

	for bump := 0; bump < numBumps; bump++ {
		end := vec.MA(m.s.Origin, timeLeft, m.s.Velocity)
		t := m.trace(m.s.Origin, end)

		if t.AllSolid {
			// entity is trapped in another solid
			m.s.Velocity[2] = 0
			return
		}
		if t.Fraction > 0 {
			// actually covered some distance
			m.s.Origin = t.EndPos
			numPlanes = 0
		}
		if t.Fraction == 1 {
			break // moved the entire distance
		}

		m.touch(&t)
		timeLeft -= timeLeft * t.Fraction

		// slide along this plane
		if numPlanes >= maxClipPlanes {
			// this shouldn't really happen
			m.s.Velocity = vec.Vec3{}
			break
		}
		planes[numPlanes] = t.Plane.Normal
		numPlanes++

		// modify velocity so it parallels all of the clip planes
		i := 0
		for ; i < numPlanes; i++ {
			m.s.Velocity = ClipVelocity(m.s.Velocity, planes[i], BackoffSlide)
			j := 0
			for ; j < numPlanes; j++ {
				if j != i && vec.Dot(m.s.Velocity, planes[j]) < 0 {
					break // not ok
				}
			}
			if j == numPlanes {
				break
			}
		}

		if i == numPlanes {
			// go along the crease
			if numPlanes != 2 {
				m.s.Velocity = vec.Vec3{}
				break
			}
			dir := vec.Cross(planes[0], planes[1])
			m.s.Velocity = vec.Scale(vec.Dot(dir, m.s.Velocity), dir)
		}

		// if velocity is against the original velocity, stop dead
		// to avoid tiny occilations in sloping corners
		if vec.Dot(m.s.Velocity, primal) <= 0 {
			m.s.Velocity = vec.Vec3{}
			break
		}
	}

	if m.s.Time != 0 {
		m.s.Velocity = primal
	}
}

func (m *mover) stepSlideMove() {
	startOrigin := m.s.Origin
	startVelocity := m.s.Velocity

	m.slideMove()

	downOrigin := m.s.Origin
	downVelocity := m.s.Velocity

	up := startOrigin
	up[2] += m.env.Config.StepSize

	if t := m.trace(up, up); t.AllSolid {
		return // can't step up
	}

	// try sliding above
	m.s.Origin = up
	m.s.Velocity = startVelocity

	m.slideMove()

	// push down the final amount
	down := m.s.Origin
	down[2] -= m.env.Config.StepSize
	t := m.trace(m.s.Origin, down)
	if !t.AllSolid {
		m.s.Origin = t.EndPos
	}

	// keep whichever went farther, the stepped move only counts when it
	// ends on walkable ground
	dx := downOrigin[0] - startOrigin[0]
	dy := downOrigin[1] - startOrigin[1]
	downDist := dx*dx + dy*dy
	ux := m.s.Origin[0] - startOrigin[0]
	uy := m.s.Origin[1] - startOrigin[1]
	upDist := ux*ux + uy*uy

	if downDist > upDist || t.Plane.Normal[2] < minStepNormal {
		m.s.Origin = downOrigin
		m.s.Velocity = downVelocity
		return
	}
	// if we were walking along a plane, then we need to copy the Z over
	m.s.Velocity[2] = downVelocity[2]
}
