// SPDX-License-Identifier: GPL-2.0-or-later

package pmove

import (
	"qmove/math/vec"
)

// Backoff factors for ClipVelocity.
const (
	BackoffSlide   = 1.0
	BackoffBounce  = 1.6
	BackoffElastic = 2.0

	stopEpsilon = 0.1
)

// ClipVelocity slides in along the plane with the given normal. A backoff
// above 1 makes the result bounce off the plane. Components smaller than
// stopEpsilon are zeroed, even when in is parallel to the plane.
func ClipVelocity(in, normal vec.Vec3, backoff float32) vec.Vec3 {
	b := vec.Dot(in, normal) * backoff
	var out vec.Vec3
	for i := 0; i < 3; i++ {
		out[i] = in[i] - normal[i]*b
		if out[i] > -stopEpsilon && out[i] < stopEpsilon {
			out[i] = 0
		}
	}
	return out
}
