// SPDX-License-Identifier: GPL-2.0-or-later

package cvars

import (
	"sync/atomic"

	"qmove/cvar"
	"qmove/pmove"
)

var (
	Developer          *cvar.Cvar
	PmoveAirAccelerate *cvar.Cvar
	PmoveN64Physics    *cvar.Cvar
	PmoveStepSize      *cvar.Cvar
	PmoveWorldExtent   *cvar.Cvar
	ServerGravity      *cvar.Cvar
	ServerMaxVelocity  *cvar.Cvar
	ServerPhysicsStep  *cvar.Cvar
)

func init() {
	Developer = cvar.MustRegister("developer", "0", cvar.NONE)
	PmoveAirAccelerate = cvar.MustRegister("pm_airaccelerate", "0", cvar.NOTIFY|cvar.SERVERINFO)
	PmoveN64Physics = cvar.MustRegister("pm_n64physics", "0", cvar.NOTIFY|cvar.SERVERINFO)
	PmoveStepSize = cvar.MustRegister("pm_stepsize", "18", cvar.NOTIFY|cvar.SERVERINFO)
	PmoveWorldExtent = cvar.MustRegister("pm_worldextent", "4096", cvar.ROM)
	ServerGravity = cvar.MustRegister("sv_gravity", "800", cvar.NOTIFY|cvar.SERVERINFO)
	ServerMaxVelocity = cvar.MustRegister("sv_maxvelocity", "2000", cvar.NONE)
	ServerPhysicsStep = cvar.MustRegister("sv_physicsstep", "0.1", cvar.NONE) // seconds per non-player physics frame

	for _, cv := range []*cvar.Cvar{PmoveAirAccelerate, PmoveN64Physics, PmoveStepSize, ServerMaxVelocity} {
		cv.SetCallback(updatePmoveConfig)
	}
	updatePmoveConfig(nil)
}

var pmoveConfig atomic.Pointer[pmove.Config]

func updatePmoveConfig(*cvar.Cvar) {
	pmoveConfig.Store(&pmove.Config{
		StepSize:      PmoveStepSize.Value(),
		AirAccelerate: PmoveAirAccelerate.Value(),
		MaxVelocity:   ServerMaxVelocity.Value(),
		WorldExtent:   PmoveWorldExtent.Value(),
		N64Physics:    PmoveN64Physics.Bool(),
	})
}

// PmoveConfig returns the movement tunables. It is kept current by the
// cvar callbacks; changing a cvar afterwards does not affect a returned
// Config.
func PmoveConfig() pmove.Config {
	return *pmoveConfig.Load()
}
