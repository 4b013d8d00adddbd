// SPDX-License-Identifier: GPL-2.0-or-later

package pmove

import (
	"github.com/pkg/errors"

	"qmove/bsp"
	"qmove/math/vec"
)

var (
	ErrInvalidCommand = errors.New("invalid movement command")
	ErrInvalidState   = errors.New("invalid movement state")
	ErrInvalidEnv     = errors.New("movement environment without trace")
)

// NoEntity is the GroundEntity of a state that is not standing on anything.
const NoEntity = -1

type PmType byte

const (
	Normal PmType = iota
	Spectator
	// no acceleration or turning
	Dead
	Gib // different bounding box
	Freeze
)

func (t PmType) String() string {
	switch t {
	case Normal:
		return "normal"
	case Spectator:
		return "spectator"
	case Dead:
		return "dead"
	case Gib:
		return "gib"
	case Freeze:
		return "freeze"
	}
	return "unknown"
}

type Flags uint16

const (
	Ducked Flags = 1 << iota
	JumpHeld
	OnGround
	TimeWaterJump // Time is waterjump
	TimeLand      // Time is time before rejump
	TimeTeleport  // Time is non-moving time
	NoPrediction  // temporarily disables prediction (used for grappling hook)
	OnLadder

	timers = TimeWaterJump | TimeLand | TimeTeleport
)

type WaterLevel byte

const (
	WaterNone WaterLevel = iota
	WaterFeet
	WaterWaist
	WaterUnder
)

// State is everything carried from one movement tick to the next. It is
// plain data and can be compared with ==.
type State struct {
	Type     PmType
	Origin   vec.Vec3
	Velocity vec.Vec3
	Mins     vec.Vec3
	Maxs     vec.Vec3
	Flags    Flags
	// Time counts down the Time* flags in units of 8 msec.
	Time         uint16
	Gravity      float32
	ViewHeight   float32
	WaterLevel   WaterLevel
	WaterType    int
	GroundEntity int
}

type Buttons uint8

const (
	ButtonAttack Buttons = 1 << iota
	ButtonUse
	ButtonJump
	ButtonCrouch
)

// Cmd is one tick of player input.
type Cmd struct {
	Msec        uint8
	Buttons     Buttons
	Angles      vec.Vec3
	ForwardMove float32
	SideMove    float32
	UpMove      float32
}

func (c *Cmd) wantsJump() bool {
	return c.Buttons&ButtonJump != 0 || c.UpMove >= 10
}

func (c *Cmd) wantsCrouch() bool {
	return c.Buttons&ButtonCrouch != 0 || c.UpMove < 0
}

// Config holds the server tunables. The movement constants below are not
// part of it as client and server must agree on them.
type Config struct {
	StepSize      float32
	AirAccelerate float32
	MaxVelocity   float32
	WorldExtent   float32
	N64Physics    bool
}

func DefaultConfig() Config {
	return Config{
		StepSize:    18,
		MaxVelocity: 2000,
		WorldExtent: 4096,
	}
}

type TraceFunc func(start, mins, maxs, end vec.Vec3) bsp.Trace
type PointContentsFunc func(p vec.Vec3) int

// Env is the world as seen by the movement code.
type Env struct {
	Trace         TraceFunc
	PointContents PointContentsFunc
	Config        Config
}

type Result struct {
	State State
	// Touched lists the entities hit during the move, in order.
	Touched []int
}

// Ground describes what CategorizePosition found below the box.
type Ground struct {
	Plane    bsp.Plane
	Surface  bsp.SurfaceFlags
	Contents int
}

const (
	stopSpeed       = 100
	maxSpeed        = 300
	duckSpeed       = 100
	accelerate      = 10
	waterAccelerate = 10
	friction        = 6
	waterFriction   = 1
	waterSpeed      = 400

	jumpImpulse     = 270
	ladderJump      = 200
	ladderSpeed     = 200
	minStepNormal   = 0.7
	groundProbe     = 0.25
	maxClipPlanes   = 5
	numBumps        = 4
	deadFriction    = 20
	waterJumpSpeed  = 350
	waterJumpPush   = 50
	waterJumpTime   = 255
	landFallSpeed   = -200
	hardFallSpeed   = -400
	maxGroundZSpeed = 180
)

var (
	standMins = vec.Vec3{-16, -16, -24}
	standMaxs = vec.Vec3{16, 16, 32}
	duckMaxs  = vec.Vec3{16, 16, 4}

	standViewHeight float32 = 22
	duckViewHeight  float32 = -2
)

// NewState returns a standing player at origin.
func NewState(origin vec.Vec3, gravity float32) State {
	return State{
		Origin:       origin,
		Mins:         standMins,
		Maxs:         standMaxs,
		Gravity:      gravity,
		ViewHeight:   standViewHeight,
		GroundEntity: NoEntity,
	}
}
