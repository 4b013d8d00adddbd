// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

// Brush and volume contents. Lower bits are visible, upper bits are not.
const (
	ContentsSolid  = 1 << iota // an eye is never valid in a solid
	ContentsWindow             // translucent, but not watery
	ContentsAux
	ContentsLava
	ContentsSlime
	ContentsWater
	ContentsMist
)

const (
	ContentsAreaPortal  = 0x8000
	ContentsPlayerClip  = 0x10000
	ContentsMonsterClip = 0x20000

	// currents can be added to any other contents, and may be mixed
	ContentsCurrent0    = 0x40000
	ContentsCurrent90   = 0x80000
	ContentsCurrent180  = 0x100000
	ContentsCurrent270  = 0x200000
	ContentsCurrentUp   = 0x400000
	ContentsCurrentDown = 0x800000

	ContentsOrigin = 0x1000000 // removed before bsping an entity

	ContentsMonster     = 0x2000000 // should never be on a brush, only in game
	ContentsDeadMonster = 0x4000000
	ContentsDetail      = 0x8000000 // brushes to be added after vis leafs
	ContentsTranslucent = 0x10000000
	ContentsLadder      = 0x20000000
	ContentsPlayer      = 0x40000000  // linked player volumes
	ContentsTrigger     = -0x80000000 // trigger class volumes, never on a brush
)

const (
	MaskAll          = -1
	MaskSolid        = ContentsSolid | ContentsWindow
	MaskPlayerSolid  = ContentsSolid | ContentsPlayerClip | ContentsWindow | ContentsMonster | ContentsPlayer
	MaskDeadSolid    = ContentsSolid | ContentsPlayerClip | ContentsWindow
	MaskMonsterSolid = ContentsSolid | ContentsMonsterClip | ContentsWindow | ContentsMonster | ContentsPlayer
	MaskWater        = ContentsWater | ContentsLava | ContentsSlime
	MaskOpaque       = ContentsSolid | ContentsSlime | ContentsLava
	MaskShot         = ContentsSolid | ContentsMonster | ContentsPlayer | ContentsWindow | ContentsDeadMonster
	MaskCurrent      = ContentsCurrent0 | ContentsCurrent90 | ContentsCurrent180 |
		ContentsCurrent270 | ContentsCurrentUp | ContentsCurrentDown
)

type SurfaceFlags int

const (
	SurfLight SurfaceFlags = 1 << iota // value will hold the light strength
	SurfSlick                          // effects game physics
	SurfSky                            // don't draw, but add to skybox
	SurfWarp                           // turbulent water warp
	SurfTrans33
	SurfTrans66
	SurfFlowing // scroll towards angle
	SurfNoDraw  // don't bother referencing the texture
)
