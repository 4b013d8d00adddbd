// SPDX-License-Identifier: GPL-2.0-or-later

package physics

import (
	"testing"

	"github.com/chewxy/math32"

	"qmove/bsp"
	"qmove/math/vec"
	"qmove/pmove"
	"qmove/world"
)

var (
	boxMins = vec.Vec3{-4, -4, -4}
	boxMaxs = vec.Vec3{4, 4, 4}
)

// testEnv has a floor at z 0 for x < 300, a wall at x 200 and a water pool
// at x -300..-200.
func testEnv(t *testing.T) pmove.Env {
	t.Helper()
	var b bsp.Builder
	floor := b.BoxBrush(vec.Vec3{-512, -512, -32}, vec.Vec3{300, 512, 0}, bsp.ContentsSolid, 0)
	wall := b.BoxBrush(vec.Vec3{200, -512, 0}, vec.Vec3{232, 512, 256}, bsp.ContentsSolid, 0)
	pool := b.BoxBrush(vec.Vec3{-300, -100, 0}, vec.Vec3{-200, 100, 64}, bsp.ContentsWater, bsp.SurfWarp)
	head := b.BuildAxialTree([]int{floor, wall, pool})
	b.SubModel(vec.Vec3{-512, -512, -32}, vec.Vec3{512, 512, 256}, vec.Vec3{}, head)
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	x := world.NewIndex(vec.Vec3{-512, -512, -512}, vec.Vec3{512, 512, 256})
	return x.Env(m, world.NoEntity, bsp.MaskSolid, pmove.DefaultConfig())
}

func mover(kind MoveKind, origin, velocity vec.Vec3) Mover {
	return Mover{
		Origin:   origin,
		Velocity: velocity,
		Mins:     boxMins,
		Maxs:     boxMaxs,
		Kind:     kind,
	}
}

func near(a, b float32) bool {
	return math32.Abs(a-b) < 0.01
}

func TestTossFalls(t *testing.T) {
	env := testEnv(t)
	m := Step(mover(Toss, vec.Vec3{0, 0, 100}, vec.Vec3{}), 0.1, 800, env)
	if !near(m.Velocity[2], -80) || !near(m.Origin[2], 92) {
		t.Errorf("Step() = %v %v, want z 92 vz -80", m.Origin, m.Velocity)
	}
	if m.OnGround || m.Impact != pmove.NoEntity {
		t.Errorf("OnGround %v Impact %v in free fall", m.OnGround, m.Impact)
	}
}

func TestTossLands(t *testing.T) {
	env := testEnv(t)
	m := Step(mover(Toss, vec.Vec3{0, 0, 4.5}, vec.Vec3{10, 0, -100}), 0.1, 800, env)
	if !m.OnGround || m.GroundEntity != 0 || m.Impact != 0 {
		t.Errorf("OnGround %v GroundEntity %v Impact %v", m.OnGround, m.GroundEntity, m.Impact)
	}
	if m.Velocity != (vec.Vec3{}) {
		t.Errorf("Velocity = %v, want 0", m.Velocity)
	}
	if !near(m.Origin[2], 4+bsp.DistEpsilon) {
		t.Errorf("Origin = %v", m.Origin)
	}
	rest := Step(m, 0.1, 800, env)
	if rest.Origin != m.Origin || !rest.OnGround {
		t.Errorf("resting mover moved to %v", rest.Origin)
	}
}

func TestBounce(t *testing.T) {
	env := testEnv(t)
	m := Step(mover(Bounce, vec.Vec3{0, 0, 20.5}, vec.Vec3{0, 0, -300}), 0.1, 800, env)
	if m.OnGround {
		t.Errorf("fast bounce came to rest")
	}
	// -380 reflected with 1.6
	if !near(m.Velocity[2], 228) {
		t.Errorf("Velocity = %v, want z 228", m.Velocity)
	}

	m = Step(mover(Bounce, vec.Vec3{0, 0, 4.5}, vec.Vec3{0, 0, -50}), 0.01, 800, env)
	if !m.OnGround || m.Velocity != (vec.Vec3{}) {
		t.Errorf("slow bounce did not rest: %v %v", m.OnGround, m.Velocity)
	}
}

func TestWallBounce(t *testing.T) {
	env := testEnv(t)
	m := Step(mover(WallBounce, vec.Vec3{190, 0, 100}, vec.Vec3{100, 0, 0}), 0.1, 800, env)
	if !near(m.Velocity[0], -100) {
		t.Errorf("Velocity = %v, want x -100", m.Velocity)
	}
	if m.Origin[0] > 196 {
		t.Errorf("Origin = %v went into the wall", m.Origin)
	}
}

func TestFly(t *testing.T) {
	env := testEnv(t)
	m := Step(mover(Fly, vec.Vec3{0, 0, 50}, vec.Vec3{100, 0, 0}), 0.1, 800, env)
	if !near(m.Origin[0], 10) || m.Origin[2] != 50 || m.Velocity[2] != 0 {
		t.Errorf("Step() = %v %v", m.Origin, m.Velocity)
	}
	m = mover(Fly, vec.Vec3{0, 0, 50}, vec.Vec3{0, 0, 0})
	m.AVelocity = vec.Vec3{0, 90, 0}
	m = Step(m, 0.5, 800, env)
	if !near(m.Angles[1], 45) {
		t.Errorf("Angles = %v, want yaw 45", m.Angles)
	}
}

func TestGroundRemoved(t *testing.T) {
	env := testEnv(t)
	m := mover(Toss, vec.Vec3{400, 0, 100}, vec.Vec3{})
	m.OnGround = true
	m = Step(m, 0.1, 800, env)
	if m.OnGround || m.Origin[2] >= 100 {
		t.Errorf("mover without ground stayed: %v %v", m.OnGround, m.Origin)
	}
}

func TestMaxVelocity(t *testing.T) {
	env := testEnv(t)
	m := Step(mover(Fly, vec.Vec3{0, 0, 100}, vec.Vec3{-5000, 0, 0}), 0.01, 800, env)
	if m.Velocity[0] != -env.Config.MaxVelocity {
		t.Errorf("Velocity = %v, want x %v", m.Velocity, -env.Config.MaxVelocity)
	}
}

func TestWater(t *testing.T) {
	env := testEnv(t)
	m := Step(mover(Fly, vec.Vec3{-250, 0, 30}, vec.Vec3{}), 0.1, 800, env)
	if m.WaterLevel != pmove.WaterUnder || m.WaterType&bsp.ContentsWater == 0 {
		t.Errorf("WaterLevel %v WaterType %v", m.WaterLevel, m.WaterType)
	}
	m = Step(mover(Fly, vec.Vec3{-250, 0, 62}, vec.Vec3{}), 0.1, 800, env)
	if m.WaterLevel != pmove.WaterWaist {
		t.Errorf("WaterLevel = %v, want waist", m.WaterLevel)
	}
	m = Step(mover(Fly, vec.Vec3{0, 0, 62}, vec.Vec3{}), 0.1, 800, env)
	if m.WaterLevel != pmove.WaterNone {
		t.Errorf("WaterLevel = %v out of water", m.WaterLevel)
	}
}

func TestNoPointContents(t *testing.T) {
	env := testEnv(t)
	env.PointContents = nil
	m := Step(mover(Toss, vec.Vec3{-250, 0, 30}, vec.Vec3{}), 0.1, 800, env)
	if m.WaterLevel != pmove.WaterNone || m.WaterType != 0 {
		t.Errorf("WaterLevel %v WaterType %v without PointContents", m.WaterLevel, m.WaterType)
	}
	if !near(m.Origin[2], 22) {
		t.Errorf("Origin = %v, want z 22", m.Origin)
	}
}

func TestUnstick(t *testing.T) {
	env := testEnv(t)
	m := mover(Toss, vec.Vec3{0, 0, 2}, vec.Vec3{})
	got, ok := Unstick(m, vec.Vec3{0, 0, 50}, env)
	if !ok || got.Origin != (vec.Vec3{0, 0, 50}) {
		t.Errorf("Unstick() = %v %v, want old origin", got.Origin, ok)
	}
	got, ok = Unstick(m, vec.Vec3{0, 0, -10}, env)
	if !ok || got.Origin[2] <= 2 || got.Origin[2] > 20 {
		t.Errorf("Unstick() = %v %v, want nudged up", got.Origin, ok)
	}
	free := mover(Toss, vec.Vec3{0, 0, 50}, vec.Vec3{})
	if got, ok := Unstick(free, vec.Vec3{}, env); !ok || got.Origin != free.Origin {
		t.Errorf("Unstick(free) = %v %v", got.Origin, ok)
	}
	deep := mover(Toss, vec.Vec3{0, 0, -28}, vec.Vec3{})
	if got, ok := Unstick(deep, vec.Vec3{0, 0, -28}, env); ok || got.Origin != deep.Origin {
		t.Errorf("Unstick(deep) = %v %v", got.Origin, ok)
	}
}
