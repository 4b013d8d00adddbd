// SPDX-License-Identifier: GPL-2.0-or-later

package pmove

import (
	"testing"

	"qmove/bsp"
	"qmove/math/vec"
)

func TestCategorizeOnGround(t *testing.T) {
	env := testEnv(t, floorBrush)
	s, g := CategorizePosition(NewState(vec.Vec3{0, 0, 24.01}, 800), env)
	if s.Flags&OnGround == 0 {
		t.Errorf("not on ground")
	}
	if s.GroundEntity != 0 {
		t.Errorf("GroundEntity = %v, want 0", s.GroundEntity)
	}
	if g.Plane.Normal != (vec.Vec3{0, 0, 1}) {
		t.Errorf("ground normal = %v", g.Plane.Normal)
	}
	if s.Flags&TimeLand != 0 {
		t.Errorf("TimeLand set without falling")
	}
}

func TestCategorizeInAir(t *testing.T) {
	env := testEnv(t, floorBrush)
	s := standing(vec.Vec3{0, 0, 100})
	s, _ = CategorizePosition(s, env)
	if s.Flags&OnGround != 0 || s.GroundEntity != NoEntity {
		t.Errorf("in air: flags %v ground %v", s.Flags, s.GroundEntity)
	}
}

func TestCategorizeRising(t *testing.T) {
	env := testEnv(t, floorBrush)
	s := standing(vec.Vec3{0, 0, 24.01})
	s.Velocity = vec.Vec3{0, 0, 200}
	s, _ = CategorizePosition(s, env)
	if s.Flags&OnGround != 0 {
		t.Errorf("rising box is on ground")
	}
}

func TestCategorizeLanding(t *testing.T) {
	env := testEnv(t, floorBrush)
	s := NewState(vec.Vec3{0, 0, 24.01}, 800)
	s.Velocity = vec.Vec3{0, 0, -300}
	s, _ = CategorizePosition(s, env)
	if s.Flags&TimeLand == 0 || s.Time != 18 {
		t.Errorf("landing: flags %v time %v", s.Flags, s.Time)
	}
	s = NewState(vec.Vec3{0, 0, 24.01}, 800)
	s.Velocity = vec.Vec3{0, 0, -500}
	s, _ = CategorizePosition(s, env)
	if s.Time != 25 {
		t.Errorf("hard landing: time %v", s.Time)
	}
}

func TestCategorizeWater(t *testing.T) {
	pool := boxBrush{vec.Vec3{-300, -100, 0}, vec.Vec3{-200, 100, 64}, bsp.ContentsWater}
	env := testEnv(t, floorBrush, pool)
	tests := []struct {
		z    float32
		want WaterLevel
	}{
		{24.01, WaterUnder},
		{60, WaterWaist},
		{80, WaterFeet},
		{120, WaterNone},
	}
	for _, tc := range tests {
		s, _ := CategorizePosition(NewState(vec.Vec3{-250, 0, tc.z}, 800), env)
		if s.WaterLevel != tc.want {
			t.Errorf("z %v: WaterLevel = %v, want %v", tc.z, s.WaterLevel, tc.want)
		}
		if tc.want != WaterNone && s.WaterType&bsp.ContentsWater == 0 {
			t.Errorf("z %v: WaterType = %v", tc.z, s.WaterType)
		}
	}
}

func TestDuckRoundTrip(t *testing.T) {
	env := testEnv(t, floorBrush)
	s := standing(vec.Vec3{0, 0, 24.01})
	d, changed := CheckDuck(s, Cmd{Buttons: ButtonCrouch}, env)
	if !changed || d.Flags&Ducked == 0 {
		t.Fatalf("crouch: changed %v flags %v", changed, d.Flags)
	}
	if d.Maxs[2] != 4 || d.ViewHeight != -2 {
		t.Errorf("crouched maxs %v viewheight %v", d.Maxs, d.ViewHeight)
	}
	u, changed := CheckDuck(d, Cmd{}, env)
	if !changed || u.Flags&Ducked != 0 {
		t.Fatalf("stand: changed %v flags %v", changed, u.Flags)
	}
	if u.Mins != s.Mins || u.Maxs != s.Maxs || u.ViewHeight != s.ViewHeight {
		t.Errorf("stand = %v %v %v, want %v %v %v", u.Mins, u.Maxs, u.ViewHeight, s.Mins, s.Maxs, s.ViewHeight)
	}
}

func TestDuckNeedsGround(t *testing.T) {
	env := testEnv(t, floorBrush)
	s := NewState(vec.Vec3{0, 0, 100}, 800)
	d, changed := CheckDuck(s, Cmd{Buttons: ButtonCrouch}, env)
	if changed || d.Flags&Ducked != 0 {
		t.Errorf("crouched in the air")
	}
}

func TestDuckOnLadder(t *testing.T) {
	env := testEnv(t, floorBrush)
	s := NewState(vec.Vec3{0, 0, 100}, 800)
	s.Flags |= OnLadder
	if d, _ := CheckDuck(s, Cmd{UpMove: -200}, env); d.Flags&Ducked == 0 {
		t.Errorf("no crouch on ladder")
	}
}

func TestDuckLowCeiling(t *testing.T) {
	ceiling := boxBrush{vec.Vec3{-64, -64, 40}, vec.Vec3{64, 64, 60}, bsp.ContentsSolid}
	env := testEnv(t, floorBrush, ceiling)
	s := standing(vec.Vec3{0, 0, 24.01})
	d, _ := CheckDuck(s, Cmd{Buttons: ButtonCrouch}, env)
	u, changed := CheckDuck(d, Cmd{}, env)
	if changed || u.Flags&Ducked == 0 {
		t.Errorf("stood up into the ceiling")
	}
}

func TestDuckDead(t *testing.T) {
	env := testEnv(t, floorBrush)
	s := NewState(vec.Vec3{0, 0, 100}, 800)
	s.Type = Gib
	if d, _ := CheckDuck(s, Cmd{}, env); d.Flags&Ducked == 0 || d.Maxs[2] != 4 {
		t.Errorf("gib not ducked: %v", d)
	}
}

func TestDuckN64(t *testing.T) {
	env := testEnv(t, floorBrush)
	env.Config.N64Physics = true
	s := standing(vec.Vec3{0, 0, 24.01})
	d, changed := CheckDuck(s, Cmd{Buttons: ButtonCrouch}, env)
	if changed || d != s {
		t.Errorf("n64 physics changed the state")
	}
}

func TestCheckJump(t *testing.T) {
	s := standing(vec.Vec3{0, 0, 24.01})
	j := CheckJump(s, Cmd{Buttons: ButtonJump})
	if j.Velocity != (vec.Vec3{0, 0, 270}) {
		t.Errorf("Velocity = %v", j.Velocity)
	}
	if j.Flags&JumpHeld == 0 || j.Flags&OnGround != 0 || j.GroundEntity != NoEntity {
		t.Errorf("flags %v ground %v", j.Flags, j.GroundEntity)
	}
}

func TestCheckJumpHeld(t *testing.T) {
	s := standing(vec.Vec3{0, 0, 24.01})
	s.Flags |= JumpHeld
	if j := CheckJump(s, Cmd{Buttons: ButtonJump}); j.Velocity[2] != 0 {
		t.Errorf("jumped while held")
	}
	if j := CheckJump(s, Cmd{}); j.Flags&JumpHeld != 0 {
		t.Errorf("JumpHeld not released")
	}
	s.Flags = OnGround | TimeLand
	if j := CheckJump(s, Cmd{Buttons: ButtonJump}); j.Velocity[2] != 0 {
		t.Errorf("jumped right after landing")
	}
}

func TestCheckJumpWater(t *testing.T) {
	s := NewState(vec.Vec3{0, 0, 24.01}, 800)
	s.WaterLevel = WaterWaist
	tests := []struct {
		contents int
		want     float32
	}{
		{bsp.ContentsWater, 100},
		{bsp.ContentsSlime, 80},
		{bsp.ContentsLava, 50},
	}
	for _, tc := range tests {
		s.WaterType = tc.contents
		if j := CheckJump(s, Cmd{UpMove: 200}); j.Velocity[2] != tc.want {
			t.Errorf("water %v: Velocity = %v, want %v", tc.contents, j.Velocity, tc.want)
		}
	}
}

func TestCheckSpecialMovementLadder(t *testing.T) {
	ladder := boxBrush{vec.Vec3{16.5, -32, 0}, vec.Vec3{24, 32, 200}, bsp.ContentsSolid | bsp.ContentsLadder}
	env := testEnv(t, floorBrush, ladder)
	s := CheckSpecialMovement(NewState(vec.Vec3{0, 0, 50}, 800), Cmd{}, env)
	if s.Flags&OnLadder == 0 {
		t.Errorf("ladder not found")
	}
	s = CheckSpecialMovement(NewState(vec.Vec3{0, 0, 50}, 800), Cmd{Angles: vec.Vec3{0, 180, 0}}, env)
	if s.Flags&OnLadder != 0 {
		t.Errorf("ladder found behind the player")
	}
}

func TestCheckSpecialMovementWaterJump(t *testing.T) {
	pool := boxBrush{vec.Vec3{-256, -256, -32}, vec.Vec3{0, 256, 0}, bsp.ContentsWater}
	ledge := boxBrush{vec.Vec3{0, -256, -32}, vec.Vec3{256, 256, 16}, bsp.ContentsSolid}
	bottom := boxBrush{vec.Vec3{-256, -256, -128}, vec.Vec3{0, 256, -32}, bsp.ContentsSolid}
	env := testEnv(t, pool, ledge, bottom)
	s := NewState(vec.Vec3{-20, 0, 0}, 800)
	s.WaterLevel = WaterWaist
	s = CheckSpecialMovement(s, Cmd{}, env)
	if s.Flags&TimeWaterJump == 0 || s.Time != 255 {
		t.Fatalf("no water jump: flags %v time %v", s.Flags, s.Time)
	}
	if !near(s.Velocity[0], 50) || s.Velocity[2] != 350 {
		t.Errorf("Velocity = %v", s.Velocity)
	}
}
