// SPDX-License-Identifier: GPL-2.0-or-later

package world

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"qmove/bsp"
	"qmove/math/vec"
	"qmove/pmove"
)

var (
	worldMins  = vec.Vec3{-512, -512, -32}
	worldMaxs  = vec.Vec3{512, 512, 256}
	playerMins = vec.Vec3{-16, -16, -24}
	playerMaxs = vec.Vec3{16, 16, 32}
)

// testWorld is a floor and a wall at x 200, submodel 1 is a door.
func testWorld(t *testing.T) *bsp.Model {
	t.Helper()
	var b bsp.Builder
	floor := b.BoxBrush(vec.Vec3{-512, -512, -32}, vec.Vec3{512, 512, 0}, bsp.ContentsSolid, 0)
	wall := b.BoxBrush(vec.Vec3{200, -512, 0}, vec.Vec3{232, 512, 256}, bsp.ContentsSolid, 0)
	head := b.BuildAxialTree([]int{floor, wall})
	b.SubModel(worldMins, worldMaxs, vec.Vec3{}, head)
	door := b.BoxBrush(vec.Vec3{-8, -32, 0}, vec.Vec3{8, 32, 64}, bsp.ContentsSolid, 0)
	b.SubModel(vec.Vec3{-8, -32, 0}, vec.Vec3{8, 32, 64}, vec.Vec3{}, b.Leaf(door))
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	return m
}

func crate(id int, origin vec.Vec3) Volume {
	return Volume{
		ID:       id,
		Origin:   origin,
		Mins:     vec.Vec3{-8, -8, -8},
		Maxs:     vec.Vec3{8, 8, 8},
		Contents: bsp.ContentsSolid,
	}
}

func near(a, b float32) bool {
	return math32.Abs(a-b) < 0.001
}

func TestLinkErrors(t *testing.T) {
	x := NewIndex(worldMins, worldMaxs)
	if err := x.Link(crate(1, vec.Vec3{})); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	if err := x.Link(crate(1, vec.Vec3{})); !errors.Is(err, ErrAlreadyLinked) {
		t.Errorf("duplicate Link() = %v", err)
	}
	if err := x.Link(crate(0, vec.Vec3{})); !errors.Is(err, ErrInvalidVolume) {
		t.Errorf("Link(world) = %v", err)
	}
	bad := crate(2, vec.Vec3{})
	bad.Mins[2] = 20
	if err := x.Link(bad); !errors.Is(err, ErrInvalidVolume) {
		t.Errorf("Link(mins > maxs) = %v", err)
	}
	bad = crate(3, vec.Vec3{math32.NaN(), 0, 0})
	if err := x.Link(bad); !errors.Is(err, ErrInvalidVolume) {
		t.Errorf("Link(NaN) = %v", err)
	}
	if err := x.Unlink(42); !errors.Is(err, ErrNotLinked) {
		t.Errorf("Unlink(42) = %v", err)
	}
	if err := x.Relink(crate(42, vec.Vec3{})); !errors.Is(err, ErrNotLinked) {
		t.Errorf("Relink(42) = %v", err)
	}
	if x.Len() != 1 {
		t.Errorf("Len() = %v, want 1", x.Len())
	}
	if _, ok := x.Volume(1); !ok {
		t.Errorf("entity 1 lost after failing calls")
	}
}

func TestBadUnlinkKeepsIndex(t *testing.T) {
	m := testWorld(t)
	x := NewIndex(worldMins, worldMaxs)
	if err := x.Link(crate(5, vec.Vec3{100, 0, 40})); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	x.Unlink(6)
	x.Unlink(5)
	x.Unlink(5)
	if err := x.Link(crate(5, vec.Vec3{100, 0, 40})); err != nil {
		t.Fatalf("Link() after Unlink = %v", err)
	}
	tr := x.Trace(m, vec.Vec3{0, 0, 40}, vec.Vec3{}, vec.Vec3{}, vec.Vec3{400, 0, 40}, WorldHead(m), bsp.MaskSolid, NoEntity)
	if tr.EntNumber != 5 {
		t.Errorf("EntNumber = %v, want 5", tr.EntNumber)
	}
}

func TestEntityBeforeWorld(t *testing.T) {
	m := testWorld(t)
	head := WorldHead(m)
	x := NewIndex(worldMins, worldMaxs)
	start, end := vec.Vec3{0, 0, 40}, vec.Vec3{400, 0, 40}

	world := x.Trace(m, start, vec.Vec3{}, vec.Vec3{}, end, head, bsp.MaskSolid, NoEntity)
	if !near(world.Fraction, (200-bsp.DistEpsilon)/400) || world.EntNumber != 0 {
		t.Fatalf("world trace = %+v", world)
	}

	if err := x.Link(crate(5, vec.Vec3{100, 0, 40})); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	hit := x.Trace(m, start, vec.Vec3{}, vec.Vec3{}, end, head, bsp.MaskSolid, NoEntity)
	if hit.Fraction >= world.Fraction {
		t.Errorf("entity did not shorten the trace: %v >= %v", hit.Fraction, world.Fraction)
	}
	if !hit.EntPointer || hit.EntNumber != 5 {
		t.Errorf("EntNumber = %v, want 5", hit.EntNumber)
	}
	if !near(hit.EndPos[0], 92-bsp.DistEpsilon) {
		t.Errorf("EndPos = %v", hit.EndPos)
	}

	passed := x.Trace(m, start, vec.Vec3{}, vec.Vec3{}, end, head, bsp.MaskSolid, 5)
	if passed != world {
		t.Errorf("pass trace = %+v, want %+v", passed, world)
	}
	if err := x.Unlink(5); err != nil {
		t.Fatalf("Unlink() = %v", err)
	}
	unlinked := x.Trace(m, start, vec.Vec3{}, vec.Vec3{}, end, head, bsp.MaskSolid, NoEntity)
	if unlinked != passed {
		t.Errorf("unlinked trace = %+v, want %+v", unlinked, passed)
	}
}

func TestMaskGating(t *testing.T) {
	m := testWorld(t)
	head := WorldHead(m)
	x := NewIndex(worldMins, worldMaxs)
	monster := crate(5, vec.Vec3{100, 0, 40})
	monster.Contents = bsp.ContentsMonster
	if err := x.Link(monster); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	start, end := vec.Vec3{0, 0, 40}, vec.Vec3{400, 0, 40}
	if tr := x.Trace(m, start, vec.Vec3{}, vec.Vec3{}, end, head, bsp.MaskSolid, NoEntity); tr.EntNumber != 0 {
		t.Errorf("MaskSolid hit entity %v", tr.EntNumber)
	}
	if tr := x.Trace(m, start, vec.Vec3{}, vec.Vec3{}, end, head, bsp.MaskShot, NoEntity); tr.EntNumber != 5 {
		t.Errorf("MaskShot hit entity %v, want 5", tr.EntNumber)
	}
}

func TestTriggers(t *testing.T) {
	m := testWorld(t)
	head := WorldHead(m)
	x := NewIndex(worldMins, worldMaxs)
	trigger := Volume{
		ID:       7,
		Origin:   vec.Vec3{100, 0, 40},
		Mins:     vec.Vec3{-32, -32, -32},
		Maxs:     vec.Vec3{32, 32, 32},
		Contents: bsp.ContentsTrigger,
	}
	if err := x.Link(trigger); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	if err := x.Link(crate(8, vec.Vec3{100, 0, 40})); err != nil {
		t.Fatalf("Link() = %v", err)
	}

	got := x.TriggerTouches(vec.Vec3{60, 0, 40}, playerMins, playerMaxs)
	if len(got) != 1 || got[0] != 7 {
		t.Errorf("TriggerTouches = %v, want [7]", got)
	}
	if got := x.TriggerTouches(vec.Vec3{-100, 0, 40}, playerMins, playerMaxs); len(got) != 0 {
		t.Errorf("TriggerTouches far away = %v", got)
	}
	// trigger spans x 68..132
	if got := x.TriggerTouches(vec.Vec3{148.5, 0, 40}, playerMins, playerMaxs); len(got) != 0 {
		t.Errorf("TriggerTouches half a unit away = %v", got)
	}
	if got := x.TriggerTouches(vec.Vec3{148, 0, 40}, playerMins, playerMaxs); len(got) != 1 || got[0] != 7 {
		t.Errorf("TriggerTouches touching = %v, want [7]", got)
	}

	start, end := vec.Vec3{0, 0, 60}, vec.Vec3{400, 0, 60}
	if tr := x.Trace(m, start, vec.Vec3{}, vec.Vec3{}, end, head, bsp.MaskPlayerSolid, NoEntity); tr.EntNumber != 0 {
		t.Errorf("trigger blocked a solid trace: %v", tr.EntNumber)
	}
	tr := x.Trace(m, start, vec.Vec3{}, vec.Vec3{}, end, head, bsp.MaskPlayerSolid|bsp.ContentsTrigger, NoEntity)
	if tr.EntNumber != 7 {
		t.Errorf("trigger trace hit %v, want 7", tr.EntNumber)
	}
	if c := x.PointContents(m, vec.Vec3{100, 0, 65}, head); c != 0 {
		t.Errorf("PointContents in trigger = %v", c)
	}
}

func TestWaterTrigger(t *testing.T) {
	m := testWorld(t)
	head := WorldHead(m)
	x := NewIndex(worldMins, worldMaxs)
	if err := x.Link(Volume{
		ID:       7,
		Origin:   vec.Vec3{100, 0, 40},
		Mins:     vec.Vec3{-32, -32, -32},
		Maxs:     vec.Vec3{32, 32, 32},
		Contents: bsp.ContentsTrigger | bsp.ContentsWater,
	}); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	start, end := vec.Vec3{0, 0, 60}, vec.Vec3{400, 0, 60}
	if tr := x.Trace(m, start, vec.Vec3{}, vec.Vec3{}, end, head, bsp.MaskWater, NoEntity); tr.EntNumber != 7 {
		t.Errorf("MaskWater trace hit %v, want 7", tr.EntNumber)
	}
	if tr := x.Trace(m, start, vec.Vec3{}, vec.Vec3{}, end, head, bsp.MaskSolid, NoEntity); tr.EntNumber != 0 {
		t.Errorf("MaskSolid trace hit %v, want 0", tr.EntNumber)
	}
	if got := x.TriggerTouches(vec.Vec3{100, 0, 40}, playerMins, playerMaxs); len(got) != 1 || got[0] != 7 {
		t.Errorf("TriggerTouches = %v, want [7]", got)
	}
}

func TestStartInsideEntity(t *testing.T) {
	m := testWorld(t)
	x := NewIndex(worldMins, worldMaxs)
	if err := x.Link(crate(5, vec.Vec3{100, 0, 40})); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	tr := x.Trace(m, vec.Vec3{100, 0, 40}, vec.Vec3{}, vec.Vec3{}, vec.Vec3{100, 0, 100}, WorldHead(m), bsp.MaskSolid, NoEntity)
	if !tr.StartSolid || tr.EntNumber != 5 {
		t.Errorf("StartSolid %v EntNumber %v", tr.StartSolid, tr.EntNumber)
	}
	if !x.TestPosition(m, WorldHead(m), Volume{ID: 9, Origin: vec.Vec3{100, 0, 40}}, bsp.MaskSolid) {
		t.Errorf("TestPosition inside the crate = false")
	}
	if x.TestPosition(m, WorldHead(m), crate(5, vec.Vec3{100, 0, 40}), bsp.MaskSolid) {
		t.Errorf("TestPosition of the crate itself = true")
	}
}

func TestOwner(t *testing.T) {
	m := testWorld(t)
	head := WorldHead(m)
	x := NewIndex(worldMins, worldMaxs)
	shooter := crate(3, vec.Vec3{0, 0, 40})
	missile := crate(9, vec.Vec3{100, 0, 40})
	missile.Owner = 3
	for _, v := range []Volume{shooter, missile} {
		if err := x.Link(v); err != nil {
			t.Fatalf("Link() = %v", err)
		}
	}
	if tr := x.Trace(m, vec.Vec3{20, 0, 40}, vec.Vec3{}, vec.Vec3{}, vec.Vec3{150, 0, 40}, head, bsp.MaskSolid, 3); tr.Fraction != 1 {
		t.Errorf("owner hit its missile: %+v", tr)
	}
	if tr := x.Trace(m, vec.Vec3{80, 0, 40}, vec.Vec3{}, vec.Vec3{}, vec.Vec3{-50, 0, 40}, head, bsp.MaskSolid, 9); tr.Fraction != 1 {
		t.Errorf("missile hit its owner: %+v", tr)
	}
	if tr := x.Trace(m, vec.Vec3{80, 0, 40}, vec.Vec3{}, vec.Vec3{}, vec.Vec3{-50, 0, 40}, head, bsp.MaskSolid, NoEntity); tr.EntNumber != 3 {
		t.Errorf("trace without pass hit %v, want 3", tr.EntNumber)
	}
}

func TestRelink(t *testing.T) {
	m := testWorld(t)
	head := WorldHead(m)
	x := NewIndex(worldMins, worldMaxs)
	if err := x.Link(crate(5, vec.Vec3{100, 0, 40})); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	if err := x.Relink(crate(5, vec.Vec3{-300, 300, 40})); err != nil {
		t.Fatalf("Relink() = %v", err)
	}
	if tr := x.Trace(m, vec.Vec3{0, 0, 40}, vec.Vec3{}, vec.Vec3{}, vec.Vec3{400, 0, 40}, head, bsp.MaskSolid, NoEntity); tr.EntNumber != 0 {
		t.Errorf("old position still blocks: %v", tr.EntNumber)
	}
	if c := x.PointContents(m, vec.Vec3{-300, 300, 40}, head); c != bsp.ContentsSolid {
		t.Errorf("PointContents at new position = %v", c)
	}
}

func TestSubModelEntity(t *testing.T) {
	m := testWorld(t)
	x := NewIndex(worldMins, worldMaxs)
	door := Volume{
		ID:       4,
		Origin:   vec.Vec3{100, 0, 0},
		Mins:     vec.Vec3{-8, -32, 0},
		Maxs:     vec.Vec3{8, 32, 64},
		Contents: bsp.ContentsSolid,
		SubModel: 1,
	}
	if err := x.Link(door); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	tr := x.Trace(m, vec.Vec3{0, 0, 40}, vec.Vec3{}, vec.Vec3{}, vec.Vec3{400, 0, 40}, WorldHead(m), bsp.MaskSolid, NoEntity)
	if tr.EntNumber != 4 || !near(tr.EndPos[0], 92-bsp.DistEpsilon) {
		t.Errorf("door trace = %+v", tr)
	}
	if c := x.PointContents(m, vec.Vec3{100, 0, 10}, WorldHead(m)); c != bsp.ContentsSolid {
		t.Errorf("PointContents in door = %v", c)
	}
}

func TestEnvTouches(t *testing.T) {
	m := testWorld(t)
	x := NewIndex(worldMins, worldMaxs)
	box := Volume{
		ID:       12,
		Origin:   vec.Vec3{60, 0, 0},
		Mins:     vec.Vec3{-16, -16, 0},
		Maxs:     vec.Vec3{16, 16, 64},
		Contents: bsp.ContentsSolid,
	}
	if err := x.Link(box); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	player := pmove.NewState(vec.Vec3{0, 0, 24.01}, 800)
	if err := x.Link(Volume{ID: 1, Origin: player.Origin, Mins: player.Mins, Maxs: player.Maxs, Contents: bsp.ContentsPlayer}); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	env := x.Env(m, 1, bsp.MaskPlayerSolid, pmove.DefaultConfig())
	player.Velocity = vec.Vec3{300, 0, 0}
	r, err := pmove.Run(player, pmove.Cmd{Msec: 100, ForwardMove: 400}, env)
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if len(r.Touched) != 1 || r.Touched[0] != 12 {
		t.Errorf("Touched = %v, want [12]", r.Touched)
	}
	if r.State.Origin[0] > 28 {
		t.Errorf("walked into the box: %v", r.State.Origin)
	}
}

func TestCheckBottom(t *testing.T) {
	var b bsp.Builder
	ledge := b.BoxBrush(vec.Vec3{-512, -512, -32}, vec.Vec3{0, 512, 0}, bsp.ContentsSolid, 0)
	head := b.BuildAxialTree([]int{ledge})
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	x := NewIndex(worldMins, worldMaxs)
	monster := Volume{ID: 2, Origin: vec.Vec3{-100, 0, 24}, Mins: playerMins, Maxs: playerMaxs, Contents: bsp.ContentsMonster}
	if !x.CheckBottom(m, head, monster, 18) {
		t.Errorf("CheckBottom on solid ground = false")
	}
	monster.Origin = vec.Vec3{10, 0, 24}
	if x.CheckBottom(m, head, monster, 18) {
		t.Errorf("CheckBottom over the edge = true")
	}
}
