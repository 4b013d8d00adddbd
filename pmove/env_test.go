// SPDX-License-Identifier: GPL-2.0-or-later

package pmove

import (
	"testing"

	"github.com/chewxy/math32"

	"qmove/bsp"
	"qmove/math/vec"
)

type boxBrush struct {
	mins, maxs vec.Vec3
	contents   int
}

var floorBrush = boxBrush{vec.Vec3{-512, -512, -32}, vec.Vec3{512, 512, 0}, bsp.ContentsSolid}

func testEnv(t *testing.T, brushes ...boxBrush) Env {
	t.Helper()
	var b bsp.Builder
	var ids []int
	for _, br := range brushes {
		ids = append(ids, b.BoxBrush(br.mins, br.maxs, br.contents, 0))
	}
	head := b.BuildAxialTree(ids)
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	return Env{
		Trace: func(start, mins, maxs, end vec.Vec3) bsp.Trace {
			tr := m.BoxTrace(start, end, mins, maxs, head, bsp.MaskPlayerSolid)
			if tr.Hit() {
				tr.EntPointer = true
			}
			return tr
		},
		PointContents: func(p vec.Vec3) int {
			return m.PointContents(p, head)
		},
		Config: DefaultConfig(),
	}
}

func near(a, b float32) bool {
	return math32.Abs(a-b) < 0.01
}

func standing(origin vec.Vec3) State {
	s := NewState(origin, 800)
	s.Flags |= OnGround
	s.GroundEntity = 0
	return s
}
