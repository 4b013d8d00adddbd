// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"qmove/bsp"
	"qmove/commandline"
	"qmove/conlog"
	"qmove/cvar"
	"qmove/cvars"
	"qmove/demo"
	"qmove/math/vec"
	"qmove/physics"
	"qmove/pmove"
	"qmove/rand"
	"qmove/world"
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		conlog.Warnf("%v", err)
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if commandline.Debug() || cvars.Developer.Bool() {
		level = slog.LevelDebug
	}
	conlog.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func configure() error {
	if commandline.Debug() {
		cvars.Developer.SetValue(float32(commandline.DebugLevel()))
	}
	if f := commandline.ConfigFile(); f != "" {
		r, err := os.Open(f)
		if err != nil {
			return err
		}
		defer r.Close()
		if err := cvar.Load(r); err != nil {
			return errors.Wrap(err, f)
		}
	}
	for _, kv := range commandline.Sets() {
		cvar.Set(kv[0], kv[1])
	}
	return nil
}

func run() error {
	if err := configure(); err != nil {
		return err
	}
	setupLogging()
	conlog.DPrintf("serverinfo %s", cvar.InfoString())
	if commandline.Frames() <= 0 || commandline.Msec() <= 0 || commandline.Msec() > 255 {
		return fmt.Errorf("bad -frames %d or -msec %d", commandline.Frames(), commandline.Msec())
	}

	l, err := buildLevel()
	if err != nil {
		return err
	}
	cfg := cvars.PmoveConfig()
	gravity := cvars.ServerGravity.Value()

	if err := l.settleCrate(gravity, cfg); err != nil {
		return err
	}

	start := pmove.NewState(vec.Vec3{0, 0, 24.03125}, gravity)
	player := world.Volume{ID: playerID, Origin: start.Origin, Mins: start.Mins, Maxs: start.Maxs, Contents: bsp.ContentsPlayer}
	if err := l.index.Link(player); err != nil {
		return err
	}
	env := l.index.Env(l.model, playerID, bsp.MaskPlayerSolid, cfg)

	rec := demo.NewRecorder(start)
	jitter := rand.New(commandline.Seed())
	var triggers []int
	for i := 0; i < commandline.Frames(); i++ {
		res, err := rec.Step(script(i, commandline.Msec(), jitter), env)
		if err != nil {
			return errors.Wrapf(err, "frame %d", i)
		}
		s := res.State
		for _, e := range res.Touched {
			conlog.DPrintf("frame %d: touched %d", i, e)
		}
		player.Origin, player.Mins, player.Maxs = s.Origin, s.Mins, s.Maxs
		if err := l.index.Relink(player); err != nil {
			return err
		}
		t := l.index.TriggerTouches(s.Origin, s.Mins, s.Maxs)
		if len(t) != len(triggers) {
			conlog.DPrintf("frame %d: triggers %v", i, t)
		}
		triggers = t
	}

	recording := rec.Recording()
	b, err := recording.MarshalBinary()
	if err != nil {
		return err
	}
	if out := commandline.Out(); out != "" {
		if err := os.WriteFile(out, b, 0o644); err != nil {
			return err
		}
		if b, err = os.ReadFile(out); err != nil {
			return err
		}
	}

	var loaded demo.Recording
	if err := loaded.UnmarshalBinary(b); err != nil {
		return err
	}
	final, err := demo.Replay(loaded, env)
	if err != nil {
		return err
	}
	conlog.Printf("demo %v: %d frames, %d bytes, final origin %v hash %016x",
		loaded.ID, len(loaded.Frames), len(b), final.Origin, demo.HashState(final))
	return nil
}

// settleCrate drops the crate until it rests so the world is static while
// the player moves.
func (l *level) settleCrate(gravity float32, cfg pmove.Config) error {
	env := l.index.Env(l.model, crateID, bsp.MaskSolid, cfg)
	dt := cvars.ServerPhysicsStep.Value()
	for i := 0; i < 100 && !l.crate.OnGround; i++ {
		l.crate = physics.Step(l.crate, dt, gravity, env)
		if err := l.index.Relink(l.crateVolume()); err != nil {
			return err
		}
	}
	if !l.crate.OnGround {
		return errors.New("crate did not come to rest")
	}
	conlog.DPrintf("crate rests at %v", l.crate.Origin)
	return nil
}

// script walks to the step, jumps, turns around and swims through the
// pool. g adds some sideways wobble.
func script(frame, msec int, g *rand.Generator) pmove.Cmd {
	c := pmove.Cmd{
		Msec:        uint8(msec),
		ForwardMove: 400,
		SideMove:    g.Range(-50, 50),
	}
	switch {
	case frame < 120:
	case frame < 140:
		c.Angles[1] = 9 * float32(frame-120)
	default:
		c.Angles[1] = 180
	}
	if frame%60 == 30 {
		c.Buttons |= pmove.ButtonJump
	}
	if frame > 300 && frame%10 < 5 {
		c.UpMove = 200
	}
	return c
}
