// SPDX-License-Identifier: GPL-2.0-or-later

// Package demo records player movement and replays it. A recording holds
// the start state and, per frame, the command together with the hash of
// the state it produced. Replaying on the same world must give the same
// hashes.
package demo

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"qmove/conlog"
	"qmove/pmove"
)

var (
	ErrDivergence   = errors.New("replay diverged")
	ErrBadRecording = errors.New("bad recording")
)

const formatVersion = 1

// HashState hashes the canonical encoding of s.
func HashState(s pmove.State) uint64 {
	return xxh3.Hash(EncodeState(s))
}

type Frame struct {
	Cmd  pmove.Cmd
	Hash uint64
}

type Recording struct {
	ID      uuid.UUID
	Initial pmove.State
	Frames  []Frame
}

type Recorder struct {
	rec   Recording
	state pmove.State
}

func NewRecorder(initial pmove.State) *Recorder {
	return &Recorder{
		rec: Recording{
			ID:      uuid.Must(uuid.NewV7()),
			Initial: initial,
		},
		state: initial,
	}
}

// Record appends a frame. next must be the state cmd produced.
func (r *Recorder) Record(cmd pmove.Cmd, next pmove.State) {
	r.rec.Frames = append(r.rec.Frames, Frame{Cmd: cmd, Hash: HashState(next)})
	r.state = next
}

// Step runs cmd from the current state and records the result.
func (r *Recorder) Step(cmd pmove.Cmd, env pmove.Env) (pmove.Result, error) {
	res, err := pmove.Run(r.state, cmd, env)
	if err != nil {
		return res, err
	}
	r.Record(cmd, res.State)
	return res, nil
}

// State is the state after the last recorded frame.
func (r *Recorder) State() pmove.State {
	return r.state
}

// Recording returns a copy of what was recorded so far.
func (r *Recorder) Recording() Recording {
	rec := r.rec
	rec.Frames = append([]Frame(nil), r.rec.Frames...)
	return rec
}

// Replay runs the recording against env and returns the final state. It
// stops at the first frame whose state hash differs from the recorded one.
func Replay(rec Recording, env pmove.Env) (pmove.State, error) {
	s := rec.Initial
	for i, f := range rec.Frames {
		res, err := pmove.Run(s, f.Cmd, env)
		if err != nil {
			return s, errors.Wrapf(err, "frame %d", i)
		}
		if h := HashState(res.State); h != f.Hash {
			conlog.Warnf("demo %v: frame %d hash %x, recorded %x", rec.ID, i, h, f.Hash)
			return res.State, errors.Wrapf(ErrDivergence, "frame %d", i)
		}
		s = res.State
	}
	return s, nil
}

func (rec Recording) MarshalBinary() ([]byte, error) {
	m := dynamicpb.NewMessage(recordingMsg)
	set(m, recVersion, protoreflect.ValueOfUint32(formatVersion))
	set(m, recID, protoreflect.ValueOfBytes(rec.ID[:]))
	set(m, recInitial, protoreflect.ValueOfMessage(stateMessage(rec.Initial)))
	frames := m.Mutable(fieldOf(m, recFrames)).List()
	for _, f := range rec.Frames {
		fm := dynamicpb.NewMessage(frameMsg)
		set(fm, frameCmd, protoreflect.ValueOfMessage(cmdMessage(f.Cmd)))
		set(fm, frameHash, protoreflect.ValueOfUint64(f.Hash))
		frames.Append(protoreflect.ValueOfMessage(fm))
	}
	return marshalOptions.Marshal(m)
}

func (rec *Recording) UnmarshalBinary(b []byte) error {
	m, err := unmarshal(b, recordingMsg)
	if err != nil {
		return err
	}
	r := reader{m: m}
	if v := r.uint(recVersion); v != formatVersion {
		return errors.Wrapf(ErrBadRecording, "version %d", v)
	}
	id, err := uuid.FromBytes(r.get(recID).Bytes())
	if err != nil {
		return errors.Wrap(ErrBadRecording, err.Error())
	}
	initial, err := readState(r.get(recInitial).Message())
	if err != nil {
		return errors.Wrap(err, "initial state")
	}
	out := Recording{ID: id, Initial: initial}
	frames := r.get(recFrames).List()
	for i := 0; i < frames.Len(); i++ {
		fr := reader{m: frames.Get(i).Message()}
		c, err := readCmd(fr.get(frameCmd).Message())
		if err != nil {
			return errors.Wrapf(err, "frame %d", i)
		}
		out.Frames = append(out.Frames, Frame{Cmd: c, Hash: fr.uint(frameHash)})
	}
	*rec = out
	return nil
}
