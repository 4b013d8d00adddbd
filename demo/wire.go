// SPDX-License-Identifier: GPL-2.0-or-later

package demo

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"qmove/math/vec"
	"qmove/pmove"
)

// Deterministic, so equal messages always give equal bytes.
var marshalOptions = proto.MarshalOptions{Deterministic: true}

func marshal(m protoreflect.ProtoMessage) []byte {
	b, err := marshalOptions.Marshal(m)
	if err != nil {
		// no required or string fields, nothing can fail
		panic(err)
	}
	return b
}

func unmarshal(b []byte, d protoreflect.MessageDescriptor) (*dynamicpb.Message, error) {
	m := dynamicpb.NewMessage(d)
	if err := proto.Unmarshal(b, m); err != nil {
		return nil, errors.Wrap(ErrBadRecording, err.Error())
	}
	return m, nil
}

func fieldOf(m protoreflect.Message, num protoreflect.FieldNumber) protoreflect.FieldDescriptor {
	return m.Descriptor().Fields().ByNumber(num)
}

func set(m protoreflect.Message, num protoreflect.FieldNumber, v protoreflect.Value) {
	m.Set(fieldOf(m, num), v)
}

// setVec writes v as a packed repeated float.
func setVec(m protoreflect.Message, num protoreflect.FieldNumber, v vec.Vec3) {
	l := m.Mutable(fieldOf(m, num)).List()
	for i := 0; i < 3; i++ {
		l.Append(protoreflect.ValueOfFloat32(v[i]))
	}
}

func stateMessage(s pmove.State) *dynamicpb.Message {
	m := dynamicpb.NewMessage(stateMsg)
	set(m, stateType, protoreflect.ValueOfUint32(uint32(s.Type)))
	setVec(m, stateOrigin, s.Origin)
	setVec(m, stateVelocity, s.Velocity)
	setVec(m, stateMins, s.Mins)
	setVec(m, stateMaxs, s.Maxs)
	set(m, stateFlags, protoreflect.ValueOfUint32(uint32(s.Flags)))
	set(m, stateTime, protoreflect.ValueOfUint32(uint32(s.Time)))
	set(m, stateGravity, protoreflect.ValueOfFloat32(s.Gravity))
	set(m, stateViewHeight, protoreflect.ValueOfFloat32(s.ViewHeight))
	set(m, stateWaterLevel, protoreflect.ValueOfUint32(uint32(s.WaterLevel)))
	set(m, stateWaterType, protoreflect.ValueOfInt32(int32(s.WaterType)))
	set(m, stateGroundEntity, protoreflect.ValueOfInt32(int32(s.GroundEntity)))
	return m
}

func cmdMessage(c pmove.Cmd) *dynamicpb.Message {
	m := dynamicpb.NewMessage(cmdMsg)
	set(m, cmdMsec, protoreflect.ValueOfUint32(uint32(c.Msec)))
	set(m, cmdButtons, protoreflect.ValueOfUint32(uint32(c.Buttons)))
	setVec(m, cmdAngles, c.Angles)
	set(m, cmdForward, protoreflect.ValueOfFloat32(c.ForwardMove))
	set(m, cmdSide, protoreflect.ValueOfFloat32(c.SideMove))
	set(m, cmdUp, protoreflect.ValueOfFloat32(c.UpMove))
	return m
}

// EncodeState returns the wire form of s. Equal states give equal bytes.
func EncodeState(s pmove.State) []byte {
	return marshal(stateMessage(s))
}

func EncodeCmd(c pmove.Cmd) []byte {
	return marshal(cmdMessage(c))
}

// reader pulls typed values out of a decoded message and keeps the first
// error.
type reader struct {
	m   protoreflect.Message
	err error
}

func (r *reader) get(num protoreflect.FieldNumber) protoreflect.Value {
	return r.m.Get(fieldOf(r.m, num))
}

func (r *reader) uint(num protoreflect.FieldNumber) uint64 {
	return r.get(num).Uint()
}

func (r *reader) int(num protoreflect.FieldNumber) int {
	return int(r.get(num).Int())
}

func (r *reader) float(num protoreflect.FieldNumber) float32 {
	return float32(r.get(num).Float())
}

// vec accepts an absent field as the zero vector.
func (r *reader) vec(num protoreflect.FieldNumber) vec.Vec3 {
	var v vec.Vec3
	l := r.get(num).List()
	switch l.Len() {
	case 0:
	case 3:
		for i := 0; i < 3; i++ {
			v[i] = float32(l.Get(i).Float())
		}
	default:
		if r.err == nil {
			r.err = errors.Wrapf(ErrBadRecording, "vector of %d floats", l.Len())
		}
	}
	return v
}

func readState(m protoreflect.Message) (pmove.State, error) {
	r := reader{m: m}
	s := pmove.State{
		Type:         pmove.PmType(r.uint(stateType)),
		Origin:       r.vec(stateOrigin),
		Velocity:     r.vec(stateVelocity),
		Mins:         r.vec(stateMins),
		Maxs:         r.vec(stateMaxs),
		Flags:        pmove.Flags(r.uint(stateFlags)),
		Time:         uint16(r.uint(stateTime)),
		Gravity:      r.float(stateGravity),
		ViewHeight:   r.float(stateViewHeight),
		WaterLevel:   pmove.WaterLevel(r.uint(stateWaterLevel)),
		WaterType:    r.int(stateWaterType),
		GroundEntity: r.int(stateGroundEntity),
	}
	return s, r.err
}

func readCmd(m protoreflect.Message) (pmove.Cmd, error) {
	r := reader{m: m}
	c := pmove.Cmd{
		Msec:        uint8(r.uint(cmdMsec)),
		Buttons:     pmove.Buttons(r.uint(cmdButtons)),
		Angles:      r.vec(cmdAngles),
		ForwardMove: r.float(cmdForward),
		SideMove:    r.float(cmdSide),
		UpMove:      r.float(cmdUp),
	}
	return c, r.err
}

// DecodeState is the inverse of EncodeState. Unknown fields are skipped.
func DecodeState(b []byte) (pmove.State, error) {
	m, err := unmarshal(b, stateMsg)
	if err != nil {
		return pmove.State{}, err
	}
	return readState(m)
}

func DecodeCmd(b []byte) (pmove.Cmd, error) {
	m, err := unmarshal(b, cmdMsg)
	if err != nil {
		return pmove.Cmd{}, err
	}
	return readCmd(m)
}
