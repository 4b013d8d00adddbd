// SPDX-License-Identifier: GPL-2.0-or-later

package demo

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// The recording messages, in .proto terms:
//
//	message State {
//	  uint32 type = 1;
//	  repeated float origin = 2;
//	  repeated float velocity = 3;
//	  repeated float mins = 4;
//	  repeated float maxs = 5;
//	  uint32 flags = 6;
//	  uint32 time = 7;
//	  float gravity = 8;
//	  float view_height = 9;
//	  uint32 water_level = 10;
//	  sint32 water_type = 11;
//	  sint32 ground_entity = 12;
//	}
//	message Cmd {
//	  uint32 msec = 1;
//	  uint32 buttons = 2;
//	  repeated float angles = 3;
//	  float forward_move = 4;
//	  float side_move = 5;
//	  float up_move = 6;
//	}
//	message Frame {
//	  Cmd cmd = 1;
//	  fixed64 hash = 2;
//	}
//	message Recording {
//	  uint32 version = 1;
//	  bytes id = 2;
//	  State initial = 3;
//	  repeated Frame frames = 4;
//	}

const (
	stateType protoreflect.FieldNumber = iota + 1
	stateOrigin
	stateVelocity
	stateMins
	stateMaxs
	stateFlags
	stateTime
	stateGravity
	stateViewHeight
	stateWaterLevel
	stateWaterType
	stateGroundEntity
)

const (
	cmdMsec protoreflect.FieldNumber = iota + 1
	cmdButtons
	cmdAngles
	cmdForward
	cmdSide
	cmdUp
)

const (
	frameCmd protoreflect.FieldNumber = iota + 1
	frameHash
)

const (
	recVersion protoreflect.FieldNumber = iota + 1
	recID
	recInitial
	recFrames
)

var (
	stateMsg     protoreflect.MessageDescriptor
	cmdMsg       protoreflect.MessageDescriptor
	frameMsg     protoreflect.MessageDescriptor
	recordingMsg protoreflect.MessageDescriptor
)

type fieldType = descriptorpb.FieldDescriptorProto_Type

const (
	tUint32  = descriptorpb.FieldDescriptorProto_TYPE_UINT32
	tSint32  = descriptorpb.FieldDescriptorProto_TYPE_SINT32
	tFloat   = descriptorpb.FieldDescriptorProto_TYPE_FLOAT
	tFixed64 = descriptorpb.FieldDescriptorProto_TYPE_FIXED64
	tBytes   = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
)

func field(name string, num protoreflect.FieldNumber, typ fieldType) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(int32(num)),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

func repeated(f *descriptorpb.FieldDescriptorProto) *descriptorpb.FieldDescriptorProto {
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

func ofType(f *descriptorpb.FieldDescriptorProto, msg string) *descriptorpb.FieldDescriptorProto {
	f.TypeName = proto.String(".qmove.demo." + msg)
	return f
}

func messageType(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

func init() {
	file := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("qmove/demo.proto"),
		Package: proto.String("qmove.demo"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			messageType("State",
				field("type", stateType, tUint32),
				repeated(field("origin", stateOrigin, tFloat)),
				repeated(field("velocity", stateVelocity, tFloat)),
				repeated(field("mins", stateMins, tFloat)),
				repeated(field("maxs", stateMaxs, tFloat)),
				field("flags", stateFlags, tUint32),
				field("time", stateTime, tUint32),
				field("gravity", stateGravity, tFloat),
				field("view_height", stateViewHeight, tFloat),
				field("water_level", stateWaterLevel, tUint32),
				field("water_type", stateWaterType, tSint32),
				field("ground_entity", stateGroundEntity, tSint32),
			),
			messageType("Cmd",
				field("msec", cmdMsec, tUint32),
				field("buttons", cmdButtons, tUint32),
				repeated(field("angles", cmdAngles, tFloat)),
				field("forward_move", cmdForward, tFloat),
				field("side_move", cmdSide, tFloat),
				field("up_move", cmdUp, tFloat),
			),
			messageType("Frame",
				ofType(field("cmd", frameCmd, tMessage), "Cmd"),
				field("hash", frameHash, tFixed64),
			),
			messageType("Recording",
				field("version", recVersion, tUint32),
				field("id", recID, tBytes),
				ofType(field("initial", recInitial, tMessage), "State"),
				ofType(repeated(field("frames", recFrames, tMessage)), "Frame"),
			),
		},
	}
	fd, err := protodesc.NewFile(file, new(protoregistry.Files))
	if err != nil {
		panic(err)
	}
	msgs := fd.Messages()
	stateMsg = msgs.ByName("State")
	cmdMsg = msgs.ByName("Cmd")
	frameMsg = msgs.ByName("Frame")
	recordingMsg = msgs.ByName("Recording")
}
