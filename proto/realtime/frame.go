package realtime

import (
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	EventField   = "event"
	PayloadField = "payload"
)

// Inbound event names.
const (
	Authenticate      = "authenticate"
	JoinConversation  = "joinConversation"
	LeaveConversation = "leaveConversation"
	SendMessage       = "sendMessage"
	DeleteMessage     = "deleteMessage"
	AddReaction       = "addReaction"
	RemoveReaction    = "removeReaction"
)

// NewFrame builds {event, payload}. payload must be accepted by structpb.NewValue.
func NewFrame(name string, payload any) (*structpb.Struct, error) {
	value, err := structpb.NewValue(payload)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		EventField:   structpb.NewStringValue(name),
		PayloadField: value,
	}}, nil
}

// ParseFrame never fails: a missing event reads as "" and a missing payload as nil.
func ParseFrame(frame *structpb.Struct) (string, *structpb.Value) {
	fields := frame.GetFields()
	return fields[EventField].GetStringValue(), fields[PayloadField]
}
