package server

import (
	"encoding/json"

	"ephemeral-chat/errors"
	"github.com/go-playground/validator/v10"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

type tokenPayload struct {
	Token string `json:"token" validate:"required"`
}

type conversationPayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

// Content emptiness is checked after trimming by the message service.
type sendMessagePayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
	Content        string `json:"content"`
	ReplyToID      string `json:"replyToId"`
}

type deleteMessagePayload struct {
	MessageID      string `json:"messageId" validate:"required"`
	ConversationID string `json:"conversationId" validate:"required"`
}

type reactionPayload struct {
	MessageID      string `json:"messageId" validate:"required"`
	ConversationID string `json:"conversationId" validate:"required"`
	Emoji          string `json:"emoji"`
}

// decodePayload validates an object payload into dst.
func decodePayload(validate *validator.Validate, value *structpb.Value, dst any) error {
	if _, ok := value.GetKind().(*structpb.Value_StructValue); !ok {
		return errors.ErrMissingField
	}
	data, err := protojson.Marshal(value)
	if err != nil {
		return errors.ErrMissingField
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.ErrMissingField
	}
	if err := validate.Struct(dst); err != nil {
		return errors.ErrMissingField
	}
	return nil
}

// decodeScalar accepts either a bare string payload or an object carrying it,
// authenticate sends the token, join/leave send the conversation id.
func decodeScalar[T any](validate *validator.Validate, value *structpb.Value, dst *T, set func(*T, string)) error {
	if s, ok := value.GetKind().(*structpb.Value_StringValue); ok {
		set(dst, s.StringValue)
		if err := validate.Struct(dst); err != nil {
			return errors.ErrMissingField
		}
		return nil
	}
	return decodePayload(validate, value, dst)
}

func decodeToken(validate *validator.Validate, value *structpb.Value) (string, error) {
	var p tokenPayload
	err := decodeScalar(validate, value, &p, func(p *tokenPayload, s string) { p.Token = s })
	return p.Token, err
}

func decodeConversationID(validate *validator.Validate, value *structpb.Value) (string, error) {
	var p conversationPayload
	err := decodeScalar(validate, value, &p, func(p *conversationPayload, s string) { p.ConversationID = s })
	return p.ConversationID, err
}
