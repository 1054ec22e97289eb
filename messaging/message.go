package messaging

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Message is the unit of data exchanged between nodes. ID is the correlation
// identifier; it is empty until the message is first sent.
type Message struct {
	ID      string
	Topic   string
	Headers map[string]string
	Payload *structpb.Struct
}

// NewID returns a fresh correlation identifier (UUIDv7, time-sortable).
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// HasID reports whether a correlation identifier is assigned.
func (msg *Message) HasID() bool {
	return msg.ID != ""
}

// Get returns the payload field under key as a plain Go value.
func (msg *Message) Get(key string) (any, bool) {
	if msg.Payload == nil {
		return nil, false
	}
	v, ok := msg.Payload.GetFields()[key]
	if !ok {
		return nil, false
	}
	return v.AsInterface(), true
}

// Set stores value under key in the payload. Values must be representable
// by structpb.NewValue (nil, bool, numbers, string, []any, map[string]any).
func (msg *Message) Set(key string, value any) error {
	v, err := structpb.NewValue(value)
	if err != nil {
		return fmt.Errorf("invalid value for field %q: %w", key, err)
	}
	if msg.Payload == nil {
		msg.Payload = &structpb.Struct{}
	}
	if msg.Payload.Fields == nil {
		msg.Payload.Fields = make(map[string]*structpb.Value)
	}
	msg.Payload.Fields[key] = v
	return nil
}

// Fields returns the payload as a plain map. The map is a copy.
func (msg *Message) Fields() map[string]any {
	if msg.Payload == nil {
		return map[string]any{}
	}
	return msg.Payload.AsMap()
}

// Clone returns a deep copy. The correlation identifier is copied as is.
func (msg *Message) Clone() *Message {
	clone := *msg
	clone.Headers = maps.Clone(msg.Headers)
	if msg.Payload != nil {
		clone.Payload = proto.Clone(msg.Payload).(*structpb.Struct)
	}
	return &clone
}

// Equal reports whether two messages carry the same identifier, topic,
// headers and payload.
func (msg *Message) Equal(other *Message) bool {
	if msg == nil || other == nil {
		return msg == other
	}
	return msg.ID == other.ID &&
		msg.Topic == other.Topic &&
		maps.Equal(msg.Headers, other.Headers) &&
		proto.Equal(msg.Payload, other.Payload)
}

// MarshalJSON renders the message with its payload encoded by protojson.
func (msg *Message) MarshalJSON() ([]byte, error) {
	payload := json.RawMessage("{}")
	if msg.Payload != nil {
		data, err := protojson.Marshal(msg.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		payload = data
	}

	return json.Marshal(struct {
		ID      string            `json:"_msgid,omitempty"`
		Topic   string            `json:"topic,omitempty"`
		Headers map[string]string `json:"headers,omitempty"`
		Payload json.RawMessage   `json:"payload"`
	}{
		ID:      msg.ID,
		Topic:   msg.Topic,
		Headers: msg.Headers,
		Payload: payload,
	})
}

func (msg *Message) String() string {
	return fmt.Sprintf(
		"Message{ID: %s, Topic: %s, Fields: %d}",
		msg.ID,
		msg.Topic,
		len(msg.Payload.GetFields()),
	)
}

// FromJSON builds a message whose payload is the given JSON object.
func FromJSON(data []byte) (*Message, error) {
	payload := &structpb.Struct{}
	if err := protojson.Unmarshal(data, payload); err != nil {
		return nil, fmt.Errorf("failed to parse payload: %w", err)
	}
	return &Message{Payload: payload}, nil
}

// FromMap builds a message whose payload holds the given fields.
func FromMap(fields map[string]any) (*Message, error) {
	payload, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload: %w", err)
	}
	return &Message{Payload: payload}, nil
}
