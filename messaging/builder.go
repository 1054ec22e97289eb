package messaging

import "maps"

type MessageBuilder struct {
	message *Message
	fields  map[string]any
}

func NewMessage() *MessageBuilder {
	return &MessageBuilder{
		message: &Message{},
		fields:  make(map[string]any),
	}
}

// ID presets the correlation identifier, as when forwarding a message that
// arrived from another node.
func (mb *MessageBuilder) ID(id string) *MessageBuilder {
	mb.message.ID = id
	return mb
}

func (mb *MessageBuilder) Topic(topic string) *MessageBuilder {
	mb.message.Topic = topic
	return mb
}

func (mb *MessageBuilder) Headers(headers map[string]string) *MessageBuilder {
	mb.message.Headers = maps.Clone(headers)
	return mb
}

func (mb *MessageBuilder) Field(key string, value any) *MessageBuilder {
	mb.fields[key] = value
	return mb
}

func (mb *MessageBuilder) Build() (*Message, error) {
	for key, value := range mb.fields {
		if err := mb.message.Set(key, value); err != nil {
			return nil, err
		}
	}
	return mb.message, nil
}

// MustBuild is Build for statically known fields; it panics on an
// unrepresentable value.
func (mb *MessageBuilder) MustBuild() *Message {
	msg, err := mb.Build()
	if err != nil {
		panic(err)
	}
	return msg
}
