package messaging

// Output is what a node emits on one output port: nothing, one message, or
// an ordered sequence of messages. The zero value is Absent.
type Output struct {
	present  bool
	messages []*Message
}

// Absent marks a port with nothing to send.
func Absent() Output {
	return Output{}
}

// Single wraps one message. A nil message is Absent.
func Single(msg *Message) Output {
	if msg == nil {
		return Output{}
	}
	return Output{present: true, messages: []*Message{msg}}
}

// Sequence wraps an ordered batch. Nil entries are kept in place and skipped
// by the router at fan-out time.
func Sequence(msgs ...*Message) Output {
	return Output{present: true, messages: msgs}
}

// IsAbsent reports whether the port carries nothing.
func (o Output) IsAbsent() bool {
	return !o.present
}

// Messages returns the messages in send order, including nil entries of a
// sequence. Absent yields nil.
func (o Output) Messages() []*Message {
	return o.messages
}

// AllAbsent reports whether no port in outputs carries anything.
func AllAbsent(outputs []Output) bool {
	for _, o := range outputs {
		if !o.IsAbsent() {
			return false
		}
	}
	return true
}
