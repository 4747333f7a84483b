package messages

import (
	"iter"
	"slices"

	"github.com/google/uuid"
)

// Thread is the ordered conversation history for a single delegated run.
// It is not safe for concurrent use; a turn owns its thread.
type Thread struct {
	id   uuid.UUID
	msgs []Message
}

// NewThread creates an empty thread with a fresh identifier.
func NewThread() *Thread {
	return &Thread{id: uuid.New()}
}

// ID returns the thread identifier.
func (t *Thread) ID() uuid.UUID {
	return t.id
}

// Add appends a message to the thread.
func (t *Thread) Add(msg Message) {
	t.msgs = append(t.msgs, msg)
}

// Len returns the number of messages in the thread.
func (t *Thread) Len() int {
	return len(t.msgs)
}

// MessagesIter iterates the thread messages in insertion order.
func (t *Thread) MessagesIter() iter.Seq[Message] {
	return slices.Values(t.msgs)
}

// Fork returns a copy of the thread sharing the same identifier. The desk
// forks before delegation so a failed run leaves the original untouched.
func (t *Thread) Fork() *Thread {
	return &Thread{
		id:   t.id,
		msgs: slices.Clone(t.msgs),
	}
}

// Join appends the messages of other that this thread does not hold yet.
func (t *Thread) Join(other *Thread) {
	if other == nil || len(other.msgs) <= len(t.msgs) {
		return
	}
	t.msgs = append(t.msgs, other.msgs[len(t.msgs):]...)
}
