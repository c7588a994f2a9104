package usecase

import (
	"time"

	"github.com/medreport/companion/internal/core/domain"
)

// transcript is an append-only message log. IDs grow monotonically in
// creation order and survive Reset, so they stay unique for the lifetime
// of the session.
type transcript struct {
	nextID   int64
	messages []domain.Message
}

func (t *transcript) append(origin domain.MessageOrigin, body string) domain.Message {
	t.nextID++
	msg := domain.Message{
		ID:        t.nextID,
		Body:      body,
		Origin:    origin,
		CreatedAt: time.Now().UTC(),
	}
	t.messages = append(t.messages, msg)
	return msg
}

// remove drops the message with the given id, preserving order of the rest.
// Used only for transient progress placeholders.
func (t *transcript) remove(id int64) {
	for i := range t.messages {
		if t.messages[i].ID == id {
			t.messages = append(t.messages[:i], t.messages[i+1:]...)
			return
		}
	}
}

func (t *transcript) reset() {
	t.messages = t.messages[:0]
}

func (t *transcript) snapshot() []domain.Message {
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}
