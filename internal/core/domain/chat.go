package domain

import "time"

type MessageOrigin string

const (
	OriginUser      MessageOrigin = "user"
	OriginAssistant MessageOrigin = "assistant"
)

// Message is one entry in a chat transcript. IDs are assigned per session
// in creation order; display order equals ID order.
type Message struct {
	ID        int64         `json:"id"`
	Body      string        `json:"body"`
	Origin    MessageOrigin `json:"origin"`
	CreatedAt time.Time     `json:"created_at"`
}

// DocumentRef is an opaque handle to a user-selected file, independent of
// how it was picked.
type DocumentRef struct {
	Location    string `json:"location"`
	Name        string `json:"name"`
	ContentKind string `json:"content_kind"`
}

// SessionSeed carries an already-analyzed document into a new chat session,
// e.g. when the user arrives from the results screen.
type SessionSeed struct {
	Document DocumentRef `json:"document"`
}

// UploadReceipt is what the report service returns for a successful upload.
type UploadReceipt struct {
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	ChunksCount int    `json:"chunks_count"`
}
