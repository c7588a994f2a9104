package domain

import "time"

type FindingType string

const (
	FindingLabValue            FindingType = "lab_value"
	FindingRadiology           FindingType = "radiology_finding"
	FindingClinicalObservation FindingType = "clinical_observation"
)

// Finding is one extracted item from a medical report: a numeric lab value
// or a descriptive radiology/clinical observation.
type Finding struct {
	ID          string      `json:"id"`
	DocumentID  string      `json:"document_id"`
	Type        FindingType `json:"type"`
	Name        string      `json:"name"`
	Value       string      `json:"value,omitempty"`
	Unit        string      `json:"unit,omitempty"`
	Descriptor  string      `json:"descriptor,omitempty"`
	Snippet     string      `json:"snippet,omitempty"`
	Explanation string      `json:"explanation,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// SearchFilter narrows semantic search to one document's chunks.
type SearchFilter struct {
	DocumentID string
}

// RetrievedChunk is one indexed fragment returned by semantic search.
type RetrievedChunk struct {
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Answer is the final response to one question about a document.
type Answer struct {
	Question string           `json:"question"`
	Text     string           `json:"answer"`
	Sources  []RetrievedChunk `json:"sources,omitempty"`
}
