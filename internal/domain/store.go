package domain

import "time"

// DocumentSummary is the listing view of a saved document.
type DocumentSummary struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Status       DocumentStatus `json:"status"`
	PageCount    int            `json:"pageCount"`
	ElementCount int            `json:"elementCount"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// DocumentStore persists whole documents. Elements are stored as a flat
// list and reassembled into the arena on load.
type DocumentStore interface {
	SaveDocument(d *Document) error
	LoadDocument(id string) (*Document, error)
	ListDocuments() ([]DocumentSummary, error)
	DeleteDocument(id string) error
	PublishDocument(id string, at time.Time) error
}

// HistoryEntry is one persisted undo step.
type HistoryEntry struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	Seq        int       `json:"seq"`
	Label      string    `json:"label"`
	Snapshot   *Document `json:"snapshot"`
	CreatedAt  time.Time `json:"createdAt"`
}
