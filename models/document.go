package models

import (
	"time"

	"github.com/libresign/libresign/nullable"
)

type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "draft"
	DocumentStatusSent      DocumentStatus = "sent"
	DocumentStatusCompleted DocumentStatus = "completed"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusDraft, DocumentStatusSent, DocumentStatusCompleted:
		return true
	}
	return false
}

// CanTransition reports whether status s may move to next.
// Transitions are forward-only: draft -> sent -> completed.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	switch s {
	case DocumentStatusDraft:
		return next == DocumentStatusSent
	case DocumentStatusSent:
		return next == DocumentStatusCompleted
	}
	return false
}

type Document struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"owner_id"`
	Title       string         `json:"title"`
	FilePath    string         `json:"file_path"`
	Status      DocumentStatus `json:"status"`
	PageCount   int            `json:"page_count"`
	CreatedAt   time.Time      `json:"created_at"`
	SentAt      nullable.Time  `json:"sent_at"`
	CompletedAt nullable.Time  `json:"completed_at"`
}

func (d *Document) GetID() string {
	return d.ID
}

func (d *Document) FieldsToScan() []any {
	return []any{
		&d.ID,
		&d.OwnerID,
		&d.Title,
		&d.FilePath,
		&d.Status,
		&d.PageCount,
		&d.CreatedAt,
		&d.SentAt,
		&d.CompletedAt,
	}
}

// DocumentColumns is the select list matching Document.FieldsToScan order.
const DocumentColumns = "id, owner_id, title, file_path, status, page_count, created_at, sent_at, completed_at"
