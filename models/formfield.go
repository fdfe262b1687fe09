package models

import "time"

type FieldType string

const (
	FieldTypeSignature FieldType = "signature"
	FieldTypeText      FieldType = "text"
	FieldTypeDate      FieldType = "date"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeSignature, FieldTypeText, FieldTypeDate:
		return true
	}
	return false
}

// DefaultSize returns the default width/height in document points
// for a newly placed field of this type.
func (t FieldType) DefaultSize() (w, h float64) {
	if t == FieldTypeSignature {
		return 150, 60
	}
	return 100, 40
}

// FormField is a fillable region on one page of a document.
// X/Y/W/H are document-space points with the origin at the page's top-left,
// independent of any on-screen rendering size.
type FormField struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	FieldType  FieldType `json:"field_type"`
	Page       int       `json:"page"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	W          float64   `json:"w"`
	H          float64   `json:"h"`
	Assignee   Assignee  `json:"assignee"`
	CreatedAt  time.Time `json:"created_at"`
}

func (f *FormField) GetID() string {
	return f.ID
}

func (f *FormField) FieldsToScan() []any {
	return []any{
		&f.ID,
		&f.DocumentID,
		&f.FieldType,
		&f.Page,
		&f.X,
		&f.Y,
		&f.W,
		&f.H,
		&f.Assignee.Kind,
		&f.Assignee.Value,
		&f.CreatedAt,
	}
}

// FormFieldColumns is the select list matching FormField.FieldsToScan order.
const FormFieldColumns = "id, document_id, field_type, page, x, y, w, h, assigned_kind, assigned_to, created_at"
