// Package fields places and lists fillable form fields on documents.
// Coordinates are stored in document space (PDF points, page top-left
// origin) with an explicit page number, so stored positions are
// independent of whatever size the client rendered the page at.
package fields

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/libresign/libresign/db/sqldb"
	"github.com/libresign/libresign/models"
	"github.com/libresign/libresign/orm"
)

var (
	ErrBadFieldType        = errors.New("fields: unknown field type")
	ErrPageOutOfRange      = errors.New("fields: page number out of range")
	ErrBadGeometry         = errors.New("fields: invalid field geometry")
	ErrAssigneeUnresolved  = errors.New("fields: no assignee and no signed-in user")
	ErrDocumentNotEditable = errors.New("fields: document is no longer editable")
	ErrNotFound            = errors.New("fields: not found")
)

type Store struct {
	SQL sqldb.Client
}

type PlaceInput struct {
	FieldType models.FieldType
	Page      int
	X         float64
	Y         float64
	W         float64 // 0 = default for the field type
	H         float64 // 0 = default for the field type

	// AssigneeEmail, when set, assigns the field to that address verbatim.
	// Otherwise the field is assigned to the signed-in user.
	AssigneeEmail string
}

// Place validates geometry against the document and inserts the field.
// Fields can only be placed while the document is still a draft.
func (s *Store) Place(ctx context.Context, doc *models.Document, user *models.User, in PlaceInput) (*models.FormField, error) {
	if doc.Status != models.DocumentStatusDraft {
		return nil, ErrDocumentNotEditable
	}
	if !in.FieldType.Valid() {
		return nil, ErrBadFieldType
	}
	if in.Page < 1 || in.Page > doc.PageCount {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, in.Page, doc.PageCount)
	}
	if in.X < 0 || in.Y < 0 {
		return nil, ErrBadGeometry
	}
	w, h := in.W, in.H
	if w == 0 && h == 0 {
		w, h = in.FieldType.DefaultSize()
	}
	if w <= 0 || h <= 0 {
		return nil, ErrBadGeometry
	}

	var assignee models.Assignee
	switch {
	case in.AssigneeEmail != "":
		assignee = models.EmailAssignee(in.AssigneeEmail)
	case user != nil:
		assignee = models.UserAssignee(user.ID)
	default:
		return nil, ErrAssigneeUnresolved
	}

	field := &models.FormField{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		FieldType:  in.FieldType,
		Page:       in.Page,
		X:          in.X,
		Y:          in.Y,
		W:          w,
		H:          h,
		Assignee:   assignee,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.SQL.Exec(ctx,
		`INSERT INTO form_fields (id, document_id, field_type, page, x, y, w, h, assigned_kind, assigned_to, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		field.ID, field.DocumentID, field.FieldType, field.Page,
		field.X, field.Y, field.W, field.H,
		field.Assignee.Kind, field.Assignee.Value, field.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("field insert failed: %w", err)
	}
	return field, nil
}

// ListForDocument returns the document's fields in placement order.
func (s *Store) ListForDocument(ctx context.Context, documentID string) (*orm.Collection[*models.FormField, string], error) {
	rows, err := s.SQL.QueryRows(ctx,
		`SELECT `+models.FormFieldColumns+` FROM form_fields WHERE document_id = $1 ORDER BY page ASC, created_at ASC`,
		documentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return sqldb.ScanRowsToCollection[models.FormField, *models.FormField, string](rows)
}

// Remove deletes one field from a draft document.
func (s *Store) Remove(ctx context.Context, doc *models.Document, fieldID string) error {
	if doc.Status != models.DocumentStatusDraft {
		return ErrDocumentNotEditable
	}
	res, err := s.SQL.Exec(ctx,
		`DELETE FROM form_fields WHERE id = $1 AND document_id = $2`, fieldID, doc.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
