// Package documents owns the document lifecycle: upload, listing, access
// URLs and the draft -> sent -> completed status walk.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/libresign/libresign/cleanup"
	"github.com/libresign/libresign/db/sqldb"
	"github.com/libresign/libresign/models"
	"github.com/libresign/libresign/storage"
)

var (
	ErrNotPDF        = errors.New("documents: not a PDF file")
	ErrTooLarge      = errors.New("documents: file exceeds size limit")
	ErrNotFound      = errors.New("documents: not found")
	ErrBadTransition = errors.New("documents: status transition not allowed")
)

type Store struct {
	SQL     sqldb.Client
	Storage *storage.Client
	Cleanup *cleanup.Queue

	// Inspect parses PDF bytes into a page count. Defaults to InspectPDF;
	// tests swap it to avoid needing real PDF payloads.
	Inspect func(data []byte) (int, error)
}

func (s *Store) inspect(data []byte) (int, error) {
	if s.Inspect != nil {
		return s.Inspect(data)
	}
	return InspectPDF(data)
}

// Upload validates, stores the blob, then inserts the row. The PDF checks
// run before anything leaves the process. If the insert fails after the
// blob upload succeeded, the orphaned blob goes to the cleanup queue.
func (s *Store) Upload(ctx context.Context, owner *models.User, title, filename, contentType string, data []byte) (*models.Document, error) {
	if !LooksLikePDF(contentType, data) {
		return nil, ErrNotPDF
	}
	if len(data) > storage.DocumentsSizeLimit {
		return nil, ErrTooLarge
	}
	pageCount, err := s.inspect(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	if title == "" {
		title = storage.SanitizeFilename(filename)
	}

	key := storage.BuildObjectKey(owner.ID, filename, time.Now())
	if err = s.Storage.Upload(ctx, storage.BucketDocuments, key, "application/pdf", data); err != nil {
		return nil, fmt.Errorf("blob upload failed: %w", err)
	}

	doc := &models.Document{
		ID:        uuid.NewString(),
		OwnerID:   owner.ID,
		Title:     title,
		FilePath:  storage.BucketDocuments + "/" + key,
		Status:    models.DocumentStatusDraft,
		PageCount: pageCount,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.SQL.Exec(ctx,
		`INSERT INTO documents (id, owner_id, title, file_path, status, page_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.OwnerID, doc.Title, doc.FilePath, doc.Status, doc.PageCount, doc.CreatedAt)
	if err != nil {
		// blob is already up; queue the compensating removal
		s.Cleanup.EnqueueBlobRemoval(ctx, storage.BucketDocuments, key)
		return nil, fmt.Errorf("document insert failed: %w", err)
	}
	return doc, nil
}

// Get returns the document only to its owner. A foreign or missing id is
// the same ErrNotFound; ownership is never leaked.
func (s *Store) Get(ctx context.Context, id, ownerID string) (*models.Document, error) {
	doc, err := sqldb.QueryItem[models.Document, *models.Document](ctx, s.SQL,
		`SELECT `+models.DocumentColumns+` FROM documents WHERE id = $1 AND owner_id = $2`,
		id, ownerID)
	if err != nil {
		if errors.Is(err, sqldb.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// ListForOwner returns the owner's documents, newest first.
func (s *Store) ListForOwner(ctx context.Context, ownerID string) ([]*models.Document, error) {
	return sqldb.QueryItems[models.Document, *models.Document](ctx, s.SQL,
		`SELECT `+models.DocumentColumns+` FROM documents WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID)
}

func objectKey(doc *models.Document) string {
	return strings.TrimPrefix(doc.FilePath, storage.BucketDocuments+"/")
}

// SignedAccessURL mints a time-limited URL for the document blob.
func (s *Store) SignedAccessURL(ctx context.Context, doc *models.Document, ttl time.Duration) (string, error) {
	return s.Storage.CreateSignedURL(ctx, storage.BucketDocuments, objectKey(doc), ttl)
}

// OpenBlob streams the raw PDF. Caller closes the reader.
func (s *Store) OpenBlob(ctx context.Context, doc *models.Document) (io.ReadCloser, string, error) {
	return s.Storage.Download(ctx, storage.BucketDocuments, objectKey(doc))
}

// Send moves a draft to sent. Complete moves sent to completed.
// Both are guarded in SQL so concurrent requests cannot double-apply.

func (s *Store) Send(ctx context.Context, id, ownerID string) error {
	return s.transition(ctx, id, ownerID,
		models.DocumentStatusDraft, models.DocumentStatusSent, "sent_at")
}

func (s *Store) Complete(ctx context.Context, id, ownerID string) error {
	return s.transition(ctx, id, ownerID,
		models.DocumentStatusSent, models.DocumentStatusCompleted, "completed_at")
}

func (s *Store) transition(ctx context.Context, id, ownerID string, from, to models.DocumentStatus, stampCol string) error {
	col, err := sqldb.NewColumn(stampCol)
	if err != nil {
		return err
	}
	res, err := s.SQL.Exec(ctx,
		`UPDATE documents SET status = $1, `+col.Name()+` = $2
		 WHERE id = $3 AND owner_id = $4 AND status = $5`,
		to, time.Now().UTC(), id, ownerID, from)
	if err != nil {
		return err
	}
	if res.RowsAffected() > 0 {
		return nil
	}
	// nothing updated: missing document or wrong current status
	if _, err = s.Get(ctx, id, ownerID); err != nil {
		return err
	}
	return ErrBadTransition
}

// Delete removes the row first, then the blob best-effort. A blob removal
// failure is queued for cleanup and does not fail the delete.
func (s *Store) Delete(ctx context.Context, id, ownerID string) error {
	doc, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return err
	}
	res, err := s.SQL.Exec(ctx,
		`DELETE FROM documents WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	if err = s.Storage.Remove(ctx, storage.BucketDocuments, objectKey(doc)); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		log.Printf("[WARN] document %s blob removal failed, queueing cleanup: %v", doc.ID, err)
		s.Cleanup.EnqueueBlobRemoval(ctx, storage.BucketDocuments, objectKey(doc))
	}
	return nil
}
