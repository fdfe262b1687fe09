// Package signatures manages reusable signature images. Images arrive as
// data URLs from the drawing canvas, are stored as blobs, and exactly one
// per user may be the default.
package signatures

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/libresign/libresign/cleanup"
	"github.com/libresign/libresign/db/sqldb"
	"github.com/libresign/libresign/locks/keyonlylocks"
	"github.com/libresign/libresign/models"
	"github.com/libresign/libresign/storage"
)

var (
	ErrBadDataURL   = errors.New("signatures: malformed image data URL")
	ErrBadImageType = errors.New("signatures: unsupported image type")
	ErrTooLarge     = errors.New("signatures: image exceeds size limit")
	ErrNotFound     = errors.New("signatures: not found")
	ErrBusy         = errors.New("signatures: concurrent default change in progress")
)

// SignedURLTTL is how long minted signature image URLs stay valid.
const SignedURLTTL = 2 * time.Hour

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

type Store struct {
	SQL     sqldb.Client
	Storage *storage.Client
	Cleanup *cleanup.Queue

	defaultLocks sync.Map // per-user guard around default switches
}

// DecodeImageDataURL splits `data:<mime>;base64,<payload>` into its
// content type and raw bytes.
func DecodeImageDataURL(dataURL string) (contentType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, ErrBadDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrBadDataURL
	}
	contentType, encoding, ok := strings.Cut(meta, ";")
	if !ok || encoding != "base64" {
		return "", nil, ErrBadDataURL
	}
	if _, supported := imageExtensions[contentType]; !supported {
		return "", nil, fmt.Errorf("%w: %s", ErrBadImageType, contentType)
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	return contentType, data, nil
}

// Create decodes the data URL, uploads the blob, then inserts the row.
// The user's first signature automatically becomes the default. An insert
// failure after upload queues the orphaned blob for cleanup.
func (s *Store) Create(ctx context.Context, user *models.User, name, dataURL string) (*models.Signature, error) {
	contentType, data, err := DecodeImageDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	if len(data) > storage.SignaturesSizeLimit {
		return nil, ErrTooLarge
	}
	if name == "" {
		name = "Signature"
	}

	filename := storage.SanitizeFilename(name) + "." + imageExtensions[contentType]
	key := storage.BuildObjectKey(user.ID, filename, time.Now())
	if err = s.Storage.Upload(ctx, storage.BucketSignatures, key, contentType, data); err != nil {
		return nil, fmt.Errorf("blob upload failed: %w", err)
	}

	sig := &models.Signature{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Name:      name,
		FilePath:  storage.BucketSignatures + "/" + key,
		CreatedAt: time.Now().UTC(),
	}
	// first signature for this user becomes the default
	_, err = s.SQL.Exec(ctx,
		`INSERT INTO signatures (id, user_id, name, file_path, is_default, created_at)
		 VALUES ($1, $2, $3, $4,
		         NOT EXISTS (SELECT 1 FROM signatures WHERE user_id = $2), $5)`,
		sig.ID, sig.UserID, sig.Name, sig.FilePath, sig.CreatedAt)
	if err != nil {
		s.Cleanup.EnqueueBlobRemoval(ctx, storage.BucketSignatures, key)
		return nil, fmt.Errorf("signature insert failed: %w", err)
	}
	created, err := s.get(ctx, sig.ID, user.ID)
	if err != nil {
		return sig, nil // row exists; report what we know
	}
	return created, nil
}

func (s *Store) get(ctx context.Context, id, userID string) (*models.Signature, error) {
	sig, err := sqldb.QueryItem[models.Signature, *models.Signature](ctx, s.SQL,
		`SELECT `+models.SignatureColumns+` FROM signatures WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		if errors.Is(err, sqldb.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sig, nil
}

// ListForUser returns the user's signatures, default first, then newest first.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]*models.Signature, error) {
	return sqldb.QueryItems[models.Signature, *models.Signature](ctx, s.SQL,
		`SELECT `+models.SignatureColumns+` FROM signatures
		 WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`,
		userID)
}

// SetDefault makes one signature the default by clearing the old default
// and setting the new one in a single transaction. A per-user lock keeps
// two concurrent switches from interleaving.
func (s *Store) SetDefault(ctx context.Context, userID, id string) error {
	lockKeys := []string{"sigdefault:" + userID}
	acquired, ok := keyonlylocks.AcquireLocks(&s.defaultLocks, lockKeys)
	if !ok {
		return ErrBusy
	}
	defer keyonlylocks.ReleaseLocks(&s.defaultLocks, acquired)

	tx, err := s.SQL.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx,
		`UPDATE signatures SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID); err != nil {
		return err
	}
	res, err := tx.Exec(ctx,
		`UPDATE signatures SET is_default = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound // rollback restores the previous default
	}
	return tx.Commit(ctx)
}

// Delete removes the row first, then the blob best-effort. A blob removal
// failure is queued for cleanup and the delete still succeeds.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	sig, err := s.get(ctx, id, userID)
	if err != nil {
		return err
	}
	res, err := s.SQL.Exec(ctx,
		`DELETE FROM signatures WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	key := strings.TrimPrefix(sig.FilePath, storage.BucketSignatures+"/")
	if err = s.Storage.Remove(ctx, storage.BucketSignatures, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		log.Printf("[WARN] signature %s blob removal failed, queueing cleanup: %v", sig.ID, err)
		s.Cleanup.EnqueueBlobRemoval(ctx, storage.BucketSignatures, key)
	}
	return nil
}

// DisplayURL returns a browser-usable URL for the image: the stable public
// URL when the bucket is public, a signed URL otherwise.
func (s *Store) DisplayURL(ctx context.Context, sig *models.Signature) (string, error) {
	key := strings.TrimPrefix(sig.FilePath, storage.BucketSignatures+"/")
	if s.Storage.Conf.SignaturesPublic {
		return s.Storage.PublicURL(storage.BucketSignatures, key), nil
	}
	return s.Storage.CreateSignedURL(ctx, storage.BucketSignatures, key, SignedURLTTL)
}
