// Package cleanup queues compensating blob deletions. When a database row
// insert fails after its blob was uploaded, or a best-effort blob delete
// fails, the orphaned object's key is queued here and retried by a
// scheduled job instead of blocking the request.
package cleanup

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/libresign/libresign/db/kvdb"
	"github.com/libresign/libresign/storage"
)

const MaxAttempts = 5

type Intent struct {
	Bucket     string    `json:"bucket"`
	Key        string    `json:"key"`
	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

type Queue struct {
	AppName string
	KVDB    kvdb.Client
	Storage *storage.Client
}

func (q *Queue) listKey() string {
	return q.AppName + "_cleanup"
}

// EnqueueBlobRemoval records an orphaned blob for later deletion.
// Queue failures are logged only; the orphan costs storage, not correctness.
func (q *Queue) EnqueueBlobRemoval(ctx context.Context, bucket, key string) {
	intent := Intent{Bucket: bucket, Key: key, EnqueuedAt: time.Now().UTC()}
	payload, err := json.Marshal(intent)
	if err != nil {
		log.Printf("[ERROR] cleanup enqueue marshal %s/%s: %v", bucket, key, err)
		return
	}
	if err = q.KVDB.Push(ctx, q.listKey(), string(payload)); err != nil {
		log.Printf("[ERROR] cleanup enqueue %s/%s: %v", bucket, key, err)
	}
}

// Drain processes everything currently queued. Failed removals are requeued
// with an incremented attempt count; after MaxAttempts the intent is dropped
// with an error log so the queue cannot grow without bound.
func (q *Queue) Drain(ctx context.Context) error {
	pending, err := q.KVDB.Len(ctx, q.listKey())
	if err != nil {
		return fmt.Errorf("cleanup queue length: %w", err)
	}
	for range pending {
		payload, found, err := q.KVDB.Pop(ctx, q.listKey())
		if err != nil {
			return fmt.Errorf("cleanup queue pop: %w", err)
		}
		if !found {
			return nil
		}
		var intent Intent
		if err = json.Unmarshal([]byte(payload), &intent); err != nil {
			log.Printf("[ERROR] cleanup: dropping unreadable intent: %v", err)
			continue
		}
		q.processIntent(ctx, intent)
	}
	return nil
}

func (q *Queue) processIntent(ctx context.Context, intent Intent) {
	err := q.Storage.Remove(ctx, intent.Bucket, intent.Key)
	if err == nil || errors.Is(err, storage.ErrObjectNotFound) {
		log.Printf("[INFO] cleanup: removed orphan %s/%s", intent.Bucket, intent.Key)
		return
	}
	intent.Attempts++
	if intent.Attempts >= MaxAttempts {
		log.Printf("[ERROR] cleanup: giving up on %s/%s after %d attempts: %v",
			intent.Bucket, intent.Key, intent.Attempts, err)
		return
	}
	payload, marshalErr := json.Marshal(intent)
	if marshalErr != nil {
		log.Printf("[ERROR] cleanup requeue marshal %s/%s: %v", intent.Bucket, intent.Key, marshalErr)
		return
	}
	if pushErr := q.KVDB.Push(ctx, q.listKey(), string(payload)); pushErr != nil {
		log.Printf("[ERROR] cleanup requeue %s/%s: %v", intent.Bucket, intent.Key, pushErr)
	}
}
