package storage

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/libresign/libresign/locks/keyonlylocks"
)

var ErrBucketNotFound = errors.New("storage: bucket not found")

type Bucket struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Public        bool   `json:"public"`
	FileSizeLimit int64  `json:"file_size_limit"`
}

func (c *Client) GetBucket(ctx context.Context, id string) (*Bucket, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.objectURL("bucket", id), nil)
	if err != nil {
		return nil, err
	}
	res, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer closeBody(res)
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrBucketNotFound
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get bucket %s: HTTP Status Code: %d", id, res.StatusCode)
	}
	var bucket Bucket
	if err = json.UnmarshalRead(res.Body, &bucket); err != nil {
		return nil, err
	}
	return &bucket, nil
}

func (c *Client) CreateBucket(ctx context.Context, bucket Bucket) error {
	bodyBytes, err := json.Marshal(bucket)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.objectURL("bucket"), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.Do(req)
	if err != nil {
		return err
	}
	defer closeBody(res)
	// 409: another instance created it first. Treat as done.
	if res.StatusCode == http.StatusConflict {
		return nil
	}
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return fmt.Errorf("create bucket %s: HTTP Status Code: %d", bucket.ID, res.StatusCode)
	}
	return nil
}

var bucketProvisionLocks sync.Map

// EnsureBuckets provisions the two application buckets if missing.
// Idempotent. Failures are logged, never fatal: upload paths surface
// their own errors if a bucket is genuinely unusable.
func (c *Client) EnsureBuckets(ctx context.Context) {
	wanted := []Bucket{
		{ID: BucketDocuments, Name: BucketDocuments, Public: false, FileSizeLimit: DocumentsSizeLimit},
		{ID: BucketSignatures, Name: BucketSignatures, Public: c.Conf.SignaturesPublic, FileSizeLimit: SignaturesSizeLimit},
	}
	for _, bucket := range wanted {
		lockKeys := []string{"bucket:" + bucket.ID}
		acquired, ok := keyonlylocks.AcquireLocks(&bucketProvisionLocks, lockKeys)
		if !ok {
			continue // another goroutine is provisioning this bucket
		}
		c.ensureBucket(ctx, bucket)
		keyonlylocks.ReleaseLocks(&bucketProvisionLocks, acquired)
	}
}

func (c *Client) ensureBucket(ctx context.Context, bucket Bucket) {
	_, err := c.GetBucket(ctx, bucket.ID)
	if err == nil {
		return
	}
	if !errors.Is(err, ErrBucketNotFound) {
		log.Printf("[WARN] bucket check %q failed: %v", bucket.ID, err)
		return
	}
	if err = c.CreateBucket(ctx, bucket); err != nil {
		log.Printf("[WARN] bucket create %q failed: %v", bucket.ID, err)
		return
	}
	log.Printf("[INFO] bucket %q created (public=%t, limit=%d)", bucket.ID, bucket.Public, bucket.FileSizeLimit)
}
