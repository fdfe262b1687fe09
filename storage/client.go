// Package storage talks to the hosted backend's blob storage API.
// Object keys follow `<bucket>/<uid>/<timestamp>_<sanitized-filename>`
// so one user's blobs never collide with another's.
package storage

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var ErrObjectNotFound = errors.New("storage: object not found")

type Client struct {
	*http.Client // [Embedded]
	Conf         *Conf
}

func (c *Client) objectURL(parts ...string) string {
	return c.Conf.Host + "/storage/v1/" + strings.Join(parts, "/")
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.Conf.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+c.Conf.ServiceKey)
	return req, nil
}

func closeBody(res *http.Response) {
	if err := res.Body.Close(); err != nil {
		log.Printf("[WARN] %v", err)
	}
}

// Upload stores data under key in bucket. The key must not already exist.
func (c *Client) Upload(ctx context.Context, bucket, key, contentType string, data []byte) error {
	req, err := c.newRequest(ctx, http.MethodPost, c.objectURL("object", bucket, key), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	res, err := c.Do(req)
	if err != nil {
		return err
	}
	defer closeBody(res)
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("upload %s/%s: HTTP Status Code: %d", bucket, key, res.StatusCode)
	}
	return nil
}

// Remove deletes one object. Missing objects map to ErrObjectNotFound.
func (c *Client) Remove(ctx context.Context, bucket, key string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.objectURL("object", bucket, key), nil)
	if err != nil {
		return err
	}
	res, err := c.Do(req)
	if err != nil {
		return err
	}
	defer closeBody(res)
	if res.StatusCode == http.StatusNotFound {
		return ErrObjectNotFound
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("remove %s/%s: HTTP Status Code: %d", bucket, key, res.StatusCode)
	}
	return nil
}

// Download streams an object. The caller must close the returned reader.
func (c *Client) Download(ctx context.Context, bucket, key string) (io.ReadCloser, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.objectURL("object", bucket, key), nil)
	if err != nil {
		return nil, "", err
	}
	res, err := c.Do(req)
	if err != nil {
		return nil, "", err
	}
	if res.StatusCode == http.StatusNotFound {
		closeBody(res)
		return nil, "", ErrObjectNotFound
	}
	if res.StatusCode != http.StatusOK {
		closeBody(res)
		return nil, "", fmt.Errorf("download %s/%s: HTTP Status Code: %d", bucket, key, res.StatusCode)
	}
	return res.Body, res.Header.Get("Content-Type"), nil
}

// CreateSignedURL returns a time-limited absolute URL for a private object.
func (c *Client) CreateSignedURL(ctx context.Context, bucket, key string, expiresIn time.Duration) (string, error) {
	bodyBytes, err := json.Marshal(map[string]int{"expiresIn": int(expiresIn.Seconds())})
	if err != nil {
		return "", err
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.objectURL("object", "sign", bucket, key), bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.Do(req)
	if err != nil {
		return "", err
	}
	defer closeBody(res)
	if res.StatusCode == http.StatusNotFound {
		return "", ErrObjectNotFound
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sign %s/%s: HTTP Status Code: %d", bucket, key, res.StatusCode)
	}
	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err = json.UnmarshalRead(res.Body, &signed); err != nil {
		return "", err
	}
	// The API returns a path relative to /storage/v1
	return c.Conf.Host + "/storage/v1" + signed.SignedURL, nil
}

// PublicURL builds the stable URL of an object in a public bucket.
// No network call; the bucket must actually be public for it to resolve.
func (c *Client) PublicURL(bucket, key string) string {
	return c.objectURL("object", "public", bucket, key)
}

var unsafeFilenameChars = regexp.MustCompile(`[^0-9A-Za-z._-]+`)

// SanitizeFilename reduces a user-supplied filename to a safe object key part.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	return name
}

// BuildObjectKey makes `<uid>/<timestamp>_<sanitized-filename>`.
func BuildObjectKey(userID, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s", userID, now.UnixMilli(), SanitizeFilename(filename))
}
