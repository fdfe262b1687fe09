package handlers

import (
	"net/http"

	"github.com/libresign/libresign/responses"
	"github.com/libresign/libresign/storage"
)

// StorageTest handles GET /api/storage-test: a connectivity probe that
// reports whether both application buckets are reachable.
func (h *Handlers) StorageTest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := requireUser(w, r); !ok {
		return
	}
	status := make(map[string]string, 2)
	healthy := true
	for _, bucketID := range []string{storage.BucketDocuments, storage.BucketSignatures} {
		if _, err := h.Storage.GetBucket(ctx, bucketID); err != nil {
			status[bucketID] = err.Error()
			healthy = false
		} else {
			status[bucketID] = "ok"
		}
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	responses.EncodeWriteJSON(w, code, map[string]any{"healthy": healthy, "buckets": status})
}
