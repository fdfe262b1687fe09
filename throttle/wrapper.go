package throttle

import (
	"net/http"
	"time"

	"github.com/libresign/libresign/requests"
	"github.com/libresign/libresign/responses"
	"github.com/libresign/libresign/routing"
)

// Wrapper rate-limits a route group per client IP against one bucket group.
type Wrapper struct {
	Store   *BucketStore
	GroupID string
}

var _ routing.HandlerWrapper = (*Wrapper)(nil)

func (t *Wrapper) Wrap(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientKey := requests.GetClientIP(r)
		if !t.Store.Allow(t.GroupID, clientKey, time.Now()) {
			responses.WriteSimpleErrorJSON(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		inner.ServeHTTP(w, r)
	})
}
