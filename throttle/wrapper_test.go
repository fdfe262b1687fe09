package throttle

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWrapperBlocksAfterBurst(t *testing.T) {
	s := NewBucketStore(t.Context(), time.Hour, time.Hour)
	s.SetBucketGroup("auth", &BucketConf{Burst: 2, Increment: 1, Period: time.Minute})
	wrapper := &Wrapper{Store: s, GroupID: "auth"}

	calls := 0
	h := wrapper.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.Header.Set("X-Forwarded-For", "1.2.3.4")
		h.ServeHTTP(w, r)
		if i < 2 {
			assert.Equal(t, http.StatusOK, w.Code)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, w.Code)
		}
	}
	assert.Equal(t, 2, calls)
}

func TestWrapperKeysByClientIP(t *testing.T) {
	s := NewBucketStore(t.Context(), time.Hour, time.Hour)
	s.SetBucketGroup("auth", &BucketConf{Burst: 1, Increment: 1, Period: time.Minute})
	wrapper := &Wrapper{Store: s, GroupID: "auth"}

	h := wrapper.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, ip := range []string{"1.2.3.4", "5.6.7.8"} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.Header.Set("X-Forwarded-For", ip)
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code, "first request from %s", ip)
	}
}
