package requests

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:54321"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "4.5.6.7")
	assert.Equal(t, "4.5.6.7", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	assert.Equal(t, "1.2.3.4", GetClientIP(r), "first forwarded entry wins")

	r.Header.Set("X-Forwarded-For", " 1.2.3.4 ")
	assert.Equal(t, "1.2.3.4", GetClientIP(r))
}
