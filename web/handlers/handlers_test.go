package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libresign/libresign/documents"
	"github.com/libresign/libresign/fields"
	"github.com/libresign/libresign/models"
	"github.com/libresign/libresign/signatures"
	"github.com/libresign/libresign/web/session"
)

func TestRequireUser(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/documents", nil)

	_, ok := requireUser(w, r)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	ctx := session.WithUser(r.Context(), &models.User{ID: "user-1"})
	user, ok := requireUser(w, r.WithContext(ctx))
	require.True(t, ok)
	assert.Equal(t, "user-1", user.ID)
}

func TestWriteStoreError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{documents.ErrNotFound, http.StatusNotFound},
		{fields.ErrNotFound, http.StatusNotFound},
		{signatures.ErrNotFound, http.StatusNotFound},
		{documents.ErrNotPDF, http.StatusBadRequest},
		{fields.ErrBadFieldType, http.StatusBadRequest},
		{fields.ErrPageOutOfRange, http.StatusBadRequest},
		{fields.ErrBadGeometry, http.StatusBadRequest},
		{fields.ErrAssigneeUnresolved, http.StatusBadRequest},
		{signatures.ErrBadDataURL, http.StatusBadRequest},
		{signatures.ErrBadImageType, http.StatusBadRequest},
		{documents.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{signatures.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{documents.ErrBadTransition, http.StatusConflict},
		{fields.ErrDocumentNotEditable, http.StatusConflict},
		{signatures.ErrBusy, http.StatusConflict},
		{errors.New("pool exhausted"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		writeStoreError(w, c.err)
		assert.Equal(t, c.code, w.Code, "error %v", c.err)
	}
}

func TestWriteStoreErrorWrappedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	writeStoreError(w, fmt.Errorf("%w: page 9 of 3", fields.ErrPageOutOfRange))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWriteStoreErrorHidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	writeStoreError(w, errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}
