package handlers

import (
	"bytes"
	"encoding/json/v2"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libresign/libresign/cleanup"
	"github.com/libresign/libresign/db/kvdb/kvdbtest"
	"github.com/libresign/libresign/db/sqldb/sqldbtest"
	"github.com/libresign/libresign/documents"
	"github.com/libresign/libresign/models"
	"github.com/libresign/libresign/storage"
	"github.com/libresign/libresign/web/session"
)

func newDocumentHandlers(t *testing.T, sqlFake *sqldbtest.Fake) *Handlers {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/storage/v1/object/sign/documents/user-1/1_contract.pdf" {
			_, _ = w.Write([]byte(`{"signedURL":"/object/sign/documents/user-1/1_contract.pdf?token=tkn"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	storageClient := &storage.Client{Client: &http.Client{}, Conf: &storage.Conf{Host: srv.URL}}
	return &Handlers{
		AppName: "testapp",
		Documents: &documents.Store{
			SQL:     sqlFake,
			Storage: storageClient,
			Cleanup: &cleanup.Queue{AppName: "testapp", KVDB: kvdbtest.New(), Storage: storageClient},
			Inspect: func(data []byte) (int, error) { return 2, nil },
		},
	}
}

func authedRequest(r *http.Request) *http.Request {
	ctx := session.WithUser(r.Context(), &models.User{ID: "user-1", Email: "me@example.com"})
	return r.WithContext(ctx)
}

func multipartPDF(t *testing.T, title string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if title != "" {
		require.NoError(t, mw.WriteField("title", title))
	}
	fw, err := mw.CreateFormFile("file", "contract.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.7 content"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadDocumentHandler(t *testing.T) {
	sqlFake := sqldbtest.New()
	sqlFake.Script(sqldbtest.Response{Affected: 1})
	h := newDocumentHandlers(t, sqlFake)

	body, contentType := multipartPDF(t, "Q3 Contract")
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	r.Header.Set("Content-Type", contentType)
	h.UploadDocument(w, authedRequest(r))

	require.Equal(t, http.StatusCreated, w.Code)
	var doc models.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "Q3 Contract", doc.Title)
	assert.Equal(t, models.DocumentStatusDraft, doc.Status)
	assert.Equal(t, 2, doc.PageCount)
}

func TestUploadDocumentHandlerRequiresAuth(t *testing.T) {
	h := newDocumentHandlers(t, sqldbtest.New())

	body, contentType := multipartPDF(t, "")
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	r.Header.Set("Content-Type", contentType)
	h.UploadDocument(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadDocumentHandlerMissingFile(t *testing.T) {
	h := newDocumentHandlers(t, sqldbtest.New())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "no file"))
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	h.UploadDocument(w, authedRequest(r))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func handlerDocumentRow(id, status string) []any {
	return []any{id, "user-1", "Contract", "documents/user-1/1_contract.pdf", status, 2, time.Now().UTC(), nil, nil}
}

func TestGetDocumentHandler(t *testing.T) {
	sqlFake := sqldbtest.New()
	sqlFake.Script(sqldbtest.Response{Rows: [][]any{handlerDocumentRow("doc-1", "draft")}})
	h := newDocumentHandlers(t, sqlFake)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/documents/doc-1", nil)
	r.SetPathValue("id", "doc-1")
	h.GetDocument(w, authedRequest(r))

	require.Equal(t, http.StatusOK, w.Code)
	var doc models.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "doc-1", doc.ID)
}

func TestGetDocumentHandlerNotFound(t *testing.T) {
	sqlFake := sqldbtest.New()
	sqlFake.Script(sqldbtest.Response{})
	h := newDocumentHandlers(t, sqlFake)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/documents/doc-404", nil)
	r.SetPathValue("id", "doc-404")
	h.GetDocument(w, authedRequest(r))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendDocumentHandler(t *testing.T) {
	sqlFake := sqldbtest.New()
	sqlFake.Script(
		sqldbtest.Response{Affected: 1}, // transition update
		sqldbtest.Response{Rows: [][]any{handlerDocumentRow("doc-1", "sent")}},
	)
	h := newDocumentHandlers(t, sqlFake)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/documents/doc-1/send", nil)
	r.SetPathValue("id", "doc-1")
	h.SendDocument(w, authedRequest(r))

	require.Equal(t, http.StatusOK, w.Code)
	var doc models.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, models.DocumentStatusSent, doc.Status)
}

func TestSendDocumentHandlerWrongStatus(t *testing.T) {
	sqlFake := sqldbtest.New()
	sqlFake.Script(
		sqldbtest.Response{Affected: 0},
		sqldbtest.Response{Rows: [][]any{handlerDocumentRow("doc-1", "completed")}},
	)
	h := newDocumentHandlers(t, sqlFake)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/documents/doc-1/send", nil)
	r.SetPathValue("id", "doc-1")
	h.SendDocument(w, authedRequest(r))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDocumentFileRedirectsToSignedURL(t *testing.T) {
	sqlFake := sqldbtest.New()
	sqlFake.Script(sqldbtest.Response{Rows: [][]any{handlerDocumentRow("doc-1", "sent")}})
	h := newDocumentHandlers(t, sqlFake)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/documents/doc-1/file", nil)
	r.SetPathValue("id", "doc-1")
	h.DocumentFile(w, authedRequest(r))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "token=tkn")
}
