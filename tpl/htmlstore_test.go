package tpl

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newLoadedStore(t *testing.T) *HTMLTemplateStore {
	t.Helper()
	dir := t.TempDir()
	writeTemplate(t, dir, "base.gohtml",
		`<html><body>{{template "content" .}}</body></html>`)
	writeTemplate(t, dir, "greeting.gohtml",
		`{{define "content"}}<h1>Hello {{.Name}}</h1>{{end}}`)

	s := NewHTMLTemplateStore()
	require.NoError(t, s.LoadBaseTemplates(dir))
	return s
}

func TestLoadBaseTemplates(t *testing.T) {
	s := newLoadedStore(t)
	assert.Contains(t, s.Base, "base")
	assert.Contains(t, s.Base, "greeting")
}

func TestLoadBaseTemplatesSkipsHiddenAndForeignFiles(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "base.gohtml", `ok`)
	writeTemplate(t, dir, ".hidden.gohtml", `nope`)
	writeTemplate(t, dir, "readme.txt", `nope`)

	s := NewHTMLTemplateStore()
	require.NoError(t, s.LoadBaseTemplates(dir))
	assert.Len(t, s.Base, 1)
}

func TestComposeAndRender(t *testing.T) {
	s := newLoadedStore(t)
	require.NoError(t, s.Compose("greeting_page", "base", "greeting"))

	w := httptest.NewRecorder()
	s.Render(w, "greeting_page", map[string]string{"Name": "World"})

	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "<html><body><h1>Hello World</h1></body></html>", w.Body.String())
}

func TestComposeUnknownKeys(t *testing.T) {
	s := newLoadedStore(t)
	assert.Error(t, s.Compose("x", "missing-layout", "greeting"))
	assert.Error(t, s.Compose("x", "base", "missing-page"))
}

func TestComposeRejectsDuplicateKey(t *testing.T) {
	s := newLoadedStore(t)
	require.NoError(t, s.Compose("page", "base", "greeting"))
	assert.Error(t, s.Compose("page", "base", "greeting"))
}

func TestRenderUnknownKeyIs500(t *testing.T) {
	s := newLoadedStore(t)
	w := httptest.NewRecorder()
	s.Render(w, "nope", nil)
	assert.Equal(t, 500, w.Code)
}
