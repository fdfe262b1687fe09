package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikePDF(t *testing.T) {
	pdf := []byte("%PDF-1.7\n...")

	assert.True(t, LooksLikePDF("application/pdf", pdf))
	assert.True(t, LooksLikePDF("", pdf), "browsers sometimes omit the content type")

	assert.False(t, LooksLikePDF("text/plain", pdf))
	assert.False(t, LooksLikePDF("application/pdf", []byte("MZ...")))
	assert.False(t, LooksLikePDF("application/pdf", nil))
	assert.False(t, LooksLikePDF("image/png", []byte("\x89PNG")))
}

func TestInspectPDFRejectsGarbage(t *testing.T) {
	_, err := InspectPDF([]byte("%PDF-1.7 but not actually a pdf"))
	assert.Error(t, err)
}
