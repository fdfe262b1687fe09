package documents

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var pdfMagic = []byte("%PDF-")

// LooksLikePDF is the cheap pre-check run before any network call.
func LooksLikePDF(contentType string, data []byte) bool {
	if contentType != "" && contentType != "application/pdf" {
		return false
	}
	return bytes.HasPrefix(data, pdfMagic)
}

// InspectPDF parses the document and returns its page count.
func InspectPDF(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err = pdfCtx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return pdfCtx.PageCount, nil
}
