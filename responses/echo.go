package responses

import (
	"bytes"
	jsonv1 "encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/libresign/libresign/requests"
)

// EchoHandler mirrors the inbound request back as JSON. Debug aid only,
// registered under /api/ when debug options enable it.
type EchoHandler struct {
	MaxMemoryMB int64
}

func (h *EchoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resPayload := map[string]any{
		"url":    requests.FullURL(r),
		"method": r.Method,
		"header": r.Header,
	}

	if !requests.HasBody(r) {
		EncodeWriteJSON(w, http.StatusOK, resPayload)
		return
	}

	defer func() {
		if closeErr := r.Body.Close(); closeErr != nil {
			log.Printf("[ERROR] %v", closeErr)
		}
	}()

	rBodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		WriteSimpleErrorJSON(w, http.StatusInternalServerError, fmt.Sprintf("Failed to Read Data: %v", err))
		return
	}

	rBodyPayload := make(map[string]any)
	rBodyPayload["raw"] = string(rBodyBytes)

	// Body already consumed with io.ReadAll. Reassign r.Body to a no-op
	// closer on a copied buffer like rewinding it, so ParseMultipartForm
	// below can read it again.
	r.Body = io.NopCloser(bytes.NewReader(rBodyBytes))

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		var decoded any
		if err := jsonv1.Unmarshal(rBodyBytes, &decoded); err == nil {
			rBodyPayload["json"] = decoded
		}
	case strings.HasPrefix(contentType, "multipart/form-data"):
		if err := r.ParseMultipartForm(h.MaxMemoryMB << 20); err == nil && r.MultipartForm != nil {
			rBodyPayload["form"] = r.MultipartForm.Value
		}
	}

	resPayload["body"] = rBodyPayload
	EncodeWriteJSON(w, http.StatusOK, resPayload)
}
