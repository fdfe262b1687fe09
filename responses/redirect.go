package responses

import (
	"net/http"
	"net/url"
)

// Redirect302 issues a plain 302 to the given path.
func Redirect302(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusFound)
}

// RedirectWithQuery issues a 302 to path with the given query parameters.
// Values are URL-encoded; empty values are skipped.
func RedirectWithQuery(w http.ResponseWriter, r *http.Request, path string, params map[string]string) {
	q := url.Values{}
	for k, v := range params {
		if v == "" {
			continue
		}
		q.Set(k, v)
	}
	if encoded := q.Encode(); encoded != "" {
		path = path + "?" + encoded
	}
	http.Redirect(w, r, path, http.StatusFound)
}
