package routing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tagWrapper struct {
	tag string
	log *[]string
}

func (w *tagWrapper) Wrap(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		*w.log = append(*w.log, w.tag)
		inner.ServeHTTP(rw, r)
	})
}

func TestGroupPrefixesMethodPatterns(t *testing.T) {
	router := NewBaseRouter()
	router.Group("/api", func(g *RouteGroup) {
		g.HandleFunc("GET /documents", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		g.HandleFunc("POST /documents", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/documents", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/documents", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestGroupWrappersRunOutsideRouteWrappers(t *testing.T) {
	var order []string
	router := NewBaseRouter()
	router.Group("/api", func(g *RouteGroup) {
		g.HandleFunc("GET /things", func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}, &tagWrapper{tag: "route", log: &order})
	}, &tagWrapper{tag: "group", log: &order})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/things", nil))
	assert.Equal(t, []string{"group", "route", "handler"}, order)
}

func TestSubgroupExtendsPrefixAndWrappers(t *testing.T) {
	var order []string
	router := NewBaseRouter()
	router.Group("/api", func(g *RouteGroup) {
		g.Group("/documents", func(sub *RouteGroup) {
			sub.HandleFunc("GET /{id}", func(w http.ResponseWriter, r *http.Request) {
				order = append(order, "id="+r.PathValue("id"))
			}, &tagWrapper{tag: "route", log: &order})
		}, &tagWrapper{tag: "sub", log: &order})
	}, &tagWrapper{tag: "outer", log: &order})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents/abc", nil))
	require.Equal(t, []string{"outer", "sub", "route", "id=abc"}, order)
}

func TestPathValueSurvivesWrapping(t *testing.T) {
	router := NewBaseRouter()
	var got string
	router.Group("/api", func(g *RouteGroup) {
		g.HandleFunc("DELETE /documents/{id}/fields/{fieldID}", func(w http.ResponseWriter, r *http.Request) {
			got = r.PathValue("id") + "/" + r.PathValue("fieldID")
		})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/documents/d1/fields/f9", nil))
	assert.Equal(t, "d1/f9", got)
}
