package routing

import "net/http"

// HandlerWrapper acts as a middleware by wrapping an http.Handler,
// prepending/appending logic around the inner ServeHTTP(w,r).
// The returned handler can wrap another or be wrapped by another.
type HandlerWrapper interface {
	Wrap(http.Handler) http.Handler
}

// WrapperFunc adapts a plain function to HandlerWrapper.
type WrapperFunc func(http.Handler) http.Handler

func (f WrapperFunc) Wrap(inner http.Handler) http.Handler {
	return f(inner)
}
