package middleware

import "net/http"

type Middleware func(http.Handler) http.Handler

// Wrap applies mws so that the last one runs first.
func Wrap(h http.Handler, mws ...Middleware) http.Handler {
	for _, mw := range mws {
		h = mw(h)
	}
	return h
}

// StripPrefix mounts h under prefix, as configured by APP_BASE_PATH.
func StripPrefix(prefix string) Middleware {
	return func(h http.Handler) http.Handler {
		if prefix == "" || prefix == "/" {
			return h
		}
		return http.StripPrefix(prefix, h)
	}
}
