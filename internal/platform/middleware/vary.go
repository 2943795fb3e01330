package middleware

import (
	"net/http"
	"strings"
)

// Vary appends the given request header names to the Vary response header,
// skipping names that are already listed.
func Vary(headers ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			AddVary(w.Header(), headers...)
			next.ServeHTTP(w, r)
		})
	}
}

// AddVary merges names into h's Vary header case-insensitively.
func AddVary(h http.Header, names ...string) {
	present := map[string]bool{}
	for _, v := range h.Values("Vary") {
		for part := range strings.SplitSeq(v, ",") {
			present[strings.ToLower(strings.TrimSpace(part))] = true
		}
	}
	for _, name := range names {
		key := strings.ToLower(name)
		if present[key] || present["*"] {
			continue
		}
		h.Add("Vary", name)
		present[key] = true
	}
}
