// Package livemap is the presentation tier: a small server that serves the
// live map page and proxies its API calls to the query surface. It holds no
// state of its own.
package livemap

import (
	"embed"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
)

//go:embed static/index.html
var staticFS embed.FS

// NewHandler returns the live-map routes: the map page at / and a reverse
// proxy for the query API under /api/.
func NewHandler(upstream *url.URL) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		// /api/active on this server is /active on the query surface.
		r.URL.Path = r.URL.Path[len("/api"):]
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("livemap: proxy %s: %v", r.URL.Path, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"failed to reach tracker API"}`))
	}

	mux := http.NewServeMux()
	mux.Handle("GET /api/", proxy)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		page, err := staticFS.ReadFile("static/index.html")
		if err != nil {
			http.Error(w, "map page unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})
	return mux
}
