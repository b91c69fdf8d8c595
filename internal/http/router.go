package http

import (
	"net/http"
)

// Registrar mounts a handler group on the mux.
type Registrar interface {
	Register(mux *http.ServeMux)
}

type Router struct {
	mux *http.ServeMux
}

func NewRouter(groups ...Registrar) *Router {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	for _, group := range groups {
		group.Register(mux)
	}

	return &Router{mux: mux}
}

func (r *Router) Handler() http.Handler {
	return r.mux
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
