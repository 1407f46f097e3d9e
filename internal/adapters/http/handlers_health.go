package http

import (
	"net/http"
	"sort"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.checks[name](r.Context()); err != nil {
			logHTTPOperationError(r.Context(), "readyz", http.StatusServiceUnavailable, "NOT_READY", name+" unavailable", err)
			writeError(w, http.StatusServiceUnavailable, "NOT_READY", name+" unavailable")
			return
		}
	}
	writeMessage(w, http.StatusOK, "ready")
}
