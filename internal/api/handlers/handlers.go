package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cajabot/cajabot/internal/api/middleware"
	"github.com/cajabot/cajabot/internal/dispatch"
	"github.com/cajabot/cajabot/internal/logger"
)

// Handler serves the caller-facing command endpoint.
type Handler struct {
	Dispatcher *dispatch.Dispatcher
}

// Routes builds the HTTP mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.health)
	mux.HandleFunc("/v1/command", h.command)
	return mux
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) command(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	if r.Method != http.MethodPost {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req dispatch.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("invalid command body")
		middleware.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.CallerID) == "" {
		log.Warn().Msg("command without callerId")
		middleware.WriteError(w, http.StatusBadRequest, "callerId is required")
		return
	}

	resp := h.Dispatcher.Handle(r.Context(), req)
	if resp.Suggestions == nil {
		resp.Suggestions = []string{}
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}
