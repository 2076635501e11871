package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"formula-trivia/internal/app"
	"formula-trivia/internal/domain"
)

// RESTHandler serves the read-only HTTP endpoints.
type RESTHandler struct {
	service *app.GameService
}

func NewRESTHandler(service *app.GameService) *RESTHandler {
	return &RESTHandler{service: service}
}

func (h *RESTHandler) Levels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newLevelViews(h.service.Levels()))
}

// Leaderboard serves GET /leaderboard?level=&limit=.
func (h *RESTHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(r.URL.Query().Get("level"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid level"})
		return
	}
	limit := app.DefaultLeaderboardSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > 100 {
			writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid limit"})
			return
		}
	}

	lb, err := h.service.Leaderboard(r.Context(), level, limit)
	if errors.Is(err, domain.ErrUnknownLevel) {
		writeJSON(w, http.StatusNotFound, errorPayload{Message: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: "leaderboard unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, newLeaderboardView(lb))
}

func (h *RESTHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
