package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/DoyleJ11/card-arena-backend/internal/engine"
	"github.com/DoyleJ11/card-arena-backend/internal/hub"
	"github.com/DoyleJ11/card-arena-backend/internal/session"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SessionSummary struct {
	ID           string `json:"id"`
	Started      bool   `json:"started"`
	Turn         int    `json:"turn"`
	Participants int    `json:"participants"`
	Active       int    `json:"active"`
	Humans       int    `json:"humans"`
	Connected    int    `json:"connected"`
}

func summarize(v session.View) SessionSummary {
	s := SessionSummary{
		ID:           v.ID,
		Started:      v.Started,
		Turn:         v.Turn,
		Participants: len(v.Participants),
		Connected:    len(v.Connected),
	}
	for _, p := range v.Participants {
		if p.Active {
			s.Active++
		}
		if !p.IsAI {
			s.Humans++
		}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func Prune(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := h.Prune(r.Context())
		if err != nil {
			log.Error("admin prune", zap.Error(err))
			http.Error(w, "prune failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Removed int `json:"removed"`
		}{n})
	}
}

func FullClean(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := h.FullClean(r.Context())
		if err != nil {
			log.Error("admin full clean", zap.Error(err))
			http.Error(w, "clean failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Removed int `json:"removed"`
		}{n})
	}
}

func ListSessions(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := h.Sessions(r.Context())
		if err != nil {
			http.Error(w, "hub unavailable", http.StatusServiceUnavailable)
			return
		}
		out := make([]SessionSummary, 0, len(sessions))
		for _, s := range sessions {
			v, err := s.State(r.Context())
			if err != nil {
				// ended while we were listing
				continue
			}
			out = append(out, summarize(v))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		writeJSON(w, http.StatusOK, out)
	}
}

// AddBot seats an AI participant in a specific session.
func AddBot(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s := h.Lookup(r.Context(), id)
		if s == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		p, err := s.AddAI(r.Context())
		switch {
		case errors.Is(err, engine.ErrSessionFull):
			http.Error(w, err.Error(), http.StatusConflict)
			return
		case errors.Is(err, session.ErrSessionClosed):
			http.Error(w, "session not found", http.StatusNotFound)
			return
		case err != nil:
			log.Error("admin add bot", zap.String("session_id", id), zap.Error(err))
			http.Error(w, "add bot failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, struct {
			ID       int    `json:"id"`
			Username string `json:"username"`
		}{p.ID, p.Username})
	}
}
