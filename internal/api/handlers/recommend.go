package handlers

import (
	"net/http"

	"github.com/carepal-health/carepal/internal/api/middleware"
	"github.com/carepal-health/carepal/internal/service"
)

type RecommendHandler struct {
	recommender *service.Recommender
	sessions    *service.SessionStore
}

func NewRecommendHandler(recommender *service.Recommender, sessions *service.SessionStore) *RecommendHandler {
	return &RecommendHandler{recommender: recommender, sessions: sessions}
}

type recommendationsResponse struct {
	Recommendations []string `json:"recommendations"`
}

// Welcome returns the four suggestions shown when a session opens.
func (h *RecommendHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	recs := h.recommender.Welcome(r.Context(), session.Customer.CustomerID)
	writeJSON(w, http.StatusOK, recommendationsResponse{Recommendations: recs})
}

// Contextual returns follow-ups for the intent named in the query string,
// defaulting to the last answered intent of the session.
func (h *RecommendHandler) Contextual(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	intent := r.URL.Query().Get("intent")
	if intent == "" {
		intent = h.sessions.LastIntent(session.Token)
	}
	if intent == "" {
		writeError(w, http.StatusBadRequest, "intent is required before any message has been answered")
		return
	}

	recs := h.recommender.Contextual(intent, session.Customer.CustomerID)
	writeJSON(w, http.StatusOK, recommendationsResponse{Recommendations: recs})
}
