package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"dailygraph-quiz/internal/app"
	"dailygraph-quiz/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	CORSOrigins    []string
	SitemapBaseURL string
}

// NewRouter mounts the REST endpoints and the attempt websocket.
func NewRouter(service *app.QuizService, ws *WSHandler, cfg RouterConfig) http.Handler {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	h := &restHandler{service: service, baseURL: cfg.SitemapBaseURL}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	// websocket connections are long-lived; only the REST routes get a deadline
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Get("/entries", h.listEntries)
		r.Get("/entries/{id}", h.getEntry)
		r.Get("/months", h.listMonths)
		r.Get("/weeks", h.listWeeks)
		r.Route("/learners/{learner}", func(r chi.Router) {
			r.Get("/resumable", h.resumable)
			r.Get("/results", h.results)
			r.Delete("/progress/{id}", h.discardProgress)
		})
		r.Get("/sitemap.xml", h.sitemap)
	})
	return r
}

type restHandler struct {
	service *app.QuizService
	baseURL string
}

func (h *restHandler) listEntries(w http.ResponseWriter, r *http.Request) {
	source := domain.Source(r.URL.Query().Get("source"))
	if source == "" {
		source = domain.SourceDaily
	}
	page := parseIntDefault(r.URL.Query().Get("page"), 0)
	entries, err := h.service.Catalog(r.Context(), source, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *restHandler) getEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Entry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *restHandler) listMonths(w http.ResponseWriter, r *http.Request) {
	months, err := h.service.Months(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, months)
}

func (h *restHandler) listWeeks(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "missing month"})
		return
	}
	weeks, err := h.service.Weeks(r.Context(), month)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, weeks)
}

func (h *restHandler) resumable(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.Resumable(r.Context(), chi.URLParam(r, "learner"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

func (h *restHandler) results(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Results(r.Context(), chi.URLParam(r, "learner")))
}

func (h *restHandler) discardProgress(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DiscardProgress(r.Context(), chi.URLParam(r, "learner"), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *restHandler) sitemap(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Sitemap(r.Context(), h.baseURL)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(doc)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrEntryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownSource):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrWeekLocked), errors.Is(err, domain.ErrNoQuestions):
		status = http.StatusConflict
	default:
		log.Printf("request failed: %v", err)
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
