package handler

import (
	"log/slog"
	"net/http"

	"github.com/Raymond9734/film-rental-frontdesk/internal/service"
)

// FilmHandler handles catalog HTTP requests
type FilmHandler struct {
	filmService service.FilmService
	logger      *slog.Logger
}

// NewFilmHandler creates a new film handler
func NewFilmHandler(filmService service.FilmService, logger *slog.Logger) *FilmHandler {
	return &FilmHandler{
		filmService: filmService,
		logger:      logger,
	}
}

// GetFilm handles GET /film/{id}
func (h *FilmHandler) GetFilm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "Invalid film ID")
		return
	}

	details, err := h.filmService.GetDetails(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err, h.logger)
		return
	}

	writeOK(w, details)
}

// GetInventory handles GET /film/{id}/inventory
func (h *FilmHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "Invalid film ID")
		return
	}

	items, err := h.filmService.Inventory(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err, h.logger)
		return
	}

	writeOK(w, items)
}

// SearchFilms handles GET /search-films?query&type
func (h *FilmHandler) SearchFilms(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	films, err := h.filmService.Search(r.Context(), query.Get("query"), query.Get("type"))
	if err != nil {
		writeFailure(w, r, err, h.logger)
		return
	}

	writeOK(w, films)
}

// TopRentedFilms handles GET /top-rented-films
func (h *FilmHandler) TopRentedFilms(w http.ResponseWriter, r *http.Request) {
	films, err := h.filmService.TopRented(r.Context())
	if err != nil {
		writeFailure(w, r, err, h.logger)
		return
	}

	writeOK(w, films)
}

// TopActors handles GET /top-actors
func (h *FilmHandler) TopActors(w http.ResponseWriter, r *http.Request) {
	actors, err := h.filmService.TopActors(r.Context())
	if err != nil {
		writeFailure(w, r, err, h.logger)
		return
	}

	writeOK(w, actors)
}
