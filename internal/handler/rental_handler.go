package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
	"github.com/Raymond9734/film-rental-frontdesk/internal/service"
)

// RentalHandler handles rental HTTP requests
type RentalHandler struct {
	rentalService service.RentalService
	logger        *slog.Logger
}

// NewRentalHandler creates a new rental handler
func NewRentalHandler(rentalService service.RentalService, logger *slog.Logger) *RentalHandler {
	return &RentalHandler{
		rentalService: rentalService,
		logger:        logger,
	}
}

// CreateRental handles POST /rentals
func (h *RentalHandler) CreateRental(w http.ResponseWriter, r *http.Request) {
	var req models.RentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	confirmation, err := h.rentalService.Create(r.Context(), &req)
	if err != nil {
		writeFailure(w, r, err, h.logger)
		return
	}

	writeCreated(w, confirmation)
}

// ReturnRental handles POST /rentals/{id}/return
func (h *RentalHandler) ReturnRental(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "Invalid rental ID")
		return
	}

	result, err := h.rentalService.Return(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err, h.logger)
		return
	}

	writeOK(w, result)
}
