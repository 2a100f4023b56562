package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
	"github.com/Raymond9734/film-rental-frontdesk/internal/service"
)

// CustomerHandler handles customer directory HTTP requests
type CustomerHandler struct {
	customerService service.CustomerService
	logger          *slog.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService service.CustomerService, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		logger:          logger,
	}
}

// ListCustomers handles GET /customers?page&limit&search&type
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	filter := models.CustomerFilter{
		Search:   query.Get("search"),
		Field:    models.SearchField(query.Get("type")),
		Page:     page,
		PageSize: limit,
	}

	result, err := h.customerService.List(r.Context(), filter)
	if err != nil {
		writeFailure(w, r, err, h.logger)
		return
	}

	writeOK(w, result)
}

// ListAllCustomers handles GET /customers/all
func (h *CustomerHandler) ListAllCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customerService.ListActive(r.Context())
	if err != nil {
		writeFailure(w, r, err, h.logger)
		return
	}

	writeOK(w, customers)
}

// GetCustomer handles GET /customers/{id}
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID")
		return
	}

	customer, err := h.customerService.GetByID(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err, h.logger)
		return
	}

	writeOK(w, customer)
}

// CreateCustomer handles POST /customers
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var input models.CustomerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	customer, err := h.customerService.Create(r.Context(), input)
	if err != nil {
		writeFailure(w, r, err, h.logger)
		return
	}

	writeCreated(w, customer)
}

// UpdateCustomer handles PUT /customers/{id}
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID")
		return
	}

	var input models.CustomerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	customer, err := h.customerService.Update(r.Context(), id, input)
	if err != nil {
		writeFailure(w, r, err, h.logger)
		return
	}

	writeOK(w, customer)
}

// DeleteCustomer handles DELETE /customers/{id}; the customer is deactivated
func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID")
		return
	}

	if err := h.customerService.Deactivate(r.Context(), id); err != nil {
		writeFailure(w, r, err, h.logger)
		return
	}

	writeOK(w, service.MessageResult{Message: "Customer deactivated successfully"})
}
