package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
	"github.com/Raymond9734/film-rental-frontdesk/internal/repository"
)

// DefaultStoreID is assigned to customers created without a store
const DefaultStoreID = 1

// CustomerService handles customer directory business logic
type CustomerService interface {
	Create(ctx context.Context, input models.CustomerInput) (*models.Customer, error)
	GetByID(ctx context.Context, id int64) (*models.Customer, error)
	List(ctx context.Context, filter models.CustomerFilter) (*models.CustomerPage, error)
	ListActive(ctx context.Context) ([]*models.Customer, error)
	Update(ctx context.Context, id int64, input models.CustomerInput) (*models.Customer, error)
	Deactivate(ctx context.Context, id int64) error
}

type customerService struct {
	customerRepo repository.CustomerRepository
	logger       *slog.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(
	customerRepo repository.CustomerRepository,
	logger *slog.Logger,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// ensureEmailFree fails with a conflict when another active customer owns email
func (s *customerService) ensureEmailFree(ctx context.Context, email string, selfID int64) error {
	existing, err := s.customerRepo.GetActiveByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if existing.ID != selfID {
		return models.ErrConflictWithMsg(fmt.Sprintf("a customer with email %s already exists", email))
	}
	return nil
}

// Create creates a new active customer
func (s *customerService) Create(ctx context.Context, input models.CustomerInput) (*models.Customer, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	input = input.Normalize()
	if input.StoreID == 0 {
		input.StoreID = DefaultStoreID
	}

	if err := s.ensureEmailFree(ctx, input.Email, 0); err != nil {
		return nil, err
	}

	customer := &models.Customer{
		StoreID:   input.StoreID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		s.logger.Error("failed to create customer",
			slog.String("email", customer.Email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.Info("customer created",
		slog.Int64("customer_id", customer.ID),
		slog.Int64("store_id", customer.StoreID),
	)

	return customer, nil
}

// GetByID retrieves a customer by ID
func (s *customerService) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	return s.customerRepo.GetByID(ctx, id)
}

// List retrieves a page of the directory
func (s *customerService) List(ctx context.Context, filter models.CustomerFilter) (*models.CustomerPage, error) {
	if filter.Field == "" {
		filter.Field = models.SearchByName
	}
	if !filter.Field.IsValid() {
		return nil, models.ErrInvalidInput(fmt.Sprintf("invalid search type: %s", filter.Field))
	}

	customers, totalCount, err := s.customerRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	models.ValidateAndSetDefaults(&filter.Page, &filter.PageSize)

	return &models.CustomerPage{
		Customers:  customers,
		Pagination: models.NewPaginationState(filter.Page, filter.PageSize, totalCount),
	}, nil
}

// ListActive returns all active customers
func (s *customerService) ListActive(ctx context.Context) ([]*models.Customer, error) {
	customers, err := s.customerRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active customers: %w", err)
	}
	return customers, nil
}

// Update replaces the editable fields of a customer
func (s *customerService) Update(ctx context.Context, id int64, input models.CustomerInput) (*models.Customer, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	input = input.Normalize()

	current, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.StoreID == 0 {
		input.StoreID = current.StoreID
	}

	if current.Active {
		if err := s.ensureEmailFree(ctx, input.Email, id); err != nil {
			return nil, err
		}
	}

	customer := &models.Customer{
		ID:        id,
		StoreID:   input.StoreID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		s.logger.Error("failed to update customer",
			slog.Int64("customer_id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	s.logger.Info("customer updated",
		slog.Int64("customer_id", id),
	)

	return customer, nil
}

// Deactivate soft-deletes a customer
func (s *customerService) Deactivate(ctx context.Context, id int64) error {
	if err := s.customerRepo.Deactivate(ctx, id); err != nil {
		s.logger.Error("failed to deactivate customer",
			slog.Int64("customer_id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to deactivate customer: %w", err)
	}

	s.logger.Info("customer deactivated",
		slog.Int64("customer_id", id),
	)

	return nil
}
