package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
	"github.com/Raymond9734/film-rental-frontdesk/internal/queue"
	"github.com/Raymond9734/film-rental-frontdesk/internal/repository"
)

// RentalService handles rental creation and returns
type RentalService interface {
	Create(ctx context.Context, req *models.RentalRequest) (*models.RentalConfirmation, error)
	Return(ctx context.Context, id int64) (*MessageResult, error)
}

type rentalService struct {
	rentalRepo  repository.RentalRepository
	queueClient queue.Client
	logger      *slog.Logger
}

// NewRentalService creates a new rental service. queueClient may be nil, in
// which case no rental events are published.
func NewRentalService(
	rentalRepo repository.RentalRepository,
	queueClient queue.Client,
	logger *slog.Logger,
) RentalService {
	return &rentalService{
		rentalRepo:  rentalRepo,
		queueClient: queueClient,
		logger:      logger,
	}
}

// Create opens a rental and publishes a rental event once it is committed
func (s *rentalService) Create(ctx context.Context, req *models.RentalRequest) (*models.RentalConfirmation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rental, err := s.rentalRepo.Create(ctx, req)
	if err != nil {
		s.logger.Warn("rental rejected",
			slog.Int64("customer_id", req.CustomerID),
			slog.Int64("inventory_id", req.InventoryID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("rental created",
		slog.Int64("rental_id", rental.ID),
		slog.Int64("customer_id", rental.CustomerID),
		slog.Int64("inventory_id", rental.InventoryID),
		slog.Int64("staff_id", rental.StaffID),
	)

	if s.queueClient != nil {
		job := &models.RentalJob{
			RentalID:      rental.ID,
			InventoryID:   rental.InventoryID,
			CorrelationID: uuid.NewString(),
		}
		// The rental is already committed; a lost event only delays the tally.
		if err := s.queueClient.Publish(ctx, job); err != nil {
			s.logger.Error("failed to publish rental event",
				slog.Int64("rental_id", rental.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return &models.RentalConfirmation{
		Message: fmt.Sprintf("Rental %d created successfully", rental.ID),
		Rental:  rental,
	}, nil
}

// Return closes an open rental
func (s *rentalService) Return(ctx context.Context, id int64) (*MessageResult, error) {
	rental, err := s.rentalRepo.Return(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("rental returned",
		slog.Int64("rental_id", rental.ID),
		slog.Int64("inventory_id", rental.InventoryID),
	)

	return &MessageResult{Message: fmt.Sprintf("Rental %d returned", rental.ID)}, nil
}
