package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

// TallyRecorder is the slice of the rental repository the processor needs
type TallyRecorder interface {
	RecordTally(ctx context.Context, rentalID int64) (bool, error)
}

// RentalEventProcessor keeps the per-film rental tally in step with committed rentals
type RentalEventProcessor struct {
	tally  TallyRecorder
	logger *slog.Logger
}

// NewRentalEventProcessor creates a new rental event processor
func NewRentalEventProcessor(tally TallyRecorder, logger *slog.Logger) *RentalEventProcessor {
	return &RentalEventProcessor{
		tally:  tally,
		logger: logger,
	}
}

// Process handles a single rental job. Redelivered jobs are counted once;
// jobs for unknown rentals are dropped.
func (p *RentalEventProcessor) Process(ctx context.Context, job *models.RentalJob) error {
	if job.RentalID <= 0 {
		p.logger.Warn("dropping rental job without rental id",
			slog.String("correlation_id", job.CorrelationID),
		)
		return nil
	}

	applied, err := p.tally.RecordTally(ctx, job.RentalID)
	if errors.Is(err, models.ErrNotFound) {
		p.logger.Warn("dropping rental job for unknown rental",
			slog.Int64("rental_id", job.RentalID),
			slog.String("correlation_id", job.CorrelationID),
		)
		return nil
	}
	if err != nil {
		p.logger.Error("failed to record rental tally",
			slog.Int64("rental_id", job.RentalID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to record rental tally: %w", err)
	}

	if !applied {
		p.logger.Info("rental already tallied",
			slog.Int64("rental_id", job.RentalID),
		)
		return nil
	}

	p.logger.Info("rental tallied",
		slog.Int64("rental_id", job.RentalID),
		slog.Int64("inventory_id", job.InventoryID),
		slog.String("correlation_id", job.CorrelationID),
	)
	return nil
}
