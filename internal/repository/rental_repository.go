package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Raymond9734/film-rental-frontdesk/internal/db"
	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

// Messages surfaced verbatim to the front desk
const (
	MsgItemAlreadyRented   = "Inventory item is already rented"
	MsgRentalAlreadyClosed = "Rental has already been returned"
	MsgCustomerInactive    = "Customer is not active"
)

// RentalRepository defines the interface for rental data access
type RentalRepository interface {
	Create(ctx context.Context, req *models.RentalRequest) (*models.Rental, error)
	GetByID(ctx context.Context, id int64) (*models.Rental, error)
	Return(ctx context.Context, id int64) (*models.Rental, error)
	RecordTally(ctx context.Context, rentalID int64) (bool, error)
}

// rentalRepository implements RentalRepository using PostgreSQL
type rentalRepository struct {
	db *sql.DB
}

// NewRentalRepository creates a new rental repository
func NewRentalRepository(db *sql.DB) RentalRepository {
	return &rentalRepository{db: db}
}

// Create opens a rental for an inventory copy. The inventory row is locked for
// the duration of the transaction and the partial unique index on open rentals
// backs the check up, so at most one open rental per copy can ever commit.
func (r *rentalRepository) Create(ctx context.Context, req *models.RentalRequest) (*models.Rental, error) {
	rental := &models.Rental{
		InventoryID: req.InventoryID,
		CustomerID:  req.CustomerID,
		StaffID:     req.StaffID,
	}

	err := db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		var inventoryID int64
		err := tx.QueryRowContext(ctx,
			`SELECT inventory_id FROM inventory WHERE inventory_id = $1 FOR UPDATE`,
			req.InventoryID,
		).Scan(&inventoryID)
		if err == sql.ErrNoRows {
			return models.ErrNotFoundWithMsg(fmt.Sprintf("inventory item with ID %d not found", req.InventoryID))
		}
		if err != nil {
			return fmt.Errorf("failed to lock inventory item: %w", err)
		}

		var active bool
		err = tx.QueryRowContext(ctx,
			`SELECT active FROM customer WHERE customer_id = $1`,
			req.CustomerID,
		).Scan(&active)
		if err == sql.ErrNoRows {
			return models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", req.CustomerID))
		}
		if err != nil {
			return fmt.Errorf("failed to get customer: %w", err)
		}
		if !active {
			return models.ErrConflictWithMsg(MsgCustomerInactive)
		}

		var open bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM rental WHERE inventory_id = $1 AND return_date IS NULL)`,
			req.InventoryID,
		).Scan(&open)
		if err != nil {
			return fmt.Errorf("failed to check open rentals: %w", err)
		}
		if open {
			return models.ErrConflictWithMsg(MsgItemAlreadyRented)
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO rental (rental_date, inventory_id, customer_id, staff_id)
			VALUES (NOW(), $1, $2, $3)
			RETURNING rental_id, rental_date`,
			req.InventoryID, req.CustomerID, req.StaffID,
		).Scan(&rental.ID, &rental.RentalDate)
		if isUniqueViolation(err) {
			return models.ErrConflictWithMsg(MsgItemAlreadyRented)
		}
		if isForeignKeyViolation(err) {
			return models.ErrNotFoundWithMsg(fmt.Sprintf("staff member with ID %d not found", req.StaffID))
		}
		if err != nil {
			return fmt.Errorf("failed to insert rental: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rental, nil
}

// GetByID retrieves a rental by ID
func (r *rentalRepository) GetByID(ctx context.Context, id int64) (*models.Rental, error) {
	query := `
		SELECT rental_id, rental_date, inventory_id, customer_id, staff_id, return_date
		FROM rental
		WHERE rental_id = $1`

	rental := &models.Rental{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rental.ID,
		&rental.RentalDate,
		&rental.InventoryID,
		&rental.CustomerID,
		&rental.StaffID,
		&rental.ReturnDate,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("rental with ID %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rental: %w", err)
	}

	return rental, nil
}

// Return closes an open rental, making its inventory copy available again
func (r *rentalRepository) Return(ctx context.Context, id int64) (*models.Rental, error) {
	query := `
		UPDATE rental
		SET return_date = NOW(), last_update = NOW()
		WHERE rental_id = $1 AND return_date IS NULL
		RETURNING rental_id, rental_date, inventory_id, customer_id, staff_id, return_date`

	rental := &models.Rental{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rental.ID,
		&rental.RentalDate,
		&rental.InventoryID,
		&rental.CustomerID,
		&rental.StaffID,
		&rental.ReturnDate,
	)
	if err == sql.ErrNoRows {
		// Either unknown or already closed; tell the two apart.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, models.ErrConflictWithMsg(MsgRentalAlreadyClosed)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to return rental: %w", err)
	}

	return rental, nil
}

// RecordTally adds a rental to its film's tally exactly once. It reports false
// when the rental had already been counted.
func (r *rentalRepository) RecordTally(ctx context.Context, rentalID int64) (bool, error) {
	applied := false

	err := db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO processed_rental_event (rental_id) VALUES ($1) ON CONFLICT DO NOTHING`,
			rentalID,
		)
		if isForeignKeyViolation(err) {
			return models.ErrNotFoundWithMsg(fmt.Sprintf("rental with ID %d not found", rentalID))
		}
		if err != nil {
			return fmt.Errorf("failed to mark rental event: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO film_rental_tally (film_id, rental_count)
			SELECT i.film_id, 1
			FROM rental r JOIN inventory i ON i.inventory_id = r.inventory_id
			WHERE r.rental_id = $1
			ON CONFLICT (film_id) DO UPDATE
			SET rental_count = film_rental_tally.rental_count + 1, last_update = NOW()`,
			rentalID,
		)
		if err != nil {
			return fmt.Errorf("failed to update film tally: %w", err)
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return applied, nil
}
