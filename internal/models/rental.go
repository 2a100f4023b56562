package models

import "time"

// Rental records that a customer took an inventory copy.
// It is open while ReturnDate is nil.
type Rental struct {
	ID          int64      `json:"rental_id"`
	RentalDate  time.Time  `json:"rental_date"`
	InventoryID int64      `json:"inventory_id"`
	CustomerID  int64      `json:"customer_id"`
	StaffID     int64      `json:"staff_id"`
	ReturnDate  *time.Time `json:"return_date,omitempty"`
}

// IsOpen reports whether the rental has no recorded return
func (r *Rental) IsOpen() bool {
	return r.ReturnDate == nil
}

// RentalRequest is the body of a rental-creation call
type RentalRequest struct {
	CustomerID  int64 `json:"customer_id"`
	InventoryID int64 `json:"inventory_id"`
	StaffID     int64 `json:"staff_id"`
}

// Validate performs validation on the rental request
func (r *RentalRequest) Validate() error {
	if r.CustomerID <= 0 {
		return ErrInvalidInput("customer_id is required")
	}
	if r.InventoryID <= 0 {
		return ErrInvalidInput("inventory_id is required")
	}
	if r.StaffID <= 0 {
		return ErrInvalidInput("staff_id is required")
	}
	return nil
}

// RentalConfirmation is returned by a successful rental-creation call
type RentalConfirmation struct {
	Message string  `json:"message"`
	Rental  *Rental `json:"rental,omitempty"`
}

// RentalJob is queued after a rental is committed
type RentalJob struct {
	RentalID      int64  `json:"rental_id"`
	InventoryID   int64  `json:"inventory_id"`
	CorrelationID string `json:"correlation_id"`
	// Attempts counts earlier deliveries that failed
	Attempts int `json:"attempts,omitempty"`
}
