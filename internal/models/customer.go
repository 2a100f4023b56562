package models

import (
	"strings"
	"time"
)

// Customer represents a store customer in the directory
type Customer struct {
	ID         int64     `json:"customer_id"`
	StoreID    int64     `json:"store_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	CreateDate time.Time `json:"create_date"`
	Active     bool      `json:"active"`
}

// FullName returns "first last"
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// CustomerInput is the body accepted by create and update calls
type CustomerInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	StoreID   int64  `json:"store_id"`
}

// Normalize trims whitespace from every text field
func (in CustomerInput) Normalize() CustomerInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	return in
}

// Validate checks the required fields. It is run on both sides of the wire.
func (in CustomerInput) Validate() error {
	in = in.Normalize()
	if in.FirstName == "" {
		return ErrInvalidInput("first name is required")
	}
	if in.LastName == "" {
		return ErrInvalidInput("last name is required")
	}
	if in.Email == "" {
		return ErrInvalidInput("email is required")
	}
	if !strings.Contains(in.Email, "@") {
		return ErrInvalidInput("email must contain '@'")
	}
	if in.StoreID < 0 {
		return ErrInvalidInput("store_id must not be negative")
	}
	return nil
}

// SearchField selects which customer attribute a directory search matches
type SearchField string

// Search field constants
const (
	SearchByName      SearchField = "name"
	SearchByID        SearchField = "id"
	SearchByFirstName SearchField = "first_name"
	SearchByLastName  SearchField = "last_name"
)

// IsValid reports whether f is a known search field
func (f SearchField) IsValid() bool {
	switch f {
	case SearchByName, SearchByID, SearchByFirstName, SearchByLastName:
		return true
	default:
		return false
	}
}

// CustomerFilter holds filtering options for listing customers
type CustomerFilter struct {
	Search   string
	Field    SearchField
	Page     int
	PageSize int
}

// CustomerPage is the listing response body
type CustomerPage struct {
	Customers  []*Customer     `json:"customers"`
	Pagination PaginationState `json:"pagination"`
}
