package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

// CustomerRepository defines the interface for customer data access
type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id int64) (*models.Customer, error)
	GetActiveByEmail(ctx context.Context, email string) (*models.Customer, error)
	List(ctx context.Context, filter models.CustomerFilter) ([]*models.Customer, int64, error)
	ListActive(ctx context.Context) ([]*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	Deactivate(ctx context.Context, id int64) error
}

// customerRepository implements CustomerRepository using PostgreSQL
type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `customer_id, store_id, first_name, last_name, email, create_date, active`

func scanCustomer(row interface{ Scan(...any) error }) (*models.Customer, error) {
	customer := &models.Customer{}
	err := row.Scan(
		&customer.ID,
		&customer.StoreID,
		&customer.FirstName,
		&customer.LastName,
		&customer.Email,
		&customer.CreateDate,
		&customer.Active,
	)
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// Create inserts a new active customer
func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customer (store_id, first_name, last_name, email, active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING customer_id, create_date, active`

	err := r.db.QueryRowContext(
		ctx,
		query,
		customer.StoreID,
		customer.FirstName,
		customer.LastName,
		customer.Email,
	).Scan(&customer.ID, &customer.CreateDate, &customer.Active)

	if isUniqueViolation(err) {
		return models.ErrConflictWithMsg(fmt.Sprintf("a customer with email %s already exists", customer.Email))
	}
	if isForeignKeyViolation(err) {
		return models.ErrInvalidInput(fmt.Sprintf("store %d does not exist", customer.StoreID))
	}
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// GetByID retrieves a customer by ID, active or not
func (r *customerRepository) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customer WHERE customer_id = $1`

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return customer, nil
}

// GetActiveByEmail retrieves the active customer owning email
func (r *customerRepository) GetActiveByEmail(ctx context.Context, email string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customer WHERE lower(email) = lower($1) AND active`

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("customer with email %s not found", email))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer by email: %w", err)
	}

	return customer, nil
}

// searchClause returns the WHERE fragment and its argument for a directory search
func searchClause(filter models.CustomerFilter, argPos int) (string, any, error) {
	search := strings.TrimSpace(filter.Search)
	if search == "" {
		return "", nil, nil
	}

	switch filter.Field {
	case models.SearchByID:
		id, err := strconv.ParseInt(search, 10, 64)
		if err != nil {
			return "", nil, models.ErrInvalidInput("customer ID search requires a number")
		}
		return fmt.Sprintf(" AND customer_id = $%d", argPos), id, nil
	case models.SearchByFirstName:
		return fmt.Sprintf(" AND first_name ILIKE $%d", argPos), containsPattern(search), nil
	case models.SearchByLastName:
		return fmt.Sprintf(" AND last_name ILIKE $%d", argPos), containsPattern(search), nil
	default:
		return fmt.Sprintf(
			" AND (first_name ILIKE $%[1]d OR last_name ILIKE $%[1]d OR (first_name || ' ' || last_name) ILIKE $%[1]d)",
			argPos,
		), containsPattern(search), nil
	}
}

// List retrieves customers with pagination and search filtering
func (r *customerRepository) List(ctx context.Context, filter models.CustomerFilter) ([]*models.Customer, int64, error) {
	models.ValidateAndSetDefaults(&filter.Page, &filter.PageSize)

	query := `SELECT ` + customerColumns + ` FROM customer WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM customer WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	clause, arg, err := searchClause(filter, argPos)
	if err != nil {
		return nil, 0, err
	}
	if clause != "" {
		query += clause
		countQuery += clause
		args = append(args, arg)
		argPos++
	}

	var totalCount int64
	err = r.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	offset := models.CalculateOffset(filter.Page, filter.PageSize)
	query += fmt.Sprintf(" ORDER BY customer_id ASC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []*models.Customer{}
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, totalCount, nil
}

// ListActive returns every active customer ordered by name, for rental selection
func (r *customerRepository) ListActive(ctx context.Context) ([]*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customer WHERE active ORDER BY last_name, first_name, customer_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active customers: %w", err)
	}
	defer rows.Close()

	customers := []*models.Customer{}
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, nil
}

// Update updates the editable fields of an existing customer
func (r *customerRepository) Update(ctx context.Context, customer *models.Customer) error {
	query := `
		UPDATE customer
		SET store_id = $1, first_name = $2, last_name = $3, email = $4, last_update = NOW()
		WHERE customer_id = $5
		RETURNING create_date, active`

	err := r.db.QueryRowContext(
		ctx,
		query,
		customer.StoreID,
		customer.FirstName,
		customer.LastName,
		customer.Email,
		customer.ID,
	).Scan(&customer.CreateDate, &customer.Active)

	if err == sql.ErrNoRows {
		return models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", customer.ID))
	}
	if isUniqueViolation(err) {
		return models.ErrConflictWithMsg(fmt.Sprintf("a customer with email %s already exists", customer.Email))
	}
	if isForeignKeyViolation(err) {
		return models.ErrInvalidInput(fmt.Sprintf("store %d does not exist", customer.StoreID))
	}
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}

	return nil
}

// Deactivate soft-deletes a customer by clearing its active flag
func (r *customerRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE customer SET active = FALSE, last_update = NOW() WHERE customer_id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate customer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", id))
	}

	return nil
}
