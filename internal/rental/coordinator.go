// Package rental runs the rent-a-film dialog: load customers and available
// copies, take one selection of each, submit, then re-check availability.
package rental

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Raymond9734/film-rental-frontdesk/internal/inventory"
	"github.com/Raymond9734/film-rental-frontdesk/internal/modal"
	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

// DefaultStaffID acts for every rental in the absence of sign-in
const DefaultStaffID int64 = 1

// Phase is the coordinator state
type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Submitting
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Backend is the part of the REST client the coordinator needs
type Backend interface {
	inventory.Source
	AllCustomers(ctx context.Context) ([]*models.Customer, error)
	CreateRental(ctx context.Context, req models.RentalRequest) (*models.RentalConfirmation, error)
}

// Selection is the customer and copy chosen in the dialog. Zero means unset.
type Selection struct {
	CustomerID  int64
	InventoryID int64
}

// Snapshot is a consistent copy of the coordinator state
type Snapshot struct {
	Phase     Phase
	FilmID    int64
	Customers []models.Customer
	Available []models.InventoryItem
	Selection Selection

	// Err is the reason for Failed, or the last rejected submission
	Err          error
	CustomersErr error
	InventoryErr error

	Message string
	Rental  *models.Rental
	Dialog  modal.Phase
}

// Options configures a Coordinator
type Options struct {
	StaffID int64
	// OnClosed runs after a successful rental's dialog has closed itself
	OnClosed func()
	Modal    []modal.Option
}

// Coordinator is safe for concurrent use
type Coordinator struct {
	backend  Backend
	resolver *inventory.Resolver
	logger   *slog.Logger
	staffID  int64
	onClosed func()
	dialog   *modal.Workflow[Selection]

	mu           sync.Mutex
	gen          uint64
	phase        Phase
	filmID       int64
	customers    []models.Customer
	available    []models.InventoryItem
	selection    Selection
	err          error
	customersErr error
	inventoryErr error
	message      string
	rental       *models.Rental
}

// NewCoordinator creates an idle coordinator
func NewCoordinator(backend Backend, logger *slog.Logger, opts Options) *Coordinator {
	if opts.StaffID == 0 {
		opts.StaffID = DefaultStaffID
	}
	c := &Coordinator{
		backend:  backend,
		resolver: inventory.NewResolver(backend, logger),
		logger:   logger,
		staffID:  opts.StaffID,
		onClosed: opts.OnClosed,
	}
	c.dialog = modal.New[Selection](c.dialogClosed, opts.Modal...)
	return c
}

// Snapshot returns the current state
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	s := Snapshot{
		Phase:        c.phase,
		FilmID:       c.filmID,
		Customers:    append([]models.Customer(nil), c.customers...),
		Available:    append([]models.InventoryItem(nil), c.available...),
		Selection:    c.selection,
		Err:          c.err,
		CustomersErr: c.customersErr,
		InventoryErr: c.inventoryErr,
		Message:      c.message,
		Rental:       c.rental,
	}
	c.mu.Unlock()
	s.Dialog = c.dialog.State().Phase
	return s
}

// Open starts a fresh dialog for filmID and loads the customer list and the
// available copies concurrently. Both calls always run to completion; if
// either fails the coordinator ends up Failed with each sub-error kept.
func (c *Coordinator) Open(ctx context.Context, filmID int64) error {
	if err := c.dialog.Open(Selection{}); err != nil {
		return err
	}

	c.mu.Lock()
	c.resetLocked()
	c.phase = Loading
	c.filmID = filmID
	gen := c.gen
	c.mu.Unlock()

	c.logger.Debug("loading rental prerequisites", slog.Int64("film_id", filmID))

	var (
		g               errgroup.Group
		customers       []*models.Customer
		available       []models.InventoryItem
		custErr, invErr error
	)
	g.Go(func() error {
		customers, custErr = c.backend.AllCustomers(ctx)
		custErr = models.Classify(custErr)
		return custErr
	})
	g.Go(func() error {
		available, invErr = c.resolver.Available(ctx, filmID)
		return invErr
	})
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return nil
	}

	c.customersErr = custErr
	c.inventoryErr = invErr
	if custErr != nil || invErr != nil {
		c.phase = Failed
		c.err = errors.Join(custErr, invErr)
		c.logger.Warn("rental prerequisites failed",
			slog.Int64("film_id", filmID),
			slog.String("error", c.err.Error()),
		)
		return c.err
	}

	c.customers = make([]models.Customer, 0, len(customers))
	for _, cust := range customers {
		if cust != nil {
			c.customers = append(c.customers, *cust)
		}
	}
	c.available = available
	c.phase = Ready
	return nil
}

// SelectCustomer picks one of the loaded customers
func (c *Coordinator) SelectCustomer(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.selectableLocked(); err != nil {
		return err
	}
	for _, cust := range c.customers {
		if cust.ID == id {
			c.selection.CustomerID = id
			return nil
		}
	}
	return models.ErrInvalidInput("Please select a valid customer.")
}

// SelectInventory picks one of the available copies
func (c *Coordinator) SelectInventory(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.selectableLocked(); err != nil {
		return err
	}
	for _, item := range c.available {
		if item.ID == id {
			c.selection.InventoryID = id
			return nil
		}
	}
	return models.ErrInvalidInput("Please select an available inventory item.")
}

func (c *Coordinator) selectableLocked() error {
	switch c.phase {
	case Ready, Failed:
		return nil
	case Submitting:
		return models.ErrBusy
	default:
		return models.ErrNotOpen
	}
}

// Submit creates the rental for the current selection. A missing selection
// fails with a validation error before any call is made. After the backend
// accepts the rental the film's availability is resolved again, so the
// returned state never offers the copy that was just rented. A rejected
// submission leaves the coordinator Failed with the selection kept for retry.
func (c *Coordinator) Submit(ctx context.Context) (*models.RentalConfirmation, error) {
	c.mu.Lock()
	if err := c.selectableLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	sel := c.selection
	if sel.CustomerID == 0 || sel.InventoryID == 0 {
		c.err = models.ErrInvalidInput("Please select both a customer and an inventory item.")
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	prev := c.phase
	c.phase = Submitting
	c.err = nil
	filmID := c.filmID
	gen := c.gen
	c.mu.Unlock()

	if err := c.dialog.SetForm(sel); err != nil {
		c.mu.Lock()
		if gen == c.gen {
			c.phase = prev
		}
		c.mu.Unlock()
		return nil, err
	}

	var confirmation *models.RentalConfirmation
	err := c.dialog.Submit(ctx, func(ctx context.Context, sel Selection) (string, error) {
		var err error
		confirmation, err = c.backend.CreateRental(ctx, models.RentalRequest{
			CustomerID:  sel.CustomerID,
			InventoryID: sel.InventoryID,
			StaffID:     c.staffID,
		})
		if err != nil {
			return "", models.Classify(err)
		}

		c.logger.Info("rental created",
			slog.Int64("film_id", filmID),
			slog.Int64("inventory_id", sel.InventoryID),
			slog.Int64("customer_id", sel.CustomerID),
		)

		available, resolveErr := c.resolver.Available(ctx, filmID)
		c.succeeded(gen, confirmation, available, resolveErr)
		return confirmation.Message, nil
	})
	if err != nil {
		c.mu.Lock()
		if gen == c.gen {
			c.phase = Failed
			c.err = err
		}
		c.mu.Unlock()

		if errors.Is(err, models.ErrConflict) {
			c.logger.Warn("rental rejected",
				slog.Int64("inventory_id", sel.InventoryID),
				slog.String("error", err.Error()),
			)
		} else {
			c.logger.Error("rental submission failed",
				slog.Int64("inventory_id", sel.InventoryID),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}
	return confirmation, nil
}

func (c *Coordinator) succeeded(gen uint64, confirmation *models.RentalConfirmation, available []models.InventoryItem, resolveErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	c.phase = Succeeded
	c.message = confirmation.Message
	c.rental = confirmation.Rental
	c.selection.InventoryID = 0
	c.inventoryErr = resolveErr
	if resolveErr != nil {
		// The old list still holds the rented copy.
		c.available = nil
		return
	}
	c.available = available
}

// Close discards the dialog and everything loaded for it
func (c *Coordinator) Close() error {
	if err := c.dialog.Cancel(); err != nil {
		return err
	}
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) dialogClosed() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()

	if c.onClosed != nil {
		c.onClosed()
	}
}

func (c *Coordinator) resetLocked() {
	c.gen++
	c.phase = Idle
	c.filmID = 0
	c.customers = nil
	c.available = nil
	c.selection = Selection{}
	c.err = nil
	c.customersErr = nil
	c.inventoryErr = nil
	c.message = ""
	c.rental = nil
}
