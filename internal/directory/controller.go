package directory

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/Raymond9734/film-rental-frontdesk/internal/modal"
	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

// Backend is the part of the REST client the directory needs
type Backend interface {
	ListCustomers(ctx context.Context, params url.Values) (*models.CustomerPage, error)
	CreateCustomer(ctx context.Context, input models.CustomerInput) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, input models.CustomerInput) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) (string, error)
}

// EditForm is the input of the edit dialog
type EditForm struct {
	ID    int64
	Input models.CustomerInput
}

// Snapshot is a consistent copy of the controller state
type Snapshot struct {
	Query      Query
	Customers  []models.Customer
	Pagination models.PaginationState
	Loaded     bool
	Loading    bool
	// Err is the last listing failure; the page above is the last good one
	Err error

	Create modal.State[models.CustomerInput]
	Edit   modal.State[EditForm]
	Delete modal.State[models.Customer]
}

// DefaultRefreshTimeout bounds the listing calls made after a dialog closes
const DefaultRefreshTimeout = 10 * time.Second

// Options configures a Controller
type Options struct {
	// StoreID is used for new customers that do not name a store
	StoreID int64
	// Modal is applied to every dialog
	Modal []modal.Option
	// OnRefreshed runs after a dialog closed and the directory was listed
	// again, with the listing error if any
	OnRefreshed func(err error)
	// RefreshTimeout bounds each refresh after a dialog closes; zero means
	// DefaultRefreshTimeout
	RefreshTimeout time.Duration
}

// Controller owns the directory query and the page it produced. Blocking
// methods run one backend call at a time and are safe to call from several
// goroutines; only the most recently issued listing call may update the page.
type Controller struct {
	backend        Backend
	logger         *slog.Logger
	storeID        int64
	onRefreshed    func(err error)
	refreshTimeout time.Duration

	mu         sync.Mutex
	query      Query
	customers  []models.Customer
	pagination models.PaginationState
	loaded     bool
	loading    bool
	err        error
	seq        uint64

	create *modal.Workflow[models.CustomerInput]
	edit   *modal.Workflow[EditForm]
	del    *modal.Workflow[models.Customer]
}

// NewController creates a controller with nothing loaded
func NewController(backend Backend, logger *slog.Logger, opts Options) *Controller {
	if opts.StoreID == 0 {
		opts.StoreID = 1
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = DefaultRefreshTimeout
	}
	c := &Controller{
		backend:        backend,
		logger:         logger,
		storeID:        opts.StoreID,
		onRefreshed:    opts.OnRefreshed,
		refreshTimeout: opts.RefreshTimeout,
		query:          NewQuery(),
	}
	c.create = modal.New[models.CustomerInput](c.refreshFirstPage, opts.Modal...)
	c.edit = modal.New[EditForm](c.refreshCurrentPage, opts.Modal...)
	c.del = modal.New[models.Customer](c.refreshAfterDelete, opts.Modal...)
	return c
}

// Snapshot returns the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	s := Snapshot{
		Query:      c.query,
		Customers:  append([]models.Customer(nil), c.customers...),
		Pagination: c.pagination,
		Loaded:     c.loaded,
		Loading:    c.loading,
		Err:        c.err,
	}
	c.mu.Unlock()

	s.Create = c.create.State()
	s.Edit = c.edit.State()
	s.Delete = c.del.State()
	return s
}

// Load lists the current query
func (c *Controller) Load(ctx context.Context) error {
	return c.List(ctx, c.currentQuery())
}

// List issues a listing call for q. When q keeps the current filter its page
// is clamped to the last known page count first.
func (c *Controller) List(ctx context.Context, q Query) error {
	c.mu.Lock()
	if c.loaded && q.SameFilter(c.query) {
		q = q.Clamp(c.pagination.TotalPages)
	}
	c.mu.Unlock()

	return c.list(ctx, q)
}

// ChangePage lists page n with the current search. It does nothing when n is
// outside [1, totalPages].
func (c *Controller) ChangePage(ctx context.Context, n int) error {
	c.mu.Lock()
	if !c.loaded || n < 1 || n > c.pagination.TotalPages {
		c.mu.Unlock()
		c.logger.Debug("page change ignored", slog.Int("page", n))
		return nil
	}
	q := c.query.WithPage(n)
	c.mu.Unlock()

	return c.list(ctx, q)
}

// NextPage moves one page forward
func (c *Controller) NextPage(ctx context.Context) error {
	return c.ChangePage(ctx, c.currentQuery().Page()+1)
}

// PrevPage moves one page back
func (c *Controller) PrevPage(ctx context.Context) error {
	return c.ChangePage(ctx, c.currentQuery().Page()-1)
}

// Search filters by text in field and goes back to page 1
func (c *Controller) Search(ctx context.Context, text string, field models.SearchField) error {
	return c.list(ctx, c.currentQuery().WithSearch(text, field))
}

// ClearSearch drops the filter and goes back to page 1
func (c *Controller) ClearSearch(ctx context.Context) error {
	q := c.currentQuery()
	return c.Search(ctx, "", q.Field())
}

// OpenCreate opens the add dialog with an empty form
func (c *Controller) OpenCreate() error {
	return c.create.Open(models.CustomerInput{StoreID: c.storeID})
}

// SubmitCreate validates and creates the customer. On success the directory
// returns to page 1 of the active search once the dialog closes.
func (c *Controller) SubmitCreate(ctx context.Context, input models.CustomerInput) error {
	if input.StoreID == 0 {
		input.StoreID = c.storeID
	}
	if err := c.create.SetForm(input); err != nil {
		return err
	}
	return c.create.Submit(ctx, func(ctx context.Context, in models.CustomerInput) (string, error) {
		if err := in.Validate(); err != nil {
			return "", err
		}
		created, err := c.backend.CreateCustomer(ctx, in.Normalize())
		if err != nil {
			return "", c.mutationFailed("create", 0, err)
		}
		c.logger.Info("customer created", slog.Int64("customer_id", created.ID))
		return "Customer added successfully!", nil
	})
}

// OpenEdit opens the edit dialog prefilled from customer
func (c *Controller) OpenEdit(customer models.Customer) error {
	return c.edit.Open(EditForm{
		ID: customer.ID,
		Input: models.CustomerInput{
			FirstName: customer.FirstName,
			LastName:  customer.LastName,
			Email:     customer.Email,
			StoreID:   customer.StoreID,
		},
	})
}

// SubmitEdit validates and saves the open edit dialog. On success the current
// page is listed again once the dialog closes.
func (c *Controller) SubmitEdit(ctx context.Context, input models.CustomerInput) error {
	form := c.edit.State().Form
	form.Input = input
	if err := c.edit.SetForm(form); err != nil {
		return err
	}
	return c.edit.Submit(ctx, func(ctx context.Context, f EditForm) (string, error) {
		if err := f.Input.Validate(); err != nil {
			return "", err
		}
		if _, err := c.backend.UpdateCustomer(ctx, f.ID, f.Input.Normalize()); err != nil {
			return "", c.mutationFailed("update", f.ID, err)
		}
		c.logger.Info("customer updated", slog.Int64("customer_id", f.ID))
		return "Customer updated successfully!", nil
	})
}

// OpenDelete asks for confirmation before deactivating customer
func (c *Controller) OpenDelete(customer models.Customer) error {
	return c.del.Open(customer)
}

// ConfirmDelete deactivates the customer named by OpenDelete
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	return c.del.Submit(ctx, func(ctx context.Context, customer models.Customer) (string, error) {
		msg, err := c.backend.DeleteCustomer(ctx, customer.ID)
		if err != nil {
			return "", c.mutationFailed("delete", customer.ID, err)
		}
		c.logger.Info("customer deactivated", slog.Int64("customer_id", customer.ID))
		if msg == "" {
			msg = "Customer deleted successfully!"
		}
		return msg, nil
	})
}

// CancelDialog closes every dialog that is not waiting on the backend
func (c *Controller) CancelDialog() error {
	var busy error
	for _, cancel := range []func() error{c.create.Cancel, c.edit.Cancel, c.del.Cancel} {
		if err := cancel(); err != nil {
			busy = err
		}
	}
	return busy
}

func (c *Controller) currentQuery() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// list issues one listing call and applies its result unless a newer call was
// issued meanwhile. A result for a page past the end is not applied; the last
// existing page is listed instead.
func (c *Controller) list(ctx context.Context, q Query) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.loading = true
	c.mu.Unlock()

	c.logger.Debug("listing customers",
		slog.Int("page", q.Page()),
		slog.String("search", q.Search()),
		slog.String("type", string(q.Field())),
	)

	page, err := c.backend.ListCustomers(ctx, q.Params())
	err = models.Classify(err)

	if err == nil && q.Page() > max(1, page.Pagination.TotalPages) && c.isLatest(seq) {
		c.logger.Warn("listed page no longer exists",
			slog.Int("page", q.Page()),
			slog.Int("total_pages", page.Pagination.TotalPages),
		)
		return c.list(ctx, q.Clamp(page.Pagination.TotalPages))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.logger.Warn("stale listing response dropped", slog.Int("page", q.Page()))
		return nil
	}
	c.loading = false

	if err != nil {
		c.err = err
		c.logFailure("listing customers failed", err)
		return err
	}

	customers := make([]models.Customer, 0, len(page.Customers))
	for _, cust := range page.Customers {
		if cust != nil {
			customers = append(customers, *cust)
		}
	}
	c.query = q
	c.customers = customers
	c.pagination = page.Pagination
	c.loaded = true
	c.err = nil
	return nil
}

func (c *Controller) isLatest(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return seq == c.seq
}

func (c *Controller) refreshFirstPage() {
	c.refresh(c.currentQuery().WithPage(1))
}

func (c *Controller) refreshCurrentPage() {
	c.refresh(c.currentQuery())
}

// refreshAfterDelete lists the current page clamped to the page count left
// once the deleted customer is gone
func (c *Controller) refreshAfterDelete() {
	c.mu.Lock()
	q := c.query
	remaining := max(0, c.pagination.TotalCustomers-1)
	c.mu.Unlock()

	c.refresh(q.Clamp(models.TotalPages(remaining, PageSize)))
}

func (c *Controller) refresh(q Query) {
	ctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
	defer cancel()

	c.refreshed(c.list(ctx, q))
}

func (c *Controller) refreshed(err error) {
	if c.onRefreshed != nil {
		c.onRefreshed(err)
	}
}

func (c *Controller) mutationFailed(op string, id int64, err error) error {
	err = models.Classify(err)
	c.logFailure("customer "+op+" failed", err, slog.Int64("customer_id", id))
	return err
}

func (c *Controller) logFailure(msg string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("error", err.Error()))
	if models.IsTransport(err) {
		c.logger.Error(msg, attrs...)
		return
	}
	c.logger.Warn(msg, attrs...)
}
