package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Raymond9734/film-rental-frontdesk/internal/backend"
	"github.com/Raymond9734/film-rental-frontdesk/internal/config"
	"github.com/Raymond9734/film-rental-frontdesk/internal/directory"
	"github.com/Raymond9734/film-rental-frontdesk/internal/inventory"
	"github.com/Raymond9734/film-rental-frontdesk/internal/modal"
	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
	"github.com/Raymond9734/film-rental-frontdesk/internal/rental"
)

type command func(fs *flag.FlagSet) func(ctx context.Context) error

type app struct {
	cfg    config.FrontDeskConfig
	client *backend.Client
	logger *slog.Logger
	out    io.Writer

	refreshed chan error
}

func newApp(cfg config.FrontDeskConfig, out io.Writer, logger *slog.Logger) *app {
	opts := []backend.Option{backend.WithHTTPClient(&http.Client{Timeout: cfg.Timeout})}
	if cfg.BreakerFailures > 0 {
		opts = append(opts, backend.WithCircuitBreaker(cfg.BreakerFailures, cfg.BreakerCooldown))
	}
	return &app{
		cfg:       cfg,
		client:    backend.New(cfg.APIURL, logger, opts...),
		logger:    logger,
		out:       out,
		refreshed: make(chan error, 1),
	}
}

func (a *app) commands() map[string]command {
	return map[string]command{
		"customers":       a.customers,
		"customer-add":    a.customerAdd,
		"customer-edit":   a.customerEdit,
		"customer-delete": a.customerDelete,
		"film":            a.film,
		"films":           a.films,
		"inventory":       a.inventory,
		"rent":            a.rent,
		"return":          a.returnRental,
		"top":             a.top,
	}
}

func (a *app) directory() *directory.Controller {
	return directory.NewController(a.client, a.logger, directory.Options{
		StoreID:        a.cfg.StoreID,
		Modal:          []modal.Option{modal.WithDelay(a.cfg.SuccessDelay)},
		RefreshTimeout: a.cfg.Timeout,
		OnRefreshed: func(err error) {
			select {
			case a.refreshed <- err:
			default:
			}
		},
	})
}

// awaitRefresh blocks until the dialog closed itself and the directory was
// listed again
func (a *app) awaitRefresh(ctx context.Context) error {
	select {
	case err := <-a.refreshed:
		return err
	case <-time.After(a.cfg.SuccessDelay + a.cfg.Timeout):
		return models.ErrTransportWithMsg("refresh timed out", context.DeadlineExceeded)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *app) customers(fs *flag.FlagSet) func(context.Context) error {
	page := fs.Int("page", 1, "page to show")
	search := fs.String("search", "", "search text")
	field := fs.String("type", string(models.SearchByName), "search field: name, id, first_name or last_name")

	return func(ctx context.Context) error {
		ctrl := a.directory()

		var err error
		if strings.TrimSpace(*search) != "" {
			err = ctrl.Search(ctx, *search, models.SearchField(*field))
		} else {
			err = ctrl.Load(ctx)
		}
		if err != nil {
			return err
		}

		if *page != 1 {
			if err := ctrl.ChangePage(ctx, *page); err != nil {
				return err
			}
			if got := ctrl.Snapshot().Pagination.CurrentPage; got != *page {
				fmt.Fprintf(a.out, "Page %d does not exist.\n", *page)
			}
		}

		a.printDirectory(ctrl.Snapshot())
		return nil
	}
}

func (a *app) customerAdd(fs *flag.FlagSet) func(context.Context) error {
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	email := fs.String("email", "", "email address")
	store := fs.Int64("store", 0, "store ID (defaults to FRONTDESK_STORE_ID)")

	return func(ctx context.Context) error {
		ctrl := a.directory()
		if err := ctrl.OpenCreate(); err != nil {
			return err
		}

		err := ctrl.SubmitCreate(ctx, models.CustomerInput{
			FirstName: *first,
			LastName:  *last,
			Email:     *email,
			StoreID:   *store,
		})
		if err != nil {
			return err
		}

		fmt.Fprintln(a.out, ctrl.Snapshot().Create.Message)
		if err := a.awaitRefresh(ctx); err != nil {
			return err
		}
		a.printDirectory(ctrl.Snapshot())
		return nil
	}
}

func (a *app) customerEdit(fs *flag.FlagSet) func(context.Context) error {
	id := fs.Int64("id", 0, "customer ID")
	first := fs.String("first", "", "new first name")
	last := fs.String("last", "", "new last name")
	email := fs.String("email", "", "new email address")
	store := fs.Int64("store", 0, "new store ID")

	return func(ctx context.Context) error {
		if *id <= 0 {
			return errUsage
		}

		customer, err := a.client.GetCustomer(ctx, *id)
		if err != nil {
			return err
		}

		ctrl := a.directory()
		if err := ctrl.OpenEdit(*customer); err != nil {
			return err
		}

		input := models.CustomerInput{
			FirstName: customer.FirstName,
			LastName:  customer.LastName,
			Email:     customer.Email,
			StoreID:   customer.StoreID,
		}
		if *first != "" {
			input.FirstName = *first
		}
		if *last != "" {
			input.LastName = *last
		}
		if *email != "" {
			input.Email = *email
		}
		if *store != 0 {
			input.StoreID = *store
		}

		if err := ctrl.SubmitEdit(ctx, input); err != nil {
			return err
		}
		fmt.Fprintln(a.out, ctrl.Snapshot().Edit.Message)
		return a.awaitRefresh(ctx)
	}
}

func (a *app) customerDelete(fs *flag.FlagSet) func(context.Context) error {
	id := fs.Int64("id", 0, "customer ID")
	yes := fs.Bool("yes", false, "confirm the deactivation")

	return func(ctx context.Context) error {
		if *id <= 0 {
			return errUsage
		}

		customer, err := a.client.GetCustomer(ctx, *id)
		if err != nil {
			return err
		}

		if !*yes {
			fmt.Fprintf(a.out, "Deactivate %s (#%d)? Run again with -yes to confirm.\n", customer.FullName(), customer.ID)
			return nil
		}

		ctrl := a.directory()
		if err := ctrl.OpenDelete(*customer); err != nil {
			return err
		}
		if err := ctrl.ConfirmDelete(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, ctrl.Snapshot().Delete.Message)
		return a.awaitRefresh(ctx)
	}
}

func (a *app) film(fs *flag.FlagSet) func(context.Context) error {
	id := fs.Int64("id", 0, "film ID")

	return func(ctx context.Context) error {
		if *id <= 0 {
			return errUsage
		}

		f, err := a.client.FilmDetails(ctx, *id)
		if err != nil {
			return err
		}

		tw := a.table()
		fmt.Fprintf(tw, "Title\t%s\n", f.Title)
		fmt.Fprintf(tw, "Year\t%d\n", f.ReleaseYear)
		fmt.Fprintf(tw, "Rating\t%s\n", f.Rating)
		fmt.Fprintf(tw, "Language\t%s\n", f.Language)
		fmt.Fprintf(tw, "Length\t%d min\n", f.Length)
		fmt.Fprintf(tw, "Rate\t%.2f for %d days\n", f.RentalRate, f.RentalDuration)
		fmt.Fprintf(tw, "Categories\t%s\n", f.Categories)
		fmt.Fprintf(tw, "Actors\t%s\n", f.Actors)
		fmt.Fprintf(tw, "Copies\t%d (%d rented)\n", f.TotalCopies, f.CurrentlyRented)
		return tw.Flush()
	}
}

func (a *app) films(fs *flag.FlagSet) func(context.Context) error {
	query := fs.String("query", "", "search text")
	searchType := fs.String("type", "title", "search by title, actor or genre")

	return func(ctx context.Context) error {
		if strings.TrimSpace(*query) == "" {
			return errUsage
		}

		films, err := a.client.SearchFilms(ctx, *query, *searchType)
		if err != nil {
			return err
		}
		if len(films) == 0 {
			fmt.Fprintln(a.out, "No films found.")
			return nil
		}
		return a.printFilms(films)
	}
}

func (a *app) inventory(fs *flag.FlagSet) func(context.Context) error {
	filmID := fs.Int64("film", 0, "film ID")

	return func(ctx context.Context) error {
		if *filmID <= 0 {
			return errUsage
		}

		available, err := inventory.NewResolver(a.client, a.logger).Available(ctx, *filmID)
		if err != nil {
			return err
		}
		return a.printInventory(available)
	}
}

func (a *app) rent(fs *flag.FlagSet) func(context.Context) error {
	filmID := fs.Int64("film", 0, "film ID")
	customerID := fs.Int64("customer", 0, "customer ID")
	inventoryID := fs.Int64("inventory", 0, "inventory ID")

	return func(ctx context.Context) error {
		if *filmID <= 0 {
			return errUsage
		}

		coord := rental.NewCoordinator(a.client, a.logger, rental.Options{
			StaffID: a.cfg.StaffID,
			Modal:   []modal.Option{modal.WithDelay(a.cfg.SuccessDelay)},
		})
		if err := coord.Open(ctx, *filmID); err != nil {
			return err
		}
		if *customerID != 0 {
			if err := coord.SelectCustomer(*customerID); err != nil {
				return err
			}
		}
		if *inventoryID != 0 {
			if err := coord.SelectInventory(*inventoryID); err != nil {
				return err
			}
		}

		confirmation, err := coord.Submit(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintln(a.out, confirmation.Message)
		if confirmation.Rental != nil {
			fmt.Fprintf(a.out, "Rental #%d\n", confirmation.Rental.ID)
		}

		snap := coord.Snapshot()
		if snap.InventoryErr != nil {
			fmt.Fprintln(a.out, models.UserMessage(snap.InventoryErr))
			return nil
		}
		return a.printInventory(snap.Available)
	}
}

func (a *app) returnRental(fs *flag.FlagSet) func(context.Context) error {
	id := fs.Int64("rental", 0, "rental ID")

	return func(ctx context.Context) error {
		if *id <= 0 {
			return errUsage
		}

		msg, err := a.client.ReturnRental(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, msg)
		return nil
	}
}

func (a *app) top(fs *flag.FlagSet) func(context.Context) error {
	return func(ctx context.Context) error {
		films, err := a.client.TopRentedFilms(ctx)
		if err != nil {
			return err
		}
		actors, err := a.client.TopActors(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintln(a.out, "Top rented films")
		if err := a.printFilms(films); err != nil {
			return err
		}

		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Top actors")
		tw := a.table()
		fmt.Fprintln(tw, "ID\tNAME\tFILMS\tRENTALS")
		for _, actor := range actors {
			fmt.Fprintf(tw, "%d\t%s %s\t%d\t%d\n", actor.ID, actor.FirstName, actor.LastName, actor.FilmCount, actor.TotalRentals)
		}
		return tw.Flush()
	}
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
}

func (a *app) printDirectory(s directory.Snapshot) {
	if len(s.Customers) == 0 {
		fmt.Fprintln(a.out, "No customers found.")
		return
	}

	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tSTORE\tSTATUS")
	for _, c := range s.Customers {
		status := "active"
		if !c.Active {
			status = "inactive"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", c.ID, c.FullName(), c.Email, c.StoreID, status)
	}
	_ = tw.Flush()

	p := s.Pagination
	fmt.Fprintf(a.out, "Page %d of %d (%d customers)\n", p.CurrentPage, p.TotalPages, p.TotalCustomers)
}

func (a *app) printFilms(films []*models.Film) error {
	tw := a.table()
	fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tRATING\tRENTALS")
	for _, f := range films {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%d\n", f.ID, f.Title, f.ReleaseYear, f.Rating, f.RentalCount)
	}
	return tw.Flush()
}

func (a *app) printInventory(items []models.InventoryItem) error {
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No copies are available right now.")
		return nil
	}

	tw := a.table()
	fmt.Fprintln(tw, "INVENTORY\tSTORE")
	for _, item := range items {
		fmt.Fprintf(tw, "%d\t%d\n", item.ID, item.StoreID)
	}
	return tw.Flush()
}
