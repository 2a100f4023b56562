// Package memory keeps the store's data in process memory. It backs the API's
// demo mode and the end-to-end tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
	"github.com/Raymond9734/film-rental-frontdesk/internal/repository"
)

// Store holds every table behind one lock
type Store struct {
	mu sync.Mutex

	customers []*models.Customer
	films     map[int64]*filmRecord
	inventory []*models.InventoryItem
	actors    map[int64]*actorRecord
	rentals   []*models.Rental
	tally     map[int64]int64
	processed map[int64]bool

	nextFilmID      int64
	nextInventoryID int64
	nextActorID     int64

	now func() time.Time
}

type filmRecord struct {
	details    models.FilmDetails
	categories []string
}

type actorRecord struct {
	actor models.Actor
	films []int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		films:           make(map[int64]*filmRecord),
		actors:          make(map[int64]*actorRecord),
		tally:           make(map[int64]int64),
		processed:       make(map[int64]bool),
		nextFilmID:      1,
		nextInventoryID: 1,
		nextActorID:     1,
		now:             time.Now,
	}
}

// Customers returns the customer repository view of the store
func (s *Store) Customers() repository.CustomerRepository { return customerRepo{s} }

// Films returns the film repository view of the store
func (s *Store) Films() repository.FilmRepository { return filmRepo{s} }

// Rentals returns the rental repository view of the store
func (s *Store) Rentals() repository.RentalRepository { return rentalRepo{s} }

// AddFilm adds a catalog entry and returns its ID
func (s *Store) AddFilm(details models.FilmDetails, categories ...string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if details.ID == 0 {
		details.ID = s.nextFilmID
	}
	if details.ID >= s.nextFilmID {
		s.nextFilmID = details.ID + 1
	}
	s.films[details.ID] = &filmRecord{details: details, categories: categories}
	return details.ID
}

// AddInventory adds a copy of a film. A zero inventoryID is assigned.
func (s *Store) AddInventory(filmID, storeID, inventoryID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inventoryID == 0 {
		inventoryID = s.nextInventoryID
	}
	if inventoryID >= s.nextInventoryID {
		s.nextInventoryID = inventoryID + 1
	}
	s.inventory = append(s.inventory, &models.InventoryItem{ID: inventoryID, FilmID: filmID, StoreID: storeID})
	return inventoryID
}

// AddActor adds an actor appearing in the given films
func (s *Store) AddActor(firstName, lastName string, filmIDs ...int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextActorID
	s.nextActorID++
	s.actors[id] = &actorRecord{
		actor: models.Actor{ID: id, FirstName: firstName, LastName: lastName},
		films: filmIDs,
	}
	return id
}

func (s *Store) customerByID(id int64) *models.Customer {
	for _, c := range s.customers {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *Store) openRental(inventoryID int64) *models.Rental {
	for _, r := range s.rentals {
		if r.InventoryID == inventoryID && r.IsOpen() {
			return r
		}
	}
	return nil
}

func (s *Store) inventoryByID(id int64) *models.InventoryItem {
	for _, item := range s.inventory {
		if item.ID == id {
			return item
		}
	}
	return nil
}

func (s *Store) film(id int64) models.Film {
	f := s.films[id].details.Film
	f.RentalCount = s.tally[id]
	return f
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

type customerRepo struct{ s *Store }

func (r customerRepo) Create(ctx context.Context, customer *models.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.customers {
		if c.Active && strings.EqualFold(c.Email, customer.Email) {
			return models.ErrConflictWithMsg(fmt.Sprintf("a customer with email %s already exists", customer.Email))
		}
	}

	customer.ID = int64(len(r.s.customers) + 1)
	customer.CreateDate = r.s.now()
	customer.Active = true
	stored := *customer
	r.s.customers = append(r.s.customers, &stored)
	return nil
}

func (r customerRepo) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := r.s.customerByID(id)
	if c == nil {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", id))
	}
	out := *c
	return &out, nil
}

func (r customerRepo) GetActiveByEmail(ctx context.Context, email string) (*models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.customers {
		if c.Active && strings.EqualFold(c.Email, email) {
			out := *c
			return &out, nil
		}
	}
	return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("customer with email %s not found", email))
}

func matches(c *models.Customer, field models.SearchField, search string, id int64) bool {
	switch field {
	case models.SearchByID:
		return c.ID == id
	case models.SearchByFirstName:
		return contains(c.FirstName, search)
	case models.SearchByLastName:
		return contains(c.LastName, search)
	default:
		return contains(c.FirstName, search) || contains(c.LastName, search) || contains(c.FullName(), search)
	}
}

func (r customerRepo) List(ctx context.Context, filter models.CustomerFilter) ([]*models.Customer, int64, error) {
	models.ValidateAndSetDefaults(&filter.Page, &filter.PageSize)

	search := strings.TrimSpace(filter.Search)
	var id int64
	if search != "" && filter.Field == models.SearchByID {
		parsed, err := strconv.ParseInt(search, 10, 64)
		if err != nil {
			return nil, 0, models.ErrInvalidInput("customer ID search requires a number")
		}
		id = parsed
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	filtered := []*models.Customer{}
	for _, c := range r.s.customers {
		if search == "" || matches(c, filter.Field, search, id) {
			filtered = append(filtered, c)
		}
	}

	total := int64(len(filtered))
	offset := models.CalculateOffset(filter.Page, filter.PageSize)
	page := []*models.Customer{}
	for i := offset; i < len(filtered) && i < offset+filter.PageSize; i++ {
		out := *filtered[i]
		page = append(page, &out)
	}
	return page, total, nil
}

func (r customerRepo) ListActive(ctx context.Context) ([]*models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*models.Customer{}
	for _, c := range r.s.customers {
		if c.Active {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r customerRepo) Update(ctx context.Context, customer *models.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := r.s.customerByID(customer.ID)
	if c == nil {
		return models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", customer.ID))
	}
	for _, other := range r.s.customers {
		if other.ID != c.ID && other.Active && c.Active && strings.EqualFold(other.Email, customer.Email) {
			return models.ErrConflictWithMsg(fmt.Sprintf("a customer with email %s already exists", customer.Email))
		}
	}

	c.StoreID = customer.StoreID
	c.FirstName = customer.FirstName
	c.LastName = customer.LastName
	c.Email = customer.Email
	customer.CreateDate = c.CreateDate
	customer.Active = c.Active
	return nil
}

func (r customerRepo) Deactivate(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := r.s.customerByID(id)
	if c == nil {
		return models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", id))
	}
	c.Active = false
	return nil
}

type filmRepo struct{ s *Store }

func (r filmRepo) GetDetails(ctx context.Context, id int64) (*models.FilmDetails, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.films[id]
	if !ok {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("film with ID %d not found", id))
	}

	d := rec.details
	d.Film = r.s.film(id)
	d.Categories = strings.Join(rec.categories, ", ")

	var names []string
	for _, a := range r.s.actors {
		for _, fid := range a.films {
			if fid == id {
				names = append(names, a.actor.FirstName+" "+a.actor.LastName)
			}
		}
	}
	sort.Strings(names)
	d.Actors = strings.Join(names, ", ")

	d.TotalCopies, d.CurrentlyRented = 0, 0
	for _, item := range r.s.inventory {
		if item.FilmID != id {
			continue
		}
		d.TotalCopies++
		if r.s.openRental(item.ID) != nil {
			d.CurrentlyRented++
		}
	}
	return &d, nil
}

func (r filmRepo) ListInventory(ctx context.Context, filmID int64) ([]*models.InventoryItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	items := []*models.InventoryItem{}
	for _, item := range r.s.inventory {
		if item.FilmID != filmID {
			continue
		}
		out := *item
		out.Status = models.InventoryStatusAvailable
		if r.s.openRental(item.ID) != nil {
			out.Status = models.InventoryStatusRented
		}
		items = append(items, &out)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].StoreID != items[j].StoreID {
			return items[i].StoreID < items[j].StoreID
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (r filmRepo) Search(ctx context.Context, query, searchType string) ([]*models.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	hit := make(map[int64]bool)
	switch searchType {
	case models.FilmSearchTitle:
		for id, rec := range r.s.films {
			if contains(rec.details.Title, query) {
				hit[id] = true
			}
		}
	case models.FilmSearchActor:
		for _, a := range r.s.actors {
			if contains(a.actor.FirstName+" "+a.actor.LastName, query) {
				for _, fid := range a.films {
					hit[fid] = true
				}
			}
		}
	case models.FilmSearchGenre:
		for id, rec := range r.s.films {
			for _, c := range rec.categories {
				if contains(c, query) {
					hit[id] = true
				}
			}
		}
	default:
		return nil, models.ErrInvalidInput(fmt.Sprintf("invalid search type: %s", searchType))
	}

	films := []*models.Film{}
	for id := range hit {
		if _, ok := r.s.films[id]; !ok {
			continue
		}
		f := r.s.film(id)
		films = append(films, &f)
	}
	sort.Slice(films, func(i, j int) bool { return films[i].Title < films[j].Title })
	return films, nil
}

func (r filmRepo) TopRented(ctx context.Context, limit int) ([]*models.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	films := []*models.Film{}
	for id := range r.s.tally {
		if _, ok := r.s.films[id]; !ok {
			continue
		}
		f := r.s.film(id)
		films = append(films, &f)
	}
	sort.Slice(films, func(i, j int) bool {
		if films[i].RentalCount != films[j].RentalCount {
			return films[i].RentalCount > films[j].RentalCount
		}
		return films[i].Title < films[j].Title
	})
	if len(films) > limit {
		films = films[:limit]
	}
	return films, nil
}

func (r filmRepo) TopActors(ctx context.Context, limit int) ([]*models.Actor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	actors := []*models.Actor{}
	for _, a := range r.s.actors {
		out := a.actor
		out.FilmCount = int64(len(a.films))
		for _, fid := range a.films {
			out.TotalRentals += r.s.tally[fid]
		}
		actors = append(actors, &out)
	}
	sort.Slice(actors, func(i, j int) bool {
		if actors[i].TotalRentals != actors[j].TotalRentals {
			return actors[i].TotalRentals > actors[j].TotalRentals
		}
		return actors[i].LastName < actors[j].LastName
	})
	if len(actors) > limit {
		actors = actors[:limit]
	}
	return actors, nil
}

type rentalRepo struct{ s *Store }

func (r rentalRepo) Create(ctx context.Context, req *models.RentalRequest) (*models.Rental, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.inventoryByID(req.InventoryID) == nil {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("inventory item with ID %d not found", req.InventoryID))
	}
	c := r.s.customerByID(req.CustomerID)
	if c == nil {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", req.CustomerID))
	}
	if !c.Active {
		return nil, models.ErrConflictWithMsg(repository.MsgCustomerInactive)
	}
	if r.s.openRental(req.InventoryID) != nil {
		return nil, models.ErrConflictWithMsg(repository.MsgItemAlreadyRented)
	}

	rental := &models.Rental{
		ID:          int64(len(r.s.rentals) + 1),
		RentalDate:  r.s.now(),
		InventoryID: req.InventoryID,
		CustomerID:  req.CustomerID,
		StaffID:     req.StaffID,
	}
	r.s.rentals = append(r.s.rentals, rental)
	out := *rental
	return &out, nil
}

func (r rentalRepo) GetByID(ctx context.Context, id int64) (*models.Rental, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if id < 1 || id > int64(len(r.s.rentals)) {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("rental with ID %d not found", id))
	}
	out := *r.s.rentals[id-1]
	return &out, nil
}

func (r rentalRepo) Return(ctx context.Context, id int64) (*models.Rental, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if id < 1 || id > int64(len(r.s.rentals)) {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("rental with ID %d not found", id))
	}
	rental := r.s.rentals[id-1]
	if !rental.IsOpen() {
		return nil, models.ErrConflictWithMsg(repository.MsgRentalAlreadyClosed)
	}
	now := r.s.now()
	rental.ReturnDate = &now
	out := *rental
	return &out, nil
}

func (r rentalRepo) RecordTally(ctx context.Context, rentalID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if rentalID < 1 || rentalID > int64(len(r.s.rentals)) {
		return false, models.ErrNotFoundWithMsg(fmt.Sprintf("rental with ID %d not found", rentalID))
	}
	if r.s.processed[rentalID] {
		return false, nil
	}
	r.s.processed[rentalID] = true

	item := r.s.inventoryByID(r.s.rentals[rentalID-1].InventoryID)
	if item != nil {
		r.s.tally[item.FilmID]++
	}
	return true, nil
}

// PingContext makes the store usable as a health check target
func (s *Store) PingContext(ctx context.Context) error {
	return ctx.Err()
}
