package models

// Inventory status values as reported by the server
const (
	InventoryStatusAvailable = "Available"
	InventoryStatusRented    = "Rented"
)

// Film search types
const (
	FilmSearchTitle = "title"
	FilmSearchActor = "actor"
	FilmSearchGenre = "genre"
)

// Film is a catalog entry with its aggregate rental count
type Film struct {
	ID          int64   `json:"film_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ReleaseYear int     `json:"release_year"`
	Rating      string  `json:"rating"`
	RentalRate  float64 `json:"rental_rate"`
	RentalCount int64   `json:"rental_count"`
}

// FilmDetails extends Film with the attributes shown on the details view
type FilmDetails struct {
	Film
	Language        string  `json:"language"`
	Length          int     `json:"length"`
	RentalDuration  int     `json:"rental_duration"`
	ReplacementCost float64 `json:"replacement_cost"`
	SpecialFeatures string  `json:"special_features,omitempty"`
	Categories      string  `json:"categories"`
	Actors          string  `json:"actors"`
	TotalCopies     int     `json:"total_copies"`
	CurrentlyRented int     `json:"currently_rented"`
}

// Actor is an entry of the top-actors list
type Actor struct {
	ID           int64  `json:"actor_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	FilmCount    int64  `json:"film_count"`
	TotalRentals int64  `json:"total_rentals"`
}

// InventoryItem is one physical copy of a film at a store
type InventoryItem struct {
	ID      int64  `json:"inventory_id"`
	FilmID  int64  `json:"film_id"`
	StoreID int64  `json:"store_id"`
	Status  string `json:"status"`
}

// IsAvailable reports whether the server marked the copy as rentable
func (i *InventoryItem) IsAvailable() bool {
	return i.Status == InventoryStatusAvailable
}

// IsValidFilmSearchType checks the film search type
func IsValidFilmSearchType(t string) bool {
	switch t {
	case FilmSearchTitle, FilmSearchActor, FilmSearchGenre:
		return true
	default:
		return false
	}
}
