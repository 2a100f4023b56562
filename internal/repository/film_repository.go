package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

// FilmRepository defines read access to the catalog and its inventory
type FilmRepository interface {
	GetDetails(ctx context.Context, id int64) (*models.FilmDetails, error)
	ListInventory(ctx context.Context, filmID int64) ([]*models.InventoryItem, error)
	Search(ctx context.Context, query, searchType string) ([]*models.Film, error)
	TopRented(ctx context.Context, limit int) ([]*models.Film, error)
	TopActors(ctx context.Context, limit int) ([]*models.Actor, error)
}

// filmRepository implements FilmRepository using PostgreSQL
type filmRepository struct {
	db *sql.DB
}

// NewFilmRepository creates a new film repository
func NewFilmRepository(db *sql.DB) FilmRepository {
	return &filmRepository{db: db}
}

const filmColumns = `
	f.film_id, f.title, f.description, f.release_year, f.rating, f.rental_rate,
	COALESCE(t.rental_count, 0)`

func scanFilm(row interface{ Scan(...any) error }) (*models.Film, error) {
	film := &models.Film{}
	err := row.Scan(
		&film.ID,
		&film.Title,
		&film.Description,
		&film.ReleaseYear,
		&film.Rating,
		&film.RentalRate,
		&film.RentalCount,
	)
	if err != nil {
		return nil, err
	}
	return film, nil
}

func (r *filmRepository) queryFilms(ctx context.Context, query string, args ...any) ([]*models.Film, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query films: %w", err)
	}
	defer rows.Close()

	films := []*models.Film{}
	for rows.Next() {
		film, err := scanFilm(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan film: %w", err)
		}
		films = append(films, film)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating films: %w", err)
	}

	return films, nil
}

// GetDetails retrieves a film with its cast, categories and copy counts
func (r *filmRepository) GetDetails(ctx context.Context, id int64) (*models.FilmDetails, error) {
	query := `
		SELECT ` + filmColumns + `,
			COALESCE(l.name, ''), f.length, f.rental_duration, f.replacement_cost, f.special_features,
			COALESCE((SELECT string_agg(c.name, ', ' ORDER BY c.name)
				FROM film_category fc JOIN category c ON c.category_id = fc.category_id
				WHERE fc.film_id = f.film_id), ''),
			COALESCE((SELECT string_agg(a.first_name || ' ' || a.last_name, ', ' ORDER BY a.last_name, a.first_name)
				FROM film_actor fa JOIN actor a ON a.actor_id = fa.actor_id
				WHERE fa.film_id = f.film_id), ''),
			(SELECT COUNT(*) FROM inventory i WHERE i.film_id = f.film_id),
			(SELECT COUNT(*) FROM inventory i JOIN rental r ON r.inventory_id = i.inventory_id
				WHERE i.film_id = f.film_id AND r.return_date IS NULL)
		FROM film f
		LEFT JOIN film_rental_tally t ON t.film_id = f.film_id
		LEFT JOIN language l ON l.language_id = f.language_id
		WHERE f.film_id = $1`

	d := &models.FilmDetails{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&d.ReleaseYear,
		&d.Rating,
		&d.RentalRate,
		&d.RentalCount,
		&d.Language,
		&d.Length,
		&d.RentalDuration,
		&d.ReplacementCost,
		&d.SpecialFeatures,
		&d.Categories,
		&d.Actors,
		&d.TotalCopies,
		&d.CurrentlyRented,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("film with ID %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get film details: %w", err)
	}

	return d, nil
}

// ListInventory returns every copy of a film ordered by store then inventory ID.
// A copy is Rented while an open rental references it.
func (r *filmRepository) ListInventory(ctx context.Context, filmID int64) ([]*models.InventoryItem, error) {
	query := `
		SELECT i.inventory_id, i.film_id, i.store_id,
			CASE WHEN r.rental_id IS NULL THEN $2 ELSE $3 END
		FROM inventory i
		LEFT JOIN rental r ON r.inventory_id = i.inventory_id AND r.return_date IS NULL
		WHERE i.film_id = $1
		ORDER BY i.store_id, i.inventory_id`

	rows, err := r.db.QueryContext(ctx, query, filmID, models.InventoryStatusAvailable, models.InventoryStatusRented)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	items := []*models.InventoryItem{}
	for rows.Next() {
		item := &models.InventoryItem{}
		if err := rows.Scan(&item.ID, &item.FilmID, &item.StoreID, &item.Status); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory: %w", err)
	}

	return items, nil
}

// Search finds films by title, actor name or category name
func (r *filmRepository) Search(ctx context.Context, query, searchType string) ([]*models.Film, error) {
	base := `SELECT DISTINCT ` + filmColumns + `
		FROM film f
		LEFT JOIN film_rental_tally t ON t.film_id = f.film_id`

	var where string
	switch searchType {
	case models.FilmSearchActor:
		base += `
		JOIN film_actor fa ON fa.film_id = f.film_id
		JOIN actor a ON a.actor_id = fa.actor_id`
		where = ` WHERE (a.first_name || ' ' || a.last_name) ILIKE $1`
	case models.FilmSearchGenre:
		base += `
		JOIN film_category fc ON fc.film_id = f.film_id
		JOIN category c ON c.category_id = fc.category_id`
		where = ` WHERE c.name ILIKE $1`
	case models.FilmSearchTitle:
		where = ` WHERE f.title ILIKE $1`
	default:
		return nil, models.ErrInvalidInput(fmt.Sprintf("invalid search type: %s", searchType))
	}

	return r.queryFilms(ctx, base+where+` ORDER BY f.title LIMIT 50`, containsPattern(query))
}

// TopRented returns the films with the highest rental tally
func (r *filmRepository) TopRented(ctx context.Context, limit int) ([]*models.Film, error) {
	query := `SELECT ` + filmColumns + `
		FROM film f
		JOIN film_rental_tally t ON t.film_id = f.film_id
		ORDER BY t.rental_count DESC, f.title
		LIMIT $1`

	return r.queryFilms(ctx, query, limit)
}

// TopActors returns the actors whose films were rented the most
func (r *filmRepository) TopActors(ctx context.Context, limit int) ([]*models.Actor, error) {
	query := `
		SELECT a.actor_id, a.first_name, a.last_name,
			COUNT(DISTINCT fa.film_id),
			COALESCE(SUM(t.rental_count), 0)
		FROM actor a
		JOIN film_actor fa ON fa.actor_id = a.actor_id
		LEFT JOIN film_rental_tally t ON t.film_id = fa.film_id
		GROUP BY a.actor_id, a.first_name, a.last_name
		ORDER BY 5 DESC, a.last_name
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top actors: %w", err)
	}
	defer rows.Close()

	actors := []*models.Actor{}
	for rows.Next() {
		actor := &models.Actor{}
		if err := rows.Scan(&actor.ID, &actor.FirstName, &actor.LastName, &actor.FilmCount, &actor.TotalRentals); err != nil {
			return nil, fmt.Errorf("failed to scan actor: %w", err)
		}
		actors = append(actors, actor)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actors: %w", err)
	}

	return actors, nil
}
