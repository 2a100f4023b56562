package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
	"github.com/Raymond9734/film-rental-frontdesk/internal/repository"
)

// TopListSize is the length of the top-rented and top-actors lists
const TopListSize = 5

// FilmService handles catalog reads
type FilmService interface {
	GetDetails(ctx context.Context, id int64) (*models.FilmDetails, error)
	Inventory(ctx context.Context, filmID int64) ([]*models.InventoryItem, error)
	Search(ctx context.Context, query, searchType string) ([]*models.Film, error)
	TopRented(ctx context.Context) ([]*models.Film, error)
	TopActors(ctx context.Context) ([]*models.Actor, error)
}

type filmService struct {
	filmRepo repository.FilmRepository
	logger   *slog.Logger
}

// NewFilmService creates a new film service
func NewFilmService(filmRepo repository.FilmRepository, logger *slog.Logger) FilmService {
	return &filmService{
		filmRepo: filmRepo,
		logger:   logger,
	}
}

// GetDetails retrieves the details view of a film
func (s *filmService) GetDetails(ctx context.Context, id int64) (*models.FilmDetails, error) {
	return s.filmRepo.GetDetails(ctx, id)
}

// Inventory returns every copy of a film with its availability. A film with
// no copies at all is reported as not found.
func (s *filmService) Inventory(ctx context.Context, filmID int64) ([]*models.InventoryItem, error) {
	items, err := s.filmRepo.ListInventory(ctx, filmID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	if len(items) == 0 {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("film with ID %d has no inventory", filmID))
	}
	return items, nil
}

// Search finds films matching query by title, actor or genre
func (s *filmService) Search(ctx context.Context, query, searchType string) ([]*models.Film, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.ErrInvalidInput("query is required")
	}
	if searchType == "" {
		searchType = models.FilmSearchTitle
	}
	if !models.IsValidFilmSearchType(searchType) {
		return nil, models.ErrInvalidInput(fmt.Sprintf("invalid search type: %s (must be 'title', 'actor' or 'genre')", searchType))
	}

	films, err := s.filmRepo.Search(ctx, query, searchType)
	if err != nil {
		return nil, fmt.Errorf("failed to search films: %w", err)
	}
	return films, nil
}

// TopRented returns the most rented films of all time
func (s *filmService) TopRented(ctx context.Context) ([]*models.Film, error) {
	films, err := s.filmRepo.TopRented(ctx, TopListSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get top rented films: %w", err)
	}
	return films, nil
}

// TopActors returns the actors whose films were rented the most
func (s *filmService) TopActors(ctx context.Context) ([]*models.Actor, error) {
	actors, err := s.filmRepo.TopActors(ctx, TopListSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get top actors: %w", err)
	}
	return actors, nil
}
