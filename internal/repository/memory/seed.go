package memory

import (
	"context"
	"fmt"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

var demoNames = [][2]string{
	{"Mary", "Smith"}, {"Patricia", "Johnson"}, {"Linda", "Williams"}, {"Barbara", "Jones"},
	{"Elizabeth", "Brown"}, {"Jennifer", "Davis"}, {"Maria", "Miller"}, {"Susan", "Wilson"},
	{"Margaret", "Moore"}, {"Dorothy", "Taylor"}, {"Lisa", "Anderson"}, {"Nancy", "Thomas"},
	{"Karen", "Jackson"}, {"Betty", "White"}, {"Helen", "Harris"}, {"Sandra", "Martin"},
	{"Donna", "Thompson"}, {"Carol", "Garcia"}, {"Ruth", "Martinez"}, {"Sharon", "Robinson"},
	{"Michelle", "Clark"}, {"Laura", "Rodriguez"}, {"Sarah", "Lewis"}, {"Kimberly", "Lee"},
	{"Deborah", "Walker"},
}

// NewDemoStore returns a store populated with a small catalog and 25 customers
func NewDemoStore() *Store {
	s := NewStore()

	films := []struct {
		details    models.FilmDetails
		categories []string
		copies     int
	}{
		{models.FilmDetails{Film: models.Film{Title: "Academy Dinosaur", Description: "An epic drama of a feminist and a mad scientist", ReleaseYear: 2006, Rating: "PG", RentalRate: 0.99}, Language: "English", Length: 86, RentalDuration: 6, ReplacementCost: 20.99}, []string{"Documentary"}, 3},
		{models.FilmDetails{Film: models.Film{Title: "Ace Goldfinger", Description: "An astounding epistle of a database administrator", ReleaseYear: 2006, Rating: "G", RentalRate: 4.99}, Language: "English", Length: 48, RentalDuration: 3, ReplacementCost: 12.99}, []string{"Horror"}, 2},
		{models.FilmDetails{Film: models.Film{Title: "Adaptation Holes", Description: "An astounding reflection of a lumberjack and a car", ReleaseYear: 2006, Rating: "NC-17", RentalRate: 2.99}, Language: "English", Length: 50, RentalDuration: 7, ReplacementCost: 18.99}, []string{"Documentary"}, 4},
		{models.FilmDetails{Film: models.Film{Title: "Affair Prejudice", Description: "A fanciful documentary of a frisbee and a lumberjack", ReleaseYear: 2006, Rating: "G", RentalRate: 2.99}, Language: "English", Length: 117, RentalDuration: 5, ReplacementCost: 26.99}, []string{"Horror"}, 1},
		{models.FilmDetails{Film: models.Film{Title: "African Egg", Description: "A fast-paced documentary of a pastry chef and a dentist", ReleaseYear: 2006, Rating: "G", RentalRate: 2.99}, Language: "English", Length: 130, RentalDuration: 6, ReplacementCost: 22.99}, []string{"Family"}, 2},
	}

	ids := make([]int64, 0, len(films))
	for _, f := range films {
		id := s.AddFilm(f.details, f.categories...)
		ids = append(ids, id)
		for i := 0; i < f.copies; i++ {
			s.AddInventory(id, int64(1+i%2), 0)
		}
	}

	s.AddActor("Penelope", "Guiness", ids[0], ids[3])
	s.AddActor("Nick", "Wahlberg", ids[1], ids[2])
	s.AddActor("Ed", "Chase", ids[0], ids[4])

	repo := s.Customers()
	for i, n := range demoNames {
		c := &models.Customer{
			StoreID:   int64(1 + i%2),
			FirstName: n[0],
			LastName:  n[1],
			Email:     fmt.Sprintf("%s.%s@sakilacustomer.org", n[0], n[1]),
		}
		// Seeded emails are unique, so Create cannot conflict.
		_ = repo.Create(context.Background(), c)
	}

	return s
}
