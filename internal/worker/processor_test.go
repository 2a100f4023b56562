package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

type mockTallyRecorder struct {
	seen  map[int64]bool
	known map[int64]bool
	err   error
	calls int
}

func (m *mockTallyRecorder) RecordTally(ctx context.Context, rentalID int64) (bool, error) {
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	if !m.known[rentalID] {
		return false, models.ErrNotFoundWithMsg("rental not found")
	}
	if m.seen[rentalID] {
		return false, nil
	}
	m.seen[rentalID] = true
	return true, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRentalEventProcessor_Process(t *testing.T) {
	tests := []struct {
		name      string
		job       models.RentalJob
		repoErr   error
		wantErr   bool
		wantCalls int
	}{
		{name: "counts a new rental", job: models.RentalJob{RentalID: 1, InventoryID: 101}, wantCalls: 1},
		{name: "drops unknown rental", job: models.RentalJob{RentalID: 42}, wantCalls: 1},
		{name: "drops job without id", job: models.RentalJob{}, wantCalls: 0},
		{name: "surfaces storage errors", job: models.RentalJob{RentalID: 1}, repoErr: errors.New("connection reset"), wantErr: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockTallyRecorder{
				seen:  map[int64]bool{},
				known: map[int64]bool{1: true},
				err:   tt.repoErr,
			}
			p := NewRentalEventProcessor(repo, newTestLogger())

			err := p.Process(context.Background(), &tt.job)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, repo.calls)
		})
	}
}

func TestRentalEventProcessor_RedeliveryCountsOnce(t *testing.T) {
	repo := &mockTallyRecorder{seen: map[int64]bool{}, known: map[int64]bool{7: true}}
	p := NewRentalEventProcessor(repo, newTestLogger())

	job := &models.RentalJob{RentalID: 7, CorrelationID: "abc"}
	assert.NoError(t, p.Process(context.Background(), job))
	assert.NoError(t, p.Process(context.Background(), job))

	assert.Equal(t, 2, repo.calls)
	assert.True(t, repo.seen[7])
}
