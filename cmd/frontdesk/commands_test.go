package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raymond9734/film-rental-frontdesk/internal/backend/backendtest"
	"github.com/Raymond9734/film-rental-frontdesk/internal/config"
	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
	"github.com/Raymond9734/film-rental-frontdesk/internal/repository/memory"
)

type cli struct {
	srv *backendtest.Server
	cfg config.FrontDeskConfig
}

func newCLI(t *testing.T, customers int) *cli {
	t.Helper()
	store := memory.NewStore()
	backendtest.AddCustomers(t, store, customers)
	srv := backendtest.New(t, store)
	return &cli{
		srv: srv,
		cfg: config.FrontDeskConfig{
			APIURL:       srv.APIURL(),
			StaffID:      1,
			StoreID:      1,
			Timeout:      5 * time.Second,
			SuccessDelay: 10 * time.Millisecond,
		},
	}
}

func (c *cli) run(args ...string) (string, error) {
	var stdout bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := run(context.Background(), args, c.cfg, &stdout, io.Discard, logger)
	return stdout.String(), err
}

func TestRun_Usage(t *testing.T) {
	c := newCLI(t, 0)

	_, err := c.run()
	assert.ErrorIs(t, err, errUsage)

	_, err = c.run("rewind")
	assert.ErrorIs(t, err, errUsage)

	_, err = c.run("inventory")
	assert.ErrorIs(t, err, errUsage)

	_, err = c.run("customers", "-page", "two")
	assert.ErrorIs(t, err, errUsage)

	assert.Zero(t, c.srv.TotalCalls())
}

func TestRun_Customers(t *testing.T) {
	c := newCLI(t, 25)

	out, err := c.run("customers", "-page", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "First11 Last11")
	assert.NotContains(t, out, "First21 Last21")
	assert.Contains(t, out, "Page 2 of 3 (25 customers)")

	out, err = c.run("customers", "-search", "Last25", "-type", "last_name")
	require.NoError(t, err)
	assert.Contains(t, out, "customer25@example.com")
	assert.Contains(t, out, "Page 1 of 1 (1 customers)")

	out, err = c.run("customers", "-page", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "Page 9 does not exist.")
	assert.Contains(t, out, "Page 1 of 3")
}

func TestRun_CustomerAdd(t *testing.T) {
	c := newCLI(t, 3)

	out, err := c.run("customer-add", "-first", "Mary", "-last", "Smith", "-email", "mary.smith@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Customer added successfully!")
	assert.Contains(t, out, "Mary Smith")
	assert.Contains(t, out, "Page 1 of 1 (4 customers)")
	assert.Equal(t, 1, c.srv.Calls("POST", "/customers"))
}

func TestRun_CustomerAddRejectsInvalidInput(t *testing.T) {
	c := newCLI(t, 0)

	_, err := c.run("customer-add", "-first", "Mary", "-last", "Smith", "-email", "not-an-email")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))
	assert.Zero(t, c.srv.Calls("POST", "/customers"))
}

func TestRun_CustomerEditAndDelete(t *testing.T) {
	c := newCLI(t, 2)

	out, err := c.run("customer-edit", "-id", "2", "-email", "second@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Customer updated successfully!")

	got, err := c.srv.Store.Customers().GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "second@example.com", got.Email)
	assert.Equal(t, "First2", got.FirstName)

	out, err = c.run("customer-delete", "-id", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Run again with -yes")
	assert.Zero(t, c.srv.Calls("DELETE", "/customers/2"))

	out, err = c.run("customer-delete", "-id", "2", "-yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Customer deactivated successfully")

	got, err = c.srv.Store.Customers().GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestRun_RentAndReturn(t *testing.T) {
	c := newCLI(t, 1)
	filmID := backendtest.AddFilmWithCopies(c.srv.Store, "ACADEMY DINOSAUR", 101, 102)
	film := strconv.FormatInt(filmID, 10)

	out, err := c.run("inventory", "-film", film)
	require.NoError(t, err)
	assert.Contains(t, out, "101")
	assert.Contains(t, out, "102")

	out, err = c.run("rent", "-film", film, "-customer", "1", "-inventory", "101")
	require.NoError(t, err)
	assert.Contains(t, out, "Rental 1 created successfully")
	assert.Contains(t, out, "102")
	assert.NotContains(t, out, "101")

	_, err = c.run("rent", "-film", film, "-customer", "1", "-inventory", "101")
	assert.Error(t, err)

	out, err = c.run("return", "-rental", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Rental 1 returned")
}

func TestRun_ServerUnreachable(t *testing.T) {
	c := newCLI(t, 0)
	c.srv.Close()

	_, err := c.run("customers")
	require.Error(t, err)
	assert.True(t, models.IsTransport(err))
	assert.Equal(t, "Unable to reach the store server. Please try again.", models.UserMessage(err))
}
