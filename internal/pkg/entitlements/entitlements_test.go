package entitlements

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/FilmPass/app/models"
	"github.com/ManuelReschke/FilmPass/app/repository"
	"github.com/ManuelReschke/FilmPass/internal/pkg/apperror"
	"github.com/ManuelReschke/FilmPass/internal/pkg/testutil"
)

func newService(t *testing.T) (*Service, *models.Film, func() int64) {
	t.Helper()
	db := testutil.NewTestDB(t)
	film := testutil.SeedFilm(t, db, "tony-s1")
	repos := repository.NewRepositories(db)
	count := func() int64 {
		return testutil.CountRows(t, db, &models.Entitlement{}, "")
	}
	return NewService(repos.Film, repos.Entitlement), film, count
}

func TestService_ResolveFilm(t *testing.T) {
	svc, film, _ := newService(t)
	ctx := context.Background()

	got, err := svc.ResolveFilm(ctx, " tony-s1 ")
	require.NoError(t, err)
	assert.Equal(t, film.ID, got.ID)

	_, err = svc.ResolveFilm(ctx, "")
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))

	_, err = svc.ResolveFilm(ctx, "nope")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestService_CheckAndRequireActive(t *testing.T) {
	svc, film, _ := newService(t)
	ctx := context.Background()

	status, err := svc.Check(ctx, "user-1", "tony-s1")
	require.NoError(t, err)
	assert.False(t, status.HasAccess())
	assert.Nil(t, status.Entitlement)

	_, err = svc.RequireActive(ctx, "user-1", "tony-s1")
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	require.NoError(t, svc.Grant(ctx, Grant{UserID: "user-1", FilmID: film.ID, PaymentID: "pay-1"}))

	status, err = svc.Check(ctx, "user-1", "tony-s1")
	require.NoError(t, err)
	assert.True(t, status.HasAccess())

	got, err := svc.RequireActive(ctx, "user-1", "tony-s1")
	require.NoError(t, err)
	assert.Equal(t, film.ID, got.ID)

	// other users stay locked out
	_, err = svc.RequireActive(ctx, "user-2", "tony-s1")
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
}

func TestService_GrantTwiceKeepsOneRow(t *testing.T) {
	svc, film, count := newService(t)
	ctx := context.Background()

	grant := Grant{
		UserID:      "user-1",
		FilmID:      film.ID,
		PaymentID:   "pay-1",
		PurchasedAt: time.Date(2026, 3, 1, 11, 59, 0, 0, time.UTC),
	}
	require.NoError(t, svc.Grant(ctx, grant))
	require.NoError(t, svc.Grant(ctx, grant))

	assert.Equal(t, int64(1), count())

	ent, err := svc.ActiveFor(ctx, "user-1", film.ID)
	require.NoError(t, err)
	require.NotNil(t, ent)
	assert.Equal(t, "pay-1", ent.SquarePaymentID)
}

func TestService_GrantValidates(t *testing.T) {
	svc, film, count := newService(t)
	ctx := context.Background()

	err := svc.Grant(ctx, Grant{FilmID: film.ID})
	assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))

	err = svc.Grant(ctx, Grant{UserID: "user-1", FilmID: film.ID + 100})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	assert.Equal(t, int64(0), count())
}
