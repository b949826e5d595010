package adapters

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/core/cache"
	"pixelpanic/internal/features/technicians/domain"
	"pixelpanic/internal/features/technicians/ports"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var inviteCols = []string{"id", "phone_number", "name", "token", "expires_at", "used_at", "revoked_at", "created_at"}

func TestPostgresInviteRepository_GetByToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresInviteRepository(db)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`FROM technician_invites WHERE token = \$1`).
		WithArgs("tok-1").
		WillReturnRows(sqlmock.NewRows(inviteCols).AddRow(id.String(), "+919876543210", "Ravi", "tok-1", now.Add(time.Hour), nil, nil, now))
	mock.ExpectQuery(`FROM technician_invites WHERE token = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(inviteCols))

	inv, err := repo.GetByToken(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, id, inv.ID)
	assert.Nil(t, inv.UsedAt)
	assert.Equal(t, domain.InviteStatusActive, inv.Status(now))

	_, err = repo.GetByToken(context.Background(), "missing")
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInviteRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresInviteRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM technician_invites ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows(inviteCols).
			AddRow(uuid.NewString(), "+919876543210", "", "a", now.Add(time.Hour), nil, nil, now).
			AddRow(uuid.NewString(), "+919876543211", "", "b", now.Add(time.Hour), now, nil, now))

	invites, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, invites, 2)
	assert.NotNil(t, invites[1].UsedAt)
}

func TestPostgresInviteRepository_Revoke(t *testing.T) {
	t.Run("Unused", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewPostgresInviteRepository(db)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT used_at FROM technician_invites WHERE id = \$1 FOR UPDATE`).
			WithArgs(id).WillReturnRows(sqlmock.NewRows([]string{"used_at"}).AddRow(nil))
		mock.ExpectExec(`UPDATE technician_invites SET revoked_at`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.Revoke(context.Background(), id, time.Now()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyUsed", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewPostgresInviteRepository(db)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT used_at FROM technician_invites`).
			WithArgs(id).WillReturnRows(sqlmock.NewRows([]string{"used_at"}).AddRow(time.Now()))
		mock.ExpectRollback()

		err = repo.Revoke(context.Background(), id, time.Now())
		assert.ErrorIs(t, err, domain.ErrInviteAlreadyUsed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresInviteRepository_Accept(t *testing.T) {
	t.Run("ConsumesAndPromotes", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewPostgresInviteRepository(db)
		userID := uuid.New()
		at := time.Now()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE technician_invites SET used_at = \$3 WHERE token = \$1 AND phone_number = \$2 AND used_at IS NULL AND revoked_at IS NULL AND expires_at > \$3`).
			WithArgs("tok-1", "+919876543210", at).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE users SET role = 'technician'`).
			WithArgs(userID, at).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.Accept(context.Background(), "tok-1", "+919876543210", userID, at))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SecondAcceptFails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewPostgresInviteRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE technician_invites SET used_at`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = repo.Accept(context.Background(), "tok-1", "+919876543210", uuid.New(), time.Now())
		assert.ErrorIs(t, err, domain.ErrInviteUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresCompletionRepository_Complete(t *testing.T) {
	t.Run("InProgress", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewPostgresCompletionRepository(db)
		orderID, techID := uuid.New(), uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT status FROM orders WHERE id = \$1 FOR UPDATE`).
			WithArgs(orderID).WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("in_progress"))
		mock.ExpectExec(`UPDATE orders SET status = \$2`).WithArgs(orderID, "completed").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO order_events`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO gig_completions`).
			WithArgs(sqlmock.AnyArg(), orderID, techID, "replaced screen", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = repo.Complete(context.Background(), orderID, techID, "replaced screen", []string{"/uploads/gigs/a.jpg"})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotStarted", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewPostgresCompletionRepository(db)
		orderID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT status FROM orders`).
			WithArgs(orderID).WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("confirmed"))
		mock.ExpectRollback()

		err = repo.Complete(context.Background(), orderID, uuid.New(), "", nil)
		var ite *apperr.InvalidTransitionError
		assert.True(t, errors.As(err, &ite))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisCodeStore(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	defer c.Close()

	store := NewRedisCodeStore(c)
	ctx := context.Background()
	orderID := uuid.New()

	_, err = store.Get(ctx, orderID)
	assert.ErrorIs(t, err, ports.ErrCodeNotFound)

	require.NoError(t, store.Save(ctx, orderID, []byte("hash"), time.Hour))
	got, err := store.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, []byte("hash"), got)

	n, err := store.Failures(ctx, orderID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.RecordFailure(ctx, orderID, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = store.Failures(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.Save(ctx, orderID, []byte("hash2"), time.Hour))
	n, err = store.RecordFailure(ctx, orderID, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "reissuing a code resets attempts")

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, orderID)
	assert.ErrorIs(t, err, ports.ErrCodeNotFound)

	require.NoError(t, store.Delete(ctx, orderID))
}

func TestAferoPhotoStorage(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := NewAferoPhotoStorage(fs)
	ctx := context.Background()

	url, err := storage.Save(ctx, "gigs", "a.jpg", bytes.NewReader([]byte("jpeg bytes")))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/gigs/a.jpg", url)

	data, err := afero.ReadFile(fs, "gigs/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	assert.True(t, storage.Exists(ctx, url))
	assert.False(t, storage.Exists(ctx, "/uploads/gigs/missing.jpg"))
	assert.False(t, storage.Exists(ctx, "/uploads/gigs"))
	assert.False(t, storage.Exists(ctx, "/uploads/../etc/passwd"))
	assert.False(t, storage.Exists(ctx, "https://example.com/a.jpg"))

	_, err = storage.Save(ctx, "gigs", "a.jpg", bytes.NewReader([]byte("again")))
	assert.Error(t, err, "names are never overwritten")
}
