package user

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-steamlink/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-steamlink/pkg/database"
)

func int64p(v int64) *int64 { return &v }

type mockRepo struct{ mock.Mock }

func (m *mockRepo) Upsert(ctx context.Context, userID int64, steamID *int64) error {
	return m.Called(ctx, userID, steamID).Error(0)
}

func (m *mockRepo) GetByUserID(ctx context.Context, userID int64) (*entity.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func TestUserService_Link(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts then refetches", func(t *testing.T) {
		r := &mockRepo{}
		stored := &entity.User{UserID: 7, SteamID: int64p(76561198000000001), Currency: entity.DefaultCurrency}
		r.On("Upsert", ctx, int64(7), int64p(76561198000000001)).Return(nil).Once()
		r.On("GetByUserID", ctx, int64(7)).Return(stored, nil).Once()

		u, err := NewUserService(r).Link(ctx, 7, int64p(76561198000000001))
		require.NoError(t, err)
		assert.Same(t, stored, u)
		r.AssertExpectations(t)
	})

	t.Run("rejects non-positive ids without writing", func(t *testing.T) {
		r := &mockRepo{}
		svc := NewUserService(r)

		_, err := svc.Link(ctx, 0, nil)
		assert.ErrorIs(t, err, ErrInvalidUserID)
		_, err = svc.Link(ctx, 7, int64p(-1))
		assert.ErrorIs(t, err, ErrInvalidUserID)
		r.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("connection not ready is unavailable", func(t *testing.T) {
		r := &mockRepo{}
		r.On("Upsert", ctx, int64(7), (*int64)(nil)).Return(fmt.Errorf("upsert user: %w", database.ErrNotReady))

		_, err := NewUserService(r).Link(ctx, 7, nil)
		assert.ErrorIs(t, err, ErrStorageUnavailable)
		assert.ErrorIs(t, err, database.ErrNotReady)
		r.AssertNotCalled(t, "GetByUserID", mock.Anything, mock.Anything)
	})

	t.Run("constraint violation is a write failure", func(t *testing.T) {
		r := &mockRepo{}
		r.On("Upsert", ctx, int64(7), (*int64)(nil)).Return(&pq.Error{Code: "23514", Message: "check violation"})

		_, err := NewUserService(r).Link(ctx, 7, nil)
		assert.ErrorIs(t, err, ErrStorageWrite)
		assert.False(t, errors.Is(err, ErrStorageUnavailable))
	})

	t.Run("row missing after write", func(t *testing.T) {
		r := &mockRepo{}
		r.On("Upsert", ctx, int64(7), (*int64)(nil)).Return(nil)
		r.On("GetByUserID", ctx, int64(7)).Return(nil, fmt.Errorf("get user: %w", sql.ErrNoRows))

		_, err := NewUserService(r).Link(ctx, 7, nil)
		assert.ErrorIs(t, err, ErrStorageWrite)
	})
}

func TestUserService_Link_RefetchFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("read error is not a write rejection", func(t *testing.T) {
		r := &mockRepo{}
		r.On("Upsert", ctx, int64(7), (*int64)(nil)).Return(nil)
		r.On("GetByUserID", ctx, int64(7)).Return(nil, &pq.Error{Code: "22P02", Message: "invalid input syntax"})

		_, err := NewUserService(r).Link(ctx, 7, nil)
		assert.ErrorIs(t, err, ErrStorageRead)
		assert.False(t, errors.Is(err, ErrStorageWrite))
	})

	t.Run("canceled read is unavailable", func(t *testing.T) {
		r := &mockRepo{}
		r.On("Upsert", ctx, int64(7), (*int64)(nil)).Return(nil)
		r.On("GetByUserID", ctx, int64(7)).Return(nil, fmt.Errorf("get user 7: %w", context.Canceled))

		_, err := NewUserService(r).Link(ctx, 7, nil)
		assert.ErrorIs(t, err, ErrStorageUnavailable)
	})
}

func TestUserService_Get(t *testing.T) {
	ctx := context.Background()

	r := &mockRepo{}
	r.On("GetByUserID", ctx, int64(1)).Return(&entity.User{UserID: 1}, nil)
	r.On("GetByUserID", ctx, int64(2)).Return(nil, fmt.Errorf("get user: %w", sql.ErrNoRows))
	r.On("GetByUserID", ctx, int64(3)).Return(nil, driver.ErrBadConn)
	r.On("GetByUserID", ctx, int64(4)).Return(nil, errors.New("scan value_history"))
	svc := NewUserService(r)

	u, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.UserID)

	_, err = svc.Get(ctx, 2)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Get(ctx, 3)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = svc.Get(ctx, 4)
	assert.ErrorIs(t, err, ErrStorageRead)
}

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not ready", database.ErrNotReady, true},
		{"failed", fmt.Errorf("%w: refused", database.ErrFailed), true},
		{"closed", database.ErrClosed, true},
		{"bad conn", driver.ErrBadConn, true},
		{"conn done", sql.ErrConnDone, true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", fmt.Errorf("upsert user 1: %w", context.Canceled), true},
		{"connection exception", &pq.Error{Code: "08006"}, true},
		{"admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnavailable(tt.err))
		})
	}
}
