package user

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-steamlink/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-steamlink/pkg/database"
)

// Repository is the storage the service needs; *repo.UserRepo satisfies it.
type Repository interface {
	Upsert(ctx context.Context, userID int64, steamID *int64) error
	GetByUserID(ctx context.Context, userID int64) (*entity.User, error)
}

// UserService links Discord users to Steam accounts.
type UserService struct {
	repo Repository
}

func NewUserService(r Repository) *UserService {
	return &UserService{repo: r}
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageWrite       = errors.New("storage write rejected")
	ErrStorageRead        = errors.New("storage read failed")
)

// Link performs the atomic match-or-create for userID and returns the
// record as read back after the write. steamID may be nil.
func (s *UserService) Link(ctx context.Context, userID int64, steamID *int64) (*entity.User, error) {
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}
	if steamID != nil && *steamID <= 0 {
		return nil, fmt.Errorf("%w: steam id %d", ErrInvalidUserID, *steamID)
	}
	if err := s.repo.Upsert(ctx, userID, steamID); err != nil {
		return nil, classify(err)
	}
	u, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// the write reported success but the row is not there
			return nil, fmt.Errorf("%w: user %d missing after upsert", ErrStorageWrite, userID)
		}
		return nil, classifyRead(err)
	}
	return u, nil
}

// Get returns the stored record for userID.
func (s *UserService) Get(ctx context.Context, userID int64) (*entity.User, error) {
	u, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, classifyRead(err)
	}
	return u, nil
}

// classify maps a failed write onto ErrStorageUnavailable or
// ErrStorageWrite, keeping the original error in the chain.
func classify(err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%w: %w", ErrStorageWrite, err)
}

func classifyRead(err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%w: %w", ErrStorageRead, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, database.ErrNotReady) || errors.Is(err, database.ErrFailed) || errors.Is(err, database.ErrClosed) ||
		errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 08 connection exception, 57P admin shutdown / crash
		code := string(pqErr.Code)
		return strings.HasPrefix(code, "08") || strings.HasPrefix(code, "57P")
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
