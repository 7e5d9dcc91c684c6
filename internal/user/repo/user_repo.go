package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-steamlink/internal/user/entity"
)

// Conn hands out the shared pool, failing fast while it is not established.
type Conn interface {
	DB() (*sqlx.DB, error)
}

// UserRepo provides data access for the users table using sqlx.
type UserRepo struct {
	conn Conn
}

func NewUserRepo(conn Conn) *UserRepo { return &UserRepo{conn: conn} }

// The creation-only columns appear in the INSERT list only. ON CONFLICT
// never names them, so a concurrent second insert for the same user_id
// degrades into the update branch and cannot reapply them.
const upsertUser = `
INSERT INTO users (user_id, steam_id, currency, cooldown, value_history)
VALUES ($1, $2, $3, $4, '[]'::jsonb)
ON CONFLICT (user_id) DO UPDATE
SET steam_id = COALESCE(EXCLUDED.steam_id, users.steam_id),
    updated_at = NOW()`

const selectUser = `SELECT user_id, steam_id, currency, cooldown, value_history, created_at, updated_at
FROM users WHERE user_id = $1`

// Upsert creates the user or, if it exists, sets steam_id when one is given.
// A nil steamID leaves any stored value untouched.
func (r *UserRepo) Upsert(ctx context.Context, userID int64, steamID *int64) error {
	db, err := r.conn.DB()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, upsertUser, userID, steamID, entity.DefaultCurrency, entity.DefaultCooldown); err != nil {
		return fmt.Errorf("upsert user %d: %w", userID, err)
	}
	return nil
}

// GetByUserID returns the user or sql.ErrNoRows.
func (r *UserRepo) GetByUserID(ctx context.Context, userID int64) (*entity.User, error) {
	db, err := r.conn.DB()
	if err != nil {
		return nil, err
	}
	var u entity.User
	if err := db.GetContext(ctx, &u, selectUser, userID); err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return &u, nil
}
