package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Creation-only defaults applied when a user record is first inserted.
const (
	DefaultCurrency = "USD"
	DefaultCooldown = int64(0)
)

// User is a row of the `users` table read by the bot.
// IDs are emitted as JSON strings so browser consumers keep every digit.
type User struct {
	UserID       int64        `db:"user_id" json:"user_id,string"`
	SteamID      *int64       `db:"steam_id" json:"steam_id,string,omitempty"`
	Currency     string       `db:"currency" json:"currency"`
	Cooldown     int64        `db:"cooldown" json:"cooldown"`
	ValueHistory ValueHistory `db:"value_history" json:"value_history"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// HasSteam reports whether a Steam account has been linked.
func (u *User) HasSteam() bool { return u.SteamID != nil }

// ValueHistory is the JSONB array owned by the bot. Entries are kept opaque.
type ValueHistory []json.RawMessage

func (v *ValueHistory) Scan(src any) error {
	var raw []byte
	switch s := src.(type) {
	case nil:
		*v = ValueHistory{}
		return nil
	case []byte:
		raw = s
	case string:
		raw = []byte(s)
	default:
		return fmt.Errorf("value_history: unsupported type %T", src)
	}
	out := ValueHistory{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("value_history: %w", err)
	}
	*v = out
	return nil
}

func (v ValueHistory) Value() (driver.Value, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]json.RawMessage(v))
}

// MarshalJSON keeps an empty history as [] rather than null.
func (v ValueHistory) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]json.RawMessage(v))
}
