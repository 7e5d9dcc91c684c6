package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ovaphlow/pitchfork/service-steamlink/internal/discord"
	"github.com/ovaphlow/pitchfork/service-steamlink/pkg/utilities"
)

// Policy decides what happens when a profile has no Steam connection.
type Policy int

const (
	// PolicyPermissive links the user anyway, without a steam id.
	PolicyPermissive Policy = iota
	// PolicyStrict refuses the login.
	PolicyStrict
)

func (p Policy) String() string {
	if p == PolicyStrict {
		return "strict"
	}
	return "permissive"
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "permissive":
		return PolicyPermissive, nil
	case "strict":
		return PolicyStrict, nil
	default:
		return PolicyPermissive, fmt.Errorf("unknown link policy %q", s)
	}
}

// UnmarshalText lets config loaders parse LINK_POLICY through ParsePolicy.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

var (
	ErrInvalidProfile  = errors.New("invalid discord profile")
	ErrNoLinkedAccount = errors.New("no linked steam account")
)

// Decision is what the upsert needs to know about a verified login.
type Decision struct {
	UserID  int64
	SteamID *int64
}

// Receive turns a verified profile into a Decision. It has no side effects.
func Receive(p *discord.Profile, policy Policy) (Decision, error) {
	if p == nil {
		return Decision{}, fmt.Errorf("%w: empty profile", ErrInvalidProfile)
	}
	userID, err := utilities.ParseSnowflake(p.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: user id: %w", ErrInvalidProfile, err)
	}
	d := Decision{UserID: userID}

	conn, ok := discord.FindConnection(p.Connections, discord.ConnectionTypeSteam)
	if !ok {
		if policy == PolicyStrict {
			return Decision{}, ErrNoLinkedAccount
		}
		return d, nil
	}
	steamID, err := utilities.ParseNumericID(conn.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: steam id: %w", ErrInvalidProfile, err)
	}
	d.SteamID = &steamID
	return d, nil
}
