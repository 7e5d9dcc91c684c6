package utilities

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// ErrInvalidID is returned when a provider identifier is not a positive 64-bit integer.
var ErrInvalidID = errors.New("invalid numeric id")

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// ParseSnowflake parses a Discord snowflake (decimal string) into an int64
// without going through floating point.
func ParseSnowflake(s string) (int64, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	if id.Int64() <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id.Int64(), nil
}

// ParseNumericID parses any other provider id (e.g. SteamID64).
func ParseNumericID(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return v, nil
}
