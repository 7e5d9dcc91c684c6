package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-steamlink/internal/discord"
)

func TestReceive(t *testing.T) {
	steam := discord.Connection{Type: "steam", ID: "76561198000000001", Name: "gaben"}
	twitch := discord.Connection{Type: "twitch", ID: "abc"}

	tests := []struct {
		name      string
		profile   *discord.Profile
		policy    Policy
		wantUser  int64
		wantSteam *int64
		wantErr   error
	}{
		{
			name:      "steam found",
			profile:   &discord.Profile{ID: "1189532475468533811", Connections: []discord.Connection{twitch, steam}},
			policy:    PolicyStrict,
			wantUser:  1189532475468533811,
			wantSteam: int64p(76561198000000001),
		},
		{
			name: "first steam entry wins",
			profile: &discord.Profile{ID: "42", Connections: []discord.Connection{
				steam, {Type: "steam", ID: "76561198000000009"},
			}},
			wantUser:  42,
			wantSteam: int64p(76561198000000001),
		},
		{
			name:     "permissive without steam",
			profile:  &discord.Profile{ID: "42", Connections: []discord.Connection{twitch}},
			policy:   PolicyPermissive,
			wantUser: 42,
		},
		{
			name:    "strict without steam",
			profile: &discord.Profile{ID: "42"},
			policy:  PolicyStrict,
			wantErr: ErrNoLinkedAccount,
		},
		{
			name:    "type match is exact",
			profile: &discord.Profile{ID: "42", Connections: []discord.Connection{{Type: "Steam", ID: "1"}}},
			policy:  PolicyStrict,
			wantErr: ErrNoLinkedAccount,
		},
		{
			name:    "bad user id",
			profile: &discord.Profile{ID: "not-a-number"},
			wantErr: ErrInvalidProfile,
		},
		{
			name:    "bad steam id",
			profile: &discord.Profile{ID: "42", Connections: []discord.Connection{{Type: "steam", ID: "x"}}},
			wantErr: ErrInvalidProfile,
		},
		{
			name:    "nil profile",
			wantErr: ErrInvalidProfile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Receive(tt.profile, tt.policy)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, d.UserID)
			assert.Equal(t, tt.wantSteam, d.SteamID)
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyPermissive, p)

	p, err = ParsePolicy(" STRICT ")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)
	assert.Equal(t, "strict", p.String())

	_, err = ParsePolicy("lenient")
	assert.Error(t, err)
}

func TestPolicy_UnmarshalText(t *testing.T) {
	var p Policy
	require.NoError(t, p.UnmarshalText([]byte("strict")))
	assert.Equal(t, PolicyStrict, p)

	assert.Error(t, p.UnmarshalText([]byte("lenient")))
	assert.Equal(t, PolicyStrict, p, "a rejected value leaves the policy unchanged")
}
