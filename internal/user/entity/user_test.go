package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_JSONKeepsIDPrecision(t *testing.T) {
	steam := int64(76561198012345678)
	u := User{UserID: 1189532475468533811, SteamID: &steam, Currency: DefaultCurrency}

	b, err := json.Marshal(u)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "1189532475468533811", m["user_id"])
	assert.Equal(t, "76561198012345678", m["steam_id"])
	assert.Equal(t, []any{}, m["value_history"])
}

func TestUser_JSONOmitsMissingSteam(t *testing.T) {
	b, err := json.Marshal(User{UserID: 42})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "steam_id")
	assert.False(t, (&User{}).HasSteam())
}

func TestValueHistory_Scan(t *testing.T) {
	var v ValueHistory
	require.NoError(t, v.Scan([]byte(`[{"value":10},{"value":12}]`)))
	require.Len(t, v, 2)
	assert.JSONEq(t, `{"value":12}`, string(v[1]))

	require.NoError(t, v.Scan(nil))
	assert.Empty(t, v)

	assert.Error(t, v.Scan(42))
	assert.Error(t, v.Scan("not json"))
}

func TestValueHistory_Value(t *testing.T) {
	var empty ValueHistory
	got, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), got)

	v := ValueHistory{json.RawMessage(`1`), json.RawMessage(`"x"`)}
	got, err = v.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[1,"x"]`, string(got.([]byte)))
}
