package discord

// Connection is one third-party account a Discord user has linked.
type Connection struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Revoked bool   `json:"revoked"`
}

// Profile is the verified identity returned after the OAuth handshake.
type Profile struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	GlobalName  string       `json:"global_name,omitempty"`
	Connections []Connection `json:"connections"`
}

// ConnectionTypeSteam is the discriminator Discord uses for Steam accounts.
const ConnectionTypeSteam = "steam"

// FindConnection returns the first connection of the given type, in the
// order Discord reported them.
func FindConnection(conns []Connection, kind string) (Connection, bool) {
	for _, c := range conns {
		if c.Type == kind {
			return c, true
		}
	}
	return Connection{}, false
}
