package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/oauth2"
)

var ErrProviderAuth = errors.New("discord authentication failed")

// Scopes needed to read the user and the accounts they have connected.
var Scopes = []string{"identify", "connections"}

// Endpoint is Discord's OAuth2 authorization server.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// ProfileFetcher reads the profile with an access token.
type ProfileFetcher interface {
	Fetch(ctx context.Context, client *http.Client) (*Profile, error)
}

// Provider performs the Discord handshake. It returns identity facts only;
// linking and sessions are decided by the caller.
type Provider struct {
	oauthConfig *oauth2.Config
	fetcher     ProfileFetcher
}

func New(clientID, clientSecret, redirectURL string) (*Provider, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("discord oauth config missing required fields")
	}
	return &Provider{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     Endpoint,
			Scopes:       Scopes,
		},
		fetcher: RESTFetcher{},
	}, nil
}

// WithEndpoint swaps the authorization server and profile source.
func (p *Provider) WithEndpoint(ep oauth2.Endpoint, fetcher ProfileFetcher) *Provider {
	cfg := *p.oauthConfig
	cfg.Endpoint = ep
	return &Provider{oauthConfig: &cfg, fetcher: fetcher}
}

// AuthCodeURL builds the consent URL with state and an S256 PKCE challenge.
func (p *Provider) AuthCodeURL(state, verifier string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
	)
}

// Exchange trades the authorization code for a token and loads the profile.
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (*Profile, error) {
	token, err := p.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", ErrProviderAuth, err)
	}
	profile, err := p.fetcher.Fetch(ctx, p.oauthConfig.Client(ctx, token))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderAuth, err)
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("%w: profile without id", ErrProviderAuth)
	}
	return profile, nil
}

// RESTFetcher reads /users/@me and /users/@me/connections via discordgo.
type RESTFetcher struct{}

func (RESTFetcher) Fetch(ctx context.Context, client *http.Client) (*Profile, error) {
	// Authorization is added by the oauth2 transport, so the session token
	// stays empty.
	s, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Client = client

	u, err := s.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	conns, err := s.UserConnections(discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch connections: %w", err)
	}

	p := &Profile{ID: u.ID, Username: u.Username, GlobalName: u.GlobalName}
	for _, c := range conns {
		if c == nil {
			continue
		}
		p.Connections = append(p.Connections, Connection{Type: c.Type, ID: c.ID, Name: c.Name, Revoked: c.Revoked})
	}
	return p, nil
}
