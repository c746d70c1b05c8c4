package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"ratemyfit/model"
)

// Credentials holds OAuth client credentials for a single provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// oauthClient implements Client over golang.org/x/oauth2 plus the provider's
// user-info API.
type oauthClient struct {
	name model.Provider
	cfg  *oauth2.Config
	http *http.Client
}

// NewClients builds a Client per configured provider. Providers with missing
// credentials are skipped, which disables their login buttons.
func NewClients(creds map[model.Provider]Credentials) map[model.Provider]Client {
	clients := make(map[model.Provider]Client)
	for name, c := range creds {
		if c.ClientID == "" || c.ClientSecret == "" {
			continue
		}
		var endpoint oauth2.Endpoint
		var scopes []string
		switch name {
		case model.ProviderGitHub:
			endpoint = github.Endpoint
			scopes = []string{"user:email"}
		case model.ProviderGoogle:
			endpoint = google.Endpoint
			scopes = []string{"openid", "email", "profile"}
		default:
			continue
		}
		clients[name] = &oauthClient{
			name: name,
			cfg: &oauth2.Config{
				ClientID:     c.ClientID,
				ClientSecret: c.ClientSecret,
				RedirectURL:  c.RedirectURL,
				Scopes:       scopes,
				Endpoint:     endpoint,
			},
			http: http.DefaultClient,
		}
	}
	return clients
}

func (c *oauthClient) Name() model.Provider {
	return c.name
}

func (c *oauthClient) AuthURL(state string) string {
	return c.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (c *oauthClient) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth code exchange: %w", err)
	}
	switch c.name {
	case model.ProviderGitHub:
		return c.fetchGitHubProfile(ctx, token.AccessToken)
	case model.ProviderGoogle:
		return c.fetchGoogleProfile(ctx, token.AccessToken)
	}
	return nil, fmt.Errorf("unsupported provider: %s", c.name)
}

// googlePhotoSize rewrites the size selector in Google photo URLs.
var googlePhotoSize = regexp.MustCompile(`=s\d+(-c)?`)

func (c *oauthClient) fetchGoogleProfile(ctx context.Context, accessToken string) (*Profile, error) {
	body, err := c.apiGet(ctx, "https://www.googleapis.com/oauth2/v2/userinfo", accessToken)
	if err != nil {
		return nil, err
	}
	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parse google user info: %w", err)
	}

	avatar := info.Picture
	if avatar != "" {
		// Request a usable resolution instead of the default thumbnail.
		if strings.Contains(avatar, "=s") {
			avatar = googlePhotoSize.ReplaceAllString(avatar, "=s400-c")
		}
	} else {
		avatar = FallbackAvatarURL(info.Name)
	}

	return &Profile{
		Provider:    model.ProviderGoogle,
		ProviderID:  info.ID,
		Email:       info.Email,
		DisplayName: info.Name,
		AvatarURL:   avatar,
	}, nil
}

func (c *oauthClient) fetchGitHubProfile(ctx context.Context, accessToken string) (*Profile, error) {
	body, err := c.apiGet(ctx, "https://api.github.com/user", accessToken)
	if err != nil {
		return nil, err
	}
	var info struct {
		ID        int    `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parse github user info: %w", err)
	}

	// GitHub hides private emails on /user; fall back to /user/emails.
	if info.Email == "" {
		info.Email, _ = c.fetchGitHubPrimaryEmail(ctx, accessToken)
	}

	displayName := info.Name
	if displayName == "" {
		displayName = info.Login
	}
	avatar := info.AvatarURL
	if avatar == "" {
		avatar = FallbackAvatarURL(displayName)
	}

	return &Profile{
		Provider:    model.ProviderGitHub,
		ProviderID:  fmt.Sprintf("%d", info.ID),
		Email:       info.Email,
		DisplayName: displayName,
		AvatarURL:   avatar,
	}, nil
}

func (c *oauthClient) fetchGitHubPrimaryEmail(ctx context.Context, accessToken string) (string, error) {
	body, err := c.apiGet(ctx, "https://api.github.com/user/emails", accessToken)
	if err != nil {
		return "", err
	}
	var emails []struct {
		Email   string `json:"email"`
		Primary bool   `json:"primary"`
	}
	if err := json.Unmarshal(body, &emails); err != nil {
		return "", err
	}
	for _, e := range emails {
		if e.Primary {
			return e.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}
	return "", nil
}

func (c *oauthClient) apiGet(ctx context.Context, url, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	// GitHub requires a User-Agent header
	if strings.Contains(url, "github.com") {
		req.Header.Set("User-Agent", "ratemyfit/1.0")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api get %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("api returned %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
