package provider

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratemyfit/model"
)

// stubTransport serves canned JSON bodies keyed by URL path.
type stubTransport struct {
	responses map[string]string
	requests  []*http.Request
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req)
	body, ok := s.responses[req.URL.Path]
	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
		body = `{"message":"not found"}`
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Request:    req,
	}, nil
}

func stubClient(name model.Provider, transport *stubTransport) *oauthClient {
	return &oauthClient{
		name: name,
		http: &http.Client{Transport: transport},
	}
}

func TestFetchGoogleProfile(t *testing.T) {
	transport := &stubTransport{responses: map[string]string{
		"/oauth2/v2/userinfo": `{
			"id": "g-123",
			"email": "alice@example.com",
			"name": "Alice",
			"picture": "https://lh3.googleusercontent.com/a/photo=s96-c"
		}`,
	}}
	c := stubClient(model.ProviderGoogle, transport)

	profile, err := c.fetchGoogleProfile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, model.ProviderGoogle, profile.Provider)
	assert.Equal(t, "g-123", profile.ProviderID)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, "https://lh3.googleusercontent.com/a/photo=s400-c", profile.AvatarURL,
		"the thumbnail size selector is rewritten")
}

func TestFetchGoogleProfileWithoutPhoto(t *testing.T) {
	transport := &stubTransport{responses: map[string]string{
		"/oauth2/v2/userinfo": `{"id": "g-9", "email": "bob@example.com", "name": "Bob"}`,
	}}
	c := stubClient(model.ProviderGoogle, transport)

	profile, err := c.fetchGoogleProfile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Contains(t, profile.AvatarURL, "ui-avatars.com", "missing photos fall back to a generated avatar")
	assert.Contains(t, profile.AvatarURL, "name=Bob")
}

func TestFetchGitHubProfile(t *testing.T) {
	transport := &stubTransport{responses: map[string]string{
		"/user": `{
			"id": 777,
			"login": "carol",
			"name": "Carol C",
			"email": "carol@example.com",
			"avatar_url": "https://avatars.githubusercontent.com/u/777"
		}`,
	}}
	c := stubClient(model.ProviderGitHub, transport)

	profile, err := c.fetchGitHubProfile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "777", profile.ProviderID, "the numeric GitHub ID is stringified")
	assert.Equal(t, "Carol C", profile.DisplayName)
	assert.Equal(t, "carol@example.com", profile.Email)

	require.NotEmpty(t, transport.requests)
	assert.NotEmpty(t, transport.requests[0].Header.Get("User-Agent"), "GitHub rejects requests without a User-Agent")
}

func TestFetchGitHubProfilePrivateEmail(t *testing.T) {
	transport := &stubTransport{responses: map[string]string{
		"/user": `{"id": 888, "login": "dave", "email": ""}`,
		"/user/emails": `[
			{"email": "secondary@example.com", "primary": false},
			{"email": "dave@example.com", "primary": true}
		]`,
	}}
	c := stubClient(model.ProviderGitHub, transport)

	profile, err := c.fetchGitHubProfile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "dave@example.com", profile.Email, "the primary address wins")
	assert.Equal(t, "dave", profile.DisplayName, "the login fills in for a missing name")
}

func TestAPIGetErrorStatus(t *testing.T) {
	c := stubClient(model.ProviderGitHub, &stubTransport{responses: map[string]string{}})

	_, err := c.apiGet(context.Background(), "https://api.github.com/user", "tok")
	assert.Error(t, err)
}

func TestNewClientsSkipsUnconfigured(t *testing.T) {
	clients := NewClients(map[model.Provider]Credentials{
		model.ProviderGoogle: {ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"},
		model.ProviderGitHub: {},
	})

	assert.Contains(t, clients, model.ProviderGoogle)
	assert.NotContains(t, clients, model.ProviderGitHub, "providers without credentials are disabled")

	state := "abc123"
	url := clients[model.ProviderGoogle].AuthURL(state)
	assert.Contains(t, url, "state="+state)
	assert.Contains(t, url, "accounts.google.com")
}
