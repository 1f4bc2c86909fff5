// Package spotify wraps the Spotify Web API track search behind a
// degrade-only interface: the caller always gets a result slice, never
// an error. Upstream or credential failure yields fallback results.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/setlisthq/setlist/internal/model"
)

const (
	defaultAuthURL = "https://accounts.spotify.com/api/token"
	defaultAPIURL  = "https://api.spotify.com/v1"

	upstreamTimeout = 8 * time.Second
	searchLimit     = 10

	// tokenSlack expires the cached token early so a request never
	// travels with one about to lapse.
	tokenSlack = 60 * time.Second
)

// Client searches the upstream track catalog using the client-credentials
// flow. The access token is cached and refreshed lazily, only when absent
// or expired.
type Client struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
	authURL      string
	apiURL       string
	log          zerolog.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient constructs a Client. Empty credentials are allowed: the
// client then serves fallback results without calling upstream.
func NewClient(clientID, clientSecret string, logger zerolog.Logger) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: upstreamTimeout},
		authURL:      defaultAuthURL,
		apiURL:       defaultAPIURL,
		log:          logger,
	}
}

// Search returns normalized track descriptors for the query. Queries
// shorter than 2 characters return an empty slice. Any upstream failure
// degrades to fallback results; Search never returns an error.
func (c *Client) Search(ctx context.Context, query string) []model.TrackResult {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []model.TrackResult{}
	}
	if c.clientID == "" || c.clientSecret == "" {
		return fallbackResults(query)
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("spotify token refresh failed, serving fallback")
		return fallbackResults(query)
	}

	results, err := c.searchTracks(ctx, token, query)
	if err != nil {
		c.log.Warn().Err(err).Str("query", query).Msg("spotify search failed, serving fallback")
		return fallbackResults(query)
	}
	return results
}

// accessToken returns the cached token, refreshing it only when absent
// or expired.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	c.token = body.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn)*time.Second - tokenSlack)
	return c.token, nil
}

func (c *Client) searchTracks(ctx context.Context, token, query string) ([]model.TrackResult, error) {
	q := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {fmt.Sprintf("%d", searchLimit)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Tracks struct {
			Items []struct {
				Name    string `json:"name"`
				URI     string `json:"uri"`
				Artists []struct {
					Name string `json:"name"`
				} `json:"artists"`
				Album struct {
					Name   string `json:"name"`
					Images []struct {
						URL string `json:"url"`
					} `json:"images"`
				} `json:"album"`
			} `json:"items"`
		} `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]model.TrackResult, 0, len(body.Tracks.Items))
	for _, item := range body.Tracks.Items {
		r := model.TrackResult{
			Name:  item.Name,
			URI:   item.URI,
			Album: item.Album.Name,
		}
		if len(item.Artists) > 0 {
			r.Artist = item.Artists[0].Name
		}
		if len(item.Album.Images) > 0 {
			r.AlbumImage = item.Album.Images[0].URL
		}
		results = append(results, r)
	}
	return results, nil
}

// fallbackResults is the clearly-marked placeholder set served while the
// upstream catalog is unavailable. Requesters can still submit the track
// they typed.
func fallbackResults(query string) []model.TrackResult {
	return []model.TrackResult{
		{
			Name:     query,
			Artist:   "Unknown Artist",
			Album:    "Catalog unavailable",
			Fallback: true,
		},
	}
}
