// Spotify Web API search client
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/search
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/previewer/internal/models"
	"github.com/desertthunder/previewer/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// APIError is a non-2xx response from the search API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("spotify API error: status %d", e.Status)
	}
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Body)
}

func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents the fields of a Spotify track used for previews.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	PreviewURL *string         `json:"preview_url"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// Descriptor converts the track to a [models.TrackDescriptor].
func (t SpotifyTrack) Descriptor() models.TrackDescriptor {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	d := models.TrackDescriptor{ID: t.ID, Name: t.Name, Artists: artists}
	if t.PreviewURL != nil && *t.PreviewURL != "" {
		preview := *t.PreviewURL
		d.PreviewURL = &preview
	}
	return d
}

// SpotifyPaginatedTracks is the paging object under "tracks" in a search response.
type SpotifyPaginatedTracks struct {
	Items  []SpotifyTrack `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Next   *string        `json:"next"`
}

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Token        string // static bearer token, used when client credentials are absent
	Market       string
	Limit        int
	HTTPClient   *http.Client // base client for API and token requests
	Logger       *log.Logger
}

// SpotifyService searches the Spotify catalog.
//
// Requests are authorized through an [oauth2.TokenSource]: either the client credentials
// flow, which refreshes tokens on expiry, or a static token.
type SpotifyService struct {
	baseURL    string
	market     string
	limit      int
	tokens     oauth2.TokenSource
	httpClient *http.Client
	logger     *log.Logger
}

// NewSpotifyService creates a search client. Client credentials take precedence over a static token.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, opts.HTTPClient)

	var tokens oauth2.TokenSource
	switch {
	case opts.ClientID != "" && opts.ClientSecret != "":
		cc := &clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
		}
		tokens = cc.TokenSource(ctx)
	case opts.Token != "":
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"})
	default:
		return nil, fmt.Errorf("%w: spotify client_id/client_secret or token required", shared.ErrMissingCredentials)
	}

	client := oauth2.NewClient(ctx, tokens)
	client.Timeout = opts.HTTPClient.Timeout

	return &SpotifyService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		market:     opts.Market,
		limit:      opts.Limit,
		tokens:     tokens,
		httpClient: client,
		logger:     opts.Logger,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Authenticate obtains a token, verifying the configured credentials.
func (s *SpotifyService) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	token, err := s.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Search returns the tracks matching query, in API order.
func (s *SpotifyService) Search(ctx context.Context, query string) ([]models.TrackDescriptor, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", shared.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	if s.limit > 0 {
		params.Set("limit", strconv.Itoa(s.limit))
	}
	if s.market != "" {
		params.Set("market", s.market)
	}

	body, err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	tracks, err := decodeSearchTracks(body)
	if err != nil {
		return nil, err
	}

	descriptors := make([]models.TrackDescriptor, 0, len(tracks))
	for _, t := range tracks {
		descriptors = append(descriptors, t.Descriptor())
	}

	s.logger.Debug("search complete", "query", query, "tracks", len(descriptors))
	return descriptors, nil
}

// doRequest performs an authenticated request against the API and returns the body.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: snippet(body)}
	}
	return body, nil
}

// decodeSearchTracks accepts both {"tracks":{"items":[...]}} and {"tracks":[...]}.
func decodeSearchTracks(data []byte) ([]SpotifyTrack, error) {
	var response struct {
		Tracks json.RawMessage `json:"tracks"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", shared.ErrAPIRequest, err)
	}

	raw := bytes.TrimSpace(response.Tracks)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: response has no tracks field", shared.ErrAPIRequest)
	}

	if raw[0] == '[' {
		var tracks []SpotifyTrack
		if err := json.Unmarshal(raw, &tracks); err != nil {
			return nil, fmt.Errorf("%w: failed to decode tracks: %w", shared.ErrAPIRequest, err)
		}
		return tracks, nil
	}

	var page SpotifyPaginatedTracks
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("%w: failed to decode tracks: %w", shared.ErrAPIRequest, err)
	}
	return page.Items, nil
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}
