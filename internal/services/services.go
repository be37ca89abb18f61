package services

import (
	"context"

	"github.com/desertthunder/previewer/internal/models"
)

// Searcher finds tracks matching a free-text query.
type Searcher interface {
	// Search returns matching tracks in the order the provider ranks them.
	// Descriptors without a preview URL are included.
	Search(ctx context.Context, query string) ([]models.TrackDescriptor, error)

	// Name returns the name of the provider (e.g., "Spotify")
	Name() string
}

// Fetcher downloads a preview payload.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (models.Download, error)
}

var (
	_ Searcher = (*SpotifyService)(nil)
	_ Fetcher  = (*PreviewFetcher)(nil)
)
