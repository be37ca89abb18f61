// Package services talks to the outside world over HTTP: the Spotify search API and preview downloads.
//
// # Search
//
// [SpotifyService] implements [Searcher]. It issues GET /search?type=track with a bearer token
// from an [oauth2.TokenSource]. With a client id and secret the token comes from the client
// credentials flow (golang.org/x/oauth2/clientcredentials) and is refreshed on expiry; otherwise
// a static token is used.
//
// Both response shapes are accepted:
//   - {"tracks": {"items": [...]}} : the paging object returned by the Web API
//   - {"tracks": [...]}            : a bare array
//
// # Preview Downloads
//
// [PreviewFetcher] implements [Fetcher]. Each call runs under a [retry.Policy]:
//   - non-2xx status: [*HTTPError], terminal, never retried
//   - timeout or connection failure: [*TransientError], retried with exponential backoff
//   - retries exhausted: the error also matches [shared.ErrTerminalFetch]
//
// An optional [rate.Limiter] spaces out request starts across all concurrent pipelines.
//
// # Error Handling
//
// Errors wrap sentinels from the shared package:
//   - [shared.ErrAPIRequest] : search request or decoding failed ([*APIError] for status errors)
//   - [shared.ErrMissingCredentials] : no client credentials and no token
//   - [shared.ErrAuthFailed] : token could not be obtained
//   - [shared.ErrTransientFetch] / [shared.ErrTerminalFetch] : preview download failures
package services
