package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed = fmt.Errorf("authentication failed")
	ErrTimeout    = fmt.Errorf("operation timed out")

	// Search API errors
	ErrAPIRequest = fmt.Errorf("API request failed")
	ErrQuery      = fmt.Errorf("query failed")

	// Preview download errors
	ErrTransientFetch = fmt.Errorf("transient fetch error")
	ErrTerminalFetch  = fmt.Errorf("terminal fetch error")

	// Playback errors
	ErrDecode = fmt.Errorf("decode error")
	ErrDevice = fmt.Errorf("device error")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
