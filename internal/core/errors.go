// Package core defines the fundamental types and errors for viewerscope.
package core

import "errors"

// Core errors that can occur across the system
var (
	// Analysis errors
	ErrInvalidBundle   = errors.New("invalid signal bundle")
	ErrMissingHardware = errors.New("missing hardware signals")
	ErrMissingNetwork  = errors.New("missing network signals")
	ErrAnalysisFailed  = errors.New("analysis failed")

	// Location errors
	ErrLocationNotFound    = errors.New("location not found")
	ErrProviderUnavailable = errors.New("location provider unavailable")
	ErrCacheMiss           = errors.New("location cache miss")

	// Storage errors
	ErrMigrationFailed = errors.New("migration failed")

	// Presence errors
	ErrServiceClosed = errors.New("presence service closed")
)
