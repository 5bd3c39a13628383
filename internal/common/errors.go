// Package common defines sentinel errors shared across the modus server
// layers. Callers should match them with errors.Is.
package common

import "errors"

var (
	// Repository and blob-store level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// Login outcome for a missing user or a digest mismatch. Handlers
	// must surface the same generic response for both cases.
	ErrorInvalidCredentials = errors.New("invalid credentials")
)
