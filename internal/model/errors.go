package model

import "errors"

// Common errors used across the application
var (
	// Account storage errors
	ErrAccountNotFound = errors.New("account not found")

	// Archive storage errors
	ErrArchiveNotFound = errors.New("archive not found")

	// Transport errors
	ErrTransportUnsupported = errors.New("transport kind not supported")
)
