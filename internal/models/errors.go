package models

import "errors"

var (
	// ErrExternalService marks failures of any collaborator (exchange, store, cache).
	ErrExternalService = errors.New("external service error")
	ErrNotFound        = errors.New("not found")
)
