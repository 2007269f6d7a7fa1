package domain

import "errors"

// Credential verification outcomes. Callers branch on them with errors.Is.
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrExpiredCredential = errors.New("expired credential")
)
