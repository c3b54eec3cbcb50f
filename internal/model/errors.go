package model

import "errors"

// Common errors used across the application
var (
	// Lobby errors
	ErrLobbyNotFound   = errors.New("lobby not found")
	ErrLobbyFull       = errors.New("lobby is full")
	ErrInvalidLetters  = errors.New("must provide at least two letters")
	ErrInvalidName     = errors.New("name must not be empty")
	ErrMissingJoinCode = errors.New("join code must not be empty")

	// Dictionary errors
	ErrDictionaryNotLoaded = errors.New("dictionary not loaded")
)
