package library

import "errors"

// Common library service errors
var (
	// ErrDeckNotFound indicates the requested deck does not exist.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrNotSubscribed indicates the user has no subscription to the deck.
	ErrNotSubscribed = errors.New("deck is not in the user's library")

	// ErrEmptyCSV indicates the uploaded file produced no importable rows.
	ErrEmptyCSV = errors.New("csv contains no importable rows")

	// ErrWordInDeck indicates the deck already contains a card for the word.
	ErrWordInDeck = errors.New("word is already in the deck")
)
