// Package domain holds the core entities of the application: users, decks,
// cards, per-user scheduling progress, study sessions and review history.
// Entities validate themselves and carry no storage or transport concerns.
package domain
