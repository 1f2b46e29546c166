// Package store defines the persistence interfaces for the application's
// domain entities, along with shared error values and transaction helpers.
// Implementations live under internal/platform.
package store
