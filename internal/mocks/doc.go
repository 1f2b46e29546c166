// Package mocks provides centralized mock implementations for testing.
//
// This package contains mock implementations of the store and service
// interfaces used throughout the application, facilitating consistent and DRY
// testing across the codebase. Instead of defining inline mocks in individual
// test files, these standardized mock implementations can be reused.
//
// Each mock exposes a function field per interface method for per-test
// overrides, plus a map-backed default implementation so simple tests can
// seed data and go. WithTx returns the mock itself since the mocks carry no
// transaction state.
//
// Usage:
//
//	import "github.com/dmccdv/parrot/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    cards := mocks.NewMockCardStore()
//	    cards.GetByIDFn = func(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
//	        return nil, store.ErrCardNotFound
//	    }
//
//	    // Use the mock in your test...
//	}
package mocks
