// Package srs implements the SM-2 spaced-repetition scheduler. The scheduler
// is a pure function of the current progress record, the review quality and
// an injected clock reading; it performs no I/O and uses no randomness.
package srs

import (
	"errors"
	"math"
	"time"

	"github.com/dmccdv/parrot/internal/domain"
)

// Common errors
var (
	ErrNilProgress = errors.New("card progress cannot be nil")
)

// ReviewDelta snapshots the scheduling state around one review, as recorded
// in the review log.
type ReviewDelta struct {
	EaseBefore     float64
	EaseAfter      float64
	IntervalBefore int
	IntervalAfter  int
	DueBefore      time.Time
	DueAfter       time.Time
}

// Service defines the interface for scheduler operations.
type Service interface {
	// ApplyReview computes the next memory state for a graded review.
	// quality is clamped to [0,5] before use. The input progress is not
	// modified; a new record is returned together with the before/after
	// snapshot.
	ApplyReview(
		progress *domain.CardProgress,
		quality int,
		now time.Time,
	) (*domain.CardProgress, ReviewDelta, error)
}

type defaultService struct {
	params *Params
}

// NewDefaultService creates a scheduler with the standard SM-2 constants.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a scheduler with custom constants.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{params: params}
}

// ApplyReview implements Service.
func (s *defaultService) ApplyReview(
	progress *domain.CardProgress,
	quality int,
	now time.Time,
) (*domain.CardProgress, ReviewDelta, error) {
	if progress == nil {
		return nil, ReviewDelta{}, ErrNilProgress
	}

	q := clampQuality(quality)

	next := *progress
	delta := ReviewDelta{
		EaseBefore:     progress.Ease,
		IntervalBefore: progress.IntervalDays,
		DueBefore:      progress.DueAt,
	}

	if q < s.params.SuccessThreshold {
		next.Repetitions = 0
		next.IntervalDays = s.params.FailInterval
		next.Lapses++
		next.State = domain.ProgressStateRelearning
	} else {
		switch progress.Repetitions {
		case 0:
			// A first-ever success bootstraps the interval and, like a
			// failure, counts a lapse.
			next.IntervalDays = s.params.FirstInterval
			next.Lapses++
		case 1:
			next.IntervalDays = s.params.SecondInterval
		default:
			next.IntervalDays = int(math.Round(float64(progress.IntervalDays) * progress.Ease))
		}
		next.Repetitions++
		next.State = domain.ProgressStateReview
	}

	// Ease moves on every review, success or failure, and never drops
	// below the floor.
	next.Ease = progress.Ease + (0.1 - float64(5-q)*(0.08+float64(5-q)*0.002))
	if next.Ease < s.params.MinEase {
		next.Ease = s.params.MinEase
	}

	next.DueAt = now.AddDate(0, 0, next.IntervalDays)
	reviewedAt := now
	next.LastReviewedAt = &reviewedAt
	next.UpdatedAt = now

	delta.EaseAfter = next.Ease
	delta.IntervalAfter = next.IntervalDays
	delta.DueAfter = next.DueAt

	return &next, delta, nil
}

// clampQuality forces a grade into the valid [0,5] range.
func clampQuality(q int) int {
	if q < 0 {
		return 0
	}
	if q > 5 {
		return 5
	}
	return q
}
