package srs

// Params defines the configurable constants of the SM-2 scheduler.
type Params struct {
	// MinEase is the floor for the ease multiplier.
	MinEase float64

	// SuccessThreshold is the lowest quality grade counted as a success.
	SuccessThreshold int

	// FailInterval is the interval in days after a failed review.
	FailInterval int

	// FirstInterval is the interval in days after the first successful review.
	FirstInterval int

	// SecondInterval is the interval in days after the second consecutive
	// successful review.
	SecondInterval int
}

// NewDefaultParams returns the standard SM-2 constants.
func NewDefaultParams() *Params {
	return &Params{
		MinEase:          1.3,
		SuccessThreshold: 3,
		FailInterval:     1,
		FirstInterval:    1,
		SecondInterval:   6,
	}
}
