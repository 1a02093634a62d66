package diplomacy

import "errors"

var (
	// ErrAlreadyProcessed is returned when Process is called twice.
	ErrAlreadyProcessed = errors.New("turn already processed")
	// ErrUnverified is returned when an order could not be verified.
	ErrUnverified = errors.New("order could not be verified")
	// ErrRetreatParadox is returned when retreat resolution leaves an order undecided.
	ErrRetreatParadox = errors.New("retreat resolution did not converge")
	// ErrOutcomeAlreadySet is returned when a decided outcome is written again.
	ErrOutcomeAlreadySet = errors.New("order outcome already set")
	// ErrVerifiedRegression is returned when a verified order is marked unverified.
	ErrVerifiedRegression = errors.New("verified flag cannot be cleared")
	// ErrDislodgeRegression is returned when dislodgement moves backwards.
	ErrDislodgeRegression = errors.New("dislodgement cannot regress")
	// ErrUnknownPhase is returned for a turn whose phase is not recognized.
	ErrUnknownPhase = errors.New("unknown phase")
)
