package table

import "errors"

// ErrInvalidPhase is returned when an operation is illegal in the current
// table phase. It is a caller error, never fatal; the table is unchanged.
var ErrInvalidPhase = errors.New("operation not allowed in current phase")

// ErrInvalidSeatState is returned for an action on an empty or ineligible seat
var ErrInvalidSeatState = errors.New("seat is not in a valid state for that action")

// ErrUnknownSeat is returned when the seat id does not exist at the table
var ErrUnknownSeat = errors.New("no such seat")

// ErrSeatTaken is returned when joining a seat someone else occupies
var ErrSeatTaken = errors.New("seat is already taken")

// ErrMustHit is returned when standing on a two-card hand under the minimum
var ErrMustHit = errors.New("two-card total is under 16, you must hit first")

// ErrNoBets is returned when dealing with no wagering seats
var ErrNoBets = errors.New("no occupied seats have placed a bet")

// ErrPlayersStillActive is returned when the dealer turn starts before every
// wagering seat has stood or busted
var ErrPlayersStillActive = errors.New("players are still acting")
