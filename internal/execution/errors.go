package execution

import "errors"

var (
	// ErrInvalidSymbol is returned when an order has no symbol.
	ErrInvalidSymbol = errors.New("order symbol is required")

	// ErrInvalidSide is returned when an order side is neither buy nor sell.
	ErrInvalidSide = errors.New("invalid order side")

	// ErrInvalidQuantity is returned when quantity is not positive and finite.
	ErrInvalidQuantity = errors.New("order quantity must be positive and finite")

	// ErrInvalidLimitPrice is returned when a limit price is not positive and finite.
	ErrInvalidLimitPrice = errors.New("limit price must be positive and finite")

	// ErrOutOfOrderSubmission is returned when a submission time precedes an earlier submission.
	ErrOutOfOrderSubmission = errors.New("submission time precedes previous submission")

	// ErrTimeRegression is returned when a tick timestamp is earlier than the simulation clock.
	ErrTimeRegression = errors.New("tick timestamp precedes simulation clock")

	// ErrNonFinitePrice is returned when a tick or execution price is not positive and finite.
	ErrNonFinitePrice = errors.New("price is not positive and finite")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid execution config")
)
