package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidDeleteMode  = errors.New("invalid delete mode")
	ErrColumnNotOnBoard   = errors.New("column does not belong to the card's board")
	ErrBoardKindMismatch  = errors.New("board kind does not hold this card type")
	ErrColumnNotEmpty     = errors.New("column still holds cards")
	ErrInvalidColumnOrder = errors.New("column order must list every live column once")
	ErrInvalidSnapshot    = errors.New("invalid snapshot")
)
