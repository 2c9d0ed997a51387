package domain

import "errors"

var (
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidTitle      = errors.New("invalid title")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrInvalidOrderIndex = errors.New("invalid order index")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidBoardKind  = errors.New("invalid board kind")
	ErrInvalidColor      = errors.New("invalid color")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidValue      = errors.New("invalid value")
)
