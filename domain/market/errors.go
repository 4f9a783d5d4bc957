package market

import "github.com/cockroachdb/errors"

// ErrPrecondition marks every error that means the caller broke the
// engine's contract. Test with errors.Is.
var ErrPrecondition = errors.New("precondition violated")

var (
	ErrDuplicateSymbol = errors.Mark(errors.New("duplicate symbol"), ErrPrecondition)
	ErrSymbolNotFound  = errors.Mark(errors.New("symbol not found"), ErrPrecondition)
	ErrSymbolRange     = errors.Mark(errors.New("symbol id out of range"), ErrPrecondition)
	ErrDuplicateOrder  = errors.Mark(errors.New("duplicate order id"), ErrPrecondition)
	ErrInvalidSide     = errors.Mark(errors.New("invalid side"), ErrPrecondition)
)
