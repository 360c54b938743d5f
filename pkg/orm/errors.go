package orm

import "errors"

// Schema errors. These are configuration mistakes in model declarations and
// are reported before any row is read.
var (
	ErrFlattenCycle    = errors.New("flatten cycle")
	ErrDuplicateKey    = errors.New("more than one key field")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrNotInsertable   = errors.New("referenced model is not flattened")
	ErrColumnCount     = errors.New("column and value counts differ")
	ErrNoKey           = errors.New("model has no key field")
)
