package deck

import "errors"

// ErrNotFound indicates a deck or slide id that does not exist in the store.
var ErrNotFound = errors.New("record not found")

// ErrInvalid indicates input that violates the record shape contract, such as
// an empty title, an unknown status value, or a colliding slide position.
var ErrInvalid = errors.New("invalid record")
