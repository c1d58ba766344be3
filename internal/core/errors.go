package core

import "errors"

// ErrInvalidAmount is returned by ParseAmount for input that is not a
// positive-or-zero decimal.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrInvalidDate is returned by ParseDate for input that matches none of the
// accepted layouts.
var ErrInvalidDate = errors.New("invalid date")

// ValidationError reports a malformed or missing field. The mutation it
// rejects is never partially applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// NotFoundError reports a reference to a record that does not exist.
type NotFoundError struct {
	Kind string // "invoice" or "payment"
	ID   string
}

func (e *NotFoundError) Error() string {
	return e.Kind + " " + e.ID + " not found"
}

// ParseError reports an import blob that cannot be decoded as tabular data
// at all. It aborts the whole import with zero rows committed.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse import data: " + e.Reason
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
