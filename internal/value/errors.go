package value

import (
	"errors"
	"fmt"
)

// ErrBadAccess is the base error for an operator or built-in applied to
// operand kinds outside its declared domain; there is no silent coercion
// between kinds.
var ErrBadAccess = errors.New("bad access")

// ErrOutOfRange is the base error for subscripting past an array's bounds
// or looking up a missing dictionary key.
var ErrOutOfRange = errors.New("out of range")

// ErrUndefined is the base error for looking up a name that is bound
// nowhere in scope.
var ErrUndefined = errors.New("undefined")

// ErrDuplicate is the base error for defining a name already bound in the
// same scope.
var ErrDuplicate = errors.New("duplicate definition")

func badAccess(format string, args ...any) error {
	return &wrappedError{base: ErrBadAccess, msg: fmt.Sprintf(format, args...)}
}

func outOfRange(format string, args ...any) error {
	return &wrappedError{base: ErrOutOfRange, msg: fmt.Sprintf(format, args...)}
}

// ErrDupName reports that name is already bound in the scope a definition
// targeted.
func ErrDupName(name string) error {
	return &wrappedError{base: ErrDuplicate, msg: fmt.Sprintf("%q is already defined in this scope", name)}
}

// ErrUndefinedName reports that name is bound nowhere visible.
func ErrUndefinedName(name string) error {
	return &wrappedError{base: ErrUndefined, msg: fmt.Sprintf("undefined name %q", name)}
}

type wrappedError struct {
	base error
	msg  string
}

func (e *wrappedError) Error() string { return e.msg }
func (e *wrappedError) Unwrap() error { return e.base }
