package component

import "errors"

// ErrUnknownType is returned when a component type has no registered definition.
var ErrUnknownType = errors.New("unknown component type")

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal marks err as an authoring/configuration error that must stop the
// process instead of being logged and skipped.
func Fatal(err error) error {
	if err == nil || IsFatal(err) {
		return err
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err (or anything it wraps) was marked by Fatal.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}
