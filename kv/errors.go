// Package kv holds the error regularization shared by engine implementations.
package kv

import (
	"errors"
	"fmt"
)

// NonExistentKeyError is the error engines return when a key does not exist or has no value.
// Engines disagree on how they report a miss (a sentinel error, or a nil value with a nil
// error), so each engine funnels its miss through [RegularizeKVError].
type NonExistentKeyError struct {
	Key        []byte
	Underlying error
}

func (neke *NonExistentKeyError) Error() string {
	if neke.Underlying != nil {
		return fmt.Sprintf("key %q does not exist: %s", neke.Key, neke.Underlying)
	}
	return fmt.Sprintf("key %q does not exist", neke.Key)
}

// Unwrap returns the underlying engine error, if any.
func (neke *NonExistentKeyError) Unwrap() error {
	return neke.Underlying
}

// RegularizeKVError returns a regularized error for a Get against a key/value engine.
// notFound lists the engine's own "missing key" sentinels; any of them becomes a
// [NonExistentKeyError] wrapping it.
func RegularizeKVError(key []byte, value []byte, err error, notFound ...error) error {
	switch {
	case err == nil && value != nil:
		return nil
	case err == nil: // && value == nil
		return &NonExistentKeyError{Key: key}
	}
	for _, nf := range notFound {
		if errors.Is(err, nf) {
			return &NonExistentKeyError{Key: key, Underlying: err}
		}
	}
	return err
}

// IsNonExistentKey returns true if err is, or wraps, a [NonExistentKeyError].
func IsNonExistentKey(err error) bool {
	var neke *NonExistentKeyError
	return errors.As(err, &neke)
}
