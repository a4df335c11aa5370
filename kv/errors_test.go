package kv

import (
	"errors"
	"fmt"
	"testing"
)

var errMiss = errors.New("engine: key not found")

func TestRegularizeKVError(t *testing.T) {
	key := []byte("yeet")
	ioErr := errors.New("input/output error")

	type test struct {
		name        string
		value       []byte
		err         error
		wantErr     bool
		wantMissing bool
	}
	tests := []test{
		{name: "found", value: []byte("v")},
		{name: "foundEmpty", value: []byte{}},
		{name: "nilNil", wantErr: true, wantMissing: true},
		{name: "sentinel", err: errMiss, wantErr: true, wantMissing: true},
		{name: "wrappedSentinel", err: fmt.Errorf("get: %w", errMiss), wantErr: true, wantMissing: true},
		{name: "otherError", err: ioErr, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RegularizeKVError(key, tt.value, tt.err, errMiss)
			if (err != nil) != tt.wantErr {
				t.Fatalf("[FAIL] RegularizeKVError() error = %v, wantErr %v", err, tt.wantErr)
			}
			if IsNonExistentKey(err) != tt.wantMissing {
				t.Errorf("[FAIL] IsNonExistentKey(%v) = %v, want %v", err, !tt.wantMissing, tt.wantMissing)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Errorf("[FAIL] regularized error %v does not wrap %v", err, tt.err)
			}
		})
	}
}

func TestNonExistentKeyError_Error(t *testing.T) {
	plain := &NonExistentKeyError{Key: []byte("a")}
	if plain.Error() != `key "a" does not exist` {
		t.Errorf("[FAIL] unexpected message: %s", plain.Error())
	}
	wrapped := &NonExistentKeyError{Key: []byte("a"), Underlying: errMiss}
	if wrapped.Error() != `key "a" does not exist: engine: key not found` {
		t.Errorf("[FAIL] unexpected message: %s", wrapped.Error())
	}
	if IsNonExistentKey(errMiss) {
		t.Errorf("[FAIL] a bare engine error is not a NonExistentKeyError")
	}
}
