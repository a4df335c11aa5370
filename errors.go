package kvbind

import (
	"errors"
	"fmt"
	"strings"

	"git.tcp.direct/tcp.direct/kvbind/worker"
)

// Kind categorizes a boundary error.
type Kind string

const (
	KindResourceClosed Kind = "resource_closed"
	KindOpen           Kind = "open"
	KindWrite          Kind = "write"
	KindRead           Kind = "read"
	KindFlush          Kind = "flush"
	KindDestroy        Kind = "destroy"
	KindUnavailable    Kind = "unavailable"
)

// Error is the only error type returned by a [Binding].
//
// Engine failures are reduced to their text in Detail before they leave the binding,
// so no engine error value (and nothing it references) is retained past the call.
type Error struct {
	Op     string
	Kind   Kind
	Path   string
	Detail string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	switch e.Kind {
	case KindResourceClosed:
		b.WriteString("resource closed")
	case KindUnavailable:
		b.WriteString("binding unavailable")
	default:
		b.WriteString("engine ")
		b.WriteString(string(e.Kind))
		b.WriteString(" failed")
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

//goland:noinspection GoExportedElementShouldHaveComment
var (
	ErrResourceClosed = &Error{Kind: KindResourceClosed}
	ErrEngineOpen     = &Error{Kind: KindOpen}
	ErrEngineWrite    = &Error{Kind: KindWrite}
	ErrEngineRead     = &Error{Kind: KindRead}
	ErrEngineFlush    = &Error{Kind: KindFlush}
	ErrEngineDestroy  = &Error{Kind: KindDestroy}
	ErrUnavailable    = &Error{Kind: KindUnavailable}
)

// KindOf returns the Kind of err, or "" if err did not come from a [Binding].
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func closedErr(op string, path string) error {
	return &Error{Op: op, Kind: KindResourceClosed, Path: path}
}

// translate converts anything returned from the engine or the pool into an *Error of kind.
func translate(op string, kind Kind, path string, err error) error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return already
	}
	if errors.Is(err, worker.ErrStopped) || errors.Is(err, worker.ErrNotAccepted) {
		return &Error{Op: op, Kind: KindUnavailable, Path: path, Detail: err.Error()}
	}
	var pe *worker.PanicError
	if errors.As(err, &pe) {
		return &Error{Op: op, Kind: kind, Path: path, Detail: fmt.Sprintf("engine panic: %v", pe.Value)}
	}
	return &Error{Op: op, Kind: kind, Path: path, Detail: err.Error()}
}
