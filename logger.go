package kvbind

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

var pkgLogger atomic.Pointer[zerolog.Logger]

// Logger returns the package level logger used by engine packages.
// It is a no-op logger unless [SetLogger] was called.
func Logger() *zerolog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	nop := zerolog.Nop()
	return &nop
}

// SetLogger configures the package level logger.
func SetLogger(l zerolog.Logger) {
	pkgLogger.Store(&l)
}
