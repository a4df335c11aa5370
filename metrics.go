package kvbind

import "time"

// Collector receives telemetry from a [Binding].
// Implementations are called inline on every operation and should be cheap.
type Collector interface {
	// ObserveOp records one finished operation. kind is "" on success.
	ObserveOp(op string, kind Kind, took time.Duration)
	// ResourceOpened records a native handle being opened.
	ResourceOpened()
	// ResourceReleased records a native handle being closed.
	ResourceReleased()
}

type noopCollector struct{}

// NoopCollector returns a collector that discards everything.
func NoopCollector() Collector {
	return noopCollector{}
}

func (noopCollector) ObserveOp(string, Kind, time.Duration) {}
func (noopCollector) ResourceOpened()                       {}
func (noopCollector) ResourceReleased()                     {}
