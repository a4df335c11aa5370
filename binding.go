package kvbind

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"

	"git.tcp.direct/tcp.direct/kvbind/worker"
)

// DefaultEngine is the engine used when no [WithEngine] option is given.
const DefaultEngine = "pogreb"

var ErrNoEngine = errors.New("engine not registered")

// Binding is the boundary between callers and a native engine. It is the only thing that
// touches an engine [Handle], and it runs every engine call on its worker pool.
type Binding struct {
	engine  Engine
	pool    *worker.Pool
	log     zerolog.Logger
	metrics Collector
}

type options struct {
	engineName string
	engineOpts []any
	engine     Engine
	workers    int
	queue      int
	log        zerolog.Logger
	metrics    Collector
}

// Option configures a [Binding].
type Option func(*options)

// WithEngine selects a registered engine by name, passing opts to its [EngineCreator].
func WithEngine(name string, opts ...any) Option {
	return func(o *options) {
		o.engineName = name
		o.engineOpts = opts
	}
}

// WithEngineInstance uses e directly instead of looking one up in the registry.
func WithEngineInstance(e Engine) Option {
	return func(o *options) {
		o.engine = e
	}
}

// WithWorkers sets the number of worker threads.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithQueueSize sets how many operations may wait for a free worker.
func WithQueueSize(n int) Option {
	return func(o *options) {
		o.queue = n
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

func WithCollector(c Collector) Option {
	return func(o *options) {
		o.metrics = c
	}
}

func defaultOptions() *options {
	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}
	return &options{
		engineName: DefaultEngine,
		workers:    workers,
		queue:      -1,
		log:        zerolog.Nop(),
		metrics:    NoopCollector(),
	}
}

// New creates a Binding and starts its worker pool.
func New(opts ...Option) (*Binding, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.workers < 1 {
		return nil, fmt.Errorf("invalid worker count: %d", o.workers)
	}
	if o.queue < 0 {
		o.queue = 4 * o.workers
	}
	if o.metrics == nil {
		o.metrics = NoopCollector()
	}

	eng := o.engine
	if eng == nil {
		creator := GetEngine(o.engineName)
		if creator == nil {
			return nil, fmt.Errorf("%w: %q (registered: %v)", ErrNoEngine, o.engineName, AllEngines())
		}
		var err error
		if eng, err = creator(o.engineOpts...); err != nil {
			return nil, fmt.Errorf("error creating engine %q: %w", o.engineName, err)
		}
	}

	b := &Binding{
		engine:  eng,
		pool:    worker.New(o.workers, o.queue),
		log:     o.log.With().Str("engine", eng.Name()).Logger(),
		metrics: o.metrics,
	}
	b.log.Debug().Int("workers", o.workers).Int("queue", o.queue).Msg("binding started")
	return b, nil
}

// Engine returns the name of the engine behind the binding.
func (b *Binding) Engine() string {
	return b.engine.Name()
}

// Shutdown stops the worker pool. Running operations finish first; queued and later
// operations fail with [ErrUnavailable]. Open connections are not closed.
func (b *Binding) Shutdown() {
	b.pool.Stop()
	b.log.Debug().Msg("binding stopped")
}
