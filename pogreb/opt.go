package pogreb

import (
	"encoding/json"
	"fmt"

	"github.com/akrylysov/pogreb"
)

// Option modifies the [WrappedOptions] an [Engine] opens stores with.
type Option func(*WrappedOptions)

var OptionAllowRecovery = func(opts *WrappedOptions) {
	opts.AllowRecovery = true
}

var OptionDisallowRecovery = func(opts *WrappedOptions) {
	opts.AllowRecovery = false
}

// AllowRecovery lets Open proceed when a lock file is left behind by a handle that was
// never closed; pogreb then rebuilds its index from the data files.
func AllowRecovery() Option {
	return OptionAllowRecovery
}

// DisallowRecovery makes Open fail with [ErrLockPresent] when a lock file is present.
func DisallowRecovery() Option {
	return OptionDisallowRecovery
}

func SetPogrebOptions(options pogreb.Options) Option {
	return func(opts *WrappedOptions) {
		opts.Options = &options
	}
}

type WrappedOptions struct {
	*pogreb.Options
	// AllowRecovery allows a store to be opened if a lockfile is detected upon Open.
	AllowRecovery bool
}

func (w *WrappedOptions) MarshalJSON() ([]byte, error) {
	optData, err := json.Marshal(w.Options)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Options       json.RawMessage `json:"options"`
		AllowRecovery bool            `json:"allow_recovery"`
	}{
		Options:       optData,
		AllowRecovery: w.AllowRecovery,
	})
}

func defaultOptions() *WrappedOptions {
	return &WrappedOptions{
		Options:       nil,
		AllowRecovery: true,
	}
}

// normalizeOptions folds everything an EngineCreator may be handed into one WrappedOptions.
func normalizeOptions(opts ...any) (*WrappedOptions, error) {
	wrapped := defaultOptions()
	for _, opt := range opts {
		switch o := opt.(type) {
		case nil:
			continue
		case Option:
			o(wrapped)
		case func(*WrappedOptions):
			o(wrapped)
		case pogreb.Options:
			wrapped.Options = &o
		case *pogreb.Options:
			wrapped.Options = o
		case WrappedOptions:
			wrapped = &o
		case *WrappedOptions:
			wrapped = o
		default:
			return nil, fmt.Errorf("%w: (%T): %v", ErrBadOptions, opt, opt)
		}
	}
	return wrapped, nil
}
