package pogreb

import "git.tcp.direct/tcp.direct/kvbind"

func init() {
	kvbind.RegisterEngine(Name, func(opts ...any) (kvbind.Engine, error) {
		e, err := New(opts...)
		if err != nil {
			return nil, err
		}
		return e, nil
	})
}
