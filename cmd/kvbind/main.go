// Command kvbind runs a single binding operation against a store on disk.
//
//	kvbind [-config file] [-engine name] [-metrics] <path> put <key> <value>
//	kvbind [-config file] [-engine name] [-metrics] <path> get <key>
//	kvbind [-config file] [-engine name] [-metrics] <path> delete <key>
//	kvbind [-config file] [-engine name] [-metrics] <path> flush
//	kvbind [-config file] [-engine name] [-metrics] <path> destroy
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"

	"git.tcp.direct/tcp.direct/kvbind"
	_ "git.tcp.direct/tcp.direct/kvbind/bitcask"
	"git.tcp.direct/tcp.direct/kvbind/config"
	"git.tcp.direct/tcp.direct/kvbind/logging"
	_ "git.tcp.direct/tcp.direct/kvbind/pogreb"
	"git.tcp.direct/tcp.direct/kvbind/telemetry"
)

var errUsage = errors.New("usage: kvbind [flags] <path> put <key> <value> | get <key> | delete <key> | flush | destroy")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
		_, _ = fmt.Fprintln(os.Stderr, errUsage)
		os.Exit(2)
	}
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("kvbind", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "path to a YAML configuration file")
		engine     = fs.String("engine", "", "engine to use, overrides the configuration ("+fmt.Sprint(kvbind.AllEngines())+")")
		metrics    = fs.Bool("metrics", false, "print binding metrics to stderr when done")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *engine != "" {
		cfg.Engine = *engine
	}
	if *metrics {
		cfg.Metrics.Enabled = true
	}

	logger, err := logging.Setup(cfg.Logging, stderr)
	if err != nil {
		return err
	}
	kvbind.SetLogger(logger)

	opts := append(cfg.Options(), kvbind.WithLogger(logger))
	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		collector, cerr := telemetry.NewPrometheusCollector(reg)
		if cerr != nil {
			return cerr
		}
		opts = append(opts, kvbind.WithCollector(collector))
	}

	b, err := kvbind.New(opts...)
	if err != nil {
		return err
	}
	defer b.Shutdown()

	path, cmd, rest := fs.Arg(0), fs.Arg(1), fs.Args()[2:]
	err = dispatch(ctx, b, path, cmd, rest, stdout, logger)
	if reg != nil {
		if derr := dumpMetrics(reg, stderr); derr != nil && err == nil {
			err = derr
		}
	}
	return err
}

func dispatch(ctx context.Context, b *kvbind.Binding, path, cmd string, args []string, stdout io.Writer, logger zerolog.Logger) error {
	want := map[string]int{"put": 2, "get": 1, "delete": 1, "flush": 0, "destroy": 0}
	n, ok := want[cmd]
	if !ok || len(args) != n {
		return errUsage
	}

	if cmd == "destroy" {
		return b.Destroy(ctx, path)
	}

	conn, err := b.Open(ctx, path)
	if err != nil {
		return err
	}
	defer b.Close(context.Background(), conn)

	switch cmd {
	case "put":
		if _, err = b.Put(ctx, conn, []byte(args[0]), []byte(args[1])); err != nil {
			return err
		}
		// Close does not flush
		return b.Flush(ctx, conn)
	case "get":
		value, found, gerr := b.Get(ctx, conn, []byte(args[0]))
		if gerr != nil {
			return gerr
		}
		if !found {
			logger.Info().Str("key", args[0]).Msg("key not found")
			return nil
		}
		_, err = stdout.Write(append(value, '\n'))
		return err
	case "delete":
		if _, err = b.Delete(ctx, conn, []byte(args[0])); err != nil {
			return err
		}
		return b.Flush(ctx, conn)
	default:
		return b.Flush(ctx, conn)
	}
}

func dumpMetrics(reg *prometheus.Registry, out io.Writer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(out, expfmt.FmtText)
	for _, mf := range families {
		if err = enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
