package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/golang/glog"

	"github.com/localboard/sketchrelay/internal/config"
	relaynet "github.com/localboard/sketchrelay/internal/net"
	"github.com/localboard/sketchrelay/internal/storage"
)

const Version = "0.1.0"

const usage = `Sketch relay.

Fans board messages out to every client in the same room and serves the
stroke store over HTTP. Unset options fall back to SKETCH_* environment
variables, then to built in defaults.

Usage:
    relay [--addr=<addr>] [--store=<driver>] [--dsn=<dsn>] [--queue=<n>]
        [--no-mdns] [--v=<level>]
    relay -h | --help
    relay --version

Options:
    -h --help          Show this screen.
    --version          Show version.
    --addr=<addr>      Listen address.
    --store=<driver>   Stroke store: sqlite, postgres, memory or none.
    --dsn=<dsn>        Store data source name.
    --queue=<n>        Per peer send queue length.
    --no-mdns          Do not advertise on the local network.
    --v=<level>        Log verbosity [default: 0].`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], Version)
	if err != nil {
		panic(err)
	}
	level, _ := opts.String("--v")
	setupLogging(level)

	cfg, err := relayConfig(opts)
	if err != nil {
		glog.Exitf("[relay]config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		glog.Exitf("[relay]%v", err)
	}
	glog.Flush()
}

func setupLogging(level string) {
	flag.Set("logtostderr", "true")
	flag.Set("v", level)
	flag.CommandLine.Parse(nil)
}

func relayConfig(opts docopt.Opts) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}
	if v, err := opts.String("--addr"); err == nil {
		cfg.RelayAddr = v
	}
	if v, err := opts.String("--store"); err == nil {
		cfg.StoreDriver = v
	}
	if v, err := opts.String("--dsn"); err == nil {
		cfg.StoreDSN = v
	}
	if v, err := opts.Int("--queue"); err == nil {
		cfg.PeerQueue = v
	}
	if noMDNS, _ := opts.Bool("--no-mdns"); noMDNS {
		cfg.Advertise = false
	}
	return cfg, cfg.Validate()
}

// openStore returns the configured stroke store, or nil when the relay
// serves no store.
func openStore(driver, dsn string) (storage.Gateway, io.Closer, error) {
	switch driver {
	case "none", "":
		return nil, nil, nil
	case "memory":
		return storage.NewMemoryGateway(), nil, nil
	default:
		g, err := storage.OpenSQL(driver, dsn)
		if err != nil {
			return nil, nil, err
		}
		return g, g, nil
	}
}

func newMux(relay *relaynet.Relay, store storage.Gateway) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(relaynet.SocketPath, relay)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(relay.Stats())
	})
	if store != nil {
		h := storage.NewHandler(store)
		mux.Handle("/strokes", h)
		mux.Handle("/strokes/", h)
	}
	return mux
}

func run(ctx context.Context, cfg config.Config) error {
	store, closer, err := openStore(cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	settings := relaynet.DefaultRelaySettings()
	settings.QueueSize = cfg.PeerQueue
	relay := relaynet.NewRelay(settings)

	ln, err := net.Listen("tcp", cfg.RelayAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	httpSrv := &http.Server{
		Handler:           newMux(relay, store),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		glog.Infof("[relay]listening on %s store=%s\n", ln.Addr(), cfg.StoreDriver)
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if cfg.Advertise {
		server, err := relaynet.Advertise(port)
		if err != nil {
			glog.Warningf("[relay]mdns disabled: %v\n", err)
		} else {
			defer server.Shutdown()
		}
	}
	glog.Infof("[relay]share %s\n", relaynet.ShareURL(port))

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	// hijacked websocket connections are not closed by Shutdown
	relay.Close()
	glog.Infof("[relay]stopped, %d messages dropped for slow peers\n", relay.Stats().Dropped)
	return nil
}
