package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/golang/glog"

	"github.com/localboard/sketchrelay/internal/client"
	"github.com/localboard/sketchrelay/internal/config"
	"github.com/localboard/sketchrelay/internal/export"
	relaynet "github.com/localboard/sketchrelay/internal/net"
	"github.com/localboard/sketchrelay/internal/storage"
	"github.com/localboard/sketchrelay/internal/ui"
)

const Version = "0.1.0"

const usage = `Sketch board.

Usage:
    board draw [--relay=<url>] [--store=<url>] [--room=<room>] [--user=<id>]
        [--color=<color>] [--discover] [--v=<level>]
    board export --out=<file> [--store=<url>] [--v=<level>]
    board -h | --help
    board --version

Options:
    -h --help          Show this screen.
    --version          Show version.
    --relay=<url>      Relay websocket URL, e.g. ws://192.168.1.20:8888/api/socket.
    --store=<url>      Stroke store base URL. Defaults to the relay's host.
    --room=<room>      Room to join.
    --user=<id>        Identity to draw under. Random when unset.
    --color=<color>    Pen colour, a palette name or #rrggbb.
    --discover         Find a relay on the local network.
    --out=<file>       PDF to write.
    --v=<level>        Log verbosity [default: 0].`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], Version)
	if err != nil {
		panic(err)
	}
	level, _ := opts.String("--v")
	flag.Set("logtostderr", "true")
	flag.Set("v", level)
	flag.CommandLine.Parse(nil)
	defer glog.Flush()

	cfg, err := config.FromEnv()
	if err != nil {
		glog.Exitf("[board]config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if draw, _ := opts.Bool("draw"); draw {
		err = runDraw(ctx, cfg, opts)
	} else if exp, _ := opts.Bool("export"); exp {
		err = runExport(ctx, cfg, opts)
	}
	if err != nil {
		glog.Exitf("[board]%v", err)
	}
}

// storeURLFor maps a relay websocket URL to the store served beside it.
func storeURLFor(relayURL string) (string, error) {
	u, err := url.Parse(relayURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("relay URL %q is not a websocket URL", relayURL)
	}
	u.Path, u.RawQuery, u.Fragment = "", "", ""
	return u.String(), nil
}

// applyOptions layers command line options over cfg. An explicit relay
// without an explicit store implies the store beside that relay.
func applyOptions(cfg config.Config, opts docopt.Opts) (config.Config, error) {
	relayGiven := false
	if v, err := opts.String("--relay"); err == nil {
		cfg.RelayURL, relayGiven = v, true
	}
	if v, err := opts.String("--store"); err == nil {
		cfg.StoreURL = v
	} else if relayGiven {
		store, err := storeURLFor(cfg.RelayURL)
		if err != nil {
			return cfg, err
		}
		cfg.StoreURL = store
	}
	if v, err := opts.String("--room"); err == nil {
		cfg.Room = v
	}
	if v, err := opts.String("--user"); err == nil {
		cfg.UserID = v
	}
	return cfg, cfg.Validate()
}

func runDraw(ctx context.Context, cfg config.Config, opts docopt.Opts) error {
	if discover, _ := opts.Bool("--discover"); discover {
		found, err := relaynet.Discover(ctx, 3*time.Second)
		if err != nil {
			return err
		}
		glog.Infof("[board]discovered relay %s\n", found)
		opts["--relay"] = found
	}
	cfg, err := applyOptions(cfg, opts)
	if err != nil {
		return err
	}
	roomURL, err := relaynet.RoomURL(cfg.RelayURL, cfg.Room)
	if err != nil {
		return err
	}
	color, _ := opts.String("--color")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	transport := relaynet.NewTransport(ctx, roomURL, relaynet.DefaultTransportSettings())
	defer transport.Close()

	app := ui.NewApp()
	session := client.New(transport, storage.NewHTTPGateway(cfg.StoreURL), client.Options{
		UserID:          cfg.UserID,
		Color:           color,
		EraserThreshold: cfg.EraserThreshold,
		LiveTTL:         cfg.LiveTTL,
		ReconcileEvery:  cfg.ReconcileEvery,
		OnChange:        app.Changed,
	})
	glog.Infof("[board]drawing as %s in %s\n", session.UserID(), roomURL)

	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()

	app.Run(ctx, session, "Sketch board", roomURL)
	cancel()
	return <-done
}

func runExport(ctx context.Context, cfg config.Config, opts docopt.Opts) error {
	cfg, err := applyOptions(cfg, opts)
	if err != nil {
		return err
	}
	out, _ := opts.String("--out")

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	strokes, err := storage.NewHTTPGateway(cfg.StoreURL).FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch strokes: %w", err)
	}
	return export.File(out, strokes)
}
