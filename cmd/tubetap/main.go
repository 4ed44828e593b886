package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/r3labs/diff/v3"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tubetap/tubetap"
	"github.com/tubetap/tubetap/async"
	"github.com/tubetap/tubetap/internal/bridge"
	"github.com/tubetap/tubetap/internal/control"
	"github.com/tubetap/tubetap/internal/observability"
	"github.com/tubetap/tubetap/internal/page"
	"github.com/tubetap/tubetap/internal/session"
	"github.com/tubetap/tubetap/internal/store"
	"github.com/tubetap/tubetap/internal/syncutil"
	"github.com/tubetap/tubetap/internal/watcher"
)

func main() {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := config.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Name:      "tubetap",
		Usage:     "drive the download helper from a saved watch page",
		ArgsUsage: "PAGE_FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "page `URL` the document was saved from",
				Value: "https://www.youtube.com/watch",
			},
			&cli.StringFlag{
				Name:  "helper",
				Usage: "helper base `URL` (overrides TUBETAP_HELPER_URL)",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "artifact store `PATH` (overrides TUBETAP_STORE_PATH)",
			},
			&cli.StringFlag{
				Name:  "metrics",
				Usage: "serve Prometheus metrics on `ADDR`",
			},
			&cli.BoolFlag{
				Name:  "audio",
				Usage: "download the best audio instead of the best video",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one page file argument")
			}
			kind := control.KindVideo
			if c.Bool("audio") {
				kind = control.KindAudio
			}
			return run(ctx, c.Args().First(), c.String("url"), c.String("helper"), c.String("store"), c.String("metrics"), kind)
		},
		HideHelpCommand: true,
	}

	result := async.Run(func() error { return app.Run(os.Args) })

	select {
	case err = <-result:
		if err != nil {
			logger.Fatal(err.Error())
		}
	case <-ctx.Done():
		stop()
		err = <-result
		if err != nil {
			logger.Fatal(err.Error())
		}
	}
}

func run(ctx context.Context, pageFile, pageURL, helperURL, storePath, metricsAddr string, kind control.Kind) error {
	logger := zap.S()

	cfg, err := tubetap.FromEnv()
	if err != nil {
		return err
	}
	if helperURL != "" {
		cfg.HelperURL = helperURL
	}
	if storePath != "" {
		cfg.StorePath = storePath
	}

	f, err := os.Open(pageFile)
	if err != nil {
		return err
	}
	source, err := page.NewDocumentSource(pageURL, f)
	f.Close()
	if err != nil {
		return err
	}

	artifacts := store.Store(store.NilStore{})
	if cfg.StorePath != "" {
		artifacts, err = store.Open(cfg.StorePath)
		if err != nil {
			return err
		}
		defer artifacts.Close()
	}

	var metrics *observability.Metrics
	if metricsAddr != "" {
		metrics = observability.New()
		go func() {
			logger.Infof("Serving metrics on %s", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, observability.Handler()); err != nil {
				logger.Errorf("metrics server: %v", err)
			}
		}()
	}

	transport := bridge.NewHTTPTransport(cfg.HelperURL)
	defer transport.Close()

	ses, err := session.New(session.Config{
		Agent:     cfg,
		Source:    source,
		Transport: transport,
		Store:     artifacts,
		Metrics:   metrics,
	}, ctx)
	if err != nil {
		return err
	}
	defer ses.Close()

	w := watcher.New(watcher.Config{
		Debounce: cfg.DebounceWindow,
		Callback: ses.Refresh,
	}, ctx)
	defer w.Close()
	w.Notify()

	events, err := ses.Subscribe()
	if err != nil {
		return err
	}
	var stopped syncutil.Event
	var failed syncutil.Event
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		bar := progressbar.Default(100, "downloading")
		for event := range events.Receive() {
			logger.Debugf("event: %T", event)
			switch e := event.(type) {
			case session.ControlUpdated:
				changes, err := diff.Diff(e.OldState, e.NewState)
				if err != nil {
					logger.Errorf("failed to diff old and new control state: %v", err)
				} else {
					for _, change := range changes {
						logger.Debugf("%v: %#v -> %#v", change.Path, change.From, change.To)
					}
				}
				if e.Control() == kind && e.NewState.State == control.StateTracking {
					_ = bar.Set(e.NewState.Progress)
				}
			case session.RequestDispatched:
				if e.Control() == kind {
					logger.Infof("Request %s dispatched", e.RequestID)
				}
			case session.RequestFailed:
				if e.Control() == kind {
					logger.Errorf("Request failed: %s", e.Message)
					failed.Set()
					stopped.Set()
				}
			case session.RequestCompleted:
				if e.Control() == kind {
					_ = bar.Set(100)
					if e.URL != "" {
						logger.Infof("Download complete: %s", e.URL)
					} else {
						logger.Info("Download complete")
					}
					stopped.Set()
				}
			}
		}
	}()

	// Let the first debounced refresh attach a format before clicking.
	state, err := waitReady(ctx, ses, kind, cfg)
	if err != nil {
		return err
	}
	logger.Infof("Dispatching: %s", state.Label())
	if err := ses.Click(kind); err != nil {
		return err
	}

	select {
	case <-stopped.Wait():
	case <-ctx.Done():
		logger.Info("Exiting gracefully...")
	}

	ses.Close()
	wg.Wait()

	if failed.IsSet() {
		return fmt.Errorf("download failed")
	}
	return nil
}

// waitReady blocks until the requested control offers a download, or fails
// fast when the page has no suitable stream.
func waitReady(ctx context.Context, ses *session.Session, kind control.Kind, cfg tubetap.Config) (control.Descriptor, error) {
	deadline, cancel := context.WithTimeout(ctx, cfg.RefreshInterval*3)
	defer cancel()
	for {
		state, err := ses.ControlState(kind)
		if err != nil {
			return state, err
		}
		switch state.State {
		case control.StateReady, control.StateCompleted, control.StateLinkReady:
			return state, nil
		}
		select {
		case <-deadline.Done():
			return state, fmt.Errorf("%w: no %s stream on this page (state %s)", tubetap.ErrFormatUnavailable, kind, state.State)
		case <-time.After(cfg.DebounceWindow):
		}
	}
}
