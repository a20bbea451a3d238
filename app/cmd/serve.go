package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Semior001/yayopedia/app/web"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

// Serve is a command to serve the articles page.
type Serve struct {
	PipelineOpts

	Listen    string `long:"listen" env:"LISTEN" default:":8080" description:"address to listen on"`
	StorePath string `long:"store-path" env:"STORE_PATH" description:"parent dir for the bolt file, in-memory store if empty"`
	Refresh   string `long:"refresh" env:"REFRESH" description:"cron spec to reload articles in background, e.g. @every 5m"`
}

// Execute runs the command.
func (s Serve) Execute(_ []string) error {
	return s.run(context.Background())
}

// run serves until ctx is done or a termination signal is caught.
func (s Serve) run(ctx context.Context) error {
	lg := slog.Default()

	svc, err := s.service(lg)
	if err != nil {
		return err
	}

	st, closeStore, err := articleStore(s.StorePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			lg.Error("close store", slog.Any("err", err))
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	srv := &web.Server{
		Logger:  lg.With(slog.String("prefix", "web")),
		Service: svc,
		Store:   st,
	}

	httpSrv := &http.Server{
		Addr:              s.Listen,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	if s.Refresh != "" {
		c := cron.New()
		if _, err := c.AddFunc(s.Refresh, func() { _, _ = srv.Refresh(ctx) }); err != nil {
			return fmt.Errorf("schedule refresh %q: %w", s.Refresh, err)
		}
		c.Start()
		defer c.Stop()
		lg.Info("background refresh scheduled", slog.String("schedule", s.Refresh))
	}

	ewg, ctx := errgroup.WithContext(ctx)
	ewg.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		select {
		case sig := <-sig:
			slog.Warn("caught signal, stopping", slog.String("signal", sig.String()))
			stop()
			return ctx.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	ewg.Go(func() error {
		lg.Info("starting http server", slog.String("addr", s.Listen))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	})
	ewg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		lg.Warn("http server stopped")
		return nil
	})

	if err := ewg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
