// Package cmd contains commands for the application.
package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Semior001/yayopedia/app/store"
	"github.com/Semior001/yayopedia/app/topics"
	"github.com/Semior001/yayopedia/pkg/logx"
	"github.com/go-pkgz/requester"
	"github.com/go-pkgz/requester/middleware"
	"golang.org/x/exp/slog"
)

// SourceOpts defines where the source document is taken from.
type SourceOpts struct {
	URL         string        `long:"url" env:"URL" description:"base url the document is resolved against"`
	File        string        `long:"file" env:"FILE" description:"path to a local document, used instead of url"`
	Resource    string        `long:"resource" env:"RESOURCE" default:"yayoi_topics.json" description:"document name"`
	NoCacheBust bool          `long:"no-cache-bust" env:"NO_CACHE_BUST" description:"do not add a timestamp parameter to requests"`
	Timeout     time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"timeout for document requests"`
}

// PipelineOpts defines how the document is turned into articles.
type PipelineOpts struct {
	Source     SourceOpts    `group:"source" namespace:"source" env-namespace:"SOURCE"`
	Categories string        `long:"categories" env:"CATEGORIES" description:"yaml file with category overrides"`
	CacheTTL   time.Duration `long:"cache-ttl" env:"CACHE_TTL" default:"30s" description:"how long loaded articles are reused, 0 to disable"`
}

func (o PipelineOpts) service(lg *slog.Logger) (*topics.Service, error) {
	loader, err := o.Source.loader(lg)
	if err != nil {
		return nil, fmt.Errorf("make loader: %w", err)
	}

	cats, err := loadCategories(o.Categories)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	return topics.NewService(lg.With(slog.String("prefix", "topics")), loader, cats, o.CacheTTL), nil
}

func (o SourceOpts) loader(lg *slog.Logger) (topics.Loader, error) {
	switch {
	case o.File != "":
		return topics.FileLoader{Path: o.File}, nil
	case o.URL == "":
		return nil, fmt.Errorf("either source url or source file is required")
	}

	rq := requester.New(
		http.Client{Timeout: o.Timeout},
		middleware.Header("User-Agent", "yayopedia"),
		logx.LoggingRoundTripper(lg.With(slog.String("prefix", "source")), logx.RoundTripperOpts{
			Level: slog.LevelDebug,
		}),
	)

	return &topics.HTTPLoader{
		Log:       lg.With(slog.String("prefix", "loader")),
		Client:    rq,
		BaseURL:   o.URL,
		Resource:  o.Resource,
		CacheBust: !o.NoCacheBust,
	}, nil
}

func loadCategories(path string) ([]topics.Category, error) {
	if path == "" {
		return topics.DefaultCategories(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return topics.LoadCategories(f)
}

// articleStore returns a bolt store in dir, or an in-memory one if dir is empty.
// The returned close function is never nil.
func articleStore(dir string) (store.Interface, func() error, error) {
	if dir == "" {
		return store.NewMemory(), func() error { return nil }, nil
	}

	b, err := store.NewBolt(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("make bolt store: %w", err)
	}

	return b, b.Close, nil
}
