// Package topics contains the pipeline that loads categorized messages and
// turns them into sorted articles.
package topics

import (
	"context"
	"fmt"
	"time"

	"github.com/Semior001/yayopedia/app/store"
	cache "github.com/go-pkgz/expirable-cache/v2"
	"golang.org/x/exp/slog"
)

// Service is a main application service.
type Service struct {
	log         *slog.Logger
	loader      Loader
	transformer Transformer
	cache       cache.Cache[string, []store.Article]
}

// NewService creates new service. Successful loads are cached for ttl,
// zero ttl turns caching off.
func NewService(lg *slog.Logger, loader Loader, cats []Category, ttl time.Duration) *Service {
	svc := &Service{
		log:         lg,
		loader:      loader,
		transformer: Transformer{Log: lg, Categories: cats},
	}

	if ttl > 0 {
		svc.cache = cache.NewCache[string, []store.Article]().
			WithLRU().
			WithMaxKeys(1).
			WithTTL(ttl)
	}

	return svc
}

// Categories returns configured categories.
func (s *Service) Categories() []Category { return s.transformer.Categories }

// CacheStat returns cache stats.
func (s *Service) CacheStat() cache.Stats {
	if s.cache == nil {
		return cache.Stats{}
	}
	return s.cache.Stat()
}

// Load runs the pipeline and returns articles sorted newest first.
// On failure no articles are returned.
func (s *Service) Load(ctx context.Context) ([]store.Article, error) {
	key := s.loader.Location()
	if s.cache != nil {
		if articles, ok := s.cache.Get(key); ok {
			s.log.DebugCtx(ctx, "articles served from cache", slog.Int("total", len(articles)))
			return clone(articles), nil
		}
	}

	s.log.InfoCtx(ctx, "loading articles", slog.String("source", key))

	doc, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	articles := s.transformer.Transform(ctx, doc)
	Sort(ctx, s.log, articles)

	if s.cache != nil {
		s.cache.Set(key, clone(articles), 0)
	}

	return articles, nil
}

func clone(articles []store.Article) []store.Article {
	res := make([]store.Article, len(articles))
	for i, a := range articles {
		a.Tags = append([]string(nil), a.Tags...)
		res[i] = a
	}
	return res
}
