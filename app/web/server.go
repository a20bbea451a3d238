// Package web renders loaded articles as a web page and serves them over http.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"net/http"
	"text/template"

	"github.com/Semior001/yayopedia/app/store"
	"github.com/Semior001/yayopedia/app/topics"
	cache "github.com/go-pkgz/expirable-cache/v2"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"
)

//go:embed templates/*.html.tmpl
var templatesFS embed.FS

var (
	pageTmpl    = template.Must(template.ParseFS(templatesFS, "templates/page.html.tmpl", "templates/layout.html.tmpl"))
	articleTmpl = template.Must(template.ParseFS(templatesFS, "templates/article.html.tmpl", "templates/layout.html.tmpl"))
)

// Service runs the article pipeline.
type Service interface {
	Load(ctx context.Context) ([]store.Article, error)
	Categories() []topics.Category
	CacheStat() cache.Stats
}

// Server provides routes and controllers for the web page.
// Store keeps the articles of the last successful load, so that
// a single article can be looked up by its id.
type Server struct {
	Logger  *slog.Logger
	Service Service
	Store   store.Interface
}

// Routes returns the http handler with all routes registered.
func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Recover(s.Logger), Logger(s.Logger))

	r.GET("/", s.page)
	r.GET("/articles/:id", s.article)
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/articles", s.listArticles)
		v1.GET("/articles/:id", s.getArticle)
	}

	return r
}

// Refresh runs the pipeline and replaces the stored articles.
func (s *Server) Refresh(ctx context.Context) ([]store.Article, error) {
	articles, err := s.Service.Load(ctx)
	if err != nil {
		s.Logger.ErrorCtx(ctx, "failed to load articles", slog.Any("err", err))
		return nil, err
	}

	if err := s.Store.Replace(ctx, articles); err != nil {
		s.Logger.WarnCtx(ctx, "failed to store articles", slog.Any("err", err))
	}

	return articles, nil
}

func (s *Server) page(c *gin.Context) {
	articles, err := s.Refresh(c.Request.Context())
	switch {
	case err != nil:
		s.render(c, http.StatusBadGateway, pageTmpl, ErrorPage(msgLoadFailed))
	case len(articles) == 0:
		s.render(c, http.StatusOK, pageTmpl, ErrorPage(msgNoArticles))
	default:
		s.render(c, http.StatusOK, pageTmpl, NewPage(articles, s.Service.Categories(), c.Query("category")))
	}
}

func (s *Server) article(c *gin.Context) {
	a, err := s.Store.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.render(c, http.StatusNotFound, articleTmpl, ArticlePage{
			Title: siteTitle,
			Error: &ErrorView{Message: EscapeHTML(msgNotFound), RetryURL: "/"},
		})
	case err != nil:
		s.Logger.ErrorCtx(c.Request.Context(), "failed to get article", slog.Any("err", err))
		s.render(c, http.StatusInternalServerError, articleTmpl, ArticlePage{
			Title: siteTitle,
			Error: &ErrorView{Message: EscapeHTML(msgLoadFailed), RetryURL: EscapeHTML(c.Request.URL.EscapedPath())},
		})
	default:
		s.render(c, http.StatusOK, articleTmpl, NewArticlePage(a, s.Service.Categories()))
	}
}

func (s *Server) render(c *gin.Context, status int, tmpl *template.Template, data any) {
	buf := &bytes.Buffer{}
	if err := tmpl.Execute(buf, data); err != nil {
		s.Logger.ErrorCtx(c.Request.Context(), "failed to render page", slog.Any("err", err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) listArticles(c *gin.Context) {
	ctx := c.Request.Context()
	all, err := s.Refresh(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    "load_failed",
			"message": msgLoadFailed,
		})
		return
	}

	req := store.ListRequest{}
	if cat := ActiveCategory(s.Service.Categories(), c.Query("category")); cat != All {
		req.Category = cat
	}

	articles, err := s.Store.List(ctx, req)
	if err != nil {
		s.Logger.ErrorCtx(ctx, "failed to list articles", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	if articles == nil {
		articles = []store.Article{}
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    articles,
		"stats":   NewStats(all),
	})
}

func (s *Server) getArticle(c *gin.Context) {
	a, err := s.Store.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "message": msgNotFound})
	case err != nil:
		s.Logger.ErrorCtx(c.Request.Context(), "failed to get article", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "message": "internal server error"})
	default:
		c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success", "data": a})
	}
}

func (s *Server) health(c *gin.Context) {
	stats := s.Service.CacheStat()
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"cache": gin.H{
			"hits":    stats.Hits,
			"misses":  stats.Misses,
			"added":   stats.Added,
			"evicted": stats.Evicted,
		},
	})
}
