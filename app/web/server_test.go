package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Semior001/yayopedia/app/store"
	"github.com/Semior001/yayopedia/app/topics"
	"github.com/Semior001/yayopedia/pkg/logx"
	cache "github.com/go-pkgz/expirable-cache/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type serviceMock struct {
	articles []store.Article
	err      error
	calls    int
}

func (m *serviceMock) Load(context.Context) ([]store.Article, error) {
	m.calls++
	return m.articles, m.err
}

func (m *serviceMock) Categories() []topics.Category { return topics.DefaultCategories() }

func (m *serviceMock) CacheStat() cache.Stats { return cache.Stats{Hits: 2, Misses: 1, Added: 1} }

func newTestServer(svc Service) (*Server, http.Handler) {
	gin.SetMode(gin.TestMode)
	s := &Server{Logger: slog.New(logx.NoOp()), Service: svc, Store: store.NewMemory()}
	return s, s.Routes()
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	t.Logf("GET %s -> %d", target, rec.Code)
	return rec
}

func TestServer_Page(t *testing.T) {
	_, h := newTestServer(&serviceMock{articles: testArticles()})

	rec := do(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	body := rec.Body.String()
	assert.Contains(t, body, `<span id="totalArticles">3</span>`)
	assert.Contains(t, body, `<span id="totalDays">2</span>`)
	assert.Contains(t, body, `href="/articles/work-20250612-0"`)
	assert.Contains(t, body, "店長に&lt;b&gt;ほめられた&lt;/b&gt;。")
	assert.NotContains(t, body, "<b>ほめられた</b>")
	assert.Contains(t, body, `class="category-btn active" data-category="all"`)
	assert.Contains(t, body, `<span class="tag">バイト</span>`)
}

func TestServer_PageFilter(t *testing.T) {
	_, h := newTestServer(&serviceMock{articles: testArticles()})

	rec := do(t, h, "/?category=work")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `data-category="work" href="/?category=work"`)
	assert.Contains(t, body, `class="category-btn active" data-category="work"`)
	assert.Contains(t, body, `href="/articles/work-20250612-0"`)
	assert.NotContains(t, body, `href="/articles/family-20250612-0"`)
	assert.Contains(t, body, `<span id="totalArticles">3</span>`)
}

func TestServer_PageLoadFailed(t *testing.T) {
	s, h := newTestServer(&serviceMock{err: &topics.FetchError{StatusCode: http.StatusNotFound}})
	require.NoError(t, s.Store.Replace(context.Background(), testArticles()))

	rec := do(t, h, "/")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), msgLoadFailed)
	assert.Contains(t, rec.Body.String(), `class="retry-button"`)
	assert.NotContains(t, rec.Body.String(), "article-card")

	// previous articles stay available after a failed load
	rec = do(t, h, "/articles/work-20250612-0")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_PageNoArticles(t *testing.T) {
	_, h := newTestServer(&serviceMock{})

	rec := do(t, h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), msgNoArticles)
}

func TestServer_Article(t *testing.T) {
	_, h := newTestServer(&serviceMock{articles: testArticles()})

	rec := do(t, h, "/articles/family-20250612-0")
	assert.Equal(t, http.StatusNotFound, rec.Code, "nothing is stored before the first load")
	assert.Contains(t, rec.Body.String(), msgNotFound)

	require.Equal(t, http.StatusOK, do(t, h, "/").Code)

	rec = do(t, h, "/articles/family-20250612-0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "母と買い物に行った。楽しかった！")
	assert.Contains(t, rec.Body.String(), `<div class="article-category">家族</div>`)
}

func TestServer_APIArticles(t *testing.T) {
	svc := &serviceMock{articles: testArticles()}
	_, h := newTestServer(svc)

	rec := do(t, h, "/api/v1/articles?category=family")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Code  string          `json:"code"`
		Data  []store.Article `json:"data"`
		Stats Stats           `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Code)
	assert.Equal(t, testArticles()[1:], resp.Data)
	assert.Equal(t, 3, resp.Stats.Articles)

	rec = do(t, h, "/api/v1/articles/work-20250612-0")
	require.Equal(t, http.StatusOK, rec.Code)
	var single struct {
		Data store.Article `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &single))
	assert.Equal(t, testArticles()[0], single.Data)

	rec = do(t, h, "/api/v1/articles/absent")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.err = errors.New("boom")
	rec = do(t, h, "/api/v1/articles")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "load_failed")
}

func TestServer_Health(t *testing.T) {
	_, h := newTestServer(&serviceMock{})

	rec := do(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","cache":{"hits":2,"misses":1,"added":1,"evicted":0}}`, rec.Body.String())
}

func TestRequestID_KeepsIncoming(t *testing.T) {
	_, h := newTestServer(&serviceMock{})

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}

func TestRecover(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recover(slog.New(logx.NoOp())))
	r.GET("/panic", func(*gin.Context) { panic("oops") })

	rec := do(t, r, "/panic")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type failingStore struct{ store.Interface }

func (failingStore) Get(context.Context, string) (store.Article, error) {
	return store.Article{}, errors.New("corrupt value")
}

func TestServer_ArticleStoreError(t *testing.T) {
	s, h := newTestServer(&serviceMock{})
	s.Store = failingStore{Interface: store.NewMemory()}

	rec := do(t, h, "/articles/a'b&c")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), msgLoadFailed)
	assert.Contains(t, rec.Body.String(), `action="/articles/a&#39;b&amp;c"`)
	assert.NotContains(t, rec.Body.String(), `action="/articles/a'b&c"`)
}
