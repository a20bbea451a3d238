package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Semior001/yayopedia/app/store"
	"github.com/Semior001/yayopedia/app/topics"
	"github.com/Semior001/yayopedia/pkg/logx"
	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

const document = `{
	"family": [{"content": "今日はお母さんと買い物に行った。", "date": "2025/06/10(Tue)", "time": "10:00"}],
	"work": [{"content": "バイト先の店長にほめられた。", "date": "2025/06/12(Thu)", "time": "18:30"}]
}`

func TestDump_Execute(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yayoi_topics.json")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))

	buf := &bytes.Buffer{}
	d := Dump{PipelineOpts: PipelineOpts{Source: SourceOpts{File: path}}, out: buf}
	require.NoError(t, d.Execute(nil))

	var articles []store.Article
	require.NoError(t, json.Unmarshal(buf.Bytes(), &articles))
	require.Len(t, articles, 2)
	assert.Equal(t, "work-20250612-0", articles[0].ID)
	assert.Equal(t, "family-20250610-0", articles[1].ID)
	assert.Contains(t, buf.String(), "2025年06/12（Thu）", "output is not escaped")

	buf.Reset()
	d.Category = "family"
	require.NoError(t, d.Execute(nil))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &articles))
	require.Len(t, articles, 1)
	assert.Equal(t, "family", articles[0].Category)
}

func TestDump_ExecuteFailure(t *testing.T) {
	d := Dump{PipelineOpts: PipelineOpts{Source: SourceOpts{File: filepath.Join(t.TempDir(), "absent.json")}}}
	err := d.Execute(nil)
	assert.ErrorContains(t, err, "load articles")
}

func TestSourceOpts_Loader(t *testing.T) {
	lg := slog.New(logx.NoOp())

	_, err := SourceOpts{}.loader(lg)
	assert.Error(t, err)

	l, err := SourceOpts{File: "a.json", URL: "http://example.com"}.loader(lg)
	require.NoError(t, err)
	assert.Equal(t, topics.FileLoader{Path: "a.json"}, l)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "yayopedia", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.URL.Query().Get("t"))
		_, _ = w.Write([]byte(document))
	}))
	defer ts.Close()

	l, err = SourceOpts{URL: ts.URL, Resource: topics.DefaultResource}.loader(lg)
	require.NoError(t, err)
	assert.Equal(t, ts.URL+"/yayoi_topics.json", l.Location())

	doc, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, doc, 2)
}

func TestLoadCategories(t *testing.T) {
	cats, err := loadCategories("")
	require.NoError(t, err)
	assert.Equal(t, topics.DefaultCategories(), cats)

	path := filepath.Join(t.TempDir(), "categories.yml")
	require.NoError(t, os.WriteFile(path, []byte("work:\n  title: バイトの話\n"), 0o600))
	cats, err = loadCategories(path)
	require.NoError(t, err)
	assert.Equal(t, "バイトの話", cats[1].Title)

	_, err = loadCategories(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestArticleStore(t *testing.T) {
	st, closeFn, err := articleStore("")
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, st)
	assert.NoError(t, closeFn())

	st, closeFn, err = articleStore(t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &store.Bolt{}, st)
	assert.NoError(t, closeFn())
}

func TestFlags(t *testing.T) {
	var opts struct {
		Serve Serve `command:"serve"`
	}

	p := flags.NewParser(&opts, flags.Default)
	p.CommandHandler = func(flags.Commander, []string) error { return nil }
	_, err := p.ParseArgs([]string{"serve", "--source.url=http://localhost:9000/", "--cache-ttl=1m", "--refresh=@every 5m"})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/", opts.Serve.Source.URL)
	assert.Equal(t, topics.DefaultResource, opts.Serve.Source.Resource)
	assert.Equal(t, ":8080", opts.Serve.Listen)
	assert.Equal(t, "@every 5m", opts.Serve.Refresh)
	assert.Equal(t, "1m0s", opts.Serve.CacheTTL.String())
}

func TestServe_ExecuteErrors(t *testing.T) {
	err := Serve{}.Execute(nil)
	assert.ErrorContains(t, err, "make loader")

	path := filepath.Join(t.TempDir(), "yayoi_topics.json")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))

	err = Serve{PipelineOpts: PipelineOpts{Source: SourceOpts{File: path}}, Refresh: "every now and then"}.Execute(nil)
	assert.ErrorContains(t, err, `schedule refresh "every now and then"`)
}

func TestServe_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yayoi_topics.json")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	s := Serve{
		PipelineOpts: PipelineOpts{Source: SourceOpts{File: path}},
		Listen:       addr,
		Refresh:      "@every 1s",
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.run(ctx) }()

	// the article is only stored by the scheduled refresh, nothing else loads it here
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/v1/articles/work-20250612-0")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
