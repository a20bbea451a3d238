package topics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-pkgz/requester"
	"golang.org/x/exp/slog"
)

// DefaultResource is the name of the source document.
const DefaultResource = "yayoi_topics.json"

// Document is a raw source document, values are kept undecoded so that a
// malformed category does not spoil the others.
type Document map[string]json.RawMessage

// Loader retrieves the source document.
type Loader interface {
	Load(ctx context.Context) (Document, error)
	// Location names the document, e.g. its URL.
	Location() string
}

// FetchError is returned when the document could not be retrieved.
type FetchError struct {
	StatusCode int // zero if the request did not reach the server
	Err        error
}

// Error returns the error message.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch document: bad status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("fetch document: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error { return e.Err }

// ParseError is returned when the document is not a valid JSON object.
type ParseError struct {
	Err error
}

// Error returns the error message.
func (e *ParseError) Error() string { return fmt.Sprintf("parse document: %v", e.Err) }

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error { return e.Err }

// HTTPLoader fetches the document over http.
type HTTPLoader struct {
	Log       *slog.Logger
	Client    *requester.Requester
	BaseURL   string
	Resource  string
	CacheBust bool
	// Now is used to build the cache busting parameter, time.Now if nil.
	Now func() time.Time
}

// Location returns the document URL without the cache busting parameter.
func (l *HTTPLoader) Location() string {
	u, err := l.resolve()
	if err != nil {
		return l.BaseURL + l.Resource
	}
	return u.String()
}

// Load fetches and parses the document.
func (l *HTTPLoader) Load(ctx context.Context) (Document, error) {
	u, err := l.resolve()
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("build url: %w", err)}
	}

	if l.CacheBust {
		now := time.Now
		if l.Now != nil {
			now = l.Now
		}
		q := u.Query()
		q.Set("t", strconv.FormatInt(now().UnixMilli(), 10))
		u.RawQuery = q.Encode()
	}

	l.Log.DebugCtx(ctx, "loading document", slog.String("url", u.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("build request: %w", err)}
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("do request: %w", err)}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			l.Log.WarnCtx(ctx, "failed to close response body", slog.Any("err", err))
		}
	}()

	ok := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
	if !ok {
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}

	return decode(resp.Body)
}

func (l *HTTPLoader) resolve() (*url.URL, error) {
	base, err := url.Parse(l.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	ref, err := url.Parse(l.Resource)
	if err != nil {
		return nil, fmt.Errorf("parse resource: %w", err)
	}

	return base.ResolveReference(ref), nil
}

// FileLoader reads the document from the local file system.
type FileLoader struct {
	Path string
}

// Location returns the file path.
func (l FileLoader) Location() string { return l.Path }

// Load reads and parses the document.
func (l FileLoader) Load(context.Context) (Document, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("open file: %w", err)}
	}
	defer f.Close()

	return decode(f)
}

func decode(rd io.Reader) (Document, error) {
	dec := json.NewDecoder(rd)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Err: err}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: fmt.Errorf("unexpected data after the document")}
	}
	if doc == nil {
		// literal null
		return nil, &ParseError{Err: fmt.Errorf("document is not an object")}
	}
	return doc, nil
}
