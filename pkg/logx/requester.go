package logx

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/requester/middleware"
	"github.com/samber/lo"
	"golang.org/x/exp/slog"
)

// RoundTripperOpts contains options for client logger.
type RoundTripperOpts struct {
	Level         slog.Level
	SecretHeaders []string
	// BodyLimit is the number of body bytes to keep in the log entry,
	// zero means the default of 512 bytes.
	BodyLimit int64
}

// LoggingRoundTripper logs every outgoing request and the received response.
func LoggingRoundTripper(lg *slog.Logger, opts RoundTripperOpts) middleware.RoundTripperHandler {
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = defaultBodyLimit
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return middleware.RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			ctx := req.Context()
			if !lg.Handler().Enabled(ctx, opts.Level) {
				return next.RoundTrip(req)
			}

			lg.LogAttrs(ctx, opts.Level, "request sent",
				slog.String("method", req.Method),
				slog.String("url", req.URL.String()),
				slog.Any("headers", maskHeaders(req.Header, opts.SecretHeaders)),
			)

			start := time.Now()
			resp, err := next.RoundTrip(req)
			elapsed := time.Since(start)

			if err != nil {
				lg.LogAttrs(ctx, opts.Level, "request failed",
					slog.String("url", req.URL.String()),
					slog.Duration("elapsed", elapsed),
					slog.Any("err", err),
				)
				return resp, err
			}

			var body string
			resp.Body, body = peekBody(resp.Body, opts.BodyLimit)

			lg.LogAttrs(ctx, opts.Level, "response received",
				slog.Int("status", resp.StatusCode),
				slog.Any("headers", maskHeaders(resp.Header, opts.SecretHeaders)),
				slog.String("body", body),
				slog.Duration("elapsed", elapsed),
			)

			return resp, nil
		})
	}
}

const defaultBodyLimit = 512

func maskHeaders(h http.Header, secret []string) map[string]string {
	res := make(map[string]string, len(h))
	for k, vals := range h {
		if lo.Contains(secret, k) {
			res[k] = "***"
			continue
		}
		res[k] = strings.Join(vals, ",")
	}
	return res
}

// peekBody reads up to limit bytes of the body for logging and returns
// a reader that still yields the whole body.
func peekBody(src io.ReadCloser, limit int64) (io.ReadCloser, string) {
	if src == nil || src == http.NoBody {
		return src, ""
	}

	buf := &bytes.Buffer{}
	read, err := io.CopyN(buf, src, limit)
	portion := strings.NewReplacer("\n", "", "\t", "").Replace(buf.String())

	if err != nil {
		// body is shorter than the limit and already fully consumed
		return &closer{rd: bytes.NewReader(buf.Bytes()), closeFn: src.Close}, portion
	}

	if read == limit {
		portion += "..."
	}

	return &closer{rd: io.MultiReader(buf, src), closeFn: src.Close}, portion
}

type closer struct {
	rd      io.Reader
	closeFn func() error
}

func (c *closer) Read(p []byte) (n int, err error) { return c.rd.Read(p) }
func (c *closer) Close() error                     { return c.closeFn() }
