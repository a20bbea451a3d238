package topics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Semior001/yayopedia/app/store"
	"golang.org/x/exp/slog"
)

var dateLayouts = []string{
	"2006/1/2 Mon",
	"2006/1/2",
	"2006/1/2 15:04",
	"2006-01-02",
}

// ParseOriginalDate parses a source date like "2025/06/10(Tue)".
// It is best-effort: the weekday in parentheses becomes a separate field,
// and when the whole string does not fit any layout only its first field
// is tried.
func ParseOriginalDate(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, "(", " "), ")", ""))

	candidates := []string{s}
	if fields := strings.Fields(s); len(fields) > 1 {
		candidates = append(candidates, fields[0])
	}

	for _, c := range candidates {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, c); err == nil {
				return t, nil
			}
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// NewestFirst compares articles by their original dates, the more recent
// one goes first. When any of the dates can't be parsed the articles are
// reported as equal along with the parse error.
func NewestFirst(a, b store.Article) (int, error) {
	ta, err := ParseOriginalDate(a.OriginalDate)
	if err != nil {
		return 0, fmt.Errorf("parse date of %s: %w", a.ID, err)
	}

	tb, err := ParseOriginalDate(b.OriginalDate)
	if err != nil {
		return 0, fmt.Errorf("parse date of %s: %w", b.ID, err)
	}

	switch {
	case ta.After(tb):
		return -1, nil
	case ta.Before(tb):
		return 1, nil
	default:
		return 0, nil
	}
}

// Sort orders articles in place, newest first. The sort is stable,
// comparison errors are logged and the pair is left as is. Malformed dates
// scattered through the list may therefore yield an inconsistent order.
func Sort(ctx context.Context, lg *slog.Logger, articles []store.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		res, err := NewestFirst(articles[i], articles[j])
		if err != nil {
			lg.ErrorCtx(ctx, "failed to compare article dates", slog.Any("err", err))
			return false
		}
		return res < 0
	})
}
