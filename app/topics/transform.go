package topics

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Semior001/yayopedia/app/store"
	"github.com/samber/lo"
	"golang.org/x/exp/slog"
)

// Source is the source name put on every article.
const Source = "Yayopedia"

// MissingCategoryError reports a configured category absent from the
// document. It is informational and never stops the pipeline.
type MissingCategoryError struct {
	Category string
}

// Error returns the error message.
func (e *MissingCategoryError) Error() string {
	return fmt.Sprintf("category %q not found in document", e.Category)
}

// Transformer turns raw messages into articles.
type Transformer struct {
	Log        *slog.Logger
	Categories []Category
}

// Transform builds articles for every configured category present in the
// document, in category order, from the messages that pass the quality filter.
func (t Transformer) Transform(ctx context.Context, doc Document) []store.Article {
	t.warnUnknown(ctx, doc)

	var articles []store.Article
	for _, cat := range t.Categories {
		msgs, err := messages(doc, cat.Key)
		if err != nil {
			t.Log.WarnCtx(ctx, "skipping category", slog.String("category", cat.Key), slog.Any("err", err))
			continue
		}

		accepted := Filter(msgs)
		t.Log.InfoCtx(ctx, "category processed",
			slog.String("category", cat.Key),
			slog.Int("messages", len(msgs)),
			slog.Int("accepted", len(accepted)),
		)

		for idx, msg := range accepted {
			articles = append(articles, newArticle(cat, msg, idx))
		}
	}

	t.Log.InfoCtx(ctx, "articles built", slog.Int("total", len(articles)))
	return articles
}

func (t Transformer) warnUnknown(ctx context.Context, doc Document) {
	known := lo.Map(t.Categories, func(c Category, _ int) string { return c.Key })
	unknown, _ := lo.Difference(lo.Keys(map[string]json.RawMessage(doc)), known)
	sort.Strings(unknown)
	for _, key := range unknown {
		t.Log.WarnCtx(ctx, "unknown category skipped", slog.String("category", key))
	}
}

// messages decodes the category's messages, a value that is not an array
// of messages is reported the same way as an absent one.
func messages(doc Document, key string) ([]store.RawMessage, error) {
	raw, ok := doc[key]
	if !ok {
		return nil, &MissingCategoryError{Category: key}
	}

	var msgs []store.RawMessage
	if err := json.Unmarshal(raw, &msgs); err != nil || msgs == nil {
		return nil, fmt.Errorf("decode messages: %w", &MissingCategoryError{Category: key})
	}

	return msgs, nil
}

func newArticle(cat Category, msg store.RawMessage, idx int) store.Article {
	return store.Article{
		ID:           ArticleID(cat.Key, msg.Date, idx),
		Title:        cat.Title,
		Date:         LocalizeDate(msg.Date),
		Category:     cat.Key,
		Tags:         append([]string(nil), cat.Tags...),
		Content:      msg.Content,
		FullContent:  msg.Content,
		Source:       Source,
		Time:         msg.Time,
		OriginalDate: msg.Date,
		Priority:     cat.Priority,
	}
}

var (
	yearPrefixRe  = regexp.MustCompile(`^(\d{4})/`)
	parenReplacer = strings.NewReplacer("(", "（", ")", "）")
	nonDigitRe    = regexp.MustCompile(`\D`)
)

// LocalizeDate rewrites the leading "YYYY/" into "YYYY年" and ASCII
// parentheses into full-width ones. Nothing else is touched.
func LocalizeDate(date string) string {
	return parenReplacer.Replace(yearPrefixRe.ReplaceAllString(date, "${1}年"))
}

// ArticleID derives a stable id from the category, the digits of the
// original date and the index of the message within its category.
func ArticleID(category, date string, idx int) string {
	digits := nonDigitRe.ReplaceAllString(date, "")
	if digits == "" {
		digits = "nodate"
	}
	return fmt.Sprintf("%s-%s-%d", category, digits, idx)
}
