package web

import (
	"net/url"
	"strings"

	"github.com/Semior001/yayopedia/app/store"
	"github.com/Semior001/yayopedia/app/topics"
	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// All is the filter value that shows every category.
const All = "all"

const siteTitle = "Yayopedia"

// Error messages shown to readers.
const (
	msgLoadFailed = "データの読み込みに失敗しました。ページを更新してください。"
	msgNoArticles = "品質基準を満たす記事が見つかりませんでした。"
	msgNotFound   = "記事が見つかりませんでした。"
)

// Every text field of the view models below is already escaped and is put
// into the markup as is.

// Page is a view model of the article list.
type Page struct {
	Title   string
	Error   *ErrorView
	Stats   Stats
	Buttons []Button
	Cards   []Card
}

// ErrorView describes a failure with a way to retry.
type ErrorView struct {
	Message  string
	RetryURL string
}

// Stats are aggregate numbers over all loaded articles.
type Stats struct {
	Articles int    `json:"articles"`
	Days     int    `json:"days"`
	Messages string `json:"messages"`
}

// Button is a category filter control.
type Button struct {
	Key    string
	Label  string
	URL    string
	Active bool
}

// Card is a single article preview.
type Card struct {
	ID            string
	Category      string
	CategoryLabel string
	DateTime      string
	Title         string
	Tags          []string
	Summary       string
	Source        string
	Link          string
}

// ArticlePage is a view model of a single article with its full content.
type ArticlePage struct {
	Title   string
	Error   *ErrorView
	Card    Card
	Content string
}

var htmlEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&#34;",
	`'`, "&#39;",
)

// EscapeHTML escapes text so that it is safe to put into HTML
// element content and quoted attribute values.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// ActiveCategory returns the requested category if it is known,
// or All otherwise.
func ActiveCategory(cats []topics.Category, requested string) string {
	if lo.ContainsBy(cats, func(c topics.Category) bool { return c.Key == requested }) {
		return requested
	}
	return All
}

// NewPage builds the article list view model. Stats are computed over all
// articles, cards are limited to the active category.
func NewPage(articles []store.Article, cats []topics.Category, active string) Page {
	active = ActiveCategory(cats, active)

	p := Page{
		Title: siteTitle,
		Stats: NewStats(articles),
		Buttons: append([]Button{{Key: All, Label: "すべて", URL: "/", Active: active == All}},
			lo.Map(cats, func(c topics.Category, _ int) Button {
				return Button{
					Key:    EscapeHTML(c.Key),
					Label:  EscapeHTML(c.Label),
					URL:    EscapeHTML("/?category=" + url.QueryEscape(c.Key)),
					Active: active == c.Key,
				}
			})...),
	}

	for _, a := range articles {
		if active != All && a.Category != active {
			continue
		}
		p.Cards = append(p.Cards, NewCard(a, cats))
	}

	return p
}

// ErrorPage builds the article list view model for a failure.
func ErrorPage(msg string) Page {
	return Page{Title: siteTitle, Error: &ErrorView{Message: EscapeHTML(msg), RetryURL: "/"}}
}

// NewCard builds an article preview.
func NewCard(a store.Article, cats []topics.Category) Card {
	return Card{
		ID:            EscapeHTML(a.ID),
		Category:      EscapeHTML(a.Category),
		CategoryLabel: EscapeHTML(topics.Label(cats, a.Category)),
		DateTime:      EscapeHTML(strings.TrimSpace(a.Date + " " + a.Time)),
		Title:         EscapeHTML(a.Title),
		Tags:          lo.Map(a.Tags, func(t string, _ int) string { return EscapeHTML(t) }),
		Summary:       EscapeHTML(topics.Summary(a.Content)),
		Source:        EscapeHTML(a.Source),
		Link:          EscapeHTML("/articles/" + url.PathEscape(a.ID)),
	}
}

// NewArticlePage builds the view model of a single article.
func NewArticlePage(a store.Article, cats []topics.Category) ArticlePage {
	return ArticlePage{
		Title:   siteTitle,
		Card:    NewCard(a, cats),
		Content: EscapeHTML(a.FullContent),
	}
}

// NewStats counts articles and distinct original dates.
func NewStats(articles []store.Article) Stats {
	dates := lo.Uniq(lo.Map(articles, func(a store.Article, _ int) string { return a.OriginalDate }))
	return Stats{
		Articles: len(articles),
		Days:     len(dates),
		Messages: message.NewPrinter(language.Japanese).Sprintf("%d", len(articles)),
	}
}
