// Package store contains entities of the application and the storage
// of the articles shown to readers.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is an error that is returned when the requested entity is not found.
var ErrNotFound = errors.New("not found")

// Interface defines methods for the article store.
type Interface interface {
	// Replace drops all stored articles and keeps the given ones in order.
	Replace(ctx context.Context, articles []Article) error
	Get(ctx context.Context, id string) (Article, error)
	List(ctx context.Context, req ListRequest) ([]Article, error)
}

// ListRequest defines parameters for listing articles from store.
// Empty category lists everything.
type ListRequest struct {
	Category string
}

// matches reports whether the article fits the request.
func (r ListRequest) matches(a Article) bool {
	return r.Category == "" || r.Category == a.Category
}

// RawMessage is a single chat message as provided by the source document.
type RawMessage struct {
	Content string `json:"content"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// Article is a display-ready record derived from a raw message
// and its category configuration.
type Article struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags"`
	Content      string   `json:"content"`
	FullContent  string   `json:"full_content"`
	Source       string   `json:"source"`
	Time         string   `json:"time"`
	OriginalDate string   `json:"original_date"`
	Priority     int      `json:"priority"`
}

func (a Article) clone() Article {
	a.Tags = append([]string(nil), a.Tags...)
	return a
}
