package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Semior001/yayopedia/app/store"
	"github.com/samber/lo"
	"golang.org/x/exp/slog"
)

// Dump is a command to run the pipeline once and print the articles as JSON.
type Dump struct {
	PipelineOpts

	Category string `long:"category" env:"CATEGORY" description:"print only articles of this category"`

	out io.Writer
}

// Execute runs the command.
func (d Dump) Execute(_ []string) error {
	lg := slog.Default()

	svc, err := d.service(lg)
	if err != nil {
		return err
	}

	articles, err := svc.Load(context.Background())
	if err != nil {
		return fmt.Errorf("load articles: %w", err)
	}

	if d.Category != "" {
		articles = lo.Filter(articles, func(a store.Article, _ int) bool { return a.Category == d.Category })
	}

	out := d.out
	if out == nil {
		out = os.Stdout
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(articles); err != nil {
		return fmt.Errorf("encode articles: %w", err)
	}

	return nil
}
