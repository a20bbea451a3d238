package topics

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Category describes one of the known topical buckets.
type Category struct {
	Key      string   `yaml:"-"`
	Title    string   `yaml:"title"`
	Label    string   `yaml:"label"`
	Tags     []string `yaml:"tags"`
	Priority int      `yaml:"priority"`
}

// DefaultCategories returns the five known categories in processing order.
func DefaultCategories() []Category {
	return []Category{
		{Key: "family", Title: "家族の話", Label: "家族", Tags: []string{"家族", "日常", "思い出"}, Priority: 1},
		{Key: "work", Title: "仕事の話", Label: "仕事", Tags: []string{"仕事", "日常", "バイト"}, Priority: 2},
		{Key: "memory", Title: "思い出の話", Label: "思い出", Tags: []string{"思い出", "過去", "経験"}, Priority: 3},
		{Key: "place", Title: "場所の話", Label: "場所", Tags: []string{"場所", "大阪", "沖縄"}, Priority: 4},
		{Key: "future", Title: "将来の話", Label: "将来", Tags: []string{"将来", "夢", "目標"}, Priority: 5},
	}
}

// LoadCategories reads YAML overrides keyed by category and applies them on
// top of the defaults. Only non-empty fields override, keys outside of the
// known set are rejected.
func LoadCategories(rd io.Reader) ([]Category, error) {
	var overrides map[string]Category
	if err := yaml.NewDecoder(rd).Decode(&overrides); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	cats := DefaultCategories()
	known := make(map[string]int, len(cats))
	for i, c := range cats {
		known[c.Key] = i
	}

	for key, o := range overrides {
		i, ok := known[key]
		if !ok {
			return nil, fmt.Errorf("unknown category %q", key)
		}

		if o.Title != "" {
			cats[i].Title = o.Title
		}
		if o.Label != "" {
			cats[i].Label = o.Label
		}
		if len(o.Tags) > 0 {
			cats[i].Tags = o.Tags
		}
		if o.Priority != 0 {
			cats[i].Priority = o.Priority
		}
	}

	return cats, nil
}

// Label returns a human-readable name of the category, or the key itself
// if the category is unknown.
func Label(cats []Category, key string) string {
	for _, c := range cats {
		if c.Key == key {
			return c.Label
		}
	}
	return key
}
