// Package helpcenter serves the FAQ articles shown on /help. The catalog is
// embedded at compile time and parsed once.
package helpcenter

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const DefaultLanguage = "en"

//go:embed catalog.yaml
var catalogSource []byte

type Article struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
}

type Category struct {
	Key      string    `yaml:"key"`
	Title    string    `yaml:"title"`
	Articles []Article `yaml:"articles"`
}

// Texts are the page strings for one language.
type Texts struct {
	Title             string     `yaml:"title"`
	Subtitle          string     `yaml:"subtitle"`
	SearchPlaceholder string     `yaml:"search_placeholder"`
	BackHome          string     `yaml:"back_home"`
	NoResults         string     `yaml:"no_results"`
	Categories        []Category `yaml:"categories"`
}

type Catalog struct {
	Languages map[string]Texts `yaml:"languages"`
}

var (
	loadOnce sync.Once
	loaded   *Catalog
	loadErr  error
)

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(catalogSource)
	})
	return loaded, loadErr
}

// Parse decodes a catalog document. The default language must be present.
func Parse(src []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(src, &c); err != nil {
		return nil, fmt.Errorf("parse help catalog: %w", err)
	}
	if _, ok := c.Languages[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("parse help catalog: missing %q language", DefaultLanguage)
	}
	return &c, nil
}

// Language resolves lang, falling back to English.
func (c *Catalog) Language(lang string) (string, Texts) {
	if t, ok := c.Languages[lang]; ok {
		return lang, t
	}
	return DefaultLanguage, c.Languages[DefaultLanguage]
}

// Search returns the categories of lang whose articles match query in title
// or content, case-insensitively. Empty categories are dropped; an empty
// query matches everything.
func (c *Catalog) Search(lang, query string) []Category {
	_, texts := c.Language(lang)
	q := strings.ToLower(strings.TrimSpace(query))

	var out []Category
	for _, cat := range texts.Categories {
		var matched []Article
		for _, a := range cat.Articles {
			if q == "" ||
				strings.Contains(strings.ToLower(a.Title), q) ||
				strings.Contains(strings.ToLower(a.Content), q) {
				matched = append(matched, a)
			}
		}
		if len(matched) > 0 {
			out = append(out, Category{Key: cat.Key, Title: cat.Title, Articles: matched})
		}
	}
	return out
}
