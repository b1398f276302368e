package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed sources.yaml
var defaultSourcesYAML []byte

// Sources is the catalog of upstream endpoints.
type Sources struct {
	Feeds        []string     `yaml:"feeds"`
	DelayListing DelayListing `yaml:"delay_listing"`
	Search       Search       `yaml:"search"`
	Sitemap      Sitemap      `yaml:"sitemap"`
}

// DelayListing is the official travel-delay page.
type DelayListing struct {
	URL    string `yaml:"url"`
	Source string `yaml:"source"`
}

// Search is a WordPress posts endpoint queried once per term.
type Search struct {
	APIURL   string   `yaml:"api_url"`
	Source   string   `yaml:"source"`
	MaxPages int      `yaml:"max_pages"`
	PerPage  int      `yaml:"per_page"`
	Terms    []string `yaml:"terms"`
}

// Sitemap is a site whose news sitemap is walked page by page.
type Sitemap struct {
	IndexURL           string   `yaml:"index_url"`
	NewsURL            string   `yaml:"news_url"`
	Source             string   `yaml:"source"`
	URLHints           []string `yaml:"url_hints"`
	PageStep           int      `yaml:"page_step"`
	MaxOffset          int      `yaml:"max_offset"`
	MaxEmptyPages      int      `yaml:"max_empty_pages"`
	ArticleConcurrency int      `yaml:"article_concurrency"`
}

// LoadSources reads the catalog at path, or the embedded default when path is
// empty.
func LoadSources(path string) (*Sources, error) {
	data := defaultSourcesYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read sources file: %w", err)
		}
		data = b
	}
	return ParseSources(data)
}

// ParseSources decodes and validates a catalog document.
func ParseSources(data []byte) (*Sources, error) {
	var s Sources
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Sources) validate() error {
	var errs []error
	if s.DelayListing.URL != "" && s.DelayListing.Source == "" {
		errs = append(errs, errors.New("delay_listing.source is required"))
	}
	if s.Search.APIURL != "" {
		if s.Search.MaxPages < 1 {
			errs = append(errs, errors.New("search.max_pages must be positive"))
		}
		if s.Search.PerPage < 1 || s.Search.PerPage > 100 {
			errs = append(errs, errors.New("search.per_page must be between 1 and 100"))
		}
	}
	if s.Sitemap.NewsURL != "" {
		if s.Sitemap.PageStep < 1 {
			errs = append(errs, errors.New("sitemap.page_step must be positive"))
		}
		if s.Sitemap.MaxEmptyPages < 1 {
			errs = append(errs, errors.New("sitemap.max_empty_pages must be positive"))
		}
	}
	return errors.Join(errs...)
}
