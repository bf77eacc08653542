package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/locinfo/internal/cache"
	"github.com/samvad-hq/locinfo/internal/domain"
	"github.com/samvad-hq/locinfo/pkg/providers"
)

// NewsCollector caches top headlines per country under news/<slug>.json.
// Countries come from the country cache; only codes the provider supports are queried.
type NewsCollector struct {
	base
	source    NewsSource
	countries CountryReader
	supported func(code string) bool
}

func NewNewsCollector(deps Deps, source NewsSource, countries CountryReader, ttl time.Duration) (*NewsCollector, error) {
	if source == nil || countries == nil {
		return nil, fmt.Errorf("news collector: source and country reader are required")
	}
	b, err := newBase(DomainNews, ttl, deps)
	if err != nil {
		return nil, err
	}
	return &NewsCollector{
		base:      b,
		source:    source,
		countries: countries,
		supported: providers.NewsSupported,
	}, nil
}

// FilePath maps a country slug ("latvia_lv") to its file.
func (c *NewsCollector) FilePath(slug string) string {
	return c.deps.Store.Path(cache.Key(DomainNews, slug))
}

// Collect refreshes the stale entries of supported countries. A snapshot is
// stored only when the provider reports at least one result.
func (c *NewsCollector) Collect(ctx context.Context) error {
	countries, ok, err := c.countries.Read()
	if err != nil {
		return err
	}
	if !ok {
		c.log.WarnObj("country cache is empty; skipping news collection", "news_collect", map[string]any{
			"domain": DomainNews,
		})
		return nil
	}
	if err := c.deps.Store.EnsureArea(DomainNews); err != nil {
		return err
	}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(c.deps.Concurrency)

	seen := make(map[string]struct{}, len(countries))
	for _, country := range countries {
		slug := country.Slug()
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}

		code := domain.SlugCode(slug)
		if !c.supported(code) {
			c.log.DebugObj("news provider does not cover country", "news_collect", map[string]any{
				"slug": slug,
			})
			continue
		}

		g.Go(func() error {
			_, err := c.refresh(ctx, cache.Key(DomainNews, slug), func(ctx context.Context) (json.RawMessage, error) {
				return c.fetch(ctx, code)
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (c *NewsCollector) fetch(ctx context.Context, code string) (json.RawMessage, error) {
	doc, err := c.source.TopHeadlines(ctx, code)
	if err != nil || cache.IsEmptyDocument(doc) {
		return doc, err
	}

	var head struct {
		TotalResults int `json:"totalResults"`
	}
	if err := json.Unmarshal(doc, &head); err != nil {
		return nil, fmt.Errorf("decode headlines for %s: %w", code, err)
	}
	if head.TotalResults <= 0 {
		return nil, errNothingToStore
	}
	return doc, nil
}

// Read returns the cached articles for a country slug.
func (c *NewsCollector) Read(slug string) ([]domain.Article, bool, error) {
	raw, ok, err := c.deps.Store.Read(cache.Key(DomainNews, slug))
	if err != nil || !ok {
		return nil, false, err
	}
	articles, err := parseArticles(raw)
	if err != nil {
		c.log.ErrorObj("cache entry is malformed; treating as absent", "cache_read", map[string]any{
			"domain": DomainNews,
			"key":    slug,
			"error":  err.Error(),
		})
		return nil, false, nil
	}
	return articles, true, nil
}

type headlinesDoc struct {
	TotalResults int `json:"totalResults"`
	Articles     []struct {
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
		URL         string `json:"url"`
	} `json:"articles"`
}

// parseArticles maps a headlines document to articles. Null fields decode as empty
// strings and unparseable timestamps are left zero.
func parseArticles(raw []byte) ([]domain.Article, error) {
	var doc headlinesDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	out := make([]domain.Article, 0, len(doc.Articles))
	for _, a := range doc.Articles {
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		out = append(out, domain.Article{
			ID:          domain.ArticleID(a.URL),
			Author:      a.Author,
			Title:       a.Title,
			Description: a.Description,
			PublishedAt: published,
			Content:     a.Content,
			URL:         a.URL,
		})
	}
	return out, nil
}

var _ Collector = (*NewsCollector)(nil)
