package service

import (
	"context"

	"github.com/colivhub/portal-server-go/internal/cache"
	"github.com/colivhub/portal-server-go/internal/model"
)

// CacheStatus tells clients how a catalog response was produced.
type CacheStatus string

const (
	CacheFresh     CacheStatus = "fresh"
	CacheRefreshed CacheStatus = "refreshed"
	CacheStale     CacheStatus = "stale"
)

// Listing is a cached collection read. Err is set, together with whatever
// was cached before, when the refresh failed.
type Listing[T any] struct {
	Items  []T
	Status CacheStatus
	Err    error
}

// CatalogService serves the public reference data through TTL caches owned
// by the caller.
type CatalogService struct {
	properties *cache.Collection[model.Property]
	faq        *cache.Collection[model.FAQEntry]
}

func NewCatalogService(properties *cache.Collection[model.Property], faq *cache.Collection[model.FAQEntry]) *CatalogService {
	return &CatalogService{properties: properties, faq: faq}
}

func load[T any](ctx context.Context, c *cache.Collection[T]) Listing[T] {
	wasFresh := c.Get().IsFresh
	items, err := c.Load(ctx)
	switch {
	case err != nil:
		return Listing[T]{Items: items, Status: CacheStale, Err: err}
	case wasFresh:
		return Listing[T]{Items: items, Status: CacheFresh}
	default:
		return Listing[T]{Items: items, Status: CacheRefreshed}
	}
}

func (s *CatalogService) Properties(ctx context.Context) Listing[model.Property] {
	return load(ctx, s.properties)
}

// Property looks slug up in the cached listing. Found is false when the slug
// is unknown or the listing could not be loaded at all.
func (s *CatalogService) Property(ctx context.Context, slug string) (*model.Property, Listing[model.Property]) {
	listing := s.Properties(ctx)
	for i := range listing.Items {
		if listing.Items[i].Slug == slug {
			p := listing.Items[i]
			return &p, listing
		}
	}
	return nil, listing
}

// PropertyByID is Property keyed by id.
func (s *CatalogService) PropertyByID(ctx context.Context, id string) (*model.Property, Listing[model.Property]) {
	listing := s.Properties(ctx)
	for i := range listing.Items {
		if listing.Items[i].ID == id {
			p := listing.Items[i]
			return &p, listing
		}
	}
	return nil, listing
}

// FAQ returns published entries, optionally limited to one category.
func (s *CatalogService) FAQ(ctx context.Context, category string) Listing[model.FAQEntry] {
	listing := load(ctx, s.faq)
	if category == "" {
		return listing
	}

	filtered := make([]model.FAQEntry, 0, len(listing.Items))
	for _, e := range listing.Items {
		if e.Category == category {
			filtered = append(filtered, e)
		}
	}
	listing.Items = filtered
	return listing
}

// InvalidateProperties drops the cached property listing, e.g. after an
// admin edit.
func (s *CatalogService) InvalidateProperties() {
	s.properties.Clear()
}
