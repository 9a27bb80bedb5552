// Package cache layers a read-through cache over the Jama API for
// slow-changing schema lookups: item types, pick lists, relationship
// types, and projects. Item content is never cached, because reads that
// feed update decisions must observe live versions and lock state.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/irisworks/jama-mcp/internal/jama"
)

const (
	// DefaultTTL bounds how stale catalog data may get.
	DefaultTTL = 5 * time.Minute

	numCounters = 1e4
	maxEntries  = 4096
	bufferItems = 64
)

// Config tunes the catalog cache.
type Config struct {
	// TTL is the lifetime of a cached entry. Zero means DefaultTTL.
	TTL time.Duration
}

// Catalog wraps a jama.API, serving schema reads from cache and passing
// everything else through to the underlying implementation.
type Catalog struct {
	jama.API

	cache *ristretto.Cache
	group singleflight.Group
	ttl   time.Duration
	log   *zap.Logger
}

func New(api jama.API, cfg Config, log *zap.Logger) (*Catalog, error) {
	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxEntries,
		BufferItems: bufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("building catalog cache: %w", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{API: api, cache: rc, ttl: ttl, log: log}, nil
}

// Close releases the cache's internal goroutines.
func (c *Catalog) Close() {
	c.cache.Close()
}

// getCached serves key from cache, coalescing concurrent misses into one
// upstream fetch. The first caller's context governs the shared fetch.
func getCached[T any](ctx context.Context, c *Catalog, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			c.log.Debug("catalog cache hit", zap.String("key", key))
			return typed, nil
		}
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		val, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.cache.SetWithTTL(key, val, 1, c.ttl)
		c.cache.Wait()
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// --- Projects ---

// projectPage keeps the page info next to its project slice so a cached
// page answers exactly like a live one.
type projectPage struct {
	projects []jama.Project
	page     *jama.PageInfo
}

func (c *Catalog) GetProjects(ctx context.Context, startAt, maxResults int) ([]jama.Project, *jama.PageInfo, error) {
	key := fmt.Sprintf("projects:%d:%d", startAt, maxResults)
	page, err := getCached(ctx, c, key, func(ctx context.Context) (projectPage, error) {
		projects, info, err := c.API.GetProjects(ctx, startAt, maxResults)
		return projectPage{projects: projects, page: info}, err
	})
	if err != nil {
		return nil, nil, err
	}
	return page.projects, page.page, nil
}

func (c *Catalog) GetProject(ctx context.Context, id int) (*jama.Project, error) {
	return getCached(ctx, c, fmt.Sprintf("project:%d", id), func(ctx context.Context) (*jama.Project, error) {
		return c.API.GetProject(ctx, id)
	})
}

// --- Item types ---

func (c *Catalog) GetItemTypes(ctx context.Context) ([]jama.ItemType, error) {
	return getCached(ctx, c, "itemtypes", func(ctx context.Context) ([]jama.ItemType, error) {
		return c.API.GetItemTypes(ctx)
	})
}

func (c *Catalog) GetItemType(ctx context.Context, id int) (*jama.ItemType, error) {
	return getCached(ctx, c, fmt.Sprintf("itemtype:%d", id), func(ctx context.Context) (*jama.ItemType, error) {
		return c.API.GetItemType(ctx, id)
	})
}

func (c *Catalog) GetProjectItemTypes(ctx context.Context, projectID int) ([]jama.ItemType, error) {
	return getCached(ctx, c, fmt.Sprintf("project-itemtypes:%d", projectID), func(ctx context.Context) ([]jama.ItemType, error) {
		return c.API.GetProjectItemTypes(ctx, projectID)
	})
}

// --- Pick lists ---

func (c *Catalog) GetPickLists(ctx context.Context) ([]jama.PickList, error) {
	return getCached(ctx, c, "picklists", func(ctx context.Context) ([]jama.PickList, error) {
		return c.API.GetPickLists(ctx)
	})
}

func (c *Catalog) GetPickList(ctx context.Context, id int) (*jama.PickList, error) {
	return getCached(ctx, c, fmt.Sprintf("picklist:%d", id), func(ctx context.Context) (*jama.PickList, error) {
		return c.API.GetPickList(ctx, id)
	})
}

func (c *Catalog) GetPickListOptions(ctx context.Context, pickListID int) ([]jama.PickListOption, error) {
	return getCached(ctx, c, fmt.Sprintf("picklist-options:%d", pickListID), func(ctx context.Context) ([]jama.PickListOption, error) {
		return c.API.GetPickListOptions(ctx, pickListID)
	})
}

func (c *Catalog) GetPickListOption(ctx context.Context, id int) (*jama.PickListOption, error) {
	return getCached(ctx, c, fmt.Sprintf("picklist-option:%d", id), func(ctx context.Context) (*jama.PickListOption, error) {
		return c.API.GetPickListOption(ctx, id)
	})
}

// --- Relationship types ---

func (c *Catalog) GetRelationshipTypes(ctx context.Context) ([]jama.RelationshipType, error) {
	return getCached(ctx, c, "relationshiptypes", func(ctx context.Context) ([]jama.RelationshipType, error) {
		return c.API.GetRelationshipTypes(ctx)
	})
}
