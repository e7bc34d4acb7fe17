package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"elevcalc/internal/storage"
)

var ErrNoActiveDocument = errors.New("no active rule document")

type RuleStore interface {
	// LoadActive returns nil, nil when the category has no active document.
	LoadActive(ctx context.Context, category string) (*storage.RuleDocument, error)
}

type cacheEntry struct {
	doc  *storage.RuleDocument
	prog *Program
	err  error
}

// Cache keeps the compiled active document of every category for the whole
// process. Entries stay until Invalidate is called for their category.
type Cache struct {
	store RuleStore
	log   *slog.Logger

	mu      sync.RWMutex
	entries map[string]*cacheEntry
	gen     uint64
}

func NewCache(store RuleStore, log *slog.Logger) *Cache {
	return &Cache{
		store:   store,
		log:     log,
		entries: make(map[string]*cacheEntry),
	}
}

// Active returns the compiled active document of the category, or
// ErrNoActiveDocument.
func (c *Cache) Active(ctx context.Context, category string) (*storage.RuleDocument, *Program, error) {
	const op = "service.rules.Cache.Active"

	c.mu.RLock()
	e, hit := c.entries[category]
	gen := c.gen
	c.mu.RUnlock()
	if hit {
		return e.doc, e.prog, e.err
	}

	doc, err := c.store.LoadActive(ctx, category)
	if err != nil {
		// store failures are not cached, the next request retries
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	e = &cacheEntry{doc: doc}
	switch {
	case doc == nil:
		e.err = ErrNoActiveDocument
	case !doc.IsValidated:
		e.err = fmt.Errorf("%s: document %d v%d: %w", op, doc.ID, doc.Version, storage.ErrRuleDocumentInvalid)
	default:
		e.prog, e.err = Compile(doc.Content)
	}

	c.mu.Lock()
	// an invalidation during the load makes this entry stale; hand it out once but do not keep it
	if c.gen == gen {
		if cur, ok := c.entries[category]; ok {
			e = cur
		} else {
			c.entries[category] = e
		}
	}
	c.mu.Unlock()

	return e.doc, e.prog, e.err
}

func (c *Cache) Invalidate(category string) {
	c.mu.Lock()
	delete(c.entries, category)
	c.gen++
	c.mu.Unlock()
	c.log.Info("rule cache invalidated", slog.String("category", category))
}

func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.gen++
	c.mu.Unlock()
	c.log.Info("rule cache invalidated", slog.String("category", "*"))
}

// Warm loads the given categories concurrently. Categories without a usable
// document are not an error here.
func (c *Cache) Warm(ctx context.Context, categories ...string) error {
	g, gCtx := errgroup.WithContext(ctx)
	for _, cat := range categories {
		g.Go(func() error {
			_, _, err := c.Active(gCtx, cat)
			if err != nil && !errors.Is(err, ErrNoActiveDocument) && !errors.Is(err, ErrInvalidDocument) &&
				!errors.Is(err, storage.ErrRuleDocumentInvalid) {
				return fmt.Errorf("%s: %w", cat, err)
			}
			return nil
		})
	}
	return g.Wait()
}
