package cache

import (
	"context"
	"sync"

	"lumacms.org/internal/db"
)

// Cache is a process-wide object cache keyed by logical namespace. It is
// initialized once at process start and shared by every execution; Clear and
// ClearAll are safe to call concurrently and are idempotent.
//
// When the context carries an open transaction scope, clears are deferred to
// the scope's post-commit callbacks so other callers never observe a cleared
// cache backed by uncommitted data.
type Cache struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]any
}

func New() *Cache {
	return &Cache{namespaces: make(map[string]map[string]any)}
}

// Get returns a cached value from a namespace.
func (c *Cache) Get(namespace, key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ns, ok := c.namespaces[namespace]
	if !ok {
		return nil, false
	}
	v, ok := ns[key]
	return v, ok
}

// Set stores a value in a namespace.
func (c *Cache) Set(namespace, key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ns, ok := c.namespaces[namespace]
	if !ok {
		ns = make(map[string]any)
		c.namespaces[namespace] = ns
	}
	ns[key] = value
}

// Clear invalidates one namespace, deferred to post-commit inside a scope.
func (c *Cache) Clear(ctx context.Context, namespace string) {
	if scope, ok := db.ScopeFrom(ctx); ok {
		scope.OnCommit(func() { c.clearNow(namespace) })
		return
	}
	c.clearNow(namespace)
}

// ClearAll invalidates every namespace, deferred to post-commit inside a
// scope.
func (c *Cache) ClearAll(ctx context.Context) {
	if scope, ok := db.ScopeFrom(ctx); ok {
		scope.OnCommit(c.clearAllNow)
		return
	}
	c.clearAllNow()
}

func (c *Cache) clearNow(namespace string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.namespaces, namespace)
}

func (c *Cache) clearAllNow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.namespaces = make(map[string]map[string]any)
}
