package notion

import (
	"context"
	"sync"
	"time"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultSchemaTTL is the default TTL for the database schema cache
const DefaultSchemaTTL = 5 * time.Minute

// schemaCache caches a Notion database's property schema. It replaces the
// process-wide column-ID lookup the roster integration historically relied
// on: the cache is owned by the client, its TTL is injected, and callers can
// invalidate it when the board schema changes under them.
type schemaCache struct {
	api *notionapi.Client
	ttl time.Duration

	mu        sync.RWMutex
	schemas   map[string]notionapi.PropertyConfigs
	expiresAt map[string]time.Time
}

func newSchemaCache(api *notionapi.Client, ttl time.Duration) *schemaCache {
	if ttl <= 0 {
		ttl = DefaultSchemaTTL
	}
	return &schemaCache{
		api:       api,
		ttl:       ttl,
		schemas:   make(map[string]notionapi.PropertyConfigs),
		expiresAt: make(map[string]time.Time),
	}
}

// Get returns the property schema for a database, fetching on miss or expiry
func (c *schemaCache) Get(ctx context.Context, dbID string) (notionapi.PropertyConfigs, error) {
	now := time.Now()

	c.mu.RLock()
	if schema, ok := c.schemas[dbID]; ok && c.expiresAt[dbID].After(now) {
		c.mu.RUnlock()
		return schema, nil
	}
	c.mu.RUnlock()

	db, err := c.api.Database.Get(ctx, notionapi.DatabaseID(dbID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get database schema", goerr.V("db_id", dbID))
	}

	c.mu.Lock()
	c.schemas[dbID] = db.Properties
	c.expiresAt[dbID] = now.Add(c.ttl)
	c.mu.Unlock()

	return db.Properties, nil
}

// Invalidate drops the cached schema for a database
func (c *schemaCache) Invalidate(dbID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.schemas, dbID)
	delete(c.expiresAt, dbID)
}
