// Package nicknames implements the per-server nickname override cache as a
// single write-through abstraction: a device-local store for instant reads
// and an authoritative server-side store for cross-device sync, with one
// explicit policy instead of two independently mutated copies.
//
// Read policy is local-first: the local map is served immediately, then
// server values are merged on top (server wins on key collision, local-only
// keys survive). Write policy is server-confirmed: mutations land locally
// first and the remote write's outcome is returned to the caller rather
// than swallowed.
package nicknames

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/parlorchat/parlor-go/instrumentation"
)

// GlobalScope is the key scope used when the cache is not bound to a server.
const GlobalScope = "global"

// LocalStore is the device-local persistence backend. Implementations store
// one override map per key, the way browser localStorage holds one JSON
// blob per key.
type LocalStore interface {
	// Load returns the override map stored under key. A missing key yields
	// an empty map, not an error.
	Load(ctx context.Context, key string) (map[string]string, error)

	// Save replaces the override map stored under key.
	Save(ctx context.Context, key string, overrides map[string]string) error

	// Close releases backend resources.
	Close() error
}

// RemoteStore is the authoritative server-side override store. *rest.Client
// satisfies it.
type RemoteStore interface {
	GetNicknames(ctx context.Context, serverID string) (map[string]string, error)
	SetNickname(ctx context.Context, serverID, memberID, nickname string) error
}

// Cache is the write-through nickname override cache for one server scope.
// It is safe for concurrent use.
type Cache struct {
	serverID string
	local    LocalStore
	remote   RemoteStore // nil disables remote sync

	mu        sync.RWMutex
	overrides map[string]string

	logger *slog.Logger
	inst   *instrumentation.Instrumentation
}

// NewCache creates a cache bound to serverID; an empty serverID scopes the
// cache globally. remote may be nil for a purely local cache.
func NewCache(serverID string, local LocalStore, remote RemoteStore, logger *slog.Logger) (*Cache, error) {
	if local == nil {
		return nil, fmt.Errorf("local store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		serverID:  serverID,
		local:     local,
		remote:    remote,
		overrides: make(map[string]string),
		logger:    logger,
	}, nil
}

// SetInstrumentation wires cache metrics.
func (c *Cache) SetInstrumentation(inst *instrumentation.Instrumentation) {
	c.inst = inst
}

// Key returns the local storage key for this cache's scope, in the form
// "db:nicks:{serverID}" or "db:nicks:global".
func (c *Cache) Key() string {
	scope := c.serverID
	if scope == "" {
		scope = GlobalScope
	}
	return "db:nicks:" + scope
}

// Load populates the cache: local overrides first, then the server's map
// shallow-merged on top. For any member present in both, the server value
// wins; members only present locally are retained.
//
// A remote fetch failure is not fatal (local-first read): the local map is
// served and the failure is logged and counted.
func (c *Cache) Load(ctx context.Context) error {
	local, err := c.local.Load(ctx, c.Key())
	if err != nil {
		return fmt.Errorf("failed to load local overrides: %w", err)
	}
	if c.inst != nil {
		c.inst.Metrics().CacheReadsTotal.Add(ctx, 1)
	}

	merged := make(map[string]string, len(local))
	for k, v := range local {
		merged[k] = v
	}

	if c.remote != nil {
		server, err := c.remote.GetNicknames(ctx, c.serverID)
		if err != nil {
			c.logger.Warn("failed to fetch server nickname overrides, serving local only",
				"server_id", c.serverID, "error", err)
			if c.inst != nil {
				c.inst.Metrics().CacheSyncFailures.Add(ctx, 1)
			}
		} else {
			for k, v := range server {
				merged[k] = v
			}
		}
	}

	c.mu.Lock()
	c.overrides = merged
	c.mu.Unlock()
	return nil
}

// Set stores an override. The local write is synchronous; the remote write
// is confirmed and its error returned, with the local value standing either
// way.
func (c *Cache) Set(ctx context.Context, memberID, name string) error {
	if memberID == "" {
		return fmt.Errorf("member ID is required")
	}

	c.mu.Lock()
	c.overrides[memberID] = name
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if err := c.local.Save(ctx, c.Key(), snapshot); err != nil {
		return fmt.Errorf("failed to persist local overrides: %w", err)
	}
	if c.inst != nil {
		c.inst.Metrics().CacheWritesTotal.Add(ctx, 1)
	}

	return c.syncRemote(ctx, memberID, name)
}

// Remove clears an override. Remotely, clearing is a write of the empty
// nickname.
func (c *Cache) Remove(ctx context.Context, memberID string) error {
	c.mu.Lock()
	delete(c.overrides, memberID)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if err := c.local.Save(ctx, c.Key(), snapshot); err != nil {
		return fmt.Errorf("failed to persist local overrides: %w", err)
	}
	if c.inst != nil {
		c.inst.Metrics().CacheWritesTotal.Add(ctx, 1)
	}

	return c.syncRemote(ctx, memberID, "")
}

func (c *Cache) syncRemote(ctx context.Context, memberID, name string) error {
	if c.remote == nil {
		return nil
	}
	if err := c.remote.SetNickname(ctx, c.serverID, memberID, name); err != nil {
		if c.inst != nil {
			c.inst.Metrics().CacheSyncFailures.Add(ctx, 1)
		}
		return fmt.Errorf("local override saved but server sync failed: %w", err)
	}
	return nil
}

// Resolve returns the override for a member, if any.
func (c *Cache) Resolve(memberID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.overrides[memberID]
	return name, ok
}

// All returns a copy of the effective override map.
func (c *Cache) All() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// snapshotLocked copies the override map. Callers must hold at least a read
// lock.
func (c *Cache) snapshotLocked() map[string]string {
	out := make(map[string]string, len(c.overrides))
	for k, v := range c.overrides {
		out[k] = v
	}
	return out
}

// Close releases the local backend.
func (c *Cache) Close() error {
	return c.local.Close()
}
