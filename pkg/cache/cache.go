// Package cache holds run results keyed by run signature so a repeat view is
// served without spending upstream quota, and persists the most recent
// successful snapshot so the first view after startup renders without a
// network call.
//
// The in-memory side keeps the most recent result per signature and is
// process-wide; writes are last-writer-wins, matching "most recent run wins"
// semantics. The on-disk side is a single fixed slot, not a keyed store:
// loading it is a plain deserialize-on-read.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/ytsift/ytsift/pkg/core"
	"github.com/ytsift/ytsift/pkg/log"
)

// SnapshotFile is the fixed name of the persisted last-run slot.
const SnapshotFile = "last_run.json.zst"

// Cache is the process-wide result cache. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*core.RunResult

	// snapshotPath is the last-run slot on disk; empty disables persistence.
	snapshotPath string
	logger       *log.Logger
}

// New builds a cache that persists snapshots to snapshotPath (pass "" for a
// memory-only cache, as tests of pure merge behavior do).
func New(snapshotPath string) *Cache {
	return &Cache{
		entries:      make(map[string]*core.RunResult),
		snapshotPath: snapshotPath,
		logger:       log.ForComponent("cache"),
	}
}

// Get returns the cached result for a signature. The boolean is false on a
// miss; a miss is an internal signal, never an error.
func (c *Cache) Get(signature string) (*core.RunResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.entries[signature]
	return result, ok
}

// Put stores the result for a signature, overwriting any previous run.
func (c *Cache) Put(signature string, result *core.RunResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[signature] = result
}

// SaveSnapshot writes the result to the last-run slot as zstd-compressed
// JSON. A cache without a snapshot path accepts and ignores the write.
func (c *Cache) SaveSnapshot(result *core.RunResult) error {
	if c.snapshotPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.snapshotPath), 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("creating zstd encoder: %w", err)
	}
	compressed := encoder.EncodeAll(data, nil)
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("closing zstd encoder: %w", err)
	}

	// Write-then-rename so a crash mid-write never corrupts the slot.
	tmp := c.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, c.snapshotPath); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	c.logger.Debugf("snapshot saved: %d videos, %d bytes compressed", len(result.Videos), len(compressed))
	return nil
}

// LoadSnapshot reads the last-run slot. The boolean is false when no
// snapshot exists or the slot cannot be decoded; a corrupt slot is a miss,
// not a failure.
func (c *Cache) LoadSnapshot() (*core.RunResult, bool) {
	if c.snapshotPath == "" {
		return nil, false
	}

	compressed, err := os.ReadFile(c.snapshotPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warnf("reading snapshot: %v", err)
		}
		return nil, false
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		c.logger.Warnf("creating zstd decoder: %v", err)
		return nil, false
	}
	defer decoder.Close()

	data, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		c.logger.Warnf("decompressing snapshot: %v", err)
		return nil, false
	}

	var result core.RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warnf("decoding snapshot: %v", err)
		return nil, false
	}
	return &result, true
}

// ClearSnapshot removes the persisted slot. Clearing a missing slot is not
// an error.
func (c *Cache) ClearSnapshot() error {
	if c.snapshotPath == "" {
		return nil
	}
	if err := os.Remove(c.snapshotPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing snapshot: %w", err)
	}
	return nil
}
