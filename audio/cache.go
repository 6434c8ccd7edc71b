// audio/cache.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package audio

import (
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kb9vt/mpxrds/util"
)

// DecodeCache memoizes Load results in memory (an LRU of recently-used
// sources) and on disk (via util.CacheStoreObject/CacheRetrieveObject,
// msgpack+flate), so re-loading the same clip across restarts skips
// re-decoding it.
type DecodeCache struct {
	mu  sync.Mutex
	mem *lru.Cache[string, *Source]
}

// NewDecodeCache builds a cache holding up to memCapacity decoded
// sources in memory, backed by the on-disk diagnostics cache.
func NewDecodeCache(memCapacity int) (*DecodeCache, error) {
	mem, err := lru.New[string, *Source](memCapacity)
	if err != nil {
		return nil, err
	}
	return &DecodeCache{mem: mem}, nil
}

var (
	sharedCacheOnce sync.Once
	sharedCache     *DecodeCache
)

const sharedCacheCapacity = 16

// Shared returns the process-wide decode cache used by the engine and
// offline driver to load cfg.AudioPath, so repeated runs against the
// same clip skip re-decoding it.
func Shared() *DecodeCache {
	sharedCacheOnce.Do(func() {
		// capacity is small and fixed, so New never errors in practice.
		sharedCache, _ = NewDecodeCache(sharedCacheCapacity)
	})
	return sharedCache
}

// Get returns the decoded Source for path, loading and caching it if
// this is the first request. The on-disk entry is invalidated whenever
// the source file's modification time changes.
func (c *DecodeCache) Get(path string) (*Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, modTime := cacheKey(path)
	if s, ok := c.mem.Get(key); ok {
		return s, nil
	}

	if s, ok := loadFromDisk(key, modTime); ok {
		c.mem.Add(key, s)
		return s, nil
	}

	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.mem.Add(key, s)
	util.CacheStoreObject(key, cacheEntry{ModUnixNano: modTime.UnixNano(), Source: *s})
	return s, nil
}

// cacheEntry is the on-disk payload: the decoded source plus the source
// file's modification time, so a stale cache entry can be detected.
type cacheEntry struct {
	ModUnixNano int64
	Source      Source
}

func cacheKey(path string) (key string, modTime timeStamp) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	var mt timeStamp
	if info, err := os.Stat(abs); err == nil {
		mt = timeStamp(info.ModTime().UnixNano())
	}
	sum := sha1.Sum([]byte(abs))
	return "decode-" + hex.EncodeToString(sum[:]) + ".cache", mt
}

type timeStamp int64

func (t timeStamp) UnixNano() int64 { return int64(t) }

func loadFromDisk(key string, modTime timeStamp) (*Source, bool) {
	var entry cacheEntry
	if _, err := util.CacheRetrieveObject(key, &entry); err != nil {
		return nil, false
	}
	if entry.ModUnixNano != modTime.UnixNano() {
		return nil, false
	}
	s := entry.Source
	return &s, true
}
