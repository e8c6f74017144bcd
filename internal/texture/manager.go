package texture

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"

	"GopherShade/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stats provides debugging and profiling information
type Stats struct {
	TotalTextures  int
	CacheHits      int
	CacheMisses    int
	ActiveTextures int
}

// Manager manages texture loading, caching, and lifecycle
type Manager struct {
	options  LoadOptions
	cache    map[string]*Texture // key -> texture
	refCount map[*Texture]int    // texture -> reference count
	keys     map[*Texture]string // texture -> key (for debugging)
	mu       sync.RWMutex
	stats    Stats
}

// NewManager creates a texture manager that loads files with opts.
func NewManager(opts LoadOptions) *Manager {
	return &Manager{
		options:  opts,
		cache:    make(map[string]*Texture),
		refCount: make(map[*Texture]int),
		keys:     make(map[*Texture]string),
	}
}

// Load loads a texture from file or returns the cached one.
// Automatically increments reference count
func (tm *Manager) Load(path string) (*Texture, error) {
	key := filepath.Clean(path)

	if tex, ok := tm.acquire(key); ok {
		return tex, nil
	}

	// Decode outside the lock so Preload can read files in parallel.
	tex, err := Load(key, tm.options)
	if err != nil {
		return nil, err
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	if cached, exists := tm.cache[key]; exists {
		// Another goroutine won the race; keep its copy.
		tm.refCount[cached]++
		tm.stats.CacheHits++
		return cached, nil
	}

	tm.stats.CacheMisses++
	tm.insert(key, tex)

	logger.Log.Info("Texture loaded and cached",
		zap.String("path", key),
		zap.Int("width", tex.Width()),
		zap.Int("height", tex.Height()))

	return tex, nil
}

// Register caches a texture that was not read from disk (procedural or
// embedded) under name. If name is taken the existing texture is returned.
func (tm *Manager) Register(name string, tex *Texture) *Texture {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if cached, exists := tm.cache[name]; exists {
		tm.refCount[cached]++
		tm.stats.CacheHits++
		return cached
	}

	tm.insert(name, tex)

	logger.Log.Info("Texture registered",
		zap.String("name", name),
		zap.Int("width", tex.Width()),
		zap.Int("height", tex.Height()))

	return tex
}

// Get returns a cached texture without touching its reference count.
func (tm *Manager) Get(key string) (*Texture, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	tex, ok := tm.cache[key]
	if !ok {
		tex, ok = tm.cache[filepath.Clean(key)]
	}
	return tex, ok
}

// Preload loads all paths concurrently and returns the textures in path
// order, each holding one reference. On failure every reference taken so far
// is released and no textures are returned.
func (tm *Manager) Preload(ctx context.Context, paths []string) ([]*Texture, error) {
	loaded := make([]*Texture, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tex, err := tm.Load(path)
			loaded[i] = tex
			return err
		})
	}
	if err := g.Wait(); err != nil {
		tm.ReleaseAll(loaded)
		return nil, err
	}
	return loaded, nil
}

// AddReference increments the reference count for a texture
func (tm *Manager) AddReference(tex *Texture) {
	if tex == nil {
		return
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.refCount[tex]++

	logger.Log.Debug("Texture reference added",
		zap.String("texture", tex.Name),
		zap.Int("refCount", tm.refCount[tex]))
}

// Release decrements reference count and drops the texture if count reaches 0
func (tm *Manager) Release(tex *Texture) {
	if tex == nil {
		return
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	refCount, exists := tm.refCount[tex]
	if !exists {
		logger.Log.Warn("Attempted to release unknown texture",
			zap.String("texture", tex.Name))
		return
	}

	refCount--
	tm.refCount[tex] = refCount

	logger.Log.Debug("Texture reference released",
		zap.String("texture", tex.Name),
		zap.Int("refCount", refCount))

	if refCount <= 0 {
		key := tm.keys[tex]
		delete(tm.cache, key)
		delete(tm.refCount, tex)
		delete(tm.keys, tex)
		tm.stats.ActiveTextures--

		logger.Log.Info("Texture freed", zap.String("key", key))
	}
}

// ReleaseAll releases every texture in texs once. Nil entries are skipped.
func (tm *Manager) ReleaseAll(texs []*Texture) {
	for _, tex := range texs {
		tm.Release(tex)
	}
}

// Stats returns current texture manager statistics
func (tm *Manager) Stats() Stats {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	stats := tm.stats
	stats.ActiveTextures = len(tm.refCount)
	return stats
}

// LogStats logs current texture statistics
func (tm *Manager) LogStats() {
	stats := tm.Stats()
	var hitRate float64
	if lookups := stats.CacheHits + stats.CacheMisses; lookups > 0 {
		hitRate = float64(stats.CacheHits) / float64(lookups)
	}
	logger.Log.Info("Texture Manager Stats",
		zap.Int("totalTextures", stats.TotalTextures),
		zap.Int("activeTextures", stats.ActiveTextures),
		zap.Int("cacheHits", stats.CacheHits),
		zap.Int("cacheMisses", stats.CacheMisses),
		zap.Float64("hitRate", hitRate))
}

// Clear drops all textures
func (tm *Manager) Clear() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.cache = make(map[string]*Texture)
	tm.refCount = make(map[*Texture]int)
	tm.keys = make(map[*Texture]string)
	tm.stats.ActiveTextures = 0

	logger.Log.Info("Texture manager cleared")
}

func (tm *Manager) acquire(key string) (*Texture, bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tex, exists := tm.cache[key]
	if !exists {
		return nil, false
	}
	tm.refCount[tex]++
	tm.stats.CacheHits++

	logger.Log.Debug("Texture cache hit",
		zap.String("path", key),
		zap.Int("refCount", tm.refCount[tex]))

	return tex, true
}

// insert must be called with tm.mu held.
func (tm *Manager) insert(key string, tex *Texture) {
	tm.cache[key] = tex
	tm.refCount[tex] = 1
	tm.keys[tex] = key
	tm.stats.TotalTextures++
	tm.stats.ActiveTextures++
}
