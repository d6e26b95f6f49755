package file

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Klorm286/data-analyst-market-analysis-russia/common/cache"
)

type entry struct {
	Value     string     `json:"value"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Cache is a JSON file on disk holding every entry. Each mutation rewrites the
// file, so entries survive process restarts.
type Cache struct {
	mu         sync.Mutex
	path       string
	entries    map[string]entry
	defaultTTL time.Duration
	closed     bool
	now        func() time.Time
}

func New(opts cache.Options) (*Cache, error) {
	c := &Cache{
		path:       opts.FilePath,
		entries:    make(map[string]entry),
		defaultTTL: opts.DefaultTTL,
		now:        time.Now,
	}

	data, err := os.ReadFile(opts.FilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if key == "" {
		return cache.ErrInvalidKey
	}
	data, err := cache.Encode(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cache.ErrClosed
	}

	if ttl == 0 {
		ttl = c.defaultTTL
	}
	e := entry{Value: string(data)}
	if ttl > 0 {
		exp := c.now().Add(ttl)
		e.ExpiresAt = &exp
	}
	c.entries[key] = e
	return c.persist()
}

func (c *Cache) Get(ctx context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cache.ErrClosed
	}

	e, ok := c.entries[key]
	if !ok {
		return cache.ErrNotFound
	}
	if e.ExpiresAt != nil && c.now().After(*e.ExpiresAt) {
		delete(c.entries, key)
		return cache.ErrNotFound
	}
	return cache.Decode([]byte(e.Value), value)
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cache.ErrClosed
	}
	delete(c.entries, key)
	return c.persist()
}

func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cache.ErrClosed
	}
	c.entries = make(map[string]entry)
	return c.persist()
}

func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.persist()
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) persist() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}
