package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

const (
	// DefaultTTL applies when a compile request does not set one.
	DefaultTTL = 5 * time.Minute
	// MinTTL is the floor for caller-supplied TTLs.
	MinTTL = time.Second

	keyPrefix = "pr_"
)

var ErrNotFound = errors.New("prompt cache entry not found")

// Entry is one compiled prompt. A hit requires an exact match of workflow id
// and serialized parameters and an unexpired deadline.
type Entry struct {
	Key        string    `json:"key"`
	WorkflowID string    `json:"workflow_id"`
	Prompt     string    `json:"prompt"`
	Serialized string    `json:"-"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// LoaderFunc supplies the template document. It runs at most once per
// process; a failure is fatal to the compile that triggered it and is
// retried on the next compile.
type LoaderFunc func() (string, error)

type CompileRequest struct {
	WorkflowID string
	Parameters any
	TTL        time.Duration
}

// Cache memoizes rendered prompts keyed by a content hash of the workflow id
// and the caller's parameters.
type Cache struct {
	load LoaderFunc

	mu      sync.Mutex
	entries map[string]Entry
	tpl     *Template

	now func() time.Time
}

func NewCache(load LoaderFunc) *Cache {
	return &Cache{
		load:    load,
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// NewFileCache loads the template document from disk on first use.
func NewFileCache(path string) *Cache {
	return NewCache(func() (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read prompt template: %w", err)
		}
		return string(data), nil
	})
}

// Key derives the deterministic cache key for a workflow id and a stable
// parameter serialization.
func Key(workflowID, serialized string) string {
	sum := sha256.Sum256([]byte(workflowID + serialized))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Compile returns the cached entry for the request when one is live, or
// renders and caches a fresh one. The second return reports a cache hit;
// hits are returned unchanged with no TTL refresh.
func (c *Cache) Compile(req CompileRequest) (Entry, bool, error) {
	params := Normalize(req.Parameters)
	serialized := StableJSON(params)
	key := Key(req.WorkflowID, serialized)

	c.mu.Lock()
	now := c.now()
	if e, ok := c.entries[key]; ok &&
		e.WorkflowID == req.WorkflowID &&
		e.Serialized == serialized &&
		now.Before(e.ExpiresAt) {
		c.mu.Unlock()
		return e, true, nil
	}

	tpl, err := c.templateLocked()
	if err != nil {
		c.mu.Unlock()
		return Entry{}, false, err
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	} else if ttl < MinTTL {
		ttl = MinTTL
	}

	e := Entry{
		Key:        key,
		WorkflowID: req.WorkflowID,
		Prompt:     tpl.Render(params),
		Serialized: serialized,
		ExpiresAt:  now.Add(ttl),
	}
	c.entries[key] = e
	c.mu.Unlock()
	return e, false, nil
}

// ByKey looks an entry up directly. Expired entries are evicted and reported
// as not found; a workflow mismatch or, when parameters are supplied, a
// serialization mismatch is also a miss.
func (c *Cache) ByKey(workflowID, key string, parameters any) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	if !c.now().Before(e.ExpiresAt) {
		delete(c.entries, key)
		return Entry{}, ErrNotFound
	}
	if e.WorkflowID != workflowID {
		return Entry{}, ErrNotFound
	}
	if parameters != nil {
		if StableJSON(Normalize(parameters)) != e.Serialized {
			return Entry{}, ErrNotFound
		}
	}
	return e, nil
}

// Clear empties the cache unconditionally. The loaded template is kept; it
// is immutable for the process lifetime.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) templateLocked() (*Template, error) {
	if c.tpl != nil {
		return c.tpl, nil
	}
	text, err := c.load()
	if err != nil {
		return nil, err
	}
	c.tpl = Parse(text)
	return c.tpl, nil
}
