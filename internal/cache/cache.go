// Package cache provides a two-tier (memory + JSON file) cache for values
// derived from files on disk, keyed by the source file's mtime and size.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// FileVersion is the on-disk cache format version.
const FileVersion = 1

// DefaultFlushThreshold is the number of buffered writes that triggers a flush.
const DefaultFlushThreshold = 24

// diskFile is the on-disk representation.
type diskFile[V any] struct {
	Version int          `json:"version"`
	Entries map[string]V `json:"entries"`
}

// Signature identifies one version of a file.
type Signature struct {
	ModTimeNs int64
	Size      int64
}

// String formats the signature as "mtime:size".
func (s Signature) String() string {
	return strconv.FormatInt(s.ModTimeNs, 10) + ":" + strconv.FormatInt(s.Size, 10)
}

// FileSignature returns the mtime (ns) and size of path.
// Unreadable files yield the zero signature.
func FileSignature(path string) Signature {
	info, err := os.Stat(path)
	if err != nil {
		return Signature{}
	}
	return Signature{ModTimeNs: info.ModTime().UnixNano(), Size: info.Size()}
}

// ResolvePath returns the absolute, symlink-free form of path where possible.
func ResolvePath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Key derives a cache key from the resolved path, its signature and any
// extra discriminators (e.g. palette size).
func Key(path string, extra ...string) string {
	src := ResolvePath(path) + "|" + FileSignature(path).String()
	if len(extra) > 0 {
		src += "|" + strings.Join(extra, "|")
	}
	return HashString(src)
}

// HashString returns the hex SHA-1 of s.
func HashString(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Validator reports whether a value loaded from disk is usable.
type Validator[V any] func(V) bool

// SignatureCache caches derived values in memory and in a JSON file.
//
// Writes mark the cache dirty; the file is rewritten once the number of
// pending writes reaches the flush threshold, or on an explicit Flush.
type SignatureCache[V any] struct {
	mu        sync.Mutex
	flushMu   sync.Mutex // serializes file writes
	path      string
	logger    *slog.Logger
	memory    map[string]V
	disk      map[string]V
	dirty     bool
	pending   int
	gen       uint64 // bumped by every Put
	threshold int
	validate  Validator[V]
}

// Option configures a SignatureCache.
type Option[V any] func(*SignatureCache[V])

// WithThreshold sets the flush threshold.
func WithThreshold[V any](n int) Option[V] {
	return func(c *SignatureCache[V]) {
		if n > 0 {
			c.threshold = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger[V any](logger *slog.Logger) Option[V] {
	return func(c *SignatureCache[V]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithValidator drops disk entries for which fn returns false.
func WithValidator[V any](fn Validator[V]) Option[V] {
	return func(c *SignatureCache[V]) {
		c.validate = fn
	}
}

// New creates a cache backed by path. Call Load to read existing entries.
func New[V any](path string, opts ...Option[V]) *SignatureCache[V] {
	c := &SignatureCache[V]{
		path:      path,
		logger:    slog.Default(),
		memory:    make(map[string]V),
		disk:      make(map[string]V),
		threshold: DefaultFlushThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the backing file path.
func (c *SignatureCache[V]) Path() string {
	return c.path
}

// Load replaces the disk tier with the file contents.
// A missing or malformed file leaves the disk tier empty.
func (c *SignatureCache[V]) Load() {
	entries := make(map[string]V)
	defer func() {
		c.mu.Lock()
		c.disk = entries
		c.mu.Unlock()
	}()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Debug("failed to read cache file", "path", c.path, "error", err)
		}
		return
	}

	// Decode entries one by one so a single bad value doesn't poison the file.
	var raw struct {
		Version int                        `json:"version"`
		Entries map[string]json.RawMessage `json:"entries"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		c.logger.Debug("ignoring malformed cache file", "path", c.path, "error", err)
		return
	}
	if raw.Version > FileVersion {
		c.logger.Debug("ignoring cache file from newer version", "path", c.path, "version", raw.Version)
		return
	}

	for key, msg := range raw.Entries {
		var v V
		if err := json.Unmarshal(msg, &v); err != nil {
			continue
		}
		if c.validate != nil && !c.validate(v) {
			continue
		}
		entries[key] = v
	}
}

// Get looks up key in memory, then on disk.
// Disk hits are promoted to the memory tier.
func (c *SignatureCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.memory[key]; ok {
		return v, true
	}
	if v, ok := c.disk[key]; ok {
		c.memory[key] = v
		return v, true
	}
	var zero V
	return zero, false
}

// Put stores v in both tiers and flushes if enough writes are pending.
func (c *SignatureCache[V]) Put(key string, v V) {
	c.mu.Lock()
	c.memory[key] = v
	c.disk[key] = v
	c.dirty = true
	c.pending++
	c.gen++
	shouldFlush := c.pending >= c.threshold
	c.mu.Unlock()

	if shouldFlush {
		if err := c.Flush(); err != nil {
			c.logger.Warn("failed to flush cache", "path", c.path, "error", err)
		}
	}
}

// GetOrCompute returns the cached value for key, computing and storing it on a miss.
func (c *SignatureCache[V]) GetOrCompute(key string, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return v, err
	}
	c.Put(key, v)
	return v, nil
}

// Dirty reports whether there are unflushed writes.
func (c *SignatureCache[V]) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Len returns the number of entries in the disk tier.
func (c *SignatureCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.disk)
}

// Flush writes the disk tier to the file if there are pending writes.
// The file is replaced atomically via a temp file rename. Writes that land
// while a flush is in progress keep the cache dirty.
func (c *SignatureCache[V]) Flush() error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	snapshot := diskFile[V]{
		Version: FileVersion,
		Entries: make(map[string]V, len(c.disk)),
	}
	for k, v := range c.disk {
		snapshot.Entries[k] = v
	}
	gen, flushed := c.gen, c.pending
	c.mu.Unlock()

	if err := writeJSONAtomic(c.path, snapshot); err != nil {
		return err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.dirty = false
	}
	c.pending = max(0, c.pending-flushed)
	c.mu.Unlock()

	c.logger.Debug("flushed cache", "path", c.path, "entries", len(snapshot.Entries))
	return nil
}

// Clear drops all entries and removes the backing file.
func (c *SignatureCache[V]) Clear() error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	c.memory = make(map[string]V)
	c.disk = make(map[string]V)
	c.dirty = false
	c.pending = 0
	c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func writeJSONAtomic(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	_, err = f.Write(append(data, '\n'))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmp, 0644)
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
