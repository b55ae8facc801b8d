// Package cache provides a content-addressed file cache for extraction
// results. Each entry is a standalone JSON file named after its request
// fingerprint, so independent requests never contend and a wiped directory
// is simply a cold cache.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/tably/tably/internal/logger"
)

// DefaultTTL is how long entries stay valid unless configured otherwise.
const DefaultTTL = 24 * time.Hour

// Store is a TTL-bounded file cache. All operations are best-effort: I/O
// failures are logged at debug level and surface as cache misses, never as
// errors, so a broken cache degrades to slower extractions.
type Store struct {
	dir     string
	ttl     time.Duration
	enabled atomic.Bool
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Store.
type Option func(*Store)

// WithDir sets the cache directory. The default is a tably directory under
// the user cache dir.
func WithDir(dir string) Option {
	return func(s *Store) {
		s.dir = dir
	}
}

// WithTTL sets the entry lifetime. Zero or negative means entries never
// expire.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithDisabled creates the store in the disabled state.
func WithDisabled() Option {
	return func(s *Store) {
		s.enabled.Store(false)
	}
}

// WithClock overrides the time source. Used by tests to simulate expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a cache store.
func New(opts ...Option) *Store {
	s := &Store{ttl: DefaultTTL, now: time.Now}
	s.enabled.Store(true)
	for _, opt := range opts {
		opt(s)
	}
	if s.dir == "" {
		s.dir = DefaultDir()
	}
	return s
}

// DefaultDir returns the per-user cache directory for tably.
func DefaultDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "tably")
}

// entry is the on-disk shape of one cached extraction.
type entry struct {
	Timestamp float64          `json:"timestamp"` // seconds since epoch
	Data      map[string][]any `json:"data"`
}

// Get returns the cached mapping for a key. The second return is false when
// the store is disabled or the entry is missing, unreadable or expired.
// Expired entries are left on disk; ClearExpired removes them.
func (s *Store) Get(key string) (map[string][]any, bool) {
	if !s.enabled.Load() {
		return nil, false
	}

	raw, err := os.ReadFile(s.entryPath(key))
	if err != nil {
		s.misses.Add(1)
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		logger.Debug("cache entry unreadable", "key", key, "error", err)
		s.misses.Add(1)
		return nil, false
	}
	if e.Data == nil {
		s.misses.Add(1)
		return nil, false
	}
	if s.expired(e.Timestamp) {
		logger.Debug("cache entry expired", "key", key)
		s.misses.Add(1)
		return nil, false
	}

	s.hits.Add(1)
	return e.Data, true
}

// Put stores a mapping under a key. The write is atomic (temp file plus
// rename) so concurrent writers race at worst to equivalent results.
func (s *Store) Put(key string, data map[string][]any) {
	if !s.enabled.Load() || data == nil {
		return
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		logger.Debug("cache dir not writable", "dir", s.dir, "error", err)
		return
	}

	raw, err := json.Marshal(entry{
		Timestamp: float64(s.now().UnixNano()) / float64(time.Second),
		Data:      data,
	})
	if err != nil {
		logger.Debug("cache entry not serializable", "key", key, "error", err)
		return
	}

	tmp, err := os.CreateTemp(s.dir, key+".tmp")
	if err != nil {
		logger.Debug("cache write failed", "key", key, "error", err)
		return
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		logger.Debug("cache write failed", "key", key, "error", err)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		logger.Debug("cache write failed", "key", key, "error", err)
		return
	}
	if err := os.Rename(tmp.Name(), s.entryPath(key)); err != nil {
		os.Remove(tmp.Name())
		logger.Debug("cache write failed", "key", key, "error", err)
	}
}

// Clear removes every entry and reports how many were deleted.
func (s *Store) Clear() int {
	removed := 0
	for _, path := range s.entryFiles() {
		if os.Remove(path) == nil {
			removed++
		}
	}
	return removed
}

// ClearExpired removes entries past their TTL, plus entries too corrupt to
// ever produce a hit. It reports how many were deleted.
func (s *Store) ClearExpired() int {
	removed := 0
	for _, path := range s.entryFiles() {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var e entry
		stale := json.Unmarshal(raw, &e) != nil || e.Data == nil || s.expired(e.Timestamp)
		if stale && os.Remove(path) == nil {
			removed++
		}
	}
	return removed
}

// Enable turns the store on.
func (s *Store) Enable() {
	s.enabled.Store(true)
}

// Disable turns the store off. Reads and writes short-circuit; entries on
// disk are untouched.
func (s *Store) Disable() {
	s.enabled.Store(false)
}

// Enabled reports whether the store is accepting reads and writes.
func (s *Store) Enabled() bool {
	return s.enabled.Load()
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// TTL returns the configured entry lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Stats describes cache effectiveness and footprint.
type Stats struct {
	Hits      int64  `json:"hits"`
	Misses    int64  `json:"misses"`
	Entries   int    `json:"entries"`
	SizeBytes int64  `json:"size_bytes"`
	Dir       string `json:"dir"`
}

// Stats reports hit and miss counts for this store instance plus the
// current on-disk footprint.
func (s *Store) Stats() Stats {
	st := Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Dir:    s.dir,
	}
	for _, path := range s.entryFiles() {
		st.Entries++
		if info, err := os.Stat(path); err == nil {
			st.SizeBytes += info.Size()
		}
	}
	return st
}

func (s *Store) entryPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) entryFiles() []string {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil
	}
	return paths
}

// expired reports whether a write timestamp is past the TTL.
func (s *Store) expired(timestamp float64) bool {
	if s.ttl <= 0 {
		return false
	}
	age := float64(s.now().UnixNano())/float64(time.Second) - timestamp
	return age > s.ttl.Seconds()
}
