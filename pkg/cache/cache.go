// Package cache provides XDG-compliant caching for extraction results.
//
// The cache package stores parsed command schemas together with their
// extraction reports, keyed on a fingerprint of the probed executable.
// A cache hit requires an exact fingerprint match: any change to the
// binary's path, modification time, or size, or to the extraction
// policy thresholds, produces a different key and therefore a miss.
//
// # Features
//
//   - XDG Base Directory specification compliance
//   - Executable fingerprint keys (path, mtime, size)
//   - Policy thresholds baked into the key, so a stricter run never
//     reuses a lenient run's results
//   - TTL-based pruning of stale entries
//   - Cache statistics and management commands
//
// # Example Usage
//
//	// Create cache
//	c, _ := cache.NewExtractionCache("cmdsift")
//
//	// Check cache
//	key := cache.NewKey("git", "/usr/bin/git", mtime, size, policy)
//	cached, err := c.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//	    // Run the extraction and store the result
//	    c.Set(ctx, key, entry)
//	}
//
// # Cache Locations
//
//   - Linux: ~/.cache/cmdsift/
//   - macOS: ~/Library/Caches/cmdsift/
//   - Windows: %LOCALAPPDATA%\cmdsift\cache\
//
// Cache entries are stored as JSON files with SHA-256 hash-based
// filenames to avoid filesystem naming conflicts.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cmdsift/cmdsift/pkg/report"
	"github.com/cmdsift/cmdsift/pkg/schema"
)

// Key is the cache fingerprint for one extraction. Threshold fields
// are stored in basis points so the key stays integral.
type Key struct {
	// Command is the probed command name
	Command string `json:"command"`
	// ExecutablePath is the resolved path of the probed binary
	ExecutablePath string `json:"executable_path"`
	// MtimeSecs is the binary's modification time in unix seconds
	MtimeSecs int64 `json:"mtime_secs"`
	// SizeBytes is the binary's size
	SizeBytes int64 `json:"size_bytes"`
	// MinConfidenceBp is the confidence threshold in basis points
	MinConfidenceBp int64 `json:"min_confidence_bp"`
	// MinCoverageBp is the coverage threshold in basis points
	MinCoverageBp int64 `json:"min_coverage_bp"`
	// AllowLowQuality records whether low tier results were accepted
	AllowLowQuality bool `json:"allow_low_quality"`
}

// Policy carries the extraction thresholds that participate in the key.
type Policy struct {
	MinConfidence   float64
	MinCoverage     float64
	AllowLowQuality bool
}

// NewKey builds a cache key from the executable fingerprint and the
// active policy.
func NewKey(command, executablePath string, mtime time.Time, sizeBytes int64, policy Policy) Key {
	return Key{
		Command:         command,
		ExecutablePath:  executablePath,
		MtimeSecs:       mtime.Unix(),
		SizeBytes:       sizeBytes,
		MinConfidenceBp: int64(policy.MinConfidence * 10000),
		MinCoverageBp:   int64(policy.MinCoverage * 10000),
		AllowLowQuality: policy.AllowLowQuality,
	}
}

// Entry is one cached extraction result.
type Entry struct {
	// Key is the fingerprint the entry was stored under
	Key Key `json:"key"`
	// Schema is the extracted command schema
	Schema *schema.CommandSchema `json:"schema,omitempty"`
	// Report is the extraction report
	Report *report.ExtractionReport `json:"report"`
	// DetectedVersion is the version string seen at store time
	DetectedVersion string `json:"detected_version,omitempty"`
	// ProbeMode records how help output was obtained
	ProbeMode string `json:"probe_mode,omitempty"`
	// CachedAt is when the entry was stored
	CachedAt time.Time `json:"cached_at"`
}

// ExtractionCache implements XDG-compliant caching of extraction
// results.
type ExtractionCache struct {
	// BaseDir is the cache directory (defaults to XDG cache dir)
	BaseDir string
	// AppName is the application name (used in cache path)
	AppName string
	// DefaultTTL is the default cache TTL (default: 7 days)
	DefaultTTL time.Duration
}

// NewExtractionCache creates a new XDG-compliant extraction cache.
func NewExtractionCache(appName string) (*ExtractionCache, error) {
	return NewExtractionCacheAt(appName, GetCacheDir(appName))
}

// NewExtractionCacheAt creates a cache rooted at an explicit directory.
func NewExtractionCacheAt(appName, baseDir string) (*ExtractionCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &ExtractionCache{
		BaseDir:    baseDir,
		AppName:    appName,
		DefaultTTL: 7 * 24 * time.Hour,
	}, nil
}

// Get retrieves a cached entry. The stored key must match the lookup
// key exactly or the call reports a miss.
func (c *ExtractionCache) Get(ctx context.Context, key Key) (*Entry, error) {
	cachePath := filepath.Join(c.BaseDir, c.cacheKey(key)+".json")

	if _, err := os.Stat(cachePath); os.IsNotExist(err) {
		return nil, ErrCacheMiss
	}

	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}

	// Hash collisions and hand-edited files both end here.
	if entry.Key != key {
		return nil, ErrCacheMiss
	}

	return &entry, nil
}

// Set stores an entry under its key.
func (c *ExtractionCache) Set(ctx context.Context, key Key, entry *Entry) error {
	entry.Key = key
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}
	cachePath := filepath.Join(c.BaseDir, c.cacheKey(key)+".json")

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := os.WriteFile(cachePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// Invalidate removes a cached entry.
func (c *ExtractionCache) Invalidate(ctx context.Context, key Key) error {
	cachePath := filepath.Join(c.BaseDir, c.cacheKey(key)+".json")

	if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}

	return nil
}

// Clear removes all cached entries.
func (c *ExtractionCache) Clear(ctx context.Context) error {
	entries, err := os.ReadDir(c.BaseDir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			path := filepath.Join(c.BaseDir, entry.Name())
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove cache file %s: %w", entry.Name(), err)
			}
		}
	}

	return nil
}

// IsValid checks whether an entry is still fresh under the TTL.
func (c *ExtractionCache) IsValid(entry *Entry, ttl time.Duration) bool {
	if entry == nil {
		return false
	}

	if ttl == 0 {
		ttl = c.DefaultTTL
	}

	return time.Since(entry.CachedAt) < ttl
}

// GetStats returns cache statistics.
func (c *ExtractionCache) GetStats(ctx context.Context) (*Stats, error) {
	entries, err := os.ReadDir(c.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	stats := &Stats{}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			stats.TotalEntries++
			info, err := entry.Info()
			if err == nil {
				stats.TotalSize += info.Size()
			}
		}
	}

	return stats, nil
}

// Prune removes entries older than the TTL and returns how many were
// removed.
func (c *ExtractionCache) Prune(ctx context.Context, ttl time.Duration) (int, error) {
	if ttl == 0 {
		ttl = c.DefaultTTL
	}

	entries, err := os.ReadDir(c.BaseDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	pruned := 0
	for _, dirEntry := range entries {
		if dirEntry.IsDir() || filepath.Ext(dirEntry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(c.BaseDir, dirEntry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			// Unreadable entries are stale by definition.
			if err := os.Remove(path); err == nil {
				pruned++
			}
			continue
		}

		if time.Since(entry.CachedAt) >= ttl {
			if err := os.Remove(path); err == nil {
				pruned++
			}
		}
	}

	return pruned, nil
}

// cacheKey hashes the full fingerprint into a filename.
func (c *ExtractionCache) cacheKey(key Key) string {
	data, _ := json.Marshal(key)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Stats contains cache statistics.
type Stats struct {
	TotalEntries int
	TotalSize    int64
}

// ErrCacheMiss is returned when a cache entry is not found.
var ErrCacheMiss = fmt.Errorf("cache miss")

// GetCacheDir returns the XDG cache directory for the application.
// Follows XDG Base Directory Specification on Linux/macOS.
func GetCacheDir(appName string) string {
	if runtime.GOOS == "windows" {
		// Windows: %LOCALAPPDATA%\appname\cache
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
		return filepath.Join(localAppData, appName, "cache")
	}

	// Unix-like systems: $XDG_CACHE_HOME/appname or ~/.cache/appname
	xdgCache := os.Getenv("XDG_CACHE_HOME")
	if xdgCache != "" {
		return filepath.Join(xdgCache, appName)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to /tmp
		return filepath.Join(os.TempDir(), appName, "cache")
	}

	return filepath.Join(homeDir, ".cache", appName)
}

// GetDataDir returns the XDG data directory for the application.
func GetDataDir(appName string) string {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(appData, appName, "data")
	}

	xdgData := os.Getenv("XDG_DATA_HOME")
	if xdgData != "" {
		return filepath.Join(xdgData, appName)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName, "data")
	}

	return filepath.Join(homeDir, ".local", "share", appName)
}
