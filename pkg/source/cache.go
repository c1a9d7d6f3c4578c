package source

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/pierrec/lz4/v4"
)

// Cache entry layout: one flag byte, the uncompressed length as a
// little-endian uint32, then the payload.
const (
	cacheExt        = ".lz4"
	cacheHeaderSize = 5
	flagRaw         = 0
	flagLZ4         = 1
	cacheDirPerm    = 0o750
	cacheFilePerm   = 0o600
)

// ErrCorruptCache is returned when a cache entry cannot be decoded.
var ErrCorruptCache = errors.New("corrupt cache entry")

// CacheOptions configures a CachedSource.
type CacheOptions struct {
	Dir string
	// Namespace separates caches of different upstreams sharing one directory.
	Namespace string
	// TTL is the entry lifetime; <= 0 keeps entries forever.
	TTL time.Duration
	// MaxEntryBytes skips caching larger documents; 0 means no limit.
	MaxEntryBytes uint64
	Logger        *slog.Logger
}

// CachedSource keeps LZ4-compressed copies of fetched documents on disk.
type CachedSource struct {
	next   Fetcher
	opts   CacheOptions
	now    func() time.Time
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats counts cache lookups.
type CacheStats struct {
	Hits   int64
	Misses int64
}

// NewCachedSource caches documents of next as configured by opts.
func NewCachedSource(next Fetcher, opts CacheOptions) *CachedSource {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &CachedSource{
		next: next,
		opts: opts,
		now:  time.Now,
	}
}

// Fetch implements Fetcher.
func (c *CachedSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	path := c.path(name)

	body, err := c.read(path)
	if err == nil {
		c.hits.Add(1)
		c.opts.Logger.DebugContext(ctx, "cache hit", "document", name)

		return body, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		c.opts.Logger.WarnContext(ctx, "cache read failed", "document", name, "error", err)
	}

	c.misses.Add(1)

	body, err = c.next.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	if c.opts.MaxEntryBytes > 0 && uint64(len(body)) > c.opts.MaxEntryBytes {
		c.opts.Logger.DebugContext(ctx, "document too large to cache", "document", name, "bytes", len(body))

		return body, nil
	}

	writeErr := c.write(path, body)
	if writeErr != nil {
		c.opts.Logger.WarnContext(ctx, "cache write failed", "document", name, "error", writeErr)
	}

	return body, nil
}

// Stats returns the lookup counters since construction.
func (c *CachedSource) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Purge removes all cache entries.
func (c *CachedSource) Purge() error {
	matches, err := filepath.Glob(filepath.Join(c.opts.Dir, "*"+cacheExt))
	if err != nil {
		return fmt.Errorf("list cache: %w", err)
	}

	var errs []error
	for _, m := range matches {
		errs = append(errs, os.Remove(m))
	}

	return errors.Join(errs...)
}

// Forget removes the entry of one document.
func (c *CachedSource) Forget(name string) error {
	err := os.Remove(c.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cache entry: %w", err)
	}

	return nil
}

func (c *CachedSource) path(name string) string {
	sum := sha256.Sum256([]byte(c.opts.Namespace + "\x00" + name))

	return filepath.Join(c.opts.Dir, hex.EncodeToString(sum[:])+cacheExt)
}

func (c *CachedSource) read(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if c.opts.TTL > 0 && c.now().Sub(info.ModTime()) > c.opts.TTL {
		return nil, fs.ErrNotExist
	}

	entry, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return decodeEntry(entry)
}

func (c *CachedSource) write(path string, body []byte) error {
	entry, err := encodeEntry(body)
	if err != nil {
		return err
	}

	err = os.MkdirAll(c.opts.Dir, cacheDirPerm)
	if err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp := path + ".tmp"

	err = os.WriteFile(tmp, entry, cacheFilePerm)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	err = os.Rename(tmp, path)
	if err != nil {
		return fmt.Errorf("commit cache entry: %w", err)
	}

	return nil
}

// encodeEntry compresses body with LZ4, storing it raw when it does not
// compress.
func encodeEntry(body []byte) ([]byte, error) {
	if uint64(len(body)) > math.MaxUint32 {
		return nil, fmt.Errorf("document too large to cache: %d bytes", len(body))
	}

	entry := make([]byte, cacheHeaderSize+lz4.CompressBlockBound(len(body)))
	binary.LittleEndian.PutUint32(entry[1:cacheHeaderSize], uint32(len(body)))

	written, err := lz4.CompressBlock(body, entry[cacheHeaderSize:], nil)
	if err != nil || written == 0 || written >= len(body) {
		entry = entry[:cacheHeaderSize]
		entry[0] = flagRaw

		return append(entry, body...), nil
	}

	entry[0] = flagLZ4

	return entry[:cacheHeaderSize+written], nil
}

func decodeEntry(entry []byte) ([]byte, error) {
	if len(entry) < cacheHeaderSize {
		return nil, ErrCorruptCache
	}

	size := int(binary.LittleEndian.Uint32(entry[1:cacheHeaderSize]))
	payload := entry[cacheHeaderSize:]

	switch entry[0] {
	case flagRaw:
		if len(payload) != size {
			return nil, ErrCorruptCache
		}

		return payload, nil
	case flagLZ4:
		body := make([]byte, size)

		n, err := lz4.UncompressBlock(payload, body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptCache, err)
		}

		if n != size {
			return nil, ErrCorruptCache
		}

		return body, nil
	default:
		return nil, ErrCorruptCache
	}
}
