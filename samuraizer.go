// Package samuraizer is a filesystem traversal and content-inspection
// engine. It walks a directory tree, classifies each regular file as text
// or binary, extracts a bounded content preview with a detected character
// encoding, fingerprints the content with xxHash64, and streams ordered
// batches of structured records followed by an aggregate summary.
//
// The package re-exports the engine's host-facing operations; the
// concurrent pipeline itself lives in internal/traversal.
package samuraizer

import (
	"context"

	"github.com/luricodes/samuraizer/internal/cache"
	"github.com/luricodes/samuraizer/internal/content"
	"github.com/luricodes/samuraizer/internal/hashing"
	"github.com/luricodes/samuraizer/internal/mimeclass"
	"github.com/luricodes/samuraizer/internal/traversal"
)

// Re-exported traversal types
type (
	// Options configures a traversal run; see NewOptions for defaults.
	Options = traversal.Options
	// Stream is the consumer's lazy handle over a running traversal.
	Stream = traversal.Stream
	// Message is one pull from the stream.
	Message = traversal.Message
	// Entry is one per-file record.
	Entry = traversal.Entry
	// Summary is the terminal aggregate of a run.
	Summary = traversal.Summary
	// Token is the external cancellation token polled by the pipeline.
	Token = traversal.Token
	// TokenFunc adapts a plain function to a Token.
	TokenFunc = traversal.TokenFunc
	// CacheEntry is a stored per-path fingerprint.
	CacheEntry = cache.Entry
)

// NewOptions returns traversal options with the engine defaults
func NewOptions(root string) Options {
	return traversal.NewOptions(root)
}

// CompilePatterns builds exclusion matchers from raw pattern strings; a
// "regex:" prefix selects regular-expression syntax, anything else is a
// glob. Unparseable patterns are dropped.
func CompilePatterns(patterns []string) []traversal.PatternMatcher {
	return traversal.CompilePatterns(patterns)
}

// ComputeHash fingerprints the file at path with xxHash64, returning a
// 16-hex-digit string, or nil when the file does not exist.
func ComputeHash(path string) (*string, error) {
	return hashing.ComputeFileHash(path)
}

// ClassifyBinary reports whether the file at path holds binary content
func ClassifyBinary(path string) (bool, error) {
	return mimeclass.IsBinary(path)
}

// ReadTextPreview returns a bounded decoded text preview of path. The
// encoding label is honored when recognised; pass "" to auto-detect.
func ReadTextPreview(path string, maxBytes int, encoding string) (map[string]any, error) {
	return content.ReadTextPreview(path, maxBytes, encoding)
}

// ReadBinaryPreview returns a bounded base64 preview of path
func ReadBinaryPreview(path string, maxBytes int) (map[string]any, error) {
	return content.ReadBinaryPreview(path, maxBytes)
}

// Traverse starts a traversal and returns the batched record stream
func Traverse(ctx context.Context, opts Options) (*Stream, error) {
	return traversal.Traverse(ctx, opts)
}

// CacheGet returns the stored fingerprint for filePath from the cache
// database at dbPath, or nil when absent.
func CacheGet(dbPath, filePath string) (*CacheEntry, error) {
	return cache.GetEntry(dbPath, filePath)
}

// CacheSet upserts the fingerprint for filePath in the cache database at
// dbPath. The synchronous flag requests an fsync before returning.
func CacheSet(dbPath, filePath string, fileHash *string, fileInfo any, size int64, mtime float64, synchronous bool) error {
	return cache.SetEntry(dbPath, filePath, fileHash, fileInfo, size, mtime, synchronous)
}
