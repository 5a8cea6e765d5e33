// Package mimeclass decides whether a file is text or binary.
//
// Classification runs a short-circuit cascade: extension tables, a
// byte-histogram heuristic over a bounded sample, magic-number sniffing,
// then a path-based MIME guess. Results are memoised by (path, size,
// mtime) so repeated classification of an unchanged file costs one stat
// and no content read.
package mimeclass

import (
	"bytes"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/luricodes/samuraizer/internal/errors"
)

const (
	heuristicSampleSize = 8192
	statCacheCapacity   = 4096
)

// statKey identifies a file revision for memoisation
type statKey struct {
	path    string
	size    int64
	mtimeNs int64
}

// Classifier decides text vs. binary with a bounded stat-keyed cache.
// Safe for concurrent use; the cache lock is never held across I/O.
type Classifier struct {
	cache *lru.Cache[statKey, bool]
}

// defaultClassifier backs the package-level entry point so all callers in
// one process share a single memoisation cache.
var defaultClassifier = New()

// IsBinary classifies path using the shared process-wide classifier
func IsBinary(path string) (bool, error) {
	return defaultClassifier.IsBinary(path)
}

// New creates a classifier with the default cache capacity
func New() *Classifier {
	cache, _ := lru.New[statKey, bool](statCacheCapacity)
	return &Classifier{cache: cache}
}

// IsBinary reports whether the file at path holds binary content.
// A stat failure bypasses the cache and classification proceeds uncached.
func (c *Classifier) IsBinary(path string) (bool, error) {
	key, ok := c.statKeyFor(path)
	if !ok {
		return classifyUncached(path)
	}
	if result, hit := c.cache.Get(key); hit {
		return result, nil
	}
	result, err := classifyUncached(path)
	if err != nil {
		return false, err
	}
	c.cache.Add(key, result)
	return result, nil
}

func (c *Classifier) statKeyFor(path string) (statKey, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return statKey{}, false
	}
	return statKey{
		path:    path,
		size:    info.Size(),
		mtimeNs: info.ModTime().UnixNano(),
	}, true
}

func classifyUncached(path string) (bool, error) {
	if result, ok := classifyByExtension(path); ok {
		return result, nil
	}

	sample, err := readFileSample(path, heuristicSampleSize)
	if err != nil {
		return false, err
	}
	if result, ok := analyseSample(sample); ok {
		return result, nil
	}
	if result, ok := detectByMagic(sample); ok {
		return result, nil
	}
	if result, ok := detectByPath(path); ok {
		return result, nil
	}
	return false, nil
}

func classifyByExtension(path string) (binary, ok bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false, false
	}
	if textualExtensions[ext] {
		return false, true
	}
	if binaryExtensions[ext] {
		return true, true
	}
	return false, false
}

func readFileSample(path string, sampleSize int) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.IO(path, err)
	}
	defer file.Close()

	buf := make([]byte, sampleSize)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, errors.IO(path, err)
	}
	return buf[:n], nil
}

// safe control bytes: TAB, LF, FF, CR
func isSafeControl(b byte) bool {
	return b == 9 || b == 10 || b == 12 || b == 13
}

func printableRatio(sample []byte) (printable, control, nul float64) {
	if len(sample) == 0 {
		return 1.0, 0.0, 0.0
	}
	var printableN, controlN, nulN int
	for _, b := range sample {
		if b == 0 {
			nulN++
		}
		if b < 32 && !isSafeControl(b) {
			controlN++
		}
		if (b >= 32 && b <= 126) || isSafeControl(b) {
			printableN++
		}
	}
	total := float64(len(sample))
	return float64(printableN) / total, float64(controlN) / total, float64(nulN) / total
}

func analyseSample(sample []byte) (binary, ok bool) {
	printable, control, nul := printableRatio(sample)
	if nul > 0 {
		if nul >= 0.001 || bytes.Contains(sample, []byte{0, 0}) {
			return true, true
		}
	}
	if control > 0.10 && printable < 0.9 {
		return true, true
	}
	if printable >= 0.95 && control <= 0.02 {
		return false, true
	}
	if printable <= 0.60 {
		return true, true
	}
	return false, false
}

// detectByMagic sniffs well-known file-format signatures from the sample
func detectByMagic(sample []byte) (binary, ok bool) {
	if len(sample) == 0 {
		return false, false
	}
	kind := mimetype.Detect(sample)
	return classifyMIMEType(kind.String())
}

// detectByPath consults the platform MIME table for the file's extension
func detectByPath(path string) (binary, ok bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return false, false
	}
	guess := mime.TypeByExtension(ext)
	if guess == "" {
		return false, false
	}
	if idx := strings.IndexByte(guess, ';'); idx >= 0 {
		guess = strings.TrimSpace(guess[:idx])
	}
	return classifyMIMEType(guess)
}

func mimeImpliesText(mimeType string) bool {
	if textualMIMETypes[mimeType] {
		return true
	}
	for _, prefix := range textualMIMEPrefixes {
		if strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	return false
}

func classifyMIMEType(mimeType string) (binary, ok bool) {
	if mimeImpliesText(mimeType) {
		return false, true
	}
	if mimeType == "application/octet-stream" {
		return false, false
	}
	return true, true
}
