package traversal

import (
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/luricodes/samuraizer/internal/logging"
)

// Default option values applied by normalize
const (
	defaultChunkSize = 256
)

// Token is polled cooperatively by the walker and the processor pool.
// Implementations must be safe to call from multiple goroutines.
type Token interface {
	IsCancelled() bool
}

// TokenFunc adapts a plain function to a Token
type TokenFunc func() bool

// IsCancelled implements Token
func (f TokenFunc) IsCancelled() bool { return f() }

// Options configures a traversal run. Create with NewOptions and adjust
// fields before calling Traverse; the value is immutable once the run
// starts.
type Options struct {
	// Root is the absolute base directory of the walk.
	Root string

	// MaxFileSize is the byte ceiling; larger files yield an excluded
	// record with reason "file_size".
	MaxFileSize uint64

	// IncludeBinary keeps binary and image files in the output. When
	// false they are excluded with reason "binary_or_image".
	IncludeBinary bool

	// ImageExtensions holds lowercased dot-prefixed suffixes treated as
	// images regardless of content classification.
	ImageExtensions []string

	// ExcludedFolders and ExcludedFiles match directory and file
	// basenames exactly.
	ExcludedFolders []string
	ExcludedFiles   []string

	// ExcludePatterns are compiled matchers applied to basenames.
	ExcludePatterns []PatternMatcher

	FollowSymlinks bool

	// Threads is the processor pool size, at least 1.
	Threads int

	// Encoding forces a character encoding for text previews when the
	// label is recognised.
	Encoding string

	HashingEnabled bool

	// ChunkSize is the number of records per emitted batch, at least 1.
	ChunkSize int

	// Cancellation is an optional external token; nil means the run can
	// only be stopped by the context or by closing the stream.
	Cancellation Token

	// Timezone governs how modification and creation times are rendered.
	Timezone *TimezoneInfo

	// Logger receives pipeline diagnostics; nil means no logging.
	Logger *logging.Logger

	imageExts       map[string]bool
	excludedFolders map[string]bool
	excludedFiles   map[string]bool
}

// NewOptions returns options with the engine defaults for root
func NewOptions(root string) Options {
	return Options{
		Root:           root,
		MaxFileSize:    math.MaxUint,
		IncludeBinary:  true,
		Threads:        max(runtime.NumCPU(), 1),
		HashingEnabled: true,
		ChunkSize:      defaultChunkSize,
		Timezone:       LocalTimezone(),
	}
}

func (o *Options) normalize() {
	if o.Threads < 1 {
		o.Threads = max(runtime.NumCPU(), 1)
	}
	if o.ChunkSize < 1 {
		o.ChunkSize = defaultChunkSize
	}
	if o.MaxFileSize > math.MaxUint {
		o.MaxFileSize = math.MaxUint
	}
	if o.Timezone == nil {
		o.Timezone = LocalTimezone()
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}

	o.imageExts = make(map[string]bool, len(o.ImageExtensions))
	for _, ext := range o.ImageExtensions {
		o.imageExts[strings.ToLower(ext)] = true
	}
	o.excludedFolders = toSet(o.ExcludedFolders)
	o.excludedFiles = toSet(o.ExcludedFiles)
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

func (o *Options) cancelRequested() bool {
	return o.Cancellation != nil && o.Cancellation.IsCancelled()
}

// TimezoneInfo renders timestamps as RFC-3339 strings with millisecond
// precision in a fixed zone.
type TimezoneInfo struct {
	loc   *time.Location
	label string
}

// UTCTimezone renders timestamps in UTC with the label "UTC"
func UTCTimezone() *TimezoneInfo {
	return &TimezoneInfo{loc: time.UTC, label: "UTC"}
}

// NamedTimezone renders timestamps in an IANA zone; the label is the name
func NamedTimezone(name string) (*TimezoneInfo, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	return &TimezoneInfo{loc: loc, label: name}, nil
}

// LocalTimezone renders timestamps in the system zone with a best-effort
// abbreviation label, falling back to the numeric offset.
func LocalTimezone() *TimezoneInfo {
	now := time.Now()
	label, _ := now.Zone()
	if strings.TrimSpace(label) == "" {
		label = now.Format("-07:00")
	}
	return &TimezoneInfo{loc: time.Local, label: label}
}

// Label returns the zone label stamped into records
func (tz *TimezoneInfo) Label() string { return tz.label }

// Format renders t in the configured zone
func (tz *TimezoneInfo) Format(t time.Time) string {
	return t.In(tz.loc).Format("2006-01-02T15:04:05.000Z07:00")
}

// FormatUnix renders fractional epoch seconds, or nil for the zero value
func (tz *TimezoneInfo) FormatUnix(seconds float64) *string {
	if seconds == 0 {
		return nil
	}
	formatted := tz.Format(time.Unix(0, int64(seconds*1e9)))
	return &formatted
}
