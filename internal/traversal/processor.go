package traversal

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/luricodes/samuraizer/internal/content"
	"github.com/luricodes/samuraizer/internal/hashing"
	"github.com/luricodes/samuraizer/internal/mimeclass"
	"github.com/luricodes/samuraizer/pkg/pathutil"
)

// runProcessors drives the worker pool over the gathered worklist. Each
// record is handed off with its submission index through entryCh, which is
// closed once all workers drain. Workers poll the cancellation flag and
// the external token before starting each file; work already underway is
// allowed to finish so no torn records are emitted.
func runProcessors(ctx context.Context, opts *Options, files []string, entryCh chan<- indexedEntry, cancelled *atomic.Bool, done <-chan struct{}) {
	jobs := make(chan indexedEntryJob)

	var wg sync.WaitGroup
	for i := 0; i < opts.Threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if cancelled.Load() || ctx.Err() != nil {
					continue
				}
				if opts.cancelRequested() {
					cancelled.Store(true)
					continue
				}

				entry := processPath(job.path, opts)
				select {
				case entryCh <- indexedEntry{index: job.index, entry: entry}:
				case <-done:
					cancelled.Store(true)
				}
			}
		}()
	}

	for i, path := range files {
		if cancelled.Load() {
			break
		}
		jobs <- indexedEntryJob{index: i, path: path}
	}
	close(jobs)

	wg.Wait()
	close(entryCh)
}

type indexedEntryJob struct {
	index int
	path  string
}

// processPath runs the full per-file pipeline: stat, size gate,
// classification, preview, stamping, and hashing. Failures become error
// records; they never abort the run.
func processPath(path string, opts *Options) *Entry {
	parent := pathutil.ParentRelative(opts.Root, path)
	filename := filepath.Base(path)

	entry := &Entry{Parent: parent, Filename: filename}

	fileInfo, err := os.Stat(path)
	if err != nil {
		entry.Info = content.Info{
			"type":              "error",
			"content":           fmt.Sprintf("Failed to get file stats: %v", err),
			"exception_type":    "OSError",
			"exception_message": err.Error(),
		}
		return entry
	}

	size := uint64(fileInfo.Size())
	if size > opts.MaxFileSize {
		entry.Info = content.Info{
			"type":   "excluded",
			"reason": "file_size",
			"size":   size,
		}
		return entry
	}

	ext := strings.ToLower(filepath.Ext(path))
	isImage := ext != "" && opts.imageExts[ext]

	binary, err := mimeclass.IsBinary(path)
	if err != nil {
		entry.Info = content.Info{
			"type":              "error",
			"content":           fmt.Sprintf("Failed to classify file: %v", err),
			"exception_type":    "EngineError",
			"exception_message": err.Error(),
		}
		return entry
	}

	if (binary || isImage) && !opts.IncludeBinary {
		entry.Info = content.Info{
			"type":   "excluded",
			"reason": "binary_or_image",
		}
		return entry
	}

	maxPreview := int(min(opts.MaxFileSize, uint64(math.MaxInt)))
	var info content.Info
	if binary {
		info, err = content.ReadBinaryPreview(path, maxPreview)
		if err != nil {
			info = content.Info{
				"type":              "error",
				"content":           fmt.Sprintf("Failed to read binary file: %v", err),
				"exception_type":    "EngineError",
				"exception_message": err.Error(),
			}
		}
	} else {
		info, err = content.ReadTextPreview(path, maxPreview, opts.Encoding)
		if err != nil {
			info = content.Info{
				"type":              "error",
				"content":           fmt.Sprintf("Failed to read text file: %v", err),
				"exception_type":    "EngineError",
				"exception_message": err.Error(),
			}
		}
	}

	mtime, mode := statNumbers(fileInfo)
	created := birthTime(path, fileInfo)
	stampInfo(info, opts, size, mode, fileInfo, created)
	entry.Info = info
	entry.Stat = &Stat{Size: size, Mtime: mtime, Ctime: created, Mode: mode}

	if opts.HashingEnabled {
		digest, err := hashing.ComputeFileHash(path)
		switch {
		case err != nil:
			entry.SetHash(content.Info{
				"type":    "error",
				"content": fmt.Sprintf("Failed to compute hash: %v", err),
			})
		case digest == nil:
			entry.SetHash(nil)
		default:
			entry.SetHash(*digest)
		}
	}

	return entry
}

// stampInfo appends the shared metadata fields to a preview or embedded
// error object. A zero birth time renders as created: null.
func stampInfo(info content.Info, opts *Options, size uint64, mode uint32, fileInfo os.FileInfo, birth float64) {
	info["size"] = size
	info["permissions"] = fmt.Sprintf("0o%o", mode)
	info["timezone"] = opts.Timezone.Label()

	info["modified"] = opts.Timezone.Format(fileInfo.ModTime())
	if created := opts.Timezone.FormatUnix(birth); created != nil {
		info["created"] = *created
	} else {
		info["created"] = nil
	}
}
