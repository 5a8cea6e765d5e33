package traversal

import (
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/luricodes/samuraizer/internal/errors"
)

// aggregateEntries restores submission order, chunks records into batches,
// and emits the terminal summary. Workers may complete in any order; a
// pending map keyed by submission index holds records until the next
// contiguous run can be flushed.
//
// A refused send (consumer gone) flips the shared cancellation flag and
// returns ErrCancelled, which the driver treats as a clean stop.
func aggregateEntries(entryCh <-chan indexedEntry, out chan<- streamItem, done <-chan struct{}, opts *Options, included, excluded int, cancelled *atomic.Bool) error {
	chunk := make([]*Entry, 0, opts.ChunkSize)
	pending := make(map[int]*Entry)
	var failedFiles []FailedFile
	processed := 0
	nextIndex := 0

	send := func(entries []*Entry) error {
		item := streamItem{msg: &Message{Entries: entries}}
		select {
		case out <- item:
			return nil
		case <-done:
			cancelled.Store(true)
			return errors.ErrCancelled
		}
	}

	flushContiguous := func() error {
		for {
			entry, ok := pending[nextIndex]
			if !ok {
				return nil
			}
			delete(pending, nextIndex)
			nextIndex++
			chunk = append(chunk, entry)

			if len(chunk) >= opts.ChunkSize {
				toSend := chunk
				chunk = make([]*Entry, 0, opts.ChunkSize)
				if err := send(toSend); err != nil {
					return err
				}
			}
		}
	}

	for indexed := range entryCh {
		processed++

		entry := indexed.entry
		if entry.InfoType() == "error" && entry.Filename != "" {
			relative := entry.Filename
			if entry.Parent != "" {
				relative = filepath.Join(entry.Parent, entry.Filename)
			}
			message, _ := entry.Info["content"].(string)
			if message == "" {
				message = "Unknown error"
			}
			failedFiles = append(failedFiles, FailedFile{
				File:  filepath.Join(opts.Root, relative),
				Error: message,
			})
		}

		pending[indexed.index] = entry
		if err := flushContiguous(); err != nil {
			return err
		}
	}

	// Anything still pending was submitted after a gap left by cancelled
	// workers; flush it in index order.
	if len(pending) > 0 {
		indices := make([]int, 0, len(pending))
		for index := range pending {
			indices = append(indices, index)
		}
		sort.Ints(indices)
		for _, index := range indices {
			chunk = append(chunk, pending[index])
			if len(chunk) >= opts.ChunkSize {
				toSend := chunk
				chunk = make([]*Entry, 0, opts.ChunkSize)
				if err := send(toSend); err != nil {
					return err
				}
			}
		}
	}

	if len(chunk) > 0 {
		if err := send(chunk); err != nil {
			return err
		}
	}

	totalFiles := included + excluded
	excludedPercentage := 0.0
	if totalFiles > 0 {
		excludedPercentage = float64(excluded) / float64(totalFiles) * 100.0
	}

	summary := &Summary{
		TotalFiles:         totalFiles,
		ExcludedFiles:      excluded,
		IncludedFiles:      included,
		ExcludedPercentage: excludedPercentage,
		FailedFiles:        failedFiles,
		StoppedEarly:       cancelled.Load(),
		ProcessedFiles:     processed,
	}
	if opts.HashingEnabled {
		summary.HashAlgorithm = "xxhash"
	}
	if summary.FailedFiles == nil {
		summary.FailedFiles = []FailedFile{}
	}

	select {
	case out <- streamItem{msg: &Message{Summary: summary}}:
		return nil
	case <-done:
		cancelled.Store(true)
		return errors.ErrCancelled
	}
}
