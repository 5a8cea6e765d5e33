// Package traversal walks a directory tree, classifies and previews each
// regular file, and streams ordered batches of records to a consumer.
//
// One walker enumerates candidate paths in deterministic order, a pool of
// workers runs the per-file pipeline, and an aggregator restores
// submission order before batching. All hand-offs use bounded channels so
// a slow consumer applies back-pressure end to end. Cancellation is
// cooperative: an external token, the context, or closing the stream all
// stop the run cleanly and still produce a summary.
package traversal

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/luricodes/samuraizer/internal/errors"
	"github.com/luricodes/samuraizer/internal/logging"
)

// Stream is the consumer's lazy handle over a running traversal
type Stream struct {
	items <-chan streamItem
	done  chan struct{}

	closeOnce sync.Once
	finished  bool
}

// Next blocks for the next message: a batch of entries or the terminal
// summary. After the summary (or a terminal error) it returns io.EOF.
func (s *Stream) Next() (*Message, error) {
	if s.finished {
		return nil, io.EOF
	}

	item, ok := <-s.items
	if !ok {
		s.finished = true
		return nil, io.EOF
	}
	if item.err != nil {
		s.finished = true
		return nil, item.err
	}
	if item.msg.Summary != nil {
		s.finished = true
	}
	return item.msg, nil
}

// Close signals that the consumer is done. The running pipeline observes
// the disconnect as a cancellation; Close never blocks and is safe to
// call more than once.
func (s *Stream) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Traverse starts a traversal over opts.Root and returns the stream
// handle. The walk, the processor pool, and the aggregator all run on
// background goroutines owned by the returned stream.
func Traverse(ctx context.Context, opts Options) (*Stream, error) {
	if opts.Root == "" {
		return nil, errors.Other("traversal root must not be empty")
	}
	opts.normalize()

	items := make(chan streamItem, opts.ChunkSize*4)
	done := make(chan struct{})
	stream := &Stream{items: items, done: done}

	go func() {
		defer close(items)
		if err := runTraversal(ctx, &opts, items, done); err != nil && !errors.IsCancelled(err) {
			select {
			case items <- streamItem{err: err}:
			case <-done:
			}
		}
	}()

	return stream, nil
}

func runTraversal(ctx context.Context, opts *Options, items chan<- streamItem, done <-chan struct{}) error {
	gather := gatherFiles(ctx, opts)
	opts.Logger.Debug("walk complete",
		logging.Int("included", gather.included),
		logging.Int("excluded", gather.excluded),
		logging.Bool("cancelled", gather.cancelled))

	cancelled := &atomic.Bool{}
	cancelled.Store(gather.cancelled)

	entryCh := make(chan indexedEntry, opts.Threads*4)

	var g errgroup.Group
	g.Go(func() error {
		return aggregateEntries(entryCh, items, done, opts, gather.included, gather.excluded, cancelled)
	})
	g.Go(func() error {
		runProcessors(ctx, opts, gather.files, entryCh, cancelled, done)
		return nil
	})
	return g.Wait()
}
