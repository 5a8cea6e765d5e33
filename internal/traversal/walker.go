package traversal

import (
	"context"
	"os"
	"path/filepath"

	"github.com/luricodes/samuraizer/internal/logging"
)

// gatherResult is the walker's output: the ordered worklist plus the
// walker-side inclusion counters.
type gatherResult struct {
	files     []string
	included  int
	excluded  int
	cancelled bool
}

// gatherer performs a depth-first walk of the root, assigning each
// surviving regular file its submission index by append order. Directory
// entries are visited in lexicographic order within each parent, so the
// worklist order is deterministic.
type gatherer struct {
	ctx     context.Context
	opts    *Options
	result  gatherResult
	visited map[string]bool
}

func gatherFiles(ctx context.Context, opts *Options) gatherResult {
	g := &gatherer{ctx: ctx, opts: opts}
	if opts.FollowSymlinks {
		g.visited = make(map[string]bool)
	}

	root := opts.Root
	if g.checkCancelled() {
		return g.result
	}
	if g.dirExcluded(filepath.Base(root)) {
		return g.result
	}
	g.walkDir(root)
	return g.result
}

// checkCancelled polls the external token and the context once per entry
func (g *gatherer) checkCancelled() bool {
	if g.result.cancelled {
		return true
	}
	select {
	case <-g.ctx.Done():
		g.result.cancelled = true
		return true
	default:
	}
	if g.opts.cancelRequested() {
		g.result.cancelled = true
		return true
	}
	return false
}

func (g *gatherer) dirExcluded(name string) bool {
	return g.opts.excludedFolders[name] || matchesPatterns(name, g.opts.ExcludePatterns)
}

func (g *gatherer) fileExcluded(name string) bool {
	return g.opts.excludedFiles[name] || matchesPatterns(name, g.opts.ExcludePatterns)
}

// markVisited records the directory's resolved path when following
// symlinks and reports whether it was seen before, suppressing loops.
func (g *gatherer) markVisited(dir string) (alreadySeen bool) {
	if g.visited == nil {
		return false
	}
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return true
	}
	if g.visited[real] {
		return true
	}
	g.visited[real] = true
	return false
}

func (g *gatherer) walkDir(dir string) {
	if g.markVisited(dir) {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable directories are skipped, not fatal
		g.opts.Logger.Debug("skipping unreadable directory",
			logging.String("dir", dir), logging.Error(err))
		return
	}

	for _, entry := range entries {
		if g.checkCancelled() {
			return
		}

		path := filepath.Join(dir, entry.Name())
		isDir := entry.IsDir()
		isFile := entry.Type().IsRegular()

		if entry.Type()&os.ModeSymlink != 0 {
			if !g.opts.FollowSymlinks {
				continue
			}
			target, err := os.Stat(path)
			if err != nil {
				continue
			}
			isDir = target.IsDir()
			isFile = target.Mode().IsRegular()
		}

		switch {
		case isDir:
			if g.dirExcluded(entry.Name()) {
				continue
			}
			g.walkDir(path)
			if g.result.cancelled {
				return
			}
		case isFile:
			if g.fileExcluded(entry.Name()) {
				g.result.excluded++
				continue
			}
			g.result.included++
			g.result.files = append(g.result.files, path)
		default:
			// Sockets, devices, pipes and dangling links are ignored
		}
	}
}
