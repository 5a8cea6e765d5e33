package traversal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectAll drains the stream and returns every entry plus the summary
func collectAll(t *testing.T, stream *Stream) ([]*Entry, *Summary) {
	t.Helper()
	var entries []*Entry
	var summary *Summary

	for {
		msg, err := stream.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		if msg.Summary != nil {
			require.Nil(t, summary, "summary must be terminal and unique")
			summary = msg.Summary
			continue
		}
		require.Nil(t, summary, "no batches may follow the summary")
		entries = append(entries, msg.Entries...)
	}

	require.NotNil(t, summary)
	return entries, summary
}

func TestTraverseAllTextTree(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":    "hello",
		"sub/b.md": "# h",
	})

	opts := NewOptions(root)
	stream, err := Traverse(context.Background(), opts)
	require.NoError(t, err)
	defer stream.Close()

	entries, summary := collectAll(t, stream)
	require.Len(t, entries, 2)

	byName := map[string]*Entry{}
	for _, entry := range entries {
		byName[entry.Filename] = entry
	}

	a := byName["a.txt"]
	require.NotNil(t, a)
	assert.Equal(t, "", a.Parent)
	assert.Equal(t, "text", a.InfoType())
	assert.Equal(t, "hello", a.Info["content"])

	b := byName["b.md"]
	require.NotNil(t, b)
	assert.Equal(t, "sub", b.Parent)
	assert.Equal(t, "text", b.InfoType())
	assert.Equal(t, "# h", b.Info["content"])

	assert.Equal(t, 2, summary.TotalFiles)
	assert.Equal(t, 2, summary.IncludedFiles)
	assert.Equal(t, 0, summary.ExcludedFiles)
	assert.Equal(t, 2, summary.ProcessedFiles)
	assert.Empty(t, summary.FailedFiles)
	assert.False(t, summary.StoppedEarly)
	assert.Equal(t, "xxhash", summary.HashAlgorithm)
}

func TestTraverseExcludedFolderNotCounted(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"node_modules/x.js": "x",
		"main.py":           "print()",
	})

	opts := NewOptions(root)
	opts.ExcludedFolders = []string{"node_modules"}

	stream, err := Traverse(context.Background(), opts)
	require.NoError(t, err)
	defer stream.Close()

	entries, summary := collectAll(t, stream)
	require.Len(t, entries, 1)
	assert.Equal(t, "main.py", entries[0].Filename)

	assert.Equal(t, 1, summary.TotalFiles)
	assert.Equal(t, 1, summary.IncludedFiles)
	assert.Equal(t, 0, summary.ExcludedFiles)
}

func TestTraverseBinaryExcludedWhenNotIncluded(t *testing.T) {
	root := t.TempDir()
	noisy := make([]byte, 2048)
	for i := range noisy {
		noisy[i] = byte(i % 256)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.dat"), noisy, 0o644))

	opts := NewOptions(root)
	opts.IncludeBinary = false

	stream, err := Traverse(context.Background(), opts)
	require.NoError(t, err)
	defer stream.Close()

	entries, summary := collectAll(t, stream)
	require.Len(t, entries, 1)

	assert.Equal(t, "excluded", entries[0].InfoType())
	assert.Equal(t, "binary_or_image", entries[0].Info["reason"])
	assert.Equal(t, 1, summary.ProcessedFiles)
}

func TestTraverseImageExcludedWhenNotIncluded(t *testing.T) {
	root := t.TempDir()
	// Plain text content, but the extension is declared an image
	writeTree(t, root, map[string]string{"diagram.svg": "<svg/>"})

	opts := NewOptions(root)
	opts.IncludeBinary = false
	opts.ImageExtensions = []string{".svg"}

	stream, err := Traverse(context.Background(), opts)
	require.NoError(t, err)
	defer stream.Close()

	entries, _ := collectAll(t, stream)
	require.Len(t, entries, 1)
	assert.Equal(t, "excluded", entries[0].InfoType())
	assert.Equal(t, "binary_or_image", entries[0].Info["reason"])
}

func TestTraverseForcedEncoding(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "legacy.txt"), []byte{0xA3, 0xA4}, 0o644))

	opts := NewOptions(root)
	opts.Encoding = "windows-1252"

	stream, err := Traverse(context.Background(), opts)
	require.NoError(t, err)
	defer stream.Close()

	entries, _ := collectAll(t, stream)
	require.Len(t, entries, 1)
	assert.Equal(t, "£¤", entries[0].Info["content"])
	assert.Equal(t, "windows-1252", entries[0].Info["encoding"])
}

func TestTraverseMaxFileSizeExclusion(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"small.txt": "ok",
		"large.txt": "this one is too big",
	})

	opts := NewOptions(root)
	opts.MaxFileSize = 10

	stream, err := Traverse(context.Background(), opts)
	require.NoError(t, err)
	defer stream.Close()

	entries, summary := collectAll(t, stream)
	require.Len(t, entries, 2)

	byName := map[string]*Entry{}
	for _, entry := range entries {
		byName[entry.Filename] = entry
	}

	large := byName["large.txt"]
	require.NotNil(t, large)
	assert.Equal(t, "excluded", large.InfoType())
	assert.Equal(t, "file_size", large.Info["reason"])
	assert.Nil(t, large.Stat)

	small := byName["small.txt"]
	require.NotNil(t, small)
	assert.Equal(t, "text", small.InfoType())

	assert.Equal(t, 2, summary.ProcessedFiles)
}

func TestTraverseOrderingUnderParallelism(t *testing.T) {
	root := t.TempDir()
	expected := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		name := fmt.Sprintf("f%04d.txt", i)
		expected = append(expected, name)
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}
	sort.Strings(expected)

	opts := NewOptions(root)
	opts.Threads = 16
	opts.ChunkSize = 100

	stream, err := Traverse(context.Background(), opts)
	require.NoError(t, err)
	defer stream.Close()

	entries, summary := collectAll(t, stream)
	require.Len(t, entries, 1000)

	got := make([]string, 0, len(entries))
	for _, entry := range entries {
		got = append(got, entry.Filename)
	}
	assert.Equal(t, expected, got)
	assert.Equal(t, 1000, summary.ProcessedFiles)
}

func TestTraverseCancelledBeforeStart(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a", "b.txt": "b"})

	opts := NewOptions(root)
	opts.Cancellation = TokenFunc(func() bool { return true })

	stream, err := Traverse(context.Background(), opts)
	require.NoError(t, err)
	defer stream.Close()

	entries, summary := collectAll(t, stream)
	assert.Empty(t, entries)
	assert.True(t, summary.StoppedEarly)
	assert.Equal(t, 0, summary.ProcessedFiles)
	assert.Empty(t, summary.FailedFiles)
}

func TestTraverseCancelledMidRun(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 1000; i++ {
		name := fmt.Sprintf("f%04d.txt", i)
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}

	var flag atomic.Bool

	opts := NewOptions(root)
	opts.Threads = 2
	opts.ChunkSize = 5
	opts.Cancellation = TokenFunc(flag.Load)

	stream, err := Traverse(context.Background(), opts)
	require.NoError(t, err)
	defer stream.Close()

	// Consume the first batch, then flip the token
	first, err := stream.Next()
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NotEmpty(t, first.Entries)
	flag.Store(true)

	sawSummary := false
	for {
		msg, err := stream.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if msg.Summary != nil {
			sawSummary = true
			assert.True(t, msg.Summary.StoppedEarly)
			assert.Less(t, msg.Summary.ProcessedFiles, 1000)
		}
	}
	assert.True(t, sawSummary)
}

func TestTraverseConsumerDisconnect(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 500; i++ {
		name := fmt.Sprintf("f%04d.txt", i)
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}

	opts := NewOptions(root)
	opts.Threads = 2
	opts.ChunkSize = 2

	stream, err := Traverse(context.Background(), opts)
	require.NoError(t, err)

	msg, err := stream.Next()
	require.NoError(t, err)
	require.NotNil(t, msg)

	// Dropping the stream cancels the pipeline; Close never blocks
	stream.Close()
}

func TestTraverseStatFailureBecomesErrorRecord(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"ok.txt": "fine"})

	opts := NewOptions(root)
	opts.normalize()

	// Process a path the walker never yielded: it vanished before stat
	entry := processPath(filepath.Join(root, "vanished.txt"), &opts)
	assert.Equal(t, "error", entry.InfoType())
	assert.Equal(t, "OSError", entry.Info["exception_type"])
	assert.Contains(t, entry.Info["content"], "Failed to get file stats")
	assert.Nil(t, entry.Stat)
	assert.False(t, entry.HashPresent())
}

func TestTraverseFailedFilesInSummary(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"sub/gone.txt": "x"})

	opts := NewOptions(root)
	opts.normalize()

	cancelled := &atomic.Bool{}
	entryCh := make(chan indexedEntry, 1)
	items := make(chan streamItem, 8)
	done := make(chan struct{})

	path := filepath.Join(root, "sub", "gone.txt")
	require.NoError(t, os.Remove(path))
	entryCh <- indexedEntry{index: 0, entry: processPath(path, &opts)}
	close(entryCh)

	require.NoError(t, aggregateEntries(entryCh, items, done, &opts, 1, 0, cancelled))
	close(items)

	var summary *Summary
	for item := range items {
		if item.msg != nil && item.msg.Summary != nil {
			summary = item.msg.Summary
		}
	}
	require.NotNil(t, summary)
	require.Len(t, summary.FailedFiles, 1)
	assert.Equal(t, path, summary.FailedFiles[0].File)
	assert.Contains(t, summary.FailedFiles[0].Error, "Failed to get file stats")
}

func TestTraverseRecordStamping(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"doc.txt": "content"})

	opts := NewOptions(root)
	opts.Timezone = UTCTimezone()

	stream, err := Traverse(context.Background(), opts)
	require.NoError(t, err)
	defer stream.Close()

	entries, _ := collectAll(t, stream)
	require.Len(t, entries, 1)
	entry := entries[0]

	require.NotNil(t, entry.Stat)
	assert.Equal(t, uint64(7), entry.Stat.Size)
	assert.Greater(t, entry.Stat.Mtime, 0.0)

	assert.Equal(t, uint64(7), entry.Info["size"])
	assert.Equal(t, "UTC", entry.Info["timezone"])
	modified, ok := entry.Info["modified"].(string)
	require.True(t, ok)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, modified)

	permissions, ok := entry.Info["permissions"].(string)
	require.True(t, ok)
	assert.Contains(t, permissions, "0o")

	require.True(t, entry.HashPresent())
	digest, ok := entry.Hash.(string)
	require.True(t, ok)
	assert.Len(t, digest, 16)
}

func TestTraverseCreatedIsBirthTime(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"fresh.txt": "f"})

	opts := NewOptions(root)
	opts.Timezone = UTCTimezone()

	stream, err := Traverse(context.Background(), opts)
	require.NoError(t, err)
	defer stream.Close()

	entries, _ := collectAll(t, stream)
	require.Len(t, entries, 1)
	entry := entries[0]
	require.NotNil(t, entry.Stat)

	if entry.Stat.Ctime == 0 {
		// Filesystems without birth-time support report created: null
		assert.Nil(t, entry.Info["created"])
		return
	}

	created, ok := entry.Info["created"].(string)
	require.True(t, ok)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, created)

	// A file written moments ago was also born moments ago; its birth
	// time cannot trail the mtime by more than clock noise, and a chmod
	// must not move it (unlike the inode change time).
	require.NoError(t, os.Chmod(filepath.Join(root, "fresh.txt"), 0o600))

	stream2, err := Traverse(context.Background(), opts)
	require.NoError(t, err)
	defer stream2.Close()

	entries2, _ := collectAll(t, stream2)
	require.Len(t, entries2, 1)

	assert.InDelta(t, entry.Stat.Mtime, entry.Stat.Ctime, 5.0)
	assert.Equal(t, entry.Stat.Ctime, entries2[0].Stat.Ctime)
	assert.Equal(t, created, entries2[0].Info["created"])
}

func TestTraverseHashingDisabled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"doc.txt": "content"})

	opts := NewOptions(root)
	opts.HashingEnabled = false

	stream, err := Traverse(context.Background(), opts)
	require.NoError(t, err)
	defer stream.Close()

	entries, summary := collectAll(t, stream)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].HashPresent())
	assert.Empty(t, summary.HashAlgorithm)

	raw, err := json.Marshal(entries[0])
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotContains(t, decoded, "hash")
}

func TestEntryMarshalShape(t *testing.T) {
	entry := &Entry{
		Parent:   "sub",
		Filename: "a.txt",
		Info:     map[string]any{"type": "text", "content": "x"},
		Stat:     &Stat{Size: 1, Mtime: 2.5, Ctime: 2.5, Mode: 0o644},
	}
	entry.SetHash("ef46db3751d8e999")

	raw, err := json.Marshal(entry)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "sub", decoded["parent"])
	assert.Equal(t, "a.txt", decoded["filename"])
	assert.Equal(t, "ef46db3751d8e999", decoded["hash"])
	assert.Contains(t, decoded, "stat")
	assert.Contains(t, decoded, "info")
}

func TestEntryMarshalNullHash(t *testing.T) {
	entry := &Entry{Parent: "", Filename: "b", Info: map[string]any{"type": "text"}}
	entry.SetHash(nil)

	raw, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"hash":null`)
}

func TestSummaryInvariants(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":      "a",
		"b.txt":      "b",
		"skip.me":    "s",
		"sub/c.toml": "c = 1",
	})

	opts := NewOptions(root)
	opts.ExcludedFiles = []string{"skip.me"}

	stream, err := Traverse(context.Background(), opts)
	require.NoError(t, err)
	defer stream.Close()

	entries, summary := collectAll(t, stream)

	assert.Equal(t, summary.TotalFiles, summary.IncludedFiles+summary.ExcludedFiles)
	assert.Equal(t, 4, summary.TotalFiles)
	assert.Equal(t, 1, summary.ExcludedFiles)
	assert.Equal(t, 25.0, summary.ExcludedPercentage)
	assert.LessOrEqual(t, summary.ProcessedFiles, summary.TotalFiles+len(summary.FailedFiles))
	assert.Len(t, entries, 3)

	for _, entry := range entries {
		assert.Contains(t, []string{"text", "binary", "excluded", "error"}, entry.InfoType())
	}
}
