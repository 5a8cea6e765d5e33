package traversal

import (
	"encoding/json"
)

// Stat carries the raw file metadata attached to a fully-processed
// record. Ctime holds the file's birth time, 0 where the platform or
// filesystem reports none.
type Stat struct {
	Size  uint64  `json:"size"`
	Mtime float64 `json:"mtime"`
	Ctime float64 `json:"ctime"`
	Mode  uint32  `json:"mode"`
}

// Entry is one per-file record. Info is the kind-tagged payload with
// info["type"] one of "text", "binary", "excluded", or "error". Hash is a
// hex digest string, nil, or an embedded error object; it appears on the
// wire only when hashing was enabled for the run.
type Entry struct {
	Parent   string
	Filename string
	Info     map[string]any
	Stat     *Stat
	Hash     any

	hashPresent bool
}

// SetHash records the hash value and marks the key present on the wire
func (e *Entry) SetHash(value any) {
	e.Hash = value
	e.hashPresent = true
}

// HashPresent reports whether the record carries a hash key
func (e *Entry) HashPresent() bool { return e.hashPresent }

// InfoType returns info["type"], or "" for malformed records
func (e *Entry) InfoType() string {
	t, _ := e.Info["type"].(string)
	return t
}

// MarshalJSON renders the wire shape: parent, filename, info, stat when
// present, and hash when hashing was enabled.
func (e *Entry) MarshalJSON() ([]byte, error) {
	record := map[string]any{
		"parent":   e.Parent,
		"filename": e.Filename,
		"info":     e.Info,
	}
	if e.Stat != nil {
		record["stat"] = e.Stat
	}
	if e.hashPresent {
		record["hash"] = e.Hash
	}
	return json.Marshal(record)
}

// FailedFile identifies a per-file error surfaced in the summary
type FailedFile struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Summary is the terminal aggregate emitted once per run
type Summary struct {
	TotalFiles         int          `json:"total_files"`
	ExcludedFiles      int          `json:"excluded_files"`
	IncludedFiles      int          `json:"included_files"`
	ExcludedPercentage float64      `json:"excluded_percentage"`
	FailedFiles        []FailedFile `json:"failed_files"`
	StoppedEarly       bool         `json:"stopped_early"`
	ProcessedFiles     int          `json:"processed_files"`
	HashAlgorithm      string       `json:"hash_algorithm,omitempty"`
}

// Message is one pull from the stream: a batch of entries or the summary
type Message struct {
	Entries []*Entry `json:"entries,omitempty"`
	Summary *Summary `json:"summary,omitempty"`
}

// indexedEntry pairs a record with its walker submission index
type indexedEntry struct {
	index int
	entry *Entry
}

type streamItem struct {
	msg *Message
	err error
}
