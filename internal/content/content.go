// Package content produces bounded preview records for regular files.
//
// A preview is either a base64-encoded binary prefix or a decoded text
// prefix with its detected character encoding. Previews are read in fixed
// chunks so large files never load fully into memory.
package content

import (
	"encoding/base64"
	"io"
	"os"

	"github.com/luricodes/samuraizer/internal/errors"
)

const (
	streamChunkSize       = 256 * 1024
	maxBinaryContentBytes = 3 * 1024 * 1024
	maxTextContentBytes   = 5 * 1024 * 1024
	encodingSampleBytes   = 512 * 1024
)

// Info is the kind-tagged preview record. The "type" key is always one of
// "text", "binary", "excluded", or "error".
type Info = map[string]any

// ReadBinaryPreview reads up to maxPreviewBytes of the file and encodes the
// prefix as base64. Files larger than maxPreviewBytes are excluded outright.
func ReadBinaryPreview(path string, maxPreviewBytes int) (Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.IO(path, err)
	}
	fileSize := int(stat.Size())

	if fileSize > maxPreviewBytes {
		return Info{
			"type":   "excluded",
			"reason": "binary_too_large",
			"size":   fileSize,
		}, nil
	}

	readLimit := min(maxPreviewBytes, maxBinaryContentBytes)
	previewSize := min(fileSize, readLimit)

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.IO(path, err)
	}
	defer file.Close()

	buffer, err := readChunked(file, previewSize)
	if err != nil {
		return nil, errors.IO(path, err)
	}

	result := Info{
		"type":          "binary",
		"content":       base64.StdEncoding.EncodeToString(buffer),
		"encoding":      "base64",
		"preview_bytes": len(buffer),
	}
	if fileSize > len(buffer) {
		result["truncated"] = true
	}
	return result, nil
}

// ReadTextPreview reads up to maxPreviewBytes of the file and decodes it.
// The encoding is the caller-supplied label when recognised, otherwise
// detected from a bounded sample. Invalid sequences decode to U+FFFD.
func ReadTextPreview(path string, maxPreviewBytes int, encodingLabel string) (Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.IO(path, err)
	}
	fileSize := int(stat.Size())
	readLimit := min(maxPreviewBytes, maxTextContentBytes)

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.IO(path, err)
	}
	defer file.Close()

	sample := make([]byte, encodingSampleBytes)
	n, err := io.ReadFull(file, sample)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, errors.IO(path, err)
	}
	sample = sample[:n]

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, errors.IO(path, err)
	}

	enc := detectEncoding(sample, encodingLabel)

	buffer, err := readChunked(file, readLimit)
	if err != nil {
		return nil, errors.IO(path, err)
	}

	decoded, err := enc.decode(buffer)
	if err != nil {
		return nil, errors.Encoding(err.Error())
	}

	result := Info{
		"type":          "text",
		"encoding":      enc.name,
		"content":       decoded,
		"preview_bytes": len(buffer),
	}
	if fileSize > readLimit {
		result["truncated"] = true
	}
	return result, nil
}

// readChunked reads up to limit bytes in fixed-size chunks
func readChunked(r io.Reader, limit int) ([]byte, error) {
	buffer := make([]byte, 0, min(limit, streamChunkSize))
	chunk := make([]byte, streamChunkSize)
	total := 0
	for total < limit {
		toRead := min(streamChunkSize, limit-total)
		n, err := r.Read(chunk[:toRead])
		if n > 0 {
			total += n
			buffer = append(buffer, chunk[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return buffer, nil
}
