// Package hashing computes streaming content fingerprints for regular files.
//
// The digest is xxHash64 with seed 0, rendered as a lowercase zero-padded
// 16-hex-digit string. Both the algorithm and the rendering are part of the
// wire contract shared with cache entries and downstream consumers.
package hashing

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/luricodes/samuraizer/internal/errors"
)

const hashChunkSize = 64 * 1024

// ComputeFileHash hashes the contents of the file at path.
//
// A missing file yields (nil, nil) so callers can record a null hash; any
// other I/O failure is reported as a hashing error.
func ComputeFileHash(path string) (*string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Hashing(path, err)
	}
	defer file.Close()

	digest := xxhash.New()
	reader := bufio.NewReaderSize(file, hashChunkSize)
	buf := make([]byte, hashChunkSize)

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			_, _ = digest.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Hashing(path, err)
		}
	}

	sum := FormatDigest(digest.Sum64())
	return &sum, nil
}

// FormatDigest renders a 64-bit digest in the canonical wire form.
func FormatDigest(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
