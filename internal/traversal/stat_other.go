//go:build !linux && !darwin

package traversal

import "io/fs"

// statNumbers extracts the epoch-second mtime; the mode is 0 on
// platforms without POSIX permission bits.
func statNumbers(info fs.FileInfo) (mtime float64, mode uint32) {
	return fallbackStatNumbers(info)
}

// birthTime reports no creation time on platforms without a birth-time
// stat field; records carry created: null.
func birthTime(_ string, _ fs.FileInfo) float64 {
	return 0
}
