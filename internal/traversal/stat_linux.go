//go:build linux

package traversal

import (
	"io/fs"
	"syscall"

	"golang.org/x/sys/unix"
)

// statNumbers extracts the epoch-second mtime and the raw POSIX mode
func statNumbers(info fs.FileInfo) (mtime float64, mode uint32) {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		mtime = float64(st.Mtim.Sec) + float64(st.Mtim.Nsec)/1e9
		mode = uint32(st.Mode)
		return mtime, mode
	}
	return fallbackStatNumbers(info)
}

// birthTime returns the file's creation time in epoch seconds, or 0 when
// the filesystem does not report one. The plain stat result has no birth
// time on Linux; statx exposes it behind STATX_BTIME where supported.
func birthTime(path string, _ fs.FileInfo) float64 {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME, &stx); err != nil {
		return 0
	}
	if stx.Mask&unix.STATX_BTIME == 0 {
		return 0
	}
	return float64(stx.Btime.Sec) + float64(stx.Btime.Nsec)/1e9
}
