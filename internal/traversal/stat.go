package traversal

import "io/fs"

func fallbackStatNumbers(info fs.FileInfo) (mtime float64, mode uint32) {
	mtime = float64(info.ModTime().UnixNano()) / 1e9
	return mtime, 0
}
