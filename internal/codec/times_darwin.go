//go:build darwin

package codec

import (
	"os"
	"syscall"
	"time"
)

// SourceTimes извлекает время доступа и модификации исходного файла.
func SourceTimes(info os.FileInfo) (atime, mtime time.Time) {
	mtime = info.ModTime()
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		atime = time.Unix(stat.Atimespec.Sec, stat.Atimespec.Nsec)
		return atime, mtime
	}
	return mtime, mtime
}
