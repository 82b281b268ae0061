//go:build !linux && !darwin

package codec

import (
	"os"
	"time"
)

// SourceTimes извлекает время доступа и модификации исходного файла.
// На платформах без доступа к atime используется время модификации.
func SourceTimes(info os.FileInfo) (atime, mtime time.Time) {
	mtime = info.ModTime()
	return mtime, mtime
}
