//go:build !windows

package diskspace

import (
	"fmt"
	"syscall"
)

// freeBytes возвращает свободное место в байтах, доступное
// непривилегированному процессу (f_bavail, не f_bfree).
func freeBytes(dir string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return 0, fmt.Errorf("statfs %q: %w", dir, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
