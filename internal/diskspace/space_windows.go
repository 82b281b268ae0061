//go:build windows

package diskspace

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// freeBytes возвращает свободное место в байтах, доступное текущему
// пользователю (с учётом квот).
func freeBytes(dir string) (uint64, error) {
	var freeToCaller, total, totalFree uint64
	p, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return 0, fmt.Errorf("путь %q: %w", dir, err)
	}
	if err := windows.GetDiskFreeSpaceEx(p, &freeToCaller, &total, &totalFree); err != nil {
		return 0, fmt.Errorf("GetDiskFreeSpaceEx %q: %w", dir, err)
	}
	return freeToCaller, nil
}
