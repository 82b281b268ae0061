// Package codec определяет границу с внешними коллабораторами конвертации.
package codec

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// ExifTool переносит EXIF/IPTC/XMP из raw-файла в JPEG через внешний
// exiftool. Перенос метаданных - строго вспомогательная операция:
// любая его ошибка остаётся предупреждением.
type ExifTool struct {
	// path - путь к бинарнику exiftool; пустой, если не найден.
	path string
}

// NewExifTool ищет exiftool в PATH. Отсутствие бинарника не является
// ошибкой - возвращается отключённый экземпляр, Transplant которого
// сообщает об этом при первом использовании.
func NewExifTool() *ExifTool {
	path, err := exec.LookPath("exiftool")
	if err != nil {
		return &ExifTool{}
	}
	return &ExifTool{path: path}
}

// Transplant копирует все метаданные из srcPath в dstPath.
func (e *ExifTool) Transplant(srcPath, dstPath string) error {
	if e.path == "" {
		return fmt.Errorf("exiftool не найден в PATH, метаданные не перенесены")
	}

	cmd := exec.Command(e.path,
		"-overwrite_original",
		"-TagsFromFile", srcPath,
		"-all:all",
		dstPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := err.Error()
		if stderr.Len() > 0 {
			msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("exiftool: %s", msg)
	}

	return nil
}
