// Package codec определяет границу с внешними коллабораторами
// конвертации: декодер raw-файлов, энкодер JPEG и перенос метаданных.
//
// Контроллер не разбирает типы ошибок коллабораторов: на границе
// используется закрытое перечисление Kind, по которому и принимаются
// решения о карантине.
package codec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// Kind - классификация ошибки коллаборатора.
type Kind string

const (
	// KindUnsupported - формат файла не поддерживается декодером.
	KindUnsupported Kind = "unsupported"
	// KindCorrupt - данные файла повреждены.
	KindCorrupt Kind = "corrupt"
	// KindIO - ошибка ввода-вывода при декодировании.
	KindIO Kind = "io"
	// KindEncode - ошибка кодирования JPEG.
	KindEncode Kind = "encode"
)

// Error - классифицированная ошибка коллаборатора.
type Error struct {
	// Kind - тип ошибки.
	Kind Kind

	// Message - текст ошибки.
	Message string
}

// Error реализует интерфейс error.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf возвращает классификацию ошибки.
// Неклассифицированные ошибки считаются ошибками ввода-вывода.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindIO
}

// PixelBuffer - декодированное изображение, готовое к кодированию.
// Владеет временным файлом; вызывающий обязан вызвать Close.
type PixelBuffer struct {
	// path - путь к промежуточному файлу.
	path string
}

// NewPixelBuffer оборачивает промежуточный файл декодера.
// Пустой путь допустим: Close тогда ничего не делает (удобно для
// заглушек в тестах).
func NewPixelBuffer(path string) *PixelBuffer {
	return &PixelBuffer{path: path}
}

// Path возвращает путь к промежуточному файлу.
func (b *PixelBuffer) Path() string {
	return b.path
}

// Close удаляет промежуточный файл.
func (b *PixelBuffer) Close() error {
	if b == nil || b.path == "" {
		return nil
	}
	return os.Remove(b.path)
}

// Decoder декодирует raw-файл в PixelBuffer.
type Decoder interface {
	Decode(ctx context.Context, srcPath string) (*PixelBuffer, error)
}

// Encoder кодирует PixelBuffer в JPEG.
type Encoder interface {
	Encode(ctx context.Context, buf *PixelBuffer, dstPath string, quality int) error
}

// Metadata переносит метаданные из исходного файла в результат.
// Ошибка переноса - всегда мягкая: файл остаётся сконвертированным.
type Metadata interface {
	Transplant(srcPath, dstPath string) error
}

// PreserveTimestamps копирует отметки времени исходного файла на результат.
func PreserveTimestamps(dstPath string, atime, mtime time.Time) error {
	if err := os.Chtimes(dstPath, atime, mtime); err != nil {
		return fmt.Errorf("не удалось перенести отметки времени на %s: %w", dstPath, err)
	}
	return nil
}
