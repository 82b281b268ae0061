// Package codec определяет границу с внешними коллабораторами конвертации.
package codec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Vips реализует Decoder и Encoder через внешний бинарник vips.
// Декодирование складывает результат в промежуточный файл формата vips,
// кодирование переводит его в JPEG с атомарной записью через временный
// файл и переименование.
type Vips struct {
	// vipsPath - путь к бинарнику vips.
	vipsPath string

	// timeout - таймаут на одну операцию.
	timeout time.Duration
}

// NewVips создаёт адаптер для указанного бинарника vips.
func NewVips(vipsPath string) *Vips {
	return &Vips{
		vipsPath: vipsPath,
		timeout:  5 * time.Minute,
	}
}

// SetTimeout устанавливает таймаут на одну операцию.
func (v *Vips) SetTimeout(d time.Duration) {
	v.timeout = d
}

// Decode декодирует raw-файл в промежуточный .v файл во временной
// директории. Ошибки классифицируются по stderr vips.
func (v *Vips) Decode(ctx context.Context, srcPath string) (*PixelBuffer, error) {
	tmp, err := os.CreateTemp("", "rawconv-*.v")
	if err != nil {
		return nil, &Error{Kind: KindIO, Message: fmt.Sprintf("временный файл: %v", err)}
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, v.vipsPath, "copy", srcPath, tmpPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(tmpPath)
		return nil, classifyDecodeError(err, stderr.String())
	}

	return &PixelBuffer{path: tmpPath}, nil
}

// Encode кодирует промежуточный файл в JPEG.
// Пишем во временный файл с правильным расширением, затем переименование:
// vips определяет формат по расширению, а прерванная запись не оставляет
// битого результата на месте целевого файла.
func (v *Vips) Encode(ctx context.Context, buf *PixelBuffer, dstPath string, quality int) error {
	dstExt := filepath.Ext(dstPath)
	tmpPath := strings.TrimSuffix(dstPath, dstExt) + ".converting" + dstExt
	outWithParams := fmt.Sprintf("%s[Q=%d]", tmpPath, quality)

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, v.vipsPath, "copy", buf.Path(), outWithParams)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(tmpPath)
		msg := err.Error()
		if stderr.Len() > 0 {
			msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(stderr.String()))
		}
		return &Error{Kind: KindEncode, Message: msg}
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		_ = os.Remove(tmpPath)
		return &Error{Kind: KindEncode,
			Message: fmt.Sprintf("не удалось переименовать %s -> %s: %v", tmpPath, dstPath, err)}
	}

	return nil
}

// classifyDecodeError сводит ошибку vips к закрытому перечислению Kind
// по шаблонам в stderr.
func classifyDecodeError(err error, stderr string) *Error {
	msg := err.Error()
	if stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(stderr))
	}

	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "not a known file format"),
		strings.Contains(lower, "not in a known format"),
		strings.Contains(lower, "unsupported"),
		strings.Contains(lower, "no known loader"):
		return &Error{Kind: KindUnsupported, Message: msg}
	case strings.Contains(lower, "truncated"),
		strings.Contains(lower, "corrupt"),
		strings.Contains(lower, "premature end"),
		strings.Contains(lower, "bad header"):
		return &Error{Kind: KindCorrupt, Message: msg}
	default:
		return &Error{Kind: KindIO, Message: msg}
	}
}

/*
Возможные расширения:
- Добавить retry при временных ошибках ввода-вывода
- Добавить параметры постобработки raw (баланс белого, яркость)
*/
