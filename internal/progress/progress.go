// Package progress предоставляет прогресс-бар с ETA для отображения хода конвертации.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar представляет прогресс-бар с поддержкой возобновления:
// при повторном запуске бар начинается не с нуля, а с количества
// файлов, обработанных в прошлых запусках.
type Bar struct {
	// bar - внутренний progressbar.
	bar *progressbar.ProgressBar

	// mu защищает доступ к счётчикам.
	mu sync.Mutex

	// disabled - флаг отключения прогресс-бара.
	disabled bool

	// total - общее количество файлов в архиве.
	total int64

	// previouslyDone - обработано в прошлых запусках.
	previouslyDone int64

	// session - обработано в текущей сессии.
	session int64

	// startTime - время начала текущей сессии.
	startTime time.Time

	// writer - куда выводить (по умолчанию os.Stderr).
	writer io.Writer
}

// Options содержит настройки прогресс-бара.
type Options struct {
	// Total - общее количество файлов.
	Total int64

	// PreviouslyDone - сколько файлов уже обработано в прошлых запусках.
	PreviouslyDone int64

	// Description - описание задачи.
	Description string

	// Disabled - отключить прогресс-бар (только текстовый вывод).
	Disabled bool

	// Writer - куда выводить (по умолчанию os.Stderr).
	Writer io.Writer
}

// New создаёт новый прогресс-бар.
func New(opts Options) *Bar {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	b := &Bar{
		disabled:       opts.Disabled,
		total:          opts.Total,
		previouslyDone: opts.PreviouslyDone,
		startTime:      time.Now(),
		writer:         writer,
	}

	if !opts.Disabled && opts.Total > 0 {
		description := opts.Description
		if description == "" {
			description = "Конвертация"
		}

		b.bar = progressbar.NewOptions64(
			opts.Total,
			progressbar.OptionSetWriter(writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("файл"),
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]█[reset]",
				SaucerHead:    "[green]▓[reset]",
				SaucerPadding: "░",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(writer)
			}),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)

		// Стартуем с отметки прошлых запусков.
		if opts.PreviouslyDone > 0 {
			_ = b.bar.Set64(opts.PreviouslyDone)
		}
	}

	return b
}

// Increment увеличивает счётчик сессии на 1 (файл обработан).
func (b *Bar) Increment() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session++

	if b.bar != nil {
		_ = b.bar.Add(1)
	}
}

// Processed возвращает общее число обработанных файлов:
// прошлые запуски плюс текущая сессия.
func (b *Bar) Processed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.previouslyDone + b.session
}

// Session возвращает число файлов, обработанных в текущей сессии.
func (b *Bar) Session() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// FilesPerSecond возвращает скорость обработки в текущей сессии.
func (b *Bar) FilesPerSecond() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := time.Since(b.startTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(b.session) / elapsed
}

// Finish завершает прогресс-бар.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Finish()
	}
}

// Clear очищает прогресс-бар (для вывода сообщений).
func (b *Bar) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Clear()
	}
}

// Duration возвращает время с начала сессии.
func (b *Bar) Duration() time.Duration {
	return time.Since(b.startTime)
}

// IsDisabled возвращает true, если прогресс-бар отключён.
func (b *Bar) IsDisabled() bool {
	return b.disabled
}

// WriteMessage выводит сообщение, временно скрывая прогресс-бар.
func (b *Bar) WriteMessage(format string, args ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Clear()
	}

	fmt.Fprintf(b.writer, format, args...)

	if b.bar != nil {
		_ = b.bar.RenderBlank()
	}
}

/*
Возможные расширения:
- Добавить отдельный счётчик для режима --watch (total неизвестен заранее)
- Добавить вывод текущего имени файла в описании бара
*/
