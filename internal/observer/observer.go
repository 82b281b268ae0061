// Package observer отделяет вывод и журналирование от логики контроллеров.
//
// Контроллеры не пишут напрямую в stdout и не настраивают глобальный
// логгер: все сообщения и снимки прогресса уходят в инжектированный
// Observer. Терминальная реализация живёт в этом же пакете, тесты
// подставляют собственные заглушки.
package observer

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kwad-pylot/Raw-Image-Converter/internal/progress"
)

// Snapshot - снимок прогресса после очередного терминального исхода файла.
// Снимок чисто наблюдательный: контроллер не принимает по нему решений.
type Snapshot struct {
	// Processed - всего обработано (прошлые запуски + текущая сессия).
	Processed int64

	// Total - всего raw-файлов в архиве.
	Total int64

	// PreviouslyDone - обработано в прошлых запусках.
	PreviouslyDone int64

	// Session - обработано в текущей сессии.
	Session int64

	// FilesPerSec - скорость текущей сессии.
	FilesPerSec float64

	// RemainingEstimate - оценка оставшегося времени (0 = не показывать).
	RemainingEstimate time.Duration
}

// Percent возвращает процент выполнения.
func (s Snapshot) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Processed) / float64(s.Total) * 100
}

// Observer принимает сообщения и снимки прогресса от контроллеров.
type Observer interface {
	// Info - информационное сообщение.
	Info(format string, args ...interface{})

	// Warn - предупреждение (мягкая ошибка, работа продолжается).
	Warn(format string, args ...interface{})

	// Error - ошибка уровня файла или подсистемы.
	Error(format string, args ...interface{})

	// Progress - снимок прогресса после терминального исхода файла.
	Progress(s Snapshot)
}

// Nop - наблюдатель, игнорирующий все события.
type Nop struct{}

func (Nop) Info(string, ...interface{})  {}
func (Nop) Warn(string, ...interface{})  {}
func (Nop) Error(string, ...interface{}) {}
func (Nop) Progress(Snapshot)            {}

// Terminal выводит сообщения в консоль и дублирует их с отметкой
// времени в файл журнала в корне архива.
type Terminal struct {
	// out - консольный вывод (по умолчанию os.Stdout).
	out io.Writer

	// bar - прогресс-бар; сообщения выводятся поверх него.
	bar *progress.Bar

	// logFile - файл журнала (nil, если открыть не удалось).
	logFile *os.File
}

// NewTerminal создаёт терминального наблюдателя.
// logPath - путь к файлу журнала; пустая строка отключает запись в файл,
// ошибка открытия не фатальна (журнал просто не ведётся).
func NewTerminal(out io.Writer, logPath string) *Terminal {
	if out == nil {
		out = os.Stdout
	}

	t := &Terminal{out: out}

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Не удалось открыть файл журнала %s: %v\n", logPath, err)
		} else {
			t.logFile = f
		}
	}

	return t
}

// SetBar привязывает прогресс-бар: сообщения будут очищать и
// перерисовывать его, чтобы не ломать отрисовку.
func (t *Terminal) SetBar(bar *progress.Bar) {
	t.bar = bar
}

// Close закрывает файл журнала.
func (t *Terminal) Close() error {
	if t.logFile == nil {
		return nil
	}
	return t.logFile.Close()
}

// Info выводит информационное сообщение.
func (t *Terminal) Info(format string, args ...interface{}) {
	t.emit("INFO", format, args...)
}

// Warn выводит предупреждение.
func (t *Terminal) Warn(format string, args ...interface{}) {
	t.emit("WARNING", "⚠️  "+format, args...)
}

// Error выводит сообщение об ошибке.
func (t *Terminal) Error(format string, args ...interface{}) {
	t.emit("ERROR", "❌ "+format, args...)
}

// Progress выводит снимок прогресса.
// При включённом прогресс-баре снимок отражается самим баром,
// текстовая строка выводится только при отключённом баре.
func (t *Terminal) Progress(s Snapshot) {
	if t.bar != nil && !t.bar.IsDisabled() {
		if s.RemainingEstimate > 0 {
			t.writeConsole(fmt.Sprintf("  Осталось примерно: %.1f мин\n",
				s.RemainingEstimate.Minutes()))
		}
		return
	}

	t.writeConsole(fmt.Sprintf("Прогресс: %d/%d файлов (%.1f%%) - %.2f файлов/сек\n",
		s.Processed, s.Total, s.Percent(), s.FilesPerSec))
	if s.PreviouslyDone > 0 {
		t.writeConsole(fmt.Sprintf("  (%d в прошлых запусках, %d в этой сессии)\n",
			s.PreviouslyDone, s.Session))
	}
	if s.RemainingEstimate > 0 {
		t.writeConsole(fmt.Sprintf("  Осталось примерно: %.1f мин\n",
			s.RemainingEstimate.Minutes()))
	}
}

// emit выводит сообщение в консоль и в файл журнала.
func (t *Terminal) emit(level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	t.writeConsole(msg + "\n")

	if t.logFile != nil {
		fmt.Fprintf(t.logFile, "%s - %s - %s\n",
			time.Now().Format("2006-01-02 15:04:05"), level, msg)
	}
}

// writeConsole пишет в консоль, не ломая прогресс-бар.
func (t *Terminal) writeConsole(s string) {
	if t.bar != nil && !t.bar.IsDisabled() {
		t.bar.WriteMessage("%s", s)
		return
	}
	fmt.Fprint(t.out, s)
}
