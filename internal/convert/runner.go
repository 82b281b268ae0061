// Package convert содержит контроллер конвертации: обход архива,
// машину состояний каждого файла, ведение журналов и адаптивный
// контроль свободного места.
package convert

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kwad-pylot/Raw-Image-Converter/internal/codec"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/config"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/diskspace"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/gate"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/observer"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/progress"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/scanner"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/store"
)

// flushEvery - периодичность сброса журналов на диск
// (каждые N успешных конвертаций).
const flushEvery = 5

// SkipReason - причина пропуска файла.
type SkipReason string

const (
	// SkipAlreadyLogged - файл уже есть в журнале конвертаций.
	SkipAlreadyLogged SkipReason = "уже в журнале конвертаций"
	// SkipOutputExists - выходной JPEG уже существует на диске.
	SkipOutputExists SkipReason = "выходной файл уже существует"
	// SkipQuarantined - файл помечен повреждённым (режим --skip-corrupt).
	SkipQuarantined SkipReason = "помечен как повреждённый"
)

// Stats - итоги запуска конвертации.
type Stats struct {
	// Converted - успешно сконвертировано в этой сессии.
	Converted int

	// Skipped - пропущено (журнал или существующий выход).
	Skipped int

	// Errors - помещено в карантин.
	Errors int

	// Quarantined - пути файлов, помещённых в карантин в этой сессии.
	Quarantined []string
}

// Options - зависимости контроллера конвертации.
type Options struct {
	// Config - конфигурация запуска.
	Config *config.Config

	// Store - хранилище журналов.
	Store *store.Store

	// Monitor - монитор свободного места.
	Monitor *diskspace.Monitor

	// Gate - точка принятия решения при нехватке места.
	Gate gate.DecisionProvider

	// Confirm - подтверждение старта при критически малом месте.
	Confirm gate.Confirmer

	// Decoder - декодер raw-файлов.
	Decoder codec.Decoder

	// Encoder - энкодер JPEG.
	Encoder codec.Encoder

	// Metadata - перенос метаданных (может быть nil).
	Metadata codec.Metadata

	// Observer - приёмник сообщений и прогресса.
	Observer observer.Observer

	// NewBar - фабрика прогресс-бара; вызывается после подсчёта файлов.
	// nil отключает бар (тесты, режим --watch).
	NewBar func(total, previouslyDone int64) *progress.Bar
}

// Runner - контроллер конвертации. Работает строго последовательно:
// каждый файл полностью проходит decode -> encode -> метаданные ->
// журнал до начала следующего.
type Runner struct {
	cfg     *config.Config
	store   *store.Store
	monitor *diskspace.Monitor
	gate    gate.DecisionProvider
	confirm gate.Confirmer
	decoder codec.Decoder
	encoder codec.Encoder
	meta    codec.Metadata
	obs     observer.Observer
	newBar  func(total, previouslyDone int64) *progress.Bar
	bar     *progress.Bar

	// converted и corrupt - источники истины на время запуска;
	// диск обновляется периодическим flush.
	converted map[string]store.ConvertedRecord
	corrupt   map[string]store.CorruptRecord

	stats Stats

	// total - всего raw-файлов в архиве.
	total int

	// previouslyDone - обработано в прошлых запусках (журналы).
	previouslyDone int

	// session - обработано в этой сессии (конвертации + карантин).
	session int

	// sinceFlush - успешных конвертаций с последнего flush.
	sinceFlush int

	// sinceCheck - обработанных файлов с последней проверки места.
	sinceCheck int

	// forced - пользователь выбрал "force": предупреждения о месте
	// больше не останавливают запуск.
	forced bool

	// paused - пауза уже идёт; повторный вход в шлюз запрещён.
	paused bool

	// aborted - пользователь выбрал "exit" на паузе.
	aborted bool

	startTime time.Time
}

// NewRunner создаёт контроллер конвертации.
func NewRunner(opts Options) *Runner {
	obs := opts.Observer
	if obs == nil {
		obs = observer.Nop{}
	}
	return &Runner{
		cfg:       opts.Config,
		store:     opts.Store,
		monitor:   opts.Monitor,
		gate:      opts.Gate,
		confirm:   opts.Confirm,
		decoder:   opts.Decoder,
		encoder:   opts.Encoder,
		meta:      opts.Metadata,
		obs:       obs,
		newBar:    opts.NewBar,
		converted: make(map[string]store.ConvertedRecord),
		corrupt:   make(map[string]store.CorruptRecord),
		forced:    opts.Config.Force,
	}
}

// OutputPathFor возвращает путь выходного JPEG: рядом с исходным
// файлом, с заменённым расширением.
func OutputPathFor(srcPath string) string {
	ext := filepath.Ext(srcPath)
	return strings.TrimSuffix(srcPath, ext) + ".jpg"
}

// Run выполняет конвертацию архива.
// Ошибку возвращает только невыполненное предусловие; отмена
// пользователем и прерывание на паузе - нормальное завершение.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	r.startTime = time.Now()

	// Стартовая проверка места.
	freeMB, status := r.monitor.Check()
	r.obs.Info("Доступно на диске: %.2f МБ", freeMB)
	if status == diskspace.StatusCritical && !r.forced {
		if r.confirm == nil || !r.confirm.Confirm(
			"Предупреждение: мало свободного места. Продолжить?") {
			r.obs.Info("Конвертация отменена из-за нехватки места")
			return r.stats, nil
		}
	}

	// Загружаем журналы для возобновления.
	r.converted = r.store.LoadConverted()
	r.corrupt = r.store.LoadCorrupt()
	r.obs.Info("Загружен журнал конвертаций: %d записей", len(r.converted))
	r.obs.Info("Загружен журнал повреждённых файлов: %d записей", len(r.corrupt))
	r.previouslyDone = len(r.converted) + len(r.corrupt)

	// Детерминированный обход архива.
	r.obs.Info("Сканируем директории...")
	files, err := scanner.New(r.cfg, r.obs).Scan()
	if err != nil {
		return r.stats, err
	}
	r.total = len(files)
	r.obs.Info("Найдено raw-файлов: %d", r.total)
	if r.previouslyDone > 0 {
		r.obs.Info("Уже обработано ранее: %d файлов", r.previouslyDone)
	}

	if r.newBar != nil {
		r.bar = r.newBar(int64(r.total), int64(r.previouslyDone))
	}

	for _, f := range files {
		if ctx.Err() != nil {
			r.obs.Warn("Получен сигнал завершения, сохраняем прогресс...")
			break
		}
		r.ProcessOne(ctx, f)
		if r.aborted {
			break
		}
	}

	// В режиме --watch итоги печатает финальный Finish после сессии
	// слежения; здесь только сбрасываем журналы.
	if r.cfg.Watch && !r.aborted && ctx.Err() == nil {
		r.flush()
		return r.stats, nil
	}

	r.Finish()
	return r.stats, nil
}

// ProcessOne проводит один файл через машину состояний.
// Используется основным циклом и режимом --watch.
func (r *Runner) ProcessOne(ctx context.Context, f scanner.File) {
	outputPath := OutputPathFor(f.Path)

	// Pending -> Skipped(AlreadyLogged).
	if _, ok := r.converted[f.Path]; ok {
		r.skip(f, SkipAlreadyLogged)
		return
	}

	// Pending -> Skipped(Quarantined) - только при явной политике.
	if r.cfg.SkipCorrupt {
		if _, ok := r.corrupt[f.Path]; ok {
			r.skip(f, SkipQuarantined)
			return
		}
	}

	// Pending -> Skipped(OutputExists). Выход уже на диске - файл
	// сконвертирован, но запись могла потеряться с несброшенным
	// журналом: восстанавливаем её.
	if _, err := os.Stat(outputPath); err == nil {
		r.converted[f.Path] = store.ConvertedRecord{
			OutputPath:  outputPath,
			ConvertedAt: time.Now().Format(store.TimeFormat),
			FileSize:    f.Size,
		}
		r.skip(f, SkipOutputExists)
		return
	}

	// Pending -> Attempting.
	r.attempt(ctx, f, outputPath)
}

// skip фиксирует пропуск файла.
func (r *Runner) skip(f scanner.File, reason SkipReason) {
	r.stats.Skipped++
	if r.cfg.Verbose {
		r.obs.Info("⏭️  Пропущен: %s (%s)", f.RelPath, reason)
	}
}

// attempt выполняет decode -> encode -> отметки времени -> метаданные.
func (r *Runner) attempt(ctx context.Context, f scanner.File, outputPath string) {
	buf, err := r.decoder.Decode(ctx, f.Path)
	if err != nil {
		r.quarantine(f, err)
		return
	}
	defer func() { _ = buf.Close() }()

	if err := r.encoder.Encode(ctx, buf, outputPath, r.cfg.Quality); err != nil {
		r.quarantine(f, err)
		return
	}

	// Attempting -> Converted. Дальше только мягкие операции.
	if f.Info != nil {
		atime, mtime := codec.SourceTimes(f.Info)
		if err := codec.PreserveTimestamps(outputPath, atime, mtime); err != nil {
			r.obs.Warn("Не удалось перенести отметки времени для %s: %v", f.RelPath, err)
		}
	}

	if r.meta != nil {
		if err := r.meta.Transplant(f.Path, outputPath); err != nil {
			r.obs.Warn("Не удалось перенести метаданные для %s: %v", f.RelPath, err)
		}
	}

	r.converted[f.Path] = store.ConvertedRecord{
		OutputPath:  outputPath,
		ConvertedAt: time.Now().Format(store.TimeFormat),
		FileSize:    f.Size,
	}
	r.stats.Converted++
	r.session++

	if r.cfg.Verbose {
		r.obs.Info("✅ Сконвертирован: %s -> %s", f.RelPath, filepath.Base(outputPath))
	}
	if r.bar != nil {
		r.bar.Increment()
	}

	// Размер полученного JPEG идёт в окно наблюдений монитора.
	if outInfo, err := os.Stat(outputPath); err == nil {
		r.monitor.Observe(float64(outInfo.Size()) / (1024 * 1024))
	}

	r.sinceFlush++
	if r.sinceFlush >= flushEvery {
		r.flush()
		r.sinceFlush = 0
	}

	r.reportProgress()
	r.checkSpace()
}

// quarantine фиксирует терминальную ошибку файла.
// Карантин действует в рамках запуска: без --skip-corrupt файл будет
// попробован снова при следующем запуске.
func (r *Runner) quarantine(f scanner.File, err error) {
	kind := codec.KindOf(err)
	r.obs.Error("Не удалось обработать %s (%s): %v", f.RelPath, kind, err)

	r.corrupt[f.Path] = store.CorruptRecord{
		Error:      err.Error(),
		ErrorType:  string(kind),
		DetectedAt: time.Now().Format(store.TimeFormat),
		FileSize:   f.Size,
	}
	r.stats.Errors++
	r.stats.Quarantined = append(r.stats.Quarantined, f.Path)
	r.session++

	if r.bar != nil {
		r.bar.Increment()
	}

	r.reportProgress()
	r.checkSpace()
}

// checkSpace продвигает счётчик адаптивной проверки места и при
// срабатывании выполняет измерение и предсказание.
func (r *Runner) checkSpace() {
	r.sinceCheck++
	if r.sinceCheck < r.monitor.Interval() {
		return
	}
	r.sinceCheck = 0

	freeMB, _ := r.monitor.Check()

	remaining := r.remaining()
	needMB, shortfall := r.monitor.Predict(remaining)
	if !shortfall {
		return
	}

	r.obs.Warn("Предсказана нехватка места: нужно ~%.1f МБ на оставшиеся %d файлов, доступно %.1f МБ",
		needMB, remaining, freeMB)

	if r.forced || r.paused {
		return
	}

	r.paused = true
	decision := r.gate.Decide(gate.Prompt{
		EstimatedNeedMB: needMB,
		FreeMB:          freeMB,
		RemainingFiles:  remaining,
	})
	r.paused = false

	switch decision {
	case gate.DecisionAbort:
		r.obs.Info("Сохраняем прогресс и выходим...")
		r.flush()
		r.aborted = true
	case gate.DecisionForce:
		r.obs.Info("Продолжаем несмотря на предупреждение о месте...")
		r.forced = true
	default:
		r.obs.Info("Возобновляем конвертацию...")
		r.monitor.Check()
	}
}

// remaining возвращает количество необработанных файлов:
// total минус всё обработанное (прошлые запуски + эта сессия).
func (r *Runner) remaining() int {
	rem := r.total - (r.previouslyDone + r.session)
	if rem < 0 {
		rem = 0
	}
	return rem
}

// reportProgress отправляет наблюдателю снимок прогресса.
// Снимок чисто наблюдательный и не влияет на управление.
func (r *Runner) reportProgress() {
	processed := int64(r.previouslyDone + r.session)
	elapsed := time.Since(r.startTime).Seconds()

	var fps float64
	if elapsed > 0 {
		fps = float64(r.session) / elapsed
	}

	snap := observer.Snapshot{
		Processed:      processed,
		Total:          int64(r.total),
		PreviouslyDone: int64(r.previouslyDone),
		Session:        int64(r.session),
		FilesPerSec:    fps,
	}

	// Оценка оставшегося времени - каждые 10 файлов сессии.
	if r.session%10 == 0 && fps > 0 {
		snap.RemainingEstimate = time.Duration(float64(r.remaining())/fps) * time.Second
	}

	r.obs.Progress(snap)
}

// flush сбрасывает обе партиции на диск.
func (r *Runner) flush() {
	r.store.SaveConverted(r.converted)
	r.store.SaveCorrupt(r.corrupt)
}

// Finish выполняет финальный сброс журналов и печатает итоги сессии.
func (r *Runner) Finish() {
	r.flush()

	if r.bar != nil {
		r.bar.Finish()
	}

	elapsed := time.Since(r.startTime)
	var fps float64
	if elapsed.Seconds() > 0 {
		fps = float64(r.session) / elapsed.Seconds()
	}

	r.obs.Info("")
	r.obs.Info("📊 Итоги конвертации:")
	r.obs.Info("   Сконвертировано: %d", r.stats.Converted)
	r.obs.Info("   Пропущено: %d", r.stats.Skipped)
	r.obs.Info("   Ошибок: %d", r.stats.Errors)
	r.obs.Info("   Время: %s (%.2f файлов/сек)", elapsed.Round(time.Millisecond), fps)

	if len(r.stats.Quarantined) > 0 {
		r.obs.Info("   Повреждённые файлы (%d):", len(r.stats.Quarantined))
		for _, p := range r.stats.Quarantined {
			r.obs.Info("     - %s", p)
		}
		r.obs.Info("   Подробности в %s", config.CorruptLogName)
	}
}

// AddTotal увеличивает счётчик общего числа файлов.
// Используется режимом --watch, когда в архиве появляются новые файлы.
func (r *Runner) AddTotal(n int) {
	r.total += n
}

// Aborted сообщает, прервал ли пользователь запуск на паузе.
func (r *Runner) Aborted() bool {
	return r.aborted
}

// Stats возвращает текущие итоги.
func (r *Runner) Stats() Stats {
	return r.stats
}

/*
Возможные расширения:
- Добавить dry-run режим без реальной конвертации
- Добавить лимит на количество конвертаций за запуск (по аналогии с delete --batch)
*/
