// Package deleter содержит контроллер безопасного удаления исходников.
//
// Удаление - единственная необратимая операция системы, поэтому путь
// попадает в план только при трёх условиях одновременно: исходник
// существует, у него есть запись в журнале конвертаций, и записанный
// в журнале JPEG существует на диске в момент планирования.
package deleter

import (
	"os"
	"path/filepath"
	"time"

	"github.com/kwad-pylot/Raw-Image-Converter/internal/config"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/gate"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/observer"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/store"
)

// Stats - итоги запуска удаления.
type Stats struct {
	// Deleted - удалено файлов.
	Deleted int

	// Skipped - пропущено (файл уже исчез или удаление отменено).
	Skipped int

	// Errors - ошибок удаления (например, нет прав).
	Errors int
}

// Candidate - файл, допущенный к удалению.
type Candidate struct {
	// Path - абсолютный путь к исходному raw-файлу.
	Path string

	// Record - его запись в журнале конвертаций.
	Record store.ConvertedRecord
}

// DirGroup - кандидаты одной директории (для показа перед удалением).
type DirGroup struct {
	// Dir - директория.
	Dir string

	// Files - имена файлов в ней.
	Files []string
}

// Deleter - контроллер удаления.
type Deleter struct {
	cfg     *config.Config
	store   *store.Store
	confirm gate.Confirmer
	obs     observer.Observer
}

// New создаёт контроллер удаления.
func New(cfg *config.Config, st *store.Store, confirm gate.Confirmer, obs observer.Observer) *Deleter {
	if obs == nil {
		obs = observer.Nop{}
	}
	return &Deleter{cfg: cfg, store: st, confirm: confirm, obs: obs}
}

// Plan вычисляет упорядоченный список файлов, безопасных к удалению.
// Порядок - отсортированные пути (стабильный порядок партиции);
// лимит batch усекает список детерминированно с начала, никогда
// случайной выборкой.
func (d *Deleter) Plan() []Candidate {
	converted := d.store.LoadConverted()

	var plan []Candidate
	for _, path := range store.SortedPaths(converted) {
		rec := converted[path]

		if _, err := os.Stat(path); err != nil {
			continue
		}
		if rec.OutputPath == "" {
			continue
		}
		if _, err := os.Stat(rec.OutputPath); err != nil {
			continue
		}

		plan = append(plan, Candidate{Path: path, Record: rec})
	}

	if d.cfg.BatchSize > 0 && len(plan) > d.cfg.BatchSize {
		d.obs.Info("Ограничиваем удаление первыми %d файлами из %d",
			d.cfg.BatchSize, len(plan))
		plan = plan[:d.cfg.BatchSize]
	}

	return plan
}

// GroupByDir группирует план по директориям для показа пользователю.
func GroupByDir(plan []Candidate) []DirGroup {
	var groups []DirGroup
	index := make(map[string]int)

	for _, c := range plan {
		dir := filepath.Dir(c.Path)
		i, ok := index[dir]
		if !ok {
			i = len(groups)
			index[dir] = i
			groups = append(groups, DirGroup{Dir: dir})
		}
		groups[i].Files = append(groups[i].Files, filepath.Base(c.Path))
	}

	return groups
}

// Run планирует, показывает, подтверждает и выполняет удаление.
func (d *Deleter) Run() Stats {
	var stats Stats

	plan := d.Plan()
	if len(plan) == 0 {
		d.obs.Warn("В журнале нет файлов, безопасных к удалению")
		return stats
	}

	// Показываем план, сгруппированный по директориям.
	d.obs.Info("")
	d.obs.Info("Raw-файлы к удалению:")
	for _, g := range GroupByDir(plan) {
		d.obs.Info("")
		d.obs.Info("Директория: %s", g.Dir)
		for i, name := range g.Files {
			d.obs.Info("  %d. %s", i+1, name)
		}
	}
	d.obs.Info("")
	d.obs.Info("Всего файлов к удалению: %d", len(plan))

	// Явное подтверждение, если не задан --force.
	if !d.cfg.Force {
		if d.confirm == nil || !d.confirm.Confirm("Выполнить удаление?") {
			d.obs.Info("Удаление отменено.")
			stats.Skipped = len(plan)
			return stats
		}
	}

	// Удаляем независимо: ошибка одного файла не прерывает остальные.
	deleted := d.store.LoadDeleted()
	for _, c := range plan {
		info, err := os.Stat(c.Path)
		if err != nil {
			if os.IsNotExist(err) {
				d.obs.Warn("Файл не найден (уже удалён?): %s", c.Path)
				stats.Skipped++
				continue
			}
			d.obs.Error("Не удалось прочитать %s: %v", c.Path, err)
			stats.Errors++
			continue
		}

		if err := os.Remove(c.Path); err != nil {
			if os.IsNotExist(err) {
				d.obs.Warn("Файл не найден (уже удалён?): %s", c.Path)
				stats.Skipped++
			} else if os.IsPermission(err) {
				d.obs.Error("Нет прав на удаление: %s", c.Path)
				stats.Errors++
			} else {
				d.obs.Error("Не удалось удалить %s: %v", c.Path, err)
				stats.Errors++
			}
			continue
		}

		deleted[c.Path] = store.DeletedRecord{
			DeletedAt:    time.Now().Format(store.TimeFormat),
			OriginalSize: info.Size(),
			ConvertedTo:  c.Record.OutputPath,
		}
		d.obs.Info("Удалён: %s", c.Path)
		stats.Deleted++
	}

	// Полный снимок deleted-партиции пишется один раз в конце batch.
	d.store.SaveDeleted(deleted)

	d.obs.Info("")
	d.obs.Info("📊 Итоги удаления:")
	d.obs.Info("   Удалено: %d", stats.Deleted)
	d.obs.Info("   Пропущено: %d", stats.Skipped)
	d.obs.Info("   Ошибок: %d", stats.Errors)

	return stats
}

/*
Возможные расширения:
- Добавить dry-run режим (только показать план)
- Добавить проверку размера JPEG перед удалением (защита от пустого выхода)
*/
