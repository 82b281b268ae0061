// Package store содержит персистентное состояние конвертации.
//
// Состояние разбито на три независимые партиции - JSON-файлы в корне
// архива, ключ - абсолютный путь к исходному файлу:
//
//	conversion_log.json - успешно сконвертированные файлы
//	corrupt_files.json  - файлы, которые не удалось сконвертировать
//	deletion_log.json   - удалённые исходники
//
// Партиции переживают падение процесса: чтение деградирует до пустой
// карты с предупреждением, запись идёт через временный файл с
// переименованием, чтобы прерванный flush не обрезал журнал.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/kwad-pylot/Raw-Image-Converter/internal/observer"
)

// Store управляет тремя партициями журналов в корне архива.
type Store struct {
	// root - корневая директория архива.
	root string

	// convName - имя файла converted-партиции (флаг --log).
	convName string

	// obs - наблюдатель для предупреждений о проблемах чтения/записи.
	obs observer.Observer
}

// New создаёт Store для указанной корневой директории.
// convName - имя файла converted-партиции; пустая строка означает
// имя по умолчанию conversion_log.json.
func New(root, convName string, obs observer.Observer) *Store {
	if convName == "" {
		convName = "conversion_log.json"
	}
	if obs == nil {
		obs = observer.Nop{}
	}
	return &Store{root: root, convName: convName, obs: obs}
}

// ConversionLogPath возвращает путь к converted-партиции.
func (s *Store) ConversionLogPath() string {
	return filepath.Join(s.root, s.convName)
}

// CorruptLogPath возвращает путь к corrupt-партиции.
func (s *Store) CorruptLogPath() string {
	return filepath.Join(s.root, "corrupt_files.json")
}

// DeletionLogPath возвращает путь к deleted-партиции.
func (s *Store) DeletionLogPath() string {
	return filepath.Join(s.root, "deletion_log.json")
}

// LoadConverted читает converted-партицию.
// Отсутствующий, нечитаемый или битый файл - не ошибка: возвращается
// пустая карта, проблема уходит предупреждением в наблюдателя.
func (s *Store) LoadConverted() map[string]ConvertedRecord {
	m := make(map[string]ConvertedRecord)
	s.loadJSON(s.ConversionLogPath(), &m)
	return m
}

// LoadCorrupt читает corrupt-партицию.
func (s *Store) LoadCorrupt() map[string]CorruptRecord {
	m := make(map[string]CorruptRecord)
	s.loadJSON(s.CorruptLogPath(), &m)
	return m
}

// LoadDeleted читает deleted-партицию.
func (s *Store) LoadDeleted() map[string]DeletedRecord {
	m := make(map[string]DeletedRecord)
	s.loadJSON(s.DeletionLogPath(), &m)
	return m
}

// SaveConverted перезаписывает converted-партицию.
// Ошибка записи логируется и проглатывается: источником истины до
// конца запуска остаётся карта в памяти, следующий flush попробует снова.
func (s *Store) SaveConverted(m map[string]ConvertedRecord) {
	s.saveJSON(s.ConversionLogPath(), m)
}

// SaveCorrupt перезаписывает corrupt-партицию.
func (s *Store) SaveCorrupt(m map[string]CorruptRecord) {
	s.saveJSON(s.CorruptLogPath(), m)
}

// SaveDeleted перезаписывает deleted-партицию.
func (s *Store) SaveDeleted(m map[string]DeletedRecord) {
	s.saveJSON(s.DeletionLogPath(), m)
}

// SortedPaths возвращает ключи converted-партиции в стабильном порядке.
// JSON-объект порядок не гарантирует, поэтому "исходным порядком"
// партиции считается отсортированный порядок путей: он одинаков между
// запусками и платформами, что и требуется для детерминированного
// усечения batch.
func SortedPaths[R any](m map[string]R) []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// loadJSON читает JSON-файл в out, деградируя до нетронутого out.
func (s *Store) loadJSON(path string, out interface{}) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.obs.Warn("Не удалось прочитать журнал %s: %v", path, err)
		}
		return
	}

	if err := json.Unmarshal(data, out); err != nil {
		s.obs.Warn("Журнал %s повреждён, начинаем с пустого: %v", path, err)
	}
}

// saveJSON атомарно записывает JSON-файл: сначала во временный файл
// рядом с целевым, затем переименование. Прерванная запись не может
// обрезать существующий журнал.
func (s *Store) saveJSON(path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		s.obs.Error("Не удалось сериализовать журнал %s: %v", path, err)
		return
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		s.obs.Error("Не удалось записать журнал %s: %v", path, err)
		return
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		s.obs.Error("Не удалось сохранить журнал %s: %v", path, err)
	}
}

/*
Возможные расширения:
- Добавить fsync директории после rename для строгих гарантий
- Добавить версию схемы в журналы для будущих миграций
*/
