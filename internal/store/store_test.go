package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kwad-pylot/Raw-Image-Converter/internal/observer"
)

// recordingObserver запоминает предупреждения для проверок.
type recordingObserver struct {
	warnings []string
	errors   []string
}

func (r *recordingObserver) Info(string, ...interface{}) {}
func (r *recordingObserver) Warn(format string, args ...interface{}) {
	r.warnings = append(r.warnings, format)
}
func (r *recordingObserver) Error(format string, args ...interface{}) {
	r.errors = append(r.errors, format)
}
func (r *recordingObserver) Progress(observer.Snapshot) {}

func TestStore_LoadMissing(t *testing.T) {
	// Отсутствие журнала - не ошибка и не предупреждение:
	// первый запуск всегда начинается с пустого состояния.
	obs := &recordingObserver{}
	s := newTestStore(t.TempDir(), obs)

	if got := s.LoadConverted(); len(got) != 0 {
		t.Errorf("LoadConverted() = %d записей, want 0", len(got))
	}
	if got := s.LoadCorrupt(); len(got) != 0 {
		t.Errorf("LoadCorrupt() = %d записей, want 0", len(got))
	}
	if got := s.LoadDeleted(); len(got) != 0 {
		t.Errorf("LoadDeleted() = %d записей, want 0", len(got))
	}
	if len(obs.warnings) != 0 {
		t.Errorf("missing log should not warn, got %v", obs.warnings)
	}
}

func TestStore_LoadMalformed(t *testing.T) {
	// Битый журнал деградирует до пустой карты с предупреждением,
	// но никогда не прерывает вызывающего.
	dir := t.TempDir()
	obs := &recordingObserver{}
	s := newTestStore(dir, obs)

	if err := os.WriteFile(s.ConversionLogPath(), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := s.LoadConverted(); len(got) != 0 {
		t.Errorf("LoadConverted() = %d записей, want 0", len(got))
	}
	if len(obs.warnings) == 0 {
		t.Error("malformed log should produce a warning")
	}
}

func TestStore_SaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(dir, nil)

	m := map[string]ConvertedRecord{
		"/a/one.cr2": {OutputPath: "/a/one.jpg", ConvertedAt: "2026-08-23T10:00:00Z", FileSize: 100},
		"/a/two.cr2": {OutputPath: "/a/two.jpg", ConvertedAt: "2026-08-23T10:01:00Z", FileSize: 200},
	}
	s.SaveConverted(m)

	got := s.LoadConverted()
	if len(got) != 2 {
		t.Fatalf("LoadConverted() = %d записей, want 2", len(got))
	}
	if got["/a/one.cr2"].OutputPath != "/a/one.jpg" {
		t.Errorf("OutputPath = %q, want %q", got["/a/one.cr2"].OutputPath, "/a/one.jpg")
	}
	if got["/a/two.cr2"].FileSize != 200 {
		t.Errorf("FileSize = %d, want 200", got["/a/two.cr2"].FileSize)
	}
}

func TestStore_SaveAtomic(t *testing.T) {
	// Запись идёт через временный файл: после сохранения .tmp не остаётся.
	dir := t.TempDir()
	s := newTestStore(dir, nil)

	s.SaveCorrupt(map[string]CorruptRecord{
		"/a/bad.cr2": {Error: "truncated", ErrorType: "corrupt", FileSize: 10},
	})

	if _, err := os.Stat(s.CorruptLogPath()); err != nil {
		t.Fatalf("журнал не записан: %v", err)
	}
	if _, err := os.Stat(s.CorruptLogPath() + ".tmp"); !os.IsNotExist(err) {
		t.Error("временный файл не удалён после сохранения")
	}
}

func TestStore_SaveFailureSwallowed(t *testing.T) {
	// Ошибка записи логируется и проглатывается: источником истины
	// остаётся карта в памяти.
	obs := &recordingObserver{}
	s := newTestStore(filepath.Join(t.TempDir(), "нет-такой-директории"), obs)

	s.SaveConverted(map[string]ConvertedRecord{"/a.cr2": {}})

	if len(obs.errors) == 0 {
		t.Error("save failure should be reported to observer")
	}
}

func TestStore_ConversionLogName(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(dir, nil)

	if got := filepath.Base(s.ConversionLogPath()); got != "conversion_log.json" {
		t.Errorf("ConversionLogPath() base = %q, want conversion_log.json", got)
	}

	custom := New(dir, "my_log.json", nil)
	if got := filepath.Base(custom.ConversionLogPath()); got != "my_log.json" {
		t.Errorf("ConversionLogPath() base = %q, want my_log.json", got)
	}
}

func TestSortedPaths(t *testing.T) {
	m := map[string]ConvertedRecord{
		"/b/2.cr2": {},
		"/a/1.cr2": {},
		"/c/3.cr2": {},
	}

	got := SortedPaths(m)
	want := []string{"/a/1.cr2", "/b/2.cr2", "/c/3.cr2"}

	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("SortedPaths() = %v, want %v", got, want)
	}
}

func newTestStore(dir string, obs *recordingObserver) *Store {
	if obs == nil {
		return New(dir, "", nil)
	}
	return New(dir, "", obs)
}
