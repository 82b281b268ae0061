package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kwad-pylot/Raw-Image-Converter/internal/config"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/observer"
)

func testConfig(root string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.RootDir = root
	return cfg
}

// recordingObserver запоминает предупреждения для проверок.
type recordingObserver struct {
	warnings []string
}

func (r *recordingObserver) Info(string, ...interface{}) {}
func (r *recordingObserver) Warn(format string, args ...interface{}) {
	r.warnings = append(r.warnings, format)
}
func (r *recordingObserver) Error(string, ...interface{}) {}
func (r *recordingObserver) Progress(observer.Snapshot)   {}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("raw"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScanner_Scan(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "2024", "IMG_0001.CR2"))
	touch(t, filepath.Join(dir, "2024", "IMG_0002.cr2"))
	touch(t, filepath.Join(dir, "2025", "shot.rw2"))
	touch(t, filepath.Join(dir, "2025", "shot.jpg"))
	touch(t, filepath.Join(dir, "notes.txt"))

	files, err := New(testConfig(dir), nil).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("Scan() нашёл %d файлов, want 3", len(files))
	}

	// Порядок лексикографический и стабильный между запусками.
	wantRel := []string{
		filepath.Join("2024", "IMG_0001.CR2"),
		filepath.Join("2024", "IMG_0002.cr2"),
		filepath.Join("2025", "shot.rw2"),
	}
	for i, f := range files {
		if f.RelPath != wantRel[i] {
			t.Errorf("files[%d].RelPath = %q, want %q", i, f.RelPath, wantRel[i])
		}
		if !filepath.IsAbs(f.Path) {
			t.Errorf("files[%d].Path = %q, want абсолютный путь", i, f.Path)
		}
		if f.Size != 3 {
			t.Errorf("files[%d].Size = %d, want 3", i, f.Size)
		}
	}
}

func TestScanner_SkipsHiddenAndMetadata(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "album", "good.cr2"))
	touch(t, filepath.Join(dir, ".trash", "deleted.cr2"))
	touch(t, filepath.Join(dir, "album", "._good.cr2"))

	files, err := New(testConfig(dir), nil).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(files) != 1 {
		t.Fatalf("Scan() нашёл %d файлов, want 1", len(files))
	}
	if filepath.Base(files[0].Path) != "good.cr2" {
		t.Errorf("найден %q, want good.cr2", files[0].Path)
	}
}

func TestScanner_UnreadableDirWarns(t *testing.T) {
	// Нечитаемая поддиректория не прерывает обход: предупреждение
	// уходит наблюдателю, остальное дерево обрабатывается.
	if os.Geteuid() == 0 {
		t.Skip("под root права доступа не действуют")
	}

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "ok.cr2"))
	locked := filepath.Join(dir, "locked")
	touch(t, filepath.Join(locked, "unreachable.cr2"))
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	obs := &recordingObserver{}
	files, err := New(testConfig(dir), obs).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(files) != 1 || filepath.Base(files[0].Path) != "ok.cr2" {
		t.Errorf("Scan() = %v, want только ok.cr2", files)
	}
	if len(obs.warnings) == 0 {
		t.Error("нечитаемая директория должна дать предупреждение наблюдателю")
	}
}

func TestScanner_EmptyTree(t *testing.T) {
	files, err := New(testConfig(t.TempDir()), nil).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("Scan() нашёл %d файлов в пустом дереве, want 0", len(files))
	}
}
