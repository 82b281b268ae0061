package deleter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kwad-pylot/Raw-Image-Converter/internal/config"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/gate"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/store"
)

func testSetup(t *testing.T) (*config.Config, *store.Store) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.RootDir = t.TempDir()
	return cfg, store.New(cfg.RootDir, cfg.ConversionLog, nil)
}

// addConverted создаёт исходник, выходной JPEG и запись в журнале.
func addConverted(t *testing.T, cfg *config.Config, st *store.Store,
	converted map[string]store.ConvertedRecord, name string) string {
	t.Helper()
	src := filepath.Join(cfg.RootDir, name)
	out := src[:len(src)-len(filepath.Ext(src))] + ".jpg"
	if err := os.WriteFile(src, make([]byte, 64), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(out, []byte("jpeg"), 0644); err != nil {
		t.Fatal(err)
	}
	converted[src] = store.ConvertedRecord{OutputPath: out, FileSize: 64}
	return src
}

func TestDeleter_PlanEligibility(t *testing.T) {
	cfg, st := testSetup(t)
	converted := map[string]store.ConvertedRecord{}

	eligible := addConverted(t, cfg, st, converted, "ok.cr2")

	// Исходник есть, но записанный JPEG отсутствует.
	noOut := addConverted(t, cfg, st, converted, "no_out.cr2")
	if err := os.Remove(converted[noOut].OutputPath); err != nil {
		t.Fatal(err)
	}

	// Запись есть, но исходник уже исчез.
	noSrc := addConverted(t, cfg, st, converted, "no_src.cr2")
	if err := os.Remove(noSrc); err != nil {
		t.Fatal(err)
	}

	// Файл на диске без записи в журнале в план не попадает:
	// в converted его просто нет.
	orphan := filepath.Join(cfg.RootDir, "orphan.cr2")
	if err := os.WriteFile(orphan, []byte("raw"), 0644); err != nil {
		t.Fatal(err)
	}

	st.SaveConverted(converted)

	plan := New(cfg, st, nil, nil).Plan()
	if len(plan) != 1 {
		t.Fatalf("Plan() = %d кандидатов, want 1", len(plan))
	}
	if plan[0].Path != eligible {
		t.Errorf("Plan()[0].Path = %q, want %q", plan[0].Path, eligible)
	}
}

func TestDeleter_PlanOrderAndBatch(t *testing.T) {
	cfg, st := testSetup(t)
	converted := map[string]store.ConvertedRecord{}
	for _, name := range []string{"c.cr2", "a.cr2", "b.cr2"} {
		addConverted(t, cfg, st, converted, name)
	}
	st.SaveConverted(converted)

	d := New(cfg, st, nil, nil)

	// Порядок - отсортированные пути.
	plan := d.Plan()
	if len(plan) != 3 {
		t.Fatalf("Plan() = %d кандидатов, want 3", len(plan))
	}
	for i, want := range []string{"a.cr2", "b.cr2", "c.cr2"} {
		if got := filepath.Base(plan[i].Path); got != want {
			t.Errorf("plan[%d] = %q, want %q", i, got, want)
		}
	}

	// Лимит усекает с начала, не случайной выборкой.
	cfg.BatchSize = 2
	plan = d.Plan()
	if len(plan) != 2 {
		t.Fatalf("Plan() с batch=2 = %d кандидатов, want 2", len(plan))
	}
	if filepath.Base(plan[0].Path) != "a.cr2" || filepath.Base(plan[1].Path) != "b.cr2" {
		t.Errorf("усечённый план = %v, want a.cr2, b.cr2", plan)
	}
}

func TestDeleter_RunBatch(t *testing.T) {
	cfg, st := testSetup(t)
	converted := map[string]store.ConvertedRecord{}
	var srcs []string
	for _, name := range []string{"a.cr2", "b.cr2", "c.cr2", "d.cr2", "e.cr2"} {
		srcs = append(srcs, addConverted(t, cfg, st, converted, name))
	}
	st.SaveConverted(converted)

	cfg.Force = true
	cfg.BatchSize = 1

	stats := New(cfg, st, nil, nil).Run()
	if stats.Deleted != 1 || stats.Skipped != 0 || stats.Errors != 0 {
		t.Errorf("stats = %+v, want Deleted=1", stats)
	}

	// Удалён ровно первый по порядку, остальные не тронуты.
	if _, err := os.Stat(srcs[0]); !os.IsNotExist(err) {
		t.Errorf("%s должен быть удалён", srcs[0])
	}
	for _, src := range srcs[1:] {
		if _, err := os.Stat(src); err != nil {
			t.Errorf("%s не должен быть тронут: %v", src, err)
		}
	}

	// JPEG остаётся на месте.
	if _, err := os.Stat(converted[srcs[0]].OutputPath); err != nil {
		t.Errorf("выходной JPEG должен остаться: %v", err)
	}

	deleted := st.LoadDeleted()
	if len(deleted) != 1 {
		t.Fatalf("журнал удалений: %d записей, want 1", len(deleted))
	}
	rec := deleted[srcs[0]]
	if rec.ConvertedTo != converted[srcs[0]].OutputPath {
		t.Errorf("ConvertedTo = %q, want %q", rec.ConvertedTo, converted[srcs[0]].OutputPath)
	}
	if rec.OriginalSize != 64 {
		t.Errorf("OriginalSize = %d, want 64", rec.OriginalSize)
	}
}

func TestDeleter_CancelledWithoutConfirmation(t *testing.T) {
	cfg, st := testSetup(t)
	converted := map[string]store.ConvertedRecord{}
	src := addConverted(t, cfg, st, converted, "a.cr2")
	st.SaveConverted(converted)

	confirm := &gate.Scripted{ConfirmAnswer: false}
	stats := New(cfg, st, confirm, nil).Run()

	if stats.Deleted != 0 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want Deleted=0 Skipped=1", stats)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("при отмене ничего не удаляется: %v", err)
	}
	if got := st.LoadDeleted(); len(got) != 0 {
		t.Errorf("журнал удалений должен быть пуст, got %d записей", len(got))
	}
}

func TestDeleter_ForceSkipsConfirmation(t *testing.T) {
	cfg, st := testSetup(t)
	converted := map[string]store.ConvertedRecord{}
	src := addConverted(t, cfg, st, converted, "a.cr2")
	st.SaveConverted(converted)

	// Confirmer не задан: с --force он и не нужен.
	cfg.Force = true
	stats := New(cfg, st, nil, nil).Run()

	if stats.Deleted != 1 {
		t.Errorf("Deleted = %d, want 1", stats.Deleted)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("исходник должен быть удалён при --force")
	}
}

func TestDeleter_EmptyPlan(t *testing.T) {
	cfg, st := testSetup(t)
	cfg.Force = true

	stats := New(cfg, st, nil, nil).Run()
	if stats.Deleted != 0 || stats.Skipped != 0 || stats.Errors != 0 {
		t.Errorf("stats = %+v, want нули", stats)
	}
}

func TestGroupByDir(t *testing.T) {
	plan := []Candidate{
		{Path: "/archive/2024/a.cr2"},
		{Path: "/archive/2024/b.cr2"},
		{Path: "/archive/2025/c.cr2"},
	}

	groups := GroupByDir(plan)
	if len(groups) != 2 {
		t.Fatalf("GroupByDir() = %d групп, want 2", len(groups))
	}
	if groups[0].Dir != "/archive/2024" || len(groups[0].Files) != 2 {
		t.Errorf("groups[0] = %+v, want 2024 с двумя файлами", groups[0])
	}
	if groups[1].Dir != "/archive/2025" || groups[1].Files[0] != "c.cr2" {
		t.Errorf("groups[1] = %+v, want 2025 с c.cr2", groups[1])
	}
}
