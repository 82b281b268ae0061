// Package watcher предоставляет режим слежения за архивом (--watch).
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kwad-pylot/Raw-Image-Converter/internal/config"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/observer"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/scanner"
)

// Watcher следит за деревом архива и отдаёт новые raw-файлы по одному.
// Потребитель (последовательный контроллер конвертации) читает канал
// в своём темпе; параллельной обработки не возникает.
type Watcher struct {
	// cfg - конфигурация.
	cfg *config.Config

	// obs - наблюдатель для ошибок слежения.
	obs observer.Observer

	// watcher - fsnotify watcher.
	watcher *fsnotify.Watcher

	// debounceTime - пауза перед обработкой файла.
	// Нужна, чтобы файл успел полностью записаться (копирование с
	// карты памяти идёт небыстро).
	debounceTime time.Duration

	// pending - файлы, ожидающие окончания записи.
	pending map[string]time.Time
	mu      sync.Mutex
}

// New создаёт новый Watcher.
func New(cfg *config.Config, obs observer.Observer) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("не удалось создать watcher: %w", err)
	}
	if obs == nil {
		obs = observer.Nop{}
	}

	return &Watcher{
		cfg:          cfg,
		obs:          obs,
		watcher:      w,
		debounceTime: 500 * time.Millisecond,
		pending:      make(map[string]time.Time),
	}, nil
}

// SetDebounceTime устанавливает время debounce.
func (w *Watcher) SetDebounceTime(d time.Duration) {
	w.debounceTime = d
}

// Watch запускает слежение и возвращает канал с новыми файлами.
// Канал закрывается только после выхода обеих горутин: закрытие под
// заблокированным отправителем невозможно.
func (w *Watcher) Watch(ctx context.Context) (<-chan scanner.File, error) {
	if err := w.addRecursive(w.cfg.RootDir); err != nil {
		return nil, err
	}

	files := make(chan scanner.File, 100)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.processEvents(ctx)
	}()
	go func() {
		defer wg.Done()
		w.processPending(ctx, files)
	}()
	go func() {
		wg.Wait()
		_ = w.watcher.Close()
		close(files)
	}()

	return files, nil
}

// addRecursive добавляет директорию и все поддиректории в watcher.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if path != dir && len(name) > 0 && name[0] == '.' {
				return filepath.SkipDir
			}
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("не удалось добавить директорию %s: %w", path, err)
			}
		}
		return nil
	})
}

// processEvents обрабатывает события от fsnotify.
func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}

			if info.IsDir() {
				// Новая директория - добавляем в watcher.
				if event.Op&fsnotify.Create != 0 {
					_ = w.watcher.Add(event.Name)
				}
				continue
			}

			if !w.cfg.HasRawExtension(filepath.Ext(event.Name)) {
				continue
			}

			w.mu.Lock()
			w.pending[event.Name] = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.obs.Warn("Ошибка слежения за архивом: %v", err)
		}
	}
}

// processPending периодически проверяет отлежавшиеся файлы.
func (w *Watcher) processPending(ctx context.Context, files chan<- scanner.File) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.checkPending(ctx, files)
		}
	}
}

// checkPending отправляет файлы, пережившие debounce.
// Отправка прерывается отменой контекста: потребитель мог перестать
// читать канал, а полный буфер не должен держать горутину вечно.
func (w *Watcher) checkPending(ctx context.Context, files chan<- scanner.File) {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, addedAt := range w.pending {
		if now.Sub(addedAt) < w.debounceTime {
			continue
		}
		delete(w.pending, path)
		ready = append(ready, path)
	}
	w.mu.Unlock()

	sort.Strings(ready)

	for _, path := range ready {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}

		relPath, err := filepath.Rel(w.cfg.RootDir, path)
		if err != nil {
			relPath = filepath.Base(path)
		}

		select {
		case files <- scanner.File{
			Path:    absPath,
			RelPath: relPath,
			Size:    info.Size(),
			Info:    info,
		}:
		case <-ctx.Done():
			return
		}
	}
}

// Close закрывает watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

/*
Возможные расширения:
- Добавить обработку переименования файлов
- Добавить rate limiting при массовом копировании
*/
