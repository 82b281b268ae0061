// Package scanner отвечает за поиск raw-файлов в дереве архива.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kwad-pylot/Raw-Image-Converter/internal/config"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/observer"
)

// File представляет найденный raw-файл.
type File struct {
	// Path - абсолютный путь к файлу.
	Path string

	// RelPath - путь относительно корня архива.
	RelPath string

	// Size - размер файла в байтах.
	Size int64

	// Info - информация о файле (для переноса отметок времени).
	Info os.FileInfo
}

// Scanner обходит дерево архива.
type Scanner struct {
	cfg *config.Config
	obs observer.Observer
}

// New создаёт новый Scanner.
func New(cfg *config.Config, obs observer.Observer) *Scanner {
	if obs == nil {
		obs = observer.Nop{}
	}
	return &Scanner{cfg: cfg, obs: obs}
}

// Scan обходит дерево и возвращает raw-файлы.
// Порядок стабилен между запусками: WalkDir идёт в лексикографическом
// порядке, родительские директории раньше вложенных. На этом держатся
// воспроизводимость процентов прогресса и периодического flush.
func (s *Scanner) Scan() ([]File, error) {
	var files []File

	err := filepath.WalkDir(s.cfg.RootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Нечитаемый элемент не прерывает обход всего архива.
			s.obs.Warn("Не удалось прочитать %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			// Пропускаем скрытые директории.
			name := d.Name()
			if path != s.cfg.RootDir && len(name) > 0 && name[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}

		// Пропускаем macOS metadata файлы (начинаются с ._).
		baseName := filepath.Base(path)
		if len(baseName) >= 2 && baseName[0] == '.' && baseName[1] == '_' {
			return nil
		}

		if !s.cfg.HasRawExtension(filepath.Ext(path)) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.obs.Warn("Не удалось получить информацию о файле %s: %v", path, err)
			return nil
		}

		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}

		relPath, err := filepath.Rel(s.cfg.RootDir, path)
		if err != nil {
			relPath = filepath.Base(path)
		}

		files = append(files, File{
			Path:    absPath,
			RelPath: relPath,
			Size:    info.Size(),
			Info:    info,
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("не удалось обойти директорию %s: %w", s.cfg.RootDir, err)
	}

	return files, nil
}

/*
Возможные расширения:
- Добавить поддержку symlinks
- Добавить exclude-паттерны
*/
