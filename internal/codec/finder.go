// Package codec определяет границу с внешними коллабораторами конвертации.
package codec

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// VipsInfo содержит информацию о найденном vips.
type VipsInfo struct {
	// Path - абсолютный путь к бинарнику vips.
	Path string

	// Version - версия vips (например, "8.14.2").
	Version string
}

// Finder ищет бинарник vips.
type Finder struct {
	// CustomPath - пользовательский путь к vips (из флага --vips-path).
	CustomPath string

	// EnvVar - имя переменной окружения для пути к vips.
	EnvVar string
}

// NewFinder создаёт новый Finder.
func NewFinder(customPath string) *Finder {
	return &Finder{
		CustomPath: customPath,
		EnvVar:     "RAWCONV_VIPS",
	}
}

// Find ищет vips в следующем порядке:
// 1. CustomPath (если задан)
// 2. Переменная окружения RAWCONV_VIPS
// 3. PATH
// 4. Рядом с исполняемым файлом в ./bin/<os-arch>/vips
func (f *Finder) Find() (*VipsInfo, error) {
	var candidates []string

	if f.CustomPath != "" {
		candidates = append(candidates, f.CustomPath)
	}

	if envPath := os.Getenv(f.EnvVar); envPath != "" {
		candidates = append(candidates, envPath)
	}

	if pathVips, err := exec.LookPath("vips"); err == nil {
		candidates = append(candidates, pathVips)
	}

	if exePath, err := os.Executable(); err == nil {
		name := "vips"
		if runtime.GOOS == "windows" {
			name = "vips.exe"
		}
		bundled := filepath.Join(filepath.Dir(exePath), "bin",
			fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH), name)
		candidates = append(candidates, bundled)
	}

	for _, candidate := range candidates {
		info, err := probe(candidate)
		if err == nil {
			return info, nil
		}
	}

	return nil, fmt.Errorf("vips не найден: укажите путь через --vips-path или %s", f.EnvVar)
}

// probe проверяет кандидата и извлекает версию.
func probe(path string) (*VipsInfo, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	out, err := exec.Command(path, "--version").Output()
	if err != nil {
		return nil, fmt.Errorf("%s не запускается: %w", path, err)
	}

	// Вывод вида "vips-8.14.2-..."
	version := strings.TrimSpace(string(out))
	if idx := strings.Index(version, "vips-"); idx >= 0 {
		version = version[idx+len("vips-"):]
		if dash := strings.Index(version, "-"); dash > 0 {
			version = version[:dash]
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return &VipsInfo{Path: abs, Version: version}, nil
}
