// Package config содержит конфигурацию приложения.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfigName - имя опционального файла конфигурации в корне архива.
const FileConfigName = ".rawconv.yaml"

// FileConfig представляет структуру конфигурационного файла YAML.
// Все поля опциональны - если не указаны, используются значения по умолчанию.
// Флаги командной строки всегда имеют приоритет над файлом.
type FileConfig struct {
	// RequiredSpaceMB - требуемый запас свободного места в МБ.
	RequiredSpaceMB int `yaml:"required_space_mb,omitempty"`

	// Quality - качество выходного JPEG (1-100).
	Quality int `yaml:"quality,omitempty"`

	// RawExtensions - расширения raw-файлов.
	RawExtensions []string `yaml:"raw_extensions,omitempty"`

	// SkipCorrupt - пропускать ранее помеченные повреждённые файлы.
	SkipCorrupt *bool `yaml:"skip_corrupt,omitempty"`

	// VipsPath - путь к бинарнику vips.
	VipsPath string `yaml:"vips_path,omitempty"`
}

// LoadFileConfig читает .rawconv.yaml из указанной директории.
// Отсутствие файла не является ошибкой - возвращается nil.
func LoadFileConfig(dir string) (*FileConfig, error) {
	path := filepath.Join(dir, FileConfigName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("не удалось прочитать %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("не удалось разобрать %s: %w", path, err)
	}

	return &fc, nil
}

// Apply накладывает значения из файла на конфигурацию.
// Применяются только заполненные поля.
func (fc *FileConfig) Apply(c *Config) {
	if fc == nil {
		return
	}
	if fc.RequiredSpaceMB > 0 {
		c.RequiredSpaceMB = fc.RequiredSpaceMB
	}
	if fc.Quality > 0 {
		c.Quality = fc.Quality
	}
	if len(fc.RawExtensions) > 0 {
		c.RawExtensions = fc.RawExtensions
	}
	if fc.SkipCorrupt != nil {
		c.SkipCorrupt = *fc.SkipCorrupt
	}
	if fc.VipsPath != "" {
		c.VipsPath = fc.VipsPath
	}
}
