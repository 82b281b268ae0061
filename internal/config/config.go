// Package config содержит конфигурацию приложения.
package config

import (
	"fmt"
	"os"
	"strings"
)

// DefaultRequiredSpaceMB - порог свободного места по умолчанию (МБ).
const DefaultRequiredSpaceMB = 500

// DefaultQuality - качество JPEG по умолчанию.
const DefaultQuality = 95

// ConversionLogName - имя журнала успешных конвертаций.
const ConversionLogName = "conversion_log.json"

// CorruptLogName - имя журнала повреждённых файлов.
const CorruptLogName = "corrupt_files.json"

// DeletionLogName - имя журнала удалений.
const DeletionLogName = "deletion_log.json"

// Config содержит все настройки утилиты.
type Config struct {
	// RootDir - корневая директория архива. Конвертация выполняется
	// на месте: JPEG кладётся рядом с исходным raw-файлом.
	RootDir string

	// RequiredSpaceMB - требуемый запас свободного места в МБ.
	RequiredSpaceMB int

	// Quality - качество выходного JPEG (1-100).
	Quality int

	// RawExtensions - расширения raw-файлов (lowercase, без точки).
	RawExtensions []string

	// ConversionLog - имя файла converted-партиции (флаг --log).
	ConversionLog string

	// Force - игнорировать предупреждения о нехватке места.
	Force bool

	// SkipCorrupt - пропускать файлы из журнала повреждённых.
	// По умолчанию выключено: повреждённый файл пробуется снова
	// при каждом запуске (временная ошибка - не приговор).
	SkipCorrupt bool

	// Watch - после обработки архива следить за новыми файлами.
	Watch bool

	// NoProgress - отключить прогресс-бар.
	NoProgress bool

	// Verbose - подробный вывод (сообщения о пропусках, предупреждения
	// при переносе метаданных).
	Verbose bool

	// VipsPath - путь к бинарнику vips (опционально).
	VipsPath string

	// BatchSize - лимит на количество удаляемых файлов за запуск
	// (0 = без лимита). Используется только командой delete.
	BatchSize int
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() *Config {
	return &Config{
		RequiredSpaceMB: DefaultRequiredSpaceMB,
		Quality:         DefaultQuality,
		RawExtensions: []string{
			"cr2", "rw2", "arw", "nef", "orf", "dng", "raf", "pef", "srw",
		},
		ConversionLog: ConversionLogName,
	}
}

// Validate проверяет корректность конфигурации.
// Невалидная корневая директория - единственная предусловная ошибка,
// прерывающая запуск до начала обработки.
func (c *Config) Validate() error {
	if c.RootDir == "" {
		return fmt.Errorf("корневая директория не указана (--dir)")
	}
	info, err := os.Stat(c.RootDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("директория %q не существует или не является директорией", c.RootDir)
	}
	if c.RequiredSpaceMB <= 0 {
		return fmt.Errorf("порог свободного места должен быть > 0, получено: %d", c.RequiredSpaceMB)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("качество должно быть от 1 до 100, получено: %d", c.Quality)
	}
	if len(c.RawExtensions) == 0 {
		return fmt.Errorf("не указаны расширения raw-файлов")
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("размер batch не может быть отрицательным: %d", c.BatchSize)
	}
	if c.ConversionLog == "" {
		c.ConversionLog = ConversionLogName
	}
	return nil
}

// HasRawExtension проверяет, является ли расширение файла raw-форматом.
func (c *Config) HasRawExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, e := range c.RawExtensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

/*
Возможные расширения:
- Добавить выбор выходного формата (webp, png) вместо фиксированного JPEG
- Добавить exclude-паттерны для поддиректорий
- Добавить отдельную выходную директорию вместо конвертации на месте
*/
