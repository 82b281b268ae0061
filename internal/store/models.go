// Package store содержит персистентное состояние конвертации.
package store

import "time"

// TimeFormat - формат отметок времени в журналах (ISO-8601).
const TimeFormat = time.RFC3339

// ConvertedRecord - запись об успешно сконвертированном файле.
// Создаётся ровно один раз в момент успешной конвертации и далее
// не изменяется.
type ConvertedRecord struct {
	// OutputPath - абсолютный путь к полученному JPEG.
	OutputPath string `json:"output_path"`

	// ConvertedAt - время конвертации (ISO-8601).
	ConvertedAt string `json:"converted_at"`

	// FileSize - размер исходного raw-файла в байтах.
	FileSize int64 `json:"file_size"`
}

// CorruptRecord - запись о файле, который не удалось сконвертировать.
type CorruptRecord struct {
	// Error - текст ошибки.
	Error string `json:"error"`

	// ErrorType - классифицированный тип ошибки (unsupported, corrupt, io, encode).
	ErrorType string `json:"error_type"`

	// DetectedAt - время обнаружения (ISO-8601).
	DetectedAt string `json:"detected_at"`

	// FileSize - размер исходного файла в байтах.
	FileSize int64 `json:"file_size"`
}

// DeletedRecord - запись об удалённом исходном файле.
type DeletedRecord struct {
	// DeletedAt - время удаления (ISO-8601).
	DeletedAt string `json:"deleted_at"`

	// OriginalSize - размер файла на момент удаления в байтах.
	OriginalSize int64 `json:"original_size"`

	// ConvertedTo - путь к JPEG, наличие которого было проверено
	// перед удалением.
	ConvertedTo string `json:"converted_to"`
}
