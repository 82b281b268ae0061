// Package cli содержит CLI интерфейс приложения.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version будет установлена при сборке.
	Version = "dev"

	// BuildTime будет установлена при сборке.
	BuildTime = "unknown"
)

// NewRootCmd создаёт корневую команду CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rawconv",
		Short: "Утилита для пакетной конвертации raw-архивов в JPEG",
		Long: `RawConv - утилита для безнадзорной конвертации больших фотоархивов.

Рекурсивно обходит директорию, конвертирует каждый raw-файл (CR2, RW2,
ARW, NEF, ORF, DNG, RAF, PEF, SRW) в JPEG рядом с исходником и ведёт
журналы прогресса. Запуск можно прерывать и повторять: уже обработанные
файлы пропускаются по журналу или по существующему JPEG. Свободное
место контролируется адаптивно, с предсказанием нехватки и паузой.

Отдельная команда delete удаляет исходники, для которых конвертация
подтверждена журналом и наличием JPEG на диске.

Примеры:
  # Конвертировать архив с порогом свободного места 1 ГБ
  rawconv convert --dir /photos/archive --space 1000

  # Продолжить прерванную конвертацию (уже обработанное пропустится)
  rawconv convert --dir /photos/archive

  # Удалить исходники, проверив план, не больше 100 за раз
  rawconv delete --dir /photos/archive --batch 100`,
	}

	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newVersionCmd создаёт команду version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Показать версию",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rawconv %s (built %s)\n", Version, BuildTime)
		},
	}
}

// Execute запускает CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		// Не выводим ошибку, cobra уже вывела
		os.Exit(1)
	}
}
