// Package cli содержит CLI интерфейс приложения.
package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kwad-pylot/Raw-Image-Converter/internal/config"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/deleter"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/gate"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/observer"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/store"
)

// newDeleteCmd создаёт команду delete.
func newDeleteCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Удалить исходники, конвертация которых подтверждена",
		Long: `Удаляет raw-файлы, для которых конвертация подтверждена журналом
и наличием JPEG на диске. Единственная необратимая операция утилиты:
без --force требуется явное подтверждение "yes".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.RootDir, "dir", "d", "", "Директория с журналами конвертации (обязательно)")
	flags.StringVar(&cfg.ConversionLog, "log", config.ConversionLogName,
		"Имя файла журнала конвертаций")
	flags.BoolVarP(&cfg.Force, "force", "f", false, "Удалять без подтверждения")
	flags.IntVar(&cfg.BatchSize, "batch", 0,
		"Лимит на количество удаляемых файлов за запуск (0 = без лимита)")

	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

// runDelete выполняет удаление подтверждённых исходников.
func runDelete(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	absRoot, err := filepath.Abs(cfg.RootDir)
	if err == nil {
		cfg.RootDir = absRoot
	}

	obs := observer.NewTerminal(os.Stdout, filepath.Join(cfg.RootDir, "deletion_log.log"))
	defer func() { _ = obs.Close() }()

	st := store.New(cfg.RootDir, cfg.ConversionLog, obs)
	confirm := gate.NewTerminal(os.Stdin, os.Stdout)

	deleter.New(cfg, st, confirm, obs).Run()
	return nil
}
