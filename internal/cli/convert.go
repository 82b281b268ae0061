// Package cli содержит CLI интерфейс приложения.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kwad-pylot/Raw-Image-Converter/internal/codec"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/config"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/convert"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/diskspace"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/gate"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/observer"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/progress"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/store"
	"github.com/kwad-pylot/Raw-Image-Converter/internal/watcher"
)

// newConvertCmd создаёт команду convert.
func newConvertCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Конвертировать raw-файлы архива в JPEG",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.RootDir, "dir", "d", "", "Корневая директория архива (обязательно)")
	flags.IntVarP(&cfg.RequiredSpaceMB, "space", "s", cfg.RequiredSpaceMB,
		"Требуемый запас свободного места в МБ")
	flags.IntVar(&cfg.Quality, "quality", cfg.Quality, "Качество выходного JPEG (1-100)")
	flags.BoolVarP(&cfg.Force, "force", "f", false,
		"Продолжать несмотря на предупреждения о нехватке места")
	flags.BoolVar(&cfg.SkipCorrupt, "skip-corrupt", false,
		"Пропускать файлы из журнала повреждённых (по умолчанию они пробуются снова)")
	flags.BoolVar(&cfg.Watch, "watch", false,
		"После обработки архива следить за появлением новых raw-файлов")
	flags.BoolVar(&cfg.NoProgress, "no-progress", false, "Отключить прогресс-бар")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Подробный вывод")
	flags.StringVar(&cfg.VipsPath, "vips-path", "", "Путь к бинарнику vips")

	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

// runConvert выполняет основную логику конвертации.
func runConvert(cmd *cobra.Command, cfg *config.Config) error {
	// Файл .rawconv.yaml в корне архива задаёт значения по умолчанию;
	// явно указанные флаги всегда важнее.
	applyFileConfig(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	absRoot, err := filepath.Abs(cfg.RootDir)
	if err == nil {
		cfg.RootDir = absRoot
	}

	// Контекст с обработкой сигналов завершения.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n⚠️  Получен сигнал завершения, останавливаем...")
		cancel()
	}()

	// Наблюдатель: консоль + файл журнала в корне архива.
	obs := observer.NewTerminal(os.Stdout, filepath.Join(cfg.RootDir, "raw_conversion.log"))
	defer func() { _ = obs.Close() }()

	obs.Info("Начинаем конвертацию raw-архива")
	obs.Info("Корневая директория: %s", cfg.RootDir)

	// Ищем vips.
	finder := codec.NewFinder(cfg.VipsPath)
	vipsInfo, err := finder.Find()
	if err != nil {
		return err
	}
	obs.Info("📦 Найден vips: %s (версия %s)", vipsInfo.Path, vipsInfo.Version)

	vips := codec.NewVips(vipsInfo.Path)
	exif := codec.NewExifTool()

	st := store.New(cfg.RootDir, cfg.ConversionLog, obs)
	monitor := diskspace.New(cfg.RootDir, cfg.RequiredSpaceMB, obs)
	terminalGate := gate.NewTerminal(os.Stdin, os.Stdout)

	runner := convert.NewRunner(convert.Options{
		Config:   cfg,
		Store:    st,
		Monitor:  monitor,
		Gate:     terminalGate,
		Confirm:  terminalGate,
		Decoder:  vips,
		Encoder:  vips,
		Metadata: exif,
		Observer: obs,
		NewBar: func(total, previouslyDone int64) *progress.Bar {
			bar := progress.New(progress.Options{
				Total:          total,
				PreviouslyDone: previouslyDone,
				Description:    "Конвертация",
				Disabled:       cfg.NoProgress || cfg.Watch,
			})
			obs.SetBar(bar)
			return bar
		},
	})

	if _, err := runner.Run(ctx); err != nil {
		return err
	}

	// В режиме --watch контроллер отложил итоги: печатаем их один раз
	// после сессии слежения, даже если она не смогла начаться.
	if cfg.Watch && !runner.Aborted() && ctx.Err() == nil {
		err := runWatch(ctx, cfg, runner, obs)
		runner.Finish()
		if err != nil {
			return err
		}
	}

	return nil
}

// runWatch дообрабатывает файлы, появляющиеся в архиве после основного
// прохода. Файлы идут через тот же последовательный контроллер.
func runWatch(ctx context.Context, cfg *config.Config, runner *convert.Runner, obs observer.Observer) error {
	w, err := watcher.New(cfg, obs)
	if err != nil {
		return err
	}

	files, err := w.Watch(ctx)
	if err != nil {
		return err
	}

	obs.Info("👀 Следим за новыми raw-файлами (Ctrl+C для выхода)...")

	for f := range files {
		runner.AddTotal(1)
		runner.ProcessOne(ctx, f)
		if runner.Aborted() {
			break
		}
	}

	return nil
}

// applyFileConfig накладывает .rawconv.yaml, не перекрывая явные флаги.
func applyFileConfig(cmd *cobra.Command, cfg *config.Config) {
	if cfg.RootDir == "" {
		return
	}

	fc, err := config.LoadFileConfig(cfg.RootDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  %v\n", err)
		return
	}
	if fc == nil {
		return
	}

	// Запоминаем значения флагов, указанные явно.
	explicit := map[string]bool{
		"space":        cmd.Flags().Changed("space"),
		"quality":      cmd.Flags().Changed("quality"),
		"skip-corrupt": cmd.Flags().Changed("skip-corrupt"),
		"vips-path":    cmd.Flags().Changed("vips-path"),
	}

	saved := *cfg
	fc.Apply(cfg)

	if explicit["space"] {
		cfg.RequiredSpaceMB = saved.RequiredSpaceMB
	}
	if explicit["quality"] {
		cfg.Quality = saved.Quality
	}
	if explicit["skip-corrupt"] {
		cfg.SkipCorrupt = saved.SkipCorrupt
	}
	if explicit["vips-path"] {
		cfg.VipsPath = saved.VipsPath
	}
}
