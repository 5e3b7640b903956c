package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/drake/vidwall/internal/adapter"
	"github.com/drake/vidwall/internal/domain"
	"github.com/drake/vidwall/internal/grid"
	"github.com/drake/vidwall/internal/scanner"
	"github.com/drake/vidwall/internal/store"
	"github.com/drake/vidwall/internal/thumbs"
	"github.com/drake/vidwall/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	var libraryRoot string
	var initConfig bool
	var clearCache bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&libraryRoot, "root", "", "library root (overrides config)")
	flag.BoolVar(&initConfig, "init-config", false, "write the default config file and exit")
	flag.BoolVar(&clearCache, "clear-cache", false, "delete all cached thumbnails and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("vidwall %s\n", Version)
		return
	}

	if initConfig {
		if err := adapter.SaveConfig(adapter.DefaultConfig()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if clearCache {
		cfg, err := adapter.LoadConfig()
		if err == nil {
			err = adapter.ClearCache(cfg)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(libraryRoot); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(libraryRoot string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("vidwall needs an interactive terminal")
	}

	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if libraryRoot != "" {
		cfg.Library.Root = libraryRoot
	}

	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting vidwall", "version", Version, "root", cfg.Library.Root)

	meta, err := store.Open(adapter.DataPath())
	if err != nil {
		return fmt.Errorf("failed to open metadata store: %w", err)
	}
	defer meta.Close()

	generator, err := thumbs.NewGenerator(thumbs.Config{
		CacheDir:      cfg.Thumbs.CacheDir,
		MaxCacheBytes: cfg.Thumbs.MaxCacheMB << 20,
		Width:         cfg.Thumbs.Width,
		PerSecond:     cfg.Thumbs.PerSecond,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create thumbnail cache: %w", err)
	}
	if err := generator.Prune(); err != nil {
		logger.Warn("thumbnail cache prune failed", "error", err)
	}

	engine := grid.NewEngine(grid.Config{
		MaxActive:      cfg.Engine.MaxActive,
		MaxAttempts:    cfg.Engine.MaxAttempts,
		BaseRetryDelay: time.Duration(cfg.Engine.BaseRetryMS) * time.Millisecond,
		StuckTimeout:   time.Duration(cfg.Engine.StuckTimeoutSec) * time.Second,
	}, logger)
	restoreSession(engine, meta)

	loop := grid.NewLoop(engine, time.Duration(cfg.Engine.AuditIntervalSec)*time.Second, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	source := scanner.New(cfg.Library.Root, logger)

	var rescans <-chan struct{}
	watcher, err := scanner.NewWatcher(cfg.Library.Root,
		time.Duration(cfg.Library.WatchDebounceMS)*time.Millisecond, logger)
	if err != nil {
		// Watching is best-effort; manual rescan still works
		logger.Warn("file watching unavailable", "error", err)
	} else {
		rescans = watcher.Rescans()
		go watcher.Run(ctx)
	}

	launcher := adapter.NewLauncher(cfg.Player.Command, cfg.Player.Args, logger)

	model := tui.NewModel(tui.Options{
		Engine:        engine,
		Loop:          loop,
		Thumbs:        generator,
		Launcher:      launcher,
		Store:         meta,
		Source:        source,
		Rescans:       rescans,
		Columns:       cfg.UI.Columns,
		AdmissionRows: cfg.UI.AdmissionBuffer,
		RetentionRows: cfg.UI.RetentionBuffer,
		Logger:        logger,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// restoreSession reapplies the persisted view state so a restart lands on
// the same wall, including the shuffle order.
func restoreSession(engine *grid.Engine, meta *store.MetaStore) {
	prefs, ok := meta.Session()
	if !ok {
		return
	}
	c := engine.Criteria()
	c.Folder = prefs.Folder
	c.FolderSet = prefs.FolderSet
	c.View = prefs.View
	engine.SetFilter(c)
	engine.SetSortSpec(domain.SortSpec{Mode: prefs.Sort, Seed: prefs.Seed})
}
