package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/croissant/internal/config"
	"github.com/jask/croissant/internal/database"
	"github.com/jask/croissant/internal/database/repository"
	"github.com/jask/croissant/internal/prefs"
	"github.com/jask/croissant/internal/service"
	"github.com/jask/croissant/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	for _, p := range []string{cfg.Database.Path, cfg.Prefs.Path, cfg.Log.Path} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			log.Fatalf("mkdir %s: %v", filepath.Dir(p), err)
		}
	}

	if err := database.Migrate(cfg.Database.Path, cfg.Database.DestructiveFallback); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if cfg.Demo.Seed {
		if err := database.SeedDemo(ctx, db); err != nil {
			log.Fatalf("seed demo: %v", err)
		}
	}

	store, err := prefs.Open(cfg.Prefs.Path)
	if err != nil {
		log.Fatalf("prefs: %v", err)
	}

	// repositories
	userRepo := repository.NewFollowedUserRepo(db)
	postRepo := repository.NewPostRepo(db)

	services := tui.Services{
		Follow:      &service.FollowService{Users: userRepo, Prefs: store},
		Feed:        &service.FeedService{Posts: postRepo, Prefs: store},
		Maintenance: &service.MaintenanceService{DB: db},
	}

	if cfg.Feed.ImportPath != "" {
		importSnapshot(ctx, services.Feed, cfg.Feed.ImportPath)
	}

	// the alt screen owns the terminal from here on
	logFile, err := tea.LogToFile(cfg.Log.Path, "croissant")
	if err != nil {
		log.Fatalf("log file: %v", err)
	}
	defer logFile.Close()

	app := tui.New(ctx, services, tui.Options{
		ToastDuration: time.Duration(cfg.UI.ToastSeconds) * time.Second,
		DateFormat:    cfg.UI.DateFormat,
		FeedCount:     cfg.UI.FeedCount,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
	if err := app.Close(); err != nil {
		log.Printf("flush pending writes: %v", err)
	}
}

func importSnapshot(ctx context.Context, feed *service.FeedService, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("feed import: %v", err)
		return
	}
	defer f.Close()
	res, err := feed.Import(ctx, f)
	if err != nil {
		log.Printf("feed import %s: %v", path, err)
		return
	}
	log.Printf("feed import %s: stored %d, skipped %d, duplicates %d", path, res.Stored, res.Skipped, res.Duplicates)
	for _, e := range res.Errors {
		log.Printf("feed import %s: %v", path, e)
	}
}
