package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s/ecourse/internal/cache"
	"github.com/s/ecourse/internal/config"
	"github.com/s/ecourse/internal/database"
	"github.com/s/ecourse/internal/logger"
)

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load categories, courses, lessons and tags from a YAML catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return seed(cmd.Context(), file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog file to load")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func seed(ctx context.Context, file string) error {
	if file == "" {
		return errors.New("--file is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	log := logger.CLI()

	if cfg.Database.URL == "" {
		return errors.New("database url is required (DATABASE_URL)")
	}

	catalog, err := database.LoadCatalog(file)
	if err != nil {
		return err
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if err := database.Seed(db, catalog); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	// Categories may have changed under the cached list.
	if cfg.Redis.Addr != "" {
		rc, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("could not invalidate category cache", "error", err)
		} else {
			defer rc.Close()
			if err := rc.Delete(ctx, cache.CategoriesKey); err != nil {
				log.Warn("could not invalidate category cache", "error", err)
			}
		}
	}

	log.Info("catalog loaded", "file", file, "categories", len(catalog.Categories))
	return nil
}
