package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sanketpal/filevault"
	"github.com/sanketpal/filevault/config"
	"github.com/sanketpal/filevault/database"
	"github.com/sanketpal/filevault/filesystem"
)

// openStorage opens the configured storage directory as a sandboxed root,
// creating it if needed.
func openStorage(cfg *config.Config) (*filesystem.Store, func(), error) {
	if err := os.MkdirAll(cfg.Storage.Path, 0o750); err != nil {
		return nil, nil, fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage root: %w", err)
	}

	return filesystem.NewBlobStorage(root), func() { _ = root.Close() }, nil
}

// buildFileService connects the database and storage and assembles the file
// service. The returned cleanup closes both.
func buildFileService(ctx context.Context, cfg *config.Config) (*filevault.FileService, database.Repos, func(), error) {
	repos, closeDB, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, database.Repos{}, nil, fmt.Errorf("connect database: %w", err)
	}

	storage, closeStorage, err := openStorage(cfg)
	if err != nil {
		closeDB()
		return nil, database.Repos{}, nil, err
	}

	service, err := filevault.NewFileService(repos.Files, storage, filevault.ServiceConfig{
		CleanupTimeout: time.Duration(cfg.Service.CleanupTimeout) * time.Second,
	})
	if err != nil {
		closeStorage()
		closeDB()
		return nil, database.Repos{}, nil, fmt.Errorf("create file service: %w", err)
	}

	cleanup := func() {
		closeStorage()
		closeDB()
	}

	return service, repos, cleanup, nil
}
