package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pwnholic/docexport/internal"
	"github.com/pwnholic/docexport/internal/cache"
	"github.com/pwnholic/docexport/internal/clients"
	"github.com/pwnholic/docexport/internal/config"
	"github.com/pwnholic/docexport/internal/exports"
	"github.com/pwnholic/docexport/internal/sources"
	"github.com/pwnholic/docexport/internal/storage"
)

func loadConfig(flag *Flag) (*config.Config, error) {
	cfg, err := config.Load(flag.ConfigFile)
	if err != nil {
		return nil, err
	}

	cfg.Layout.Merge(&config.LayoutConfig{
		PaperSize:    flag.PaperSize,
		Orientation:  flag.Orientation,
		ItemsPerPage: flag.ItemsPerPage,
	})
	if flag.Verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func loadDocuments(ctx context.Context, flag *Flag, fetcher sources.Fetcher) ([]sources.Document, error) {
	var (
		docs []sources.Document
		err  error
	)
	if flag.Manifest != "" {
		docs, err = sources.LoadManifest(flag.Manifest)
	} else {
		docs, err = sources.LoadDirs(flag.Dirs)
	}
	if err != nil {
		return nil, err
	}

	internal.Info("Probing %d source pages with %d max workers", sources.TotalPages(docs), flag.MaxConcurrent)
	return sources.Probe(ctx, docs, fetcher, flag.MaxConcurrent)
}

func run(ctx context.Context, flag *Flag) (string, error) {
	cfg, err := loadConfig(flag)
	if err != nil {
		return "", err
	}

	internal.InitDefaultLogger(cfg.Logging.LogLevel())
	logger := internal.GetDefaultLogger()
	logger.SetLevel(cfg.Logging.LogLevel())

	httpOpts := &clients.HTTPClientOptions{
		RetryCount:       cfg.HTTP.Retries(),
		RetryWaitTime:    cfg.HTTP.RetryWaitDuration(),
		RetryMaxWaitTime: 2 * cfg.HTTP.RetryWaitDuration(),
		TimeOut:          cfg.HTTP.TimeoutDuration(),
		UserAgent:        cfg.HTTP.UserAgent,
		MaxImageSize:     cfg.HTTP.MaxImageSizeBytes(),
	}
	imageClient := clients.NewImageClient(httpOpts)
	defer imageClient.Close()

	fetcher := sources.Router{Remote: imageClient}

	docs, err := loadDocuments(ctx, flag, fetcher)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(cfg.Output.TempDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	tree, err := storage.NewTree(cfg.Storage.BasePath, logger)
	if err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}

	exporter := exports.NewExporter(
		cache.NewDecoder(fetcher, cfg.Render.ImageQuality),
		exports.NewOptimizer(),
		tree,
	)
	exporter.Renderer = exports.NewRenderer(cfg.Render.Scale, cfg.Render.MarginPoints())
	exporter.Logger = logger
	exporter.TempDir = cfg.Output.TempDir
	exporter.Quality = cfg.Output.CompressQuality
	exporter.MaxOutputSize = cfg.Output.MaxSizeBytes()

	folder := flag.Destination
	if folder == "" {
		folder = cfg.Output.Folder
	}

	return exporter.Export(ctx, docs, exports.Options{
		Layout:   cfg.Layout.Layout(),
		Folder:   folder,
		Filename: flag.Filename,
	})
}
