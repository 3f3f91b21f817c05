package exports

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/google/uuid"

	"github.com/pwnholic/docexport/internal"
	"github.com/pwnholic/docexport/internal/cache"
	"github.com/pwnholic/docexport/internal/delivery"
	"github.com/pwnholic/docexport/internal/layout"
	"github.com/pwnholic/docexport/internal/sources"
	"github.com/pwnholic/docexport/internal/storage"
)

var (
	ErrBusy             = errors.New("exports: export already running")
	ErrNothingToExport  = errors.New("exports: no source pages")
	ErrIllegalStateStep = errors.New("exports: illegal state transition")
)

// Options are the per-call export parameters.
type Options struct {
	Layout layout.Config
	// Folder is a directory or a scheme:// provider destination.
	// Defaults to the exporter's temp directory.
	Folder string
	// Filename defaults to the current unix time in milliseconds.
	Filename string
}

// Exporter drives one export at a time through planning, rendering,
// finalizing, compression and delivery.
type Exporter struct {
	NewDocument DocumentFactory
	Renderer    *Renderer
	Loader      cache.Loader
	Compressor  Compressor
	Resolver    storage.Resolver
	Logger      *internal.Logger

	// NewCache overrides the per-call image cache construction.
	NewCache func(cache.Loader) *cache.ImageCache
	// OnTransition is called after every state change.
	OnTransition func(from, to State)

	TempDir       string
	Quality       int
	MaxOutputSize int64

	now func() time.Time

	mu      sync.Mutex
	state   State
	running bool
}

func NewExporter(loader cache.Loader, compressor Compressor, resolver storage.Resolver) *Exporter {
	return &Exporter{
		NewDocument: NewPDFDocument,
		Renderer:    NewRenderer(1, 0),
		Loader:      loader,
		Compressor:  compressor,
		Resolver:    resolver,
		Logger:      internal.GetDefaultLogger(),
		TempDir:     os.TempDir(),
		Quality:     DefaultCompressQuality,
	}
}

// State is the stage of the current or most recent export.
func (e *Exporter) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Exporter) transition(to State) error {
	e.mu.Lock()
	from := e.state
	if !canTransition(from, to) {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrIllegalStateStep, from, to)
	}
	e.state = to
	hook := e.OnTransition
	e.mu.Unlock()

	e.logger().Debug("%s -> %s", from, to)
	if hook != nil {
		hook(from, to)
	}
	return nil
}

func (e *Exporter) logger() *internal.Logger {
	if e.Logger == nil {
		return internal.GetDefaultLogger().With("exports")
	}
	return e.Logger.With("exports")
}

func (e *Exporter) tempDir() string {
	if e.TempDir == "" {
		return os.TempDir()
	}
	return e.TempDir
}

func (e *Exporter) timestamp() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

// Export renders docs into a single PDF and returns the location of the
// delivered file: a filesystem path or a provider URI. The image cache is
// flushed and temporary files are removed on every return path.
func (e *Exporter) Export(ctx context.Context, docs []sources.Document, opts Options) (location string, err error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return "", ErrBusy
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		if err != nil {
			if terr := e.transition(Failed); terr != nil {
				e.logger().Warn("%v", terr)
			}
		}
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	start := time.Now()
	log := e.logger()

	if err := e.transition(Planning); err != nil {
		return "", err
	}
	plan, dest, filename, err := e.prepare(docs, opts)
	if err != nil {
		log.Error("Planning failed: %v", err)
		return "", err
	}
	log.Info("Exporting %d source pages onto %d pages to %s", sources.TotalPages(docs), len(plan), dest)

	images := e.newCache()
	defer images.Flush()
	images.Retain(layout.References(plan))

	doc := e.NewDocument()
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			log.Warn("Failed to close document: %v", cerr)
		}
	}()

	if err := e.transition(Rendering); err != nil {
		return "", err
	}
	if err := e.render(ctx, doc, plan, images); err != nil {
		log.Error("Rendering failed: %v", err)
		return "", err
	}

	if err := e.transition(Finalizing); err != nil {
		return "", err
	}
	images.Flush()
	raw, err := e.finalize(doc)
	if raw != "" {
		defer removeFile(log, raw)
	}
	if err != nil {
		log.Error("Finalizing failed: %v", err)
		return "", err
	}

	if err := e.transition(Compressing); err != nil {
		return "", err
	}
	staged, err := e.compress(ctx, raw, dest, filename)
	if err != nil {
		log.Error("Compression of %s failed: %v", raw, err)
		return "", err
	}
	defer removeFile(log, staged)

	if err := e.transition(Delivering); err != nil {
		return "", err
	}
	location, err = dest.Deliver(ctx, staged, filename)
	if err != nil {
		log.Error("Delivery to %s failed: %v", dest, err)
		return "", err
	}

	if err := e.transition(Done); err != nil {
		return "", err
	}
	log.Success("Exported %d pages (%d image loads) to %s in %v", len(plan), images.Loads(), location, time.Since(start))
	return location, nil
}

func (e *Exporter) prepare(docs []sources.Document, opts Options) ([]layout.Page, delivery.Destination, string, error) {
	plan, err := layout.Plan(docs, opts.Layout)
	if err != nil {
		return nil, nil, "", err
	}
	if len(plan) == 0 {
		return nil, nil, "", ErrNothingToExport
	}

	folder := opts.Folder
	if folder == "" {
		folder = e.tempDir()
	}
	filename := opts.Filename
	if filename == "" {
		filename = strconv.FormatInt(e.timestamp().UnixMilli(), 10) + ".pdf"
	}
	if err := delivery.ValidateFilename(filename); err != nil {
		return nil, nil, "", err
	}

	dest, err := delivery.Resolve(folder, e.Resolver, e.Logger)
	if err != nil {
		return nil, nil, "", err
	}
	return plan, dest, filename, nil
}

func (e *Exporter) newCache() *cache.ImageCache {
	if e.NewCache != nil {
		return e.NewCache(e.Loader)
	}
	return cache.New(e.Loader)
}

func (e *Exporter) render(ctx context.Context, doc Document, plan []layout.Page, images *cache.ImageCache) error {
	renderer := e.Renderer
	if renderer == nil {
		renderer = NewRenderer(1, 0)
	}
	log := e.logger()

	for _, page := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}

		handle, err := doc.StartPage(page.Width, page.Height, page.Index)
		if err != nil {
			return fmt.Errorf("start page %d: %w", page.Index, err)
		}

		surface := doc.Surface()
		surface.Bind(handle)
		if err := renderer.RenderPage(ctx, surface, page, images); err != nil {
			return err
		}

		if err := doc.FinishPage(handle); err != nil {
			return fmt.Errorf("finish page %d: %w", page.Index, err)
		}

		for ref := range layout.PageRefs(page) {
			images.Release(ref)
		}
		log.Debug("Rendered page %d/%d (%.0fx%.0f, %d items, %d images resident)",
			page.Index+1, len(plan), page.Width, page.Height, len(page.Items), images.Len())
	}
	return nil
}

// finalize writes the raw document to a temp file and closes the builder.
// The returned path is set whenever a file was created, even on error.
func (e *Exporter) finalize(doc Document) (string, error) {
	raw := filepath.Join(e.tempDir(), "raw-"+uuid.NewString()+".pdf")
	file, err := os.Create(raw)
	if err != nil {
		return "", fmt.Errorf("create raw document: %w", err)
	}

	w := bufio.NewWriter(file)
	n, err := doc.WriteTo(w)
	if err == nil {
		err = w.Flush()
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return raw, fmt.Errorf("write raw document: %w", err)
	}
	if err := doc.Close(); err != nil {
		return raw, fmt.Errorf("close raw document: %w", err)
	}

	e.logger().Debug("Raw document %s (%s)", raw, units.HumanSize(float64(n)))
	return raw, nil
}

func (e *Exporter) compress(ctx context.Context, raw string, dest delivery.Destination, filename string) (string, error) {
	if err := dest.Prepare(); err != nil {
		return "", err
	}
	staged := dest.Stage(filename, e.tempDir())

	quality := e.Quality
	if quality == 0 {
		quality = DefaultCompressQuality
	}

	log := e.logger()
	if err := e.Compressor.Compress(ctx, raw, staged, quality); err != nil {
		removeFile(log, staged)
		return "", fmt.Errorf("%w: %w", ErrCompression, err)
	}

	info, err := os.Stat(staged)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCompression, err)
	}
	if e.MaxOutputSize > 0 && info.Size() > e.MaxOutputSize {
		removeFile(log, staged)
		return "", fmt.Errorf("%w: %w: %s > %s", ErrCompression, ErrOutputTooLarge,
			units.HumanSize(float64(info.Size())), units.HumanSize(float64(e.MaxOutputSize)))
	}

	if rawInfo, err := os.Stat(raw); err == nil {
		log.Info("Compressed %s -> %s", units.HumanSize(float64(rawInfo.Size())), units.HumanSize(float64(info.Size())))
	}
	return staged, nil
}

func removeFile(log *internal.Logger, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Failed to remove %s: %v", path, err)
	}
}
