package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/docker/go-units"

	"github.com/pwnholic/docexport/internal"
	"github.com/pwnholic/docexport/internal/layout"
)

const (
	EnvLayoutPaperSize    = "DOCEXPORT_PAPER_SIZE"
	EnvLayoutOrientation  = "DOCEXPORT_ORIENTATION"
	EnvLayoutItemsPerPage = "DOCEXPORT_ITEMS_PER_PAGE"

	EnvRenderScale        = "DOCEXPORT_RENDER_SCALE"
	EnvRenderImageQuality = "DOCEXPORT_IMAGE_QUALITY"

	EnvOutputFolder  = "DOCEXPORT_OUTPUT_FOLDER"
	EnvOutputTempDir = "DOCEXPORT_TEMP_DIR"
	EnvOutputMaxSize = "DOCEXPORT_MAX_SIZE"

	EnvStorageBasePath = "DOCEXPORT_STORAGE_BASE_PATH"

	EnvHTTPTimeout = "DOCEXPORT_HTTP_TIMEOUT"

	EnvLogLevel = "DOCEXPORT_LOG_LEVEL"
)

// LayoutConfig holds the default page layout. Command line flags override it.
type LayoutConfig struct {
	PaperSize    string `toml:"paper_size"`
	Orientation  string `toml:"orientation"`
	ItemsPerPage int    `toml:"items_per_page"`
}

func (c *LayoutConfig) Finalize() error {
	if c.PaperSize == "" {
		c.PaperSize = string(layout.A4)
	}
	if c.Orientation == "" {
		c.Orientation = string(layout.Portrait)
	}
	if c.ItemsPerPage == 0 {
		c.ItemsPerPage = 1
	}

	if v := os.Getenv(EnvLayoutPaperSize); v != "" {
		c.PaperSize = v
	}
	if v := os.Getenv(EnvLayoutOrientation); v != "" {
		c.Orientation = v
	}
	if v := os.Getenv(EnvLayoutItemsPerPage); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvLayoutItemsPerPage, err)
		}
		c.ItemsPerPage = n
	}

	_, err := layout.Normalize(c.Layout())
	return err
}

func (c *LayoutConfig) Merge(overlay *LayoutConfig) {
	if overlay.PaperSize != "" {
		c.PaperSize = overlay.PaperSize
	}
	if overlay.Orientation != "" {
		c.Orientation = overlay.Orientation
	}
	if overlay.ItemsPerPage != 0 {
		c.ItemsPerPage = overlay.ItemsPerPage
	}
}

// Layout converts the section to a layout.Config.
func (c *LayoutConfig) Layout() layout.Config {
	return layout.Config{
		PaperSize:    layout.PaperSize(c.PaperSize),
		Orientation:  layout.Orientation(c.Orientation),
		ItemsPerPage: c.ItemsPerPage,
	}
}

// RenderConfig controls drawing.
type RenderConfig struct {
	// Scale is the device density applied to every page. Default: 1
	Scale float64 `toml:"scale"`
	// Margin in points between grid cells. Default: 12
	Margin *float64 `toml:"margin"`
	// ImageQuality is the JPEG quality bitmaps are encoded with. Default: 90
	ImageQuality int `toml:"image_quality"`
}

func (c *RenderConfig) Finalize() error {
	if c.Scale == 0 {
		c.Scale = 1
	}
	if c.Margin == nil {
		m := 12.0
		c.Margin = &m
	}
	if c.ImageQuality == 0 {
		c.ImageQuality = 90
	}

	if v := os.Getenv(EnvRenderScale); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRenderScale, err)
		}
		c.Scale = f
	}
	if v := os.Getenv(EnvRenderImageQuality); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRenderImageQuality, err)
		}
		c.ImageQuality = n
	}

	if c.Scale <= 0 {
		return fmt.Errorf("scale must be positive")
	}
	if *c.Margin < 0 {
		return fmt.Errorf("margin must not be negative")
	}
	if c.ImageQuality < 1 || c.ImageQuality > 100 {
		return fmt.Errorf("image_quality must be between 1 and 100")
	}
	return nil
}

func (c *RenderConfig) Merge(overlay *RenderConfig) {
	if overlay.Scale != 0 {
		c.Scale = overlay.Scale
	}
	if overlay.Margin != nil {
		c.Margin = overlay.Margin
	}
	if overlay.ImageQuality != 0 {
		c.ImageQuality = overlay.ImageQuality
	}
}

// MarginPoints returns the margin, zero when unset.
func (c *RenderConfig) MarginPoints() float64 {
	if c.Margin == nil {
		return 0
	}
	return *c.Margin
}

// OutputConfig controls the compressed artifact.
type OutputConfig struct {
	// Folder is the default destination. Default: the OS temp directory
	Folder string `toml:"folder"`
	// TempDir holds raw and staged artifacts. Default: the OS temp directory
	TempDir string `toml:"temp_dir"`
	// MaxSize bounds the compressed output, e.g. "200MB".
	MaxSize string `toml:"max_size"`
	// CompressQuality is handed to the compressor. Default: 50
	CompressQuality int `toml:"compress_quality"`

	maxSizeVal int64
}

func (c *OutputConfig) MaxSizeBytes() int64 {
	return c.maxSizeVal
}

func (c *OutputConfig) Finalize() error {
	if c.Folder == "" {
		c.Folder = os.TempDir()
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if c.MaxSize == "" {
		c.MaxSize = "200MB"
	}
	if c.CompressQuality == 0 {
		c.CompressQuality = 50
	}

	if v := os.Getenv(EnvOutputFolder); v != "" {
		c.Folder = v
	}
	if v := os.Getenv(EnvOutputTempDir); v != "" {
		c.TempDir = v
	}
	if v := os.Getenv(EnvOutputMaxSize); v != "" {
		c.MaxSize = v
	}

	size, err := units.FromHumanSize(c.MaxSize)
	if err != nil {
		return fmt.Errorf("invalid max_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_size must be positive")
	}
	c.maxSizeVal = size

	if c.CompressQuality < 1 || c.CompressQuality > 100 {
		return fmt.Errorf("compress_quality must be between 1 and 100")
	}
	return nil
}

func (c *OutputConfig) Merge(overlay *OutputConfig) {
	if overlay.Folder != "" {
		c.Folder = overlay.Folder
	}
	if overlay.TempDir != "" {
		c.TempDir = overlay.TempDir
	}
	if size, err := units.FromHumanSize(overlay.MaxSize); err == nil {
		c.MaxSize = overlay.MaxSize
		c.maxSizeVal = size
	}
	if overlay.CompressQuality != 0 {
		c.CompressQuality = overlay.CompressQuality
	}
}

// StorageConfig configures the tree provider behind scheme:// destinations.
type StorageConfig struct {
	// BasePath is the root directory for provider trees.
	// Default: ".data/providers"
	BasePath string `toml:"base_path"`
}

func (c *StorageConfig) Finalize() error {
	if c.BasePath == "" {
		c.BasePath = ".data/providers"
	}
	if v := os.Getenv(EnvStorageBasePath); v != "" {
		c.BasePath = v
	}
	if c.BasePath == "" {
		return fmt.Errorf("base_path required")
	}
	return nil
}

func (c *StorageConfig) Merge(overlay *StorageConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
}

// HTTPConfig configures fetching of remote source images.
type HTTPConfig struct {
	Timeout string `toml:"timeout"`
	// RetryCount is the number of retries after a failed fetch. Zero
	// disables retrying. Default: 3
	RetryCount   *int   `toml:"retry_count"`
	RetryWait    string `toml:"retry_wait"`
	UserAgent    string `toml:"user_agent"`
	MaxImageSize string `toml:"max_image_size"`

	timeout      time.Duration
	retryWait    time.Duration
	maxImageSize int64
}

func (c *HTTPConfig) TimeoutDuration() time.Duration   { return c.timeout }
func (c *HTTPConfig) RetryWaitDuration() time.Duration { return c.retryWait }
func (c *HTTPConfig) MaxImageSizeBytes() int64         { return c.maxImageSize }

// Retries returns the retry count, zero when unset.
func (c *HTTPConfig) Retries() int {
	if c.RetryCount == nil {
		return 0
	}
	return *c.RetryCount
}

func (c *HTTPConfig) Finalize() error {
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.RetryCount == nil {
		n := 3
		c.RetryCount = &n
	}
	if c.RetryWait == "" {
		c.RetryWait = "2s"
	}
	if c.UserAgent == "" {
		c.UserAgent = "docexport/1.0"
	}
	if c.MaxImageSize == "" {
		c.MaxImageSize = "50MB"
	}

	if v := os.Getenv(EnvHTTPTimeout); v != "" {
		c.Timeout = v
	}

	var err error
	if c.timeout, err = time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.retryWait, err = time.ParseDuration(c.RetryWait); err != nil {
		return fmt.Errorf("invalid retry_wait: %w", err)
	}
	if c.maxImageSize, err = units.FromHumanSize(c.MaxImageSize); err != nil {
		return fmt.Errorf("invalid max_image_size: %w", err)
	}
	if *c.RetryCount < 0 {
		return fmt.Errorf("retry_count must not be negative")
	}
	return nil
}

func (c *HTTPConfig) Merge(overlay *HTTPConfig) {
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.RetryCount != nil {
		c.RetryCount = overlay.RetryCount
	}
	if overlay.RetryWait != "" {
		c.RetryWait = overlay.RetryWait
	}
	if overlay.UserAgent != "" {
		c.UserAgent = overlay.UserAgent
	}
	if overlay.MaxImageSize != "" {
		c.MaxImageSize = overlay.MaxImageSize
	}
}

type LoggingConfig struct {
	Level string `toml:"level"`

	level internal.LogLevel
}

func (c *LoggingConfig) LogLevel() internal.LogLevel {
	return c.level
}

func (c *LoggingConfig) Finalize() error {
	if c.Level == "" {
		c.Level = "info"
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Level = v
	}
	level, err := internal.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	c.level = level
	return nil
}

func (c *LoggingConfig) Merge(overlay *LoggingConfig) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
}
