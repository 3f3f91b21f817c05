package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pwnholic/docexport/internal"
	"github.com/pwnholic/docexport/internal/layout"
)

func TestFinalize_Defaults(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if got := cfg.Layout.Layout(); got != (layout.Config{PaperSize: layout.A4, Orientation: layout.Portrait, ItemsPerPage: 1}) {
		t.Errorf("Layout() = %+v", got)
	}
	if cfg.Render.Scale != 1 || cfg.Render.MarginPoints() != 12 || cfg.Render.ImageQuality != 90 {
		t.Errorf("Render = %+v margin %v", cfg.Render, cfg.Render.MarginPoints())
	}
	if cfg.Output.Folder != os.TempDir() || cfg.Output.TempDir != os.TempDir() {
		t.Errorf("Output folders = %q, %q", cfg.Output.Folder, cfg.Output.TempDir)
	}
	if cfg.Output.MaxSizeBytes() != 200*1000*1000 {
		t.Errorf("MaxSizeBytes() = %d", cfg.Output.MaxSizeBytes())
	}
	if cfg.Output.CompressQuality != 50 {
		t.Errorf("CompressQuality = %d", cfg.Output.CompressQuality)
	}
	if cfg.Storage.BasePath != ".data/providers" {
		t.Errorf("BasePath = %q", cfg.Storage.BasePath)
	}
	if cfg.HTTP.TimeoutDuration() != 30*time.Second || cfg.HTTP.RetryWaitDuration() != 2*time.Second {
		t.Errorf("HTTP durations = %v, %v", cfg.HTTP.TimeoutDuration(), cfg.HTTP.RetryWaitDuration())
	}
	if cfg.Logging.LogLevel() != internal.INFO {
		t.Errorf("LogLevel() = %v", cfg.Logging.LogLevel())
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
[layout]
paper_size = "a3"
orientation = "landscape"
items_per_page = 4

[render]
margin = 0.0

[output]
max_size = "5MB"

[logging]
level = "debug"
`))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.Layout.PaperSize != "a3" || cfg.Layout.Orientation != "landscape" || cfg.Layout.ItemsPerPage != 4 {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Render.MarginPoints() != 0 {
		t.Errorf("explicit zero margin replaced by %v", cfg.Render.MarginPoints())
	}
	if cfg.Output.MaxSizeBytes() != 5*1000*1000 {
		t.Errorf("MaxSizeBytes() = %d", cfg.Output.MaxSizeBytes())
	}
	if cfg.Logging.LogLevel() != internal.DEBUG {
		t.Errorf("LogLevel() = %v", cfg.Logging.LogLevel())
	}
}

func TestFinalize_EnvOverrides(t *testing.T) {
	t.Setenv(EnvLayoutPaperSize, "full")
	t.Setenv(EnvLayoutItemsPerPage, "3")
	t.Setenv(EnvOutputMaxSize, "1GB")
	t.Setenv(EnvLogLevel, "error")

	cfg := &Config{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if cfg.Layout.PaperSize != "full" || cfg.Layout.ItemsPerPage != 3 {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Output.MaxSizeBytes() != 1000*1000*1000 {
		t.Errorf("MaxSizeBytes() = %d", cfg.Output.MaxSizeBytes())
	}
	if cfg.Logging.LogLevel() != internal.ERROR {
		t.Errorf("LogLevel() = %v", cfg.Logging.LogLevel())
	}
}

func TestFinalize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"paper size", "[layout]\npaper_size = \"b5\""},
		{"items per page", "[layout]\nitems_per_page = -1"},
		{"scale", "[render]\nscale = -2.0"},
		{"margin", "[render]\nmargin = -1.0"},
		{"image quality", "[render]\nimage_quality = 101"},
		{"max size", "[output]\nmax_size = \"lots\""},
		{"compress quality", "[output]\ncompress_quality = 500"},
		{"timeout", "[http]\ntimeout = \"soon\""},
		{"log level", "[logging]\nlevel = \"loud\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.data))
			if err != nil {
				t.Fatalf("Parse() failed: %v", err)
			}
			if err := cfg.Finalize(); err == nil {
				t.Error("Finalize() succeeded, want error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if cfg.Layout.PaperSize != "a4" {
		t.Errorf("PaperSize = %q", cfg.Layout.PaperSize)
	}
}

func TestFinalize_RetryCount(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if cfg.HTTP.Retries() != 3 {
		t.Errorf("default Retries() = %d, want 3", cfg.HTTP.Retries())
	}

	cfg, err := Parse([]byte("[http]\nretry_count = 0\n"))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if cfg.HTTP.Retries() != 0 {
		t.Errorf("explicit zero retry_count replaced by %d", cfg.HTTP.Retries())
	}

	overlay, _ := Parse([]byte("[http]\nretry_count = 0\n"))
	base, _ := Parse([]byte("[http]\nretry_count = 5\n"))
	base.Merge(overlay)
	if base.HTTP.Retries() != 0 {
		t.Errorf("overlay zero retry_count ignored, Retries() = %d", base.HTTP.Retries())
	}

	bad, _ := Parse([]byte("[http]\nretry_count = -1\n"))
	if err := bad.Finalize(); err == nil {
		t.Error("Finalize() accepted a negative retry_count")
	}
}

func TestLoad_Overlay(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	write := func(name, data string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write(BaseConfigFile, "[layout]\npaper_size = \"a5\"\nitems_per_page = 2\n\n[storage]\nbase_path = \"/srv/trees\"\n")
	write("config.prod.toml", "[layout]\nitems_per_page = 6\n\n[output]\nmax_size = \"10MB\"\n")
	t.Setenv(EnvConfigEnv, "prod")

	// An overlay in the working directory is not picked up.
	if err := os.WriteFile("config.prod.toml", []byte("[layout]\nitems_per_page = 9\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(filepath.Join(dir, BaseConfigFile))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.Layout.PaperSize != "a5" || cfg.Layout.ItemsPerPage != 6 {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Storage.BasePath != "/srv/trees" {
		t.Errorf("BasePath = %q", cfg.Storage.BasePath)
	}
	if cfg.Output.MaxSizeBytes() != 10*1000*1000 {
		t.Errorf("MaxSizeBytes() = %d", cfg.Output.MaxSizeBytes())
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[layout\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() succeeded for invalid TOML")
	}
}
