package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := LoadConfig()

	if cfg.Server.Port != ":8080" {
		t.Fatalf("unexpected default port: %q", cfg.Server.Port)
	}
	if cfg.Logger.Level != "info" {
		t.Fatalf("unexpected default log level: %q", cfg.Logger.Level)
	}
	if cfg.Print.DefaultPaper != "RECEIPT80" {
		t.Fatalf("unexpected default paper: %q", cfg.Print.DefaultPaper)
	}
	receipt := cfg.Print.PaperSizes["RECEIPT80"]
	if receipt.Width != 3.15 || !receipt.PreferCSSPageSize {
		t.Fatalf("unexpected RECEIPT80 paper: %+v", receipt)
	}
	if _, ok := cfg.Print.PaperSizes["A4"]; !ok {
		t.Fatalf("expected A4 paper size")
	}
	if cfg.Print.TimeoutSecs != 30 {
		t.Fatalf("unexpected print timeout: %d", cfg.Print.TimeoutSecs)
	}

	fit := cfg.Print.Fit
	if fit.Selection != "document" || fit.MinScale != "shrink" {
		t.Fatalf("unexpected fit policies: %+v", fit)
	}
	if fit.MaxScale != 1.35 || fit.PageWidthMM != 210 || fit.PageHeightMM != 297 || fit.PageMarginMM != 8 {
		t.Fatalf("unexpected fit geometry: %+v", fit)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	p := writeConfig(t, `server:
  port: ":9090"
cache:
  receipt_cache_enabled: true
  receipt_cache_ttl: 5m
print:
  default_paper: "A4"
  chrome_pool_size: 2
  fit:
    enabled: true
    selection: "print_region"
    min_scale: "clamp"
    max_scale: 1.5
`)
	t.Setenv("CONFIG_PATH", p)

	cfg := LoadConfig()

	if cfg.Server.Port != ":9090" {
		t.Fatalf("unexpected port: %q", cfg.Server.Port)
	}
	if !cfg.Cache.ReceiptCacheEnabled || cfg.Cache.ReceiptCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Print.DefaultPaper != "A4" || cfg.Print.ChromePoolSize != 2 {
		t.Fatalf("unexpected print config: %+v", cfg.Print)
	}
	if !cfg.Print.Fit.Enabled || cfg.Print.Fit.Selection != "print_region" || cfg.Print.Fit.MaxScale != 1.5 {
		t.Fatalf("unexpected fit config: %+v", cfg.Print.Fit)
	}
	if GetConfig().Server.Port != ":9090" {
		t.Fatalf("expected AppConfig to be updated")
	}
}

func TestLoadConfig_PanicsOnInvalidYAML(t *testing.T) {
	p := writeConfig(t, "server: [not a map\n")
	t.Setenv("CONFIG_PATH", p)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on invalid yaml")
		}
	}()
	_ = LoadConfig()
}
