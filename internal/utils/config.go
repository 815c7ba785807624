package utils

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PaperSize describes a physical page in inches, as expected by Chrome's
// printToPDF. PreferCSSPageSize lets the document's own @page rule win,
// which is how the 80mm receipt roll is sized.
type PaperSize struct {
	Width             float64 `yaml:"width"`
	Height            float64 `yaml:"height"`
	PreferCSSPageSize bool    `yaml:"prefer_css_page_size"`
}

// FitConfig controls the print-fit pass applied before printing.
type FitConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Selection    string  `yaml:"selection"` // "document" or "print_region"
	MinScale     string  `yaml:"min_scale"` // "shrink" or "clamp"
	MaxScale     float64 `yaml:"max_scale"`
	PageWidthMM  float64 `yaml:"page_width_mm"`
	PageHeightMM float64 `yaml:"page_height_mm"`
	PageMarginMM float64 `yaml:"page_margin_mm"`
}

// PostgresConfig holds connection settings for the Postgres instance that
// stores bills, vendors and API tokens.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// Config is the full service configuration, loaded once at startup.
type Config struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    string `yaml:"port"`
		Prefork bool   `yaml:"prefork"`
	} `yaml:"server"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`

	Cache struct {
		RedisHost           string        `yaml:"redis_host"`
		RateLimitDB         int           `yaml:"redis_rate_db"`
		ReceiptCacheDB      int           `yaml:"redis_receipt_db"`
		ReceiptCacheEnabled bool          `yaml:"receipt_cache_enabled"`
		ReceiptCacheTTL     time.Duration `yaml:"receipt_cache_ttl"`
	} `yaml:"cache"`

	Limits struct {
		MaxHTMLBytes int `yaml:"max_html_bytes"`
		MaxPDFBytes  int `yaml:"max_pdf_bytes"`
		ListLimit    int `yaml:"list_limit"`
	} `yaml:"limits"`

	RateLimiter struct {
		Interval          time.Duration `yaml:"interval"`
		UserLimit         int           `yaml:"user_limit"`
		EnableUserLimiter bool          `yaml:"enable_user_limiter"`
	} `yaml:"rate_limiter"`

	Auth struct {
		Postgres PostgresConfig `yaml:"postgres"`
	} `yaml:"auth"`

	Print struct {
		DefaultPaper    string               `yaml:"default_paper"`
		PaperSizes      map[string]PaperSize `yaml:"paper_sizes"`
		MarginInches    float64              `yaml:"margin_inches"`
		TimeoutSecs     int                  `yaml:"timeout_secs"`
		ChromePath      string               `yaml:"chrome_path"`
		ChromeNoSandbox bool                 `yaml:"chrome_no_sandbox"`
		ChromePoolSize  int                  `yaml:"chrome_pool_size"`
		UserDataDir     string               `yaml:"user_data_dir"`
		Fit             FitConfig            `yaml:"fit"`
	} `yaml:"print"`
}

// AppConfig holds the process-wide configuration after LoadConfig.
var AppConfig Config

const defaultConfigPath = "config.yaml"

// LoadConfig reads the yaml config from CONFIG_PATH (or ./config.yaml),
// applies defaults and stores the result in AppConfig. Missing files are
// tolerated so tests and local runs can rely on defaults alone.
func LoadConfig() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			panic(fmt.Sprintf("invalid config %s: %v", path, err))
		}
	}

	applyDefaults(&cfg)
	AppConfig = cfg
	return cfg
}

// GetConfig returns the currently loaded configuration.
func GetConfig() Config {
	return AppConfig
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Cache.RedisHost == "" {
		cfg.Cache.RedisHost = "127.0.0.1:6379"
	}
	if cfg.Cache.ReceiptCacheTTL <= 0 {
		cfg.Cache.ReceiptCacheTTL = 24 * time.Hour
	}
	if cfg.Limits.MaxHTMLBytes <= 0 {
		cfg.Limits.MaxHTMLBytes = 2 << 20
	}
	if cfg.Limits.MaxPDFBytes <= 0 {
		cfg.Limits.MaxPDFBytes = 20 << 20
	}
	if cfg.Limits.ListLimit <= 0 {
		cfg.Limits.ListLimit = 200
	}
	if cfg.RateLimiter.Interval <= 0 {
		cfg.RateLimiter.Interval = time.Minute
	}

	if cfg.Print.PaperSizes == nil {
		cfg.Print.PaperSizes = map[string]PaperSize{}
	}
	if _, ok := cfg.Print.PaperSizes["RECEIPT80"]; !ok {
		// 80mm roll; height is a generous upper bound, the @page rule
		// in the receipt template controls the real size.
		cfg.Print.PaperSizes["RECEIPT80"] = PaperSize{Width: 3.15, Height: 11.69, PreferCSSPageSize: true}
	}
	if _, ok := cfg.Print.PaperSizes["A4"]; !ok {
		cfg.Print.PaperSizes["A4"] = PaperSize{Width: 8.27, Height: 11.69}
	}
	if cfg.Print.DefaultPaper == "" {
		cfg.Print.DefaultPaper = "RECEIPT80"
	}
	if cfg.Print.MarginInches <= 0 {
		cfg.Print.MarginInches = 0.24
	}
	if cfg.Print.TimeoutSecs <= 0 {
		cfg.Print.TimeoutSecs = 30
	}

	fit := &cfg.Print.Fit
	// The receipt template marks its fit target directly, without a
	// print-only region, so the document scan is the default.
	if fit.Selection == "" {
		fit.Selection = "document"
	}
	if fit.MinScale == "" {
		fit.MinScale = "shrink"
	}
	if fit.MaxScale <= 0 {
		fit.MaxScale = 1.35
	}
	if fit.PageWidthMM <= 0 {
		fit.PageWidthMM = 210
	}
	if fit.PageHeightMM <= 0 {
		fit.PageHeightMM = 297
	}
	if fit.PageMarginMM <= 0 {
		fit.PageMarginMM = 8
	}
}
