package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all settings for the dashboard. Values come from an optional
// YAML file, then environment variables on top.
type Config struct {
	Addr        string
	DBPath      string
	GSCBaseURL  string
	PropertyURL string
	Token       string
	CacheTTL    time.Duration
	RowLimit    int
}

type fileConfig struct {
	Addr        string `yaml:"addr"`
	DBPath      string `yaml:"db_path"`
	GSCBaseURL  string `yaml:"gsc_base_url"`
	PropertyURL string `yaml:"property_url"`
	Token       string `yaml:"token"`
	CacheTTLMin int    `yaml:"cache_ttl_min"`
	RowLimit    int    `yaml:"row_limit"`
}

const (
	defaultAddr     = ":8788"
	defaultDBPath   = "data/gsc.db"
	defaultBaseURL  = "https://searchconsole.googleapis.com/webmasters/v3"
	defaultTTLMin   = 60
	defaultRowLimit = 25000
	maxRowLimit     = 25000
)

// Load reads the optional config file at path (empty or missing file is
// fine) and applies environment overrides.
func Load(path string) Config {
	cfg := Config{
		Addr:       defaultAddr,
		DBPath:     defaultDBPath,
		GSCBaseURL: defaultBaseURL,
		CacheTTL:   defaultTTLMin * time.Minute,
		RowLimit:   defaultRowLimit,
	}

	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			var fc fileConfig
			if err := yaml.Unmarshal(b, &fc); err != nil {
				log.Printf("config: %s: %v (ignoring file)", path, err)
			} else {
				applyFile(&cfg, fc)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("config: %s: %v (ignoring file)", path, err)
		}
	}

	cfg.Addr = getenv("GSCDASH_ADDR", cfg.Addr)
	cfg.DBPath = getenv("GSCDASH_DB", cfg.DBPath)
	cfg.GSCBaseURL = getenv("GSC_BASE_URL", cfg.GSCBaseURL)
	cfg.PropertyURL = getenv("GSC_PROPERTY_URL", cfg.PropertyURL)
	cfg.Token = getenv("GSC_TOKEN", cfg.Token)
	if m := getenvInt("GSCDASH_CACHE_TTL_MIN", 0); m > 0 {
		cfg.CacheTTL = time.Duration(m) * time.Minute
	}
	if n := getenvInt("GSC_ROW_LIMIT", 0); n > 0 {
		cfg.RowLimit = n
	}

	cfg.RowLimit = clampInt(cfg.RowLimit, 1, maxRowLimit)
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultTTLMin * time.Minute
	}

	log.Printf("config: addr=%s db=%s property=%s ttl=%s rows=%d",
		cfg.Addr, cfg.DBPath, cfg.PropertyURL, cfg.CacheTTL, cfg.RowLimit)
	return cfg
}

func applyFile(cfg *Config, fc fileConfig) {
	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if fc.DBPath != "" {
		cfg.DBPath = fc.DBPath
	}
	if fc.GSCBaseURL != "" {
		cfg.GSCBaseURL = fc.GSCBaseURL
	}
	if fc.PropertyURL != "" {
		cfg.PropertyURL = fc.PropertyURL
	}
	if fc.Token != "" {
		cfg.Token = fc.Token
	}
	if fc.CacheTTLMin > 0 {
		cfg.CacheTTL = time.Duration(fc.CacheTTLMin) * time.Minute
	}
	if fc.RowLimit > 0 {
		cfg.RowLimit = fc.RowLimit
	}
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
