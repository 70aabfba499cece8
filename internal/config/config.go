package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/hydrophone-sonify/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Folder selection. Explicit folders are used as given; base URLs are
	// expanded with the current UTC date.
	Folders  []string
	BaseURLs []string

	NumFiles     int
	MaxWorkers   int
	ExportFormat domain.Format
	OutputDir    string

	FetchRetries    int
	FetchRetryDelay time.Duration
	HTTPTimeout     time.Duration
	FetchCacheSize  int

	FFmpegPath string
	MP3Bitrate string

	RunInterval     time.Duration
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Export notifications are disabled when no brokers are configured.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "sonifications"),
		FFmpegPath:      sharedcfg.EnvOrDefault("FFMPEG_PATH", "ffmpeg"),
		MP3Bitrate:      sharedcfg.EnvOrDefault("MP3_BITRATE", "192k"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "sonification-exports"),
		FetchCacheSize:  parseCacheSize(),
	}
	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.ExportFormat, err = domain.ParseFormat(sharedcfg.EnvOrDefault("EXPORT_FORMAT", "wav")); err != nil {
		return nil, fmt.Errorf("invalid EXPORT_FORMAT: %w", err)
	}
	if cfg.NumFiles, err = parseInt("NUM_FILES", 4); err != nil {
		return nil, err
	}
	if cfg.MaxWorkers, err = parseInt("MAX_WORKERS", 8); err != nil {
		return nil, err
	}
	if cfg.FetchRetries, err = parseInt("FETCH_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.FetchRetryDelay, err = parseDuration("FETCH_RETRY_DELAY", "1s"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = parseDuration("HTTP_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.RunInterval, err = parseDuration("RUN_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	if err := cfg.loadFolders(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFolders applies SONIFY_FOLDERS, falling back to the stations file.
func (c *Config) loadFolders() error {
	if raw := os.Getenv("SONIFY_FOLDERS"); strings.TrimSpace(raw) != "" {
		c.Folders = splitList(raw)
		return nil
	}
	stations, err := LoadStations(os.Getenv("SONIFY_STATIONS_FILE"))
	if err != nil {
		return fmt.Errorf("invalid SONIFY_STATIONS_FILE: %w", err)
	}
	c.Folders = stations.Folders
	c.BaseURLs = stations.BaseURLs
	return nil
}

// Validate checks value ranges. It is run by Load and again after command
// line flags have been applied.
func (c *Config) Validate() error {
	if c.NumFiles < 1 || c.NumFiles > 100 {
		return errors.New("NUM_FILES must be between 1 and 100")
	}
	if c.MaxWorkers < 1 || c.MaxWorkers > 32 {
		return errors.New("MAX_WORKERS must be between 1 and 32")
	}
	if c.FetchRetries < 1 || c.FetchRetries > 10 {
		return errors.New("FETCH_RETRIES must be between 1 and 10")
	}
	if c.FetchRetryDelay < 0 {
		return errors.New("FETCH_RETRY_DELAY must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT must be positive")
	}
	if c.RunInterval <= 0 {
		return errors.New("RUN_INTERVAL must be positive")
	}
	if c.ExportFormat != domain.FormatWAV && c.ExportFormat != domain.FormatMP3 {
		return fmt.Errorf("EXPORT_FORMAT %q is not supported", c.ExportFormat)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("OUTPUT_DIR is required")
	}
	if len(c.Folders) == 0 && len(c.BaseURLs) == 0 {
		return errors.New("no folders configured: set SONIFY_FOLDERS or SONIFY_STATIONS_FILE")
	}
	if c.KafkaEnabled() && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// KafkaEnabled reports whether export notifications should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// LogSettings returns the log level and format.
func (c *Config) LogSettings() (level, format string) {
	return c.LogLevel, c.LogFormat
}

// ResolveFolders returns the explicit folders followed by the base URLs
// expanded for the UTC date of now.
func (c *Config) ResolveFolders(now time.Time) []domain.RemoteFolder {
	folders := make([]domain.RemoteFolder, 0, len(c.Folders)+len(c.BaseURLs))
	for _, f := range c.Folders {
		if strings.TrimSpace(f) == "" {
			continue
		}
		folders = append(folders, domain.ParseFolder(f))
	}
	return append(folders, domain.FoldersForDate(c.BaseURLs, now)...)
}

func parseInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

func parseDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

func parseCacheSize() int {
	if s := os.Getenv("FETCH_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
