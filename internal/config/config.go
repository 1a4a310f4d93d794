package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/scaleworks/libralog/internal/model"
)

type Config struct {
	DatabaseURL string `toml:"database_url"` // LIBRA_DATABASE_URL (required)
	HTTPAddr    string `toml:"http_addr"`    // LIBRA_HTTP_ADDR (default ":8080")
	NATSURL     string `toml:"nats_url"`     // LIBRA_NATS_URL (optional, empty = no events)

	// Monitor settings. PollInterval is parsed from the duration string
	// carried in the TOML file or LIBRA_POLL_INTERVAL (default 1s).
	PollInterval    time.Duration `toml:"-"`
	PollIntervalStr string        `toml:"poll_interval"`
	Devices         []string      `toml:"devices"` // LIBRA_DEVICES (comma list)

	// Snapshot settings. A zero interval disables the snapshot scheduler.
	SnapshotInterval    time.Duration `toml:"-"`
	SnapshotIntervalStr string        `toml:"snapshot_interval"`
	SnapshotWindow      int           `toml:"snapshot_window"`      // LIBRA_SNAPSHOT_WINDOW (default 10000)
	SnapshotS3Bucket    string        `toml:"snapshot_s3_bucket"`   // LIBRA_SNAPSHOT_S3_BUCKET (enables S3 when set)
	SnapshotS3Endpoint  string        `toml:"snapshot_s3_endpoint"` // LIBRA_SNAPSHOT_S3_ENDPOINT (custom endpoint for MinIO)
	SnapshotS3Region    string        `toml:"snapshot_s3_region"`   // LIBRA_SNAPSHOT_S3_REGION (default "us-east-1")
	SnapshotS3Key       string        `toml:"snapshot_s3_key"`      // LIBRA_SNAPSHOT_S3_KEY (default "libralog/snapshot.jsonl")
	SnapshotFile        string        `toml:"snapshot_file"`        // LIBRA_SNAPSHOT_FILE (enables file export when set)
}

// Load builds the configuration from an optional TOML file (LIBRA_CONFIG)
// with environment variables layered on top. LIBRA_DATABASE_URL is the only
// required setting.
func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:         ":8080",
		SnapshotS3Region: "us-east-1",
		SnapshotS3Key:    "libralog/snapshot.jsonl",
		SnapshotWindow:   10000,
	}

	if path := os.Getenv("LIBRA_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, c); err != nil {
			return nil, fmt.Errorf("LIBRA_CONFIG: %w", err)
		}
	}

	applyEnv(c)

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("LIBRA_DATABASE_URL is required")
	}

	if err := parseIntervals(c); err != nil {
		return nil, err
	}

	if c.SnapshotWindow < 0 {
		return nil, fmt.Errorf("snapshot_window must be non-negative, got %d", c.SnapshotWindow)
	}

	if len(c.Devices) == 0 {
		c.Devices = model.DefaultDevices
	}

	return c, nil
}

func applyEnv(c *Config) {
	setString(&c.DatabaseURL, "LIBRA_DATABASE_URL")
	setString(&c.HTTPAddr, "LIBRA_HTTP_ADDR")
	setString(&c.NATSURL, "LIBRA_NATS_URL")
	setString(&c.PollIntervalStr, "LIBRA_POLL_INTERVAL")
	setString(&c.SnapshotIntervalStr, "LIBRA_SNAPSHOT_INTERVAL")
	setString(&c.SnapshotS3Bucket, "LIBRA_SNAPSHOT_S3_BUCKET")
	setString(&c.SnapshotS3Endpoint, "LIBRA_SNAPSHOT_S3_ENDPOINT")
	setString(&c.SnapshotS3Region, "LIBRA_SNAPSHOT_S3_REGION")
	setString(&c.SnapshotS3Key, "LIBRA_SNAPSHOT_S3_KEY")
	setString(&c.SnapshotFile, "LIBRA_SNAPSHOT_FILE")

	if v := os.Getenv("LIBRA_SNAPSHOT_WINDOW"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			c.SnapshotWindow = n
		}
	}

	if v := os.Getenv("LIBRA_DEVICES"); v != "" {
		var devices []string
		for _, d := range strings.Split(v, ",") {
			if d = strings.TrimSpace(d); d != "" {
				devices = append(devices, d)
			}
		}
		c.Devices = devices
	}
}

func parseIntervals(c *Config) error {
	c.PollInterval = time.Second
	if c.PollIntervalStr != "" {
		d, err := time.ParseDuration(c.PollIntervalStr)
		if err != nil {
			return fmt.Errorf("LIBRA_POLL_INTERVAL: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("LIBRA_POLL_INTERVAL must be positive, got %s", d)
		}
		c.PollInterval = d
	}

	if c.SnapshotIntervalStr != "" {
		d, err := time.ParseDuration(c.SnapshotIntervalStr)
		if err != nil {
			return fmt.Errorf("LIBRA_SNAPSHOT_INTERVAL: %w", err)
		}
		c.SnapshotInterval = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
