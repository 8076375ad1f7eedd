// Package config handles configuration for the web server, including
// defaults, JSON overlay, and command-line flags.
package config

import (
	"time"

	"github.com/dmitrijs2005/tumordetect/internal/common"
)

// Config holds runtime settings for the detection web server.
//
// Fields:
//   - HTTPAddr: bind address of the HTML front end.
//   - DatabaseDSN: SQLite file path, or a postgres:// URL.
//   - SecretKey: HMAC secret for signing session cookies (HS256).
//   - InferenceURL / InferenceTimeout: detection model endpoint.
//   - ClassListPath: newline-separated class labels indexed by class id.
//   - TargetLabel: detections with this label are counted.
//   - FrameWidth / FrameHeight: uploads are resized to this frame.
//   - MaxUploadSize: upload limit in bytes.
//   - MaxImagePixels: largest decoded canvas (width*height) an upload may declare.
//   - BcryptCost: work factor for password hashes.
//   - UsersSeedPath: optional YAML file with accounts to create at startup.
//   - S3*: optional archive of annotated images; disabled when S3Bucket is empty.
type Config struct {
	HTTPAddr         string
	DatabaseDSN      string
	SecretKey        string
	LogLevel         string
	InferenceURL     string
	InferenceTimeout time.Duration
	ClassListPath    string
	TargetLabel      string
	FrameWidth       int
	FrameHeight      int
	MaxUploadSize    int64
	MaxImagePixels   int64
	BcryptCost       int
	UsersSeedPath    string
	ShutdownTimeout  time.Duration
	S3RootUser       string
	S3RootPassword   string
	S3Bucket         string
	S3Region         string
	S3BaseEndpoint   string
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden outside of local runs.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8501"
	c.DatabaseDSN = "users.db"
	c.SecretKey = "secretKey"
	c.LogLevel = "info"
	c.InferenceURL = "http://127.0.0.1:8000/predict"
	c.InferenceTimeout = 30 * time.Second
	c.ClassListPath = "coco.txt"
	c.TargetLabel = common.DefaultTargetLabel
	c.FrameWidth = 1020
	c.FrameHeight = 500
	c.MaxUploadSize = 10 << 20
	c.MaxImagePixels = 8192 * 8192
	c.BcryptCost = 10
	c.UsersSeedPath = ""
	c.ShutdownTimeout = 10 * time.Second
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	cfg.clamp()
	return cfg
}

// clamp resets sizes and timeouts that cannot work to their defaults.
func (c *Config) clamp() {
	var d Config
	d.LoadDefaults()

	if c.FrameWidth <= 0 {
		c.FrameWidth = d.FrameWidth
	}
	if c.FrameHeight <= 0 {
		c.FrameHeight = d.FrameHeight
	}
	if c.MaxUploadSize <= 0 {
		c.MaxUploadSize = d.MaxUploadSize
	}
	if c.MaxImagePixels <= 0 {
		c.MaxImagePixels = d.MaxImagePixels
	}
	if c.InferenceTimeout <= 0 {
		c.InferenceTimeout = d.InferenceTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
}

// ArchiveEnabled reports whether annotated images should be stored in S3.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != ""
}
