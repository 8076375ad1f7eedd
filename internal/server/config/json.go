package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/tumordetect/internal/flagx"
	"github.com/dmitrijs2005/tumordetect/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON configuration file. Durations
// use timex.Duration so both "30s" and integer nanoseconds are accepted.
// Absent fields leave the corresponding Config value untouched.
type JsonConfig struct {
	HTTPAddr         string         `json:"http_addr"`
	DatabaseDSN      string         `json:"database_dsn"`
	SecretKey        string         `json:"secret_key"`
	LogLevel         string         `json:"log_level"`
	InferenceURL     string         `json:"inference_url"`
	InferenceTimeout timex.Duration `json:"inference_timeout"`
	ClassListPath    string         `json:"class_list_path"`
	TargetLabel      string         `json:"target_label"`
	FrameWidth       int            `json:"frame_width"`
	FrameHeight      int            `json:"frame_height"`
	MaxUploadSizeMB  int64          `json:"max_upload_size_mb"`
	MaxImagePixels   int64          `json:"max_image_pixels"`
	BcryptCost       int            `json:"bcrypt_cost"`
	UsersSeedPath    string         `json:"users_seed_path"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by -c,
// -config or the CONFIG environment variable. Nothing happens when none is
// set. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.InferenceURL, c.InferenceURL)
	setString(&config.ClassListPath, c.ClassListPath)
	setString(&config.TargetLabel, c.TargetLabel)
	setString(&config.UsersSeedPath, c.UsersSeedPath)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.InferenceTimeout.Duration > 0 {
		config.InferenceTimeout = c.InferenceTimeout.Duration
	}
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.FrameWidth > 0 {
		config.FrameWidth = c.FrameWidth
	}
	if c.FrameHeight > 0 {
		config.FrameHeight = c.FrameHeight
	}
	if c.MaxUploadSizeMB > 0 {
		config.MaxUploadSize = c.MaxUploadSizeMB << 20
	}
	if c.MaxImagePixels > 0 {
		config.MaxImagePixels = c.MaxImagePixels
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
