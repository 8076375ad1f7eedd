package config

import (
	"flag"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-d", "db.sqlite", "-s", "secret", "-v", "debug",
			"-m", "http://model/predict", "-l", "labels.txt", "-t", "glioma",
			"-fw", "640", "-fh", "480", "-x", "4", "-mp", "1000000", "-k", "12", "-u", "seed.yaml",
			"-su", "user", "-sp", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
		}, expectPanic: false,
			expected: &Config{
				HTTPAddr:       "127.0.0.1:9090",
				DatabaseDSN:    "db.sqlite",
				SecretKey:      "secret",
				LogLevel:       "debug",
				InferenceURL:   "http://model/predict",
				ClassListPath:  "labels.txt",
				TargetLabel:    "glioma",
				FrameWidth:     640,
				FrameHeight:    480,
				MaxUploadSize:  4 << 20,
				MaxImagePixels: 1000000,
				BcryptCost:     12,
				UsersSeedPath:  "seed.yaml",
				S3RootUser:     "user",
				S3RootPassword: "password",
				S3Bucket:       "bucket",
				S3Region:       "us-west-1",
				S3BaseEndpoint: "http://endpoint",
			}},
		{name: "config flag is ignored here", args: []string{"cmd", "-c", "cfg.json", "-a", ":1"},
			expected: &Config{HTTPAddr: ":1"}},
		{name: "bad int", args: []string{"cmd", "-fw", "wide"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
