package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/tumordetect/internal/flagx"
)

var knownFlags = []string{
	"-a", "-d", "-s", "-v", "-m", "-l", "-t", "-fw", "-fh", "-x", "-mp", "-k", "-u",
	"-su", "-sp", "-b", "-g", "-e",
}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8501")
//	-d string   database DSN (SQLite path or postgres:// URL)
//	-s string   session signing key
//	-v string   log level (debug, info, warn, error)
//	-m string   inference endpoint URL
//	-l string   class list file
//	-t string   target label to count
//	-fw int     frame width
//	-fh int     frame height
//	-x int      upload limit, MiB
//	-mp int     largest accepted image canvas, in pixels
//	-k int      bcrypt cost
//	-u string   YAML file with seed users
//	-su string  S3 root user
//	-sp string  S3 root password
//	-b string   S3 bucket name (empty disables archiving)
//	-g string   S3 region
//	-e string   S3 base endpoint
//
// os.Args is first filtered with flagx.FilterArgs so the -c/-config flag
// handled by parseJson does not trip this flag set.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	fs.StringVar(&config.InferenceURL, "m", config.InferenceURL, "inference endpoint URL")
	fs.StringVar(&config.ClassListPath, "l", config.ClassListPath, "class list file")
	fs.StringVar(&config.TargetLabel, "t", config.TargetLabel, "label to count")
	fs.IntVar(&config.FrameWidth, "fw", config.FrameWidth, "frame width")
	fs.IntVar(&config.FrameHeight, "fh", config.FrameHeight, "frame height")

	maxUploadMB := fs.Int64("x", config.MaxUploadSize>>20, "upload limit (in MiB)")

	fs.Int64Var(&config.MaxImagePixels, "mp", config.MaxImagePixels, "largest accepted image (width*height)")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.UsersSeedPath, "u", config.UsersSeedPath, "seed users YAML file")

	fs.StringVar(&config.S3RootUser, "su", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "sp", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 archive bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.MaxUploadSize = *maxUploadMB << 20
}
