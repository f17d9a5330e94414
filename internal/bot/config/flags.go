package config

import (
	"flag"
	"os"
	"time"

	"github.com/sarhadsec/scanbot/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-k string   provider API key
//	-w string   agreement WebApp URL
//	-a string   admin API bind address (e.g., ":8080")
//	-i int      verdict poll interval, seconds
//	-t int      overall scan deadline, seconds
//	-n int      max submission attempts
//	-r int      provider requests per minute
//	-m int      max file size, bytes
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes
//     using flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in seconds and converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-k", "-w", "-a", "-i", "-t", "-n", "-r", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.ProviderAPIKey, "k", config.ProviderAPIKey, "provider API key")
	fs.StringVar(&config.WebAppURL, "w", config.WebAppURL, "agreement WebApp URL")
	fs.StringVar(&config.AdminAddr, "a", config.AdminAddr, "admin API address")

	pollInterval := fs.Int("i", int(config.PollInterval.Seconds()), "poll interval (in seconds)")
	scanDeadline := fs.Int("t", int(config.ScanDeadline.Seconds()), "scan deadline (in seconds)")

	fs.IntVar(&config.SubmitMaxAttempts, "n", config.SubmitMaxAttempts, "max submission attempts")
	fs.IntVar(&config.ProviderRequestsPerMinute, "r", config.ProviderRequestsPerMinute, "provider requests per minute")
	fs.Int64Var(&config.MaxFileSize, "m", config.MaxFileSize, "max file size (in bytes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.PollInterval = time.Duration(*pollInterval) * time.Second
	config.ScanDeadline = time.Duration(*scanDeadline) * time.Second
}
