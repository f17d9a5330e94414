package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)
	os.Args = []string{"cmd",
		"-d", "db", "-k", "apikey", "-w", "https://webapp.example",
		"-a", ":9090", "-i", "1", "-t", "4", "-n", "2", "-r", "10", "-m", "1048576",
	}

	config := &Config{}

	require.NotPanics(t, func() { parseFlags(config) })

	assert.Equal(t, "db", config.DatabaseDSN)
	assert.Equal(t, "apikey", config.ProviderAPIKey)
	assert.Equal(t, "https://webapp.example", config.WebAppURL)
	assert.Equal(t, ":9090", config.AdminAddr)
	assert.Equal(t, 1*time.Second, config.PollInterval)
	assert.Equal(t, 4*time.Second, config.ScanDeadline)
	assert.Equal(t, 2, config.SubmitMaxAttempts)
	assert.Equal(t, 10, config.ProviderRequestsPerMinute)
	assert.Equal(t, int64(1048576), config.MaxFileSize)
}
