package config

import (
	"encoding/json"
	"os"

	"github.com/sarhadsec/scanbot/internal/flagx"
	"github.com/sarhadsec/scanbot/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for interval fields, which allows parsing
// both string values such as "3s" and integer nanoseconds. After
// unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	BotToken                  string         `json:"bot_token"`
	DatabaseDSN               string         `json:"database_dsn"`
	ProviderAPIKey            string         `json:"provider_api_key"`
	ProviderBaseURL           string         `json:"provider_base_url"`
	WebAppURL                 string         `json:"webapp_url"`
	AdminAddr                 string         `json:"admin_addr"`
	AdminIDs                  []int64        `json:"admin_ids"`
	PollInterval              timex.Duration `json:"poll_interval"`
	ScanDeadline              timex.Duration `json:"scan_deadline"`
	SubmitMaxAttempts         int            `json:"submit_max_attempts"`
	ProviderRequestsPerMinute int            `json:"provider_requests_per_minute"`
	ProviderBurst             int            `json:"provider_burst"`
	MaxFileSize               int64          `json:"max_file_size"`
	S3RootUser                string         `json:"s3_root_user"`
	S3RootPassword            string         `json:"s3_root_password"`
	S3Bucket                  string         `json:"s3_bucket"`
	S3Region                  string         `json:"s3_region"`
	S3BaseEndpoint            string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path is taken from the -c/-config flags; when
// neither is set, no JSON file is loaded. Unset fields keep their current
// values. The function panics on unreadable files or invalid JSON, matching
// flag-parse behaviour at startup.
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

	if c.BotToken != "" {
		config.BotToken = c.BotToken
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.ProviderAPIKey != "" {
		config.ProviderAPIKey = c.ProviderAPIKey
	}
	if c.ProviderBaseURL != "" {
		config.ProviderBaseURL = c.ProviderBaseURL
	}
	if c.WebAppURL != "" {
		config.WebAppURL = c.WebAppURL
	}
	if c.AdminAddr != "" {
		config.AdminAddr = c.AdminAddr
	}
	if len(c.AdminIDs) > 0 {
		config.AdminIDs = c.AdminIDs
	}
	if c.PollInterval.Duration != 0 {
		config.PollInterval = c.PollInterval.Duration
	}
	if c.ScanDeadline.Duration != 0 {
		config.ScanDeadline = c.ScanDeadline.Duration
	}
	if c.SubmitMaxAttempts != 0 {
		config.SubmitMaxAttempts = c.SubmitMaxAttempts
	}
	if c.ProviderRequestsPerMinute != 0 {
		config.ProviderRequestsPerMinute = c.ProviderRequestsPerMinute
	}
	if c.ProviderBurst != 0 {
		config.ProviderBurst = c.ProviderBurst
	}
	if c.MaxFileSize != 0 {
		config.MaxFileSize = c.MaxFileSize
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
}
