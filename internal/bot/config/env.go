package config

import (
	"os"
	"strconv"
	"strings"
)

// parseEnv overlays secrets and deployment settings from environment
// variables. Only variables that are actually set override the config.
//
// Recognized variables: BOT_TOKEN, DATABASE_URL, VT_API_KEY, WEBAPP_URL,
// ADMIN_ADDR, ADMIN_IDS (comma-separated Telegram ids).
func parseEnv(config *Config) {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		config.BotToken = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("VT_API_KEY"); v != "" {
		config.ProviderAPIKey = v
	}
	if v := os.Getenv("WEBAPP_URL"); v != "" {
		config.WebAppURL = v
	}
	if v := os.Getenv("ADMIN_ADDR"); v != "" {
		config.AdminAddr = v
	}
	if v := os.Getenv("ADMIN_IDS"); v != "" {
		config.AdminIDs = parseAdminIDs(v)
	}
}

// parseAdminIDs splits a comma-separated id list, skipping malformed entries.
func parseAdminIDs(s string) []int64 {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
