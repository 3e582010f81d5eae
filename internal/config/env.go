package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays QM_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("QM_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("QM_LOG_FILE_NAME"); v != "" {
		cfg.LogFileName = v
	}
	if v := os.Getenv("QM_DEFAULT_CAMPAIGN"); v != "" {
		cfg.DefaultCampaign = v
	}
	if v := os.Getenv("QM_CAMPAIGN_ID_REGEX"); v != "" {
		cfg.CampaignIDRegex = v
	}
	if v := os.Getenv("QM_ALLOWED_CAMPAIGNS"); v != "" {
		parts := strings.Split(v, ",")
		cfg.AllowedCampaigns = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.AllowedCampaigns = append(cfg.AllowedCampaigns, p)
			}
		}
	}
	if v := os.Getenv("QM_MAX_CAMPAIGNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxCampaigns = n
		}
	}
	if v := os.Getenv("QM_WATCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Watch = b
		}
	}
}
