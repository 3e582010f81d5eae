package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file and environment.
type Config struct {
	// DataDir holds one subdirectory per campaign.
	DataDir string `json:"dataDir" yaml:"dataDir"`

	// LogFileName is the activity-log file name inside a campaign directory.
	LogFileName string `json:"logFileName" yaml:"logFileName"`

	// DefaultCampaign is used when a caller names no campaign.
	DefaultCampaign string `json:"defaultCampaign" yaml:"defaultCampaign"`

	// CampaignIDRegex constrains campaign ids (anchored on both ends).
	CampaignIDRegex string `json:"campaignIdRegex" yaml:"campaignIdRegex"`

	// AllowedCampaigns, when non-empty, is an allow-list of campaign ids.
	AllowedCampaigns []string `json:"allowedCampaigns" yaml:"allowedCampaigns"`

	// MaxCampaigns caps the registry size; 0 means unlimited.
	MaxCampaigns int `json:"maxCampaigns" yaml:"maxCampaigns"`

	// Watch enables change notification on campaign logs.
	Watch bool `json:"watch" yaml:"watch"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DataDir:         DefaultDataDir(),
		LogFileName:     "activity-log.md",
		DefaultCampaign: "default",
		CampaignIDRegex: "[a-z0-9-_]{1,64}",
		Watch:           true,
	}
}

// Load reads configuration from a JSON or YAML file (by extension). An empty
// path returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
