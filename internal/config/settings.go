package config

import (
	_ "embed"
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

type Config struct {
	RateLimit struct {
		WindowSeconds     uint32 `json:"window_seconds"`
		UploadPerWindow   uint32 `json:"upload_per_window"`
		StandardPerWindow uint32 `json:"standard_per_window"`
		SweepTimer        Timer  `json:"sweep_timer"`
	} `json:"rate_limit"`

	Upload struct {
		MaxSizeBytes int64 `json:"max_size_bytes"`
	} `json:"upload"`
}

type Timer struct {
	Days    uint32 `json:"days"`
	Hours   uint32 `json:"hours"`
	Minutes uint32 `json:"minutes"`
	Seconds uint32 `json:"seconds"`
}

const settingsFilePath = "data/settings.json"

var (
	//go:embed default_settings.json
	defaultConfig []byte

	configValue atomic.Value
	configMu    sync.Mutex

	InProductionMode bool
)

func init() {
	cfg := Config{}
	if err := json.Unmarshal(defaultConfig, &cfg); err == nil {
		configValue.Store(cfg)
	} else {
		configValue.Store(Config{})
	}
}

func ReadSettings() {
	data, err := os.ReadFile(settingsFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Settings file not found, creating with default configuration")

			if err = os.MkdirAll("data", os.ModePerm); err != nil {
				log.Error("Error creating directory for settings file:", "error", err)
				return
			}

			if err = os.WriteFile(settingsFilePath, defaultConfig, os.ModePerm); err != nil {
				log.Error("Error writing default settings file:", "error", err)
				return
			}

			data = defaultConfig
		} else {
			log.Error("Error reading settings file:", "error", err)
			return
		}
	}

	var newConfig Config
	if err = json.Unmarshal(data, &newConfig); err != nil {
		log.Error("Error unmarshalling settings file:", "error", err)
		return
	}

	applyConfigUpdate(newConfig, false)

	log.Debug("Settings file loaded successfully")
}

func SetConfig(newConfig Config) {
	applyConfigUpdate(newConfig, true)
}

func applyConfigUpdate(newConfig Config, persistToFile bool) {
	configMu.Lock()
	defer configMu.Unlock()

	newConfig.normalize()
	configValue.Store(newConfig)

	if persistToFile {
		data, err := json.MarshalIndent(newConfig, "", "  ")
		if err != nil {
			log.Error("Error marshalling new configuration:", "error", err)
			return
		}
		if err := os.WriteFile(settingsFilePath, data, os.ModePerm); err != nil {
			log.Error("Error writing new configuration to file:", "error", err)
		}
	}
}

// normalize backfills zero values with the shipped defaults so a sparse or
// hand-edited settings file cannot disable the gate's budgets outright.
func (c *Config) normalize() {
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = 60
	}
	if c.RateLimit.UploadPerWindow == 0 {
		c.RateLimit.UploadPerWindow = 10
	}
	if c.RateLimit.StandardPerWindow == 0 {
		c.RateLimit.StandardPerWindow = 300
	}
	if isZeroTimer(c.RateLimit.SweepTimer) {
		c.RateLimit.SweepTimer = Timer{Minutes: 5}
	}
	if c.Upload.MaxSizeBytes <= 0 {
		c.Upload.MaxSizeBytes = 100 * 1024 * 1024
	}
}

func isZeroTimer(t Timer) bool {
	return t.Days == 0 && t.Hours == 0 && t.Minutes == 0 && t.Seconds == 0
}

func GetConfig() Config {
	return configValue.Load().(Config)
}

func SetProductionMode(production bool) {
	InProductionMode = production
}
