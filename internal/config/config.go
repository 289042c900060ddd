package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// BotDelay tunes how long the computer-player driver waits between two
// consecutive bot actions, so a string of bot turns reads like a stream of
// messages rather than a single instantaneous dump.
type BotDelay struct {
	MinMillis int `json:"min_millis"`
	MaxMillis int `json:"max_millis"`
}

// Config is the engine's process-wide configuration: who may issue admin
// requests, where results persist, where game resource files (images,
// localized strings) live on disk, and the bot pacing knobs.
type Config struct {
	AdminUserIDs  []uint64 `json:"admin_user_ids"`
	StoreDSN      string   `json:"store_dsn"`
	ResourceRoot  string   `json:"resource_root"`
	BotDelay      BotDelay `json:"bot_delay"`
}

var (
	cfg      *Config
	loadOnce sync.Once
	loadErr  error
)

// Load reads and parses the configuration at path exactly once; subsequent
// calls are no-ops that return the first call's error, if any.
func Load(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("config: read %s: %w", path, err)
			return
		}
		var c Config
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("config: unmarshal %s: %w", path, err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// Get returns the loaded configuration, or nil if Load hasn't succeeded.
func Get() *Config { return cfg }

// IsAdmin reports whether userID appears in the configured admin list.
func IsAdmin(userID uint64) bool {
	if cfg == nil {
		return false
	}
	for _, id := range cfg.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
