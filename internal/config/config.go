package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// GameConfig tunes the per-match clocks. All values are whole seconds
// because the match loop ticks once per second.
type GameConfig struct {
	TurnSeconds            int `json:"turn_seconds"`
	DisconnectGraceSeconds int `json:"disconnect_grace_seconds"`
	ResetDelaySeconds      int `json:"reset_delay_seconds"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, or nil when no
// config file has been loaded.
func GetGameConfig() *GameConfig {
	return cfg
}

// TurnSeconds returns the configured turn clock, or the default.
func TurnSeconds() int {
	if cfg == nil || cfg.TurnSeconds <= 0 {
		return 10
	}
	return cfg.TurnSeconds
}

// DisconnectGraceSeconds returns the configured removal grace, or the default.
func DisconnectGraceSeconds() int {
	if cfg == nil || cfg.DisconnectGraceSeconds <= 0 {
		return 60
	}
	return cfg.DisconnectGraceSeconds
}

// ResetDelaySeconds returns the configured post-game delay, or the default.
func ResetDelaySeconds() int {
	if cfg == nil || cfg.ResetDelaySeconds <= 0 {
		return 3
	}
	return cfg.ResetDelaySeconds
}
