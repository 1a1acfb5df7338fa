package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pidalamatteo/GestureRecognition/internal/smooth"
)

// smoothingConfigKey is the settings key under which the smoothing
// parameters persist between runs.
const smoothingConfigKey = "smoothing_config"

// SettingsRepository provides key-value settings storage.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get retrieves a setting value by key.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set stores a setting value, replacing any existing value for the key.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// SaveSmoothingConfig persists the smoothing parameters as JSON.
func (r *SettingsRepository) SaveSmoothingConfig(config smooth.Config) error {
	data, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshal smoothing config: %w", err)
	}
	return r.Set(smoothingConfigKey, string(data))
}

// LoadSmoothingConfig reads the persisted smoothing parameters. Returns
// ErrNotFound when none were saved yet.
func (r *SettingsRepository) LoadSmoothingConfig() (smooth.Config, error) {
	value, err := r.Get(smoothingConfigKey)
	if err != nil {
		return smooth.Config{}, err
	}

	var config smooth.Config
	if err := json.Unmarshal([]byte(value), &config); err != nil {
		return smooth.Config{}, fmt.Errorf("parse smoothing config: %w", err)
	}
	return config, nil
}
