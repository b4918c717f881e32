// Package storage reads and writes the schedule settings file and watches it
// for edits.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pomodoro/internal/core/model"
	"pomodoro/internal/platform"
)

// DefaultFileName is the settings file created under the app config dir.
const DefaultFileName = "settings.yaml"

// codec encodes one on-disk format.
type codec interface {
	Marshal(settings fileSettings) ([]byte, error)
	Unmarshal(data []byte, settings *fileSettings) error
}

// fileSettings is the on-disk shape. Absent keys keep their defaults.
type fileSettings struct {
	WorkMinutes         *int         `yaml:"work_minutes,omitempty" toml:"work_minutes,omitempty"`
	ShortBreakMinutes   *int         `yaml:"short_break_minutes,omitempty" toml:"short_break_minutes,omitempty"`
	LongBreakMinutes    *int         `yaml:"long_break_minutes,omitempty" toml:"long_break_minutes,omitempty"`
	LongBreakEvery      *int         `yaml:"long_break_every,omitempty" toml:"long_break_every,omitempty"`
	AccumulateBreakTime *bool        `yaml:"accumulate_break_time,omitempty" toml:"accumulate_break_time,omitempty"`
	AutoStartNextWork   *bool        `yaml:"auto_start_next_work,omitempty" toml:"auto_start_next_work,omitempty"`
	Idle                *fileIdle    `yaml:"idle,omitempty" toml:"idle,omitempty"`
	ScreenLock          *fileTrigger `yaml:"screen_lock,omitempty" toml:"screen_lock,omitempty"`
	Screensaver         *fileTrigger `yaml:"screensaver,omitempty" toml:"screensaver,omitempty"`
	Curfew              *fileCurfew  `yaml:"curfew,omitempty" toml:"curfew,omitempty"`
}

type fileTrigger struct {
	Enabled *bool `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Restart *bool `yaml:"restart,omitempty" toml:"restart,omitempty"`
}

type fileIdle struct {
	Enabled          *bool `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Restart          *bool `yaml:"restart,omitempty" toml:"restart,omitempty"`
	ThresholdMinutes *int  `yaml:"threshold_minutes,omitempty" toml:"threshold_minutes,omitempty"`
}

type fileCurfew struct {
	Enabled *bool `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Hour    *int  `yaml:"hour,omitempty" toml:"hour,omitempty"`
	Minute  *int  `yaml:"minute,omitempty" toml:"minute,omitempty"`
}

// Store owns one settings file. The format follows the file extension:
// .toml is TOML, anything else YAML.
type Store struct {
	path  string
	codec codec
}

// NewStore returns a store for path.
func NewStore(path string) *Store {
	var format codec = yamlCodec{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = tomlCodec{}
	}
	return &Store{path: path, codec: format}
}

// DefaultPath returns <UserConfigDir>/Pomodoro/settings.yaml.
func DefaultPath() (string, error) {
	dir, err := platform.AppConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve settings path: %w", err)
	}
	return filepath.Join(dir, DefaultFileName), nil
}

// Path returns the file the store reads and writes.
func (store *Store) Path() string {
	return store.path
}

// Load returns the settings in the file with out-of-range values replaced
// by defaults. A missing file yields the defaults.
func (store *Store) Load() (model.Settings, error) {
	settings, err := store.Read()
	if errors.Is(err, os.ErrNotExist) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.DefaultSettings(), err
	}
	return settings.Normalized(), nil
}

// Read returns the settings exactly as written, without normalising them.
func (store *Store) Read() (model.Settings, error) {
	settings := model.DefaultSettings()
	rawData, err := os.ReadFile(store.path)
	if err != nil {
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData fileSettings
	if err := store.codec.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings file %s: %w", store.path, err)
	}

	applyFileSettings(&settings, fileData)
	return settings, nil
}

// Encode renders settings in the store's format.
func (store *Store) Encode(settings model.Settings) ([]byte, error) {
	serialized, err := store.codec.Marshal(toFileSettings(settings))
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	return serialized, nil
}

// Save writes settings, replacing the file in one rename.
func (store *Store) Save(settings model.Settings) error {
	dir := filepath.Dir(store.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	serialized, err := store.Encode(settings)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(serialized); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), store.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

func applyFileSettings(settings *model.Settings, fileData fileSettings) {
	setMinutes(&settings.WorkDuration, fileData.WorkMinutes)
	setMinutes(&settings.ShortBreakDuration, fileData.ShortBreakMinutes)
	setMinutes(&settings.LongBreakDuration, fileData.LongBreakMinutes)
	setValue(&settings.LongBreakEvery, fileData.LongBreakEvery)
	setValue(&settings.AccumulateBreakTime, fileData.AccumulateBreakTime)
	setValue(&settings.AutoStartNextWork, fileData.AutoStartNextWork)

	if idle := fileData.Idle; idle != nil {
		setValue(&settings.Idle.Enabled, idle.Enabled)
		setValue(&settings.Idle.Restart, idle.Restart)
		setMinutes(&settings.Idle.Threshold, idle.ThresholdMinutes)
	}
	applyTrigger(&settings.ScreenLock, fileData.ScreenLock)
	applyTrigger(&settings.Screensaver, fileData.Screensaver)
	if curfew := fileData.Curfew; curfew != nil {
		setValue(&settings.Curfew.Enabled, curfew.Enabled)
		setValue(&settings.Curfew.Hour, curfew.Hour)
		setValue(&settings.Curfew.Minute, curfew.Minute)
	}
}

func applyTrigger(trigger *model.Trigger, fileData *fileTrigger) {
	if fileData == nil {
		return
	}
	setValue(&trigger.Enabled, fileData.Enabled)
	setValue(&trigger.Restart, fileData.Restart)
}

func toFileSettings(settings model.Settings) fileSettings {
	return fileSettings{
		WorkMinutes:         minutes(settings.WorkDuration),
		ShortBreakMinutes:   minutes(settings.ShortBreakDuration),
		LongBreakMinutes:    minutes(settings.LongBreakDuration),
		LongBreakEvery:      ptr(settings.LongBreakEvery),
		AccumulateBreakTime: ptr(settings.AccumulateBreakTime),
		AutoStartNextWork:   ptr(settings.AutoStartNextWork),
		Idle: &fileIdle{
			Enabled:          ptr(settings.Idle.Enabled),
			Restart:          ptr(settings.Idle.Restart),
			ThresholdMinutes: minutes(settings.Idle.Threshold),
		},
		ScreenLock:  &fileTrigger{Enabled: ptr(settings.ScreenLock.Enabled), Restart: ptr(settings.ScreenLock.Restart)},
		Screensaver: &fileTrigger{Enabled: ptr(settings.Screensaver.Enabled), Restart: ptr(settings.Screensaver.Restart)},
		Curfew: &fileCurfew{
			Enabled: ptr(settings.Curfew.Enabled),
			Hour:    ptr(settings.Curfew.Hour),
			Minute:  ptr(settings.Curfew.Minute),
		},
	}
}

func setValue[T any](dst *T, value *T) {
	if value != nil {
		*dst = *value
	}
}

func setMinutes(dst *time.Duration, value *int) {
	if value != nil {
		*dst = time.Duration(*value) * time.Minute
	}
}

func minutes(duration time.Duration) *int {
	return ptr(int(duration / time.Minute))
}

func ptr[T any](value T) *T {
	return &value
}
