// YAML config loader with CUE validation integration
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"remoteid-beacon/internal/hostapd"
	"remoteid-beacon/internal/logging"
	"remoteid-beacon/internal/remoteid"
	"remoteid-beacon/internal/telemetry"
)

// AP holds the access point and hostapd process settings.
type AP struct {
	Interface     string `yaml:"interface"`
	SSID          string `yaml:"ssid"`
	ConfPath      string `yaml:"conf_path"`
	HostapdBin    string `yaml:"hostapd_bin"`
	Debug         bool   `yaml:"debug"`
	HWMode        string `yaml:"hw_mode"`
	Channel       int    `yaml:"channel"`
	BeaconInt     int    `yaml:"beacon_int"`
	DTIMPeriod    int    `yaml:"dtim_period"`
	MaxNumSta     int    `yaml:"max_num_sta"`
	WPA           int    `yaml:"wpa"`
	WPAPassphrase string `yaml:"wpa_passphrase"`
}

// Beacon controls the broadcast cadence and the synthetic motion.
type Beacon struct {
	Interval   time.Duration `yaml:"interval"`
	UASIDHex   string        `yaml:"uas_id"`
	UASIDLen   int           `yaml:"uas_id_len"`
	StepDeg    float64       `yaml:"step_deg"`
	StepHeight float64       `yaml:"step_height"`
	Speed      float64       `yaml:"speed"`
	Course     float64       `yaml:"course"`
}

// Log configures the slog logger.
type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Greptime locates the optional GreptimeDB beacon recorder.
type Greptime struct {
	Endpoint string `yaml:"endpoint"`
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
}

// Record lists where broadcast beacons are recorded. Empty means off.
type Record struct {
	File     string   `yaml:"file"`
	SQLite   string   `yaml:"sqlite"`
	Greptime Greptime `yaml:"greptime"`
}

// Config is the root configuration.
type Config struct {
	AP     AP     `yaml:"ap"`
	Beacon Beacon `yaml:"beacon"`
	Log    Log    `yaml:"log"`
	Record Record `yaml:"record"`
}

// Default returns the configuration used without a config file.
func Default() *Config {
	s := hostapd.DefaultSettings()
	m := telemetry.DefaultMotion()
	return &Config{
		AP: AP{
			Interface:     s.Interface,
			SSID:          s.SSID,
			ConfPath:      hostapd.DefaultConfPath,
			HostapdBin:    "hostapd",
			HWMode:        s.HWMode,
			Channel:       s.Channel,
			BeaconInt:     s.BeaconInt,
			DTIMPeriod:    s.DTIMPeriod,
			MaxNumSta:     s.MaxNumSta,
			WPA:           s.WPA,
			WPAPassphrase: s.WPAPassphrase,
		},
		Beacon: Beacon{
			Interval:   200 * time.Millisecond,
			UASIDLen:   30,
			StepDeg:    m.StepLon,
			StepHeight: m.StepHeight,
			Speed:      m.Speed,
			Course:     m.Course,
		},
		Log: Log{Level: "info", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28},
		Record: Record{
			Greptime: Greptime{Database: "public"},
		},
	}
}

// Load reads a YAML config, validates it against the CUE schema and lays it
// over the defaults. An empty path returns the defaults. GREPTIMEDB_ENDPOINT
// and GREPTIMEDB_TABLE override the recorder settings.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := ValidateWithCue(path, data); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if env := os.Getenv("GREPTIMEDB_ENDPOINT"); env != "" {
		cfg.Record.Greptime.Endpoint = env
	}
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		cfg.Record.Greptime.Table = env
	}
	return cfg, nil
}

// Settings returns the hostapd parameters.
func (a AP) Settings() hostapd.Settings {
	return hostapd.Settings{
		Interface:     a.Interface,
		SSID:          a.SSID,
		HWMode:        a.HWMode,
		Channel:       a.Channel,
		BeaconInt:     a.BeaconInt,
		DTIMPeriod:    a.DTIMPeriod,
		MaxNumSta:     a.MaxNumSta,
		WPA:           a.WPA,
		WPAPassphrase: a.WPAPassphrase,
	}
}

// Daemon returns the hostapd spawner.
func (a AP) Daemon() hostapd.Daemon {
	return hostapd.Daemon{Bin: a.HostapdBin, Debug: a.Debug, Stdout: os.Stderr, Stderr: os.Stderr}
}

// UASID returns the identifier to broadcast: the configured hex value, else
// UASIDLen zero bytes, else nil (field omitted).
func (b Beacon) UASID() (remoteid.ID, error) {
	if b.UASIDHex != "" {
		id, err := hex.DecodeString(b.UASIDHex)
		if err != nil {
			return nil, fmt.Errorf("uas_id: %w", err)
		}
		return id, nil
	}
	if b.UASIDLen > 0 {
		return make(remoteid.ID, b.UASIDLen), nil
	}
	return nil, nil
}

// Motion returns the per-tick change of the synthetic drone.
func (b Beacon) Motion() telemetry.Motion {
	return telemetry.Motion{
		StepLon:    b.StepDeg,
		StepLat:    b.StepDeg,
		StepHeight: b.StepHeight,
		Speed:      b.Speed,
		Course:     b.Course,
	}
}

// Options returns the logger options.
func (l Log) Options() logging.Options {
	return logging.Options{
		Level:      l.Level,
		File:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
	}
}
