package config

import "strings"

// Config is the main configuration carrier.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Input    InputConfig    `yaml:"input"`
	Store    StoreConfig    `yaml:"store"`
	Profiles ProfilesConfig `yaml:"profiles"`
}

type AppConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	HTTPAddr string `yaml:"http_addr"`
	LogPath  string `yaml:"log_path"`
}

// AnalysisConfig holds the defaults applied when an upload omits a
// parameter. Every field can be overridden per request.
type AnalysisConfig struct {
	DefaultLeverage float64 `yaml:"default_leverage"`
	DefaultProfile  string  `yaml:"default_profile"`
	DefaultPolicy   string  `yaml:"default_policy"`
	GapSeconds      int     `yaml:"gap_seconds"`
	SplitOnSideFlip bool    `yaml:"split_on_side_flip"`
	TrackExcursion  bool    `yaml:"track_excursion"`
}

// InputConfig names the export columns when the upload deviates from
// the stock headers.
type InputConfig struct {
	TimeColumn     string `yaml:"time_column"`
	SignalColumn   string `yaml:"signal_column"`
	PriceColumn    string `yaml:"price_column"`
	QuantityColumn string `yaml:"quantity_column"`
	PnLColumn      string `yaml:"pnl_column"`
	Delimiter      string `yaml:"delimiter"`
}

type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

// ProfilesConfig points at the optional custom strategy profile file.
type ProfilesConfig struct {
	Path string `yaml:"path"`
}

// keySet tracks the field paths explicitly set in the config file.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault describes the default rule for a single field.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
