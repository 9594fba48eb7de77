// Package config loads HarvestConfig from file and environment
// sources using viper (command-line flags are not bound into it),
// grounded on pkg/config/config.go of the
// teacher repo (its Manager wrapper, config path / env-prefix
// conventions). The mapstructure decode-hook composition the teacher
// uses for map/slice/struct-valued fields is not needed here — every
// HarvestConfig field is a scalar — so defaults are set directly via
// viper.SetDefault instead.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/sjzar/keyharvest/internal/errors"
)

const (
	AppName      = "keyharvest"
	EnvPrefix    = "KEYHARVEST"
	configType   = "json"
	EnvConfigDir = "KEYHARVEST_DIR"
)

// HarvestConfig is the complete set of tunables for one extraction
// run.
type HarvestConfig struct {
	Platform   string `mapstructure:"platform"`
	PID        uint32 `mapstructure:"pid"`
	DataDir    string `mapstructure:"data_dir"`
	XorByte    uint8  `mapstructure:"xor_byte"`
	FFmpegPath string `mapstructure:"ffmpeg_path"`
	LogLevel   string `mapstructure:"log_level"`
	OutputJSON bool   `mapstructure:"output_json"`
}

// Defaults mirrors the teacher's *Defaults package vars (e.g.
// conf.TUIDefaults): the baseline values applied before file/env
// overrides.
var Defaults = map[string]any{
	"platform":    "",
	"pid":         0,
	"data_dir":    "",
	"xor_byte":    0x37,
	"ffmpeg_path": "ffmpeg",
	"log_level":   "info",
	"output_json": false,
}

// Manager owns a viper instance scoped to one config file plus the
// process environment.
type Manager struct {
	Path  string
	Viper *viper.Viper
}

// New builds a Manager rooted at path (or $KEYHARVEST_DIR, or
// ~/.keyharvest if both are empty), wired for KEYHARVEST_-prefixed
// environment overrides.
func New(path string) (*Manager, error) {
	if path == "" {
		path = os.Getenv(EnvConfigDir)
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		path = filepath.Join(home, "."+AppName)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errors.Config("failed to prepare config directory", err)
	}

	v := viper.New()
	v.SetConfigType(configType)
	v.SetConfigName(AppName)
	v.AddConfigPath(path)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, val := range Defaults {
		v.SetDefault(key, val)
	}

	return &Manager{Path: path, Viper: v}, nil
}

// Load reads the config file (if present — its absence is not an
// error, since env/defaults may fully cover a run) and
// unmarshals into a fresh HarvestConfig.
func (m *Manager) Load() (*HarvestConfig, error) {
	if err := m.Viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Debug().Err(err).Msg("failed reading config file, continuing with defaults/env/flags")
		}
	}

	conf := &HarvestConfig{}
	if err := m.Viper.Unmarshal(conf); err != nil {
		return nil, errors.Config("failed to unmarshal config", err)
	}
	return conf, nil
}
