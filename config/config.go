package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/samaelod/anycan/types"
)

type Bus struct {
	Driver        string `mapstructure:"driver"`
	Channel       string `mapstructure:"channel"`
	Bitrate       int    `mapstructure:"bitrate"`
	ConfigureLink bool   `mapstructure:"configure_link"`
}

type Timing struct {
	PausePollMs      int `mapstructure:"pause_poll_ms"`
	ReceiveTimeoutMs int `mapstructure:"receive_timeout_ms"`
	DebounceMs       int `mapstructure:"debounce_ms"`
	SettleMs         int `mapstructure:"settle_ms"`
}

type Cycle struct {
	Count   int `mapstructure:"count"`
	DelayMs int `mapstructure:"delay_ms"`
}

type Export struct {
	Path     string `mapstructure:"path"`
	PcapPath string `mapstructure:"pcap_path"`
}

type Config struct {
	Bus    Bus    `mapstructure:"bus"`
	Timing Timing `mapstructure:"timing"`
	Cycle  Cycle  `mapstructure:"cycle"`
	Export Export `mapstructure:"export"`

	LogLines  int    `mapstructure:"log_lines"`
	LogsDir   string `mapstructure:"logs_dir"`
	RecentDir string `mapstructure:"recent_dir"`
	CasesDir  string `mapstructure:"cases_dir"`
}

const envPrefix = "ANYCAN"

var defaults = map[string]any{
	"bus.driver":                "socketcan",
	"bus.channel":               "can0",
	"bus.bitrate":               500000,
	"bus.configure_link":        false,
	"timing.pause_poll_ms":      100,
	"timing.receive_timeout_ms": 1000,
	"timing.debounce_ms":        1000,
	"timing.settle_ms":          1000,
	"cycle.count":               1,
	"cycle.delay_ms":            0,
	"export.path":               "can_messages.csv",
	"export.pcap_path":          "",
	"log_lines":                 1000,
	"logs_dir":                  "logs",
	"recent_dir":                "recent",
	"cases_dir":                 "",
}

func Default() *Config {
	cfg, _ := decode(newViper())
	return cfg
}

// Load reads path, or the first existing default location when path is
// empty. ANYCAN_* environment variables override file values.
func Load(path string) (*Config, error) {
	return load(path, newViper())
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"driver":         "bus.driver",
	"channel":        "bus.channel",
	"bitrate":        "bus.bitrate",
	"configure-link": "bus.configure_link",
	"cycles":         "cycle.count",
	"cycle-delay":    "cycle.delay_ms",
	"cases":          "cases_dir",
	"export":         "export.path",
	"pcap":           "export.pcap_path",
}

// RegisterFlags declares the config overrides on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("driver", "", "bus driver: socketcan or virtual")
	fs.String("channel", "", "CAN interface, e.g. can0")
	fs.Int("bitrate", 0, "bitrate applied with --configure-link")
	fs.Bool("configure-link", false, "set the interface bitrate with ip link (needs CAP_NET_ADMIN)")
	fs.Int("cycles", 0, "cycle count")
	fs.Int("cycle-delay", 0, "delay after each cycle in ms")
	fs.String("cases", "", "test case folder")
	fs.String("export", "", "CSV export path")
	fs.String("pcap", "", "also write captured frames as pcap to this path")
}

// LoadWithFlags is Load with the flags changed on fs taking precedence
// over the environment and the file.
func LoadWithFlags(path string, fs *pflag.FlagSet) (*Config, error) {
	v := newViper()
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("%w: flag %s: %v", types.ErrConfig, name, err)
		}
	}
	return load(path, v)
}

func load(path string, v *viper.Viper) (*Config, error) {
	if path == "" {
		for _, p := range searchPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("%w: %s: %v", types.ErrConfig, path, err)
			}
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func searchPaths() []string {
	paths := []string{"anycan.json", ".anycan.json"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "anycan", "config.json"))
	}
	return paths
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrConfig, err)
	}

	// Zero values from a sparse file fall back to defaults.
	if cfg.LogLines <= 0 {
		cfg.LogLines = 1000
	}
	if cfg.LogsDir == "" {
		cfg.LogsDir = "logs"
	}
	if cfg.RecentDir == "" {
		cfg.RecentDir = "recent"
	}
	if cfg.Export.Path == "" {
		cfg.Export.Path = "can_messages.csv"
	}
	if cfg.Timing.PausePollMs <= 0 {
		cfg.Timing.PausePollMs = 100
	}
	if cfg.Timing.ReceiveTimeoutMs <= 0 {
		cfg.Timing.ReceiveTimeoutMs = 1000
	}
	return cfg, nil
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	switch {
	case c.Cycle.Count < 0:
		return fmt.Errorf("%w: cycle.count must not be negative", types.ErrConfig)
	case c.Cycle.DelayMs < 0:
		return fmt.Errorf("%w: cycle.delay_ms must not be negative", types.ErrConfig)
	case c.Timing.DebounceMs < 0, c.Timing.SettleMs < 0:
		return fmt.Errorf("%w: timing values must not be negative", types.ErrConfig)
	case c.Bus.Bitrate < 0:
		return fmt.Errorf("%w: bus.bitrate must not be negative", types.ErrConfig)
	}
	return nil
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func (t Timing) PausePoll() time.Duration      { return ms(t.PausePollMs) }
func (t Timing) ReceiveTimeout() time.Duration { return ms(t.ReceiveTimeoutMs) }
func (t Timing) Debounce() time.Duration       { return ms(t.DebounceMs) }
func (t Timing) Settle() time.Duration         { return ms(t.SettleMs) }
