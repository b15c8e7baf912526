package strat

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// MatchConfig controls timing and the fixed poses of a match. Start and
// retreat coordinates are canonical; the strategy mirrors them per color.
type MatchConfig struct {
	Duration     time.Duration `koanf:"duration"`
	PollInterval time.Duration `koanf:"poll_interval"`
	StartX       float64       `koanf:"start_x"`
	StartY       float64       `koanf:"start_y"`
	StartHeading float64       `koanf:"start_heading"`
	RetreatX     float64       `koanf:"retreat_x"`
	RetreatY     float64       `koanf:"retreat_y"`
}

// PolicyConfig holds the goal-selection and recovery policy. These are
// match tuning, not physics; every value can be overridden per match.
type PolicyConfig struct {
	TakeFirstGlassLeft bool          `koanf:"take_first_glass_left"`
	GlassBudget        int           `koanf:"glass_budget"`
	GoalCost           int           `koanf:"goal_cost"`
	GiftCooldown       int           `koanf:"gift_cooldown"`
	AvoidOffset        float64       `koanf:"avoid_offset"`
	AvoidTimeout       time.Duration `koanf:"avoid_timeout"`
	RetreatWindow      time.Duration `koanf:"retreat_window"`
}

// BridgeConfig controls the UDP link to the motion board.
type BridgeConfig struct {
	CommandAddr string `koanf:"command_addr"`
	StatusAddr  string `koanf:"status_addr"`
	ReadBuffer  int    `koanf:"read_buffer"`
}

// TelemetryConfig controls the optional metrics endpoint.
type TelemetryConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// Config aggregates all configuration sections.
type Config struct {
	Match     MatchConfig     `koanf:"match"`
	Policy    PolicyConfig    `koanf:"policy"`
	Bridge    BridgeConfig    `koanf:"bridge"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
// The start pose is the calibrated corner pose against the border.
func DefaultConfig() Config {
	return Config{
		Match: MatchConfig{
			Duration:     MatchTime * time.Second,
			PollInterval: 20 * time.Millisecond,
			StartX:       88.5,
			StartY:       TableWidth - 213,
			StartHeading: 90,
			RetreatX:     400,
			RetreatY:     TableWidth - 400,
		},
		Policy: PolicyConfig{
			TakeFirstGlassLeft: true,
			GlassBudget:        60,
			GoalCost:           8,
			GiftCooldown:       5,
			AvoidOffset:        250,
			AvoidTimeout:       3 * time.Second,
			RetreatWindow:      3 * time.Second,
		},
		Bridge: BridgeConfig{
			CommandAddr: "127.0.0.1:3000",
			StatusAddr:  "127.0.0.1:3001",
			ReadBuffer:  2048,
		},
		Telemetry: TelemetryConfig{
			Addr: "127.0.0.1:7070",
		},
	}
}

// LoadConfig reads configuration with the usual precedence: environment
// variables over the YAML file at path over defaults. An empty path, or a
// path that does not exist, skips the file layer.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// STRAT_POLICY_GIFT_COOLDOWN -> policy.gift_cooldown
	if err := k.Load(env.Provider("STRAT_", ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, "STRAT_"))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return cfg, fmt.Errorf("load environment: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the control loop cannot run with.
func (c Config) Validate() error {
	if c.Match.Duration <= 0 {
		return fmt.Errorf("match.duration must be > 0")
	}
	if c.Match.PollInterval <= 0 {
		return fmt.Errorf("match.poll_interval must be > 0")
	}
	if c.Policy.GoalCost < 0 || c.Policy.GlassBudget < 0 || c.Policy.GiftCooldown < 0 {
		return fmt.Errorf("policy durations must not be negative")
	}
	if c.Policy.AvoidTimeout <= 0 || c.Policy.RetreatWindow <= 0 {
		return fmt.Errorf("policy.avoid_timeout and policy.retreat_window must be > 0")
	}
	return nil
}
