package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
	File   string `mapstructure:"file"`   // empty = stderr
}

// PlayerConfig places one player
type PlayerConfig struct {
	Name     string  `mapstructure:"name"`
	Model    string  `mapstructure:"model"`
	X        float64 `mapstructure:"x"`
	Z        float64 `mapstructure:"z"`
	Heading  float64 `mapstructure:"heading"`
	AutoFire bool    `mapstructure:"autoFire"`
}

// SceneryConfig scatters copies of one model
type SceneryConfig struct {
	Model    string  `mapstructure:"model"`
	Category string  `mapstructure:"category"`
	Count    int     `mapstructure:"count"`
	Radius   float64 `mapstructure:"radius"`
	Scale    float64 `mapstructure:"scale"`
	Wander   bool    `mapstructure:"wander"`
}

// MatchConfig holds match layout and pacing
type MatchConfig struct {
	Seed        int64           `mapstructure:"seed"`
	TickRate    int             `mapstructure:"tickRate"`
	TimeLimit   float64         `mapstructure:"timeLimit"`
	SpawnRange  float64         `mapstructure:"spawnRange"`
	CellSize    float64         `mapstructure:"cellSize"`
	QueryMargin float64         `mapstructure:"queryMargin"`
	Linger      float64         `mapstructure:"linger"`
	Surface     bool            `mapstructure:"surface"`
	Players     []PlayerConfig  `mapstructure:"players"`
	Scenery     []SceneryConfig `mapstructure:"scenery"`
}

// TuningConfig overrides kinematic and combat constants
type TuningConfig struct {
	Friction          float64 `mapstructure:"friction"`
	MovementStep      float64 `mapstructure:"movementStep"`
	RotationStep      float64 `mapstructure:"rotationStep"`
	MaxSpeed          float64 `mapstructure:"maxSpeed"`
	ActionInterval    float64 `mapstructure:"actionInterval"`
	ShootInterval     float64 `mapstructure:"shootInterval"`
	AutoShootInterval float64 `mapstructure:"autoShootInterval"`
}

// BindingConfig maps keys to one player's controls
type BindingConfig struct {
	Left     string `mapstructure:"left"`
	Right    string `mapstructure:"right"`
	Forward  string `mapstructure:"forward"`
	Backward string `mapstructure:"backward"`
	Shoot    string `mapstructure:"shoot"`
}

// BindingsConfig holds both players' key bindings and viewer timing
type BindingsConfig struct {
	PlayerOne BindingConfig `mapstructure:"playerOne"`
	PlayerTwo BindingConfig `mapstructure:"playerTwo"`
	KeyHoldMS int           `mapstructure:"keyHoldMs"`
}

// TerrainConfig selects the heightmap source
type TerrainConfig struct {
	Image     string  `mapstructure:"image"` // empty = generated
	Scale     float64 `mapstructure:"scale"`
	Bumpiness float64 `mapstructure:"bumpiness"`
	Width     int     `mapstructure:"width"`
	Depth     int     `mapstructure:"depth"`
}

// FeedConfig holds renderer feed server settings
type FeedConfig struct {
	Addr          string `mapstructure:"addr"`
	PublicURL     string `mapstructure:"publicUrl"`
	BroadcastRate int    `mapstructure:"broadcastRate"`
	MaxConnsPerIP int    `mapstructure:"maxConnsPerIP"`
	MaxTotalConns int    `mapstructure:"maxTotalConns"`
	BotMatches    int    `mapstructure:"botMatches"`
	ShowQR        bool   `mapstructure:"showQR"`
}

// StoreConfig holds match history database settings
type StoreConfig struct {
	Path    string `mapstructure:"path"` // empty = disabled
	History int    `mapstructure:"history"`
}

// AudioConfig holds cue rendering settings
type AudioConfig struct {
	Output     string  `mapstructure:"output"` // WAV path, empty = disabled
	SampleRate int     `mapstructure:"sampleRate"`
	Volume     float64 `mapstructure:"volume"`
}

// Config is the full application configuration
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Match    MatchConfig    `mapstructure:"match"`
	Tuning   TuningConfig   `mapstructure:"tuning"`
	Bindings BindingsConfig `mapstructure:"bindings"`
	Terrain  TerrainConfig  `mapstructure:"terrain"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Store    StoreConfig    `mapstructure:"store"`
	Audio    AudioConfig    `mapstructure:"audio"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")

	v.SetDefault("match.seed", 1)
	v.SetDefault("match.tickRate", 60)
	v.SetDefault("match.timeLimit", 0)
	v.SetDefault("match.spawnRange", DefaultSpawnRange)
	v.SetDefault("match.cellSize", DefaultSpatialCellSize)
	v.SetDefault("match.queryMargin", DefaultQueryMargin)
	v.SetDefault("match.linger", 3.0)
	v.SetDefault("match.surface", true)

	v.SetDefault("tuning.friction", EntityFriction)
	v.SetDefault("tuning.movementStep", EntityMovementStep)
	v.SetDefault("tuning.rotationStep", EntityRotationStep)
	v.SetDefault("tuning.maxSpeed", EntityMaxSpeed)
	v.SetDefault("tuning.actionInterval", PlayerActionInterval)
	v.SetDefault("tuning.shootInterval", PlayerShootInterval)
	v.SetDefault("tuning.autoShootInterval", PlayerAutoShootInterval)

	v.SetDefault("bindings.playerOne.left", "A")
	v.SetDefault("bindings.playerOne.right", "D")
	v.SetDefault("bindings.playerOne.forward", "W")
	v.SetDefault("bindings.playerOne.backward", "S")
	v.SetDefault("bindings.playerOne.shoot", "Space")
	v.SetDefault("bindings.playerTwo.left", "J")
	v.SetDefault("bindings.playerTwo.right", "L")
	v.SetDefault("bindings.playerTwo.forward", "I")
	v.SetDefault("bindings.playerTwo.backward", "K")
	v.SetDefault("bindings.playerTwo.shoot", "Enter")
	v.SetDefault("bindings.keyHoldMs", 150)

	v.SetDefault("terrain.image", "")
	v.SetDefault("terrain.scale", 20.0)
	v.SetDefault("terrain.bumpiness", 120.0)
	v.SetDefault("terrain.width", 129)
	v.SetDefault("terrain.depth", 129)

	v.SetDefault("feed.addr", ":8080")
	v.SetDefault("feed.publicUrl", "")
	v.SetDefault("feed.broadcastRate", 20)
	v.SetDefault("feed.maxConnsPerIP", 5)
	v.SetDefault("feed.maxTotalConns", 1000)
	v.SetDefault("feed.botMatches", 1)
	v.SetDefault("feed.showQR", true)

	v.SetDefault("store.path", "")
	v.SetDefault("store.history", 20)

	v.SetDefault("audio.output", "")
	v.SetDefault("audio.sampleRate", 44100)
	v.SetDefault("audio.volume", 0.0)
}

// LoadConfig reads configuration from path (optional) and OCTO_ prefixed
// environment variables over the defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("OCTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the simulation cannot run with
func (c *Config) Validate() error {
	switch {
	case c.Match.TickRate <= 0:
		return fmt.Errorf("%w: match.tickRate must be positive", ErrInvalidConfig)
	case c.Match.SpawnRange <= 0:
		return fmt.Errorf("%w: match.spawnRange must be positive", ErrInvalidConfig)
	case c.Match.TimeLimit < 0:
		return fmt.Errorf("%w: match.timeLimit must not be negative", ErrInvalidConfig)
	case c.Tuning.MaxSpeed <= 0:
		return fmt.Errorf("%w: tuning.maxSpeed must be positive", ErrInvalidConfig)
	case c.Tuning.Friction < 0 || c.Tuning.MovementStep < 0 || c.Tuning.RotationStep < 0:
		return fmt.Errorf("%w: tuning steps must not be negative", ErrInvalidConfig)
	case c.Terrain.Scale <= 0:
		return fmt.Errorf("%w: terrain.scale must be positive", ErrInvalidConfig)
	case c.Terrain.Image == "" && (c.Terrain.Width < 2 || c.Terrain.Depth < 2):
		return fmt.Errorf("%w: terrain.width and terrain.depth must be at least 2", ErrInvalidConfig)
	case c.Feed.BroadcastRate <= 0 || c.Feed.BroadcastRate > c.Match.TickRate:
		return fmt.Errorf("%w: feed.broadcastRate must be in (0, match.tickRate]", ErrInvalidConfig)
	}
	if len(c.Match.Players) != 0 && len(c.Match.Players) != 2 {
		return fmt.Errorf("%w: match.players needs exactly two entries", ErrInvalidConfig)
	}
	for _, sc := range c.Match.Scenery {
		if _, err := ParseCategory(sc.Category); err != nil {
			return fmt.Errorf("%w: scenery %q: %w", ErrInvalidConfig, sc.Model, err)
		}
	}
	return nil
}

// MatchSetup builds the match setup described by the configuration
func (c *Config) MatchSetup(seed int64) MatchSetup {
	s := DefaultMatchSetup(seed)
	s.TimeLimit = c.Match.TimeLimit
	s.SpawnRange = c.Match.SpawnRange
	s.CellSize = c.Match.CellSize
	s.QueryMargin = c.Match.QueryMargin
	s.Surface = c.Match.Surface
	s.Tuning = Tuning{
		Friction:     c.Tuning.Friction,
		MovementStep: c.Tuning.MovementStep,
		RotationStep: c.Tuning.RotationStep,
		MaxSpeed:     c.Tuning.MaxSpeed,
	}
	s.PlayerTuning = PlayerTuning{
		ActionInterval:    c.Tuning.ActionInterval,
		ShootInterval:     c.Tuning.ShootInterval,
		AutoShootInterval: c.Tuning.AutoShootInterval,
	}

	if len(c.Match.Players) == 2 {
		for i, pc := range c.Match.Players {
			s.Players[i] = PlayerSetup{
				Name:     pc.Name,
				Model:    pc.Model,
				Position: Vec3{pc.X, 0, pc.Z},
				Heading:  pc.Heading,
				AutoFire: pc.AutoFire,
			}
		}
	}
	if len(c.Match.Scenery) > 0 {
		s.Scenery = s.Scenery[:0]
		for _, sc := range c.Match.Scenery {
			cat, _ := ParseCategory(sc.Category) // checked by Validate
			s.Scenery = append(s.Scenery, ScenerySetup{
				Model:    sc.Model,
				Category: cat,
				Count:    sc.Count,
				Radius:   sc.Radius,
				Scale:    sc.Scale,
				Wander:   sc.Wander,
			})
		}
	}
	return s
}

// TickDT returns the fixed simulation step in seconds
func (c *Config) TickDT() float64 {
	return 1 / float64(c.Match.TickRate)
}
