// Package config handles scriptvm.toml session configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/zurustar/scriptvm/pkg/logger"
	"github.com/zurustar/scriptvm/pkg/script"
	"github.com/zurustar/scriptvm/pkg/world"
)

// Defaults applied after decoding.
const (
	DefaultTicksPerSecond = 10
	DefaultMaxCatchUp     = 5
	DefaultMaxFrames      = 256
	DefaultMapVars        = 16
	DefaultGlobalVars     = 32
	DefaultSavePath       = "scriptvm.db"
	DefaultSaveSlot       = "quick"
	DefaultScriptDir      = "scripts"
	DefaultCharset        = "windows-1252"
)

// Config represents a scriptvm.toml session configuration.
type Config struct {
	Log      Log       `toml:"log"`
	Engine   Engine    `toml:"engine"`
	Save     Save      `toml:"save"`
	Scripts  Scripts   `toml:"scripts"`
	Map      Map       `toml:"map"`
	Objects  []Object  `toml:"objects"`
	Catalog  []Entry   `toml:"catalog"`
	Messages []Message `toml:"messages"`

	// Dir is the directory containing the config file (set at load time).
	Dir string `toml:"-"`
}

// Log configures logging.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Engine configures the VM and the tick clock.
type Engine struct {
	TicksPerSecond int   `toml:"ticks-per-second"`
	MaxCatchUp     int   `toml:"max-catch-up"`
	StrictOpcodes  bool  `toml:"strict-opcodes"`
	StepLimit      int   `toml:"step-limit"`
	MaxFrames      int   `toml:"max-frames"`
	Seed           int64 `toml:"seed"` // 0 picks a random seed
}

// Save configures the save-slot database.
type Save struct {
	Path string `toml:"path"`
	Slot string `toml:"slot"`
}

// Scripts configures where script sources are read from.
type Scripts struct {
	Dir     string `toml:"dir"`
	Charset string `toml:"charset"`
}

// Map describes the map the session starts on.
type Map struct {
	ID         int32   `toml:"id"`
	Name       string  `toml:"name"`
	Script     string  `toml:"script"`
	MapVars    int     `toml:"map-vars"`
	GlobalVars int     `toml:"global-vars"`
	Globals    []int32 `toml:"globals"`
}

// Object is an object placed on the map at startup.
type Object struct {
	Name      string           `toml:"name"`
	PID       int32            `toml:"pid"`
	Tile      int              `toml:"tile"`
	Elevation int              `toml:"elevation"`
	Dude      bool             `toml:"dude"`
	Script    string           `toml:"script"`
	Kind      string           `toml:"kind"`
	Stats     map[string]int32 `toml:"stats"`
}

// Entry maps a script number used by create_object_sid to a source file.
type Entry struct {
	Number uint32 `toml:"number"`
	File   string `toml:"file"`
	Kind   string `toml:"kind"`
}

// Message is one message list entry.
type Message struct {
	List int    `toml:"list"`
	Num  int    `toml:"num"`
	Text string `toml:"text"`
}

var statNames = map[string]world.Stat{
	"strength":     world.StatStrength,
	"perception":   world.StatPerception,
	"endurance":    world.StatEndurance,
	"charisma":     world.StatCharisma,
	"intelligence": world.StatIntelligence,
	"agility":      world.StatAgility,
	"luck":         world.StatLuck,
	"max-hp":       world.StatMaxHitPoints,
	"hp":           world.StatCurrentHitPoints,
}

// ParseStat returns the stat with the given name.
func ParseStat(name string) (world.Stat, error) {
	if s, ok := statNames[strings.ToLower(name)]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("unknown stat %q", name)
}

// Default returns a configuration with every default applied and no map content.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a configuration.
func Parse(data []byte) (*Config, error) {
	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %s", undecoded[0])
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Engine.TicksPerSecond == 0 {
		c.Engine.TicksPerSecond = DefaultTicksPerSecond
	}
	if c.Engine.MaxCatchUp == 0 {
		c.Engine.MaxCatchUp = DefaultMaxCatchUp
	}
	if c.Engine.MaxFrames == 0 {
		c.Engine.MaxFrames = DefaultMaxFrames
	}
	if c.Save.Path == "" {
		c.Save.Path = DefaultSavePath
	}
	if c.Save.Slot == "" {
		c.Save.Slot = DefaultSaveSlot
	}
	if c.Scripts.Dir == "" {
		c.Scripts.Dir = DefaultScriptDir
	}
	if c.Scripts.Charset == "" {
		c.Scripts.Charset = DefaultCharset
	}
	if c.Map.MapVars == 0 {
		c.Map.MapVars = DefaultMapVars
	}
	if c.Map.GlobalVars == 0 {
		c.Map.GlobalVars = DefaultGlobalVars
	}
	for i := range c.Objects {
		if c.Objects[i].Script != "" && c.Objects[i].Kind == "" {
			c.Objects[i].Kind = script.KindCritter.String()
		}
	}
	for i := range c.Catalog {
		if c.Catalog[i].Kind == "" {
			c.Catalog[i].Kind = script.KindCritter.String()
		}
	}
}

// Validate checks values that decoding alone can't.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Log.Format)
	}
	if c.Engine.TicksPerSecond < 0 || c.Engine.MaxCatchUp < 0 || c.Engine.StepLimit < 0 || c.Engine.MaxFrames < 0 {
		return fmt.Errorf("engine settings must be non-negative")
	}
	if _, err := script.Charset(c.Scripts.Charset); err != nil {
		return err
	}
	if c.Map.MapVars < 0 || c.Map.GlobalVars < 0 {
		return fmt.Errorf("variable counts must be non-negative")
	}
	if len(c.Map.Globals) > c.Map.GlobalVars {
		return fmt.Errorf("map.globals has %d values but global-vars is %d", len(c.Map.Globals), c.Map.GlobalVars)
	}

	dudes := 0
	for _, obj := range c.Objects {
		if obj.Name == "" {
			return fmt.Errorf("object without a name")
		}
		if !world.ValidTile(obj.Tile) {
			return fmt.Errorf("object %s: tile %d outside the map", obj.Name, obj.Tile)
		}
		if obj.Script != "" {
			if _, err := script.ParseKind(obj.Kind); err != nil {
				return fmt.Errorf("object %s: %w", obj.Name, err)
			}
		}
		for name := range obj.Stats {
			if _, err := ParseStat(name); err != nil {
				return fmt.Errorf("object %s: %w", obj.Name, err)
			}
		}
		if obj.Dude {
			dudes++
		}
	}
	if dudes > 1 {
		return fmt.Errorf("%d objects are marked as dude", dudes)
	}

	seen := make(map[uint32]bool)
	for _, e := range c.Catalog {
		if e.File == "" {
			return fmt.Errorf("catalog entry %d has no file", e.Number)
		}
		if seen[e.Number] {
			return fmt.Errorf("duplicate catalog entry %d", e.Number)
		}
		seen[e.Number] = true
		if _, err := script.ParseKind(e.Kind); err != nil {
			return fmt.Errorf("catalog entry %d: %w", e.Number, err)
		}
	}
	return nil
}

// ScriptDir returns the script directory, resolved against the config file.
func (c *Config) ScriptDir() string {
	return c.resolve(c.Scripts.Dir)
}

// SavePath returns the save database path, resolved against the config file.
func (c *Config) SavePath() string {
	if c.Save.Path == ":memory:" {
		return c.Save.Path
	}
	return c.resolve(c.Save.Path)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}
