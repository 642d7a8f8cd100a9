package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zurustar/scriptvm/pkg/world"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	content := `
[log]
level = "debug"

[engine]
ticks-per-second = 20
strict-opcodes = true
step-limit = 5000
seed = 42

[save]
path = "saves/game.db"

[scripts]
dir = "asm"
charset = "shift_jis"

[map]
id = 3
name = "Arroyo"
script = "arroyo.asm"
global-vars = 4
globals = [1, 0, 7]

[[objects]]
name = "Aradesh"
pid = 77
tile = 2013
script = "aradesh.asm"
stats = { intelligence = 6, hp = 30 }

[[objects]]
name = "dude"
tile = 2010
dude = true

[[catalog]]
number = 9
file = "rat.asm"

[[messages]]
list = 100
num = 1
text = "Welcome."
`
	path := filepath.Join(dir, "scriptvm.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Log.Level != "debug" || c.Log.Format != "text" {
		t.Errorf("log = %+v", c.Log)
	}
	if c.Engine.TicksPerSecond != 20 || !c.Engine.StrictOpcodes || c.Engine.StepLimit != 5000 || c.Engine.Seed != 42 {
		t.Errorf("engine = %+v", c.Engine)
	}
	if c.Engine.MaxCatchUp != DefaultMaxCatchUp || c.Engine.MaxFrames != DefaultMaxFrames {
		t.Errorf("engine defaults not applied: %+v", c.Engine)
	}
	if c.Map.ID != 3 || c.Map.MapVars != DefaultMapVars || c.Map.GlobalVars != 4 || len(c.Map.Globals) != 3 {
		t.Errorf("map = %+v", c.Map)
	}
	if len(c.Objects) != 2 || c.Objects[0].Kind != "critter" || c.Objects[0].Stats["hp"] != 30 || !c.Objects[1].Dude {
		t.Errorf("objects = %+v", c.Objects)
	}
	if len(c.Catalog) != 1 || c.Catalog[0].Kind != "critter" {
		t.Errorf("catalog = %+v", c.Catalog)
	}
	if len(c.Messages) != 1 || c.Messages[0].Text != "Welcome." {
		t.Errorf("messages = %+v", c.Messages)
	}
	if c.ScriptDir() != filepath.Join(dir, "asm") {
		t.Errorf("ScriptDir() = %q", c.ScriptDir())
	}
	if c.SavePath() != filepath.Join(dir, "saves", "game.db") {
		t.Errorf("SavePath() = %q", c.SavePath())
	}
	if c.Save.Slot != DefaultSaveSlot {
		t.Errorf("slot = %q", c.Save.Slot)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad level", "[log]\nlevel = \"loud\"\n", "invalid log level"},
		{"bad format", "[log]\nformat = \"xml\"\n", "invalid log format"},
		{"unknown key", "[engine]\nturbo = true\n", "unknown key"},
		{"bad charset", "[scripts]\ncharset = \"ebcdic\"\n", "ebcdic"},
		{"too many globals", "[map]\nglobal-vars = 1\nglobals = [1, 2]\n", "global-vars"},
		{"tile off map", "[[objects]]\nname = \"x\"\ntile = 40000\n", "outside the map"},
		{"bad kind", "[[objects]]\nname = \"x\"\nscript = \"x.asm\"\nkind = \"ghost\"\n", "unknown script kind"},
		{"bad stat", "[[objects]]\nname = \"x\"\nstats = { mojo = 1 }\n", "unknown stat"},
		{"two dudes", "[[objects]]\nname = \"a\"\ndude = true\n[[objects]]\nname = \"b\"\ndude = true\n", "dude"},
		{"duplicate catalog", "[[catalog]]\nnumber = 1\nfile = \"a.asm\"\n[[catalog]]\nnumber = 1\nfile = \"b.asm\"\n", "duplicate"},
		{"syntax", "[log\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if c.ScriptDir() != DefaultScriptDir || c.SavePath() != DefaultSavePath {
		t.Errorf("paths = %q, %q", c.ScriptDir(), c.SavePath())
	}
}

func TestParseStat(t *testing.T) {
	if s, err := ParseStat("Intelligence"); err != nil || s != world.StatIntelligence {
		t.Errorf("ParseStat(Intelligence) = %v, %v", s, err)
	}
	if _, err := ParseStat("mojo"); err == nil {
		t.Error("expected error for unknown stat")
	}
}
