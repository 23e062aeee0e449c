package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/molsim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Physics != dynamo.DefaultParams() {
		t.Errorf("unexpected physics %+v", cfg.Physics)
	}
	if cfg.Viewport.Width <= 0 || cfg.Viewport.Height <= 0 {
		t.Error("viewport should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	p, ok := GetPreset("hot")
	if !ok {
		t.Fatal("expected preset")
	}
	if p.Temperature <= 0 {
		t.Errorf("hot preset temperature = %f", p.Temperature)
	}

	if _, ok := GetPreset("nonexistent"); ok {
		t.Error("expected miss for nonexistent preset")
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range ListPresets() {
		p, _ := GetPreset(name)
		if err := p.Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
	if len(ListPresets()) != 5 {
		t.Errorf("presets = %v", ListPresets())
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "molsim.yaml")
	cfg := DefaultConfig()
	cfg.Physics.Gravity = 0.25
	cfg.Theme = "ocean"
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Physics.Gravity != 0.25 || got.Theme != "ocean" || len(got.Server.AllowedOrigins) != 1 {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	src := "physics:\n  temperature: 5\nviewport:\n  width: 1024\n"
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Physics.Temperature != 5 || cfg.Physics.Friction != 0.96 {
		t.Errorf("physics = %+v", cfg.Physics)
	}
	if cfg.Viewport.Width != 1024 || cfg.Viewport.Height != DefaultHeight {
		t.Errorf("viewport = %+v", cfg.Viewport)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"negative friction": "physics:\n  friction: -1\n",
		"zero time step":    "physics:\n  time_step: 0\n",
		"zero width":        "viewport:\n  width: 0\n",
		"zero fps":          "fps: 0\n",
	}
	for name, src := range tests {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		os.WriteFile(path, []byte(src), 0644)
		if _, err := Load(path); !errors.Is(err, dynamo.ErrInvalidParams) {
			t.Errorf("%s: err = %v, want ErrInvalidParams", name, err)
		}
	}
}
