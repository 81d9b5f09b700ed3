package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/folio/layout"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Fatalf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Layout.Unit != "pt" || cfg.Layout.WidthSlack != 1 {
		t.Fatalf("unexpected layout defaults: %+v", cfg.Layout)
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" || cfg.Logging.FileLogger.Level != "none" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
layout:
  unit: mm
  transform_mode: center
  width_slack: 2
fonts:
  - family: Serif
    weight: bold
    src: embed:Go-Bold
render:
  debug_frames: true
`)
	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Layout.Unit != "mm" || !cfg.Render.DebugFrames || len(cfg.Fonts) != 1 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	// untouched sections keep their defaults
	if cfg.Logging.ConsoleLogger.Level != "normal" {
		t.Fatalf("console level = %q, want normal", cfg.Logging.ConsoleLogger.Level)
	}

	lc, err := cfg.LayoutContext()
	if err != nil {
		t.Fatalf("LayoutContext() error = %v", err)
	}
	if lc.Unit != layout.UnitMM || lc.Mode != layout.CenterMode || lc.WidthSlack != 2 {
		t.Fatalf("unexpected context: %+v", lc)
	}
	if lc.Style["family"] != "Go" {
		t.Fatalf("style family = %q, want Go", lc.Style["family"])
	}
}

func TestLoadConfiguration_UnknownField(t *testing.T) {
	path := writeConfig(t, "version: 1\nlayout:\n  colour: red\n")
	if _, err := LoadConfiguration(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadConfiguration_MissingFile(t *testing.T) {
	if _, err := LoadConfiguration(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	path := writeConfig(t, `version: 2
layout:
  unit: furlong
  transform_mode: sideways
  width_slack: -1
fonts:
  - family: Serif
`)
	_, err := LoadConfiguration(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"version 2", "layout.unit", "transform_mode", "width_slack", "fonts[0]"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	path := writeConfig(t, string(data))
	again, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("reloading dumped config: %v", err)
	}
	if again.Layout.Unit != cfg.Layout.Unit || again.Logging.ConsoleLogger.Level != cfg.Logging.ConsoleLogger.Level {
		t.Fatalf("dumped config differs: %+v vs %+v", again, cfg)
	}
	if len(Defaults()) == 0 {
		t.Fatal("Defaults() is empty")
	}
}

func TestPrepareLogger(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "folio.log")
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "debug", Destination: dest, Mode: "overwrite"},
	}
	log, err := conf.Prepare("folio")
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("hello file")
	_ = log.Sync()

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Fatalf("log file missing entry: %q", data)
	}
}
