package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ByLCY/linecard/layout"
)

func TestParseArgsConfigFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "card.toml")
	conf := `
renderer = "gg"
font = "Go-Bold"
fallbacks = ["Go-Mono"]
font_size = 40
width = 320
background = "white"
autowrap = true
`
	if err := os.WriteFile(path, []byte(conf), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := parseArgs([]string{"-config", path, "-size", "24", "-fallbacks", "a, b", "card.txt"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Renderer != "gg" || cfg.Font != "Go-Bold" || cfg.Width != 320 || !cfg.AutoWrap {
		t.Fatalf("config file values not applied: %+v", cfg)
	}
	if cfg.FontSize != 24 {
		t.Fatalf("explicit flag should override config file, got size %g", cfg.FontSize)
	}
	if !reflect.DeepEqual(cfg.Fallbacks, []string{"a", "b"}) {
		t.Fatalf("unexpected fallbacks %v", cfg.Fallbacks)
	}
	if cfg.Input != "card.txt" || cfg.Output != "output/linecard.png" {
		t.Fatalf("unexpected paths in=%q out=%q", cfg.Input, cfg.Output)
	}
}

func TestParseArgsExplicitZeroPadding(t *testing.T) {
	cfg, err := parseArgs([]string{"-padx", "0", "-pady", "0"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pad := cfg.padding(); pad == nil || pad.X != 0 || pad.Y != 0 {
		t.Fatalf("explicit zero padding must survive, got %+v", pad)
	}

	unset, err := parseArgs(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pad := unset.padding(); pad != nil {
		t.Fatalf("padding without flags should fall back to the layout default, got %+v", pad)
	}

	path := filepath.Join(t.TempDir(), "pad.toml")
	if err := os.WriteFile(path, []byte("padding_x = 5.0"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	fromFile, err := parseArgs([]string{"-config", path})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pad := fromFile.padding(); pad == nil || pad.X != 5 || pad.Y != layout.DefaultPadding {
		t.Fatalf("unexpected padding from config file %+v", pad)
	}
}

func TestParseArgsRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("width = \"wide\""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := parseArgs([]string{"-config", path}); err == nil {
		t.Fatalf("expected error for mistyped config value")
	}
}

func TestRunWritesPNGAndDebug(t *testing.T) {
	for _, backend := range []string{"canvas", "gg"} {
		t.Run(backend, func(t *testing.T) {
			dir := t.TempDir()
			cfg := defaultConfig()
			cfg.Renderer = backend
			cfg.FontDirs = []string{dir}
			cfg.Output = filepath.Join(dir, "out", "card.png")
			cfg.Debug = filepath.Join(dir, "debug", "layout.json")
			cfg.Data = `{"name":"[right]Ada"}`
			cfg.Background = "white"

			if err := run(cfg, strings.NewReader("Hello ${name}\n----\n[center]bye")); err != nil {
				t.Fatalf("run: %v", err)
			}
			data, err := os.ReadFile(cfg.Output)
			if err != nil {
				t.Fatalf("read output: %v", err)
			}
			if _, err := png.Decode(bytes.NewReader(data)); err != nil {
				t.Fatalf("output is not a PNG: %v", err)
			}

			raw, err := os.ReadFile(cfg.Debug)
			if err != nil {
				t.Fatalf("read debug: %v", err)
			}
			var debug struct {
				Records []struct {
					Kind string `json:"kind"`
					Char string `json:"char"`
				} `json:"records"`
			}
			if err := json.Unmarshal(raw, &debug); err != nil {
				t.Fatalf("decode debug: %v", err)
			}
			var text strings.Builder
			for _, rec := range debug.Records {
				text.WriteString(rec.Char)
			}
			if !strings.HasPrefix(text.String(), "Hello [right]Ada") {
				t.Fatalf("bound value should render literally, got %q", text.String())
			}
		})
	}
}

func TestRunRejectsUnknownRenderer(t *testing.T) {
	cfg := defaultConfig()
	cfg.Renderer = "svg"
	cfg.FontDirs = []string{t.TempDir()}
	if err := run(cfg, strings.NewReader("x")); err == nil {
		t.Fatalf("expected error for unknown renderer")
	}
}
