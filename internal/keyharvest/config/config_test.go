package config

import "testing"

func TestLoadAppliesDefaults(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	conf, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if conf.FFmpegPath != "ffmpeg" {
		t.Errorf("expected default ffmpeg_path, got %q", conf.FFmpegPath)
	}
	if conf.LogLevel != "info" {
		t.Errorf("expected default log_level, got %q", conf.LogLevel)
	}
	if conf.XorByte != 0x37 {
		t.Errorf("expected default xor_byte 0x37, got 0x%x", conf.XorByte)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("KEYHARVEST_PLATFORM", "darwin")

	m, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	conf, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if conf.Platform != "darwin" {
		t.Errorf("expected env override to set platform=darwin, got %q", conf.Platform)
	}
}
