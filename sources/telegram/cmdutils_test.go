package telegram

import "testing"

func TestParseImageCommand(t *testing.T) {
	var cmd ImageCmd
	_, err := parseCmd(&cmd, "--quality hd --provider midjourney a red 'fox cub'")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cmd.Quality != "hd" {
		t.Errorf("Quality = %q, want hd", cmd.Quality)
	}
	if cmd.Provider != "midjourney" {
		t.Errorf("Provider = %q, want midjourney", cmd.Provider)
	}
	if got := joinPrompt(cmd.Prompt); got != "a red fox cub" {
		t.Errorf("prompt = %q, want %q", got, "a red fox cub")
	}
}

func TestParseImageCommandDefaults(t *testing.T) {
	var cmd ImageCmd
	_, err := parseCmd(&cmd, "sunset over mountains")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cmd.Quality != "standard" || cmd.Width != 1024 || cmd.Height != 1024 {
		t.Errorf("unexpected defaults: %+v", cmd)
	}
	if cmd.Provider != "" {
		t.Errorf("Provider = %q, want empty", cmd.Provider)
	}
}

func TestParseChatCommandAdvancedFlag(t *testing.T) {
	var cmd ChatCmd
	_, err := parseCmd(&cmd, "--advanced explain quines")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !cmd.Advanced {
		t.Error("Advanced flag not set")
	}
	if got := joinPrompt(cmd.Prompt); got != "explain quines" {
		t.Errorf("prompt = %q", got)
	}
}

func TestParseVideoCommandRejectsBadMode(t *testing.T) {
	var cmd VideoCmd
	if _, err := parseCmd(&cmd, "--mode ultra a drone shot"); err == nil {
		t.Error("expected enum violation error")
	}
}
