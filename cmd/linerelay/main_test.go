package main

import (
	"os"
	"testing"
)

func clearRelayEnv() {
	os.Unsetenv("LINE_CHANNEL_SECRET")
	os.Unsetenv("LINE_CHANNEL_ACCESS_TOKEN")
	os.Unsetenv("OPENAI_API_KEY")
	os.Unsetenv("GAS_LINE_LOG_URL")
	os.Unsetenv("JOURNAL_DSN")
	os.Unsetenv("PORT")
}

func TestLoadEnvironmentConfigDefaults(t *testing.T) {
	clearRelayEnv()

	config := loadEnvironmentConfig()

	if config.Port != DefaultPort {
		t.Errorf("Expected default port %d, got %d", DefaultPort, config.Port)
	}
	if config.ChannelSecret != "" || config.ChannelToken != "" {
		t.Errorf("Expected empty credentials by default, got %+v", config)
	}
	if config.GASEndpoint != "" || config.JournalDSN != "" {
		t.Errorf("Expected empty store configuration by default, got %+v", config)
	}
}

func TestLoadEnvironmentConfigFromEnv(t *testing.T) {
	clearRelayEnv()
	os.Setenv("LINE_CHANNEL_SECRET", "secret")
	os.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "token")
	os.Setenv("GAS_LINE_LOG_URL", "https://script.example/exec")
	os.Setenv("PORT", "8080")
	defer clearRelayEnv()

	config := loadEnvironmentConfig()

	if config.ChannelSecret != "secret" || config.ChannelToken != "token" {
		t.Errorf("Expected credentials from environment, got %+v", config)
	}
	if config.GASEndpoint != "https://script.example/exec" {
		t.Errorf("Expected store endpoint from environment, got %q", config.GASEndpoint)
	}
	if config.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", config.Port)
	}
}

func TestLoadEnvironmentConfigInvalidPort(t *testing.T) {
	clearRelayEnv()
	os.Setenv("PORT", "not-a-number")
	defer clearRelayEnv()

	config := loadEnvironmentConfig()
	if config.Port != DefaultPort {
		t.Errorf("Expected default port for invalid value, got %d", config.Port)
	}
}

func TestBuildLineOptions(t *testing.T) {
	token := "token"
	empty := ""

	flags := Flags{channelToken: &token}
	if opts := buildLineOptions(flags); len(opts) != 1 {
		t.Errorf("Expected 1 LINE option with a token, got %d", len(opts))
	}

	flags.channelToken = &empty
	if opts := buildLineOptions(flags); len(opts) != 0 {
		t.Errorf("Expected 0 LINE options without a token, got %d", len(opts))
	}
}

func TestBuildGASOptions(t *testing.T) {
	url := "https://script.example/exec"
	empty := ""

	flags := Flags{gasEndpoint: &url}
	if opts := buildGASOptions(flags); len(opts) != 1 {
		t.Errorf("Expected 1 store option with an endpoint, got %d", len(opts))
	}

	flags.gasEndpoint = &empty
	if opts := buildGASOptions(flags); len(opts) != 0 {
		t.Errorf("Expected 0 store options without an endpoint, got %d", len(opts))
	}
}

func TestBuildGenAIOptions(t *testing.T) {
	key := "sk-test"
	empty := ""

	flags := Flags{openaiKey: &key}
	if opts := buildGenAIOptions(flags); len(opts) != 1 {
		t.Errorf("Expected 1 GenAI option with an API key, got %d", len(opts))
	}

	flags.openaiKey = &empty
	if opts := buildGenAIOptions(flags); len(opts) != 0 {
		t.Errorf("Expected 0 GenAI options without an API key, got %d", len(opts))
	}
}

func TestBuildAPIOptions(t *testing.T) {
	secret := "secret"
	addr := ":8080"
	dsn := "/tmp/journal.db"
	empty := ""

	flags := Flags{channelSecret: &secret, addr: &addr, journalDSN: &dsn}
	if opts := buildAPIOptions(flags); len(opts) != 3 {
		t.Errorf("Expected 3 API options, got %d", len(opts))
	}

	flags = Flags{channelSecret: &secret, addr: &empty, journalDSN: &empty}
	if opts := buildAPIOptions(flags); len(opts) != 1 {
		t.Errorf("Expected only the channel secret option, got %d", len(opts))
	}
}
