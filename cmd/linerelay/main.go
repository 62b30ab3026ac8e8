package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/hrlighting/linerelay/internal/api"
	"github.com/hrlighting/linerelay/internal/gas"
	"github.com/hrlighting/linerelay/internal/genai"
	"github.com/hrlighting/linerelay/internal/line"
	"github.com/hrlighting/linerelay/internal/util"
)

// DefaultPort is the port used when $PORT is not set.
const DefaultPort = 5000

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	lineOpts := buildLineOptions(flags)
	gasOpts := buildGASOptions(flags)
	genaiOpts := buildGenAIOptions(flags)
	apiOpts := buildAPIOptions(flags)

	slog.Info("Bootstrapping linerelay with configured modules")
	slog.Debug("Module options counts", "line", len(lineOpts), "gas", len(gasOpts), "genai", len(genaiOpts), "api", len(apiOpts))
	if err := api.Run(lineOpts, gasOpts, genaiOpts, apiOpts); err != nil {
		slog.Error("linerelay failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("linerelay exited successfully")
}

// Config holds environment configuration
type Config struct {
	ChannelSecret string
	ChannelToken  string
	OpenAIKey     string
	GASEndpoint   string
	JournalDSN    string
	Port          int
}

// Flags holds command line flag values
type Flags struct {
	channelSecret *string
	channelToken  *string
	openaiKey     *string
	gasEndpoint   *string
	journalDSN    *string
	addr          *string
}

// initializeLogger sets up structured logging; DEBUG=1 enables debug level.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		ChannelSecret: os.Getenv("LINE_CHANNEL_SECRET"),
		ChannelToken:  os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		GASEndpoint:   os.Getenv("GAS_LINE_LOG_URL"),
		JournalDSN:    os.Getenv("JOURNAL_DSN"),
		Port:          util.ParseIntEnv("PORT", DefaultPort),
	}

	slog.Debug("environment variables loaded",
		"LINE_CHANNEL_SECRET_SET", config.ChannelSecret != "",
		"LINE_CHANNEL_ACCESS_TOKEN_SET", config.ChannelToken != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"GAS_LINE_LOG_URL_SET", config.GASEndpoint != "",
		"JOURNAL_DSN_SET", config.JournalDSN != "",
		"PORT", config.Port)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		channelSecret: flag.String("channel-secret", config.ChannelSecret, "LINE channel secret (overrides $LINE_CHANNEL_SECRET)"),
		channelToken:  flag.String("channel-token", config.ChannelToken, "LINE channel access token (overrides $LINE_CHANNEL_ACCESS_TOKEN)"),
		openaiKey:     flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		gasEndpoint:   flag.String("gas-url", config.GASEndpoint, "external store web app URL (overrides $GAS_LINE_LOG_URL)"),
		journalDSN:    flag.String("journal-dsn", config.JournalDSN, "activity journal DSN, SQLite path or Postgres URL (overrides $JOURNAL_DSN)"),
		addr:          flag.String("addr", fmt.Sprintf(":%d", config.Port), "listen address (overrides $PORT)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"channelSecretSet", *flags.channelSecret != "",
		"channelTokenSet", *flags.channelToken != "",
		"openaiKeySet", *flags.openaiKey != "",
		"gasEndpointSet", *flags.gasEndpoint != "",
		"journalDSNSet", *flags.journalDSN != "",
		"addr", *flags.addr)

	return flags
}

// buildLineOptions constructs LINE client configuration options
func buildLineOptions(flags Flags) []line.Option {
	var lineOpts []line.Option
	if *flags.channelToken != "" {
		lineOpts = append(lineOpts, line.WithChannelToken(*flags.channelToken))
	}
	return lineOpts
}

// buildGASOptions constructs external store configuration options
func buildGASOptions(flags Flags) []gas.Option {
	var gasOpts []gas.Option
	if *flags.gasEndpoint != "" {
		gasOpts = append(gasOpts, gas.WithEndpoint(*flags.gasEndpoint))
	}
	return gasOpts
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	return genaiOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	apiOpts = append(apiOpts, api.WithChannelSecret(*flags.channelSecret))
	if *flags.addr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.addr))
	}
	if *flags.journalDSN != "" {
		apiOpts = append(apiOpts, api.WithJournalDSN(*flags.journalDSN))
	}
	return apiOpts
}
