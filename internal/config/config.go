package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Env holds process-level settings read from environment variables.
// Everything else lives in the JSON config file.
type Env struct {
	ConfigPath string `envconfig:"NOVA_CONFIG" default:"config.json"`
	LogLevel   string `envconfig:"NOVA_LOG_LEVEL" default:"info"`
}

// LoadEnv reads process-level environment variables into Env.
func LoadEnv() (Env, error) {
	var e Env
	if err := envconfig.Process("", &e); err != nil {
		return e, err
	}
	return e, nil
}

// DiscordConfig holds the Discord connection settings.
type DiscordConfig struct {
	BotToken      string `json:"bot_token"`
	CommandPrefix string `json:"command_prefix,omitempty"`
}

// ScheduleConfig holds the daily summary settings. Immutable after load.
type ScheduleConfig struct {
	NotifyChannelID  string `json:"notify_channel_id"`
	DailySummaryTime string `json:"daily_summary_time"` // 24-hour HH:MM
	TimeZone         string `json:"time_zone"`
}

// GoogleConfig holds the OAuth credentials for the Google Calendar API.
// The refresh token is the durable credential; access tokens are derived
// from it at runtime.
type GoogleConfig struct {
	ClientID       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
	RefreshToken   string `json:"refresh_token"`
	TokenURI       string `json:"token_uri,omitempty"`
	CalendarID     string `json:"calendar_id,omitempty"`
	TokenCachePath string `json:"token_cache_path,omitempty"`
}

// LLMCommandConfig holds the settings for one LLM-backed command.
type LLMCommandConfig struct {
	ProviderName string `json:"provider_name"`
	APIURL       string `json:"api_url"`
	ModelName    string `json:"model_name"`
	APIKey       string `json:"api_key"`
	SystemPrompt string `json:"system_prompt"`
}

// Configured reports whether every field required to call the provider is set.
func (c LLMCommandConfig) Configured() bool {
	return c.ProviderName != "" && c.APIURL != "" && c.ModelName != "" &&
		c.APIKey != "" && c.SystemPrompt != ""
}

// Config is the full bot configuration.
type Config struct {
	Discord  DiscordConfig               `json:"discord"`
	Schedule ScheduleConfig              `json:"schedule"`
	Google   GoogleConfig                `json:"google"`
	LLM      map[string]LLMCommandConfig `json:"llm,omitempty"`
	StateDB  string                      `json:"state_db,omitempty"`
}

// LoadConfigFromFile loads configuration from a JSON file. String values of
// the form ${ENV_VAR} are replaced with the value of that environment
// variable before validation, so secrets can be kept out of the file.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	expandPlaceholders(&config)
	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// expandPlaceholders replaces ${ENV_VAR} values across all string fields.
func expandPlaceholders(c *Config) {
	fields := []*string{
		&c.Discord.BotToken, &c.Discord.CommandPrefix,
		&c.Schedule.NotifyChannelID, &c.Schedule.DailySummaryTime, &c.Schedule.TimeZone,
		&c.Google.ClientID, &c.Google.ClientSecret, &c.Google.RefreshToken,
		&c.Google.TokenURI, &c.Google.CalendarID, &c.Google.TokenCachePath,
		&c.StateDB,
	}
	for _, f := range fields {
		*f = expand(*f)
	}
	for name, cmd := range c.LLM {
		cmd.ProviderName = expand(cmd.ProviderName)
		cmd.APIURL = expand(cmd.APIURL)
		cmd.ModelName = expand(cmd.ModelName)
		cmd.APIKey = expand(cmd.APIKey)
		cmd.SystemPrompt = expand(cmd.SystemPrompt)
		c.LLM[name] = cmd
	}
}

// expand resolves a single ${ENV_VAR} placeholder. Unset variables leave the
// placeholder intact so validation can report the missing value by name.
func expand(v string) string {
	if !strings.HasPrefix(v, "${") || !strings.HasSuffix(v, "}") {
		return v
	}
	name := v[2 : len(v)-1]
	if got, ok := os.LookupEnv(name); ok {
		return got
	}
	return v
}

func applyDefaults(c *Config) {
	if c.Discord.CommandPrefix == "" {
		c.Discord.CommandPrefix = "!"
	}
	if c.Schedule.DailySummaryTime == "" {
		c.Schedule.DailySummaryTime = "08:00"
	}
	if c.Schedule.TimeZone == "" {
		c.Schedule.TimeZone = "Local"
	}
	if c.Google.TokenURI == "" {
		c.Google.TokenURI = "https://oauth2.googleapis.com/token"
	}
	if c.Google.CalendarID == "" {
		c.Google.CalendarID = "primary"
	}
	if c.StateDB == "" {
		c.StateDB = "./data/nova.db"
	}
}

// Validate checks that required values are present and well-formed.
// Malformed values fail process startup, not a scheduling cycle.
func (c *Config) Validate() error {
	if c.Discord.BotToken == "" || strings.HasPrefix(c.Discord.BotToken, "${") {
		return fmt.Errorf("discord.bot_token must be provided via config file or environment variable")
	}
	if c.Schedule.NotifyChannelID == "" {
		return fmt.Errorf("schedule.notify_channel_id must be provided")
	}
	if _, err := strconv.ParseUint(c.Schedule.NotifyChannelID, 10, 64); err != nil {
		return fmt.Errorf("schedule.notify_channel_id %q is not a valid channel id", c.Schedule.NotifyChannelID)
	}
	if _, _, err := ParseHHMM(c.Schedule.DailySummaryTime); err != nil {
		return fmt.Errorf("schedule.daily_summary_time %q: %w", c.Schedule.DailySummaryTime, err)
	}
	if _, err := time.LoadLocation(c.Schedule.TimeZone); err != nil {
		return fmt.Errorf("schedule.time_zone %q is not a valid IANA time zone: %w", c.Schedule.TimeZone, err)
	}
	if c.Google.ClientID == "" || c.Google.ClientSecret == "" {
		return fmt.Errorf("google.client_id and google.client_secret must be provided")
	}
	if c.Google.RefreshToken == "" || strings.HasPrefix(c.Google.RefreshToken, "${") {
		return fmt.Errorf("google.refresh_token must be provided via config file or environment variable")
	}
	return nil
}

// Location returns the configured time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ParseHHMM parses a 24-hour "HH:MM" string into hour and minute.
func ParseHHMM(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM")
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour")
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute")
	}
	return hour, minute, nil
}
