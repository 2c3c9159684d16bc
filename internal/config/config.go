package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Logging    LoggingConfig
	Redis      RedisConfig
	Cache      CacheConfig
	LLM        LLMConfig
	Proxy      ProxyConfig
	ToolServer ToolServerConfig
	Agent      AgentConfig
	TTS        TTSConfig
	Research   ResearchConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type LoggingConfig struct {
	Level string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	FetchTTL time.Duration // 0 disables the proxy response cache
}

type LLMConfig struct {
	GeminiKey        string
	OpenAIKey        string
	AnthropicKey     string
	OllamaURL        string
	SummaryProvider  string
	SummaryModel     string
	FallbackProvider string
	FallbackModel    string // empty means the fallback provider's first model
	MaxRetries       int
}

// ProxyConfig addresses the web-unlocking service used by the news pipeline.
type ProxyConfig struct {
	Endpoint string
	APIKey   string
	Zone     string
}

// ToolServerConfig describes the subprocess that exposes forum tools.
type ToolServerConfig struct {
	Command  string
	Args     []string
	APIToken string
	Zone     string
}

type AgentConfig struct {
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxSteps    int
}

type TTSConfig struct {
	Backend       string // "elevenlabs" or "openai"
	ElevenLabsKey string
	OpenAIKey     string
	OpenAIBaseURL string
	VoiceID       string
	ModelID       string
	OutputFormat  string
	OutputDir     string
}

// ResearchConfig scales every pause, permit window and backoff bound.
type ResearchConfig struct {
	TimeUnit     time.Duration
	LookbackDays int
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8002)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	fetchTTL, err := getEnvDuration("FETCH_CACHE_TTL", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_CACHE_TTL: %w", err)
	}

	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	temperature, err := getEnvFloat("AGENT_TEMPERATURE", 0.3)
	if err != nil {
		return nil, fmt.Errorf("invalid AGENT_TEMPERATURE: %w", err)
	}

	maxTokens, err := getEnvInt("AGENT_MAX_TOKENS", 4000)
	if err != nil {
		return nil, fmt.Errorf("invalid AGENT_MAX_TOKENS: %w", err)
	}

	maxSteps, err := getEnvInt("AGENT_MAX_STEPS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid AGENT_MAX_STEPS: %w", err)
	}

	unit, err := getEnvDuration("RESEARCH_TIME_UNIT", time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid RESEARCH_TIME_UNIT: %w", err)
	}

	lookback, err := getEnvInt("FORUM_LOOKBACK_DAYS", 14)
	if err != nil {
		return nil, fmt.Errorf("invalid FORUM_LOOKBACK_DAYS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Cache: CacheConfig{
			FetchTTL: fetchTTL,
		},
		LLM: LLMConfig{
			GeminiKey:        getEnv("GEMINI_API_KEY", ""),
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			OllamaURL:        getEnv("OLLAMA_URL", ""),
			SummaryProvider:  getEnv("LLM_SUMMARY_PROVIDER", "gemini"),
			SummaryModel:     getEnv("LLM_SUMMARY_MODEL", "gemini-2.5-flash"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			FallbackModel:    getEnv("LLM_FALLBACK_MODEL", ""),
			MaxRetries:       maxRetries,
		},
		Proxy: ProxyConfig{
			Endpoint: getEnv("BRIGHTDATA_ENDPOINT", "https://api.brightdata.com/request"),
			APIKey:   getEnv("BRIGHTDATA_API_KEY", ""),
			Zone:     getEnv("BRIGHTDATA_WEB_UNLOCKER_ZONE", ""),
		},
		ToolServer: ToolServerConfig{
			Command:  getEnv("TOOL_SERVER_COMMAND", "npx"),
			Args:     strings.Fields(getEnv("TOOL_SERVER_ARGS", "@brightdata/mcp")),
			APIToken: getEnv("API_TOKEN", ""),
			Zone:     getEnv("WEB_UNLOCKER_ZONE", ""),
		},
		Agent: AgentConfig{
			Provider:    getEnv("AGENT_PROVIDER", "anthropic"),
			Model:       getEnv("AGENT_MODEL", "claude-3-5-sonnet-20240620"),
			Temperature: temperature,
			MaxTokens:   maxTokens,
			MaxSteps:    maxSteps,
		},
		TTS: TTSConfig{
			Backend:       getEnv("TTS_BACKEND", "elevenlabs"),
			ElevenLabsKey: getEnv("ELEVEN_API_KEY", ""),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("TTS_OPENAI_BASE_URL", ""),
			VoiceID:       getEnv("TTS_VOICE_ID", "JBFqnCBsd6RMkjVDRZzb"),
			ModelID:       getEnv("TTS_MODEL_ID", "eleven_multilingual_v2"),
			OutputFormat:  getEnv("TTS_OUTPUT_FORMAT", "mp3_44100_128"),
			OutputDir:     getEnv("AUDIO_OUTPUT_DIR", "audio"),
		},
		Research: ResearchConfig{
			TimeUnit:     unit,
			LookbackDays: lookback,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate reports credentials missing for the configured backends. The
// server still starts without them; requests touching that backend fail.
func (c *Config) Validate() error {
	var missing []string
	if c.Proxy.APIKey == "" {
		missing = append(missing, "BRIGHTDATA_API_KEY")
	}
	if c.Proxy.Zone == "" {
		missing = append(missing, "BRIGHTDATA_WEB_UNLOCKER_ZONE")
	}
	switch c.LLM.SummaryProvider {
	case "gemini":
		if c.LLM.GeminiKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	case "openai":
		if c.LLM.OpenAIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "anthropic":
		if c.LLM.AnthropicKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	}
	if c.Agent.Provider == "anthropic" && c.LLM.AnthropicKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}
	switch c.TTS.Backend {
	case "elevenlabs":
		if c.TTS.ElevenLabsKey == "" {
			missing = append(missing, "ELEVEN_API_KEY")
		}
	case "openai":
		if c.TTS.OpenAIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown TTS_BACKEND %q", c.TTS.Backend)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(dedupe(missing), ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
