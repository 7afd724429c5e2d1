// README: Config loader with env defaults for HTTP, stores, knowledge base, and AI providers.
package config

import (
	"os"
	"strconv"
)

type KBConfig struct {
	CSVPath      string
	UseEmbedding bool
	Translate    bool
}

type ResponderConfig struct {
	// Provider is "openai" or "gemini".
	Provider    string
	OpenAIKey   string
	OpenAIModel string
	EmbedModel  string
	GeminiKey   string
	GeminiModel string
	// PromptFile overrides the built-in persona instruction;
	// PromptReload re-reads it on every request.
	PromptFile   string
	PromptReload bool
}

type Config struct {
	HTTP struct {
		Addr string
	}
	Uploads struct {
		Dir string
	}
	// Redis.Addr empty means sessions stay in process memory.
	Redis struct {
		Addr string
	}
	// DB.DSN empty disables the intake archive.
	DB struct {
		DSN string
	}
	// Maps.APIKey empty disables the drop-off locator.
	Maps struct {
		APIKey string
	}
	KB        KBConfig
	Responder ResponderConfig
	Language  struct {
		UseLLM bool
	}
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("TLX_HTTP_ADDR", ":8000")
	cfg.Uploads.Dir = envOrDefault("TLX_UPLOAD_DIR", "uploads")
	cfg.Redis.Addr = envOrDefault("TLX_REDIS_ADDR", "")
	cfg.DB.DSN = envOrDefault("TLX_DB_DSN", "")
	cfg.Maps.APIKey = envOrDefault("TLX_MAPS_API_KEY", "")
	cfg.KB.CSVPath = envOrDefault("TLX_KB_CSV", "QR.csv")
	cfg.KB.UseEmbedding = envOrDefaultBool("TLX_KB_USE_EMBED", false)
	cfg.KB.Translate = envOrDefaultBool("TLX_KB_TRANSLATE", false)
	cfg.Language.UseLLM = envOrDefaultBool("TLX_LANG_USE_LLM", false)
	cfg.Responder.Provider = envOrDefault("TLX_RESPONDER", "openai")
	cfg.Responder.OpenAIKey = envOrDefault("OPENAI_API_KEY", "")
	cfg.Responder.OpenAIModel = envOrDefault("OPENAI_MODEL", "gpt-4o-mini")
	cfg.Responder.EmbedModel = envOrDefault("OPENAI_EMBED_MODEL", "text-embedding-3-small")
	cfg.Responder.GeminiKey = envOrDefault("GEMINI_API_KEY", "")
	cfg.Responder.GeminiModel = envOrDefault("GEMINI_MODEL", "gemini-2.0-flash")
	cfg.Responder.PromptFile = envOrDefault("TLX_PROMPT_FILE", "")
	cfg.Responder.PromptReload = envOrDefaultBool("TLX_PROMPT_RELOAD", false)
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
