package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/yungbote/lingua-backend/internal/platform/envutil"
)

// ConfigPathEnv names the TOML file read when no --config flag is given.
const ConfigPathEnv = "LINGUA_CONFIG"

type DBConfig struct {
	Driver           string `toml:"driver"`
	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     string `toml:"postgres_port"`
	PostgresUser     string `toml:"postgres_user"`
	PostgresPassword string `toml:"postgres_password"`
	PostgresName     string `toml:"postgres_name"`
	PostgresSSLMode  string `toml:"postgres_sslmode"`
	SQLitePath       string `toml:"sqlite_path"`
	AutoMigrate      bool   `toml:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecretKey string `toml:"jwt_secret_key"`
	// TTLs are whole seconds, like the environment variables.
	AccessTokenTTL  int `toml:"access_token_ttl"`
	RefreshTokenTTL int `toml:"refresh_token_ttl"`
}

type CacheConfig struct {
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	KeyPrefix     string `toml:"key_prefix"`
	TreeTTL       int    `toml:"tree_ttl"`
}

type StorageConfig struct {
	Mode          string `toml:"mode"`
	Bucket        string `toml:"bucket"`
	EmulatorHost  string `toml:"emulator_host"`
	LocalDir      string `toml:"local_dir"`
	PublicBaseURL string `toml:"public_base_url"`
}

type ExtractionConfig struct {
	Provider          string   `toml:"provider"`
	OpenAIAPIKey      string   `toml:"openai_api_key"`
	OpenAIBaseURL     string   `toml:"openai_base_url"`
	OpenAIModel       string   `toml:"openai_model"`
	OpenAITimeout     int      `toml:"openai_timeout"`
	OpenAIMaxRetries  int      `toml:"openai_max_retries"`
	OpenAITemperature *float64 `toml:"openai_temperature"`
	GeminiAPIKey      string   `toml:"gemini_api_key"`
	GeminiBaseURL     string   `toml:"gemini_base_url"`
	GeminiModel       string   `toml:"gemini_model"`
	GeminiTemperature *float64 `toml:"gemini_temperature"`
	VisionOCREnabled  bool     `toml:"vision_ocr_enabled"`
	OCRLanguageHints  bool     `toml:"ocr_language_hints"`
	MaxImages         int      `toml:"max_images"`
	MaxImageBytes     int      `toml:"max_image_bytes"`
	MaxEdgePx         int      `toml:"max_edge_px"`
	Concurrency       int      `toml:"concurrency"`
}

type PlaybackConfig struct {
	Voices           []string `toml:"voices"`
	TranslationVoice string   `toml:"translation_voice"`
}

type Config struct {
	Port        string   `toml:"port"`
	LogMode     string   `toml:"log_mode"`
	Environment string   `toml:"environment"`
	CORSOrigins []string `toml:"cors_allowed_origins"`
	CoverColors []string `toml:"cover_colors"`

	DB         DBConfig         `toml:"db"`
	Auth       AuthConfig       `toml:"auth"`
	Cache      CacheConfig      `toml:"cache"`
	Storage    StorageConfig    `toml:"storage"`
	Extraction ExtractionConfig `toml:"extraction"`
	Playback   PlaybackConfig   `toml:"playback"`
}

func defaultConfig() Config {
	return Config{
		Port:        "8080",
		LogMode:     "development",
		Environment: "development",
		DB: DBConfig{
			Driver:       "postgres",
			PostgresHost: "localhost",
			PostgresPort: "5432",
			PostgresUser: "postgres",
			PostgresName: "lingua",
			SQLitePath:   "lingua.db",
			AutoMigrate:  true,
		},
		Auth: AuthConfig{
			JWTSecretKey:    "defaultsecret",
			AccessTokenTTL:  3600,
			RefreshTokenTTL: 30 * 24 * 3600,
		},
		Cache: CacheConfig{KeyPrefix: "lingua", TreeTTL: 600},
		Storage: StorageConfig{
			Mode:     "local",
			LocalDir: "media",
		},
		Extraction: ExtractionConfig{
			Provider:         "none",
			OpenAIModel:      "gpt-4.1-mini",
			OpenAITimeout:    180,
			OpenAIMaxRetries: 2,
			GeminiModel:      "gemini-2.5-flash",
			MaxImages:        6,
			MaxImageBytes:    8 << 20,
			MaxEdgePx:        2048,
			Concurrency:      4,
		},
	}
}

// LoadConfig layers defaults, then the TOML file at path (or $LINGUA_CONFIG),
// then environment variables. An empty path with no LINGUA_CONFIG skips the
// file.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv(ConfigPathEnv))
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = envutil.String("PORT", c.Port)
	c.LogMode = envutil.String("LOG_MODE", c.LogMode)
	c.Environment = envutil.String("APP_ENV", c.Environment)
	c.CORSOrigins = envutil.List("CORS_ALLOWED_ORIGINS", c.CORSOrigins)
	c.CoverColors = envutil.List("COVER_COLORS", c.CoverColors)

	c.DB.Driver = envutil.String("DB_DRIVER", c.DB.Driver)
	c.DB.PostgresHost = envutil.String("POSTGRES_HOST", c.DB.PostgresHost)
	c.DB.PostgresPort = envutil.String("POSTGRES_PORT", c.DB.PostgresPort)
	c.DB.PostgresUser = envutil.String("POSTGRES_USER", c.DB.PostgresUser)
	c.DB.PostgresPassword = envutil.String("POSTGRES_PASSWORD", c.DB.PostgresPassword)
	c.DB.PostgresName = envutil.String("POSTGRES_NAME", c.DB.PostgresName)
	c.DB.PostgresSSLMode = envutil.String("POSTGRES_SSLMODE", c.DB.PostgresSSLMode)
	c.DB.SQLitePath = envutil.String("SQLITE_PATH", c.DB.SQLitePath)
	c.DB.AutoMigrate = envutil.Bool("DB_AUTO_MIGRATE", c.DB.AutoMigrate)

	c.Auth.JWTSecretKey = envutil.String("JWT_SECRET_KEY", c.Auth.JWTSecretKey)
	c.Auth.AccessTokenTTL = envutil.Int("ACCESS_TOKEN_TTL", c.Auth.AccessTokenTTL)
	c.Auth.RefreshTokenTTL = envutil.Int("REFRESH_TOKEN_TTL", c.Auth.RefreshTokenTTL)

	c.Cache.RedisAddr = envutil.String("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = envutil.String("REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Cache.RedisDB = envutil.Int("REDIS_DB", c.Cache.RedisDB)
	c.Cache.TreeTTL = envutil.Int("CATALOG_CACHE_TTL", c.Cache.TreeTTL)

	c.Storage.Mode = envutil.String("OBJECT_STORAGE_MODE", c.Storage.Mode)
	c.Storage.Bucket = envutil.String("GCS_BUCKET_NAME", c.Storage.Bucket)
	c.Storage.EmulatorHost = envutil.String("STORAGE_EMULATOR_HOST", c.Storage.EmulatorHost)
	c.Storage.LocalDir = envutil.String("LOCAL_STORAGE_DIR", c.Storage.LocalDir)
	c.Storage.PublicBaseURL = envutil.String("PUBLIC_BASE_URL", c.Storage.PublicBaseURL)

	e := &c.Extraction
	e.Provider = strings.ToLower(envutil.String("EXTRACT_PROVIDER", e.Provider))
	e.OpenAIAPIKey = envutil.String("OPENAI_API_KEY", e.OpenAIAPIKey)
	e.OpenAIBaseURL = envutil.String("OPENAI_BASE_URL", e.OpenAIBaseURL)
	e.OpenAIModel = envutil.String("OPENAI_MODEL", e.OpenAIModel)
	e.OpenAITimeout = envutil.Int("OPENAI_TIMEOUT_SECONDS", e.OpenAITimeout)
	e.OpenAIMaxRetries = envutil.Int("OPENAI_MAX_RETRIES", e.OpenAIMaxRetries)
	if t := envutil.Float("OPENAI_TEMPERATURE"); t != nil {
		e.OpenAITemperature = t
	}
	e.GeminiAPIKey = envutil.String("GEMINI_API_KEY", e.GeminiAPIKey)
	e.GeminiBaseURL = envutil.String("GEMINI_BASE_URL", e.GeminiBaseURL)
	e.GeminiModel = envutil.String("GEMINI_MODEL", e.GeminiModel)
	if t := envutil.Float("GEMINI_TEMPERATURE"); t != nil {
		e.GeminiTemperature = t
	}
	e.VisionOCREnabled = envutil.Bool("VISION_OCR_ENABLED", e.VisionOCREnabled)
	e.OCRLanguageHints = envutil.Bool("VISION_OCR_LANGUAGE_HINTS", e.OCRLanguageHints)
	e.MaxImages = envutil.Int("EXTRACT_MAX_IMAGES", e.MaxImages)
	e.MaxImageBytes = envutil.Int("EXTRACT_MAX_IMAGE_BYTES", e.MaxImageBytes)
	e.MaxEdgePx = envutil.Int("EXTRACT_MAX_EDGE_PX", e.MaxEdgePx)
	e.Concurrency = envutil.Int("EXTRACT_CONCURRENCY", e.Concurrency)

	c.Playback.Voices = envutil.List("TTS_VOICES", c.Playback.Voices)
	c.Playback.TranslationVoice = envutil.String("TTS_TRANSLATION_VOICE", c.Playback.TranslationVoice)
}

func (c Config) Validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver)
	}
	switch c.Extraction.Provider {
	case "openai", "gemini", "none", "":
	default:
		return fmt.Errorf("EXTRACT_PROVIDER must be openai, gemini or none, got %q", c.Extraction.Provider)
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.Extraction.MaxImages <= 0 || c.Extraction.MaxImageBytes <= 0 || c.Extraction.MaxEdgePx <= 0 {
		return fmt.Errorf("extraction limits must be positive")
	}
	return nil
}

func (c Config) AccessTTL() time.Duration  { return time.Duration(c.Auth.AccessTokenTTL) * time.Second }
func (c Config) RefreshTTL() time.Duration { return time.Duration(c.Auth.RefreshTokenTTL) * time.Second }
func (c Config) TreeTTL() time.Duration    { return time.Duration(c.Cache.TreeTTL) * time.Second }

// Address is the listen address for the HTTP server.
func (c Config) Address() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
