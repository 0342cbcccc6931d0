package config

import (
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	os.Setenv(envKey, strings.TrimSpace(string(data)))
}

type Config struct {
	Server        ServerConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Zitadel       ZitadelConfig
	Auth          AuthConfig
	Gateway       GatewayConfig
	RateLimit     RateLimitConfig
	OpenAI        OpenAIConfig
	Proxy         ProxyConfig
	GenerationLog GenerationLogConfig
	R2            R2Config
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type ZitadelConfig struct {
	Domain   string
	ClientID string
	Issuer   string
}

// AuthConfig lists the e-mail addresses allowed to read the generation log.
type AuthConfig struct {
	AdminEmails []string
}

type GatewayConfig struct {
	Enabled bool
}

type RateLimitConfig struct {
	DesignsPerDay   int
	AnalysisPerMin  int
	CheckoutPerHour int
	UploadPerHour   int
}

// OpenAIConfig holds the provider credential. It is only read by the proxy
// endpoints; the design pipeline never sees the key.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	ImageModel string
	ChatModel  string
	Timeout    time.Duration
}

// ProxyConfig points the design pipeline at the credential-holding proxy.
// Empty URLs resolve to this server's own /proxy routes. Secret is sent by
// the proxy clients and required by the proxy routes; when unset a random
// per-process value is used, which only works while the proxy is this process.
type ProxyConfig struct {
	DesignURL   string
	AnalysisURL string
	Secret      string
	Timeout     time.Duration
}

type GenerationLogConfig struct {
	Driver string // redis, postgres or sqlite
	DSN    string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

// Load reads config.yaml (optional) and the environment. Environment wins.
func Load() (*Config, error) {
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("OPENAI_API_KEY")
	readSecret("GENERATION_LOG_DSN")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("ZITADEL_CLIENT_ID")
	readSecret("PROXY_SECRET")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()

	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.api_domain", "API_DOMAIN")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("zitadel.domain", "ZITADEL_DOMAIN")
	_ = v.BindEnv("zitadel.client_id", "ZITADEL_CLIENT_ID")
	_ = v.BindEnv("zitadel.issuer", "ZITADEL_ISSUER")
	_ = v.BindEnv("auth.admin_emails", "ADMIN_EMAILS")
	_ = v.BindEnv("gateway.enabled", "GATEWAY_ENABLED")
	_ = v.BindEnv("ratelimit.designs_per_day", "DESIGNS_PER_DAY")
	_ = v.BindEnv("ratelimit.analysis_per_min", "ANALYSIS_PER_MIN")
	_ = v.BindEnv("ratelimit.checkout_per_hour", "CHECKOUT_PER_HOUR")
	_ = v.BindEnv("ratelimit.upload_per_hour", "UPLOAD_PER_HOUR")
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("openai.image_model", "OPENAI_IMAGE_MODEL")
	_ = v.BindEnv("openai.chat_model", "OPENAI_CHAT_MODEL")
	_ = v.BindEnv("openai.timeout", "OPENAI_TIMEOUT")
	_ = v.BindEnv("proxy.design_url", "PROXY_DESIGN_URL")
	_ = v.BindEnv("proxy.analysis_url", "PROXY_ANALYSIS_URL")
	_ = v.BindEnv("proxy.secret", "PROXY_SECRET")
	_ = v.BindEnv("proxy.timeout", "PROXY_TIMEOUT")
	_ = v.BindEnv("generation_log.driver", "GENERATION_LOG_DRIVER")
	_ = v.BindEnv("generation_log.dsn", "GENERATION_LOG_DSN")
	_ = v.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = v.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = v.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = v.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = v.BindEnv("r2.public_url", "R2_PUBLIC_URL")

	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("gateway.enabled", false)

	// The storefront showed the waitlist after three designs.
	v.SetDefault("ratelimit.designs_per_day", 3)
	v.SetDefault("ratelimit.analysis_per_min", 10)
	v.SetDefault("ratelimit.checkout_per_hour", 10)
	v.SetDefault("ratelimit.upload_per_hour", 50)

	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.image_model", "gpt-image-1")
	v.SetDefault("openai.chat_model", "gpt-4o")
	v.SetDefault("openai.timeout", 120*time.Second)
	v.SetDefault("proxy.timeout", 120*time.Second)

	v.SetDefault("generation_log.driver", "redis")

	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      v.GetString("server.port"),
			Env:       v.GetString("server.env"),
			LogLevel:  v.GetString("server.log_level"),
			ApiDomain: v.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
		},
		Zitadel: ZitadelConfig{
			Domain:   v.GetString("zitadel.domain"),
			ClientID: v.GetString("zitadel.client_id"),
			Issuer:   v.GetString("zitadel.issuer"),
		},
		Auth: AuthConfig{
			AdminEmails: splitList(v.GetString("auth.admin_emails")),
		},
		Gateway: GatewayConfig{
			Enabled: v.GetBool("gateway.enabled"),
		},
		RateLimit: RateLimitConfig{
			DesignsPerDay:   v.GetInt("ratelimit.designs_per_day"),
			AnalysisPerMin:  v.GetInt("ratelimit.analysis_per_min"),
			CheckoutPerHour: v.GetInt("ratelimit.checkout_per_hour"),
			UploadPerHour:   v.GetInt("ratelimit.upload_per_hour"),
		},
		OpenAI: OpenAIConfig{
			APIKey:     v.GetString("openai.api_key"),
			BaseURL:    strings.TrimRight(v.GetString("openai.base_url"), "/"),
			ImageModel: v.GetString("openai.image_model"),
			ChatModel:  v.GetString("openai.chat_model"),
			Timeout:    v.GetDuration("openai.timeout"),
		},
		Proxy: ProxyConfig{
			DesignURL:   v.GetString("proxy.design_url"),
			AnalysisURL: v.GetString("proxy.analysis_url"),
			Secret:      v.GetString("proxy.secret"),
			Timeout:     v.GetDuration("proxy.timeout"),
		},
		GenerationLog: GenerationLogConfig{
			Driver: strings.ToLower(v.GetString("generation_log.driver")),
			DSN:    v.GetString("generation_log.dsn"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.account_id"),
			AccessKeyID:     v.GetString("r2.access_key_id"),
			SecretAccessKey: v.GetString("r2.secret_access_key"),
			BucketName:      v.GetString("r2.bucket_name"),
			PublicURL:       v.GetString("r2.public_url"),
		},
	}

	if cfg.Proxy.DesignURL == "" {
		cfg.Proxy.DesignURL = "http://127.0.0.1:" + cfg.Server.Port + "/proxy/generate-design"
	}
	if cfg.Proxy.AnalysisURL == "" {
		cfg.Proxy.AnalysisURL = "http://127.0.0.1:" + cfg.Server.Port + "/proxy/analyze-image"
	}
	if cfg.Proxy.Secret == "" {
		cfg.Proxy.Secret = uuid.NewString()
	}

	return cfg, nil
}

// IsAdmin reports whether email is on the admin allow-list.
func (a AuthConfig) IsAdmin(email string) bool {
	for _, e := range a.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
