package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
)

const devJWTSecret = "dev-secret-change-in-production"

// CredentialTTL is how long an issued session token stays valid.
const CredentialTTL = 7 * 24 * time.Hour

type DBConfig struct {
	Type        string
	Path        string
	PostgresDSN string
}

type StreamConfig struct {
	MaxSubscribers int
	Buffer         int
	KeepAlive      time.Duration
}

type CGMConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	PollInterval time.Duration
	Backfill     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
}

type TelegramConfig struct {
	Token   string
	ChatIDs []int64
	// readings older than this are not alerted, so a backfill stays quiet
	MaxAlertAge time.Duration
}

type Config struct {
	Env string

	DB DBConfig

	HTTPHostPort string
	GRPCHostPort string

	AuthRate  float64
	AuthBurst int

	JWTSecret string
	JWTExpiry time.Duration

	Log common.LogOptions

	GlucoseLow  float64
	GlucoseHigh float64

	Stream   StreamConfig
	CGM      CGMConfig
	Redis    RedisConfig
	Telegram TelegramConfig
}

// LoadDotEnv reads a .env file into the process environment when one exists.
// A missing file is not an error; production deployments set real variables.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load .env: %w", err)
}

// NewViper returns a viper instance with every default registered and
// environment lookup enabled, ready for cobra flags to be bound on top.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(common.EnvKeyGoEnv, "development")
	v.SetDefault(common.EnvKeyDBType, "file")
	v.SetDefault(common.EnvKeyDBPath, "glucose.db")
	v.SetDefault(common.EnvKeyPostgresDSN, "")
	v.SetDefault(common.EnvKeyHttpHostPort, ":1080")
	v.SetDefault(common.EnvKeyGrpcHostPort, "")
	v.SetDefault(common.EnvKeyAuthRate, 1.0)
	v.SetDefault(common.EnvKeyAuthBurst, 5)
	v.SetDefault(common.EnvKeyJWTSecret, devJWTSecret)
	v.SetDefault(common.EnvKeyLogDir, "logs")
	v.SetDefault(common.EnvKeyLogLevel, "info")
	v.SetDefault(common.EnvKeyGlucoseLowThreshold, 70.0)
	v.SetDefault(common.EnvKeyGlucoseHighThreshold, 180.0)
	v.SetDefault(common.EnvKeyStreamMaxSubscribers, 256)
	v.SetDefault(common.EnvKeyStreamBuffer, 64)
	v.SetDefault(common.EnvKeyStreamKeepAlive, "25s")
	v.SetDefault(common.EnvKeyCGMBaseURL, "https://sandbox-api.dexcom.com")
	v.SetDefault(common.EnvKeyCGMClientID, "")
	v.SetDefault(common.EnvKeyCGMClientSecret, "")
	v.SetDefault(common.EnvKeyCGMRedirectURL, "http://localhost:1080/api/dexcom/callback")
	v.SetDefault(common.EnvKeyCGMPollInterval, "5m")
	v.SetDefault(common.EnvKeyCGMBackfill, "24h")
	v.SetDefault(common.EnvKeyRedisAddr, "")
	v.SetDefault(common.EnvKeyRedisPassword, "")
	v.SetDefault(common.EnvKeyTelegramToken, "")
	v.SetDefault(common.EnvKeyTelegramChatIDs, "")
	v.SetDefault(common.EnvKeyTelegramMaxAge, "30m")

	return v
}

func Load(v *viper.Viper) (*Config, error) {
	chatIDs, err := parseChatIDs(v.GetString(common.EnvKeyTelegramChatIDs))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env: v.GetString(common.EnvKeyGoEnv),
		DB: DBConfig{
			Type:        v.GetString(common.EnvKeyDBType),
			Path:        v.GetString(common.EnvKeyDBPath),
			PostgresDSN: v.GetString(common.EnvKeyPostgresDSN),
		},
		HTTPHostPort: strings.TrimSpace(v.GetString(common.EnvKeyHttpHostPort)),
		GRPCHostPort: strings.TrimSpace(v.GetString(common.EnvKeyGrpcHostPort)),
		AuthRate:     v.GetFloat64(common.EnvKeyAuthRate),
		AuthBurst:    v.GetInt(common.EnvKeyAuthBurst),
		JWTSecret:    v.GetString(common.EnvKeyJWTSecret),
		JWTExpiry:    CredentialTTL,
		Log: common.LogOptions{
			Dir:        v.GetString(common.EnvKeyLogDir),
			Level:      v.GetString(common.EnvKeyLogLevel),
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		GlucoseLow:  v.GetFloat64(common.EnvKeyGlucoseLowThreshold),
		GlucoseHigh: v.GetFloat64(common.EnvKeyGlucoseHighThreshold),
		Stream: StreamConfig{
			MaxSubscribers: v.GetInt(common.EnvKeyStreamMaxSubscribers),
			Buffer:         v.GetInt(common.EnvKeyStreamBuffer),
			KeepAlive:      v.GetDuration(common.EnvKeyStreamKeepAlive),
		},
		CGM: CGMConfig{
			BaseURL:      strings.TrimRight(v.GetString(common.EnvKeyCGMBaseURL), "/"),
			ClientID:     v.GetString(common.EnvKeyCGMClientID),
			ClientSecret: v.GetString(common.EnvKeyCGMClientSecret),
			RedirectURL:  v.GetString(common.EnvKeyCGMRedirectURL),
			PollInterval: v.GetDuration(common.EnvKeyCGMPollInterval),
			Backfill:     v.GetDuration(common.EnvKeyCGMBackfill),
		},
		Redis: RedisConfig{
			Addr:     v.GetString(common.EnvKeyRedisAddr),
			Password: v.GetString(common.EnvKeyRedisPassword),
		},
		Telegram: TelegramConfig{
			Token:       v.GetString(common.EnvKeyTelegramToken),
			ChatIDs:     chatIDs,
			MaxAlertAge: v.GetDuration(common.EnvKeyTelegramMaxAge),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DB.Type {
	case "file", "memory":
	case "postgres":
		if c.DB.PostgresDSN == "" {
			return fmt.Errorf("%s must be set when %s=postgres", common.EnvKeyPostgresDSN, common.EnvKeyDBType)
		}
	default:
		return fmt.Errorf("unknown %s: %q", common.EnvKeyDBType, c.DB.Type)
	}

	if c.Env == "production" && c.JWTSecret == devJWTSecret {
		return fmt.Errorf("%s must be set in production environment", common.EnvKeyJWTSecret)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("%s can not be empty", common.EnvKeyJWTSecret)
	}

	if c.GlucoseLow <= 0 || c.GlucoseHigh <= c.GlucoseLow {
		return fmt.Errorf("invalid glucose thresholds: low=%v high=%v", c.GlucoseLow, c.GlucoseHigh)
	}

	if c.Stream.Buffer <= 0 {
		return fmt.Errorf("%s must be positive", common.EnvKeyStreamBuffer)
	}
	if c.Stream.MaxSubscribers < 0 {
		return fmt.Errorf("%s can not be negative", common.EnvKeyStreamMaxSubscribers)
	}
	if c.Stream.KeepAlive <= 0 {
		return fmt.Errorf("%s must be a positive duration", common.EnvKeyStreamKeepAlive)
	}

	if c.CGM.PollInterval <= 0 {
		return fmt.Errorf("%s must be a positive duration", common.EnvKeyCGMPollInterval)
	}
	if c.CGM.Backfill <= 0 {
		return fmt.Errorf("%s must be a positive duration", common.EnvKeyCGMBackfill)
	}

	if c.AuthRate < 0 || c.AuthBurst < 0 {
		return fmt.Errorf("auth rate limiter settings can not be negative")
	}

	return nil
}

// CGMEnabled reports whether provider credentials are configured.
func (c *Config) CGMEnabled() bool {
	return c.CGM.ClientID != "" && c.CGM.ClientSecret != ""
}

func parseChatIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", common.EnvKeyTelegramChatIDs, part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
