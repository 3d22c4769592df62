package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	VariantAddress  = "address"
	VariantPassword = "password"

	StorePostgres = "postgres"
	StoreMemory   = "memory"

	MailSMTP = "smtp"
	MailLog  = "log"
)

type HTTPConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	BucketProfiles string
	UseSSL         bool
	Region         string
	MaxProfileSize int64
}

type SecurityConfig struct {
	JWTSecret      string
	SessionTTL     time.Duration
	Issuer         string
	CookieSecure   bool
	AuthRateLimit  int
	AuthRateWindow time.Duration
	SecureHeaders  bool
}

type MailConfig struct {
	Driver         string
	Host           string
	Port           int
	Username       string
	Password       string
	From           string
	LinkBaseURL    string
	Timeout        time.Duration
	ResendCooldown time.Duration
}

type AuthConfig struct {
	Variant          string
	Store            string
	PendingRetention time.Duration
	CleanupSchedule  string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Mail             MailConfig
	Auth             AuthConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("BLOCKON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	var errs []error
	if c.Security.JWTSecret == "" {
		errs = append(errs, errors.New("security.jwtsecret is required"))
	}
	if c.Security.SessionTTL <= 0 {
		errs = append(errs, errors.New("security.sessionttl must be positive"))
	}
	switch c.Auth.Variant {
	case VariantAddress, VariantPassword:
	default:
		errs = append(errs, fmt.Errorf("auth.variant: unknown value %q", c.Auth.Variant))
	}
	switch c.Auth.Store {
	case StorePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn is required for the postgres store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("auth.store: unknown value %q", c.Auth.Store))
	}
	if c.Storage.MaxProfileSize < 0 {
		errs = append(errs, errors.New("storage.maxprofilesize must not be negative"))
	}
	switch c.Mail.Driver {
	case MailSMTP:
		if c.Mail.Host == "" || c.Mail.From == "" {
			errs = append(errs, errors.New("mail.host and mail.from are required for smtp"))
		}
	case MailLog:
	default:
		errs = append(errs, fmt.Errorf("mail.driver: unknown value %q", c.Mail.Driver))
	}
	return errors.Join(errs...)
}

// RequiresEmailVerification reports whether registration consumes a verified email.
func (c *AppConfig) RequiresEmailVerification() bool {
	return c.Auth.Variant == VariantAddress
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 4000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")
	v.SetDefault("http.requesttimeout", "10s")

	// Keys without a meaningful default are still registered so that
	// AutomaticEnv can populate them during Unmarshal.
	for _, key := range []string{
		"postgres.dsn",
		"redis.password",
		"storage.endpoint", "storage.accesskey", "storage.secretkey",
		"security.jwtsecret",
		"mail.host", "mail.username", "mail.password", "mail.from",
		"allowcorsorigins",
	} {
		v.SetDefault(key, "")
	}

	v.SetDefault("postgres.maxopen", 20)
	v.SetDefault("postgres.maxidle", 2)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.connecttimeout", "10s")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucketprofiles", "blockon-profiles")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.maxprofilesize", 5<<20)

	v.SetDefault("security.sessionttl", "168h") // 7 days
	v.SetDefault("security.issuer", "blockon.house")
	v.SetDefault("security.cookiesecure", false)
	v.SetDefault("security.authratelimit", 30)
	v.SetDefault("security.authratewindow", "1m")
	v.SetDefault("security.secureheaders", true)

	v.SetDefault("mail.driver", MailLog)
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.linkbaseurl", "http://localhost:4000")
	v.SetDefault("mail.timeout", "15s")
	v.SetDefault("mail.resendcooldown", "0s")

	v.SetDefault("auth.variant", VariantAddress)
	v.SetDefault("auth.store", StorePostgres)
	v.SetDefault("auth.pendingretention", "720h") // 30 days
	v.SetDefault("auth.cleanupschedule", "0 30 3 * * *")
}
