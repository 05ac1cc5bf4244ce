package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	pkgerrors "github.com/dmarsh-dev/lumapos-backend/pkg/errors"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Shopify ShopifyConfig
	Sync    SyncConfig
	Outbox  OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Shopify.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LUMAPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"LUMAPOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LUMAPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LUMAPOS_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"LUMAPOS_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LUMAPOS_DB_DSN"`
	Driver string `envconfig:"LUMAPOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LUMAPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"LUMAPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LUMAPOS_DB_USER"`
	LegacyPassword string `envconfig:"LUMAPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"LUMAPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"LUMAPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LUMAPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LUMAPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LUMAPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LUMAPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ShopifyConfig carries the remote platform credentials and tuning knobs.
type ShopifyConfig struct {
	ShopDomain  string        `envconfig:"LUMAPOS_SHOPIFY_SHOP_DOMAIN" required:"true"`
	AccessToken string        `envconfig:"LUMAPOS_SHOPIFY_ACCESS_TOKEN" required:"true"`
	APIVersion  string        `envconfig:"LUMAPOS_SHOPIFY_API_VERSION" default:"2024-07"`
	LocationID  string        `envconfig:"LUMAPOS_SHOPIFY_LOCATION_ID"`
	Timeout     time.Duration `envconfig:"LUMAPOS_SHOPIFY_TIMEOUT" default:"15s"`
	MaxRetries  int           `envconfig:"LUMAPOS_SHOPIFY_MAX_RETRIES" default:"3"`
}

// BaseURL assembles the admin API root for the configured shop.
func (s ShopifyConfig) BaseURL() string {
	domain := strings.TrimSpace(s.ShopDomain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimSuffix(domain, "/")
	return fmt.Sprintf("https://%s/admin/api/%s", domain, s.APIVersion)
}

var placeholderTokens = []string{"changeme", "your-access-token", "your_access_token", "xxx", "placeholder"}

func (s ShopifyConfig) validate() error {
	token := strings.TrimSpace(s.AccessToken)
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "shopify access token is required")
	}
	lower := strings.ToLower(token)
	for _, placeholder := range placeholderTokens {
		if lower == placeholder {
			return pkgerrors.New(pkgerrors.CodeConfiguration,
				fmt.Sprintf("shopify access token is a placeholder value (%q)", token))
		}
	}
	if strings.TrimSpace(s.ShopDomain) == "" {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "shopify shop domain is required")
	}
	return nil
}

type SyncConfig struct {
	PageSize        int           `envconfig:"LUMAPOS_SYNC_PAGE_SIZE" default:"250"`
	FullSyncCeiling int           `envconfig:"LUMAPOS_SYNC_FULL_CEILING" default:"50000"`
	PageTimeout     time.Duration `envconfig:"LUMAPOS_SYNC_PAGE_TIMEOUT" default:"30s"`
	WorkerInterval  time.Duration `envconfig:"LUMAPOS_SYNC_WORKER_INTERVAL" default:"1h"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LUMAPOS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LUMAPOS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LUMAPOS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
