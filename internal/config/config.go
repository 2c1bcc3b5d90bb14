// Package config は環境変数からアプリケーション設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// サポートするデータベースドライバー
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DBConfig はデータベース接続設定です。
type DBConfig struct {
	Driver          string        `env:"DB_DRIVER,default=mysql"`
	Host            string        `env:"DB_HOST,default=db"`
	Port            string        `env:"DB_PORT,default=3306"`
	User            string        `env:"DB_USER"`
	Pass            string        `env:"DB_PASS"`
	Name            string        `env:"DB_NAME"`
	Path            string        `env:"DB_PATH,default=todos.db"` // sqlite のみ
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=25"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=5m"`
}

// SMTPConfig はパスワードリセットメール送信の設定です。
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     string `env:"SMTP_PORT,default=2525"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM,default=no-reply@todo-app.local"`
}

// Config はアプリケーション全体の設定です。
type Config struct {
	Env       string `env:"APP_ENV,default=development"`
	Port      string `env:"PORT,default=8080"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	DB   DBConfig
	SMTP SMTPConfig

	JWTSecret      string        `env:"JWT_SECRET,required"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL,default=20m"`

	CORSAllowOrigins string `env:"CORS_ALLOW_ORIGINS,default=http://localhost:3000"`
	FrontendURL      string `env:"FRONTEND_URL,default=http://localhost:3000"`

	// 空の場合はどのプロキシも信頼せず、X-Forwarded-For を無視する
	TrustedProxies string `env:"TRUSTED_PROXIES"`

	LoginRateLimit float64 `env:"LOGIN_RATE_LIMIT,default=1"`
	LoginRateBurst int     `env:"LOGIN_RATE_BURST,default=5"`

	ResetTokenCleanupSchedule string `env:"RESET_TOKEN_CLEANUP_SCHEDULE,default=@hourly"`
}

// Load は .env ファイル (存在すれば) と環境変数から設定を読み込みます。
// 既に設定されている環境変数は .env の値で上書きされません。
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// .env が無いのは正常 (コンテナでは環境変数を直接渡す)
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate は値の組み合わせをチェックします。
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.AccessTokenTTL <= 0 {
		return errors.New("ACCESS_TOKEN_TTL must be positive")
	}
	if c.LoginRateLimit <= 0 || c.LoginRateBurst <= 0 {
		return errors.New("LOGIN_RATE_LIMIT and LOGIN_RATE_BURST must be positive")
	}
	return nil
}

// AllowOrigins は CORS_ALLOW_ORIGINS をカンマで分割して返します。
func (c *Config) AllowOrigins() []string {
	return splitList(c.CORSAllowOrigins)
}

// TrustedProxyList は TRUSTED_PROXIES (IPまたはCIDRのカンマ区切り) を返します。
func (c *Config) TrustedProxyList() []string {
	return splitList(c.TrustedProxies)
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// DSN はドライバーごとの接続文字列を構築します。
func (c DBConfig) DSN() string {
	switch c.Driver {
	case DriverPostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Pass),
			Host:     net.JoinHostPort(c.Host, c.Port),
			Path:     "/" + c.Name,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	case DriverSQLite:
		return "file:" + c.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	default:
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Pass
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, c.Port)
		mc.DBName = c.Name
		mc.ParseTime = true
		return mc.FormatDSN()
	}
}

// MigrationURL は golang-migrate 用のデータベースURLを返します。
func (c DBConfig) MigrationURL() string {
	switch c.Driver {
	case DriverPostgres:
		return c.DSN()
	case DriverSQLite:
		return "sqlite://" + c.Path
	default:
		return "mysql://" + c.DSN()
	}
}
