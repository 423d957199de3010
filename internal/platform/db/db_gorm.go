// Package db はgormによるデータベース接続（PostgreSQL / SQLite）を提供します。
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chart_backend/internal/platform/logger"
)

// サポートするドライバー名
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// defaultSQLitePath は DB_DSN も DB_NAME も無い場合のSQLiteファイルです。
const defaultSQLitePath = "chart_backend.db"

// retryInterval は接続リトライの間隔です。
var retryInterval = 3 * time.Second

// ErrUnsupportedDriver は DB_DRIVER が postgres / sqlite 以外のときに返されます。
var ErrUnsupportedDriver = errors.New("unsupported db driver")

// Config holds database connection settings, read from DB_* variables.
type Config struct {
	Driver         string        `env:"DRIVER" envDefault:"postgres"`
	DSN            string        `env:"DSN"` // 指定時は他の接続項目より優先
	Host           string        `env:"HOST" envDefault:"localhost"`
	Port           string        `env:"PORT" envDefault:"5432"`
	User           string        `env:"USER"`
	Password       string        `env:"PASSWORD"`
	Name           string        `env:"NAME"`
	SSLMode        string        `env:"SSLMODE" envDefault:"disable"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"60s"`
}

// Opener は DSN から gorm 接続を開く関数です。テストで差し替えられます。
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN は設定から接続文字列を生成します。DSN が指定されていればそのまま返します。
func BuildDSN(cfg Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	if cfg.Driver == DriverSQLite {
		if cfg.Name != "" {
			return cfg.Name
		}
		return defaultSQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
}

// ConnectWithRetry は timeout が経過するまで retryInterval ごとに接続を試みます。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	return connectWithRetry(dsn, timeout, open, zap.NewNop())
}

func connectWithRetry(dsn string, timeout time.Duration, open Opener, log *zap.Logger) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for attempt := 1; ; attempt++ {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %d attempts: %w", attempt, err)
		}
		log.Warn("db connect failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(retryInterval)
	}
}

// Open は cfg.Driver に応じたダイアレクタで接続します。PostgreSQL は起動待ちのためリトライします。
func Open(cfg Config, log *zap.Logger) (*gorm.DB, error) {
	log = logger.OrNop(log)
	dsn := BuildDSN(cfg)

	switch cfg.Driver {
	case DriverPostgres:
		return connectWithRetry(dsn, cfg.ConnectTimeout, func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), &gorm.Config{})
		}, log)
	case DriverSQLite:
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		// SQLite は書き込みが1本なので接続も1本に絞る（:memory: の共有にも必要）
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// Migrate はモデルのテーブルを作成・更新します（RUN_MIGRATIONS=true のとき呼ばれます）。
func Migrate(db *gorm.DB, models ...any) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Ping はヘルスチェック用に接続を確認します。
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
