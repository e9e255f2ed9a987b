package database

import (
	"fmt"
	"log"
	"os"
	"rewind_backend/internal/config"
	"rewind_backend/internal/model"
	"rewind_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormConfig 公共的 gorm 配置，时间统一使用 UTC
func GormConfig(mode string) *gorm.Config {
	level := gormlogger.Warn
	if mode == "debug" {
		level = gormlogger.Info
	}
	return &gorm.Config{
		Logger:  newGormLogger(log.New(os.Stdout, "\r\n", log.LstdFlags), level),
		NowFunc: func() time.Time { return time.Now().UTC() },
		// 关联仅用于预加载，不生成外键约束
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

// newGormLogger 按 id 查询未命中是正常分支，不记为错误
func newGormLogger(w gormlogger.Writer, level gormlogger.LogLevel) gormlogger.Interface {
	return gormlogger.New(w, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true&loc=UTC",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
		)
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.DBName,
			cfg.SSLMode,
		)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dial, err := dialector(&cfg.Database)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dial, GormConfig(cfg.Server.Mode))
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	logger.Log.Info("Database connection established", zap.String("driver", cfg.Database.Driver))

	// release 模式默认不自动迁移，需通过 -migrate 显式开启
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// Migrate 建表并写入种子题库
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Log.Info("Database migration completed")

	if err := Seed(db); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}
