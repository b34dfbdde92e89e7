package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/entity"
	"storefront/internal/model/memory"
	"storefront/internal/model/sql"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	DBTypeMySQL    = "mysql"
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgres"
	DBTypeMemory   = "memory"
)

const defaultSQLitePath = "datas/storefront.db"

// InitRepository opens and migrates the backend selected by DB_TYPE. An empty
// DB_TYPE keeps everything in memory.
func InitRepository(cfg *config.Config) (Repository, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.DBType))
	if kind == "" || kind == DBTypeMemory {
		return memory.NewRepository(), nil
	}

	dialector, err := dialectorFor(kind, cfg)
	if err != nil {
		return nil, err
	}
	db, err := openDB(dialector)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", kind, err)
	}
	if err := db.AutoMigrate(&entity.DbRole{}, &entity.DbUser{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", kind, err)
	}
	logrus.WithField("db_type", kind).Info("repository ready")
	return sql.NewGormRepository(db), nil
}

// dialectorFor resolves the gorm driver for kind. DSN_URL wins over the
// discrete DB_* settings.
func dialectorFor(kind string, cfg *config.Config) (gorm.Dialector, error) {
	switch kind {
	case DBTypeMySQL:
		return mysql.Open(mysqlDSN(cfg)), nil
	case DBTypePostgres:
		return postgres.Open(postgresDSN(cfg)), nil
	case DBTypeSQLite:
		file := cfg.DBPath
		if file == "" {
			file = defaultSQLitePath
		}
		// the driver creates the file but not its directory
		if dir := filepath.Dir(file); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create %s: %w", dir, err)
			}
		}
		return sqlite.Open(file), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}
}

func mysqlDSN(cfg *config.Config) string {
	if cfg.DSNURL != "" {
		return cfg.DSNURL
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBAddr, cfg.DBPort, cfg.DBName)
}

func postgresDSN(cfg *config.Config) string {
	if cfg.DSNURL != "" {
		return cfg.DSNURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		cfg.DBAddr, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
}

// openDB translates driver errors so unique violations surface as
// gorm.ErrDuplicatedKey.
func openDB(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(logrus.StandardLogger(), logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NamingStrategy:                           schema.NamingStrategy{SingularTable: true},
	})
	if err != nil {
		return nil, err
	}

	pool, err := db.DB()
	if err != nil {
		return nil, err
	}
	pool.SetMaxIdleConns(10)
	pool.SetMaxOpenConns(50)
	pool.SetConnMaxLifetime(time.Hour)
	return db, nil
}
