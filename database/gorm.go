package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/sahilchouksey/gaokao-ingest/config"
	"github.com/sahilchouksey/gaokao-ingest/model"
)

// Dialect identifies the SQL backend behind a DATABASE_URL.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// DetectDialect picks the backend from a connection string. An empty string
// selects the local SQLite file.
func DetectDialect(url string) Dialect {
	switch {
	case url == "":
		return DialectSQLite
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"), strings.Contains(url, "host="):
		return DialectPostgres
	case strings.HasPrefix(url, "mysql://"):
		return DialectMySQL
	}
	return DialectSQLite
}

// TablePrefix returns the table name prefix placing every table in the
// gaokao namespace. SQLite has no schemas, so the namespace is folded into
// the table name.
func TablePrefix(d Dialect) string {
	if d == DialectSQLite {
		return model.Namespace + "_"
	}
	return model.Namespace + "."
}

// Settings selects and tunes the database connection.
type Settings struct {
	URL        string
	SQLitePath string
	GoEnv      string
	Verbose    bool            // log every statement
	LogLevel   logger.LogLevel // zero derives the level from GoEnv and Verbose
}

type GORMStore struct {
	db      *gorm.DB
	dialect Dialect
}

// StartGORM opens the database described by the environment.
func StartGORM() (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}
	return Open(Settings{
		URL:        getEnv.DATABASE_URL,
		SQLitePath: getEnv.GAOKAO_SQLITE_PATH,
		GoEnv:      getEnv.GO_ENV,
		Verbose:    getEnv.GO_ENV == "development" && getEnv.LOG_LEVEL == "debug",
	})
}

// Open connects to the backend selected by s.URL.
func Open(s Settings) (*GORMStore, error) {
	dialect := DetectDialect(s.URL)

	var dialector gorm.Dialector
	switch dialect {
	case DialectPostgres:
		dialector = postgres.Open(s.URL)
	case DialectMySQL:
		d, err := mysqlDialector(s.URL)
		if err != nil {
			return nil, err
		}
		dialector = d
	default:
		path := s.SQLitePath
		if path == "" {
			path = "gaokao_data.db"
		}
		dialector = sqlite.Open(path)
	}

	level := s.LogLevel
	if level == 0 {
		switch {
		case s.Verbose:
			level = logger.Info
		case s.GoEnv == "production":
			level = logger.Error
		default:
			level = logger.Warn
		}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		NamingStrategy: schema.NamingStrategy{TablePrefix: TablePrefix(dialect)},
		TranslateError: true,
	})
	if err != nil {
		log.Errorf("[DB] Unable to connect to %s: %v", dialect, err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if dialect == DialectSQLite {
		// One connection: SQLite serialises writers, and :memory: databases
		// exist per connection.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Infof("[DB] Connected to %s", dialect)
	return &GORMStore{db: db, dialect: dialect}, nil
}

// Init creates the gaokao namespace and migrates every registered model.
func (s *GORMStore) Init() error {
	if err := s.ensureNamespace(); err != nil {
		return err
	}

	log.Infof("[DB] Running AutoMigrate for %d models", len(model.Models()))
	if err := s.db.AutoMigrate(model.Models()...); err != nil {
		log.Errorf("[DB] AutoMigrate failed: %v", err)
		return err
	}

	log.Info("[DB] AutoMigrate completed")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM handle.
func (s *GORMStore) GetDB() *gorm.DB {
	return s.db
}

// Dialect reports the connected backend.
func (s *GORMStore) Dialect() Dialect {
	return s.dialect
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
