package migration

import (
	"database/sql"
	"embed"
	"fmt"
	"io"
	stdlog "log"
	"sync"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/quotagate/quotagate/internal/infrastructure/persistence/models"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

//go:embed scripts
var scripts embed.FS

// goose keeps dialect and base FS in package globals.
var gooseMu sync.Mutex

// Strategy defines the interface for different migration strategies
type Strategy interface {
	Migrate(db *gorm.DB) error
	Name() string
}

// AutoMigrateStrategy derives the schema from the gorm models.
type AutoMigrateStrategy struct {
	logger logger.Interface
}

func NewAutoMigrateStrategy() Strategy {
	return &AutoMigrateStrategy{
		logger: logger.NewComponentLogger("migration.automigrate"),
	}
}

func (s *AutoMigrateStrategy) Migrate(db *gorm.DB) error {
	all := models.All()
	s.logger.Infow("starting gorm auto migration", "models_count", len(all))
	if err := db.AutoMigrate(all...); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}

func (s *AutoMigrateStrategy) Name() string {
	return "gorm_auto_migrate"
}

// GooseStrategy applies the versioned SQL scripts embedded for a dialect.
type GooseStrategy struct {
	dialect string
	logger  logger.Interface
}

// NewGooseStrategy accepts the goose dialect names sqlite3, mysql and postgres.
func NewGooseStrategy(dialect string) Strategy {
	return &GooseStrategy{
		dialect: dialect,
		logger:  logger.NewComponentLogger("migration.goose"),
	}
}

func (s *GooseStrategy) Migrate(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return s.Up(sqlDB)
}

func (s *GooseStrategy) Name() string {
	return "goose"
}

// Up runs every pending script against sqlDB.
func (s *GooseStrategy) Up(sqlDB *sql.DB) error {
	return s.withGoose(func(dir string) error {
		currentVersion, err := goose.GetDBVersion(sqlDB)
		if err != nil {
			s.logger.Errorw("failed to get current version", "error", err)
			return fmt.Errorf("failed to get current version: %w", err)
		}

		if err := goose.Up(sqlDB, dir); err != nil {
			s.logger.Errorw("migration failed", "error", err)
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		finalVersion, err := goose.GetDBVersion(sqlDB)
		if err != nil {
			return fmt.Errorf("failed to get final version: %w", err)
		}

		s.logger.Infow("migration completed successfully",
			"dialect", s.dialect,
			"from_version", currentVersion,
			"to_version", finalVersion)
		return nil
	})
}

// Down rolls back steps scripts.
func (s *GooseStrategy) Down(sqlDB *sql.DB, steps int) error {
	return s.withGoose(func(dir string) error {
		for i := 0; i < steps; i++ {
			if err := goose.Down(sqlDB, dir); err != nil {
				s.logger.Errorw("down migration failed", "error", err)
				return fmt.Errorf("failed to run down migration: %w", err)
			}
		}
		s.logger.Infow("down migration completed successfully", "steps", steps)
		return nil
	})
}

func (s *GooseStrategy) Version(sqlDB *sql.DB) (int64, error) {
	var version int64
	err := s.withGoose(func(string) error {
		v, err := goose.GetDBVersion(sqlDB)
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}

// Status writes the applied and pending scripts to out.
func (s *GooseStrategy) Status(sqlDB *sql.DB, out io.Writer) error {
	return s.withGoose(func(dir string) error {
		goose.SetLogger(stdlog.New(out, "", 0))
		if err := goose.Status(sqlDB, dir); err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		return nil
	})
}

func (s *GooseStrategy) withGoose(fn func(dir string) error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(scripts)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(s.dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return fn("scripts/" + s.dialect)
}
