// Package database opens the sqlite store and brings its schema and seed
// rows up to date through the persistence client.
package database

import (
	"context"
	"database/sql"
	"io/fs"
	"sync"
	"time"

	auth "github.com/goliatone/go-blog-auth"
	"github.com/goliatone/go-blog-auth/blog"
	"github.com/goliatone/go-errors"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const migrationsDir = "data/sql/migrations"

// Config is what persistence.New reads plus the DSN and pool size
type Config interface {
	GetDebug() bool
	GetDriver() string
	GetServer() string
	GetDSN() string
	GetPingTimeout() time.Duration
	GetOtelIdentifier() string
	GetMaxOpenConns() int
}

var registerOnce sync.Once

// the m2m join model goes first so User.Roles resolves
func registerModels() {
	registerOnce.Do(func() {
		persistence.RegisterModel((*auth.UserRole)(nil))
		persistence.RegisterModel((*auth.Role)(nil))
		persistence.RegisterModel((*auth.User)(nil))
		persistence.RegisterModel((*blog.Category)(nil))
		persistence.RegisterModel((*blog.Post)(nil))
		persistence.RegisterModel((*blog.Comment)(nil))
	})
}

// Open connects to cfg's DSN, applies pending migrations, and loads the role
// fixtures. Running it against an up to date database changes nothing.
func Open(ctx context.Context, cfg Config, logger auth.Logger) (*bun.DB, error) {
	if logger == nil {
		logger = auth.NewLogger("database")
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.GetDSN())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open database")
	}
	if n := cfg.GetMaxOpenConns(); n > 0 {
		sqldb.SetMaxOpenConns(n)
	}

	registerModels()

	client, err := persistence.New(cfg, sqldb, sqlitedialect.New())
	if err != nil {
		_ = sqldb.Close()
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create persistence client")
	}
	client.SetLogger(logger)

	migrationsFS, err := fs.Sub(auth.GetMigrationsFS(), migrationsDir)
	if err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel(migrationsDir),
	)

	if err := client.Migrate(ctx); err != nil {
		_ = sqldb.Close()
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to migrate database")
	}

	client.RegisterFixtures(auth.GetFixturesFS()).AddOptions(persistence.WithTrucateTables())

	if err := client.Seed(ctx); err != nil {
		_ = sqldb.Close()
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to seed database")
	}

	if report := client.Report(); report != nil && !report.IsZero() {
		logger.Info("migrations applied", "report", report.String())
	}

	db := client.DB()
	auth.RegisterModels(db)

	return db, nil
}
