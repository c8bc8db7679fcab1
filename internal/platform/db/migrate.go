package db

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrator applies the embedded schema migrations.
type Migrator struct {
	m      *migrate.Migrate
	logger *slog.Logger
}

// NewMigrator opens a migrator over files, a directory of NNN_name.up.sql and
// NNN_name.down.sql pairs, against the database at dsn.
func NewMigrator(files fs.FS, dsn string, logger *slog.Logger) (*Migrator, error) {
	url, err := migrateURL(dsn)
	if err != nil {
		return nil, err
	}
	src, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("platform/db: migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return nil, fmt.Errorf("platform/db: open migrator: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{m: m, logger: logger}, nil
}

// migrateURL rewrites a postgres URL to the scheme the pgx/v5 driver registers.
func migrateURL(dsn string) (string, error) {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix), nil
		}
	}
	if strings.HasPrefix(dsn, "pgx5://") {
		return dsn, nil
	}
	return "", errors.New("platform/db: migrations require a postgres:// URL DSN")
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	return m.run("up", m.m.Up)
}

// Down rolls back every applied migration.
func (m *Migrator) Down() error {
	return m.run("down", m.m.Down)
}

// Steps applies n migrations, rolling back when n is negative.
func (m *Migrator) Steps(n int) error {
	return m.run(fmt.Sprintf("steps %d", n), func() error { return m.m.Steps(n) })
}

func (m *Migrator) run(op string, fn func() error) error {
	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("migrations unchanged", slog.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("platform/db: migrate %s: %w", op, err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("migrations applied", slog.String("op", op), slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	return nil
}

// Version reports the applied version; zero means an empty schema.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("platform/db: migration version: %w", err)
	}
	return version, dirty, nil
}

// Force marks version as applied and clean without running it.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("forcing migration version", slog.Int("version", version))
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("platform/db: force version %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}
