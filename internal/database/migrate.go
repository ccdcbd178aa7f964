package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"queryly/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mongodb"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Oracle errors meaning the object a migration creates or drops is already
// in the target state.
var oracleIdempotentCodes = map[string][]string{
	"up":   {"ORA-00955", "ORA-01408"}, // name already used, column list already indexed
	"down": {"ORA-00942", "ORA-01418"}, // table missing, index missing
}

// RunOracleMigrations executes every <n>_<name>.<direction>.sql file in dir,
// ascending for "up" and descending for "down". Statements that fail only
// because they were already applied are skipped, so reruns are safe.
func RunOracleMigrations(ctx context.Context, db *sql.DB, fsys fs.FS, dir, direction string) error {
	codes, ok := oracleIdempotentCodes[direction]
	if !ok {
		return fmt.Errorf("unknown migration direction %q", direction)
	}
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("could not read migrations directory: %w", err)
	}

	suffix := "." + direction + ".sql"
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if direction == "down" {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	}

	l := logger.Get()
	for _, name := range names {
		content, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", name, err)
		}
		stmt := strings.TrimSuffix(strings.TrimSpace(string(content)), ";")
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			if hasOracleCode(err, codes) {
				l.Info("Migration already applied", zap.String("file", name))
				continue
			}
			return fmt.Errorf("could not execute migration %s: %w", name, err)
		}
		l.Info("Executed migration", zap.String("file", name))
	}
	return nil
}

func hasOracleCode(err error, codes []string) bool {
	msg := err.Error()
	for _, c := range codes {
		if strings.Contains(msg, c) {
			return true
		}
	}
	return false
}

// RunMongoMigrations applies the embedded MongoDB command files with
// golang-migrate. Versions are tracked in the schema_migrations collection
// of dbName.
func RunMongoMigrations(client *mongo.Client, dbName string, fsys fs.FS, dir, direction string) error {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("could not open mongo migrations: %w", err)
	}
	driver, err := mongodb.WithInstance(client, &mongodb.Config{DatabaseName: dbName})
	if err != nil {
		return fmt.Errorf("could not create mongo migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "mongodb", driver)
	if err != nil {
		return fmt.Errorf("could not create migrator: %w", err)
	}

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("mongo migration failed: %w", err)
	}
	version, dirty, verr := m.Version()
	if verr == nil {
		logger.Get().Info("Mongo migrations complete", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}
