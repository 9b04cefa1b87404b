package application

import (
	"context"
	"database/sql"
	"embed"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/openplanning/caseflow/pkg/configuration"
)

// MigrationManager collects module-embedded schema files and applies
// them with goose.
type MigrationManager interface {
	RegisterSchema(fs *embed.FS)
	Run(ctx context.Context) error
}

func newMigrationManager(logger *logrus.Logger) MigrationManager {
	return &migrationManager{logger: logger}
}

type migrationManager struct {
	logger  *logrus.Logger
	schemas []*embed.FS
}

func (m *migrationManager) RegisterSchema(fs *embed.FS) {
	m.schemas = append(m.schemas, fs)
}

func (m *migrationManager) Run(ctx context.Context) error {
	conf := configuration.Use()
	db, err := sql.Open("pgx", conf.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer func() {
		if cErr := db.Close(); cErr != nil {
			m.logger.WithError(cErr).Warn("failed to close migration connection")
		}
	}()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	goose.SetLogger(gooseLogger{m.logger})

	for _, schema := range m.schemas {
		goose.SetBaseFS(schema)
		if err := goose.UpContext(ctx, db, "migrations"); err != nil {
			return err
		}
	}
	return nil
}

type gooseLogger struct {
	logger *logrus.Logger
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.logger.Fatalf(format, v...) }
func (l gooseLogger) Printf(format string, v ...interface{}) { l.logger.Infof(format, v...) }
