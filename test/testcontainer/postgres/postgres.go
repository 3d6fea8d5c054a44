package postgres

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/marcodd23/go-simpledb/pkg/dbx"
	"github.com/marcodd23/go-simpledb/pkg/logx"
	"github.com/marcodd23/go-simpledb/pkg/simpledb"
	"github.com/marcodd23/go-simpledb/test"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresContainerImage = "docker.io/postgres:16-alpine"
	postgresContainerPort  = "5432/tcp"

	MainDbName     = "simpledb"
	MainDbUser     = "postgres"
	MainDbPassword = "password"

	// DefaultInitScript - creates the ARTICLE table, relative to the project root.
	DefaultInitScript = "test/testcontainer/postgres/init_schema.sql"
)

// PostgresContainer represents the postgres Container type used in the module.
type PostgresContainer struct {
	Container  *postgres.PostgresContainer
	MappedPort nat.Port
	Host       string
	DbName     string
	DbUser     string
	DbPassword string
}

const TestSnapshotId = "test-snapshot"

// StartPostgresContainer - starts PostgreSQL with the default init script.
func StartPostgresContainer(ctx context.Context, t *testing.T) *PostgresContainer {
	return StartPostgresContainerWithInitScript(ctx, t, DefaultInitScript)
}

// StartPostgresContainerWithInitScript - starts PostgreSQL, runs the init script and snapshots the
// resulting database so tests can Restore it.
func StartPostgresContainerWithInitScript(ctx context.Context, t *testing.T, initScriptPath string) *PostgresContainer {
	test.ConfigTestRootPath()

	pg, err := postgres.Run(ctx,
		postgresContainerImage,
		postgres.WithInitScripts(filepath.Clean(initScriptPath)),
		postgres.WithDatabase(MainDbName),
		postgres.WithUsername(MainDbUser),
		postgres.WithPassword(MainDbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)

	require.NoError(t, err)
	require.NotNil(t, pg)

	mappedPort, err := pg.MappedPort(ctx, postgresContainerPort)
	require.NoError(t, err)

	host, err := pg.Host(ctx)
	require.NoError(t, err)

	log.Printf("Postgres running at %s:%s", host, mappedPort.Port())

	// Create a snapshot of the database to restore later
	err = pg.Snapshot(ctx, postgres.WithSnapshotName(TestSnapshotId))
	require.NoError(t, err)

	return &PostgresContainer{
		Container:  pg,
		MappedPort: mappedPort,
		Host:       host,
		DbName:     MainDbName,
		DbUser:     MainDbUser,
		DbPassword: MainDbPassword,
	}
}

// ConnConfig - the credentials of the running container.
func (c *PostgresContainer) ConnConfig() dbx.ConnConfig {
	return dbx.ConnConfig{
		IsLocalEnv: true,
		Host:       c.Host,
		Port:       int32(c.MappedPort.Int()),
		DBName:     c.DbName,
		User:       c.DbUser,
		Password:   c.DbPassword,
	}
}

// Restore - brings the database back to the snapshot taken at startup.
func (c *PostgresContainer) Restore(ctx context.Context, t *testing.T) {
	err := c.Container.Restore(ctx, postgres.WithSnapshotName(TestSnapshotId))
	require.NoError(t, err)
}

func (c *PostgresContainer) StopContainer(ctx context.Context, t *testing.T) error {
	logx.GetLogger().LogInfo(ctx, "Terminating the Container ....")

	// Define a timeout duration, for example, 10 seconds
	timeout := time.Second * 3

	// Pass the pointer to the duration (use &timeout)
	err := c.Container.Stop(ctx, &timeout)

	// Check for error when stopping the container
	if err != nil {
		require.NoError(t, err, fmt.Sprintf("error stopping the Container %v", err))
		return err
	}

	// Return nil if everything was successful
	return nil
}

// SetupSimpleDb - a SimpleDb on the container, opening connections with the given driver.
func SetupSimpleDb(t *testing.T, container *PostgresContainer, driver dbx.Driver) *simpledb.SimpleDb {
	db, err := simpledb.New(driver, container.ConnConfig())
	require.NoError(t, err)

	db.SetDevMode(true)

	return db
}
