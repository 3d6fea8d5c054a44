package pgxdb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/marcodd23/go-simpledb/pkg/dbx"
	"github.com/marcodd23/go-simpledb/pkg/dbx/sqldb"
	"github.com/marcodd23/go-simpledb/pkg/errorx"
	"github.com/marcodd23/go-simpledb/pkg/logx"
	"github.com/pkg/errors"
)

// DriverName - name of the pgx driver.
const DriverName = "pgx"

//###################################
//#    PostgresDriver - dbx driver   #
//###################################

// PostgresDriver - opens single PostgreSQL connections with pgx.
// It Implements dbx.Driver. No pool is involved: every Open dials a new pgx.Conn.
type PostgresDriver struct{}

// NewPostgresDriver - PostgresDriver constructor.
func NewPostgresDriver() *PostgresDriver {
	return &PostgresDriver{}
}

// Name - the driver name.
func (d *PostgresDriver) Name() string {
	return DriverName
}

// Open dials a new PostgreSQL connection using the given credentials.
//
// Arguments:
//   - ctx: The context for the connection handshake, which allows for cancellation and timeouts.
//   - dbConf: The credentials, validated before dialing.
//
// Returns:
//   - dbx.Conn: The connection, in auto-commit mode. The caller owns it and must Close it.
//   - error: Any error encountered validating the credentials or dialing the server.
func (d *PostgresDriver) Open(ctx context.Context, dbConf dbx.ConnConfig) (dbx.Conn, error) {
	connConfig, err := createConnectionConfiguration(ctx, dbConf)
	if err != nil {
		return nil, err
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		logx.GetLogger().LogError(ctx, "Error opening connection", err)
		return nil, errors.Wrap(err, "Error opening connection")
	}

	logx.GetLogger().LogDebug(ctx, fmt.Sprintf("Opened connection: DB=%s, HOST=%s, PORT=%d",
		connConfig.Database,
		connConfig.Host,
		connConfig.Port))

	return newPostgresConn(conn), nil
}

// NewStdlibDriver - a database/sql driver on top of the pgx stdlib adapter. Connections are
// configured as PostgresDriver does, then go through database/sql and sqlx.
func NewStdlibDriver() *sqldb.SQLDriver {
	return sqldb.Open(DriverName, func(dbConf dbx.ConnConfig) (string, error) {
		connConfig, err := createConnectionConfiguration(context.Background(), dbConf)
		if err != nil {
			return "", err
		}

		return stdlib.RegisterConnConfig(connConfig), nil
	})
}

func createConnectionConfiguration(ctx context.Context, dbConf dbx.ConnConfig) (*pgx.ConnConfig, error) {
	if err := dbConf.Validate(); err != nil {
		return nil, err
	}

	connConfig, err := pgx.ParseConfig("")
	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "Error creating Connection Config")
	}

	connConfig.Database = dbConf.DBName
	connConfig.User = dbConf.User
	connConfig.Password = dbConf.Password

	if dbConf.IsLocalEnv || dbConf.VpcDirectConnection {
		// If local we need to specify the port, if not local
		// the port is defined in the Unix Socket configuration
		// mounted in the container at runtime (5432)
		logx.
			GetLogger().
			LogDebug(ctx, fmt.Sprintf("Connecting to DB on HOST:%s and PORT:%d",
				dbConf.Host,
				uint16(dbConf.Port)))
		connConfig.Host = dbConf.Host
		if dbConf.Port > 0 {
			connConfig.Port = uint16(dbConf.Port)
		}
	} else {
		logx.GetLogger().LogDebug(ctx, "Connecting to DB trough CLOUD SQL PROXY")
		connConfig.Host = fmt.Sprintf("/cloudsql/%s", dbConf.Host)
	}

	return connConfig, nil
}

// rebind rewrites `?` placeholders into PostgreSQL `$n` bind variables.
func rebind(query string) string {
	return sqlx.Rebind(sqlx.DOLLAR, query)
}
