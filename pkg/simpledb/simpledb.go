package simpledb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/marcodd23/go-simpledb/pkg/configmgr"
	"github.com/marcodd23/go-simpledb/pkg/dbx"
	"github.com/marcodd23/go-simpledb/pkg/errorx"
	"github.com/marcodd23/go-simpledb/pkg/logx"
)

// SimpleDb - gates connection acquisition and transaction boundaries.
//
// It holds the credentials used to open every connection and, between StartTransaction and
// Commit/Rollback/Close, a single ambient connection with auto-commit disabled. Builders obtained
// with GenSql while the ambient transaction is open share that connection; otherwise each builder
// gets a one-shot connection of its own.
//
// A SimpleDb is not safe for concurrent use: callers sharing one instance across goroutines must
// serialize the access.
type SimpleDb struct {
	conf    dbx.ConnConfig
	driver  dbx.Driver
	txConn  dbx.Conn
	txID    string
	devMode bool
}

// New - SimpleDb constructor.
//
// Arguments:
//   - driver: The driver used to open the physical connections.
//   - conf: The credentials, validated here and immutable afterward.
//
// Returns:
//   - *SimpleDb: The manager, with no connection open.
//   - error: An errorx.DatabaseError when the credentials are incomplete.
func New(driver dbx.Driver, conf dbx.ConnConfig) (*SimpleDb, error) {
	if driver == nil {
		return nil, errorx.NewDatabaseError("a driver is required")
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return &SimpleDb{conf: conf, driver: driver}, nil
}

// NewFromConfig - SimpleDb constructor reading the credentials and the dev mode from the database
// section of the application configuration.
func NewFromConfig(cfg configmgr.Config, driver dbx.Driver) (*SimpleDb, error) {
	dbConf := cfg.GetDatabaseConfig()
	if dbConf == nil {
		return nil, errorx.NewDatabaseError("missing database configuration")
	}

	db, err := New(driver, dbConf.ToConnConfig(cfg.IsLocalEnvironment()))
	if err != nil {
		return nil, err
	}

	db.SetDevMode(dbConf.DevMode)

	return db, nil
}

// SetDevMode - when enabled, every executed statement is logged at debug level with its arguments.
func (db *SimpleDb) SetDevMode(devMode bool) {
	db.devMode = devMode
}

// InTransaction - reports whether an ambient transaction is open.
func (db *SimpleDb) InTransaction() bool {
	return db.txConn != nil && !db.txConn.IsClosed()
}

// Run opens a one-shot connection, executes sql as an update with values bound positionally and
// closes the connection, on failure too. The ambient transaction, if any, is never involved.
func (db *SimpleDb) Run(ctx context.Context, sql string, values ...any) error {
	conn, err := db.open(ctx)
	if err != nil {
		return errorx.NewExecutionError(err, sql)
	}

	defer db.closeQuietly(ctx, conn)

	db.logStatement(ctx, "", sql, values)

	if _, err := conn.Exec(ctx, sql, values...); err != nil {
		logx.GetLogger().LogError(ctx, fmt.Sprintf("Error executing '%s'", sql), err)
		return errorx.NewExecutionError(err, sql)
	}

	return nil
}

// GenSql - returns a new statement builder.
//
// While an ambient transaction is open the builder shares its connection and leaves it open when
// done. Otherwise a one-shot connection is opened for the builder, which closes it after its
// terminal operation. Nothing is executed.
func (db *SimpleDb) GenSql(ctx context.Context) (*Sql, error) {
	if db.InTransaction() {
		return newSql(db, db.txConn, false, db.txID), nil
	}

	conn, err := db.open(ctx)
	if err != nil {
		return nil, errorx.NewExecutionError(err, "")
	}

	return newSql(db, conn, true, ""), nil
}

// StartTransaction - opens the ambient transaction. It does nothing when one is already open.
func (db *SimpleDb) StartTransaction(ctx context.Context) error {
	if db.InTransaction() {
		return nil
	}

	conn, err := db.open(ctx)
	if err != nil {
		return errorx.NewExecutionError(err, "")
	}

	if err := conn.SetAutoCommit(ctx, false); err != nil {
		db.closeQuietly(ctx, conn)
		return errorx.NewExecutionError(err, "")
	}

	db.txConn = conn
	db.txID = uuid.NewString()

	logx.GetLogger().LogDebug(ctx, fmt.Sprintf("Transaction %s started", db.txID))

	return nil
}

// Commit - commits the ambient transaction and closes its connection. It does nothing when no
// transaction is open. The ambient reference is cleared whatever the outcome.
func (db *SimpleDb) Commit(ctx context.Context) error {
	return db.endTransaction(ctx, "committed", dbx.Conn.Commit)
}

// Rollback - rolls back the ambient transaction and closes its connection. It does nothing when
// no transaction is open. The ambient reference is cleared whatever the outcome.
func (db *SimpleDb) Rollback(ctx context.Context) error {
	return db.endTransaction(ctx, "rolled back", dbx.Conn.Rollback)
}

func (db *SimpleDb) endTransaction(ctx context.Context, outcome string, end func(dbx.Conn, context.Context) error) error {
	if db.txConn == nil {
		return nil
	}

	conn, txID := db.txConn, db.txID
	db.txConn, db.txID = nil, ""

	err := end(conn, ctx)
	closeErr := conn.Close(ctx)

	if err != nil {
		logx.GetLogger().LogError(ctx, fmt.Sprintf("Transaction %s could not be %s", txID, outcome), err)
		return errorx.NewExecutionError(err, "")
	}

	if closeErr != nil {
		return errorx.NewExecutionError(closeErr, "")
	}

	logx.GetLogger().LogDebug(ctx, fmt.Sprintf("Transaction %s %s", txID, outcome))

	return nil
}

// Close - closes the ambient connection, if any, discarding its pending work. Close errors are
// ignored. Subsequent Commit and Rollback calls do nothing.
func (db *SimpleDb) Close(ctx context.Context) {
	if db.txConn == nil {
		return
	}

	conn, txID := db.txConn, db.txID
	db.txConn, db.txID = nil, ""

	db.closeQuietly(ctx, conn)

	logx.GetLogger().LogDebug(ctx, fmt.Sprintf("Transaction %s closed", txID))
}

func (db *SimpleDb) open(ctx context.Context) (dbx.Conn, error) {
	conn, err := db.driver.Open(ctx, db.conf)
	if err != nil {
		logx.GetLogger().LogError(ctx, fmt.Sprintf("Error opening %s connection", db.driver.Name()), err)
		return nil, err
	}

	return conn, nil
}

func (db *SimpleDb) closeQuietly(ctx context.Context, conn dbx.Conn) {
	if err := conn.Close(ctx); err != nil {
		logx.GetLogger().LogWarning(ctx, "Error closing connection", err)
	}
}

func (db *SimpleDb) logStatement(ctx context.Context, txID, sql string, args []any) {
	if !db.devMode {
		return
	}

	if txID != "" {
		logx.GetLogger().LogDebug(ctx, fmt.Sprintf("[tx %s] %s %v", txID, sql, args))
		return
	}

	logx.GetLogger().LogDebug(ctx, fmt.Sprintf("%s %v", sql, args))
}
