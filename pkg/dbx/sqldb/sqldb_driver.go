package sqldb

import (
	"context"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/marcodd23/go-simpledb/pkg/dbx"
	"github.com/marcodd23/go-simpledb/pkg/errorx"
	"github.com/marcodd23/go-simpledb/pkg/logx"
	"github.com/pkg/errors"
)

// DSNFunc - builds the data source name of a database/sql driver from the credentials.
type DSNFunc func(conf dbx.ConnConfig) (string, error)

//###################################
//#     SQLDriver - dbx driver       #
//###################################

// SQLDriver - opens connections through any registered database/sql driver.
// It Implements dbx.Driver.
//
// Every Open hands out a dedicated *sqlx.Conn. When the driver builds the *sqlx.DB handle itself
// (see Open), one handle is kept per credentials and idle connections are disabled so that closing a Conn closes the physical
// connection; a handle adopted with Wrap keeps its own settings.
type SQLDriver struct {
	driverName string
	dsn        DSNFunc

	mu      sync.Mutex
	handles map[dbx.ConnConfig]*sqlx.DB
	wrapped *sqlx.DB
}

// Open - SQLDriver constructor for a registered database/sql driver name.
func Open(driverName string, dsn DSNFunc) *SQLDriver {
	return &SQLDriver{
		driverName: driverName,
		dsn:        dsn,
		handles:    make(map[dbx.ConnConfig]*sqlx.DB),
	}
}

// Wrap - SQLDriver constructor adopting an existing handle. Credentials passed to Open are
// ignored: the handle already knows where to connect.
func Wrap(db *sqlx.DB) *SQLDriver {
	return &SQLDriver{
		driverName: db.DriverName(),
		wrapped:    db,
		handles:    make(map[dbx.ConnConfig]*sqlx.DB),
	}
}

// Name - the database/sql driver name.
func (d *SQLDriver) Name() string {
	return d.driverName
}

// Open hands out a dedicated connection for the given credentials.
func (d *SQLDriver) Open(ctx context.Context, dbConf dbx.ConnConfig) (dbx.Conn, error) {
	db, err := d.handle(dbConf)
	if err != nil {
		return nil, err
	}

	conn, err := db.Connx(ctx)
	if err != nil {
		logx.GetLogger().LogError(ctx, "Error opening connection", err)
		return nil, errors.Wrap(err, "Error opening connection")
	}

	return newSQLConn(conn, sqlx.BindType(d.driverName)), nil
}

func (d *SQLDriver) handle(dbConf dbx.ConnConfig) (*sqlx.DB, error) {
	if d.wrapped != nil {
		return d.wrapped, nil
	}

	if err := dbConf.Validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if db, ok := d.handles[dbConf]; ok {
		return db, nil
	}

	dsn, err := d.dsn(dbConf)
	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "Error creating '%s' data source name", d.driverName)
	}

	db, err := sqlx.Open(d.driverName, dsn)
	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "Error creating '%s' database handle", d.driverName)
	}

	db.SetMaxIdleConns(0)
	d.handles[dbConf] = db

	return db, nil
}

// Close - closes the database handles created by the driver. Adopted handles are left to
// their owner.
func (d *SQLDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error

	for conf, db := range d.handles {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "error closing database handle")
		}
		delete(d.handles, conf)
	}

	return firstErr
}
