package database

import (
	"context"
	"database/sql/driver"
	"math/rand"
	"strings"
	"time"
)

// busyRetryConnector wraps a driver.Connector so that statements hitting
// SQLITE_BUSY/SQLITE_LOCKED are retried with backoff instead of failing the
// workflow outright.
type busyRetryConnector struct {
	connector  driver.Connector
	maxRetries int
}

func newBusyRetryConnector(connector driver.Connector, maxRetries int) *busyRetryConnector {
	return &busyRetryConnector{connector: connector, maxRetries: maxRetries}
}

func (c *busyRetryConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &busyRetryConn{conn: conn, maxRetries: c.maxRetries}, nil
}

func (c *busyRetryConnector) Driver() driver.Driver {
	return c.connector.Driver()
}

// isBusyError matches SQLite busy/locked errors from both the mattn and
// modernc drivers behind sqliteshim.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED")
}

func retryBusy(ctx context.Context, maxRetries int, fn func() error) error {
	var err error
	baseDelay := 50 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil || !isBusyError(err) || attempt == maxRetries {
			return err
		}

		delay := baseDelay * time.Duration(1<<attempt)
		delay += time.Duration(rand.Int63n(int64(delay / 4))) // jitter
		if delay > 2*time.Second {
			delay = 2 * time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return err
}

// busyRetryConn wraps a driver.Conn. The sqliteshim drivers implement the
// context-aware interfaces, so only those paths are wrapped; database/sql
// falls back to prepared statements otherwise, which go through the driver
// without retries.
type busyRetryConn struct {
	conn       driver.Conn
	maxRetries int
}

func (c *busyRetryConn) Prepare(query string) (driver.Stmt, error) {
	return c.conn.Prepare(query)
}

func (c *busyRetryConn) Close() error {
	return c.conn.Close()
}

func (c *busyRetryConn) Begin() (driver.Tx, error) {
	var tx driver.Tx
	err := retryBusy(context.Background(), c.maxRetries, func() error {
		var innerErr error
		tx, innerErr = c.conn.Begin() //nolint:staticcheck // driver.Conn interface
		return innerErr
	})
	return tx, err
}

func (c *busyRetryConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	beginTx, ok := c.conn.(driver.ConnBeginTx)
	if !ok {
		return c.Begin()
	}
	var tx driver.Tx
	err := retryBusy(ctx, c.maxRetries, func() error {
		var innerErr error
		tx, innerErr = beginTx.BeginTx(ctx, opts)
		return innerErr
	})
	return tx, err
}

func (c *busyRetryConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	execer, ok := c.conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	var result driver.Result
	err := retryBusy(ctx, c.maxRetries, func() error {
		var innerErr error
		result, innerErr = execer.ExecContext(ctx, query, args)
		return innerErr
	})
	return result, err
}

func (c *busyRetryConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	queryer, ok := c.conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	var rows driver.Rows
	err := retryBusy(ctx, c.maxRetries, func() error {
		var innerErr error
		rows, innerErr = queryer.QueryContext(ctx, query, args)
		return innerErr
	})
	return rows, err
}

func (c *busyRetryConn) Ping(ctx context.Context) error {
	if pinger, ok := c.conn.(driver.Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

func (c *busyRetryConn) ResetSession(ctx context.Context) error {
	if resetter, ok := c.conn.(driver.SessionResetter); ok {
		return resetter.ResetSession(ctx)
	}
	return nil
}

func (c *busyRetryConn) IsValid() bool {
	if validator, ok := c.conn.(driver.Validator); ok {
		return validator.IsValid()
	}
	return true
}
