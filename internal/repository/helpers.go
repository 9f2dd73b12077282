package repository

import (
	"context"
	"database/sql"
	"errors"
)

// HandleNotFound maps sql.ErrNoRows to a nil result without error: for Find*
// reads a missing row is an answer, not a failure.
func HandleNotFound[T any](result *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type getter interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// affected returns how many rows a write touched.
func affected(result sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Session tables share token_hash and expires_at columns. The table name is
// always one of the constants below, never user input.
const (
	authSessionsTable  = "auth_sessions"
	adminSessionsTable = "admin_sessions"
)

func findLiveSession[T any](ctx context.Context, db getter, table, tokenHash string) (*T, error) {
	var session T
	err := db.GetContext(ctx, &session,
		`SELECT * FROM `+table+` WHERE token_hash = $1 AND expires_at > NOW()`, tokenHash)
	return HandleNotFound(&session, err)
}

func deleteSession(ctx context.Context, db execer, table, tokenHash string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE token_hash = $1`, tokenHash)
	return err
}

func deleteExpiredSessions(ctx context.Context, db execer, table string) (int64, error) {
	return affected(db.ExecContext(ctx, `DELETE FROM `+table+` WHERE expires_at < NOW()`))
}
