package store

import (
	"context"
	"fmt"

	"github.com/roach88/exemplar/internal/exchange"
	"github.com/roach88/exemplar/internal/ir"
)

// Session describes a recording session.
type Session struct {
	ID     string
	Target string
}

// WriteSession inserts a session row.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - rewriting a session is a no-op.
func (s *Store) WriteSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, target, recorder_version, format_version)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.Target,
		ir.RecorderVersion,
		ir.FormatVersion,
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// WriteExample inserts an example recorded in sessionID.
// Uses ON CONFLICT(dedup_key) DO NOTHING so an example already stored by any
// session is silently ignored; inserted reports whether a row was added.
//
// Note: The session referenced by sessionID must exist (foreign key constraint).
func (s *Store) WriteExample(ctx context.Context, ex exchange.Example, sessionID, dedupKey string) (inserted bool, err error) {
	argsJSON, err := marshalArguments(ex.Arguments)
	if err != nil {
		return false, fmt.Errorf("write example: %w", err)
	}
	retJSON, err := marshalValue(ex.Return)
	if err != nil {
		return false, fmt.Errorf("write example: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO examples
		(dedup_key, session_id, class_name, method_name, path, line, arguments, return_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dedup_key) DO NOTHING
	`,
		dedupKey,
		sessionID,
		ex.ClassName,
		ex.MethodName,
		ex.MethodLocation.Path,
		ex.MethodLocation.Line,
		argsJSON,
		retJSON,
	)
	if err != nil {
		return false, fmt.Errorf("write example: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write example: rows affected: %w", err)
	}
	return rows > 0, nil
}
