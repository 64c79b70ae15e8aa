package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/exemplar/internal/exchange"
)

// ReadExamples returns the oldest limit stored examples ordered by seq ASC.
// A limit <= 0 returns all of them.
//
// Returns an empty document (not nil) if nothing is stored.
func (s *Store) ReadExamples(ctx context.Context, limit int) (exchange.Document, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT class_name, method_name, path, line, arguments, return_value
		FROM examples
		ORDER BY seq ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query examples: %w", err)
	}
	defer rows.Close()

	doc := exchange.Document{}
	for rows.Next() {
		ex, err := scanExample(rows)
		if err != nil {
			return nil, err
		}
		doc = append(doc, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate examples: %w", err)
	}
	return doc, nil
}

// ReadSessions returns stored sessions with their example counts, in the
// order their first example was stored.
func (s *Store) ReadSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.target, s.recorder_version, COUNT(e.seq), COALESCE(MIN(e.seq), 0) AS first_seq
		FROM sessions s
		LEFT JOIN examples e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY first_seq ASC, s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionSummary{}
	for rows.Next() {
		var sum SessionSummary
		var firstSeq int64
		if err := rows.Scan(&sum.ID, &sum.Target, &sum.RecorderVersion, &sum.Examples, &firstSeq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// SessionSummary is a stored session with its example count.
type SessionSummary struct {
	ID              string `json:"id"`
	Target          string `json:"target"`
	RecorderVersion string `json:"recorder_version"`
	Examples        int    `json:"examples"`
}

func scanExample(rows *sql.Rows) (exchange.Example, error) {
	var ex exchange.Example
	var argsJSON, retJSON string
	if err := rows.Scan(
		&ex.ClassName,
		&ex.MethodName,
		&ex.MethodLocation.Path,
		&ex.MethodLocation.Line,
		&argsJSON,
		&retJSON,
	); err != nil {
		return exchange.Example{}, fmt.Errorf("scan example: %w", err)
	}

	args, err := unmarshalArguments(argsJSON)
	if err != nil {
		return exchange.Example{}, err
	}
	ret, err := unmarshalValue(retJSON)
	if err != nil {
		return exchange.Example{}, err
	}
	ex.Arguments = args
	ex.Return = ret
	return ex, nil
}
