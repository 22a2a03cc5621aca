package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/invaen/ricochet/internal/models"
	"github.com/invaen/ricochet/internal/storeerr"
)

// Store wraps a *sql.DB with the Injection/Callback operations from §4.2.
// Every writer obtains a short-lived connection from the pool and relies
// on SQLite's own locking; Store holds no mutable state of its own.
type Store struct {
	db *sql.DB
}

// NewStore wraps an already-opened, already-migrated *sql.DB.
func NewStore(sdb *sql.DB) *Store {
	return &Store{db: sdb}
}

// RecordInjection appends an Injection row. Fails with
// storeerr.ErrDuplicateToken if the token already exists (I2), or
// storeerr.ErrIO on any other database error.
func (s *Store) RecordInjection(inj models.Injection) error {
	_, err := s.db.Exec(
		`INSERT INTO injections (token, target_url, parameter, payload, context, injected_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		inj.Token, inj.TargetURL, inj.Parameter, inj.Payload, inj.Context, inj.InjectedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") || strings.Contains(err.Error(), "constraint failed") {
			return fmt.Errorf("%w: token %s", storeerr.ErrDuplicateToken, inj.Token)
		}
		return fmt.Errorf("%w: record injection: %v", storeerr.ErrIO, err)
	}
	return nil
}

// GetInjection retrieves an Injection by token, or (nil, nil) if absent.
func (s *Store) GetInjection(tok string) (*models.Injection, error) {
	row := s.db.QueryRow(
		`SELECT token, target_url, parameter, payload, context, injected_at
		 FROM injections WHERE token = ?`, tok,
	)
	var inj models.Injection
	var context sql.NullString
	if err := row.Scan(&inj.Token, &inj.TargetURL, &inj.Parameter, &inj.Payload, &context, &inj.InjectedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get injection: %v", storeerr.ErrIO, err)
	}
	inj.Context = context.String
	return &inj, nil
}

// ListInjections returns the most recent Injections, newest first.
func (s *Store) ListInjections(limit int) ([]models.Injection, error) {
	rows, err := s.db.Query(
		`SELECT token, target_url, parameter, payload, context, injected_at
		 FROM injections ORDER BY injected_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list injections: %v", storeerr.ErrIO, err)
	}
	defer rows.Close()

	var out []models.Injection
	for rows.Next() {
		var inj models.Injection
		var context sql.NullString
		if err := rows.Scan(&inj.Token, &inj.TargetURL, &inj.Parameter, &inj.Payload, &context, &inj.InjectedAt); err != nil {
			return nil, fmt.Errorf("%w: scan injection: %v", storeerr.ErrIO, err)
		}
		inj.Context = context.String
		out = append(out, inj)
	}
	return out, rows.Err()
}

// RecordCallback persists a Callback row only if a matching Injection
// token exists (I5). Returns true if recorded, false if the token is
// unknown — never an error for an unknown token, only for I/O failure.
func (s *Store) RecordCallback(tok, sourceIP, requestPath, headersJSON string, body []byte, receivedAt float64) (bool, error) {
	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM injections WHERE token = ?`, tok).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: check token: %v", storeerr.ErrIO, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO callbacks (token, source_ip, request_path, headers, body, received_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tok, sourceIP, requestPath, headersJSON, body, receivedAt,
	)
	if err != nil {
		return false, fmt.Errorf("%w: record callback: %v", storeerr.ErrIO, err)
	}
	return true, nil
}

// GetCallbacksForInjection returns all Callbacks for tok, newest first.
func (s *Store) GetCallbacksForInjection(tok string) ([]models.Callback, error) {
	rows, err := s.db.Query(
		`SELECT id, token, source_ip, request_path, headers, body, received_at
		 FROM callbacks WHERE token = ? ORDER BY received_at DESC`, tok,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: get callbacks: %v", storeerr.ErrIO, err)
	}
	defer rows.Close()

	var out []models.Callback
	for rows.Next() {
		var cb models.Callback
		if err := rows.Scan(&cb.ID, &cb.Token, &cb.SourceIP, &cb.RequestPath, &cb.Headers, &cb.Body, &cb.ReceivedAt); err != nil {
			return nil, fmt.Errorf("%w: scan callback: %v", storeerr.ErrIO, err)
		}
		out = append(out, cb)
	}
	return out, rows.Err()
}

// RawFindings executes the inner join Injections ⨝ Callbacks ON token,
// optionally filtered to received_at >= since, ordered by received_at
// descending. Severity is deliberately not computed here: the storage
// layer does not know the severity mapping (§4.8).
func (s *Store) RawFindings(since *float64) ([]models.Finding, error) {
	query := `
		SELECT i.token, i.target_url, i.parameter, i.payload, i.context, i.injected_at,
		       c.id, c.source_ip, c.request_path, c.headers, c.body, c.received_at
		FROM injections i
		JOIN callbacks c ON i.token = c.token`
	args := []any{}
	if since != nil {
		query += " WHERE c.received_at >= ?"
		args = append(args, *since)
	}
	query += " ORDER BY c.received_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: raw findings: %v", storeerr.ErrIO, err)
	}
	defer rows.Close()

	var out []models.Finding
	for rows.Next() {
		var f models.Finding
		var context sql.NullString
		if err := rows.Scan(
			&f.Injection.Token, &f.Injection.TargetURL, &f.Injection.Parameter,
			&f.Injection.Payload, &context, &f.Injection.InjectedAt,
			&f.Callback.ID, &f.Callback.SourceIP, &f.Callback.RequestPath,
			&f.Callback.Headers, &f.Callback.Body, &f.Callback.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scan finding: %v", storeerr.ErrIO, err)
		}
		f.Injection.Context = context.String
		f.Callback.Token = f.Injection.Token
		f.DelaySeconds = f.Callback.ReceivedAt - f.Injection.InjectedAt
		out = append(out, f)
	}
	return out, rows.Err()
}
