package data

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/itm-kmutnb/classroom-api/internal/data/pgxutil"
	domainauth "github.com/itm-kmutnb/classroom-api/internal/domain/auth"
	apperrors "github.com/itm-kmutnb/classroom-api/internal/errors"
)

// AllowlistRepo provides database operations for the instructor allow-list.
// It implements ports.AllowlistStore. Consumption of an entry happens through
// IdentityRepo.CreateInstructor, never here.
type AllowlistRepo struct {
	DB *sql.DB
}

// NewAllowlistRepo creates a new instructor allow-list repository.
func NewAllowlistRepo(db *sql.DB) *AllowlistRepo {
	return &AllowlistRepo{DB: db}
}

const allowlistColumns = `email, consumed, created_at, consumed_at`

// Create inserts a new unconsumed allow-list entry.
func (r *AllowlistRepo) Create(
	ctx context.Context,
	email string,
) (domainauth.AllowlistEntry, error) {
	if strings.TrimSpace(email) == "" {
		return domainauth.AllowlistEntry{}, ErrEmailRequired
	}

	var entry domainauth.AllowlistEntry
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		query := `
			INSERT INTO instructor_allowlist (email)
			VALUES ($1)
			RETURNING ` + allowlistColumns

		rows, err := conn.Query(ctx, query, email)
		if err != nil {
			return err
		}
		defer rows.Close()

		entry, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.AllowlistEntry])
		return err
	})
	if err != nil {
		return domainauth.AllowlistEntry{}, apperrors.MapDBError(err)
	}

	return entry, nil
}

// GetByEmail retrieves an allow-list entry by email.
func (r *AllowlistRepo) GetByEmail(
	ctx context.Context,
	email string,
) (domainauth.AllowlistEntry, error) {
	if strings.TrimSpace(email) == "" {
		return domainauth.AllowlistEntry{}, ErrEmailRequired
	}

	var entry domainauth.AllowlistEntry
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		query := `SELECT ` + allowlistColumns + ` FROM instructor_allowlist WHERE email = $1`
		rows, err := conn.Query(ctx, query, email)
		if err != nil {
			return err
		}
		defer rows.Close()

		entry, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.AllowlistEntry])
		return err
	})
	if err != nil {
		return domainauth.AllowlistEntry{}, apperrors.MapDBError(err)
	}

	return entry, nil
}

// List returns all allow-list entries, newest first.
func (r *AllowlistRepo) List(ctx context.Context) ([]domainauth.AllowlistEntry, error) {
	var entries []domainauth.AllowlistEntry
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		query := `SELECT ` + allowlistColumns + ` FROM instructor_allowlist ORDER BY created_at DESC`
		rows, err := conn.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		entries, err = pgx.CollectRows(rows, pgx.RowToStructByName[domainauth.AllowlistEntry])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	return entries, nil
}

// Delete removes an unconsumed allow-list entry. A consumed entry is the
// audit record for an existing instructor identity and cannot be deleted.
func (r *AllowlistRepo) Delete(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrEmailRequired
	}

	return pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		res, err := conn.Exec(ctx,
			`DELETE FROM instructor_allowlist WHERE email = $1 AND consumed = false`, email)
		if err != nil {
			return apperrors.MapDBError(err)
		}
		if res.RowsAffected() > 0 {
			return nil
		}

		var consumed bool
		err = conn.QueryRow(ctx,
			`SELECT consumed FROM instructor_allowlist WHERE email = $1`, email).Scan(&consumed)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFoundf("allow-list entry for %s not found", email)
			}
			return apperrors.MapDBError(err)
		}
		return apperrors.Conflictf("allow-list entry for %s is already consumed", email)
	})
}
