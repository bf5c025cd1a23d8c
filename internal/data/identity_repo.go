package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/itm-kmutnb/classroom-api/internal/data/pgxutil"
	domainauth "github.com/itm-kmutnb/classroom-api/internal/domain/auth"
	apperrors "github.com/itm-kmutnb/classroom-api/internal/errors"
	"github.com/itm-kmutnb/classroom-api/internal/ports"
)

// IdentityRepo provides database operations for platform identities.
// It implements ports.IdentityStore.
type IdentityRepo struct {
	DB *sql.DB
}

// NewIdentityRepo creates a new platform identity repository.
func NewIdentityRepo(db *sql.DB) *IdentityRepo {
	return &IdentityRepo{DB: db}
}

const identityColumns = `id, external_subject_id, email, role, created_at`

// GetBySubject retrieves the platform identity for an external subject id.
// Returns an error wrapping ports.ErrIdentityNotFound when no row exists.
func (r *IdentityRepo) GetBySubject(
	ctx context.Context,
	subjectID string,
) (domainauth.PlatformIdentity, error) {
	if strings.TrimSpace(subjectID) == "" {
		return domainauth.PlatformIdentity{}, ErrSubjectIDRequired
	}

	var identity domainauth.PlatformIdentity
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		query := `SELECT ` + identityColumns + ` FROM platform_identities WHERE external_subject_id = $1`
		rows, err := conn.Query(ctx, query, subjectID)
		if err != nil {
			return err
		}
		defer rows.Close()

		identity, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.PlatformIdentity])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainauth.PlatformIdentity{},
				fmt.Errorf("subject %q: %w", subjectID, ports.ErrIdentityNotFound)
		}
		return domainauth.PlatformIdentity{}, apperrors.MapDBError(err)
	}

	return identity, nil
}

// CreateStudent inserts a new student identity.
func (r *IdentityRepo) CreateStudent(
	ctx context.Context,
	subjectID, email string,
) (domainauth.PlatformIdentity, error) {
	if strings.TrimSpace(subjectID) == "" {
		return domainauth.PlatformIdentity{}, ErrSubjectIDRequired
	}
	if strings.TrimSpace(email) == "" {
		return domainauth.PlatformIdentity{}, ErrEmailRequired
	}

	var identity domainauth.PlatformIdentity
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var insertErr error
		identity, insertErr = insertIdentity(ctx, conn, subjectID, email, domainauth.RoleStudent)
		return insertErr
	})
	if err != nil {
		return domainauth.PlatformIdentity{}, apperrors.MapDBError(err)
	}

	return identity, nil
}

// CreateInstructor consumes the email's allow-list entry and inserts an
// instructor identity inside a single transaction. The conditional UPDATE
// guarantees that of two concurrent claims for the same email exactly one
// commits; the other sees zero rows affected and fails with
// ports.ErrNotListed, same as an email that was never provisioned.
func (r *IdentityRepo) CreateInstructor(
	ctx context.Context,
	subjectID, email string,
) (domainauth.PlatformIdentity, error) {
	if strings.TrimSpace(subjectID) == "" {
		return domainauth.PlatformIdentity{}, ErrSubjectIDRequired
	}
	if strings.TrimSpace(email) == "" {
		return domainauth.PlatformIdentity{}, ErrEmailRequired
	}

	var identity domainauth.PlatformIdentity
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			res, err := tx.Exec(ctx, `
				UPDATE instructor_allowlist
				SET consumed = true, consumed_at = NOW()
				WHERE email = $1 AND consumed = false`, email)
			if err != nil {
				return err
			}
			if res.RowsAffected() == 0 {
				return fmt.Errorf("email %q: %w", email, ports.ErrNotListed)
			}

			identity, err = insertIdentity(ctx, tx, subjectID, email, domainauth.RoleInstructor)
			return err
		},
	})
	if err != nil {
		if errors.Is(err, ports.ErrNotListed) {
			return domainauth.PlatformIdentity{}, err
		}
		return domainauth.PlatformIdentity{}, apperrors.MapDBError(err)
	}

	return identity, nil
}

// List returns all platform identities, newest first.
func (r *IdentityRepo) List(ctx context.Context) ([]domainauth.PlatformIdentity, error) {
	var identities []domainauth.PlatformIdentity
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		query := `SELECT ` + identityColumns + ` FROM platform_identities ORDER BY created_at DESC`
		rows, err := conn.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		identities, err = pgx.CollectRows(rows, pgx.RowToStructByName[domainauth.PlatformIdentity])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	return identities, nil
}

// querier covers the subset of pgx.Conn and pgx.Tx needed by insertIdentity.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func insertIdentity(
	ctx context.Context,
	q querier,
	subjectID, email string,
	role domainauth.Role,
) (domainauth.PlatformIdentity, error) {
	query := `
		INSERT INTO platform_identities (id, external_subject_id, email, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + identityColumns

	rows, err := q.Query(ctx, query, uuid.NewString(), subjectID, email, string(role))
	if err != nil {
		return domainauth.PlatformIdentity{}, err
	}
	defer rows.Close()

	return pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.PlatformIdentity])
}
