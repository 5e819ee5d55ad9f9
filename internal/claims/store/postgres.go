package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"wasmember/internal/claims/models"
	id "wasmember/pkg/domain"
	"wasmember/pkg/platform/sentinel"
	txcontext "wasmember/pkg/platform/tx"
)

// uniqueViolation is the Postgres error code raised when the partial unique
// index on claims(member_code) WHERE status IN ('pending','approved') blocks
// a write. That index is the atomic check-then-insert: acquisition and
// verification are one statement, so two simultaneous submissions of the same
// code cannot both succeed.
const uniqueViolation = "23505"

// PostgresStore persists claims in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed claim store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Insert(ctx context.Context, claim *models.Claim) error {
	if claim == nil {
		return fmt.Errorf("claim is required")
	}
	query := `
		INSERT INTO claims (
			id, account_id, member_code, company_name, tax_id, member_type_code,
			document_ref, status, reject_reason, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(claim.ID),
		uuid.UUID(claim.AccountID),
		claim.MemberCode.String(),
		claim.CompanyName,
		claim.TaxID,
		claim.MemberTypeCode,
		claim.DocumentRef,
		string(claim.Status),
		claim.RejectReason,
		claim.CreatedAt,
		claim.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("member code %s: %w", claim.MemberCode, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

func (s *PostgresStore) Transition(ctx context.Context, claim *models.Claim, expectFrom models.ClaimStatus) error {
	if claim == nil {
		return fmt.Errorf("claim is required")
	}
	query := `
		UPDATE claims
		SET company_name = $3, tax_id = $4, member_type_code = $5,
			document_ref = $6, status = $7, reject_reason = $8,
			reviewed_by = $9, reviewed_at = $10, updated_at = $11
		WHERE id = $1 AND status = $2
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(claim.ID),
		string(expectFrom),
		claim.CompanyName,
		claim.TaxID,
		claim.MemberTypeCode,
		claim.DocumentRef,
		string(claim.Status),
		claim.RejectReason,
		nullUUID(uuid.UUID(claim.ReviewedBy)),
		claim.ReviewedAt,
		claim.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Re-acquiring the lock on resubmission lost to another claim.
			return fmt.Errorf("member code %s: %w", claim.MemberCode, sentinel.ErrConflict)
		}
		return fmt.Errorf("transition claim: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition claim: %w", err)
	}
	if affected == 0 {
		// Either the claim vanished or its status moved underneath us.
		var status string
		err := s.execer(ctx).QueryRowContext(ctx,
			`SELECT status FROM claims WHERE id = $1`, uuid.UUID(claim.ID),
		).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("transition claim: %w", err)
		}
		return fmt.Errorf("claim is %s: %w", status, sentinel.ErrInvalidState)
	}
	return nil
}

const claimColumns = `
	id, account_id, member_code, company_name, tax_id, member_type_code,
	document_ref, status, reject_reason, reviewed_by, reviewed_at,
	created_at, updated_at
`

func (s *PostgresStore) FindByID(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE id = $1`, uuid.UUID(claimID))
	claim, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find claim: %w", err)
	}
	return claim, nil
}

func (s *PostgresStore) Delete(ctx context.Context, claimID id.ClaimID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM claims WHERE id = $1`, uuid.UUID(claimID))
	if err != nil {
		return fmt.Errorf("delete claim: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete claim: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID id.AccountID, filters models.ListFilters, page int) ([]*models.Claim, error) {
	if page < 1 {
		page = 1
	}
	query := `SELECT ` + claimColumns + ` FROM claims WHERE account_id = $1`
	args := []any{uuid.UUID(accountID)}

	if filters.Status != "" {
		args = append(args, string(filters.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filters.MemberTypeCode != "" {
		args = append(args, filters.MemberTypeCode)
		query += fmt.Sprintf(" AND member_type_code = $%d", len(args))
	}
	if filters.SearchTerm != "" {
		args = append(args, "%"+filters.SearchTerm+"%")
		query += fmt.Sprintf(" AND (member_code ILIKE $%d OR company_name ILIKE $%d)", len(args), len(args))
	}

	args = append(args, models.PageSize, (page-1)*models.PageSize)
	query += fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	var claims []*models.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		claims = append(claims, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return claims, nil
}

func (s *PostgresStore) StatusByCode(ctx context.Context, code id.MemberCode) (models.ClaimStatus, error) {
	// Latest by updated_at, not insertion order: resubmission updates a row
	// in place rather than inserting a new one.
	var status string
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT status FROM claims
		WHERE member_code = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`, code.String()).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("status by code: %w", err)
	}
	return models.ClaimStatus(status), nil
}

func (s *PostgresStore) NonSelectableCodes(ctx context.Context) (map[id.MemberCode]models.ClaimStatus, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT member_code, status FROM claims
		WHERE status IN ('pending', 'approved')
	`)
	if err != nil {
		return nil, fmt.Errorf("non-selectable codes: %w", err)
	}
	defer rows.Close()

	codes := make(map[id.MemberCode]models.ClaimStatus)
	for rows.Next() {
		var code, status string
		if err := rows.Scan(&code, &status); err != nil {
			return nil, fmt.Errorf("scan non-selectable code: %w", err)
		}
		codes[id.MemberCode(code)] = models.ClaimStatus(status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate non-selectable codes: %w", err)
	}
	return codes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*models.Claim, error) {
	var (
		claim      models.Claim
		claimID    uuid.UUID
		accountID  uuid.UUID
		code       string
		status     string
		reviewedBy *uuid.UUID
	)
	err := row.Scan(
		&claimID,
		&accountID,
		&code,
		&claim.CompanyName,
		&claim.TaxID,
		&claim.MemberTypeCode,
		&claim.DocumentRef,
		&status,
		&claim.RejectReason,
		&reviewedBy,
		&claim.ReviewedAt,
		&claim.CreatedAt,
		&claim.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	claim.ID = id.ClaimID(claimID)
	claim.AccountID = id.AccountID(accountID)
	claim.MemberCode = id.MemberCode(code)
	claim.Status = models.ClaimStatus(status)
	if reviewedBy != nil {
		claim.ReviewedBy = id.AdminID(*reviewedBy)
	}
	return &claim, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullUUID(u uuid.UUID) any {
	if u == uuid.Nil {
		return nil
	}
	return u
}
