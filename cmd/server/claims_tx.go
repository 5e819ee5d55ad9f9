package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "wasmember/pkg/domain-errors"
	txcontext "wasmember/pkg/platform/tx"
)

const defaultClaimsTxTimeout = 5 * time.Second

// claimsPostgresTx runs service callbacks in one database transaction. The
// open transaction travels in the context, so the claim store and the audit
// store both join it without knowing about each other.
type claimsPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newClaimsPostgresTx(db *sql.DB) *claimsPostgresTx {
	return &claimsPostgresTx{db: db}
}

func (t *claimsPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultClaimsTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	return tx.Commit()
}
