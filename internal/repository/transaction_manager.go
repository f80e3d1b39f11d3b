package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cpa-academy/internal/domain"
	"cpa-academy/internal/logger"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type txContextKey struct{}

// GetExecutor returns the transaction carried by ctx, or db when there is none.
// Every repository query goes through it, so a subject seeded together with
// its units and question sets lands in one transaction.
func GetExecutor(ctx context.Context, db DBTX) DBTX {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

func txFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txContextKey{}).(*sqlx.Tx)
	return tx
}

// TransactionManagerAdapter implements domain.TransactionManager over the
// Postgres pool.
type TransactionManagerAdapter struct {
	db   *sqlx.DB
	opts *sql.TxOptions
}

// NewTransactionManagerAdapter creates a transaction manager using the
// driver's default isolation level.
func NewTransactionManagerAdapter(db *sqlx.DB) domain.TransactionManager {
	return &TransactionManagerAdapter{db: db}
}

// WithTransaction runs fn inside a transaction. When ctx already carries one,
// fn joins it and the outer call decides commit or rollback. An error or panic
// from fn rolls the transaction back.
func (tma *TransactionManagerAdapter) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := tma.db.BeginTxx(ctx, tma.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		p := recover()
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Get().Error("Transaction rollback failed", zap.Error(rbErr), zap.NamedError("cause", err))
			if p == nil && err != nil {
				err = fmt.Errorf("rollback transaction: %v (original error: %w)", rbErr, err)
			}
		}
		if p != nil {
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}
