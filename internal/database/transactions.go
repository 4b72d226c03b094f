package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/store"
	apperrors "github.com/gooddeedstech/crypt2p-main-service-sub000/pkg/errors"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateTransaction persists a new exchange request in PENDING.
func (s *Service) CreateTransaction(ctx context.Context, params store.CreateTransactionParams) (*models.Transaction, error) {
	zap.L().Info("Creating transaction",
		zap.String("id", params.Id),
		zap.String("user_id", params.UserId),
		zap.String("direction", string(params.Direction)),
		zap.String("asset", params.Asset),
		zap.String("amount", params.Amount.String()),
		zap.String("transfer_id", params.TransferId))

	var expiresAt interface{}
	if !params.ExpiresAt.IsZero() {
		expiresAt = params.ExpiresAt
	}

	_, err := s.db.ExecContext(ctx, queryInsertTransaction,
		params.Id, params.UserId, string(params.Direction), params.Asset, params.Network,
		params.Amount.String(), params.ConvertedAmount.String(), params.ExchangeRate.String(),
		params.QuoteId, params.TransferId, params.Address, params.BankId,
		params.Metadata, expiresAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return nil, fmt.Errorf("%w: transfer_id %s already exists", apperrors.ErrDuplicateTransaction, params.TransferId)
		}
		return nil, fmt.Errorf("unable to insert transaction: %w", err)
	}

	return s.GetTransactionByTransferId(ctx, params.TransferId)
}

// GetTransactionByTransferId looks up a transaction by the provider-assigned
// transfer id.
func (s *Service) GetTransactionByTransferId(ctx context.Context, transferId string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx, queryGetTransactionByTransferId, transferId)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: transfer_id %s", apperrors.ErrTransactionNotFound, transferId)
		}
		return nil, fmt.Errorf("unable to query transaction: %w", err)
	}
	return tx, nil
}

// ListUserTransactions returns paginated transactions for a user, newest first.
func (s *Service) ListUserTransactions(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, queryListUserTransactions, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("unable to query transactions: %w", err)
	}
	defer closeRows(rows)

	return collectTransactions(rows)
}

// ListOpenTransactions returns every PENDING or PROCESSING transaction. Used
// on startup to resume reconciliation pollers.
func (s *Service) ListOpenTransactions(ctx context.Context) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, queryListOpenTransactions)
	if err != nil {
		return nil, fmt.Errorf("unable to query open transactions: %w", err)
	}
	defer closeRows(rows)

	return collectTransactions(rows)
}

// MarkProcessing moves PENDING -> PROCESSING. Returns false when the
// transaction was not in PENDING.
func (s *Service) MarkProcessing(ctx context.Context, transferId, metadata string) (bool, error) {
	return s.conditionalUpdate(ctx, queryMarkProcessing, transferId, metadata)
}

// ClaimSettlement atomically claims the transition into SUCCESSFUL. Exactly
// one observer wins the claim; everyone else sees false. This is the only
// gate in front of the settlement executor.
func (s *Service) ClaimSettlement(ctx context.Context, transferId, metadata string) (bool, error) {
	return s.conditionalUpdate(ctx, queryClaimSettlement, transferId, metadata)
}

// MarkCancelled moves any non-terminal transaction to CANCELLED.
func (s *Service) MarkCancelled(ctx context.Context, transferId, metadata string) (bool, error) {
	return s.conditionalUpdate(ctx, queryMarkCancelled, transferId, metadata)
}

// CancelIfPending cancels only transactions still in PENDING; the poller uses
// it to auto-cancel at its deadline without clobbering later observations.
func (s *Service) CancelIfPending(ctx context.Context, transferId, metadata string) (bool, error) {
	return s.conditionalUpdate(ctx, queryCancelIfPending, transferId, metadata)
}

// SetStatus writes the status unconditionally. Reserved for the settlement
// executor's final verdict after a won claim.
func (s *Service) SetStatus(ctx context.Context, transferId string, status models.TransactionStatus, metadata string) error {
	result, err := s.db.ExecContext(ctx, querySetStatus, string(status), metadata, transferId)
	if err != nil {
		return fmt.Errorf("unable to set status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: transfer_id %s", apperrors.ErrTransactionNotFound, transferId)
	}
	return nil
}

// SetExchangeStatus records the outcome of the opposite-leg settlement.
func (s *Service) SetExchangeStatus(ctx context.Context, transferId string, status models.ExchangeStatus) error {
	result, err := s.db.ExecContext(ctx, querySetExchangeStatus, string(status), transferId)
	if err != nil {
		return fmt.Errorf("unable to set exchange status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: transfer_id %s", apperrors.ErrTransactionNotFound, transferId)
	}
	return nil
}

func (s *Service) conditionalUpdate(ctx context.Context, query, transferId, metadata string) (bool, error) {
	result, err := s.db.ExecContext(ctx, query, metadata, transferId)
	if err != nil {
		return false, fmt.Errorf("unable to update transaction status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unable to check rows affected: %w", err)
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var direction, status, exchangeStatus string
	var amountStr, convertedStr, rateStr string
	var expiresAt, confirmedAt sql.NullTime

	err := row.Scan(&tx.Id, &tx.UserId, &direction, &tx.Asset, &tx.Network,
		&amountStr, &convertedStr, &rateStr,
		&tx.QuoteId, &tx.TransferId, &tx.Address, &tx.BankId,
		&status, &exchangeStatus, &tx.Metadata,
		&expiresAt, &confirmedAt, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}

	tx.Direction = models.Direction(direction)
	tx.Status = models.TransactionStatus(status)
	tx.ExchangeStatus = models.ExchangeStatus(exchangeStatus)
	if expiresAt.Valid {
		tx.ExpiresAt = expiresAt.Time
	}
	if confirmedAt.Valid {
		tx.ConfirmedAt = confirmedAt.Time
	}

	tx.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
	}
	tx.ConvertedAmount, err = decimal.NewFromString(convertedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse converted_amount %q: %w", convertedStr, err)
	}
	tx.ExchangeRate, err = decimal.NewFromString(rateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse exchange_rate %q: %w", rateStr, err)
	}

	return &tx, nil
}

func collectTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	var transactions []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zap.L().Warn("Failed to close rows", zap.Error(err))
	}
}
