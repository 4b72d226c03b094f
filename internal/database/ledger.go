package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Credit appends a CREDIT entry for the owner. The running balance is the
// owner's last running balance plus the amount; a negative balance is simply
// offset toward zero by the same addition.
func (s *Service) Credit(ctx context.Context, ownerId, description string, amount decimal.Decimal) (*models.LedgerEntry, error) {
	return s.appendEntry(ctx, ownerId, models.LedgerCredit, description, amount)
}

// Debit appends a DEBIT entry for the owner. There is no balance floor: the
// float is allowed to go negative while provider settlement catches up.
func (s *Service) Debit(ctx context.Context, ownerId, description string, amount decimal.Decimal) (*models.LedgerEntry, error) {
	return s.appendEntry(ctx, ownerId, models.LedgerDebit, description, amount)
}

func (s *Service) appendEntry(ctx context.Context, ownerId string, entryType models.LedgerEntryType, description string, amount decimal.Decimal) (*models.LedgerEntry, error) {
	if ownerId == "" {
		return nil, fmt.Errorf("ledger owner id cannot be empty")
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("ledger amount must be a positive magnitude, got %s", amount.String())
	}

	// Appends are serialized so the next entry's balance basis is always the
	// previously committed last entry.
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	balance, err := lastBalance(ctx, tx, ownerId)
	if err != nil {
		return nil, err
	}

	var newBalance decimal.Decimal
	switch entryType {
	case models.LedgerCredit:
		newBalance = balance.Add(amount)
	case models.LedgerDebit:
		newBalance = balance.Sub(amount)
	default:
		return nil, fmt.Errorf("unknown ledger entry type %q", entryType)
	}

	entry := &models.LedgerEntry{
		Id:             uuid.New().String(),
		OwnerId:        ownerId,
		Type:           entryType,
		Description:    description,
		Amount:         amount,
		RunningBalance: newBalance,
		CreatedAt:      time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, queryInsertLedgerEntry,
		entry.Id, entry.OwnerId, string(entry.Type), entry.Description,
		entry.Amount.String(), entry.RunningBalance.String(), entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ledger entry: %w", err)
	}

	zap.L().Info("Ledger entry appended",
		zap.String("entry_id", entry.Id),
		zap.String("owner_id", ownerId),
		zap.String("type", string(entryType)),
		zap.String("amount", amount.String()),
		zap.String("running_balance", newBalance.String()))

	return entry, nil
}

func lastBalance(ctx context.Context, tx *sql.Tx, ownerId string) (decimal.Decimal, error) {
	var balanceStr string
	err := tx.QueryRowContext(ctx, queryGetLastLedgerBalance, ownerId).Scan(&balanceStr)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read last ledger balance: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse running balance %q: %w", balanceStr, err)
	}
	return balance, nil
}

// ListLedgerEntries returns paginated entries for an owner, newest first.
func (s *Service) ListLedgerEntries(ctx context.Context, ownerId string, limit, offset int) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, queryListLedgerEntries, ownerId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("unable to query ledger entries: %w", err)
	}
	defer closeRows(rows)

	var entries []models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		var entryType, amountStr, balanceStr string
		err := rows.Scan(&entry.Id, &entry.OwnerId, &entryType, &entry.Description,
			&amountStr, &balanceStr, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		entry.Type = models.LedgerEntryType(entryType)
		entry.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
		}
		entry.RunningBalance, err = decimal.NewFromString(balanceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse running balance %q: %w", balanceStr, err)
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}

	return entries, nil
}
