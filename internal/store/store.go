package store

import (
	"context"
	"time"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"

	"github.com/shopspring/decimal"
)

// CreateTransactionParams contains the parameters for persisting a new
// exchange request. Status is always PENDING at creation.
type CreateTransactionParams struct {
	Id              string
	UserId          string
	Direction       models.Direction
	Asset           string
	Network         string
	Amount          decimal.Decimal
	ConvertedAmount decimal.Decimal
	ExchangeRate    decimal.Decimal
	QuoteId         string
	TransferId      string
	Address         string
	BankId          string
	Metadata        string
	ExpiresAt       time.Time
}

// CreateBankDetailParams contains the parameters for linking a bank account.
type CreateBankDetailParams struct {
	UserId        string
	BankCode      string
	BankName      string
	AccountName   string
	AccountNumber string
}

// Store defines the contract the reconciliation core requires from the
// persistence backend.
type Store interface {
	// --- Transactions ---
	CreateTransaction(ctx context.Context, params CreateTransactionParams) (*models.Transaction, error)
	GetTransactionByTransferId(ctx context.Context, transferId string) (*models.Transaction, error)
	ListUserTransactions(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error)
	ListOpenTransactions(ctx context.Context) ([]models.Transaction, error)

	// Status transitions. The claim-style methods perform a conditional
	// update and report whether a row was affected; a false return means
	// another observer got there first or the transaction is terminal.
	MarkProcessing(ctx context.Context, transferId, metadata string) (bool, error)
	ClaimSettlement(ctx context.Context, transferId, metadata string) (bool, error)
	MarkCancelled(ctx context.Context, transferId, metadata string) (bool, error)
	CancelIfPending(ctx context.Context, transferId, metadata string) (bool, error)
	SetStatus(ctx context.Context, transferId string, status models.TransactionStatus, metadata string) error
	SetExchangeStatus(ctx context.Context, transferId string, status models.ExchangeStatus) error

	// --- Ledger ---
	Credit(ctx context.Context, ownerId, description string, amount decimal.Decimal) (*models.LedgerEntry, error)
	Debit(ctx context.Context, ownerId, description string, amount decimal.Decimal) (*models.LedgerEntry, error)
	ListLedgerEntries(ctx context.Context, ownerId string, limit, offset int) ([]models.LedgerEntry, error)

	// --- Users and bank details ---
	CreateUser(ctx context.Context, userId, name, email string) (*models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	CreateBankDetail(ctx context.Context, params CreateBankDetailParams) (*models.BankDetail, error)
	GetBankDetailByUserId(ctx context.Context, userId string) (*models.BankDetail, error)

	// --- Lifecycle ---
	Close()
}
