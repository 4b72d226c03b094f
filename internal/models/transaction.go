package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction of an exchange: which side the user pays in.
type Direction string

const (
	DirectionCashToCrypto Direction = "CASH_TO_CRYPTO"
	DirectionCryptoToCash Direction = "CRYPTO_TO_CASH"
)

// TransactionStatus is the internal lifecycle status of an exchange request.
// Transitions are monotonic: once a terminal status is reached the transaction
// never re-enters PENDING or PROCESSING.
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "PENDING"
	StatusProcessing TransactionStatus = "PROCESSING"
	StatusSuccessful TransactionStatus = "SUCCESSFUL"
	StatusFailed     TransactionStatus = "FAILED"
	StatusCancelled  TransactionStatus = "CANCELLED"
)

// Terminal reports whether the status is final.
func (s TransactionStatus) Terminal() bool {
	return s == StatusSuccessful || s == StatusFailed || s == StatusCancelled
}

// ExchangeStatus tracks the opposite-leg settlement independently of the
// inbound-funds status.
type ExchangeStatus string

const (
	ExchangePending    ExchangeStatus = "PENDING"
	ExchangeSuccessful ExchangeStatus = "SUCCESSFUL"
	ExchangeFailed     ExchangeStatus = "FAILED"
)

// Transaction is a single exchange request, created at quote/transfer time and
// mutated only by the reconciliation engine and the settlement executor.
// Financial record: rows are never deleted.
type Transaction struct {
	Id              string            `db:"id"`
	UserId          string            `db:"user_id"`
	Direction       Direction         `db:"direction"`
	Asset           string            `db:"asset"`
	Network         string            `db:"network"`
	Amount          decimal.Decimal   `db:"amount"`
	ConvertedAmount decimal.Decimal   `db:"converted_amount"`
	ExchangeRate    decimal.Decimal   `db:"exchange_rate"`
	QuoteId         string            `db:"quote_id"`
	TransferId      string            `db:"transfer_id"`
	Address         string            `db:"address"`
	BankId          string            `db:"bank_id"`
	Status          TransactionStatus `db:"status"`
	ExchangeStatus  ExchangeStatus    `db:"exchange_status"`
	Metadata        string            `db:"metadata"`
	ExpiresAt       time.Time         `db:"expires_at"`
	ConfirmedAt     time.Time         `db:"confirmed_at"`
	CreatedAt       time.Time         `db:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at"`
}

// LedgerEntryType distinguishes ledger credits from debits.
type LedgerEntryType string

const (
	LedgerCredit LedgerEntryType = "CREDIT"
	LedgerDebit  LedgerEntryType = "DEBIT"
)

// LedgerEntry is an immutable movement against the platform float. Amount is
// always a positive magnitude; RunningBalance is signed and post-entry.
type LedgerEntry struct {
	Id             string          `db:"id"`
	OwnerId        string          `db:"owner_id"`
	Type           LedgerEntryType `db:"type"`
	Description    string          `db:"description"`
	Amount         decimal.Decimal `db:"amount"`
	RunningBalance decimal.Decimal `db:"running_balance"`
	CreatedAt      time.Time       `db:"created_at"`
}

// User represents a platform user.
type User struct {
	Id        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BankDetail is a user's linked Naira bank account, the payout destination for
// CRYPTO_TO_CASH settlements.
type BankDetail struct {
	Id            string    `db:"id"`
	UserId        string    `db:"user_id"`
	BankCode      string    `db:"bank_code"`
	BankName      string    `db:"bank_name"`
	AccountName   string    `db:"account_name"`
	AccountNumber string    `db:"account_number"`
	CreatedAt     time.Time `db:"created_at"`
}
