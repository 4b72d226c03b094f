/**
 * Copyright 2025-present Gooddeeds Technologies, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package reconcile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/observability"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlatformFloatOwner is the ledger owner backing payouts before provider
// settlement is fully reconciled.
const PlatformFloatOwner = "platform-float"

// SettlementProvider is the slice of the settlement client the executor needs.
type SettlementProvider interface {
	CreateQuote(ctx context.Context, sourceCurrency, targetCurrency string, sourceAmount decimal.Decimal, payOut *models.PayoutDescriptor) (*models.Quote, error)
	CreateTransfer(ctx context.Context, quoteId string) (*models.Transfer, error)
}

// RailsProvider is the slice of the banking-rails client the executor needs.
type RailsProvider interface {
	FundTransfer(ctx context.Context, request models.FundTransferRequest) (*models.FundTransferResponse, error)
}

// SettlementExecutor performs the opposite leg of a confirmed exchange:
// crypto out for CASH_TO_CRYPTO, Naira out for CRYPTO_TO_CASH. Failures are
// terminal for the transaction; re-driving is out of band.
type SettlementExecutor struct {
	store    store.Store
	provider SettlementProvider
	rails    RailsProvider

	debitAccountName   string
	debitAccountNumber string
}

func NewSettlementExecutor(st store.Store, provider SettlementProvider, rails RailsProvider, cfg models.RailsConfig) *SettlementExecutor {
	return &SettlementExecutor{
		store:              st,
		provider:           provider,
		rails:              rails,
		debitAccountName:   cfg.DebitAccountName,
		debitAccountNumber: cfg.DebitAccountNumber,
	}
}

// Settle runs the directional settlement for a transaction whose inbound
// funds were just confirmed. Callers guarantee at-most-once invocation via
// the settlement claim.
func (x *SettlementExecutor) Settle(ctx context.Context, tx *models.Transaction) error {
	switch tx.Direction {
	case models.DirectionCashToCrypto:
		return x.settleCrypto(ctx, tx)
	case models.DirectionCryptoToCash:
		return x.settleCash(ctx, tx)
	default:
		return fmt.Errorf("unknown direction %q for transfer %s", tx.Direction, tx.TransferId)
	}
}

// settleCrypto sends the purchased crypto to the user's address via a fresh
// provider quote and transfer.
func (x *SettlementExecutor) settleCrypto(ctx context.Context, tx *models.Transaction) error {
	payOut := &models.PayoutDescriptor{
		Type:    "crypto",
		Address: tx.Address,
		Network: tx.Network,
	}

	quote, err := x.provider.CreateQuote(ctx, "NGN", tx.Asset, tx.Amount, payOut)
	if err != nil {
		return x.failCrypto(ctx, tx, fmt.Errorf("payout quote failed: %w", err))
	}

	transfer, err := x.provider.CreateTransfer(ctx, quote.Id)
	if err != nil {
		return x.failCrypto(ctx, tx, fmt.Errorf("payout transfer failed: %w", err))
	}

	metadata := marshalMetadata(map[string]interface{}{
		"payout_quote_id":    quote.Id,
		"payout_transfer_id": transfer.Id,
		"payout_status":      transfer.Status,
	})

	switch transfer.Status {
	case models.ProviderStatusCompleted, models.ProviderStatusDelivered, models.ProviderStatusSuccessful:
		if err := x.store.SetExchangeStatus(ctx, tx.TransferId, models.ExchangeSuccessful); err != nil {
			return err
		}
	default:
		// Provider accepted the payout but has not finished delivering it.
		// The inbound leg stays confirmed; the payout leg stays PENDING.
		zap.L().Info("Crypto payout accepted with non-terminal status",
			zap.String("transfer_id", tx.TransferId),
			zap.String("payout_status", transfer.Status))
	}

	if err := x.store.SetStatus(ctx, tx.TransferId, models.StatusSuccessful, metadata); err != nil {
		return err
	}

	observability.Settlements.WithLabelValues(string(tx.Direction), "success").Inc()
	zap.L().Info("Crypto settlement executed",
		zap.String("transfer_id", tx.TransferId),
		zap.String("payout_transfer_id", transfer.Id),
		zap.String("address", tx.Address))
	return nil
}

func (x *SettlementExecutor) failCrypto(ctx context.Context, tx *models.Transaction, cause error) error {
	observability.Settlements.WithLabelValues(string(tx.Direction), "failure").Inc()

	metadata := marshalMetadata(map[string]interface{}{"settlement_error": cause.Error()})
	if err := x.store.SetStatus(ctx, tx.TransferId, models.StatusFailed, metadata); err != nil {
		zap.L().Error("Failed to mark transaction FAILED",
			zap.String("transfer_id", tx.TransferId), zap.Error(err))
	}
	if err := x.store.SetExchangeStatus(ctx, tx.TransferId, models.ExchangeFailed); err != nil {
		zap.L().Error("Failed to mark exchange status FAILED",
			zap.String("transfer_id", tx.TransferId), zap.Error(err))
	}
	return cause
}

// settleCash pushes Naira to the user's linked bank account and records the
// float debit. A non-"00" rails code fails the payout leg only; the inbound
// confirmation stands.
func (x *SettlementExecutor) settleCash(ctx context.Context, tx *models.Transaction) error {
	bank, err := x.store.GetBankDetailByUserId(ctx, tx.UserId)
	if err != nil {
		return x.failCash(ctx, tx, fmt.Errorf("unable to resolve bank details: %w", err))
	}

	request := models.FundTransferRequest{
		Amount:              tx.ConvertedAmount.String(),
		BankCode:            bank.BankCode,
		BankName:            bank.BankName,
		CreditAccountName:   bank.AccountName,
		CreditAccountNumber: bank.AccountNumber,
		DebitAccountName:    x.debitAccountName,
		DebitAccountNumber:  x.debitAccountNumber,
		Narration:           fmt.Sprintf("%s exchange payout", tx.Asset),
		Reference:           tx.Id,
		SessionId:           uuid.New().String(),
	}

	response, err := x.rails.FundTransfer(ctx, request)
	if err != nil {
		return x.failCash(ctx, tx, fmt.Errorf("fund transfer failed: %w", err))
	}

	metadata := marshalMetadata(map[string]interface{}{
		"rails_response_code":    response.ResponseCode,
		"rails_response_message": response.ResponseMessage,
		"rails_reference":        response.Reference,
	})

	if !response.Ok() {
		zap.L().Warn("Rails payout rejected",
			zap.String("transfer_id", tx.TransferId),
			zap.String("response_code", response.ResponseCode))
		observability.Settlements.WithLabelValues(string(tx.Direction), "failure").Inc()

		if err := x.store.SetExchangeStatus(ctx, tx.TransferId, models.ExchangeFailed); err != nil {
			return err
		}
		return x.store.SetStatus(ctx, tx.TransferId, models.StatusSuccessful, metadata)
	}

	description := fmt.Sprintf("NGN payout for %s exchange %s", tx.Asset, tx.Id)
	if _, err := x.store.Debit(ctx, PlatformFloatOwner, description, tx.ConvertedAmount); err != nil {
		// Payout went out; the missing ledger entry is an accounting gap to
		// reconcile out of band, not a reason to fail the exchange.
		zap.L().Error("Failed to record float debit after successful payout",
			zap.String("transfer_id", tx.TransferId), zap.Error(err))
	}

	if err := x.store.SetExchangeStatus(ctx, tx.TransferId, models.ExchangeSuccessful); err != nil {
		return err
	}
	if err := x.store.SetStatus(ctx, tx.TransferId, models.StatusSuccessful, metadata); err != nil {
		return err
	}

	observability.Settlements.WithLabelValues(string(tx.Direction), "success").Inc()
	zap.L().Info("Cash settlement executed",
		zap.String("transfer_id", tx.TransferId),
		zap.String("amount_ngn", tx.ConvertedAmount.String()),
		zap.String("bank_code", bank.BankCode))
	return nil
}

func (x *SettlementExecutor) failCash(ctx context.Context, tx *models.Transaction, cause error) error {
	observability.Settlements.WithLabelValues(string(tx.Direction), "failure").Inc()

	metadata := marshalMetadata(map[string]interface{}{"settlement_error": cause.Error()})
	if err := x.store.SetExchangeStatus(ctx, tx.TransferId, models.ExchangeFailed); err != nil {
		zap.L().Error("Failed to mark exchange status FAILED",
			zap.String("transfer_id", tx.TransferId), zap.Error(err))
	}
	if err := x.store.SetStatus(ctx, tx.TransferId, models.StatusSuccessful, metadata); err != nil {
		zap.L().Error("Failed to persist settlement error",
			zap.String("transfer_id", tx.TransferId), zap.Error(err))
	}
	return cause
}

func marshalMetadata(fields map[string]interface{}) string {
	data, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(data)
}
