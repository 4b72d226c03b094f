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

package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/reconcile"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/store"
	apperrors "github.com/gooddeedstech/crypt2p-main-service-sub000/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var oneHundred = decimal.NewFromInt(100)

// Provider is the slice of the settlement client the orchestrator needs.
type Provider interface {
	CreateQuote(ctx context.Context, sourceCurrency, targetCurrency string, sourceAmount decimal.Decimal, payOut *models.PayoutDescriptor) (*models.Quote, error)
	CreateTransfer(ctx context.Context, quoteId string) (*models.Transfer, error)
}

// CreateExchangeParams is a request to open a new exchange.
type CreateExchangeParams struct {
	UserId    string
	Asset     string
	Network   string
	Amount    decimal.Decimal
	Direction models.Direction
	Address   string // crypto destination, CASH_TO_CRYPTO only
}

// Service orchestrates transaction creation: rate, quote, transfer, PENDING
// record, poller. Exactly one transaction row and one poller per successful
// call; if transfer creation fails after the quote, nothing is persisted.
type Service struct {
	store    store.Store
	provider Provider
	rates    RateSource
	registry *reconcile.Registry
	engine   *reconcile.Engine
	margin   decimal.Decimal // percent added to the base rate

	// Pollers outlive the request that created them; their lifetime is the
	// process.
	baseCtx context.Context
}

func NewService(baseCtx context.Context, st store.Store, provider Provider, rates RateSource, registry *reconcile.Registry, engine *reconcile.Engine, marginPercent decimal.Decimal) *Service {
	return &Service{
		store:    st,
		provider: provider,
		rates:    rates,
		registry: registry,
		engine:   engine,
		margin:   marginPercent,
		baseCtx:  baseCtx,
	}
}

// CreateTransaction opens a new exchange request and starts its
// reconciliation poller.
func (s *Service) CreateTransaction(ctx context.Context, params CreateExchangeParams) (*models.Transaction, error) {
	if err := s.validate(params); err != nil {
		return nil, err
	}

	var bank *models.BankDetail
	var bankId string
	if params.Direction == models.DirectionCryptoToCash {
		var err error
		bank, err = s.store.GetBankDetailByUserId(ctx, params.UserId)
		if err != nil {
			return nil, err
		}
		bankId = bank.Id
	}

	rate, err := s.rates.RateNGN(params.Asset)
	if err != nil {
		return nil, err
	}

	effectiveRate, convertedAmount := s.convert(params.Direction, params.Amount, rate)

	quote, transfer, err := s.createQuoteAndTransfer(ctx, params, bank)
	if err != nil {
		return nil, err
	}

	var expiresAt time.Time
	metadata := ""
	if transfer.PayIn != nil {
		if parsed, parseErr := time.Parse(time.RFC3339, transfer.PayIn.ExpiresAt); parseErr == nil {
			expiresAt = parsed
		}
		if data, marshalErr := json.Marshal(transfer); marshalErr == nil {
			metadata = string(data)
		}
	}

	tx, err := s.store.CreateTransaction(ctx, store.CreateTransactionParams{
		Id:              uuid.New().String(),
		UserId:          params.UserId,
		Direction:       params.Direction,
		Asset:           params.Asset,
		Network:         params.Network,
		Amount:          params.Amount,
		ConvertedAmount: convertedAmount,
		ExchangeRate:    effectiveRate,
		QuoteId:         quote.Id,
		TransferId:      transfer.Id,
		Address:         params.Address,
		BankId:          bankId,
		Metadata:        metadata,
		ExpiresAt:       expiresAt,
	})
	if err != nil {
		return nil, err
	}

	s.registry.Start(s.baseCtx, s.engine, transfer.Id)

	zap.L().Info("Exchange transaction created",
		zap.String("id", tx.Id),
		zap.String("user_id", tx.UserId),
		zap.String("direction", string(tx.Direction)),
		zap.String("asset", tx.Asset),
		zap.String("amount", tx.Amount.String()),
		zap.String("converted_amount", tx.ConvertedAmount.String()),
		zap.String("transfer_id", tx.TransferId))

	return tx, nil
}

func (s *Service) validate(params CreateExchangeParams) error {
	switch {
	case params.UserId == "":
		return fmt.Errorf("%w: userId is required", apperrors.ErrValidation)
	case params.Asset == "":
		return fmt.Errorf("%w: asset is required", apperrors.ErrValidation)
	case params.Amount.LessThanOrEqual(decimal.Zero):
		return fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	case params.Direction != models.DirectionCashToCrypto && params.Direction != models.DirectionCryptoToCash:
		return fmt.Errorf("%w: unknown direction %q", apperrors.ErrValidation, params.Direction)
	case params.Direction == models.DirectionCashToCrypto && params.Address == "":
		return fmt.Errorf("%w: destination address is required", apperrors.ErrValidation)
	}
	return nil
}

// convert computes the effective rate (margin included) and the target-side
// amount. The margin always favors the platform: buyers of crypto pay a
// marked-up NGN rate, sellers receive a marked-down one.
func (s *Service) convert(direction models.Direction, amount, rate decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	marginFactor := s.margin.Div(oneHundred)

	if direction == models.DirectionCashToCrypto {
		effectiveRate := rate.Mul(decimal.NewFromInt(1).Add(marginFactor))
		return effectiveRate, amount.Div(effectiveRate)
	}

	effectiveRate := rate.Mul(decimal.NewFromInt(1).Sub(marginFactor))
	return effectiveRate, amount.Mul(effectiveRate)
}

func (s *Service) createQuoteAndTransfer(ctx context.Context, params CreateExchangeParams, bank *models.BankDetail) (*models.Quote, *models.Transfer, error) {
	var quote *models.Quote
	var err error

	if params.Direction == models.DirectionCashToCrypto {
		payOut := &models.PayoutDescriptor{
			Type:    "crypto",
			Address: params.Address,
			Network: params.Network,
		}
		quote, err = s.provider.CreateQuote(ctx, "NGN", params.Asset, params.Amount, payOut)
	} else {
		payOut := &models.PayoutDescriptor{
			Type:          "bank_account",
			BankCode:      bank.BankCode,
			AccountNumber: bank.AccountNumber,
			AccountName:   bank.AccountName,
		}
		quote, err = s.provider.CreateQuote(ctx, params.Asset, "NGN", params.Amount, payOut)
	}
	if err != nil {
		return nil, nil, err
	}

	transfer, err := s.provider.CreateTransfer(ctx, quote.Id)
	if err != nil {
		// Quote is abandoned; no transaction row exists for it.
		return nil, nil, err
	}

	return quote, transfer, nil
}
