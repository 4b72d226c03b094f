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
	"strings"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/observability"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/store"

	"go.uber.org/zap"
)

// Observation sources, used for logging and metrics only.
const (
	SourcePoll    = "poll"
	SourceWebhook = "webhook"
)

// Outcome is the engine's verdict on one provider status observation.
type Outcome struct {
	Status           models.TransactionStatus
	Terminal         bool
	AlreadyConfirmed bool
	Ignored          bool
	Message          string
}

// Executor performs the opposite leg of a confirmed exchange. It runs at most
// once per transaction, gated by the settlement claim.
type Executor interface {
	Settle(ctx context.Context, tx *models.Transaction) error
}

// Engine is the single state-transition function both the poller and the
// webhook handler feed. All transitions are conditional updates on the store;
// the read-compare-write race between the two observation paths collapses
// into whoever wins the row update.
type Engine struct {
	store    store.Store
	executor Executor
	registry *Registry
}

func NewEngine(st store.Store, executor Executor, registry *Registry) *Engine {
	return &Engine{
		store:    st,
		executor: executor,
		registry: registry,
	}
}

// Observe maps one provider-reported status onto the transaction identified
// by transferId. raw is the provider response body, persisted as diagnostic
// metadata on transitions and never consulted for control decisions.
func (e *Engine) Observe(ctx context.Context, transferId, providerStatus string, raw json.RawMessage, source string) (*Outcome, error) {
	tx, err := e.store.GetTransactionByTransferId(ctx, transferId)
	if err != nil {
		return nil, err
	}

	status := strings.ToLower(strings.TrimSpace(providerStatus))
	metadata := string(raw)

	zap.L().Debug("Reconciling provider status",
		zap.String("transfer_id", transferId),
		zap.String("provider_status", status),
		zap.String("current_status", string(tx.Status)),
		zap.String("source", source))

	var outcome *Outcome
	switch status {
	case models.ProviderStatusPending:
		outcome = &Outcome{Status: tx.Status, Terminal: tx.Status.Terminal()}

	case models.ProviderStatusProcessing:
		outcome, err = e.observeProcessing(ctx, tx, metadata)

	case models.ProviderStatusCancelled:
		outcome, err = e.observeCancelled(ctx, tx, metadata)

	case models.ProviderStatusFundsReceived,
		models.ProviderStatusCompleted,
		models.ProviderStatusDelivered,
		models.ProviderStatusSuccessful:
		outcome, err = e.observeFundsReceived(ctx, tx, metadata)

	default:
		zap.L().Info("Ignoring unrecognized provider status",
			zap.String("transfer_id", transferId),
			zap.String("provider_status", providerStatus),
			zap.String("source", source))
		outcome = &Outcome{
			Status:   tx.Status,
			Terminal: tx.Status.Terminal(),
			Ignored:  true,
			Message:  "unrecognized provider status: " + providerStatus,
		}
	}
	if err != nil {
		return nil, err
	}

	observability.Observations.WithLabelValues(source, outcomeLabel(outcome)).Inc()

	if outcome.Terminal && e.registry != nil {
		e.registry.Cancel(transferId)
	}

	return outcome, nil
}

func (e *Engine) observeProcessing(ctx context.Context, tx *models.Transaction, metadata string) (*Outcome, error) {
	moved, err := e.store.MarkProcessing(ctx, tx.TransferId, metadata)
	if err != nil {
		return nil, err
	}
	if moved {
		return &Outcome{Status: models.StatusProcessing}, nil
	}
	return e.currentOutcome(ctx, tx.TransferId)
}

func (e *Engine) observeCancelled(ctx context.Context, tx *models.Transaction, metadata string) (*Outcome, error) {
	moved, err := e.store.MarkCancelled(ctx, tx.TransferId, metadata)
	if err != nil {
		return nil, err
	}
	if moved {
		zap.L().Info("Transfer cancelled by provider", zap.String("transfer_id", tx.TransferId))
		return &Outcome{Status: models.StatusCancelled, Terminal: true}, nil
	}
	return e.currentOutcome(ctx, tx.TransferId)
}

// observeFundsReceived handles the first observation of inbound funds. The
// settlement claim is an atomic conditional update; only the winner invokes
// the executor, so a poll and a webhook racing on the same transfer cannot
// double-settle.
func (e *Engine) observeFundsReceived(ctx context.Context, tx *models.Transaction, metadata string) (*Outcome, error) {
	claimed, err := e.store.ClaimSettlement(ctx, tx.TransferId, metadata)
	if err != nil {
		return nil, err
	}

	if !claimed {
		current, err := e.store.GetTransactionByTransferId(ctx, tx.TransferId)
		if err != nil {
			return nil, err
		}
		if current.Status == models.StatusSuccessful {
			zap.L().Info("Transfer already confirmed, skipping settlement",
				zap.String("transfer_id", tx.TransferId))
			return &Outcome{
				Status:           models.StatusSuccessful,
				Terminal:         true,
				AlreadyConfirmed: true,
				Message:          "Already confirmed before",
			}, nil
		}
		// Lost the claim to a cancellation or a failed settlement.
		return &Outcome{Status: current.Status, Terminal: current.Status.Terminal()}, nil
	}

	zap.L().Info("Funds received, executing settlement",
		zap.String("transfer_id", tx.TransferId),
		zap.String("direction", string(tx.Direction)),
		zap.String("user_id", tx.UserId))

	confirmed, err := e.store.GetTransactionByTransferId(ctx, tx.TransferId)
	if err != nil {
		return nil, err
	}

	if settleErr := e.executor.Settle(ctx, confirmed); settleErr != nil {
		zap.L().Error("Settlement execution failed",
			zap.String("transfer_id", tx.TransferId),
			zap.Error(settleErr))
	}

	return e.currentOutcome(ctx, tx.TransferId)
}

func (e *Engine) currentOutcome(ctx context.Context, transferId string) (*Outcome, error) {
	current, err := e.store.GetTransactionByTransferId(ctx, transferId)
	if err != nil {
		return nil, err
	}
	return &Outcome{Status: current.Status, Terminal: current.Status.Terminal()}, nil
}

func outcomeLabel(o *Outcome) string {
	switch {
	case o.Ignored:
		return "ignored"
	case o.AlreadyConfirmed:
		return "already_confirmed"
	case o.Terminal:
		return "terminal"
	default:
		return "open"
	}
}
