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
	"sync"
	"time"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/observability"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/store"

	"go.uber.org/zap"
)

// StatusSource is the slice of the settlement client the poller needs.
type StatusSource interface {
	GetTransferStatus(ctx context.Context, transferId string) (*models.TransferStatus, error)
}

// Registry tracks one cancellable poller per in-flight transfer, keyed by
// transfer id. The engine cancels a poller when a webhook observation reaches
// a terminal state first.
type Registry struct {
	mu      sync.Mutex
	pollers map[string]*Poller

	source   StatusSource
	store    store.Store
	interval time.Duration
	deadline time.Duration
}

func NewRegistry(source StatusSource, st store.Store, cfg models.ReconcileConfig) *Registry {
	return &Registry{
		pollers:  make(map[string]*Poller),
		source:   source,
		store:    st,
		interval: cfg.PollInterval,
		deadline: cfg.PollDeadline,
	}
}

// Start launches a poller for the transfer unless one is already running.
func (r *Registry) Start(ctx context.Context, engine *Engine, transferId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pollers[transferId]; exists {
		zap.L().Debug("Poller already running", zap.String("transfer_id", transferId))
		return
	}

	p := &Poller{
		transferId: transferId,
		source:     r.source,
		store:      r.store,
		engine:     engine,
		interval:   r.interval,
		deadline:   r.deadline,
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}
	r.pollers[transferId] = p

	observability.ActivePollers.Inc()
	go func() {
		defer r.remove(transferId)
		p.run(ctx)
	}()

	zap.L().Info("Reconciliation poller started",
		zap.String("transfer_id", transferId),
		zap.Duration("interval", r.interval),
		zap.Duration("deadline", r.deadline))
}

// Cancel signals the transfer's poller to stop without waiting for it. Safe
// to call from the poller's own observation path and for unknown transfers.
func (r *Registry) Cancel(transferId string) {
	r.mu.Lock()
	p, exists := r.pollers[transferId]
	r.mu.Unlock()

	if exists {
		p.signalStop()
	}
}

// StopAll stops every poller and waits for them to exit.
func (r *Registry) StopAll() {
	r.mu.Lock()
	pollers := make([]*Poller, 0, len(r.pollers))
	for _, p := range r.pollers {
		pollers = append(pollers, p)
	}
	r.mu.Unlock()

	for _, p := range pollers {
		p.signalStop()
	}
	for _, p := range pollers {
		<-p.doneChan
	}
}

// Count returns the number of running pollers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pollers)
}

func (r *Registry) remove(transferId string) {
	r.mu.Lock()
	delete(r.pollers, transferId)
	r.mu.Unlock()
	observability.ActivePollers.Dec()
}

// Poller repeatedly reads one transfer's provider status and feeds it into
// the reconciliation engine. It always stops itself: on a terminal outcome,
// on cancellation, or at its deadline.
type Poller struct {
	transferId string
	source     StatusSource
	store      store.Store
	engine     *Engine
	interval   time.Duration
	deadline   time.Duration

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

func (p *Poller) signalStop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.doneChan)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(p.deadline)
	defer deadline.Stop()

	if p.tick(ctx) {
		return
	}

	for {
		select {
		case <-ticker.C:
			if p.tick(ctx) {
				return
			}
		case <-deadline.C:
			p.expire(ctx)
			return
		case <-p.stopChan:
			zap.L().Debug("Poller cancelled", zap.String("transfer_id", p.transferId))
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick performs one status lookup and reports whether the poller should stop.
// Provider errors never stop the task; the next tick retries.
func (p *Poller) tick(ctx context.Context) bool {
	status, err := p.source.GetTransferStatus(ctx, p.transferId)
	if err != nil {
		zap.L().Warn("Transfer status lookup failed, will retry next tick",
			zap.String("transfer_id", p.transferId),
			zap.Error(err))
		return false
	}

	outcome, err := p.engine.Observe(ctx, p.transferId, status.Status, status.Raw, SourcePoll)
	if err != nil {
		zap.L().Error("Failed to reconcile polled status",
			zap.String("transfer_id", p.transferId),
			zap.Error(err))
		return false
	}

	if outcome.Terminal || outcome.AlreadyConfirmed {
		zap.L().Info("Poller reached terminal outcome",
			zap.String("transfer_id", p.transferId),
			zap.String("status", string(outcome.Status)))
		return true
	}
	return false
}

// expire force-cancels a transaction that never left PENDING within the
// deadline. A transaction that progressed past PENDING is left alone.
func (p *Poller) expire(ctx context.Context) {
	cancelled, err := p.store.CancelIfPending(ctx, p.transferId, `{"auto_cancelled":true}`)
	if err != nil {
		zap.L().Error("Failed to auto-cancel expired transfer",
			zap.String("transfer_id", p.transferId),
			zap.Error(err))
		return
	}

	if cancelled {
		zap.L().Info("Transfer auto-cancelled after poll deadline",
			zap.String("transfer_id", p.transferId),
			zap.Duration("deadline", p.deadline))
	} else {
		zap.L().Info("Poll deadline reached, transfer no longer pending",
			zap.String("transfer_id", p.transferId))
	}
}
