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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/exchange"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/store"
	apperrors "github.com/gooddeedstech/crypt2p-main-service-sub000/pkg/errors"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// ExchangeService is the slice of the exchange orchestrator the API needs.
type ExchangeService interface {
	CreateTransaction(ctx context.Context, params exchange.CreateExchangeParams) (*models.Transaction, error)
}

// Handler serves the exchange HTTP API.
type Handler struct {
	store    store.Store
	exchange ExchangeService
}

func NewHandler(st store.Store, svc ExchangeService) *Handler {
	return &Handler{store: st, exchange: svc}
}

// Router assembles the full route table. The webhook endpoint is mounted as a
// prebuilt handler because its signature check must see the raw body.
func (h *Handler) Router(webhooks http.Handler) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/webhooks/settlement", webhooks).Methods(http.MethodPost)

	r.HandleFunc("/transactions", h.createTransaction).Methods(http.MethodPost)
	r.HandleFunc("/transactions/{transferId}", h.getTransaction).Methods(http.MethodGet)
	r.HandleFunc("/users/{userId}/transactions", h.listUserTransactions).Methods(http.MethodGet)
	r.HandleFunc("/ledger/{ownerId}/entries", h.listLedgerEntries).Methods(http.MethodGet)

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

type createTransactionRequest struct {
	UserId    string `json:"user_id"`
	Asset     string `json:"asset"`
	Network   string `json:"network"`
	Amount    string `json:"amount"`
	Direction string `json:"direction"`
	Address   string `json:"address,omitempty"`
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var request createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	amount, err := decimal.NewFromString(request.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a decimal string")
		return
	}

	tx, err := h.exchange.CreateTransaction(r.Context(), exchange.CreateExchangeParams{
		UserId:    request.UserId,
		Asset:     request.Asset,
		Network:   request.Network,
		Amount:    amount,
		Direction: models.Direction(request.Direction),
		Address:   request.Address,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":     true,
		"transaction": tx,
	})
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	transferId := mux.Vars(r)["transferId"]

	tx, err := h.store.GetTransactionByTransferId(r.Context(), transferId)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"transaction": tx,
	})
}

func (h *Handler) listUserTransactions(w http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["userId"]
	limit, offset := pagination(r)

	transactions, err := h.store.ListUserTransactions(r.Context(), userId, limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"transactions": transactions,
		"count":        len(transactions),
	})
}

func (h *Handler) listLedgerEntries(w http.ResponseWriter, r *http.Request) {
	ownerId := mux.Vars(r)["ownerId"]
	limit, offset := pagination(r)

	entries, err := h.store.ListLedgerEntries(r.Context(), ownerId, limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"entries": entries,
		"count":   len(entries),
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

// writeServiceError maps domain errors onto HTTP statuses. Upstream provider
// failures surface as 502 so callers can distinguish them from our own 500s.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrRateUnavailable):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrTransactionNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrBankDetailNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrDuplicateTransaction):
		writeError(w, http.StatusConflict, err.Error())
	default:
		if pe, ok := apperrors.AsProvider(err); ok {
			writeError(w, http.StatusBadGateway, pe.Error())
			return
		}
		zap.L().Error("Unhandled API error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pagination(r *http.Request) (int, int) {
	limit := defaultPageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("Failed to encode API response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
