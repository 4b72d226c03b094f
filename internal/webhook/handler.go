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

package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/observability"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/reconcile"
	apperrors "github.com/gooddeedstech/crypt2p-main-service-sub000/pkg/errors"

	"go.uber.org/zap"
)

// SignatureHeader carries the provider's base64 HMAC-SHA256 of the raw body.
const SignatureHeader = "X-Webhook-Signature"

// Webhook payloads are small; anything larger is hostile.
const maxBodyBytes = 1 << 20

// Handler ingests settlement provider push notifications. Signature
// verification happens against the raw body before any parsing or state
// change; an unverified payload never reaches the engine.
type Handler struct {
	engine *reconcile.Engine
	secret []byte
	strict bool
}

// NewHandler builds the webhook endpoint. With strict false, events for
// unknown transfer ids are acknowledged with 200 so the provider stops
// redelivering them; with strict true they get 404.
func NewHandler(engine *reconcile.Engine, webhookSecret string, strict bool) *Handler {
	return &Handler{
		engine: engine,
		secret: []byte(webhookSecret),
		strict: strict,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "unable to read request body",
		})
		return
	}

	if !Verify(h.secret, body, r.Header.Get(SignatureHeader)) {
		observability.WebhookRejected.Inc()
		zap.L().Warn("Rejected webhook with invalid signature",
			zap.String("remote_addr", r.RemoteAddr))
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"error":   apperrors.ErrInvalidSignature.Error(),
		})
		return
	}

	var event models.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "malformed webhook payload",
		})
		return
	}
	if event.Data.Id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "webhook payload missing transfer id",
		})
		return
	}

	zap.L().Info("Webhook event received",
		zap.String("event", event.Event),
		zap.String("transfer_id", event.Data.Id),
		zap.String("provider_status", event.Data.Status))

	outcome, err := h.engine.Observe(r.Context(), event.Data.Id, event.Data.Status, body, reconcile.SourceWebhook)
	if err != nil {
		if errors.Is(err, apperrors.ErrTransactionNotFound) {
			h.handleUnknownTransfer(w, event.Data.Id)
			return
		}
		zap.L().Error("Webhook reconciliation failed",
			zap.String("transfer_id", event.Data.Id),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "reconciliation failed",
		})
		return
	}

	response := map[string]interface{}{
		"success": true,
		"status":  string(outcome.Status),
	}
	if outcome.Message != "" {
		response["message"] = outcome.Message
	}
	writeJSON(w, http.StatusOK, response)
}

// handleUnknownTransfer answers events whose transfer id has no transaction.
// These occur for transfers created out of band against the same provider
// account.
func (h *Handler) handleUnknownTransfer(w http.ResponseWriter, transferId string) {
	zap.L().Info("Webhook for unknown transfer",
		zap.String("transfer_id", transferId),
		zap.Bool("strict", h.strict))

	if h.strict {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"error":   apperrors.ErrTransactionNotFound.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Transfer not found",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("Failed to encode webhook response", zap.Error(err))
	}
}
