package webhook

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/database"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/reconcile"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

type countingExecutor struct {
	calls int
}

func (c *countingExecutor) Settle(context.Context, *models.Transaction) error {
	c.calls++
	return nil
}

func setupHandlerTest(t *testing.T, strict bool) (*Handler, *database.Service, *countingExecutor, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	service, err := database.NewServiceFromDB(db)
	require.NoError(t, err)

	executor := &countingExecutor{}
	engine := reconcile.NewEngine(service, executor, nil)
	handler := NewHandler(engine, testSecret, strict)

	return handler, service, executor, func() { db.Close() }
}

func seedTransfer(t *testing.T, service *database.Service, transferId string) {
	t.Helper()

	_, err := service.CreateTransaction(context.Background(), store.CreateTransactionParams{
		Id:              "tx-" + transferId,
		UserId:          "user1",
		Direction:       models.DirectionCashToCrypto,
		Asset:           "USDT",
		Network:         "ethereum",
		Amount:          decimal.NewFromInt(10000),
		ConvertedAmount: decimal.RequireFromString("6.6335"),
		ExchangeRate:    decimal.RequireFromString("1507.5"),
		QuoteId:         "quote-" + transferId,
		TransferId:      transferId,
		Address:         "0xabc",
	})
	require.NoError(t, err)
}

func postWebhook(handler *Handler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/settlement", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func webhookBody(t *testing.T, transferId, status string) []byte {
	t.Helper()
	body, err := json.Marshal(models.WebhookEvent{
		Event: "transfer.status_changed",
		Data:  models.WebhookData{Id: transferId, Status: status},
	})
	require.NoError(t, err)
	return body
}

func TestWebhook_InvalidSignatureRejected(t *testing.T) {
	handler, service, executor, cleanup := setupHandlerTest(t, false)
	defer cleanup()

	seedTransfer(t, service, "t-sig")
	body := webhookBody(t, "t-sig", "funds_received")

	recorder := postWebhook(handler, body, Sign([]byte("wrong-secret"), body))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, 0, executor.calls)

	// Missing header fails the same way.
	recorder = postWebhook(handler, body, "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	tx, err := service.GetTransactionByTransferId(context.Background(), "t-sig")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, tx.Status, "rejected webhook must not change state")
}

func TestWebhook_TamperedBodyRejected(t *testing.T) {
	handler, service, _, cleanup := setupHandlerTest(t, false)
	defer cleanup()

	seedTransfer(t, service, "t-tamper")
	body := webhookBody(t, "t-tamper", "pending")
	signature := Sign([]byte(testSecret), body)

	tampered := webhookBody(t, "t-tamper", "funds_received")
	recorder := postWebhook(handler, tampered, signature)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestWebhook_ValidEventSettles(t *testing.T) {
	handler, service, executor, cleanup := setupHandlerTest(t, false)
	defer cleanup()

	seedTransfer(t, service, "t-ok")
	body := webhookBody(t, "t-ok", "funds_received")

	recorder := postWebhook(handler, body, Sign([]byte(testSecret), body))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 1, executor.calls)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])
	assert.Equal(t, string(models.StatusSuccessful), response["status"])
}

func TestWebhook_AlreadyConfirmed(t *testing.T) {
	handler, service, executor, cleanup := setupHandlerTest(t, false)
	defer cleanup()

	seedTransfer(t, service, "t-dup")
	body := webhookBody(t, "t-dup", "funds_received")
	signature := Sign([]byte(testSecret), body)

	recorder := postWebhook(handler, body, signature)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = postWebhook(handler, body, signature)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 1, executor.calls, "second delivery must not settle again")

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Already confirmed before", response["message"])
}

func TestWebhook_UnknownTransferLenient(t *testing.T) {
	handler, _, _, cleanup := setupHandlerTest(t, false)
	defer cleanup()

	body := webhookBody(t, "no-such-transfer", "funds_received")
	recorder := postWebhook(handler, body, Sign([]byte(testSecret), body))

	assert.Equal(t, http.StatusOK, recorder.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Transfer not found", response["message"])
}

func TestWebhook_UnknownTransferStrict(t *testing.T) {
	handler, _, _, cleanup := setupHandlerTest(t, true)
	defer cleanup()

	body := webhookBody(t, "no-such-transfer", "funds_received")
	recorder := postWebhook(handler, body, Sign([]byte(testSecret), body))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestWebhook_MalformedPayload(t *testing.T) {
	handler, _, _, cleanup := setupHandlerTest(t, false)
	defer cleanup()

	body := []byte(`{"event": "transfer.status_changed", "data":`)
	recorder := postWebhook(handler, body, Sign([]byte(testSecret), body))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	body = webhookBody(t, "", "funds_received")
	recorder = postWebhook(handler, body, Sign([]byte(testSecret), body))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestVerify(t *testing.T) {
	secret := []byte("secret")
	body := []byte(`{"data":{"id":"t1"}}`)

	assert.True(t, Verify(secret, body, Sign(secret, body)))
	assert.False(t, Verify(secret, body, Sign([]byte("other"), body)))
	assert.False(t, Verify(secret, body, "not base64!!"))
	assert.False(t, Verify(secret, body, ""))
}
