package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/database"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/exchange"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/store"
	apperrors "github.com/gooddeedstech/crypt2p-main-service-sub000/pkg/errors"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExchange struct {
	tx  *models.Transaction
	err error
}

func (f *fakeExchange) CreateTransaction(_ context.Context, _ exchange.CreateExchangeParams) (*models.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tx, nil
}

func setupAPITest(t *testing.T, svc ExchangeService) (*database.Service, http.Handler, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	dbService, err := database.NewServiceFromDB(db)
	require.NoError(t, err)

	handler := NewHandler(dbService, svc)
	router := handler.Router(http.NotFoundHandler())

	return dbService, router, func() { db.Close() }
}

func TestCreateTransactionEndpoint(t *testing.T) {
	fake := &fakeExchange{tx: &models.Transaction{
		Id:         "tx-1",
		TransferId: "transfer-1",
		Status:     models.StatusPending,
	}}
	_, router, cleanup := setupAPITest(t, fake)
	defer cleanup()

	body := `{"user_id":"user1","asset":"USDT","network":"ethereum","amount":"10000","direction":"CASH_TO_CRYPTO","address":"0xabc"}`
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, recorder.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])
}

func TestCreateTransactionEndpoint_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", apperrors.ErrValidation, http.StatusBadRequest},
		{"rate unavailable", apperrors.ErrRateUnavailable, http.StatusBadRequest},
		{"no bank detail", apperrors.ErrBankDetailNotFound, http.StatusNotFound},
		{"duplicate", apperrors.ErrDuplicateTransaction, http.StatusConflict},
		{"provider down", &apperrors.ProviderError{Provider: "settlement provider", StatusCode: 503, Message: "down"}, http.StatusBadGateway},
	}

	body := `{"user_id":"user1","asset":"USDT","amount":"100","direction":"CASH_TO_CRYPTO","address":"0xabc"}`
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, router, cleanup := setupAPITest(t, &fakeExchange{err: tc.err})
			defer cleanup()

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body)))
			assert.Equal(t, tc.code, recorder.Code)
		})
	}
}

func TestCreateTransactionEndpoint_BadAmount(t *testing.T) {
	_, router, cleanup := setupAPITest(t, &fakeExchange{})
	defer cleanup()

	body := `{"user_id":"user1","asset":"USDT","amount":"ten thousand","direction":"CASH_TO_CRYPTO"}`
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetTransactionEndpoint(t *testing.T) {
	dbService, router, cleanup := setupAPITest(t, &fakeExchange{})
	defer cleanup()

	_, err := dbService.CreateTransaction(context.Background(), store.CreateTransactionParams{
		Id:              "tx-1",
		UserId:          "user1",
		Direction:       models.DirectionCashToCrypto,
		Asset:           "USDT",
		Network:         "ethereum",
		Amount:          decimal.NewFromInt(10000),
		ConvertedAmount: decimal.RequireFromString("6.6335"),
		ExchangeRate:    decimal.RequireFromString("1507.5"),
		QuoteId:         "quote-1",
		TransferId:      "transfer-1",
	})
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/transactions/transfer-1", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/transactions/missing", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestLedgerEndpoint(t *testing.T) {
	dbService, router, cleanup := setupAPITest(t, &fakeExchange{})
	defer cleanup()

	_, err := dbService.Credit(context.Background(), "platform-float", "funding", decimal.NewFromInt(1000))
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ledger/platform-float/entries", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		Success bool                 `json:"success"`
		Count   int                  `json:"count"`
		Entries []models.LedgerEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, 1, response.Count)
}

func TestHealthEndpoint(t *testing.T) {
	_, router, cleanup := setupAPITest(t, &fakeExchange{})
	defer cleanup()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
}
