package settlement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"
	apperrors "github.com/gooddeedstech/crypt2p-main-service-sub000/pkg/errors"

	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	client, err := NewClient(models.SettlementConfig{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, server
}

func TestCreateQuote(t *testing.T) {
	var gotRequest models.CreateQuoteRequest
	var gotAuth string

	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/quotes" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(models.Quote{Id: "quote-42"})
	})
	defer server.Close()

	payOut := &models.PayoutDescriptor{Type: "crypto", Address: "0xabc", Network: "ethereum"}
	quote, err := client.CreateQuote(context.Background(), "NGN", "USDT", decimal.NewFromInt(10000), payOut)
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	if quote.Id != "quote-42" {
		t.Errorf("Expected quote-42, got %s", quote.Id)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
	if gotRequest.SourceCurrency != "NGN" || gotRequest.TargetCurrency != "USDT" {
		t.Errorf("Unexpected currencies: %s -> %s", gotRequest.SourceCurrency, gotRequest.TargetCurrency)
	}
	if gotRequest.SourceAmount != "10000" {
		t.Errorf("Expected amount 10000, got %s", gotRequest.SourceAmount)
	}
	if gotRequest.PayOut == nil || gotRequest.PayOut.Address != "0xabc" {
		t.Errorf("Expected payout descriptor, got %+v", gotRequest.PayOut)
	}
}

func TestCreateTransfer(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transfers" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var req models.CreateTransferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.QuoteId != "quote-42" {
			t.Errorf("Expected quote-42, got %s", req.QuoteId)
		}
		json.NewEncoder(w).Encode(models.Transfer{
			Id:     "transfer-42",
			Status: "pending",
			PayIn:  &models.TransferPayIn{Address: "deposit-addr", Network: "ethereum", ExpiresAt: "2026-09-01T12:00:00Z"},
		})
	})
	defer server.Close()

	transfer, err := client.CreateTransfer(context.Background(), "quote-42")
	if err != nil {
		t.Fatalf("CreateTransfer failed: %v", err)
	}
	if transfer.Id != "transfer-42" || transfer.PayIn == nil {
		t.Errorf("Unexpected transfer: %+v", transfer)
	}
}

func TestGetTransferStatus(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transfers/transfer-42" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(models.Transfer{Id: "transfer-42", Status: "funds_received"})
	})
	defer server.Close()

	status, err := client.GetTransferStatus(context.Background(), "transfer-42")
	if err != nil {
		t.Fatalf("GetTransferStatus failed: %v", err)
	}
	if status.Status != "funds_received" {
		t.Errorf("Expected funds_received, got %s", status.Status)
	}
	if len(status.Raw) == 0 {
		t.Error("Expected raw body to be captured")
	}
}

func TestClient_UpstreamError(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("maintenance window"))
	})
	defer server.Close()

	_, err := client.GetTransferStatus(context.Background(), "transfer-42")
	pe, ok := apperrors.AsProvider(err)
	if !ok {
		t.Fatalf("Expected provider error, got: %v", err)
	}
	if pe.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", pe.StatusCode)
	}
	if pe.Message != "maintenance window" {
		t.Errorf("Expected upstream message, got %q", pe.Message)
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient(models.SettlementConfig{}); err == nil {
		t.Error("Expected error for empty base URL")
	}
}
