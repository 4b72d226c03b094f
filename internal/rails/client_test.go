package rails

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"
	apperrors "github.com/gooddeedstech/crypt2p-main-service-sub000/pkg/errors"
)

func TestFundTransfer(t *testing.T) {
	var gotRequest models.FundTransferRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transfers" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(models.FundTransferResponse{
			ResponseCode: models.RailsSuccessCode,
			Reference:    gotRequest.Reference,
		})
	}))
	defer server.Close()

	client, err := NewClient(models.RailsConfig{BaseURL: server.URL, APIKey: "rails-key"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	response, err := client.FundTransfer(context.Background(), models.FundTransferRequest{
		Amount:              "2985",
		BankCode:            "058",
		CreditAccountNumber: "0123456789",
		Reference:           "tx-1",
	})
	if err != nil {
		t.Fatalf("FundTransfer failed: %v", err)
	}

	if !response.Ok() {
		t.Errorf("Expected successful response, got code %s", response.ResponseCode)
	}
	if gotRequest.Amount != "2985" {
		t.Errorf("Expected amount 2985, got %s", gotRequest.Amount)
	}
}

func TestFundTransfer_NonSuccessCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.FundTransferResponse{
			ResponseCode:    "51",
			ResponseMessage: "insufficient funds",
		})
	}))
	defer server.Close()

	client, err := NewClient(models.RailsConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	// A rejected payout is still a transport-level success.
	response, err := client.FundTransfer(context.Background(), models.FundTransferRequest{Amount: "100"})
	if err != nil {
		t.Fatalf("FundTransfer failed: %v", err)
	}
	if response.Ok() {
		t.Error("Expected Ok() to be false for code 51")
	}
}

func TestFundTransfer_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	client, err := NewClient(models.RailsConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.FundTransfer(context.Background(), models.FundTransferRequest{Amount: "100"})
	pe, ok := apperrors.AsProvider(err)
	if !ok {
		t.Fatalf("Expected provider error, got: %v", err)
	}
	if pe.StatusCode != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", pe.StatusCode)
	}
}
