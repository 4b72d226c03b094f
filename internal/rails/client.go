package rails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"
	apperrors "github.com/gooddeedstech/crypt2p-main-service-sub000/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

const providerName = "banking rails"

// Client executes Naira payouts against the banking-rails provider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg models.RailsConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rails base URL cannot be empty")
	}

	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConnsPerHost: 5,
	}
	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Transport: tr,
			Timeout:   60 * time.Second,
		},
	}, nil
}

// FundTransfer pushes Naira to a bank account. A non-"00" response code is a
// failed payout, not a transport error; callers must check Ok().
func (c *Client) FundTransfer(ctx context.Context, request models.FundTransferRequest) (*models.FundTransferResponse, error) {
	zap.L().Info("Executing fund transfer via banking rails",
		zap.String("amount", request.Amount),
		zap.String("bank_code", request.BankCode),
		zap.String("credit_account", request.CreditAccountNumber),
		zap.String("reference", request.Reference))

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("unable to encode fund transfer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transfers", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("unable to build fund transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fund transfer request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read fund transfer response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		zap.L().Warn("Banking rails returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, &apperrors.ProviderError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var result models.FundTransferResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unable to decode fund transfer response: %w", err)
	}

	zap.L().Info("Fund transfer completed",
		zap.String("response_code", result.ResponseCode),
		zap.String("reference", result.Reference))

	return &result, nil
}
