package settlement

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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

const providerName = "settlement provider"

// Client is a thin request/response wrapper around the custodial settlement
// provider. No internal retries: failures propagate as *ProviderError.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg models.SettlementConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("settlement base URL cannot be empty")
	}

	httpClient, err := createCustomHttpClient()
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

func createCustomHttpClient() (*http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: tr,
		Timeout:   60 * time.Second,
	}, nil
}

// CreateQuote requests a quote for exchanging sourceAmount of sourceCurrency
// into targetCurrency, paid out per the descriptor.
func (c *Client) CreateQuote(ctx context.Context, sourceCurrency, targetCurrency string, sourceAmount decimal.Decimal, payOut *models.PayoutDescriptor) (*models.Quote, error) {
	zap.L().Info("Creating quote via settlement API",
		zap.String("source_currency", sourceCurrency),
		zap.String("target_currency", targetCurrency),
		zap.String("source_amount", sourceAmount.String()))

	request := models.CreateQuoteRequest{
		SourceCurrency: sourceCurrency,
		TargetCurrency: targetCurrency,
		SourceAmount:   sourceAmount.String(),
		PayOut:         payOut,
	}

	var quote models.Quote
	if err := c.doJSON(ctx, http.MethodPost, "/quotes", request, &quote); err != nil {
		return nil, err
	}

	zap.L().Info("Quote created", zap.String("quote_id", quote.Id))
	return &quote, nil
}

// CreateTransfer turns a quote into a transfer, the provider-side unit of
// work tracked by transfer id from here on.
func (c *Client) CreateTransfer(ctx context.Context, quoteId string) (*models.Transfer, error) {
	zap.L().Info("Creating transfer via settlement API", zap.String("quote_id", quoteId))

	var transfer models.Transfer
	if err := c.doJSON(ctx, http.MethodPost, "/transfers", models.CreateTransferRequest{QuoteId: quoteId}, &transfer); err != nil {
		return nil, err
	}

	zap.L().Info("Transfer created",
		zap.String("transfer_id", transfer.Id),
		zap.String("status", transfer.Status))
	return &transfer, nil
}

// GetTransferStatus fetches the current provider-reported status of a
// transfer. Raw carries the full response body for diagnostic metadata.
func (c *Client) GetTransferStatus(ctx context.Context, transferId string) (*models.TransferStatus, error) {
	body, err := c.do(ctx, http.MethodGet, "/transfers/"+transferId, nil)
	if err != nil {
		return nil, err
	}

	var transfer models.Transfer
	if err := json.Unmarshal(body, &transfer); err != nil {
		return nil, fmt.Errorf("unable to decode transfer status: %w", err)
	}

	return &models.TransferStatus{
		Id:     transfer.Id,
		Status: transfer.Status,
		Raw:    body,
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, request, response interface{}) error {
	body, err := c.do(ctx, method, path, request)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("unable to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, request interface{}) ([]byte, error) {
	var reqBody io.Reader
	if request != nil {
		payload, err := json.Marshal(request)
		if err != nil {
			return nil, fmt.Errorf("unable to encode %s request: %w", path, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("unable to build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("settlement request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read settlement response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		zap.L().Warn("Settlement API returned error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, &apperrors.ProviderError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	return body, nil
}
