package models

import "encoding/json"

// Settlement provider status vocabulary as reported by polls and webhooks.
const (
	ProviderStatusPending       = "pending"
	ProviderStatusProcessing    = "processing"
	ProviderStatusFundsReceived = "funds_received"
	ProviderStatusCompleted     = "completed"
	ProviderStatusDelivered     = "delivered"
	ProviderStatusSuccessful    = "successful"
	ProviderStatusCancelled     = "cancelled"
	ProviderStatusFailed        = "failed"
)

// PayoutDescriptor names the destination of a quote's outbound leg: either a
// crypto address on a network, or a Naira bank account.
type PayoutDescriptor struct {
	Type          string `json:"type"` // "crypto" or "bank_account"
	Address       string `json:"address,omitempty"`
	Network       string `json:"network,omitempty"`
	BankCode      string `json:"bank_code,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	AccountName   string `json:"account_name,omitempty"`
}

// CreateQuoteRequest is the provider's POST /quotes payload.
type CreateQuoteRequest struct {
	SourceCurrency string            `json:"source_currency"`
	TargetCurrency string            `json:"target_currency"`
	SourceAmount   string            `json:"source_amount"`
	PayOut         *PayoutDescriptor `json:"pay_out,omitempty"`
}

// Quote is the provider's POST /quotes response.
type Quote struct {
	Id string `json:"id"`
}

// CreateTransferRequest is the provider's POST /transfers payload.
type CreateTransferRequest struct {
	QuoteId string `json:"quote_id"`
}

// TransferPayIn describes where inbound funds must be sent and until when.
type TransferPayIn struct {
	Address   string `json:"address"`
	Network   string `json:"network"`
	ExpiresAt string `json:"expires_at"`
}

// Transfer is the provider's transfer resource (POST /transfers and
// GET /transfers/{id}).
type Transfer struct {
	Id     string         `json:"id"`
	Status string         `json:"status"`
	PayIn  *TransferPayIn `json:"pay_in,omitempty"`
}

// TransferStatus is a status observation from GET /transfers/{id}. Raw holds
// the full provider response for diagnostic metadata; it is never used for
// control decisions.
type TransferStatus struct {
	Id     string
	Status string
	Raw    json.RawMessage
}

// WebhookEvent is the inbound push payload from the settlement provider.
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  WebhookData     `json:"data"`
	Raw   json.RawMessage `json:"-"`
}

// WebhookData carries the provider-assigned transfer id and status. The id is
// the only field trusted for lookups.
type WebhookData struct {
	Id     string `json:"id"`
	Status string `json:"status"`
}
