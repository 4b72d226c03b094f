package models

// FundTransferRequest is the banking-rails payout payload.
type FundTransferRequest struct {
	Amount              string `json:"amount"`
	BankCode            string `json:"bankCode"`
	BankName            string `json:"bankName"`
	CreditAccountName   string `json:"creditAccountName"`
	CreditAccountNumber string `json:"creditAccountNumber"`
	DebitAccountName    string `json:"debitAccountName"`
	DebitAccountNumber  string `json:"debitAccountNumber"`
	Narration           string `json:"narration"`
	Reference           string `json:"reference"`
	SessionId           string `json:"sessionId"`
}

// RailsSuccessCode is the provider-specific code that indicates a successful
// payout. Any other code is a failure.
const RailsSuccessCode = "00"

// FundTransferResponse is the banking-rails payout result.
type FundTransferResponse struct {
	ResponseCode    string `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
	Reference       string `json:"reference"`
	SessionId       string `json:"sessionId"`
}

// Ok reports whether the rails provider accepted the payout.
func (r *FundTransferResponse) Ok() bool {
	return r.ResponseCode == RailsSuccessCode
}
