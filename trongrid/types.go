package trongrid

// TRC20Transfer is one entry of the account trc20 transactions endpoint.
// Value is the raw base-unit amount as a decimal string.
type TRC20Transfer struct {
	TransactionID  string    `json:"transaction_id"`
	TokenInfo      TokenInfo `json:"token_info"`
	BlockTimestamp int64     `json:"block_timestamp"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	Type           string    `json:"type"`
	Value          string    `json:"value"`
}

// TokenInfo contains TRC20 token metadata.
type TokenInfo struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
	Name     string `json:"name"`
}

// TransferListResponse is the envelope of the trc20 transactions endpoint.
type TransferListResponse struct {
	Data    []TRC20Transfer `json:"data"`
	Success bool            `json:"success"`
}
