package service

import "context"

// Reasons a verifier reports when no matching transfer is found.
const (
	ReasonPending = "pending"
	ReasonFailed  = "failed"
	ReasonNoMatch = "no_match"
)

// VerifyResult describes the outcome of checking a claimed transfer against
// the expected recipient and amount. Amount is in the token's base units.
type VerifyResult struct {
	Found       bool
	Reason      string // pending | failed | no_match, when !Found
	TxID        string
	From        string
	Amount      string
	BlockNumber int64
}

// TransferVerifier decides whether a confirmed transfer of exactly amountUSDT
// to toAddress exists on its chain. txid is the claimed transaction: required
// and authoritative for receipt-model chains, an optional narrowing hint for
// account-model chains.
type TransferVerifier interface {
	VerifyTransfer(ctx context.Context, txid, toAddress string, amountUSDT float64) (*VerifyResult, error)
}
