package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/blurmagic/backend/trongrid"
)

const trc20ScanLimit = 50

// TransferLister is the slice of trongrid.Client the verifier needs.
type TransferLister interface {
	RecentTRC20TransfersTo(ctx context.Context, address, contract string, limit int) ([]trongrid.TRC20Transfer, error)
}

// Trc20Verifier scans the recent USDT transfers into a deposit address for
// one of the exact expected amount. TRON is account-model, so there is no
// single receipt to fetch: the txid, when supplied, only narrows the list and
// is never the sole match criterion.
type Trc20Verifier struct {
	client   TransferLister
	contract string
	limit    int
}

func NewTrc20Verifier(client TransferLister, contract string) *Trc20Verifier {
	return &Trc20Verifier{
		client:   client,
		contract: contract,
		limit:    trc20ScanLimit,
	}
}

func (v *Trc20Verifier) VerifyTransfer(ctx context.Context, txid, toAddress string, amountUSDT float64) (*VerifyResult, error) {
	expected := UsdtToSun(amountUSDT)

	transfers, err := v.client.RecentTRC20TransfersTo(ctx, toAddress, v.contract, v.limit)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}

	for _, t := range transfers {
		if txid != "" && t.TransactionID != txid {
			continue
		}
		if !strings.EqualFold(t.To, toAddress) {
			continue
		}
		if t.Value != expected {
			continue
		}
		return &VerifyResult{
			Found:  true,
			TxID:   t.TransactionID,
			From:   t.From,
			Amount: t.Value,
		}, nil
	}

	return &VerifyResult{Reason: ReasonNoMatch, TxID: txid}, nil
}
