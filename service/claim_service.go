package service

import (
	"context"
	"log"
	"strings"

	"github.com/blurmagic/backend/model"
	"github.com/blurmagic/backend/repository"
)

// ClaimResult is what a claim attempt reports back to the client. Paid=false
// with a reason is a retry-worthy outcome, not a failure; Processed=false on
// a paid claim means the transfer had already been settled earlier.
type ClaimResult struct {
	Paid      bool
	Processed bool
	Reason    string
	TxID      string
}

// ClaimService orchestrates a claim: look up the expected recipient, run the
// chain-specific verifier, and hand a verified transfer to settlement.
type ClaimService struct {
	users      *repository.UserRepository
	settlement *SettlementService
	tron       TransferVerifier
	bsc        TransferVerifier

	merchantBSCAddress string
	priceUSDT          float64
	monthlyCredits     int64
	periodDays         int
}

func NewClaimService(
	users *repository.UserRepository,
	settlement *SettlementService,
	tron, bsc TransferVerifier,
	merchantBSCAddress string,
	priceUSDT float64,
	monthlyCredits int64,
	periodDays int,
) *ClaimService {
	return &ClaimService{
		users:              users,
		settlement:         settlement,
		tron:               tron,
		bsc:                bsc,
		merchantBSCAddress: merchantBSCAddress,
		priceUSDT:          priceUSDT,
		monthlyCredits:     monthlyCredits,
		periodDays:         periodDays,
	}
}

// ClaimTron checks the user's own deposit address for a matching transfer.
// txidHint is optional and only narrows the scan.
func (s *ClaimService) ClaimTron(ctx context.Context, uid, txidHint string) (*ClaimResult, error) {
	u, err := s.users.Ensure(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u.TronDepositAddress == nil || *u.TronDepositAddress == "" {
		return nil, ErrNoDepositAddress
	}
	address := *u.TronDepositAddress

	res, err := s.tron.VerifyTransfer(ctx, strings.TrimSpace(txidHint), address, s.priceUSDT)
	if err != nil {
		return nil, err
	}
	if !res.Found {
		if err := s.users.TouchTronChecked(ctx, uid); err != nil {
			log.Printf("touch tron checked uid=%s err: %v", uid, err)
		}
		return &ClaimResult{Paid: false, Reason: res.Reason}, nil
	}

	processed, err := s.settlement.Settle(ctx, SettleParams{
		UID:         uid,
		Chain:       model.ChainTRC20,
		TxID:        res.TxID,
		Transfer:    res,
		ToAddress:   address,
		PriceUSDT:   s.priceUSDT,
		CreditGrant: s.monthlyCredits,
		PeriodDays:  s.periodDays,
	})
	if err != nil {
		return nil, err
	}
	if err := s.users.TouchTronChecked(ctx, uid); err != nil {
		log.Printf("touch tron checked uid=%s err: %v", uid, err)
	}
	return &ClaimResult{Paid: true, Processed: processed, TxID: res.TxID}, nil
}

// ClaimBSC verifies a transfer to the fixed merchant address. The txid is
// mandatory: it names the receipt to inspect.
func (s *ClaimService) ClaimBSC(ctx context.Context, uid, txid string) (*ClaimResult, error) {
	txid = strings.TrimSpace(txid)
	if txid == "" {
		return nil, ErrMissingTxID
	}
	if _, err := s.users.Ensure(ctx, uid); err != nil {
		return nil, err
	}

	res, err := s.bsc.VerifyTransfer(ctx, txid, s.merchantBSCAddress, s.priceUSDT)
	if err != nil {
		return nil, err
	}
	if !res.Found {
		return &ClaimResult{Paid: false, Reason: res.Reason, TxID: txid}, nil
	}

	processed, err := s.settlement.Settle(ctx, SettleParams{
		UID:         uid,
		Chain:       model.ChainBEP20,
		TxID:        txid,
		Transfer:    res,
		ToAddress:   strings.ToLower(s.merchantBSCAddress),
		PriceUSDT:   s.priceUSDT,
		CreditGrant: s.monthlyCredits,
		PeriodDays:  s.periodDays,
	})
	if err != nil {
		return nil, err
	}
	return &ClaimResult{Paid: true, Processed: processed, TxID: txid}, nil
}
