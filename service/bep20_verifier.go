package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Transfer event signature: Transfer(address,address,uint256)
var transferEventSig = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// minimal ERC20 ABI for Transfer decoding
const erc20ABIJSON = `[{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"from","type":"address"},{"indexed":true,"internalType":"address","name":"to","type":"address"},{"indexed":false,"internalType":"uint256","name":"value","type":"uint256"}],"name":"Transfer","type":"event"}]`

// ReceiptFetcher is the slice of ethclient.Client the verifier needs.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Bep20Verifier checks a claimed BSC transaction's receipt for a USDT
// Transfer to the expected recipient of the exact expected amount. The txid
// scopes the receipt lookup; matching itself is on recipient+amount only.
type Bep20Verifier struct {
	client   ReceiptFetcher
	contract common.Address
	erc      abi.ABI
}

func NewBep20Verifier(client ReceiptFetcher, contract string) (*Bep20Verifier, error) {
	erc, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, err
	}
	return &Bep20Verifier{
		client:   client,
		contract: common.HexToAddress(contract),
		erc:      erc,
	}, nil
}

func (v *Bep20Verifier) VerifyTransfer(ctx context.Context, txid, toAddress string, amountUSDT float64) (*VerifyResult, error) {
	if txid == "" {
		return nil, ErrMissingTxID
	}
	expected, err := UsdtToWei(amountUSDT)
	if err != nil {
		return nil, err
	}
	expectedTo := common.HexToAddress(toAddress)

	receipt, err := v.client.TransactionReceipt(ctx, common.HexToHash(txid))
	if errors.Is(err, ethereum.NotFound) {
		// not mined yet; the caller may retry later
		return &VerifyResult{Reason: ReasonPending, TxID: txid}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return &VerifyResult{Reason: ReasonFailed, TxID: txid}, nil
	}

	for _, lg := range receipt.Logs {
		if lg.Address != v.contract {
			continue
		}
		from, to, value, err := v.parseTransfer(lg)
		if err != nil {
			// one malformed log must not blind the scan to a later match
			continue
		}
		if to == expectedTo && value.Cmp(expected) == 0 {
			return &VerifyResult{
				Found:       true,
				TxID:        txid,
				From:        strings.ToLower(from.Hex()),
				Amount:      value.Text(10),
				BlockNumber: receipt.BlockNumber.Int64(),
			}, nil
		}
	}

	return &VerifyResult{Reason: ReasonNoMatch, TxID: txid}, nil
}

// parseTransfer tries to decode an ERC20 Transfer log: returns (from,to,value) or error
func (v *Bep20Verifier) parseTransfer(lg *types.Log) (common.Address, common.Address, *big.Int, error) {
	if len(lg.Topics) == 0 {
		return common.Address{}, common.Address{}, nil, fmt.Errorf("no topics")
	}
	if lg.Topics[0] != transferEventSig {
		return common.Address{}, common.Address{}, nil, fmt.Errorf("not transfer event")
	}
	// indexed: topics[1] = from, topics[2] = to; data = value
	if len(lg.Topics) < 3 {
		return common.Address{}, common.Address{}, nil, fmt.Errorf("topics len < 3")
	}
	from := common.BytesToAddress(lg.Topics[1].Bytes()[12:])
	to := common.BytesToAddress(lg.Topics[2].Bytes()[12:])
	var out struct{ Value *big.Int }
	if err := v.erc.UnpackIntoInterface(&out, "Transfer", lg.Data); err != nil {
		return common.Address{}, common.Address{}, nil, fmt.Errorf("abi unpack err: %w", err)
	}
	return from, to, out.Value, nil
}
