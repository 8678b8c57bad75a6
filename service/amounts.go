package service

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

const (
	bep20Decimals = 18 // USDT on BSC
	trc20Decimals = 6  // USDT on TRON
)

// UsdtToWei converts a USDT amount to BEP20 base units (18 decimals). The
// float is first rendered to its shortest decimal form and then scaled with
// integer arithmetic, so the result is exact for any representable price.
func UsdtToWei(amount float64) (*big.Int, error) {
	return scaleDecimal(strconv.FormatFloat(amount, 'f', -1, 64), bep20Decimals)
}

// UsdtToSun converts a USDT amount to TRC20 base units (6 decimals) as a
// decimal string. Rounding of the scaled float is deterministic and matches
// whole-cent inputs exactly.
func UsdtToSun(amount float64) string {
	return strconv.FormatInt(int64(math.Round(amount*1e6)), 10)
}

// scaleDecimal shifts a non-negative decimal string left by decimals places.
func scaleDecimal(s string, decimals int) (*big.Int, error) {
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", s, decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))
	n, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", s)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	return n, nil
}
