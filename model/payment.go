package model

import (
	"strings"
	"time"
)

const (
	ChainTRC20 = "TRC20"
	ChainBEP20 = "BEP20"

	PaymentConfirmed = "confirmed"
)

// Payment is the append-only record of one settled on-chain transfer. Its
// primary key is the payment identity ("{chain}_{txid}"), so a duplicate
// claim fails the insert instead of crediting twice.
type Payment struct {
	ID              string    `gorm:"primaryKey;size:160" json:"id"`
	UID             string    `gorm:"size:128;index" json:"uid"`
	Chain           string    `gorm:"size:16" json:"chain"`
	Token           string    `gorm:"size:16" json:"token"`
	AmountUSDT      float64   `json:"amountUsdt"`
	AmountBaseUnits string    `gorm:"size:80" json:"amountBaseUnits"` // decimal string
	ToAddress       string    `gorm:"size:128" json:"toAddress"`
	FromAddress     string    `gorm:"size:128" json:"fromAddress"`
	TxID            string    `gorm:"size:128;index" json:"txid"`
	Status          string    `gorm:"size:16" json:"status"`
	BlockNumber     int64     `json:"blockNumber"`
	CreatedAt       time.Time `json:"createdAt"`
}

// PaymentID derives the idempotency key for a claimed transfer.
func PaymentID(chain, txid string) string {
	return strings.ToLower(chain) + "_" + txid
}

const (
	LedgerGrant = "grant"
	LedgerSpend = "spend"
)

// CreditLedgerEntry is the append-only audit trail of balance mutations. It
// is never read back for balance computation.
type CreditLedgerEntry struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	UID       string    `gorm:"size:128;index" json:"uid"`
	Type      string    `gorm:"size:8" json:"type"`
	Amount    int64     `json:"amount"`
	Reason    string    `gorm:"size:128" json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}
