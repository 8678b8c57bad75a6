package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// User holds the per-uid entitlement state. Balances are integer credits;
// period timestamps and the TRON deposit columns are nullable.
type User struct {
	UID                     string     `gorm:"primaryKey;size:128" json:"uid"`
	Plan                    string     `gorm:"size:16;default:free" json:"plan"`
	CreditsBalance          int64      `json:"creditsBalance"`
	MonthlyCreditsAllowance int64      `json:"monthlyCreditsAllowance"`
	SubscriptionStatus      *string    `gorm:"size:32" json:"subscriptionStatus"`
	CurrentPeriodEnd        *time.Time `json:"currentPeriodEnd"`
	LastGrantedPeriodEnd    *time.Time `json:"lastGrantedPeriodEnd"`
	DailyCreditsUsed        int64      `json:"dailyCreditsUsed"`
	LastDailyResetDate      string     `gorm:"size:10" json:"lastDailyResetDate"` // UTC YYYY-MM-DD

	// TRON deposit account: address and encrypted key are written together
	// and never regenerated once set.
	TronDepositAddress   *string    `gorm:"size:64" json:"tronDepositAddress"`
	TronDepositPrivEnc   *string    `gorm:"type:text" json:"-"`
	TronDepositCreatedAt *time.Time `json:"tronDepositCreatedAt"`
	TronLastCheckedAt    *time.Time `json:"tronLastCheckedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DateKey formats an instant as the UTC calendar date used for the lazy
// daily-quota reset.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// helper: create tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Payment{}, &CreditLedgerEntry{})
}
