package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/blurmagic/backend/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// errAlreadySettled aborts the settlement transaction when the payment
// identity turns out to exist. Mapped to processed=false, never surfaced.
var errAlreadySettled = errors.New("payment already settled")

// SettleParams carries one verified transfer into settlement.
type SettleParams struct {
	UID       string
	Chain     string // model.ChainTRC20 / model.ChainBEP20
	TxID      string
	Transfer  *VerifyResult
	ToAddress string

	PriceUSDT   float64
	CreditGrant int64
	PeriodDays  int
}

// SettlementService converts verified transfers into entitlement changes
// exactly once per payment identity.
type SettlementService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSettlementService(db *gorm.DB) *SettlementService {
	return &SettlementService{db: db, now: time.Now}
}

// Settle atomically records the payment and applies the subscription
// extension and credit grant. The existence check, the three writes, and
// nothing else make up the transaction; the payment row's primary key closes
// the window between two concurrent claims of the same transaction. A second
// claim reports processed=false, which is a normal outcome, not an error.
func (s *SettlementService) Settle(ctx context.Context, p SettleParams) (bool, error) {
	id := model.PaymentID(p.Chain, p.TxID)

	err := withConflictRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing model.Payment
			err := tx.First(&existing, "id = ?", id).Error
			if err == nil {
				return errAlreadySettled
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			var u model.User
			if err := tx.First(&u, "uid = ?", p.UID).Error; err != nil {
				return err
			}

			// Stack onto the current expiry when mid-subscription so no paid
			// time is lost; start from now otherwise.
			now := s.now()
			base := now
			if u.CurrentPeriodEnd != nil && u.CurrentPeriodEnd.After(now) {
				base = *u.CurrentPeriodEnd
			}
			newEnd := base.AddDate(0, 0, p.PeriodDays)

			payment := model.Payment{
				ID:              id,
				UID:             p.UID,
				Chain:           p.Chain,
				Token:           "USDT",
				AmountUSDT:      p.PriceUSDT,
				AmountBaseUnits: p.Transfer.Amount,
				ToAddress:       p.ToAddress,
				FromAddress:     p.Transfer.From,
				TxID:            p.TxID,
				Status:          model.PaymentConfirmed,
				BlockNumber:     p.Transfer.BlockNumber,
			}
			if err := tx.Create(&payment).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					// lost the race to a concurrent claim of the same tx
					return errAlreadySettled
				}
				return err
			}

			res := tx.Model(&model.User{}).
				Where("uid = ? AND credits_balance = ?", p.UID, u.CreditsBalance).
				Updates(map[string]interface{}{
					"plan":                      model.PlanPro,
					"subscription_status":       "active",
					"monthly_credits_allowance": p.CreditGrant,
					"current_period_end":        newEnd,
					"last_granted_period_end":   newEnd,
					"credits_balance":           u.CreditsBalance + p.CreditGrant,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errWriteConflict
			}

			entry := model.CreditLedgerEntry{
				ID:     uuid.NewString(),
				UID:    p.UID,
				Type:   model.LedgerGrant,
				Amount: p.CreditGrant,
				Reason: grantReason(p.Chain, p.PriceUSDT),
			}
			return tx.Create(&entry).Error
		})
	})
	if errors.Is(err, errAlreadySettled) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func grantReason(chain string, priceUSDT float64) string {
	return "usdt_" + strings.ToLower(chain) + "_monthly_" + strconv.FormatFloat(priceUSDT, 'f', -1, 64)
}
