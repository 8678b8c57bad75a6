package service

import (
	"context"
	"time"

	"github.com/blurmagic/backend/model"
	"github.com/blurmagic/backend/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FreeDailyLimit is the free-plan daily credit quota.
const FreeDailyLimit = 5

// Entitlements is the point-in-time view of what a user may consume.
type Entitlements struct {
	Plan                string     `json:"plan"`
	CanUse              bool       `json:"canUse"`
	Remaining           int64      `json:"remaining"`
	Limit               int64      `json:"limit"`
	CreditsBalance      int64      `json:"creditsBalance"`
	DailyCreditsUsed    int64      `json:"dailyCreditsUsed"`
	DailyLimit          int64      `json:"dailyLimit"`
	SubscriptionStatus  *string    `json:"subscriptionStatus"`
	CurrentPeriodEnd    *time.Time `json:"currentPeriodEnd"`
	SubscriptionExpired bool       `json:"subscriptionExpired"`
}

// ComputeEntitlements derives the entitlement view from a stored user record.
// It never mutates anything: an expired subscription with no paid balance is
// reported as free, and a stale daily counter is reported as zero, with the
// stored row left as-is until the next consuming write.
func ComputeEntitlements(u *model.User, now time.Time) Entitlements {
	expired := u.CurrentPeriodEnd != nil && now.After(*u.CurrentPeriodEnd)

	plan := u.Plan
	if plan == "" {
		plan = model.PlanFree
	}
	if expired && u.CreditsBalance <= 0 {
		plan = model.PlanFree
	}

	used := u.DailyCreditsUsed
	if u.LastDailyResetDate != model.DateKey(now) {
		used = 0
	}

	ent := Entitlements{
		Plan:                plan,
		CreditsBalance:      u.CreditsBalance,
		DailyCreditsUsed:    used,
		DailyLimit:          FreeDailyLimit,
		SubscriptionStatus:  u.SubscriptionStatus,
		CurrentPeriodEnd:    u.CurrentPeriodEnd,
		SubscriptionExpired: expired,
	}

	if plan == model.PlanFree {
		remaining := FreeDailyLimit - used
		if remaining < 0 {
			remaining = 0
		}
		ent.Remaining = remaining
		ent.Limit = FreeDailyLimit
	} else {
		remaining := u.CreditsBalance
		if remaining < 0 {
			remaining = 0
		}
		ent.Remaining = remaining
		ent.Limit = remaining
	}
	ent.CanUse = ent.Remaining > 0
	return ent
}

type EntitlementService struct {
	db    *gorm.DB
	users *repository.UserRepository
	now   func() time.Time
}

func NewEntitlementService(db *gorm.DB, users *repository.UserRepository) *EntitlementService {
	return &EntitlementService{db: db, users: users, now: time.Now}
}

// GetEntitlements returns the current view for uid, creating the user row on
// first touch.
func (s *EntitlementService) GetEntitlements(ctx context.Context, uid string) (*Entitlements, error) {
	u, err := s.users.Ensure(ctx, uid)
	if err != nil {
		return nil, err
	}
	ent := ComputeEntitlements(u, s.now())
	return &ent, nil
}

// ConsumeCredits spends count credits for uid under the effective plan's
// accounting mode and returns the refreshed view. The read, sufficiency
// check, counter write, and ledger append happen in one transaction; the
// counter write is guarded on the previously read values, so two concurrent
// spends cannot both pass a stale check — the loser retries on fresh state.
func (s *EntitlementService) ConsumeCredits(ctx context.Context, uid string, count int64, reason string) (*Entitlements, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	if reason == "" {
		reason = "consume"
	}
	if _, err := s.users.Ensure(ctx, uid); err != nil {
		return nil, err
	}

	var result Entitlements
	err := withConflictRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var u model.User
			if err := tx.First(&u, "uid = ?", uid).Error; err != nil {
				return err
			}
			now := s.now()
			today := model.DateKey(now)

			ent := ComputeEntitlements(&u, now)
			if ent.Remaining < count {
				return ErrInsufficientCredits
			}

			var res *gorm.DB
			if ent.Plan == model.PlanFree {
				effective := u.DailyCreditsUsed
				if u.LastDailyResetDate != today {
					effective = 0 // apply the lazy reset as part of this write
				}
				res = tx.Model(&model.User{}).
					Where("uid = ? AND daily_credits_used = ? AND last_daily_reset_date = ?",
						uid, u.DailyCreditsUsed, u.LastDailyResetDate).
					Updates(map[string]interface{}{
						"daily_credits_used":    effective + count,
						"last_daily_reset_date": today,
					})
			} else {
				res = tx.Model(&model.User{}).
					Where("uid = ? AND credits_balance = ?", uid, u.CreditsBalance).
					Update("credits_balance", u.CreditsBalance-count)
			}
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errWriteConflict
			}

			entry := model.CreditLedgerEntry{
				ID:     uuid.NewString(),
				UID:    uid,
				Type:   model.LedgerSpend,
				Amount: count,
				Reason: reason,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}

			var updated model.User
			if err := tx.First(&updated, "uid = ?", uid).Error; err != nil {
				return err
			}
			result = ComputeEntitlements(&updated, now)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
