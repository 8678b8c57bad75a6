package repository

import (
	"context"
	"errors"
	"time"

	"github.com/blurmagic/backend/model"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure returns the user row for uid, creating it with free-plan defaults on
// first touch. Safe to call concurrently: the loser of a create race re-reads.
func (r *UserRepository) Ensure(ctx context.Context, uid string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where(model.User{UID: uid}).
		Attrs(model.User{
			Plan:               model.PlanFree,
			LastDailyResetDate: model.DateKey(time.Now()),
		}).
		FirstOrCreate(&u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = r.db.WithContext(ctx).First(&u, "uid = ?", uid).Error
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Get(ctx context.Context, uid string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "uid = ?", uid).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// SetTronDeposit stores a freshly generated deposit address and its encrypted
// key. The guard on the address column keeps the pair write-once: a
// concurrent generator loses and the stored pair is returned instead.
func (r *UserRepository) SetTronDeposit(ctx context.Context, uid, address, privEnc string) (*model.User, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("uid = ? AND tron_deposit_address IS NULL", uid).
		Updates(map[string]interface{}{
			"tron_deposit_address":    address,
			"tron_deposit_priv_enc":   privEnc,
			"tron_deposit_created_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	return r.Get(ctx, uid)
}

// TouchTronChecked records the time of the latest TRON claim attempt.
func (r *UserRepository) TouchTronChecked(ctx context.Context, uid string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("uid = ?", uid).
		Update("tron_last_checked_at", time.Now()).Error
}
