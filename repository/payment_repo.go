package repository

import (
	"context"

	"github.com/blurmagic/backend/model"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Get(ctx context.Context, id string) (*model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, uid string, limit int) ([]*model.Payment, error) {
	var list []*model.Payment
	if err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		Order("created_at desc").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) ListByUser(ctx context.Context, uid string, limit int) ([]*model.CreditLedgerEntry, error) {
	var list []*model.CreditLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		Order("created_at desc").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
