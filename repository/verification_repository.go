package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ratemyfit/model"
)

// ErrCodeNotFound is returned when no verification code matches.
var ErrCodeNotFound = errors.New("verification code not found")

// VerificationRepository stores pending email verification codes.
type VerificationRepository interface {
	CreateCode(ctx context.Context, code *model.VerificationCode) error
	GetByEmailAndCode(ctx context.Context, email, code string) (*model.VerificationCode, error)
	DeleteCode(ctx context.Context, id int64) error
	DeleteByEmail(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type gormVerificationRepository struct {
	db *gorm.DB
}

// NewGormVerificationRepository creates a VerificationRepository backed by GORM.
func NewGormVerificationRepository(db *gorm.DB) VerificationRepository {
	return &gormVerificationRepository{db: db}
}

// CreateCode persists a new code.
func (r *gormVerificationRepository) CreateCode(ctx context.Context, code *model.VerificationCode) error {
	if err := r.db.WithContext(ctx).Create(code).Error; err != nil {
		return fmt.Errorf("failed to create verification code: %w", err)
	}
	return nil
}

// GetByEmailAndCode retrieves a pending code by owner email and exact value.
// Expiry is checked by the caller so an expired code can be reported distinctly.
func (r *gormVerificationRepository) GetByEmailAndCode(ctx context.Context, email, code string) (*model.VerificationCode, error) {
	var rec model.VerificationCode
	err := r.db.WithContext(ctx).
		Where("email = ? AND code = ?", email, code).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to get verification code for %s: %w", email, err)
	}
	return &rec, nil
}

// DeleteCode consumes a code. Codes are never reused.
func (r *gormVerificationRepository) DeleteCode(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&model.VerificationCode{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete verification code %d: %w", id, err)
	}
	return nil
}

// DeleteByEmail drops all pending codes for an email, used before issuing a
// fresh code on resend.
func (r *gormVerificationRepository) DeleteByEmail(ctx context.Context, email string) error {
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Delete(&model.VerificationCode{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete verification codes for %s: %w", email, err)
	}
	return nil
}

// DeleteExpired removes codes past their expiry and reports how many were dropped.
func (r *gormVerificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&model.VerificationCode{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete expired verification codes: %w", res.Error)
	}
	return res.RowsAffected, nil
}
