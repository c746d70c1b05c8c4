package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ratemyfit/model"
)

// ErrOutfitNotFound is returned when a vote or lookup names a missing outfit.
var ErrOutfitNotFound = errors.New("outfit not found")

// OutfitRepository defines data operations for outfit posts.
type OutfitRepository interface {
	CreateOutfit(ctx context.Context, outfit *model.Outfit) error
	ListByUser(ctx context.Context, userID int64) ([]model.Outfit, error)
	ListTrending(ctx context.Context, limit int) ([]model.Outfit, error)
	IncrementVote(ctx context.Context, id int64, kind model.VoteKind) error
}

type gormOutfitRepository struct {
	db *gorm.DB
}

// NewGormOutfitRepository creates an OutfitRepository backed by GORM.
func NewGormOutfitRepository(db *gorm.DB) OutfitRepository {
	return &gormOutfitRepository{db: db}
}

// CreateOutfit persists a new outfit with zeroed vote counters.
func (r *gormOutfitRepository) CreateOutfit(ctx context.Context, outfit *model.Outfit) error {
	if err := r.db.WithContext(ctx).Create(outfit).Error; err != nil {
		return fmt.Errorf("failed to create outfit: %w", err)
	}
	return nil
}

// ListByUser returns the user's uploads, newest first.
func (r *gormOutfitRepository) ListByUser(ctx context.Context, userID int64) ([]model.Outfit, error) {
	var outfits []model.Outfit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&outfits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list outfits for user %d: %w", userID, err)
	}
	return outfits, nil
}

// ListTrending returns the top outfits ordered by fire votes descending.
func (r *gormOutfitRepository) ListTrending(ctx context.Context, limit int) ([]model.Outfit, error) {
	var outfits []model.Outfit
	err := r.db.WithContext(ctx).
		Order("fire_votes DESC").
		Limit(limit).
		Find(&outfits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trending outfits: %w", err)
	}
	return outfits, nil
}

// IncrementVote applies exactly one atomic increment to the named counter.
// Concurrent votes are serialized by the store, never by this layer.
func (r *gormOutfitRepository) IncrementVote(ctx context.Context, id int64, kind model.VoteKind) error {
	var column string
	switch kind {
	case model.VoteFire:
		column = "fire_votes"
	case model.VoteNope:
		column = "nope_votes"
	default:
		return fmt.Errorf("invalid vote kind %q", kind)
	}

	res := r.db.WithContext(ctx).
		Model(&model.Outfit{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to increment %s for outfit %d: %w", column, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOutfitNotFound
	}
	return nil
}
