package repository

import (
	"context"
	"fmt"

	"dailybright/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendRepository defines the interface for friend data operations
type FriendRepository interface {
	Create(ctx context.Context, friendship *models.Friendship) error
	Between(ctx context.Context, userID1, userID2 uint) (*models.Friendship, error)
	Respond(ctx context.Context, senderID, recipientID uint, status models.FriendshipStatus) (bool, error)
	ListAccepted(ctx context.Context, userID uint) ([]models.Friendship, error)
	ListIncoming(ctx context.Context, userID uint) ([]models.Friendship, error)
	ListOutgoing(ctx context.Context, userID uint) ([]models.Friendship, error)
	AcceptedIDs(ctx context.Context, userID uint) ([]uint, error)
}

// friendRepository implements FriendRepository
type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

// Create inserts a pending edge. A second edge for the same pair, in either
// direction, fails with ErrConflict.
func (r *friendRepository) Create(ctx context.Context, friendship *models.Friendship) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(friendship).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("friendship %s: %w", friendship.PairKey, ErrConflict)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Between finds the edge for a pair in either direction, or nil, nil.
func (r *friendRepository) Between(ctx context.Context, userID1, userID2 uint) (*models.Friendship, error) {
	var friendship models.Friendship
	err := r.db.WithContext(ctx).
		Where("pair_key = ?", models.FriendshipPairKey(userID1, userID2)).
		First(&friendship).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &friendship, nil
}

// Respond moves a pending edge from senderID to recipientID to status in
// one conditional update. It reports whether a row changed.
func (r *friendRepository) Respond(ctx context.Context, senderID, recipientID uint, status models.FriendshipStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ? AND status = ?", senderID, recipientID, models.FriendshipStatusPending).
		Updates(map[string]any{"status": status})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *friendRepository) ListAccepted(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var friendships []models.Friendship
	if err := r.db.WithContext(ctx).
		Where("(user_id = ? OR friend_id = ?) AND status = ?", userID, userID, models.FriendshipStatusAccepted).
		Preload("User").
		Preload("Friend").
		Order("updated_at DESC").
		Find(&friendships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return friendships, nil
}

func (r *friendRepository) ListIncoming(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var friendships []models.Friendship
	if err := r.db.WithContext(ctx).
		Where("friend_id = ? AND status = ?", userID, models.FriendshipStatusPending).
		Preload("User").
		Preload("Friend").
		Order("created_at DESC").
		Find(&friendships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return friendships, nil
}

func (r *friendRepository) ListOutgoing(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var friendships []models.Friendship
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.FriendshipStatusPending).
		Preload("User").
		Preload("Friend").
		Order("created_at DESC").
		Find(&friendships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return friendships, nil
}

// AcceptedIDs returns the other party of every accepted edge of userID.
func (r *friendRepository) AcceptedIDs(ctx context.Context, userID uint) ([]uint, error) {
	var edges []models.Friendship
	if err := r.db.WithContext(ctx).
		Select("user_id", "friend_id").
		Where("(user_id = ? OR friend_id = ?) AND status = ?", userID, userID, models.FriendshipStatusAccepted).
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	ids := make([]uint, 0, len(edges))
	for i := range edges {
		ids = append(ids, edges[i].OtherParty(userID))
	}
	return ids, nil
}
