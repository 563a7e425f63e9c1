package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// FriendshipStatus represents the status of a friendship request.
type FriendshipStatus string

const (
	// FriendshipStatusPending indicates a pending friendship request.
	FriendshipStatusPending FriendshipStatus = "pending"
	// FriendshipStatusAccepted indicates an accepted friendship request.
	FriendshipStatusAccepted FriendshipStatus = "accepted"
	// FriendshipStatusBlocked indicates a blocked friendship.
	FriendshipStatusBlocked FriendshipStatus = "blocked"
)

// IsDecision reports whether s is a valid answer to a pending request.
func (s FriendshipStatus) IsDecision() bool {
	return s == FriendshipStatusAccepted || s == FriendshipStatusBlocked
}

// Friendship is a directed request edge from UserID (sender) to FriendID
// (recipient). PairKey is direction-agnostic and unique, so a pair of users
// can only ever hold one edge.
type Friendship struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	FriendID  uint             `gorm:"not null;index" json:"friend_id"`
	Status    FriendshipStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_friendships_status" json:"status"`
	PairKey   string           `gorm:"size:41;not null;uniqueIndex" json:"-"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	// Relationships
	User   User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Friend User `gorm:"foreignKey:FriendID" json:"friend,omitempty"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}

// BeforeCreate fills the direction-agnostic pair key.
func (f *Friendship) BeforeCreate(_ *gorm.DB) error {
	f.PairKey = FriendshipPairKey(f.UserID, f.FriendID)
	if f.Status == "" {
		f.Status = FriendshipStatusPending
	}
	return nil
}

// OtherParty returns the id on the opposite side of the edge from userID.
func (f *Friendship) OtherParty(userID uint) uint {
	if f.FriendID == userID {
		return f.UserID
	}
	return f.FriendID
}

// FriendshipPairKey orders the two ids so (a,b) and (b,a) collide.
func FriendshipPairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}
