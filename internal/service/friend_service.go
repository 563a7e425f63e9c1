package service

import (
	"context"
	"errors"
	"log/slog"

	"dailybright/internal/middleware"
	"dailybright/internal/models"
	"dailybright/internal/notifications"
	"dailybright/internal/repository"
)

// EventPublisher delivers user-scoped events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, userID uint, eventType string, payload any) error
}

// FriendService provides friend-request and friendship business logic.
type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	events     EventPublisher
}

// NewFriendService returns a new FriendService. events may be nil.
func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository, events EventPublisher) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		events:     events,
	}
}

// SendRequest sends a friend request to the account registered under email.
func (s *FriendService) SendRequest(ctx context.Context, senderID uint, email string) (*models.Friendship, error) {
	recipient, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, models.NewNotFoundMessage("User not found")
	}
	if recipient.ID == senderID {
		return nil, models.NewValidationError("Cannot send friend request to yourself")
	}

	existing, err := s.friendRepo.Between(ctx, senderID, recipient.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("Friendship already exists")
	}

	friendship := &models.Friendship{
		UserID:   senderID,
		FriendID: recipient.ID,
		Status:   models.FriendshipStatusPending,
	}
	if err := s.friendRepo.Create(ctx, friendship); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, models.NewValidationError("Friendship already exists")
		}
		return nil, err
	}
	friendship.Friend = *recipient

	s.publish(ctx, recipient.ID, notifications.EventFriendRequestReceived, map[string]any{
		"friendship_id": friendship.ID,
		"from_user_id":  senderID,
	})
	return friendship, nil
}

// Respond answers the pending request senderID sent to recipientID.
func (s *FriendService) Respond(ctx context.Context, recipientID, senderID uint, status models.FriendshipStatus) (*models.Friendship, error) {
	if !status.IsDecision() {
		return nil, models.NewValidationError("Status must be accepted or blocked")
	}

	changed, err := s.friendRepo.Respond(ctx, senderID, recipientID, status)
	if err != nil {
		return nil, err
	}

	friendship, err := s.friendRepo.Between(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if !changed {
		if friendship == nil || friendship.UserID != senderID {
			return nil, models.NewNotFoundMessage("Friend request not found")
		}
		return nil, models.NewValidationError("Friend request is not pending")
	}
	if friendship == nil {
		return nil, models.NewNotFoundMessage("Friend request not found")
	}

	if status == models.FriendshipStatusAccepted {
		s.publish(ctx, senderID, notifications.EventFriendRequestAccepted, map[string]any{
			"friendship_id": friendship.ID,
			"by_user_id":    recipientID,
		})
	}
	return friendship, nil
}

// ListFriends returns the other party of every accepted edge.
func (s *FriendService) ListFriends(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	edges, err := s.friendRepo.ListAccepted(ctx, userID)
	if err != nil {
		return nil, err
	}

	friends := make([]models.UserSummary, 0, len(edges))
	for i := range edges {
		if edges[i].UserID == userID {
			friends = append(friends, edges[i].Friend.Summary())
		} else {
			friends = append(friends, edges[i].User.Summary())
		}
	}
	return friends, nil
}

// ListPendingIncoming returns requests waiting for userID's answer.
func (s *FriendService) ListPendingIncoming(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.friendRepo.ListIncoming(ctx, userID)
}

// ListPendingOutgoing returns requests userID sent that are still pending.
func (s *FriendService) ListPendingOutgoing(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.friendRepo.ListOutgoing(ctx, userID)
}

// FriendIDs returns the ids whose entries userID may see.
func (s *FriendService) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.friendRepo.AcceptedIDs(ctx, userID)
}

func (s *FriendService) publish(ctx context.Context, userID uint, eventType string, payload map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, userID, eventType, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "friend event publish failed",
			slog.String("event", eventType),
			slog.String("error", err.Error()),
		)
	}
}
