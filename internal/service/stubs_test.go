package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"dailybright/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStore = errors.New("store unavailable")

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

type userRepoStub struct {
	getByIDFn        func(context.Context, uint) (*models.User, error)
	getByEmailFn     func(context.Context, string) (*models.User, error)
	createFn         func(context.Context, *models.User) error
	updateProfileFn  func(context.Context, *models.User) error
	updatePasswordFn func(context.Context, uint, string) error
	searchFn         func(context.Context, string, uint, int) ([]models.User, error)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:        func(context.Context, uint) (*models.User, error) { return nil, models.NewNotFoundError("User", 0) },
		getByEmailFn:     func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:         func(context.Context, *models.User) error { return nil },
		updateProfileFn:  func(context.Context, *models.User) error { return nil },
		updatePasswordFn: func(context.Context, uint, string) error { return nil },
		searchFn:         func(context.Context, string, uint, int) ([]models.User, error) { return nil, nil },
	}
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, user *models.User) error {
	return s.updateProfileFn(ctx, user)
}
func (s *userRepoStub) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return s.updatePasswordFn(ctx, id, hash)
}
func (s *userRepoStub) Search(ctx context.Context, q string, excludeID uint, limit int) ([]models.User, error) {
	return s.searchFn(ctx, q, excludeID, limit)
}

type friendRepoStub struct {
	createFn       func(context.Context, *models.Friendship) error
	betweenFn      func(context.Context, uint, uint) (*models.Friendship, error)
	respondFn      func(context.Context, uint, uint, models.FriendshipStatus) (bool, error)
	listAcceptedFn func(context.Context, uint) ([]models.Friendship, error)
	listIncomingFn func(context.Context, uint) ([]models.Friendship, error)
	listOutgoingFn func(context.Context, uint) ([]models.Friendship, error)
	acceptedIDsFn  func(context.Context, uint) ([]uint, error)
}

func (s *friendRepoStub) Create(ctx context.Context, f *models.Friendship) error {
	return s.createFn(ctx, f)
}
func (s *friendRepoStub) Between(ctx context.Context, a, b uint) (*models.Friendship, error) {
	return s.betweenFn(ctx, a, b)
}
func (s *friendRepoStub) Respond(ctx context.Context, sender, recipient uint, status models.FriendshipStatus) (bool, error) {
	return s.respondFn(ctx, sender, recipient, status)
}
func (s *friendRepoStub) ListAccepted(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.listAcceptedFn(ctx, userID)
}
func (s *friendRepoStub) ListIncoming(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.listIncomingFn(ctx, userID)
}
func (s *friendRepoStub) ListOutgoing(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.listOutgoingFn(ctx, userID)
}
func (s *friendRepoStub) AcceptedIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.acceptedIDsFn(ctx, userID)
}

type entryRepoStub struct {
	upsertFn        func(context.Context, *models.Entry) (*models.Entry, bool, error)
	getFn           func(context.Context, uint, string, uint) (*models.Entry, error)
	recentForUserFn func(context.Context, uint, string, int) ([]models.Entry, error)
	feedForUsersFn  func(context.Context, []uint, string, int) ([]models.Entry, error)
}

func (s *entryRepoStub) Upsert(ctx context.Context, e *models.Entry) (*models.Entry, bool, error) {
	return s.upsertFn(ctx, e)
}
func (s *entryRepoStub) Get(ctx context.Context, userID uint, date string, promptID uint) (*models.Entry, error) {
	return s.getFn(ctx, userID, date, promptID)
}
func (s *entryRepoStub) RecentForUser(ctx context.Context, userID uint, excludeDate string, limit int) ([]models.Entry, error) {
	return s.recentForUserFn(ctx, userID, excludeDate, limit)
}
func (s *entryRepoStub) FeedForUsers(ctx context.Context, ids []uint, since string, limit int) ([]models.Entry, error) {
	return s.feedForUsersFn(ctx, ids, since, limit)
}

type resolverStub struct {
	resolveFn func(context.Context, *models.User, time.Time) (*models.DailyState, *models.Prompt)
}

func (s *resolverStub) Resolve(ctx context.Context, user *models.User, now time.Time) (*models.DailyState, *models.Prompt) {
	return s.resolveFn(ctx, user, now)
}

type publisherStub struct {
	events []publishedEvent
	err    error
}

type publishedEvent struct {
	userID    uint
	eventType string
}

func (p *publisherStub) PublishEvent(_ context.Context, userID uint, eventType string, _ any) error {
	p.events = append(p.events, publishedEvent{userID: userID, eventType: eventType})
	return p.err
}
