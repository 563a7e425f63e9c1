package service

import (
	"context"
	"errors"
	"strings"

	"dailybright/internal/middleware"
	"dailybright/internal/models"
	"dailybright/internal/repository"
	"dailybright/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// SearchLimit caps user search results.
const SearchLimit = 10

// PhotoReleaser deletes an uploaded photo once nothing points at it.
type PhotoReleaser interface {
	Release(ctx context.Context, userID uint, rawURL string) error
}

// UserService manages accounts and profiles.
type UserService struct {
	userRepo repository.UserRepository
	photos   PhotoReleaser
	cost     int
}

// NewUserService returns a new UserService. photos may be nil, in which case
// replaced profile photos stay on disk.
func NewUserService(userRepo repository.UserRepository, photos PhotoReleaser) *UserService {
	return &UserService{userRepo: userRepo, photos: photos, cost: bcrypt.DefaultCost}
}

// SignupInput is a registration request.
type SignupInput struct {
	Email       string
	Password    string
	DisplayName string
}

// UpdateProfileInput carries the fields a user may change. Nil leaves a
// field untouched; an empty string clears it.
type UpdateProfileInput struct {
	UserID          uint
	DisplayName     *string
	Timezone        *string
	ProfilePhotoURL *string
}

// Signup creates an account with a bcrypt password hash.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:       email,
		DisplayName: displayName,
		Password:    string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, models.NewValidationError("User already exists")
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// GetUserByID returns the user or a not-found error.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile changes the caller's display name, timezone and profile
// photo. A replaced photo uploaded through this API is deleted.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	previousPhoto := user.ProfilePhotoURL

	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if err := validation.ValidateDisplayName(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.DisplayName = name
	}
	if in.Timezone != nil {
		tz := strings.TrimSpace(*in.Timezone)
		if err := validation.ValidateTimezone(tz); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Timezone = tz
	}
	if in.ProfilePhotoURL != nil {
		photoURL, err := normalizePhotoURL(in.ProfilePhotoURL)
		if err != nil {
			return nil, err
		}
		user.ProfilePhotoURL = ""
		if photoURL != nil {
			user.ProfilePhotoURL = *photoURL
		}
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	if previousPhoto != "" && previousPhoto != user.ProfilePhotoURL && s.photos != nil {
		if err := s.photos.Release(ctx, user.ID, previousPhoto); err != nil {
			middleware.Logger.WarnContext(ctx, "releasing replaced profile photo failed",
				"user_id", user.ID, "error", err.Error())
		}
	}
	return user, nil
}

// ChangePassword replaces the caller's password after checking the current
// one.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if current == "" || next == "" {
		return models.NewValidationError("Current and new password are required")
	}
	if err := validation.ValidatePassword(next); err != nil {
		return models.NewValidationError(err.Error())
	}
	if current == next {
		return models.NewValidationError("New password must be different from the current password")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return models.NewValidationError("Current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.userRepo.UpdatePassword(ctx, userID, string(hashed))
}

// Search finds other users by email or display name.
func (s *UserService) Search(ctx context.Context, callerID uint, query string) ([]models.UserSummary, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, models.NewValidationError("Search query must be at least 2 characters")
	}

	users, err := s.userRepo.Search(ctx, query, callerID, SearchLimit)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out, nil
}
