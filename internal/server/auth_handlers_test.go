package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dailybright/internal/config"
	"dailybright/internal/middleware"
	"dailybright/internal/models"
	"dailybright/internal/repository"
	"dailybright/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *MockUserRepository) Search(ctx context.Context, query string, excludeID uint, limit int) ([]models.User, error) {
	args := m.Called(ctx, query, excludeID, limit)
	return args.Get(0).([]models.User), args.Error(1)
}

func newMockUserServer(repo repository.UserRepository) *Server {
	return &Server{
		config:      &config.Config{JWTSecret: testJWTSecret},
		auth:        middleware.NewAuthenticator(testJWTSecret, nil),
		userService: service.NewUserService(repo, nil),
	}
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestSignup(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]any
		mockSetup      func(*MockUserRepository)
		expectedStatus int
	}{
		{
			name: "Success",
			body: map[string]any{"email": "New@Example.com", "password": "sunrise2026", "display_name": "Sam"},
			mockSetup: func(m *MockUserRepository) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
					return u.Email == "new@example.com" && u.Password != "sunrise2026"
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*models.User).ID = 1
				}).Return(nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Weak Password",
			body:           map[string]any{"email": "new@example.com", "password": "short"},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid Email",
			body:           map[string]any{"email": "not-an-email", "password": "sunrise2026"},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Duplicate",
			body: map[string]any{"email": "taken@example.com", "password": "sunrise2026"},
			mockSetup: func(m *MockUserRepository) {
				m.On("Create", mock.Anything, mock.Anything).Return(repository.ErrConflict)
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)
			s := newMockUserServer(repo)

			app := fiber.New()
			app.Post("/auth/signup", s.Signup)

			resp := postJSON(t, app, "/auth/signup", tt.body)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusCreated {
				var body map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.NotEmpty(t, body["token"])
				assert.NotContains(t, body["user"], "password")

				cookies := resp.Cookies()
				require.NotEmpty(t, cookies)
				assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
				assert.True(t, cookies[0].HttpOnly)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sunrise2026"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: 4, Email: "me@example.com", Password: string(hash)}

	tests := []struct {
		name           string
		body           map[string]any
		mockSetup      func(*MockUserRepository)
		expectedStatus int
	}{
		{
			name: "Success",
			body: map[string]any{"email": "me@example.com", "password": "sunrise2026"},
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByEmail", mock.Anything, "me@example.com").Return(user, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Wrong Password",
			body: map[string]any{"email": "me@example.com", "password": "moonrise2026"},
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByEmail", mock.Anything, "me@example.com").Return(user, nil)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Unknown Email",
			body: map[string]any{"email": "ghost@example.com", "password": "sunrise2026"},
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Missing Fields",
			body:           map[string]any{"email": "me@example.com"},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)
			s := newMockUserServer(repo)

			app := fiber.New()
			app.Post("/auth/login", s.Login)

			resp := postJSON(t, app, "/auth/login", tt.body)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			repo.AssertExpectations(t)
		})
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	h := newHarness(t)
	token, _, _ := h.signup(t)

	status, _ := h.do(t, http.MethodGet, "/api/users/me", nil, token)
	require.Equal(t, http.StatusOK, status)

	status, _ = h.do(t, http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, status)

	status, body := h.do(t, http.MethodGet, "/api/users/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has been revoked", body["error"])
}

func TestSessionCookieAuthenticates(t *testing.T) {
	h := newHarness(t)
	token, userID, _ := h.signup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	status, body := h.send(t, req)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(userID), body["user"].(map[string]any)["id"])
}
