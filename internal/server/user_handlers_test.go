package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"dailybright/internal/models"
	"dailybright/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func withUser(id uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userID", id)
		return c.Next()
	}
}

func TestGetMyProfile(t *testing.T) {
	tests := []struct {
		name           string
		mockSetup      func(*MockUserRepository)
		expectedStatus int
	}{
		{
			name: "Success",
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByID", mock.Anything, uint(1)).Return(&models.User{ID: 1, Email: "me@example.com"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Not Found",
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByID", mock.Anything, uint(1)).Return(nil, models.NewNotFoundError("User", 1))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)
			s := newMockUserServer(repo)

			app := fiber.New()
			app.Get("/users/me", withUser(1), s.GetMyProfile)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/users/me", nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			repo.AssertExpectations(t)
		})
	}
}

func TestUpdateMyProfile(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockSetup      func(*MockUserRepository)
		expectedStatus int
	}{
		{
			name: "Success",
			body: `{"display_name":"Robin","timezone":"Europe/Berlin"}`,
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByID", mock.Anything, uint(1)).Return(&models.User{ID: 1, Email: "me@example.com"}, nil)
				m.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
					return u.DisplayName == "Robin" && u.Timezone == "Europe/Berlin"
				})).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Invalid Timezone",
			body: `{"timezone":"Mars/Olympus"}`,
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByID", mock.Anything, uint(1)).Return(&models.User{ID: 1}, nil)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Malformed Body",
			body:           `{"timezone":`,
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
			app.Put("/users/me", withUser(1), s.UpdateMyProfile)

			req := httptest.NewRequest(http.MethodPut, "/users/me", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			repo.AssertExpectations(t)
		})
	}
}

func TestSearchUsers(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("Search", mock.Anything, "ali", uint(1), 10).Return([]models.User{
		{ID: 2, Email: "alice@example.com", DisplayName: "Alice", Password: "hash"},
	}, nil)
	s := newMockUserServer(repo)

	app := fiber.New()
	app.Get("/users/search", withUser(1), s.SearchUsers)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/users/search?q=ali", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	short, err := app.Test(httptest.NewRequest(http.MethodGet, "/users/search?q=a", nil))
	require.NoError(t, err)
	defer func() { _ = short.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, short.StatusCode)

	repo.AssertExpectations(t)
}

func TestUpdateMyProfile_ProfilePhoto(t *testing.T) {
	h := newHarness(t)
	token, userID, _ := h.signup(t)

	upload := func(w, hgt int) string {
		status, body := h.send(t, uploadRequest(t, testutil.GradientPNG(t, w, hgt), models.PhotoBucketProfiles, token))
		require.Equal(t, http.StatusOK, status, body)
		return body["photo"].(map[string]any)["url"].(string)
	}
	onDisk := func(url string) string {
		rel := strings.TrimPrefix(url, "http://localhost:8375/uploads/")
		return filepath.Join(h.srv.photoService.UploadDir(), filepath.FromSlash(rel))
	}
	photoRows := func() int64 {
		var n int64
		require.NoError(t, h.db.Model(&models.Photo{}).Where("user_id = ?", userID).Count(&n).Error)
		return n
	}

	first := upload(16, 12)
	second := upload(20, 10)
	require.Equal(t, int64(2), photoRows())

	status, body := h.do(t, http.MethodPut, "/api/users/me", map[string]any{"profile_photo_url": first}, token)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, first, body["user"].(map[string]any)["profile_photo_url"])

	status, body = h.do(t, http.MethodPut, "/api/users/me", map[string]any{"profile_photo_url": second}, token)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, second, body["user"].(map[string]any)["profile_photo_url"])
	assert.NoFileExists(t, onDisk(first))
	assert.FileExists(t, onDisk(second))
	assert.Equal(t, int64(1), photoRows())

	// Other profile fields leave the photo alone.
	status, body = h.do(t, http.MethodPut, "/api/users/me", map[string]any{"display_name": "Renamed"}, token)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, second, body["user"].(map[string]any)["profile_photo_url"])
	assert.FileExists(t, onDisk(second))

	status, body = h.do(t, http.MethodPut, "/api/users/me", map[string]any{"profile_photo_url": "/uploads/x.webp"}, token)
	assert.Equal(t, http.StatusBadRequest, status, body)

	status, body = h.do(t, http.MethodPut, "/api/users/me", map[string]any{"profile_photo_url": ""}, token)
	require.Equal(t, http.StatusOK, status, body)
	assert.NotContains(t, body["user"].(map[string]any), "profile_photo_url")
	assert.NoFileExists(t, onDisk(second))
	assert.Equal(t, int64(0), photoRows())
}

func TestChangeMyPassword(t *testing.T) {
	h := newHarness(t)
	token, _, email := h.signup(t)

	status, body := h.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": email, "password": testPassword}, "")
	require.Equal(t, http.StatusOK, status, body)
	otherDevice := body["token"].(string)

	const newPassword = "moonrise2027"
	tests := []struct {
		name    string
		current string
		next    string
		errMsg  string
	}{
		{"wrong current password", "sunset2026", newPassword, "Current password is incorrect"},
		{"same password", testPassword, testPassword, "New password must be different from the current password"},
		{"weak password", testPassword, "short", ""},
		{"missing current password", "", newPassword, "Current and new password are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := h.do(t, http.MethodPut, "/api/users/me/password", map[string]any{
				"current_password": tt.current,
				"new_password":     tt.next,
			}, token)
			assert.Equal(t, http.StatusBadRequest, status, body)
			if tt.errMsg != "" {
				assert.Equal(t, tt.errMsg, body["error"])
			}
		})
	}

	// Failed attempts keep existing sessions alive.
	status, _ = h.do(t, http.MethodGet, "/api/users/me", nil, otherDevice)
	require.Equal(t, http.StatusOK, status)

	status, body = h.do(t, http.MethodPut, "/api/users/me/password", map[string]any{
		"current_password": testPassword,
		"new_password":     newPassword,
	}, token)
	require.Equal(t, http.StatusOK, status, body)
	fresh, _ := body["token"].(string)
	require.NotEmpty(t, fresh)

	for _, stale := range []string{token, otherDevice} {
		status, _ = h.do(t, http.MethodGet, "/api/users/me", nil, stale)
		assert.Equal(t, http.StatusUnauthorized, status)
	}
	status, _ = h.do(t, http.MethodGet, "/api/users/me", nil, fresh)
	assert.Equal(t, http.StatusOK, status)

	status, _ = h.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": email, "password": testPassword}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = h.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": email, "password": newPassword}, "")
	assert.Equal(t, http.StatusOK, status)
}
