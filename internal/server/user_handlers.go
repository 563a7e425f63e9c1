package server

import (
	"dailybright/internal/middleware"
	"dailybright/internal/models"
	"dailybright/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
// @Summary Get my profile
// @Tags users
// @Produce json
// @Success 200 {object} object{success=bool,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update my profile
// @Description Change display name, timezone and profile photo. Omitted fields are left as they are; an empty profile_photo_url removes the photo.
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{display_name=string,timezone=string,profile_photo_url=string} true "Profile fields"
// @Success 200 {object} object{success=bool,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		DisplayName     *string `json:"display_name"`
		Timezone        *string `json:"timezone"`
		ProfilePhotoURL *string `json:"profile_photo_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:          sessionUserID(c),
		DisplayName:     req.DisplayName,
		Timezone:        req.Timezone,
		ProfilePhotoURL: req.ProfilePhotoURL,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

// ChangeMyPassword handles PUT /api/users/me/password
// @Summary Change my password
// @Description Replaces the password, signs out every existing session and returns a fresh token
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{current_password=string,new_password=string} true "Passwords"
// @Success 200 {object} object{success=bool,token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/me/password [put]
func (s *Server) ChangeMyPassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	userID := sessionUserID(c)
	if err := s.userService.ChangePassword(c.UserContext(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return respondErr(c, err)
	}

	if err := s.auth.RevokeAll(c.UserContext(), userID); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "revoking sessions failed", "user_id", userID, "error", err.Error())
	}

	user, err := s.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return respondErr(c, err)
	}
	return s.startSession(c, fiber.StatusOK, user)
}

// SearchUsers handles GET /api/users/search?q=
// @Summary Search users
// @Tags users
// @Produce json
// @Param q query string true "Email or display name fragment"
// @Success 200 {object} object{success=bool,users=[]models.UserSummary}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	users, err := s.userService.Search(c.UserContext(), sessionUserID(c), c.Query("q"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "users": users})
}
