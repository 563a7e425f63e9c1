package server

import (
	"strings"

	"dailybright/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SendFriendRequest handles POST /api/friends/requests
// @Summary Send friend request
// @Description Send a friend request to the account registered under an email address
// @Tags friends
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Recipient"
// @Success 201 {object} object{success=bool,friendship=models.Friendship}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /friends/requests [post]
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email is required"))
	}

	friendship, err := s.friendService.SendRequest(c.UserContext(), sessionUserID(c), email)
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"friendship": friendship,
	})
}

// RespondToFriendRequest handles PUT /api/friends/requests/:userId
// @Summary Respond to friend request
// @Description Accept or block the pending request the given user sent
// @Tags friends
// @Accept json
// @Produce json
// @Param userId path int true "Sender ID"
// @Param request body object{status=string} true "accepted or blocked"
// @Success 200 {object} object{success=bool,friendship=models.Friendship}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /friends/requests/{userId} [put]
func (s *Server) RespondToFriendRequest(c *fiber.Ctx) error {
	senderID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	status := models.FriendshipStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	friendship, err := s.friendService.Respond(c.UserContext(), sessionUserID(c), senderID, status)
	if err != nil {
		return respondErr(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"friendship": friendship,
	})
}

// GetFriends handles GET /api/friends
// @Summary List friends
// @Tags friends
// @Produce json
// @Success 200 {object} object{success=bool,friends=[]models.UserSummary}
// @Security BearerAuth
// @Router /friends [get]
func (s *Server) GetFriends(c *fiber.Ctx) error {
	friends, err := s.friendService.ListFriends(c.UserContext(), sessionUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "friends": friends})
}

// GetPendingRequests handles GET /api/friends/requests
// @Summary List incoming friend requests
// @Tags friends
// @Produce json
// @Success 200 {object} object{success=bool,requests=[]models.Friendship}
// @Security BearerAuth
// @Router /friends/requests [get]
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	requests, err := s.friendService.ListPendingIncoming(c.UserContext(), sessionUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "requests": requests})
}

// GetSentRequests handles GET /api/friends/requests/sent
// @Summary List sent friend requests
// @Tags friends
// @Produce json
// @Success 200 {object} object{success=bool,requests=[]models.Friendship}
// @Security BearerAuth
// @Router /friends/requests/sent [get]
func (s *Server) GetSentRequests(c *fiber.Ctx) error {
	requests, err := s.friendService.ListPendingOutgoing(c.UserContext(), sessionUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "requests": requests})
}
