package server

import (
	"dailybright/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyEntries handles GET /api/entries/mine
// @Summary My recent entries
// @Description The caller's latest responses, excluding today's
// @Tags entries
// @Produce json
// @Param limit query int false "At most 5"
// @Success 200 {object} object{success=bool,entries=[]models.Entry}
// @Security BearerAuth
// @Router /entries/mine [get]
func (s *Server) GetMyEntries(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	today := s.dailyStateService.LocalDate(user, s.clock())
	limit := c.QueryInt("limit", service.RecentEntriesLimit)

	entries, err := s.entryService.Recent(c.UserContext(), user.ID, today, limit)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "entries": entries})
}

// GetFriendsFeed handles GET /api/entries/feed
// @Summary Friends' entries
// @Description Accepted friends' responses from the last week
// @Tags entries
// @Produce json
// @Success 200 {object} object{success=bool,entries=[]models.Entry}
// @Security BearerAuth
// @Router /entries/feed [get]
func (s *Server) GetFriendsFeed(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	today := s.dailyStateService.LocalDate(user, s.clock())
	entries, err := s.entryService.FriendsFeed(c.UserContext(), user.ID, today)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "entries": entries})
}
