package server

import (
	"log/slog"
	"time"

	"dailybright/internal/config"
	"dailybright/internal/middleware"
	"dailybright/internal/models"
	"dailybright/internal/service"

	"github.com/gofiber/fiber/v2"
)

// dailyPromptInfo is the caller's state for today as shown to clients.
type dailyPromptInfo struct {
	Date        string  `json:"date"`
	WindowStart string  `json:"window_start"`
	WindowEnd   string  `json:"window_end"`
	NotifiedAt  *string `json:"notified_at"`
	Degraded    bool    `json:"degraded"`
}

func newDailyPromptInfo(state *models.DailyState) dailyPromptInfo {
	info := dailyPromptInfo{
		Date:        state.Date,
		WindowStart: state.WindowStart.UTC().Format(time.RFC3339),
		WindowEnd:   state.WindowEnd.UTC().Format(time.RFC3339),
		Degraded:    state.Degraded,
	}
	if state.NotifiedAt != nil {
		at := state.NotifiedAt.UTC().Format(time.RFC3339)
		info.NotifiedAt = &at
	}
	return info
}

// CronDailyPrompt handles POST /api/cron/daily-prompt
// @Summary Ensure today's prompt
// @Description Scheduled trigger. Creates today's prompt when it does not exist yet; repeated calls are harmless.
// @Tags cron
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Security CronSecret
// @Router /cron/daily-prompt [post]
func (s *Server) CronDailyPrompt(c *fiber.Ctx) error {
	if s.config.PromptStrategy == config.PromptStrategyGenerated && s.config.GenAIAPIKey == "" {
		middleware.Logger.ErrorContext(c.UserContext(), "generated prompt strategy without GENAI_API_KEY")
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewConfigError("Text generation credential not configured"))
	}

	ctx := middleware.WithJob(c.UserContext(), "cron-daily-prompt")
	dp, created, err := s.dailyPromptService.Ensure(ctx, s.clock().UTC())
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "daily prompt trigger failed", slog.String("error", err.Error()))
		return respondErr(c, err)
	}

	if !created {
		return c.JSON(fiber.Map{
			"success":         true,
			"message":         "Daily prompt already exists",
			"existing_prompt": dp,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Daily prompt created",
		"prompt": fiber.Map{
			"text":           dp.Prompt.Text,
			"scheduled_time": dp.ScheduledTime,
			"date":           dp.Date,
		},
		"generated_by": dp.Source,
	})
}

// GetDailyPrompt handles GET /api/daily-prompt
// @Summary Today's prompt
// @Description The caller's prompt for their local date, their window and whether they already answered
// @Tags daily-prompt
// @Produce json
// @Success 200 {object} object{success=bool,has_prompt=bool}
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /daily-prompt [get]
func (s *Server) GetDailyPrompt(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	state, p := s.dailyStateService.Resolve(c.UserContext(), user, s.clock())

	response := fiber.Map{"has_responded": false}
	if !state.Degraded {
		entry, err := s.entryService.Mine(c.UserContext(), user.ID, state.Date, state.PromptID)
		if err != nil {
			return respondErr(c, err)
		}
		if entry != nil {
			response = fiber.Map{"has_responded": true, "entry": entry}
		}
	}

	body := fiber.Map{
		"success":           true,
		"has_prompt":        p != nil,
		"daily_prompt_info": newDailyPromptInfo(state),
		"user_response":     response,
		"streak": fiber.Map{
			"current_count": 0,
			"longest_count": 0,
		},
	}
	if p != nil {
		body["prompt"] = fiber.Map{
			"id":   p.ID,
			"text": p.Text,
			"tags": p.Tags,
		}
	}
	return c.JSON(body)
}

// SubmitEntry handles POST /api/daily-prompt
// @Summary Answer today's prompt
// @Description Creates the caller's response to today's prompt, or replaces it when one exists
// @Tags daily-prompt
// @Accept json
// @Produce json
// @Param request body object{text=string,photo_url=string} true "Response"
// @Success 200 {object} object{success=bool,entry=models.Entry,prompt=models.Prompt,created=bool}
// @Success 201 {object} object{success=bool,entry=models.Entry,prompt=models.Prompt,created=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /daily-prompt [post]
func (s *Server) SubmitEntry(c *fiber.Ctx) error {
	var req struct {
		Text     string  `json:"text"`
		PhotoURL *string `json:"photo_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	// Reject bad input before touching the store.
	if _, err := service.NormalizeEntryText(req.Text); err != nil {
		return respondErr(c, err)
	}

	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	res, err := s.entryService.Record(c.UserContext(), user, service.RecordInput{
		Text:     req.Text,
		PhotoURL: req.PhotoURL,
	}, s.clock())
	if err != nil {
		return respondErr(c, err)
	}

	status := fiber.StatusOK
	if res.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"entry":   res.Entry,
		"prompt":  res.Prompt,
		"created": res.Created,
	})
}

// GeneratePrompt handles POST /api/prompts/generate
// @Summary Generate a prompt
// @Description Produces a fresh prompt without changing today's assignment
// @Tags daily-prompt
// @Produce json
// @Success 200 {object} object{success=bool,prompt=string,generated_by=string}
// @Security BearerAuth
// @Router /prompts/generate [post]
func (s *Server) GeneratePrompt(c *fiber.Ctx) error {
	res, err := s.dailyPromptService.Generate(c.UserContext(), s.clock())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"prompt":       res.Text,
		"tags":         res.Tags,
		"generated_by": res.Source,
	})
}

// OverridePrompt handles POST /api/admin/override-prompt
// @Summary Override today's prompt
// @Description Replaces today's prompt for everyone. Authenticated by the shared secret in the body.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body object{promptText=string,secret=string} true "Override"
// @Success 200 {object} object{success=bool,message=string,prompt=models.Prompt,date=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /admin/override-prompt [post]
func (s *Server) OverridePrompt(c *fiber.Ctx) error {
	if s.config.CronSecret == "" {
		middleware.Logger.ErrorContext(c.UserContext(), "CRON_SECRET is not configured")
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewConfigError("Server configuration error"))
	}

	var req struct {
		PromptText string `json:"promptText"`
		Secret     string `json:"secret"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if !middleware.SecretMatches(s.config.CronSecret, req.Secret) {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Unauthorized"))
	}

	dp, err := s.dailyPromptService.Override(c.UserContext(), s.clock().UTC(), req.PromptText)
	if err != nil {
		return respondErr(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Daily prompt overridden",
		"prompt":  dp.Prompt,
		"date":    dp.Date,
	})
}
