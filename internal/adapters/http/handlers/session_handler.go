package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"shams-vision/internal/adapters/persistence/models"
	"shams-vision/internal/core/services"
	"shams-vision/internal/pkg/pagination"
	"shams-vision/internal/pkg/response"
)

// SessionHandler handles work session endpoints
type SessionHandler struct {
	sessionService *services.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// LocationRequest carries an optional GPS fix
type LocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// BreakRequest represents take-break request body
type BreakRequest struct {
	RouteID *uint `json:"route_id"`
}

// CheckIn opens today's work session
// @Summary Check in
// @Description Start today's work session for the current agent
// @Tags Sessions
// @Accept json
// @Produce json
// @Param body body LocationRequest false "Optional GPS location"
// @Security BearerAuth
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /sessions/check-in [post]
func (h *SessionHandler) CheckIn(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req LocationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	session, err := h.sessionService.CheckIn(c.Context(), userID, req.Latitude, req.Longitude)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyCheckedIn):
			return response.ConflictCode(c, "ALREADY_CHECKED_IN", "Already checked in for this shift")
		case errors.Is(err, services.ErrInvalidLocation):
			return response.BadRequest(c, "Invalid location coordinates")
		default:
			return response.InternalServerError(c, "Failed to check in")
		}
	}

	return response.Created(c, "Checked in successfully", h.sessionService.SessionResponse(session))
}

// TakeBreak pauses the active session
// @Summary Take break
// @Description Pause the active work session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param body body BreakRequest false "Optional route reference"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /sessions/break [post]
func (h *SessionHandler) TakeBreak(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req BreakRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	session, err := h.sessionService.TakeBreak(c.Context(), userID, req.RouteID)
	if err != nil {
		return h.mapSessionError(c, err, "Failed to take break")
	}

	return response.Success(c, "Break started", h.sessionService.SessionResponse(session))
}

// Resume ends the current break
// @Summary Resume work
// @Description End the current break and resume the session
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /sessions/resume [post]
func (h *SessionHandler) Resume(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	session, err := h.sessionService.Resume(c.Context(), userID)
	if err != nil {
		return h.mapSessionError(c, err, "Failed to resume")
	}

	return response.Success(c, "Work resumed", h.sessionService.SessionResponse(session))
}

// CheckOut closes today's work session
// @Summary Check out
// @Description End today's work session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param body body LocationRequest false "Optional GPS location"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /sessions/check-out [post]
func (h *SessionHandler) CheckOut(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req LocationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	session, err := h.sessionService.CheckOut(c.Context(), userID, req.Latitude, req.Longitude)
	if err != nil {
		return h.mapSessionError(c, err, "Failed to check out")
	}

	return response.Success(c, "Checked out successfully", h.sessionService.SessionResponse(session))
}

// Status returns today's session with computed durations
// @Summary Session status
// @Description Get today's session with worked, break and remaining time
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /sessions/status [get]
func (h *SessionHandler) Status(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	session, err := h.sessionService.GetStatus(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNoActiveSession) {
			return response.NotFound(c, "No session found for today")
		}
		return response.InternalServerError(c, "Failed to get session status")
	}

	return response.Success(c, "Session status retrieved", h.sessionService.SessionResponse(session))
}

// History lists the current user's past sessions
// @Summary Session history
// @Description List the current user's sessions within a date range
// @Tags Sessions
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param user_id query int false "Agent ID (managers only)"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /sessions [get]
func (h *SessionHandler) History(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	// Managers and admins may read another agent's history
	role, _ := c.Locals("role").(string)
	if role == models.RoleManager || role == models.RoleAdmin {
		if v := c.QueryInt("user_id"); v > 0 {
			userID = uint(v)
		}
	}

	params := pagination.GetParams(c)

	var from, to time.Time
	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return response.BadRequest(c, "Invalid from date, use YYYY-MM-DD")
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return response.BadRequest(c, "Invalid to date, use YYYY-MM-DD")
		}
		to = parsed
	}

	sessions, total, err := h.sessionService.ListSessions(c.Context(), userID, from, to, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list sessions")
	}

	return response.Success(c, "Sessions retrieved", pagination.NewResponse(sessions, params, total))
}

// Breaks lists the break records of one session
// @Summary Session breaks
// @Description List the break records of a session
// @Tags Sessions
// @Produce json
// @Param id path int true "Session ID"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /sessions/{id}/breaks [get]
func (h *SessionHandler) Breaks(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	sessionID, err := c.ParamsInt("id")
	if err != nil || sessionID <= 0 {
		return response.BadRequest(c, "Invalid session ID")
	}

	role, _ := c.Locals("role").(string)
	privileged := role == models.RoleManager || role == models.RoleAdmin

	breaks, err := h.sessionService.ListBreaks(c.Context(), uint(sessionID), userID, privileged)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotOwned):
			return response.Forbidden(c, "You can only view your own sessions")
		case errors.Is(err, services.ErrNoActiveSession):
			return response.NotFound(c, "Session not found")
		default:
			return response.InternalServerError(c, "Failed to list breaks")
		}
	}

	return response.Success(c, "Breaks retrieved", breaks)
}

// mapSessionError converts session state errors to HTTP responses
func (h *SessionHandler) mapSessionError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrNoActiveSession):
		return response.NotFound(c, "No session found for today, check in first")
	case errors.Is(err, services.ErrSessionCompleted):
		return response.ConflictCode(c, "SESSION_COMPLETED", "Session already completed")
	case errors.Is(err, services.ErrAlreadyCheckedOut):
		return response.ConflictCode(c, "ALREADY_CHECKED_OUT", "Already checked out")
	case errors.Is(err, services.ErrAlreadyOnBreak):
		return response.ConflictCode(c, "ALREADY_ON_BREAK", "A break is already in progress")
	case errors.Is(err, services.ErrNoBreakInProgress):
		return response.ConflictCode(c, "NO_BREAK_IN_PROGRESS", "No break in progress")
	case errors.Is(err, services.ErrOnBreak):
		return response.ConflictCode(c, "ON_BREAK", "Resume from break before checking out")
	case errors.Is(err, services.ErrInvalidLocation):
		return response.BadRequest(c, "Invalid location coordinates")
	default:
		return response.InternalServerError(c, fallback)
	}
}
