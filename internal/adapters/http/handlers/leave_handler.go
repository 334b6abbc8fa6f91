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

// LeaveHandler handles leave request endpoints
type LeaveHandler struct {
	leaveService *services.LeaveService
}

// NewLeaveHandler creates a new leave handler
func NewLeaveHandler(leaveService *services.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaveService: leaveService}
}

// SubmitLeaveRequest represents leave submission request body
type SubmitLeaveRequest struct {
	LeaveType   string `json:"leave_type"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
	DocumentID  *uint  `json:"document_id"`
}

// ReviewLeaveRequest represents leave review request body
type ReviewLeaveRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

// Submit files a new leave request
// @Summary Submit leave request
// @Description File a new sick or casual leave request
// @Tags Leaves
// @Accept json
// @Produce json
// @Param body body SubmitLeaveRequest true "Leave data"
// @Security BearerAuth
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /leaves [post]
func (h *LeaveHandler) Submit(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req SubmitLeaveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return response.BadRequest(c, "Invalid start date, use YYYY-MM-DD")
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return response.BadRequest(c, "Invalid end date, use YYYY-MM-DD")
	}

	leave, err := h.leaveService.Submit(c.Context(), userID, req.LeaveType, startDate, endDate, req.Description, req.DocumentID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLeaveInvalidType):
			return response.BadRequest(c, "Leave type must be SICK or CASUAL")
		case errors.Is(err, services.ErrLeaveInvalidDates):
			return response.BadRequest(c, "End date must not be before start date")
		case errors.Is(err, services.ErrLeaveStartsInPast):
			return response.BadRequest(c, "Leave cannot start in the past")
		case errors.Is(err, services.ErrLeaveOverlapping):
			return response.Conflict(c, "An overlapping leave request already exists")
		default:
			return response.InternalServerError(c, "Failed to submit leave request")
		}
	}

	return response.Created(c, "Leave request submitted", leave)
}

// Cancel withdraws the requester's own pending request
// @Summary Cancel leave request
// @Description Withdraw a pending leave request
// @Tags Leaves
// @Produce json
// @Param id path int true "Leave request ID"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /leaves/{id}/cancel [post]
func (h *LeaveHandler) Cancel(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	leaveID, err := c.ParamsInt("id")
	if err != nil || leaveID <= 0 {
		return response.BadRequest(c, "Invalid leave request ID")
	}

	leave, err := h.leaveService.Cancel(c.Context(), uint(leaveID), userID)
	if err != nil {
		return h.mapLeaveError(c, err, "Failed to cancel leave request")
	}

	return response.Success(c, "Leave request cancelled", leave)
}

// Review approves or rejects a pending request (manager only)
// @Summary Review leave request
// @Description Approve or reject a pending leave request
// @Tags Leaves
// @Accept json
// @Produce json
// @Param id path int true "Leave request ID"
// @Param body body ReviewLeaveRequest true "Review decision"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /leaves/{id}/review [post]
func (h *LeaveHandler) Review(c *fiber.Ctx) error {
	reviewerID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	leaveID, err := c.ParamsInt("id")
	if err != nil || leaveID <= 0 {
		return response.BadRequest(c, "Invalid leave request ID")
	}

	var req ReviewLeaveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	leave, err := h.leaveService.Review(c.Context(), uint(leaveID), reviewerID, req.Approve, req.Note)
	if err != nil {
		return h.mapLeaveError(c, err, "Failed to review leave request")
	}

	return response.Success(c, "Leave request reviewed", leave)
}

// Get retrieves one leave request
// @Summary Get leave request
// @Description Get a leave request by ID
// @Tags Leaves
// @Produce json
// @Param id path int true "Leave request ID"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /leaves/{id} [get]
func (h *LeaveHandler) Get(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	leaveID, err := c.ParamsInt("id")
	if err != nil || leaveID <= 0 {
		return response.BadRequest(c, "Invalid leave request ID")
	}

	leave, err := h.leaveService.Get(c.Context(), uint(leaveID))
	if err != nil {
		return h.mapLeaveError(c, err, "Failed to get leave request")
	}

	// Agents can only see their own requests
	role, _ := c.Locals("role").(string)
	if role == models.RoleFieldAgent && leave.RequesterID != userID {
		return response.Forbidden(c, "Leave request belongs to another user")
	}

	return response.Success(c, "Leave request retrieved", leave)
}

// List retrieves leave requests
// @Summary List leave requests
// @Description List leave requests, agents see only their own
// @Tags Leaves
// @Produce json
// @Param status query string false "Leave status"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /leaves [get]
func (h *LeaveHandler) List(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)

	role, _ := c.Locals("role").(string)
	filterUser := userID
	if role == models.RoleManager || role == models.RoleAdmin {
		filterUser = uint(c.QueryInt("user_id", 0))
	}

	leaves, total, err := h.leaveService.List(c.Context(), filterUser, c.Query("status"), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list leave requests")
	}

	return response.Success(c, "Leave requests retrieved", pagination.NewResponse(leaves, params, total))
}

// mapLeaveError converts leave workflow errors to HTTP responses
func (h *LeaveHandler) mapLeaveError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrLeaveNotFound):
		return response.NotFound(c, "Leave request not found")
	case errors.Is(err, services.ErrLeaveNotOwned):
		return response.Forbidden(c, "Leave request belongs to another user")
	case errors.Is(err, services.ErrLeaveNotPending):
		return response.Conflict(c, "Leave request already reviewed")
	case errors.Is(err, services.ErrLeaveSelfReview):
		return response.Forbidden(c, "Cannot review your own leave request")
	default:
		return response.InternalServerError(c, fallback)
	}
}
