package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shams-vision/internal/adapters/persistence/models"
	"shams-vision/internal/core/services"
	"shams-vision/internal/pkg/pagination"
	"shams-vision/internal/pkg/response"
)

// PointsHandler handles points and penalty endpoints
type PointsHandler struct {
	pointsService *services.PointsService
}

// NewPointsHandler creates a new points handler
func NewPointsHandler(pointsService *services.PointsService) *PointsHandler {
	return &PointsHandler{pointsService: pointsService}
}

// RedeemRequest represents redemption request body
type RedeemRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// IssuePenaltyRequest represents manual penalty request body
type IssuePenaltyRequest struct {
	UserID         uint    `json:"user_id"`
	Amount         float64 `json:"amount"`
	PointsDeducted int64   `json:"points_deducted"`
	PenaltyType    string  `json:"penalty_type"`
	Reason         string  `json:"reason"`
}

// PenaltyStatusRequest represents penalty status change request body
type PenaltyStatusRequest struct {
	Status string `json:"status"`
}

// Balance returns the current user's points balance
// @Summary Points balance
// @Description Get the current user's points balance
// @Tags Points
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /points/balance [get]
func (h *PointsHandler) Balance(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	balance, err := h.pointsService.GetBalance(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get balance")
	}

	return response.Success(c, "Balance retrieved", balance)
}

// Transactions returns the current user's ledger history
// @Summary Points transactions
// @Description List the current user's points ledger entries
// @Tags Points
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /points/transactions [get]
func (h *PointsHandler) Transactions(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)

	txns, total, err := h.pointsService.ListTransactions(c.Context(), userID, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list transactions")
	}

	return response.Success(c, "Transactions retrieved", pagination.NewResponse(txns, params, total))
}

// Redeem spends available points
// @Summary Redeem points
// @Description Spend available points
// @Tags Points
// @Accept json
// @Produce json
// @Param body body RedeemRequest true "Redemption data"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /points/redeem [post]
func (h *PointsHandler) Redeem(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req RedeemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	err := h.pointsService.RedeemPoints(c.Context(), userID, req.Amount, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAmount):
			return response.BadRequest(c, "Amount must be positive")
		case errors.Is(err, services.ErrInsufficientPoints):
			return response.ConflictCode(c, "INSUFFICIENT_POINTS", "Not enough available points")
		default:
			return response.InternalServerError(c, "Failed to redeem points")
		}
	}

	balance, err := h.pointsService.GetBalance(c.Context(), userID)
	if err != nil {
		return response.Success(c, "Points redeemed", nil)
	}
	return response.Success(c, "Points redeemed", balance)
}

// Leaderboard returns the top agents by lifetime points
// @Summary Points leaderboard
// @Description Top balances ranked by lifetime points
// @Tags Points
// @Produce json
// @Param limit query int false "Number of entries (default 10)"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /points/leaderboard [get]
func (h *PointsHandler) Leaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 100 {
		limit = 10
	}

	board, err := h.pointsService.Leaderboard(c.Context(), limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to get leaderboard")
	}

	return response.Success(c, "Leaderboard retrieved", board)
}

// ListPenalties returns penalties
// @Summary List penalties
// @Description List penalties, agents see only their own
// @Tags Penalties
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /penalties [get]
func (h *PointsHandler) ListPenalties(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)

	// Managers can filter by user, agents are pinned to themselves
	role, _ := c.Locals("role").(string)
	filterUser := userID
	if role == models.RoleManager || role == models.RoleAdmin {
		filterUser = uint(c.QueryInt("user_id", 0))
	}

	penalties, total, err := h.pointsService.ListPenalties(c.Context(), filterUser, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list penalties")
	}

	return response.Success(c, "Penalties retrieved", pagination.NewResponse(penalties, params, total))
}

// IssuePenalty records a manual penalty (manager only)
// @Summary Issue penalty
// @Description Issue a manual penalty against an agent
// @Tags Penalties
// @Accept json
// @Produce json
// @Param body body IssuePenaltyRequest true "Penalty data"
// @Security BearerAuth
// @Success 201 {object} response.Response
// @Router /penalties [post]
func (h *PointsHandler) IssuePenalty(c *fiber.Ctx) error {
	issuerID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req IssuePenaltyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User ID is required")
	}
	if req.Reason == "" {
		return response.BadRequest(c, "Reason is required")
	}
	if req.PenaltyType != models.PenaltyTypeFinancial && req.PenaltyType != models.PenaltyTypeWarning {
		return response.BadRequest(c, "Penalty type must be FINANCIAL or WARNING")
	}

	penalty := &models.Penalty{
		UserID:         req.UserID,
		Amount:         req.Amount,
		PointsDeducted: req.PointsDeducted,
		PenaltyType:    req.PenaltyType,
		Reason:         req.Reason,
		Status:         models.PenaltyStatusIssued,
		IssuedBy:       &issuerID,
	}
	if err := h.pointsService.IssuePenalty(c.Context(), penalty); err != nil {
		return response.InternalServerError(c, "Failed to issue penalty")
	}

	return response.Created(c, "Penalty issued", penalty)
}

// UpdatePenaltyStatus moves a penalty through its workflow
// @Summary Update penalty status
// @Description Mark a penalty paid or disputed
// @Tags Penalties
// @Accept json
// @Produce json
// @Param id path int true "Penalty ID"
// @Param body body PenaltyStatusRequest true "New status"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /penalties/{id}/status [patch]
func (h *PointsHandler) UpdatePenaltyStatus(c *fiber.Ctx) error {
	penaltyID, err := c.ParamsInt("id")
	if err != nil || penaltyID <= 0 {
		return response.BadRequest(c, "Invalid penalty ID")
	}

	var req PenaltyStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	switch req.Status {
	case models.PenaltyStatusPaid, models.PenaltyStatusDisputed, models.PenaltyStatusIssued:
	default:
		return response.BadRequest(c, "Invalid penalty status")
	}

	penalty, err := h.pointsService.UpdatePenaltyStatus(c.Context(), uint(penaltyID), req.Status)
	if err != nil {
		return response.NotFound(c, "Penalty not found")
	}

	return response.Success(c, "Penalty status updated", penalty)
}
