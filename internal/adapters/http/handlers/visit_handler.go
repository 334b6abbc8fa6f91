package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shams-vision/internal/adapters/persistence/models"
	"shams-vision/internal/core/services"
	"shams-vision/internal/pkg/pagination"
	"shams-vision/internal/pkg/response"
)

// VisitHandler handles store visit endpoints
type VisitHandler struct {
	visitService *services.VisitService
}

// NewVisitHandler creates a new visit handler
func NewVisitHandler(visitService *services.VisitService) *VisitHandler {
	return &VisitHandler{visitService: visitService}
}

// StartVisitRequest represents start-visit request body
type StartVisitRequest struct {
	RouteID   uint     `json:"route_id"`
	StoreID   uint     `json:"store_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// SkipVisitRequest represents skip-visit request body
type SkipVisitRequest struct {
	RouteID uint `json:"route_id"`
	StoreID uint `json:"store_id"`
}

// FlagVisitRequest represents flag-visit request body
type FlagVisitRequest struct {
	Reason  string `json:"reason"`
	Details string `json:"details"`
}

// AddImageRequest represents add-image request body
type AddImageRequest struct {
	ObjectKey string `json:"object_key"`
	ImageType string `json:"image_type"`
}

// ReviewImageRequest represents image review request body
type ReviewImageRequest struct {
	Status string `json:"status"`
}

// ResolveFlagRequest represents flag resolution request body
type ResolveFlagRequest struct {
	Note string `json:"note"`
}

// Start opens a visit at a store on the agent's route
// @Summary Start store visit
// @Description Open a visit at a pending stop on the agent's route
// @Tags Visits
// @Accept json
// @Produce json
// @Param body body StartVisitRequest true "Visit data"
// @Security BearerAuth
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /visits [post]
func (h *VisitHandler) Start(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req StartVisitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.RouteID == 0 || req.StoreID == 0 {
		return response.BadRequest(c, "Route ID and store ID are required")
	}

	visit, err := h.visitService.StartVisit(c.Context(), userID, req.RouteID, req.StoreID, req.Latitude, req.Longitude)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStoreNotOnRoute):
			return response.NotFound(c, "Store is not a stop on this route")
		case errors.Is(err, services.ErrStopAlreadyHandled):
			return response.Conflict(c, "Store already visited or skipped on this route")
		case errors.Is(err, services.ErrVisitAlreadyStarted):
			return response.Conflict(c, "A visit to this store is already in progress")
		case errors.Is(err, services.ErrInvalidLocation):
			return response.BadRequest(c, "Invalid location coordinates")
		default:
			return response.InternalServerError(c, "Failed to start visit")
		}
	}

	return response.Created(c, "Visit started", visit)
}

// Complete submits an in-progress visit
// @Summary Complete store visit
// @Description Submit a visit, mark the stop visited and award points
// @Tags Visits
// @Accept json
// @Produce json
// @Param id path int true "Visit ID"
// @Param body body LocationRequest false "Optional GPS location"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /visits/{id}/complete [post]
func (h *VisitHandler) Complete(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	visitID, err := c.ParamsInt("id")
	if err != nil || visitID <= 0 {
		return response.BadRequest(c, "Invalid visit ID")
	}

	var req LocationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	visit, err := h.visitService.CompleteVisit(c.Context(), userID, uint(visitID), req.Latitude, req.Longitude)
	if err != nil {
		return h.mapVisitError(c, err, "Failed to complete visit")
	}

	return response.Success(c, "Visit completed", visit)
}

// Skip skips a pending stop with the missed visit sanction
// @Summary Skip store visit
// @Description Skip a pending stop, applying the missed visit penalty
// @Tags Visits
// @Accept json
// @Produce json
// @Param body body SkipVisitRequest true "Skip data"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /visits/skip [post]
func (h *VisitHandler) Skip(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req SkipVisitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.RouteID == 0 || req.StoreID == 0 {
		return response.BadRequest(c, "Route ID and store ID are required")
	}

	penalty, err := h.visitService.SkipVisit(c.Context(), userID, req.RouteID, req.StoreID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStoreNotOnRoute):
			return response.NotFound(c, "Store is not a stop on this route")
		case errors.Is(err, services.ErrStopAlreadyHandled):
			return response.Conflict(c, "Store already visited or skipped on this route")
		default:
			return response.InternalServerError(c, "Failed to skip visit")
		}
	}

	return response.Success(c, "Visit skipped, penalty applied", penalty)
}

// Flag flags an in-progress visit for manager review
// @Summary Flag store
// @Description Flag a store that could not be serviced, no penalty
// @Tags Visits
// @Accept json
// @Produce json
// @Param id path int true "Visit ID"
// @Param body body FlagVisitRequest true "Flag data"
// @Security BearerAuth
// @Success 201 {object} response.Response
// @Router /visits/{id}/flag [post]
func (h *VisitHandler) Flag(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	visitID, err := c.ParamsInt("id")
	if err != nil || visitID <= 0 {
		return response.BadRequest(c, "Invalid visit ID")
	}

	var req FlagVisitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	flag, err := h.visitService.FlagVisit(c.Context(), userID, uint(visitID), req.Reason, req.Details)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFlagReason) {
			return response.BadRequest(c, "Invalid flag reason")
		}
		return h.mapVisitError(c, err, "Failed to flag visit")
	}

	return response.Created(c, "Store flagged for review", flag)
}

// AddImage attaches a captured photo to an in-progress visit
// @Summary Add visit image
// @Description Attach an uploaded image to an in-progress visit
// @Tags Visits
// @Accept json
// @Produce json
// @Param id path int true "Visit ID"
// @Param body body AddImageRequest true "Image data"
// @Security BearerAuth
// @Success 201 {object} response.Response
// @Router /visits/{id}/images [post]
func (h *VisitHandler) AddImage(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	visitID, err := c.ParamsInt("id")
	if err != nil || visitID <= 0 {
		return response.BadRequest(c, "Invalid visit ID")
	}

	var req AddImageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.ObjectKey == "" {
		return response.BadRequest(c, "Object key is required")
	}

	image, err := h.visitService.AddImage(c.Context(), userID, uint(visitID), req.ObjectKey, req.ImageType)
	if err != nil {
		return h.mapVisitError(c, err, "Failed to add image")
	}

	return response.Created(c, "Image added", image)
}

// ReviewImage records a quality decision for an image
// @Summary Review visit image
// @Description Approve or reject a visit image and rescore the visit
// @Tags Visits
// @Accept json
// @Produce json
// @Param id path int true "Image ID"
// @Param body body ReviewImageRequest true "Review decision"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /visits/images/{id}/review [post]
func (h *VisitHandler) ReviewImage(c *fiber.Ctx) error {
	reviewerID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	imageID, err := c.ParamsInt("id")
	if err != nil || imageID <= 0 {
		return response.BadRequest(c, "Invalid image ID")
	}

	var req ReviewImageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	image, err := h.visitService.ReviewImage(c.Context(), reviewerID, uint(imageID), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidQualityStatus):
			return response.BadRequest(c, "Status must be APPROVED or REJECTED")
		case errors.Is(err, services.ErrImageAlreadyDecided):
			return response.Conflict(c, "Image has already been reviewed")
		case errors.Is(err, services.ErrVisitNotFound):
			return response.NotFound(c, "Image not found")
		default:
			return response.InternalServerError(c, "Failed to review image")
		}
	}

	return response.Success(c, "Image reviewed", image)
}

// Get retrieves one visit with its store and images
// @Summary Get visit
// @Description Get a visit with its store and images
// @Tags Visits
// @Produce json
// @Param id path int true "Visit ID"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /visits/{id} [get]
func (h *VisitHandler) Get(c *fiber.Ctx) error {
	visitID, err := c.ParamsInt("id")
	if err != nil || visitID <= 0 {
		return response.BadRequest(c, "Invalid visit ID")
	}

	visit, err := h.visitService.GetVisit(c.Context(), uint(visitID))
	if err != nil {
		if errors.Is(err, services.ErrVisitNotFound) {
			return response.NotFound(c, "Visit not found")
		}
		return response.InternalServerError(c, "Failed to get visit")
	}

	return response.Success(c, "Visit retrieved", visit)
}

// List retrieves visits with filters
// @Summary List visits
// @Description List visits filtered by route and status
// @Tags Visits
// @Produce json
// @Param route_id query int false "Route ID"
// @Param status query string false "Visit status"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /visits [get]
func (h *VisitHandler) List(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)
	routeID := uint(c.QueryInt("route_id", 0))
	status := c.Query("status")

	// Managers see everyone's visits, agents only their own
	role, _ := c.Locals("role").(string)
	filterUser := userID
	if role == models.RoleManager || role == models.RoleAdmin {
		filterUser = uint(c.QueryInt("user_id", 0))
	}

	visits, total, err := h.visitService.ListVisits(c.Context(), filterUser, routeID, status, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list visits")
	}

	return response.Success(c, "Visits retrieved", pagination.NewResponse(visits, params, total))
}

// ListFlags retrieves store flags for review
// @Summary List flagged stores
// @Description List store flags, optionally only unresolved ones
// @Tags Visits
// @Produce json
// @Param unresolved query bool false "Only unresolved flags"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /visits/flags [get]
func (h *VisitHandler) ListFlags(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	unresolvedOnly := c.QueryBool("unresolved", false)

	flags, total, err := h.visitService.ListFlags(c.Context(), unresolvedOnly, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list flags")
	}

	return response.Success(c, "Flags retrieved", pagination.NewResponse(flags, params, total))
}

// ResolveFlag closes a store flag
// @Summary Resolve flagged store
// @Description Close a store flag with a resolution note
// @Tags Visits
// @Accept json
// @Produce json
// @Param id path int true "Flag ID"
// @Param body body ResolveFlagRequest true "Resolution"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /visits/flags/{id}/resolve [post]
func (h *VisitHandler) ResolveFlag(c *fiber.Ctx) error {
	reviewerID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	flagID, err := c.ParamsInt("id")
	if err != nil || flagID <= 0 {
		return response.BadRequest(c, "Invalid flag ID")
	}

	var req ResolveFlagRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.visitService.ResolveFlag(c.Context(), uint(flagID), reviewerID, req.Note); err != nil {
		return response.InternalServerError(c, "Failed to resolve flag")
	}

	return response.Success(c, "Flag resolved", nil)
}

// mapVisitError converts visit state errors to HTTP responses
func (h *VisitHandler) mapVisitError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrVisitNotFound):
		return response.NotFound(c, "Visit not found")
	case errors.Is(err, services.ErrVisitNotOwned):
		return response.Forbidden(c, "Visit belongs to another agent")
	case errors.Is(err, services.ErrVisitNotOpen):
		return response.Conflict(c, "Visit is not in progress")
	case errors.Is(err, services.ErrInvalidLocation):
		return response.BadRequest(c, "Invalid location coordinates")
	default:
		return response.InternalServerError(c, fallback)
	}
}
