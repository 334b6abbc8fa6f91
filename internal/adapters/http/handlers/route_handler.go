package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"shams-vision/internal/adapters/persistence/models"
	"shams-vision/internal/core/domain"
	"shams-vision/internal/core/services"
	"shams-vision/internal/pkg/pagination"
	"shams-vision/internal/pkg/response"
)

// RouteHandler handles store and route endpoints
type RouteHandler struct {
	routeService *services.RouteService
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(routeService *services.RouteService) *RouteHandler {
	return &RouteHandler{routeService: routeService}
}

// StoreRequest represents store create/update request body
type StoreRequest struct {
	Name      string   `json:"name"`
	Code      string   `json:"code"`
	Address   string   `json:"address"`
	District  string   `json:"district"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Priority  string   `json:"priority"`
	Status    string   `json:"status"`
}

// CreateRouteRequest represents route creation request body
type CreateRouteRequest struct {
	Name       string `json:"name"`
	AssignedTo uint   `json:"assigned_to"`
	RouteDate  string `json:"route_date"`
	StoreIDs   []uint `json:"store_ids"`
}

// CreateStore creates a new store (manager only)
// @Summary Create store
// @Description Create a new store in master data
// @Tags Stores
// @Accept json
// @Produce json
// @Param body body StoreRequest true "Store data"
// @Security BearerAuth
// @Success 201 {object} response.Response
// @Router /stores [post]
func (h *RouteHandler) CreateStore(c *fiber.Ctx) error {
	var req StoreRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Name == "" {
		return response.BadRequest(c, "Store name is required")
	}

	store := &models.Store{
		Name:      req.Name,
		Code:      req.Code,
		Address:   req.Address,
		District:  req.District,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Priority:  req.Priority,
		Status:    req.Status,
	}
	if err := h.routeService.CreateStore(c.Context(), store); err != nil {
		return response.InternalServerError(c, "Failed to create store")
	}

	return response.Created(c, "Store created", store)
}

// GetStore retrieves a store
// @Summary Get store
// @Description Get a store by ID
// @Tags Stores
// @Produce json
// @Param id path int true "Store ID"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /stores/{id} [get]
func (h *RouteHandler) GetStore(c *fiber.Ctx) error {
	storeID, err := c.ParamsInt("id")
	if err != nil || storeID <= 0 {
		return response.BadRequest(c, "Invalid store ID")
	}

	store, err := h.routeService.GetStore(c.Context(), uint(storeID))
	if err != nil {
		if errors.Is(err, services.ErrStoreNotFound) {
			return response.NotFound(c, "Store not found")
		}
		return response.InternalServerError(c, "Failed to get store")
	}

	return response.Success(c, "Store retrieved", store)
}

// ListStores retrieves stores with filters
// @Summary List stores
// @Description List active stores filtered by district and priority
// @Tags Stores
// @Produce json
// @Param district query string false "District"
// @Param priority query string false "Priority"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /stores [get]
func (h *RouteHandler) ListStores(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	stores, total, err := h.routeService.ListStores(c.Context(), c.Query("district"), c.Query("priority"), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list stores")
	}

	return response.Success(c, "Stores retrieved", pagination.NewResponse(stores, params, total))
}

// UpdateStore updates a store (manager only)
// @Summary Update store
// @Description Update a store's master data
// @Tags Stores
// @Accept json
// @Produce json
// @Param id path int true "Store ID"
// @Param body body StoreRequest true "Store data"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /stores/{id} [put]
func (h *RouteHandler) UpdateStore(c *fiber.Ctx) error {
	storeID, err := c.ParamsInt("id")
	if err != nil || storeID <= 0 {
		return response.BadRequest(c, "Invalid store ID")
	}

	store, err := h.routeService.GetStore(c.Context(), uint(storeID))
	if err != nil {
		if errors.Is(err, services.ErrStoreNotFound) {
			return response.NotFound(c, "Store not found")
		}
		return response.InternalServerError(c, "Failed to get store")
	}

	var req StoreRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Name != "" {
		store.Name = req.Name
	}
	if req.Address != "" {
		store.Address = req.Address
	}
	if req.District != "" {
		store.District = req.District
	}
	if req.Latitude != nil {
		store.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		store.Longitude = req.Longitude
	}
	if req.Priority != "" {
		store.Priority = req.Priority
	}
	if req.Status != "" {
		store.Status = req.Status
	}

	if err := h.routeService.UpdateStore(c.Context(), store); err != nil {
		return response.InternalServerError(c, "Failed to update store")
	}

	return response.Success(c, "Store updated", store)
}

// CreateRoute plans a new route (manager only)
// @Summary Create route
// @Description Plan a route of ordered stores for a field agent
// @Tags Routes
// @Accept json
// @Produce json
// @Param body body CreateRouteRequest true "Route data"
// @Security BearerAuth
// @Success 201 {object} response.Response
// @Router /routes [post]
func (h *RouteHandler) CreateRoute(c *fiber.Ctx) error {
	var req CreateRouteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Name == "" {
		return response.BadRequest(c, "Route name is required")
	}
	if req.AssignedTo == 0 {
		return response.BadRequest(c, "Assignee is required")
	}

	routeDate, err := time.Parse("2006-01-02", req.RouteDate)
	if err != nil {
		return response.BadRequest(c, "Invalid route date, use YYYY-MM-DD")
	}

	route, err := h.routeService.CreateRoute(c.Context(), req.Name, req.AssignedTo, routeDate, req.StoreIDs)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyRoute):
			return response.BadRequest(c, "Route needs at least one store")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "Assignee not found")
		case errors.Is(err, services.ErrAssigneeNotAgent):
			return response.BadRequest(c, "Routes can only be assigned to field agents")
		case errors.Is(err, services.ErrStoreNotFound):
			return response.NotFound(c, "One of the stores does not exist")
		default:
			return response.InternalServerError(c, "Failed to create route")
		}
	}

	return response.Created(c, "Route created", route)
}

// GetRoute retrieves a route with its ordered stops
// @Summary Get route
// @Description Get a route with its ordered stops and stores
// @Tags Routes
// @Produce json
// @Param id path int true "Route ID"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /routes/{id} [get]
func (h *RouteHandler) GetRoute(c *fiber.Ctx) error {
	routeID, err := c.ParamsInt("id")
	if err != nil || routeID <= 0 {
		return response.BadRequest(c, "Invalid route ID")
	}

	route, err := h.routeService.GetRoute(c.Context(), uint(routeID))
	if err != nil {
		if errors.Is(err, services.ErrRouteNotFound) {
			return response.NotFound(c, "Route not found")
		}
		return response.InternalServerError(c, "Failed to get route")
	}

	return response.Success(c, "Route retrieved", route)
}

// ListRoutes retrieves routes with filters
// @Summary List routes
// @Description List routes filtered by date and status, agents see only their own
// @Tags Routes
// @Produce json
// @Param date query string false "Route date (YYYY-MM-DD)"
// @Param status query string false "Route status"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /routes [get]
func (h *RouteHandler) ListRoutes(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)

	var routeDate time.Time
	if v := c.Query("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return response.BadRequest(c, "Invalid date, use YYYY-MM-DD")
		}
		routeDate = parsed
	}

	// Agents are pinned to their own routes
	role, _ := c.Locals("role").(string)
	assignedTo := userID
	if role == models.RoleManager || role == models.RoleAdmin {
		assignedTo = uint(c.QueryInt("user_id", 0))
	}

	routes, total, err := h.routeService.ListRoutes(c.Context(), assignedTo, routeDate, c.Query("status"), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list routes")
	}

	return response.Success(c, "Routes retrieved", pagination.NewResponse(routes, params, total))
}

// ActivateRoute starts a planned route
// @Summary Activate route
// @Description Agent starts their planned route
// @Tags Routes
// @Produce json
// @Param id path int true "Route ID"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /routes/{id}/activate [post]
func (h *RouteHandler) ActivateRoute(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	routeID, err := c.ParamsInt("id")
	if err != nil || routeID <= 0 {
		return response.BadRequest(c, "Invalid route ID")
	}

	route, err := h.routeService.ActivateRoute(c.Context(), uint(routeID), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRouteNotFound):
			return response.NotFound(c, "Route not found")
		case errors.Is(err, services.ErrRouteNotAssignedTo):
			return response.Forbidden(c, "Route is assigned to another agent")
		case errors.Is(err, services.ErrRouteNotActive):
			return response.Conflict(c, "Route is not in planned state")
		default:
			return response.InternalServerError(c, "Failed to activate route")
		}
	}

	return response.Success(c, "Route activated", route)
}

// CloseRoute finalizes a route (manager only)
// @Summary Close route
// @Description Close a route, sanctioning every unvisited store
// @Tags Routes
// @Produce json
// @Param id path int true "Route ID"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /routes/{id}/close [post]
func (h *RouteHandler) CloseRoute(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	routeID, err := c.ParamsInt("id")
	if err != nil || routeID <= 0 {
		return response.BadRequest(c, "Invalid route ID")
	}

	route, missed, err := h.routeService.CloseRoute(c.Context(), uint(routeID), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRouteNotFound):
			return response.NotFound(c, "Route not found")
		case errors.Is(err, services.ErrRouteClosed):
			return response.Conflict(c, "Route is already closed")
		default:
			return response.InternalServerError(c, "Failed to close route")
		}
	}

	return response.Success(c, "Route closed", fiber.Map{
		"route":         route,
		"missed_stores": missed,
	})
}
