package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/dimitrije/storefront-admin/internal/middleware"
	"github.com/dimitrije/storefront-admin/internal/repository"
	"github.com/dimitrije/storefront-admin/internal/services"
	"github.com/dimitrije/storefront-admin/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

const defaultPageSize = 20

// AdminHandler serves the user management screens of the admin panel.
// Routes are mounted behind middleware.RequireRole(models.RoleAdmin).
type AdminHandler struct {
	userService UserServiceInterface
	log         *zap.Logger
}

func NewAdminHandler(userService UserServiceInterface, log *zap.Logger) *AdminHandler {
	return &AdminHandler{userService: userService, log: log}
}

func (h *AdminHandler) ListUsers(c *drift.Context) {
	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil || limit <= 0 {
		c.BadRequest("invalid limit")
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.BadRequest("invalid offset")
		return
	}

	users, err := h.userService.List(context.Background(), limit, offset)
	if err != nil {
		h.log.Error("failed to list users", zap.Error(err))
		c.InternalServerError("failed to list users")
		return
	}

	resp := dto.UserListResponse{
		Users:  make([]dto.UserResponse, 0, len(users)),
		Limit:  limit,
		Offset: offset,
	}
	for i := range users {
		resp.Users = append(resp.Users, dto.NewUserResponse(&users[i]))
	}

	_ = c.JSON(200, resp)
}

func (h *AdminHandler) GetUser(c *drift.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	user, err := h.userService.GetByID(context.Background(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.NotFound("user not found")
		return
	}
	if err != nil {
		c.InternalServerError("failed to get user")
		return
	}

	_ = c.JSON(200, dto.NewUserResponse(user))
}

func (h *AdminHandler) SetRole(c *drift.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	var req dto.UpdateRoleRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if id == middleware.GetUserID(c) {
		c.Forbidden("cannot change your own role")
		return
	}

	user, err := h.userService.SetRole(context.Background(), id, req.Role)
	switch {
	case errors.Is(err, services.ErrInvalidRole):
		c.BadRequest("role must be admin or user")
		return
	case errors.Is(err, repository.ErrNotFound):
		c.NotFound("user not found")
		return
	case err != nil:
		h.log.Error("failed to set role", zap.Stringer("user_id", id), zap.Error(err))
		c.InternalServerError("failed to set role")
		return
	}

	h.log.Info("role changed",
		zap.Stringer("user_id", id),
		zap.String("role", user.Role),
		zap.Stringer("by", middleware.GetUserID(c)),
	)

	_ = c.JSON(200, dto.NewUserResponse(user))
}

func queryInt(c *drift.Context, key string, fallback int) (int, error) {
	raw := c.QueryParam(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
