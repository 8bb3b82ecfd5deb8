package api

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminHandler serves user management for administrators.
type AdminHandler struct {
	userService service.UserService
}

func NewAdminHandler(userService service.UserService) *AdminHandler {
	return &AdminHandler{userService: userService}
}

type SetRoleRequest struct {
	Role domain.Role `json:"role" binding:"required,oneof=user admin"`
}

// ListUsers returns every account.
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("failed to list users")
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve users.")
		return
	}
	responses := make([]UserResponse, len(users))
	for i := range users {
		responses[i] = MapUserToResponse(&users[i])
	}
	c.JSON(http.StatusOK, responses)
}

// SetRole promotes or demotes a user. Admins cannot demote themselves.
// @Router /admin/users/{id}/role [put]
func (h *AdminHandler) SetRole(c *gin.Context) {
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if callerID == id && req.Role != domain.RoleAdmin {
		abortWithError(c, http.StatusBadRequest, "Admins cannot remove their own admin role")
		return
	}

	user, err := h.userService.SetRole(c.Request.Context(), id, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidRole):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			logrus.WithError(err).Error("failed to set role")
			abortWithError(c, http.StatusInternalServerError, "Failed to update role.")
		}
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}
