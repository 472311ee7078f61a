package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/visdata-app/visdata/internal/pkg/response"
	"github.com/visdata-app/visdata/internal/service"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 512
)

type UserHandler struct {
	auth *service.AuthService
}

func NewUserHandler(auth *service.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		response.Error(c, http.StatusBadRequest, "invalid", "a valid email is required")
		return
	}
	if len(req.Password) < minPasswordLen || len(req.Password) > maxPasswordLen {
		response.Error(c, http.StatusBadRequest, "invalid", "password must be 8 to 512 characters")
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": user})
}

// Me returns the authenticated user's public profile. The password
// hash is excluded by the model's json tags.
func (h *UserHandler) Me(c *gin.Context) {
	response.Success(c, currentUser(c))
}
