package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/visdata-app/visdata/internal/pkg/response"
	"github.com/visdata-app/visdata/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token implements the password grant: form-encoded username (the
// email) and password, answered with a bearer token. The body is not
// wrapped in the usual envelope because OAuth2 clients read
// access_token at the top level.
func (h *AuthHandler) Token(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("username"))
	plain := c.PostForm("password")
	if email == "" || plain == "" {
		response.Unauthorized(c)
		return
	}
	signed, err := h.auth.Login(c.Request.Context(), email, plain)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: signed, TokenType: "bearer"})
}
