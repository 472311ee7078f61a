package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/visdata-app/visdata/internal/model"
	appErr "github.com/visdata-app/visdata/internal/pkg/errors"
)

type stubResolver struct {
	user *model.User
}

func (s stubResolver) ResolveUser(ctx context.Context, token string) (*model.User, error) {
	if s.user != nil && token == "good-token" {
		return s.user, nil
	}
	return nil, appErr.ErrUnauthorized
}

func newAuthRouter(resolver UserResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", Auth(resolver), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": CurrentUser(c).Email})
	})
	return router
}

func TestAuthRejectsMissingOrMalformedHeader(t *testing.T) {
	router := newAuthRouter(stubResolver{user: &model.User{ID: 1, Email: "a@b.c"}})
	for _, header := range []string{"", "good-token", "Basic good-token", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code, "header %q", header)
		require.Equal(t, "Bearer", resp.Header().Get("WWW-Authenticate"), "header %q", header)
	}
}

func TestAuthRejectsUnresolvableToken(t *testing.T) {
	router := newAuthRouter(stubResolver{user: &model.User{ID: 1, Email: "a@b.c"}})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	require.Equal(t, "Bearer", resp.Header().Get("WWW-Authenticate"))
}

func TestAuthResolvesUser(t *testing.T) {
	router := newAuthRouter(stubResolver{user: &model.User{ID: 7, Email: "alice@example.com"}})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "alice@example.com")
}

func TestAuthSchemeIsCaseInsensitive(t *testing.T) {
	router := newAuthRouter(stubResolver{user: &model.User{ID: 7, Email: "alice@example.com"}})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "bearer good-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
}
