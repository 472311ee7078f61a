package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/visdata-app/visdata/internal/model"
	"github.com/visdata-app/visdata/internal/pkg/response"
)

const ContextUserKey = "current_user"

// UserResolver turns a bearer token into the authenticated user.
type UserResolver interface {
	ResolveUser(ctx context.Context, token string) (*model.User, error)
}

// Auth extracts the bearer token, resolves it to a user and stores the
// user in the request context. Every failure mode - missing header,
// malformed scheme, bad signature, expiry, ghost subject - produces the
// same 401 so callers cannot probe which check failed. A failure here
// is terminal for the request; nothing downstream runs.
func Auth(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c)
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c)
			c.Abort()
			return
		}
		user, err := resolver.ResolveUser(c.Request.Context(), parts[1])
		if err != nil {
			response.Unauthorized(c)
			c.Abort()
			return
		}
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user placed in the context by Auth.
func CurrentUser(c *gin.Context) *model.User {
	value, _ := c.Get(ContextUserKey)
	user, _ := value.(*model.User)
	return user
}
