package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/lexwebinar/backend/internal/models"
	"github.com/lexwebinar/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles.
// Must run after JWT so the role is present in context.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role, ok := c.Get(ContextUserRole)
		if !ok {
			response.Unauthorized(c, "missing role")
			c.Abort()
			return
		}
		r, ok := role.(models.Role)
		if !ok || !allowed[r] {
			response.Forbidden(c, "insufficient role")
			c.Abort()
			return
		}
		c.Next()
	}
}
