package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	userrepo "survey-rewards-backend/internal/features/user/repository"
)

// RequireActive loads the authenticated account and refuses it until the
// activation check has passed. Runs after RequireAuth; the lookup is
// server-side so a client cannot claim activation it does not have.
func RequireActive(users userrepo.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.GetByID(c.Request.Context(), UserID(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unknown account"})
			return
		}
		if !user.Active {
			message := "account not activated"
			if user.Banned() {
				message = "exceeded attempts, banned"
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": message})
			return
		}
		c.Next()
	}
}
