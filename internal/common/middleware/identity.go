package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	usermodels "survey-rewards-backend/internal/features/user/models"
	userrepo "survey-rewards-backend/internal/features/user/repository"
)

// HeaderPublicKey carries the requester's ledger identity on survey reads.
const HeaderPublicKey = "X-Casper-Public-Key"

// LedgerIdentity resolves the public-key header to a known user and stores
// it as the viewer. When required is false the header may be absent and the
// request proceeds anonymously; an unknown key is always rejected, since a
// caller presenting an identity expects the eligibility filter to apply.
func LedgerIdentity(users userrepo.UserRepository, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		publicKey := c.GetHeader(HeaderPublicKey)
		if publicKey == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "ledger identity header required"})
				return
			}
			c.Next()
			return
		}

		user, err := users.GetByPublicAddress(c.Request.Context(), publicKey)
		if err != nil {
			if errors.Is(err, userrepo.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown ledger identity"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve identity"})
			return
		}

		c.Set(ContextViewer, user)
		c.Next()
	}
}

// Viewer returns the user resolved by LedgerIdentity, or nil.
func Viewer(c *gin.Context) *usermodels.User {
	if v, exists := c.Get(ContextViewer); exists {
		if user, ok := v.(*usermodels.User); ok {
			return user
		}
	}
	return nil
}
