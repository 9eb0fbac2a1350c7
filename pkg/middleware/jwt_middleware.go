package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"allinbee/internal/auth"
	"allinbee/pkg/utils"
)

const identityKey = "identity"

// IdentityResolver loads the caller's current role flags.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID uuid.UUID) (*auth.Identity, error)
}

// TokenValidator verifies a bearer token.
type TokenValidator interface {
	ValidateToken(tokenString string) (*utils.Claims, error)
}

func JWTAuthMiddleware(tokens TokenValidator, resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, "Authorization header missing or invalid")
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		identity, err := resolver.ResolveIdentity(c.Request.Context(), userID)
		if err != nil {
			if utils.KindOf(err) == utils.KindNotFound {
				utils.RespondError(c, http.StatusUnauthorized, "Account no longer exists")
			} else {
				utils.HandleServiceError(c, err)
			}
			c.Abort()
			return
		}

		c.Set("user_id", identity.UserID.String())
		c.Set(identityKey, *identity)
		c.Next()
	}
}

// RequireRole aborts with 401 when no identity is attached and 403 when the
// identity is below min.
func RequireRole(min auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if min == auth.RoleAnonymous {
			c.Next()
			return
		}

		identity, ok := IdentityFrom(c)
		if !ok {
			utils.RespondError(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}

		if !identity.Satisfies(min) {
			utils.RespondError(c, http.StatusForbidden, "Forbidden: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}

// SetIdentity attaches an identity to the request context.
func SetIdentity(c *gin.Context, identity auth.Identity) {
	c.Set(identityKey, identity)
}
