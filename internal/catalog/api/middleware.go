package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/prasetyow/product-catalog-service/internal/catalog/domain"
)

const identityContextKey = "callerIdentity"

// RequestID tags every request with an id for log correlation, reusing the
// caller's X-Request-ID when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// RequireIdentity verifies the bearer token and stores the caller's verified
// claim in the request context. The token is issued by the user service; this
// service only consumes the resulting identity.
func RequireIdentity(jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			return
		}
		identity, err := identityFromClaims(claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			return
		}

		c.Set(identityContextKey, identity)
		c.Next()
	}
}

func identityFromClaims(claims jwt.MapClaims) (domain.Identity, error) {
	subject, err := claims.GetSubject()
	if err != nil {
		return domain.Identity{}, err
	}
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("invalid subject claim: %w", err)
	}

	identity := domain.Identity{ID: id}
	if username, ok := claims["username"].(string); ok {
		identity.Username = username
	}
	if isAdmin, ok := claims["is_admin"].(bool); ok {
		identity.IsAdmin = isAdmin
	}
	if isService, ok := claims["is_service"].(bool); ok {
		identity.IsService = isService
	}
	return identity, nil
}

// RequireAdmin gates the request-queue administration routes.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok || !identity.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin privileges required"})
			return
		}
		c.Next()
	}
}

// RequireService gates stock reservation/return: internal service callers
// only, distinct from admin end users.
func RequireService() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok || !identity.IsService {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "service privileges required"})
			return
		}
		c.Next()
	}
}

func IdentityFromContext(c *gin.Context) (domain.Identity, bool) {
	value, exists := c.Get(identityContextKey)
	if !exists {
		return domain.Identity{}, false
	}
	identity, ok := value.(domain.Identity)
	return identity, ok
}
