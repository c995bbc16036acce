package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxEmail = "user_email"
	ctxRole  = "user_role"
)

func bearerToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization header required"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
		return "", "Invalid authorization header format"
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", "Token is empty"
	}
	return tokenString, ""
}

func authenticate(tokenString, secret string) (*JWTClaims, string) {
	claims, err := ValidateToken(tokenString, secret)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			return nil, "Token expired"
		case errors.Is(err, ErrInvalidTokenType):
			return nil, "Invalid token type"
		default:
			return nil, "Invalid or malformed token"
		}
	}

	if claims.TokenType != "access" {
		return nil, "Access token required"
	}
	return claims, ""
}

func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := bearerToken(c)
		if problem != "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": problem})
			c.Abort()
			return
		}

		claims, problem := authenticate(tokenString, accessTokenSecret)
		if problem != "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": problem})
			c.Abort()
			return
		}

		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, strings.ToUpper(claims.Role))

		c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a bearer token is sent and
// lets anonymous requests through. A token that is sent but invalid is rejected.
func OptionalAuth(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		AuthMiddleware(accessTokenSecret)(c)
	}
}

func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxRole)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User role not found"})
			c.Abort()
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid role type"})
			c.Abort()
			return
		}

		if !strings.EqualFold(roleStr, requiredRole) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func GetEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(ctxEmail)
	if !exists {
		return "", false
	}

	s, ok := email.(string)
	if !ok {
		return "", false
	}

	return s, true
}

func GetRole(c *gin.Context) (string, bool) {
	role, exists := c.Get(ctxRole)
	if !exists {
		return "", false
	}

	s, ok := role.(string)
	if !ok {
		return "", false
	}

	return s, true
}

func IsAdmin(c *gin.Context) bool {
	role, ok := GetRole(c)
	return ok && strings.EqualFold(role, RoleAdmin)
}
