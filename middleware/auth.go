package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pixpointrepo/marcom-backend/utils"
)

const (
	// ContextUserIDKey is the key used to store the authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextRoleKey stores the decoded role claim inside Gin context.
	ContextRoleKey = "role"
)

// AuthRequired ensures the request carries a valid bearer token and
// attaches its claims to the context. A missing credential is
// unauthenticated (401); a present but invalid or expired one is
// forbidden (403).
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Message(ctx, http.StatusUnauthorized, "access denied: no token provided")
			ctx.Abort()
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			utils.Message(ctx, http.StatusUnauthorized, "access denied: no token provided")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Message(ctx, http.StatusForbidden, "invalid or expired token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextRoleKey, claims.Role)
		ctx.Next()
	}
}

// AdminRequired wraps AuthRequired and additionally rejects any
// authenticated caller whose role claim is not "admin".
func AdminRequired() gin.HandlerFunc {
	auth := AuthRequired()
	return func(ctx *gin.Context) {
		auth(ctx)
		if ctx.IsAborted() {
			return
		}
		if role, _ := ctx.Get(ContextRoleKey); role != "admin" {
			utils.Message(ctx, http.StatusForbidden, "access denied: admins only")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
