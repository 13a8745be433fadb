package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"roomwise/config"
	"roomwise/utils"
)

// JWTAuthMiddleware validates the bearer token and stores the user ID on
// the request context as "userID". Validated token hashes are cached in
// redis so repeated requests skip signature verification.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		tokenHash := utils.HashToken(tokenString)
		// Nil when redis was never initialized; validation still works,
		// it just runs on every request.
		cache := utils.AuthCacheClient
		cacheKey := utils.AuthCachePrefix + tokenHash

		if cache != nil {
			if userID, err := cache.Get(c.Request.Context(), cacheKey).Result(); err == nil && userID != "" {
				c.Set("userID", userID)
				c.Next()
				return
			} else if err != nil && err != redis.Nil {
				utils.GetLogger().Warn("auth cache lookup failed", zap.Error(err))
			}
		}

		userID, err := utils.ExtractIDFromToken(tokenString)
		if err != nil || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		if cache != nil {
			if err := cache.Set(c.Request.Context(), cacheKey, userID, utils.AuthCacheTTL).Err(); err != nil {
				utils.GetLogger().Warn("auth cache store failed", zap.Error(err))
			}
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// devUserHeader lets local clients pick a user without minting tokens.
const devUserHeader = "X-User-ID"

// DevAuthMiddleware accepts a plain user ID header outside production and
// otherwise behaves like JWTAuthMiddleware. In production the header is
// ignored and a bearer token is required.
func DevAuthMiddleware() gin.HandlerFunc {
	jwtAuth := JWTAuthMiddleware()
	return func(c *gin.Context) {
		if userID := c.GetHeader(devUserHeader); userID != "" && !config.IsProduction() {
			c.Set("userID", userID)
			c.Next()
			return
		}
		jwtAuth(c)
	}
}
