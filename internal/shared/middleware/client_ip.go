package middleware

import (
	"github.com/gin-gonic/gin"

	"sizechart-backend/internal/shared/utils"
)

const ContextClientIP = "client_ip"

// ClientIP resolves the caller address once per request.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := utils.ExtractClientIP(c)
		c.Set(ContextClientIP, ip)
		c.Next()
	}
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString(ContextClientIP); ip != "" {
		return ip
	}
	return utils.ExtractClientIP(c)
}
