package utils

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// UnknownIP is reported when no address can be determined.
const UnknownIP = "unknown"

// ExtractClientIP returns the caller address used to key rate limits.
//
// Priority order:
// 1. first entry of X-Forwarded-For
// 2. X-Real-IP
// 3. host part of RemoteAddr
// 4. "unknown"
func ExtractClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(c.GetHeader("X-Real-IP")); xri != "" {
		return xri
	}

	if c.Request != nil && c.Request.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err != nil {
			host = c.Request.RemoteAddr
		}
		if net.ParseIP(host) != nil {
			return host
		}
	}

	return UnknownIP
}
