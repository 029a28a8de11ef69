package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sizechart-backend/internal/infrastructure/ratelimit"
	"sizechart-backend/internal/shared"
	"sizechart-backend/internal/shared/response"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimitIdentifier keys quotas by API key when one was authenticated,
// otherwise by caller address.
func RateLimitIdentifier(c *gin.Context) string {
	if key, ok := authenticatedKey(c); ok {
		return "key:" + key.ID.String()
	}
	return "ip:" + clientIP(c)
}

// RateLimit counts each request against policy. A nil limiter disables it.
// Store failures let the request through.
func RateLimit(limiter *ratelimit.Limiter, policy ratelimit.Policy) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		res, err := limiter.Allow(c.Request.Context(), policy, RateLimitIdentifier(c))
		if err != nil {
			log.Warn().Err(err).Str("policy", policy.Name).Msg("Rate limit store unavailable")
			c.Next()
			return
		}

		SetRateLimitHeaders(c, res)
		if !res.Allowed {
			abortTooManyRequests(c, res)
			return
		}
		c.Next()
	}
}

// RateLimitWrites applies policy to mutating methods only.
func RateLimitWrites(limiter *ratelimit.Limiter, policy ratelimit.Policy) gin.HandlerFunc {
	limit := RateLimit(limiter, policy)
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			limit(c)
		default:
			c.Next()
		}
	}
}

func SetRateLimitHeaders(c *gin.Context, res ratelimit.Result) {
	c.Header(HeaderRateLimitLimit, strconv.FormatInt(res.Limit, 10))
	c.Header(HeaderRateLimitRemaining, strconv.FormatInt(res.Remaining, 10))
	c.Header(HeaderRateLimitReset, strconv.FormatInt(res.ResetAt.Unix(), 10))
}

func retryAfterSeconds(res ratelimit.Result) int64 {
	secs := int64(math.Ceil(res.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func abortTooManyRequests(c *gin.Context, res ratelimit.Result) {
	c.Header(HeaderRetryAfter, strconv.FormatInt(retryAfterSeconds(res), 10))
	response.AbortError(c, http.StatusTooManyRequests, shared.CodeRateLimitExceeded, "Too many requests")
}
