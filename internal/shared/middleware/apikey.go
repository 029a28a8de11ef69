package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sizechart-backend/internal/domains/apikey/model"
	"sizechart-backend/internal/domains/apikey/service"
	"sizechart-backend/internal/infrastructure/ratelimit"
	"sizechart-backend/internal/shared"
	"sizechart-backend/internal/shared/response"
)

const (
	ContextAPIKey = "api_key"
	HeaderAPIKey  = "X-API-Key"
)

// KeyAuth authenticates API keys for the public surface.
type KeyAuth struct {
	auth     service.Authenticator
	required bool

	// Failed validations are counted per caller address under guard.
	limiter *ratelimit.Limiter
	guard   ratelimit.Policy
}

func NewKeyAuth(auth service.Authenticator, required bool, limiter *ratelimit.Limiter, guard ratelimit.Policy) *KeyAuth {
	return &KeyAuth{auth: auth, required: required, limiter: limiter, guard: guard}
}

// Required reports whether anonymous access is refused.
func (k *KeyAuth) Required() bool { return k.required }

// Authenticate resolves the presented key. When keys are optional an
// invalid key is ignored and the caller continues anonymously.
func (k *KeyAuth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ExtractAPIKey(c.Request)

		if raw == "" && !k.required {
			c.Next()
			return
		}

		if k.required && k.guardExhausted(c) {
			return
		}

		key, err := k.auth.Validate(c.Request.Context(), raw)
		if err != nil {
			appErr := shared.AsAppError(err)
			if !k.required {
				if appErr.HTTPStatus >= http.StatusInternalServerError {
					log.Warn().Err(err).Msg("API key lookup failed, continuing anonymously")
				}
				c.Next()
				return
			}
			if appErr.HTTPStatus == http.StatusUnauthorized && k.countFailure(c) {
				return
			}
			response.FromError(c, appErr)
			return
		}

		c.Set(ContextAPIKey, key)
		c.Request = c.Request.WithContext(model.WithKey(c.Request.Context(), key))
		k.auth.RecordUsage(c.Request.Context(), key)
		c.Next()
	}
}

// RequireScope rejects authenticated keys lacking scope with 403. Anonymous
// callers pass when keys are optional.
func (k *KeyAuth) RequireScope(scope model.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := authenticatedKey(c)
		if !ok {
			if k.required {
				response.FromError(c, model.NewKeyMissingError())
				return
			}
			c.Next()
			return
		}
		if err := k.auth.Authorize(key, scope); err != nil {
			response.FromError(c, err)
			return
		}
		c.Next()
	}
}

// guardExhausted answers 429 when the caller already used up its failed
// attempts.
func (k *KeyAuth) guardExhausted(c *gin.Context) bool {
	if k.limiter == nil {
		return false
	}
	res, err := k.limiter.Peek(c.Request.Context(), k.guard, "ip:"+clientIP(c))
	if err != nil || res.Remaining > 0 {
		return false
	}
	res.RetryAfter = time.Until(res.ResetAt)
	SetRateLimitHeaders(c, res)
	abortTooManyRequests(c, res)
	return true
}

// countFailure records a failed validation and reports whether the caller
// was cut off.
func (k *KeyAuth) countFailure(c *gin.Context) bool {
	if k.limiter == nil {
		return false
	}
	res, err := k.limiter.Allow(c.Request.Context(), k.guard, "ip:"+clientIP(c))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count api key failure")
		return false
	}
	if res.Allowed {
		return false
	}
	SetRateLimitHeaders(c, res)
	abortTooManyRequests(c, res)
	return true
}

// ExtractAPIKey reads "Authorization: Bearer <key>" first, then X-API-Key.
func ExtractAPIKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, found := strings.Cut(strings.TrimSpace(auth), " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}
	return strings.TrimSpace(r.Header.Get(HeaderAPIKey))
}

// authenticatedKey checks the gin context, then the request context.
func authenticatedKey(c *gin.Context) (*model.APIKey, bool) {
	if v, ok := c.Get(ContextAPIKey); ok {
		if key, ok := v.(*model.APIKey); ok && key != nil {
			return key, true
		}
	}
	return model.KeyFromContext(c.Request.Context())
}

func keyPrefix(c *gin.Context) string {
	if key, ok := authenticatedKey(c); ok {
		return key.KeyPrefix
	}
	return ""
}
