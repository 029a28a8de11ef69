package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sizechart-backend/internal/domains/apikey/model"
	"sizechart-backend/internal/domains/apikey/service"
	"sizechart-backend/internal/shared"
	"sizechart-backend/internal/shared/response"
)

// ============================================================
// HANDLER STRUCT
// ============================================================
type APIKeyHandler struct {
	manager service.Manager
}

func NewAPIKeyHandler(manager service.Manager) *APIKeyHandler {
	return &APIKeyHandler{manager: manager}
}

// ========== POST /api/v1/admin/api-keys ==========
// The raw key is only ever returned here.
func (h *APIKeyHandler) Create(c *gin.Context) {
	var req model.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	created, err := h.manager.Create(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, created)
}

// ========== GET /api/v1/admin/api-keys ==========
func (h *APIKeyHandler) List(c *gin.Context) {
	keys, err := h.manager.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, keys)
}

// ========== PATCH /api/v1/admin/api-keys/:id ==========
func (h *APIKeyHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.UpdateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.FromError(c, shared.FromValidation("Invalid API key update", err))
		return
	}

	key, err := h.manager.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, key)
}

// ========== DELETE /api/v1/admin/api-keys/:id ==========
func (h *APIKeyHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.manager.Revoke(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid API key id")
		return uuid.Nil, false
	}
	return id, true
}
