package widget

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"sizechart-backend/internal/shared"
	"sizechart-backend/internal/shared/middleware"
	"sizechart-backend/internal/shared/response"
)

// Response headers
const (
	HeaderWidgetState    = "X-Widget-State"
	HeaderWidgetRendered = "X-Widget-Rendered"
	HeaderWidgetErrored  = "X-Widget-Errored"
)

// MaxPrerenderBody caps documents posted to the prerender endpoint.
const MaxPrerenderBody = 1 << 20

type Handler struct {
	runtime  *Runtime
	renderer *Renderer
}

func NewHandler(runtime *Runtime, renderer *Renderer) *Handler {
	if renderer == nil {
		renderer = NewRenderer()
	}
	return &Handler{runtime: runtime, renderer: renderer}
}

// ========== GET /widget.js ==========
func (h *Handler) Script(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=300")
	c.Header("X-Widget-Version", Version)
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", Script())
}

// ========== GET /widget/v1/fragment ==========
// Failures are rendered inline with 200 so hosts can inject the body as is.
func (h *Handler) Fragment(c *gin.Context) {
	attrs := map[string]string{
		AttrChart:       c.Query("chart"),
		AttrCategory:    c.Query("category"),
		AttrSubcategory: c.Query("subcategory"),
		AttrUnit:        c.Query("unit"),
		AttrTheme:       c.Query("theme"),
		AttrCompact:     c.Query("compact"),
		AttrAPIKey:      middleware.ExtractAPIKey(c.Request),
	}

	cfg, err := ParseMountConfig(attrs)
	if err != nil {
		msg := "Invalid size chart configuration"
		if errors.Is(err, ErrMissingChart) {
			msg = "Missing data-chart"
		}
		h.writeFragment(c, StateErrored, string(h.renderer.Error(cfg, msg)))
		return
	}

	out, state := h.runtime.RenderFragment(c.Request.Context(), cfg)
	h.writeFragment(c, state, string(out))
}

func (h *Handler) writeFragment(c *gin.Context, state MountState, body string) {
	c.Header(HeaderWidgetState, string(state))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(body))
}

// ========== POST /widget/v1/prerender ==========
func (h *Handler) Prerender(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxPrerenderBody)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, shared.CodeValidation, "Document too large")
			return
		}
		response.BadRequest(c, "Unreadable request body")
		return
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		response.BadRequest(c, "Invalid HTML document")
		return
	}

	report := h.runtime.Init(c.Request.Context(), doc)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		log.Error().Err(err).Msg("Failed to serialise prerendered document")
		response.InternalServerError(c)
		return
	}

	c.Header(HeaderWidgetRendered, strconv.Itoa(report.Rendered))
	c.Header(HeaderWidgetErrored, strconv.Itoa(report.Errored))
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
