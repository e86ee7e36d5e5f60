package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/javierleyes/vidro-android/internal/domain/catalog"
	"github.com/javierleyes/vidro-android/internal/domain/shared/valueobject"
	"github.com/javierleyes/vidro-android/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// GlassHandler serves the glass catalog
type GlassHandler struct {
	BaseHandler
	repo   catalog.GlassRepository
	legacy bool
}

// GlassHandlerOption configures a GlassHandler
type GlassHandlerOption func(*GlassHandler)

// WithLegacyPayloads makes the handler answer with the old single-price
// shape: numeric ids and a "price" display string.
func WithLegacyPayloads() GlassHandlerOption {
	return func(h *GlassHandler) {
		h.legacy = true
	}
}

// NewGlassHandler creates a new GlassHandler
func NewGlassHandler(repo catalog.GlassRepository, opts ...GlassHandlerOption) *GlassHandler {
	h := &GlassHandler{repo: repo}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// UpdatePriceRequest is the PATCH /glasses/:id body.
// Price is the display string older clients send instead of PriceTransparent.
type UpdatePriceRequest struct {
	PriceTransparent *valueobject.Price `json:"priceTransparent"`
	PriceColor       *valueobject.Price `json:"priceColor"`
	Price            string             `json:"price"`
}

// LegacyGlassResponse is the glass shape of the first API version
type LegacyGlassResponse struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// List handles GET /glasses
func (h *GlassHandler) List(c *gin.Context) {
	glasses, err := h.repo.FindAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if h.legacy {
		h.OK(c, toLegacyGlasses(glasses))
		return
	}
	h.OK(c, glasses)
}

// UpdatePrice handles PATCH /glasses/:id
func (h *GlassHandler) UpdatePrice(c *gin.Context) {
	var req UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	transparent := valueobject.NoPrice()
	switch {
	case req.PriceTransparent != nil:
		transparent = *req.PriceTransparent
	case req.Price != "":
		p, err := valueobject.ParsePrice(req.Price)
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}
		transparent = p
	}

	var colors []valueobject.Price
	if req.PriceColor != nil && req.PriceColor.IsSet() {
		colors = append(colors, *req.PriceColor)
	}
	update, err := catalog.NewPriceUpdate(transparent, colors...)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	glass, err := h.repo.UpdatePrices(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	logger.GetGinLogger(c).Info("glass price updated",
		zap.String("glass_id", glass.ID),
		zap.Stringer("price_transparent", glass.PriceTransparent),
	)
	h.OK(c, glass)
}

func toLegacyGlasses(glasses []catalog.Glass) []LegacyGlassResponse {
	out := make([]LegacyGlassResponse, 0, len(glasses))
	for _, g := range glasses {
		id, _ := strconv.ParseUint(g.ID, 10, 64)
		resp := LegacyGlassResponse{ID: id, Name: g.Name}
		if g.PriceTransparent.IsSet() {
			resp.Price = g.PriceTransparent.Display()
		}
		out = append(out, resp)
	}
	return out
}
