package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ramtsps/Art-Academy-Website/internal/catalog"
)

// CatalogHandler exposes the read-only product endpoints.
type CatalogHandler struct {
	Catalog *catalog.Service
	logger  *zap.Logger
}

// NewCatalogHandler creates the catalog handler.
func NewCatalogHandler(svc *catalog.Service, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{Catalog: svc, logger: logger}
}

// ArtClasses lists art classes.
func (h *CatalogHandler) ArtClasses(c *gin.Context) {
	h.respond(c, "art classes", h.Catalog.ArtClasses)
}

// SmallGifts lists small gifts.
func (h *CatalogHandler) SmallGifts(c *gin.Context) {
	h.respond(c, "small gifts", h.Catalog.SmallGifts)
}

// ArtSupplies lists art supplies.
func (h *CatalogHandler) ArtSupplies(c *gin.Context) {
	h.respond(c, "art supplies", h.Catalog.ArtSupplies)
}

// ReturnGifts lists return gifts.
func (h *CatalogHandler) ReturnGifts(c *gin.Context) {
	h.respond(c, "return gifts", h.Catalog.ReturnGifts)
}

// Products lists all collections, optionally filtered by ?category=.
func (h *CatalogHandler) Products(c *gin.Context) {
	category := c.Query("category")
	h.respond(c, "products", func(ctx context.Context) ([]json.RawMessage, error) {
		return h.Catalog.Products(ctx, category)
	})
}

func (h *CatalogHandler) respond(c *gin.Context, label string, load func(context.Context) ([]json.RawMessage, error)) {
	items, err := load(c.Request.Context())
	if err != nil {
		h.logger.Error("catalog fetch failed", zap.String("collection", label), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch " + label})
		return
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}
