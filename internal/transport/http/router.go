package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Gunvolt24/wb_products/internal/domain"
	"github.com/Gunvolt24/wb_products/internal/ports"
	"github.com/Gunvolt24/wb_products/pkg/httpx"
	"github.com/Gunvolt24/wb_products/pkg/validate"
)

// Handler — HTTP-обработчики каталога поверх прикладного сервиса.
type Handler struct {
	service        ports.CatalogService
	log            ports.Logger
	handlerTimeout time.Duration // 0 — без таймаута на обработку
}

func NewHandler(service ports.CatalogService, log ports.Logger, handlerTimeout time.Duration) *Handler {
	return &Handler{service: service, log: log, handlerTimeout: handlerTimeout}
}

// NewRouter — собирает gin-роутер. otelServiceName != "" включает otelgin.
func NewRouter(h *Handler, staticDir string, otelServiceName string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpx.RequestIDMiddleware())
	if otelServiceName != "" {
		r.Use(otelgin.Middleware(otelServiceName))
	}
	r.Use(httpx.RequestLogger(h.log))

	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/products", h.listProducts)
	r.POST("/products", h.addProduct)
	r.DELETE("/cache", h.clearCache)

	if staticDir != "" {
		r.Static("/static", staticDir)
		r.StaticFile("/", filepath.Join(staticDir, "index.html"))
	}

	return r
}

// requestCtx — контекст обработки с опциональным таймаутом.
func (h *Handler) requestCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.handlerTimeout <= 0 {
		return c.Request.Context(), func() {}
	}
	return context.WithTimeout(c.Request.Context(), h.handlerTimeout)
}

func (h *Handler) listProducts(c *gin.Context) {
	ctx, cancel := h.requestCtx(c)
	defer cancel()

	products, err := h.service.ListProducts(ctx)
	if err != nil {
		h.log.Errorf(ctx, "ListProducts failed err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	// пустой каталог — это [], а не null
	if products == nil {
		products = []*domain.Product{}
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) addProduct(c *gin.Context) {
	ctx, cancel := h.requestCtx(c)
	defer cancel()

	var p domain.Product
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	// id и last_modified назначает БД, клиентские значения игнорируются
	p.ID = 0
	p.LastModified = time.Time{}

	if err := h.service.AddProduct(ctx, &p); err != nil {
		if errors.Is(err, validate.ErrInvalidProduct) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Errorf(ctx, "AddProduct failed name=%q err=%v", p.Name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, &p)
}

func (h *Handler) clearCache(c *gin.Context) {
	ctx, cancel := h.requestCtx(c)
	defer cancel()

	h.service.ClearCache(ctx)
	c.Status(http.StatusNoContent)
}
