package ports

import (
	"context"

	"github.com/Gunvolt24/wb_products/internal/domain"
)

// CatalogService — прикладной сервис каталога (контракт для транспорта).
type CatalogService interface {
	// ListProducts — полный снапшот каталога (из кэша или из БД).
	ListProducts(ctx context.Context) ([]*domain.Product, error)

	// AddProduct — валидация и сохранение товара с инвалидацией кэша.
	AddProduct(ctx context.Context, product *domain.Product) error

	// ClearCache — явный сброс снапшота; true, если запись была в кэше.
	ClearCache(ctx context.Context) bool
}
