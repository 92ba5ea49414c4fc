package ports

import (
	"context"

	"github.com/Gunvolt24/wb_products/internal/domain"
)

type ProductRepository interface {
	// ListAll — все товары, отсортированные по id по возрастанию.
	ListAll(ctx context.Context) ([]*domain.Product, error)

	// Insert — вставка нового товара; хранилище назначает id и last_modified
	// и записывает их обратно в переданную структуру.
	Insert(ctx context.Context, product *domain.Product) error
}
