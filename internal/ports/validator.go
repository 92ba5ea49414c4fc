package ports

import (
	"context"

	"github.com/Gunvolt24/wb_products/internal/domain"
)

type ProductValidator interface {
	Validate(ctx context.Context, product *domain.Product) error
}
