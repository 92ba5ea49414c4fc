//go:build integration

package testutil

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/Gunvolt24/wb_products/internal/domain"
)

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func UniqSuffix() string { return randHex(6) }

// MakeProduct — генератор валидного товара (id/last_modified назначит БД).
func MakeProduct(opts ...func(*domain.Product)) domain.Product {
	p := domain.Product{
		Name:  "product-" + UniqSuffix(),
		Price: 99.99,
	}

	for _, fn := range opts {
		fn(&p)
	}
	return p
}

func WithName(name string) func(*domain.Product) {
	return func(p *domain.Product) { p.Name = name }
}

func WithPrice(price float64) func(*domain.Product) {
	return func(p *domain.Product) { p.Price = price }
}
