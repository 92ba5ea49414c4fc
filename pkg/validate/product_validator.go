package validate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/Gunvolt24/wb_products/internal/domain"
	"github.com/Gunvolt24/wb_products/internal/ports"
)

// Проверка, что ProductValidator удовлетворяет интерфейсу ports.ProductValidator.
var _ ports.ProductValidator = (*ProductValidator)(nil)

// ErrInvalidProduct — базовая (sentinel error) ошибка валидации.
var ErrInvalidProduct = errors.New("product validation failed")

// Максимальная длина имени товара (символы, не байты).
const maxNameLen = 255

// ProductValidator — доменная валидация товара.
type ProductValidator struct{}

// NewProductValidator — конструктор ProductValidator.
// Validate возвращает ErrInvalidProduct (с обёрнутой причиной) при любой проблеме.
func NewProductValidator() *ProductValidator { return &ProductValidator{} }

// Validate — проверяет корректность полей товара.
func (v *ProductValidator) Validate(_ context.Context, product *domain.Product) error {
	if product == nil {
		return fmt.Errorf("%w: товар не может быть nil", ErrInvalidProduct)
	}
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("%w: name обязателен", ErrInvalidProduct)
	}
	if utf8.RuneCountInString(product.Name) > maxNameLen {
		return fmt.Errorf("%w: name длиннее %d символов", ErrInvalidProduct, maxNameLen)
	}
	if math.IsNaN(product.Price) || math.IsInf(product.Price, 0) {
		return fmt.Errorf("%w: price должен быть конечным числом", ErrInvalidProduct)
	}
	if product.Price < 0 {
		return fmt.Errorf("%w: price должен быть неотрицательным", ErrInvalidProduct)
	}
	return nil
}
