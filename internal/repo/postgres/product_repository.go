package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gunvolt24/wb_products/internal/domain"
	"github.com/Gunvolt24/wb_products/internal/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Проверка, что ProductRepository удовлетворяет интерфейсу ports.ProductRepository.
var _ ports.ProductRepository = (*ProductRepository)(nil)

// ProductRepository — реализация репозитория товаров на Postgres (pgxpool).
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository — конструктор ProductRepository.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository { return &ProductRepository{pool: pool} }

// ListAll — весь каталог, отсортированный по id по возрастанию.
// id уникален (PRIMARY KEY), поэтому порядок стабилен без доп. tie-break'ов.
func (r *ProductRepository) ListAll(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, price, last_modified
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.LastModified); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("products rows: %w", err)
	}

	return products, nil
}

// Insert — вставка нового товара; id и last_modified назначает БД
// (sequence и DEFAULT now()), значения записываются обратно в структуру.
func (r *ProductRepository) Insert(ctx context.Context, product *domain.Product) error {
	if product == nil {
		return errors.New("product is nil")
	}
	if product.Name == "" {
		return errors.New("name is required")
	}

	if err := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, price)
		VALUES ($1, $2)
		RETURNING id, last_modified
	`, product.Name, product.Price).Scan(&product.ID, &product.LastModified); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}
