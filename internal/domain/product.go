package domain

import "time"

// Product — товар каталога.
// ID и LastModified назначаются хранилищем при вставке.
type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	LastModified time.Time `json:"last_modified"`
}
