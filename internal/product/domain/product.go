package domain

import "time"

type Product struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Slug         string    `db:"slug" json:"slug"`
	Description  string    `db:"description" json:"description"`
	Image        string    `db:"image" json:"image"`
	Price        float64   `db:"price" json:"price"`
	CountInStock int32     `db:"count_in_stock" json:"count_in_stock"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
