package domain

import (
	"time"
)

// Product representa o item principal do catálogo (a Entidade).
// A identidade do produto é imutável após a criação; o controle de
// estoque é feito a nível de ProductVariant, nunca aqui.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BasePrice   float64   `json:"base_price"` // Preço base, usado quando a variante não tem override
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductFilter define os parâmetros de busca e paginação da listagem de produtos.
type ProductFilter struct {
	Page       int
	Limit      int
	Name       string
	ActiveOnly bool
}
