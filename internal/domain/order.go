package domain

import "time"

// OrderStatus representa o estado do ciclo de vida de um pedido.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order representa um pedido do back office. O pedido é o colaborador que
// dispara os ajustes de estoque: -quantidade na colocação, +quantidade no
// cancelamento, uma chamada por linha.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Status    OrderStatus `json:"status"`
	Lines     []OrderLine `json:"lines"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderLine é uma linha do pedido, amarrada a uma variante concreta.
type OrderLine struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"order_id"`
	VariantID string  `json:"variant_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// OrderLineInput é o payload de entrada de uma linha na colocação do pedido.
type OrderLineInput struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}
