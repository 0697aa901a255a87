package orderservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"varstock/internal/domain"
	apperror "varstock/internal/errors"
	"varstock/internal/pkg/logger"
)

// OrderRepository define o contrato de persistência de pedidos.
type OrderRepository interface {
	Save(ctx context.Context, order domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, id string) (domain.Order, error)
	FindByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	CountOpenLinesByVariant(ctx context.Context, variantID string) (int, error)
}

// StockAdjuster é o recorte do serviço de variantes que o pedido consome:
// um ajuste relativo por linha (negativo na colocação, positivo no cancelamento).
type StockAdjuster interface {
	AdjustStock(ctx context.Context, variantID string, delta int) (domain.ProductVariant, error)
	GetVariant(ctx context.Context, variantID string) (domain.ProductVariant, error)
}

// ProductGetter resolve o preço base quando a variante não tem override.
type ProductGetter interface {
	FindByID(ctx context.Context, id string) (domain.Product, error)
}

// Service implementa o ciclo de vida do pedido sobre o motor de estoque.
// O motor não oferece transação multi-variante: cada AdjustStock é atômico
// apenas em relação à sua variante, e é este serviço que compensa os
// decrementos já aplicados quando uma linha posterior falha.
type Service struct {
	repo     OrderRepository
	stock    StockAdjuster
	products ProductGetter
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Pedidos.
func NewService(repo OrderRepository, stock StockAdjuster, products ProductGetter, logger logger.Logger) *Service {
	return &Service{
		repo:     repo,
		stock:    stock,
		products: products,
		logger:   logger,
	}
}

// PlaceOrder coloca um pedido: decrementa o estoque de cada linha
// (AdjustStock com delta negativo) e persiste o pedido como pendente.
// Se o decremento da linha k falhar, as linhas 1..k-1 são compensadas com o
// delta inverso, em ordem reversa, antes de propagar o erro original.
func (s *Service) PlaceOrder(ctx context.Context, userID string, lines []domain.OrderLineInput) (domain.Order, error) {
	if len(lines) == 0 {
		return domain.Order{}, apperror.NewValidationError("O pedido precisa de ao menos uma linha.")
	}
	for i, line := range lines {
		if line.Quantity <= 0 {
			return domain.Order{}, apperror.NewValidationError(fmt.Sprintf("A linha %d precisa de quantidade positiva.", i+1))
		}
		if _, err := uuid.Parse(line.VariantID); err != nil {
			return domain.Order{}, apperror.NewValidationError(fmt.Sprintf("A linha %d tem um ID de variante inválido.", i+1))
		}
	}

	orderID := uuid.New().String()
	now := time.Now().UTC()
	order := domain.Order{
		ID:        orderID,
		UserID:    userID,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Decrementa linha a linha, guardando o que já foi aplicado para compensação.
	var applied []domain.OrderLineInput
	for _, line := range lines {
		variant, err := s.stock.AdjustStock(ctx, line.VariantID, -line.Quantity)
		if err != nil {
			s.logger.Warn("Falha ao decrementar estoque de uma linha. Compensando linhas aplicadas.", map[string]interface{}{
				"order_id":   orderID,
				"variant_id": line.VariantID,
				"applied":    len(applied),
			})
			s.compensate(ctx, applied)
			return domain.Order{}, err
		}

		unitPrice, priceErr := s.resolveUnitPrice(ctx, variant)
		if priceErr != nil {
			applied = append(applied, line)
			s.compensate(ctx, applied)
			return domain.Order{}, priceErr
		}

		applied = append(applied, line)
		order.Lines = append(order.Lines, domain.OrderLine{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
		})
	}

	created, err := s.repo.Save(ctx, order)
	if err != nil {
		// O estoque já foi decrementado; devolve tudo antes de propagar.
		s.compensate(ctx, applied)
		return domain.Order{}, err
	}

	s.logger.Info("Pedido colocado com sucesso.", map[string]interface{}{
		"order_id": created.ID,
		"lines":    len(created.Lines),
	})
	return created, nil
}

// compensate reverte os decrementos já aplicados, em ordem reversa.
// Falha de compensação é logada e não interrompe as demais reversões.
func (s *Service) compensate(ctx context.Context, applied []domain.OrderLineInput) {
	for i := len(applied) - 1; i >= 0; i-- {
		line := applied[i]
		if _, err := s.stock.AdjustStock(ctx, line.VariantID, line.Quantity); err != nil {
			s.logger.Error(fmt.Sprintf("Falha ao compensar estoque da variante %s (+%d). Intervenção manual necessária.",
				line.VariantID, line.Quantity), err)
		}
	}
}

// CancelOrder cancela o pedido e repõe o estoque de cada linha
// (AdjustStock com delta positivo, uma chamada por linha). O pedido só fica
// marcado como cancelado depois de todas as reposições: se a reposição da
// linha k falhar, as linhas 1..k-1 já repostas são re-decrementadas em ordem
// reversa antes de propagar o erro, para que um retry do cancelamento parta
// do estoque original e não reponha a mesma linha duas vezes.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return domain.Order{}, apperror.NewValidationError("O ID do pedido deve ser um UUID válido.")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Status == domain.OrderStatusCancelled {
		return domain.Order{}, apperror.NewConflictError(fmt.Sprintf("O pedido %s já está cancelado.", orderID))
	}

	var restocked []domain.OrderLine
	for _, line := range order.Lines {
		if _, err := s.stock.AdjustStock(ctx, line.VariantID, line.Quantity); err != nil {
			// Reposição nunca falha por estoque insuficiente; o que pode
			// acontecer é conflito de concorrência esgotado.
			s.logger.Error(fmt.Sprintf("Falha ao repor estoque da variante %s no cancelamento do pedido %s. Desfazendo reposições aplicadas.",
				line.VariantID, orderID), err)
			s.rollbackRestock(ctx, restocked)
			return domain.Order{}, err
		}
		restocked = append(restocked, line)
	}

	if err := s.repo.UpdateStatus(ctx, orderID, domain.OrderStatusCancelled); err != nil {
		// O pedido continuaria pendente: desfaz as reposições para que o
		// retry não infle o estoque.
		s.rollbackRestock(ctx, restocked)
		return domain.Order{}, err
	}

	order.Status = domain.OrderStatusCancelled
	s.logger.Info("Pedido cancelado e estoque reposto.", map[string]interface{}{"order_id": orderID})
	return order, nil
}

// rollbackRestock desfaz as reposições já aplicadas de um cancelamento que
// falhou, em ordem reversa. Falha aqui é logada e não interrompe as demais
// reversões.
func (s *Service) rollbackRestock(ctx context.Context, restocked []domain.OrderLine) {
	for i := len(restocked) - 1; i >= 0; i-- {
		line := restocked[i]
		if _, err := s.stock.AdjustStock(ctx, line.VariantID, -line.Quantity); err != nil {
			s.logger.Error(fmt.Sprintf("Falha ao desfazer reposição da variante %s (-%d). Intervenção manual necessária.",
				line.VariantID, line.Quantity), err)
		}
	}
}

// GetOrder busca um pedido pelo ID.
func (s *Service) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return domain.Order{}, apperror.NewValidationError("O ID do pedido deve ser um UUID válido.")
	}
	return s.repo.FindByID(ctx, orderID)
}

// ListOrders lista os pedidos do usuário autenticado (somente cabeçalhos).
func (s *Service) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperror.NewValidationError("O ID do usuário deve ser um UUID válido.")
	}
	return s.repo.FindByUser(ctx, userID)
}

// HasOpenReservations verifica se existem linhas de pedidos não cancelados
// referenciando a variante. O Variant Store não rastreia reservas: esta é a
// asserção que o chamador faz antes de deletar uma variante.
func (s *Service) HasOpenReservations(ctx context.Context, variantID string) (bool, error) {
	count, err := s.repo.CountOpenLinesByVariant(ctx, variantID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// resolveUnitPrice usa o price override da variante quando presente,
// senão o preço base do produto.
func (s *Service) resolveUnitPrice(ctx context.Context, variant domain.ProductVariant) (float64, error) {
	if variant.PriceOverride != nil {
		return *variant.PriceOverride, nil
	}
	product, err := s.products.FindByID(ctx, variant.ProductID)
	if err != nil {
		return 0, err
	}
	return product.BasePrice, nil
}
