package orderrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"varstock/internal/domain"
	apperror "varstock/internal/errors"
	"varstock/internal/pkg/logger"
)

// OrderRepository persiste pedidos e suas linhas. O pedido em si é um
// colaborador do motor de estoque: os ajustes de quantidade acontecem na
// camada de serviço, antes da persistência.
type OrderRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewOrderRepository cria e retorna uma nova instância do Repositório de Pedidos.
func NewOrderRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save persiste o pedido e suas linhas em uma única transação.
func (r *OrderRepository) Save(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação para o pedido.", err)
		return domain.Order{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	const orderSQL = `
        INSERT INTO orders (id, user_id, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)`

	_, err = tx.ExecContext(ctxTimeout, orderSQL,
		order.ID, order.UserID, order.Status, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir pedido no DB.", err)
		return domain.Order{}, apperror.NewDBError("Falha ao inserir pedido", err)
	}

	const lineSQL = `
        INSERT INTO order_lines (id, order_id, variant_id, quantity, unit_price)
        VALUES ($1, $2, $3, $4, $5)`

	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctxTimeout, lineSQL,
			line.ID, line.OrderID, line.VariantID, line.Quantity, line.UnitPrice,
		)
		if err != nil {
			r.logger.Error("Falha ao inserir linha do pedido.", err)
			return domain.Order{}, apperror.NewDBError("Falha ao inserir linha do pedido", err)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação do pedido.", commitErr)
		return domain.Order{}, apperror.NewDBError("Falha ao commitar transação", commitErr)
	}

	r.logger.Info("Pedido persistido com sucesso.", map[string]interface{}{"id": order.ID, "lines": len(order.Lines)})
	return order, nil
}

// FindByID busca o pedido e suas linhas.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var order domain.Order
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT id, user_id, status, created_at, updated_at FROM orders WHERE id = $1`, id,
	).Scan(&order.ID, &order.UserID, &order.Status, &order.CreatedAt, &order.UpdatedAt)

	if err == sql.ErrNoRows {
		return domain.Order{}, apperror.NewNotFoundError(fmt.Sprintf("Pedido com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar pedido no DB.", err)
		return domain.Order{}, apperror.NewDBError("Falha ao buscar pedido", err)
	}

	rows, err := r.DB.QueryContext(ctxTimeout,
		`SELECT id, order_id, variant_id, quantity, unit_price FROM order_lines WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		r.logger.Error("Falha ao buscar linhas do pedido.", err)
		return domain.Order{}, apperror.NewDBError("Falha ao buscar linhas do pedido", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.VariantID, &line.Quantity, &line.UnitPrice); err != nil {
			r.logger.Error("Falha ao mapear linha do pedido.", err)
			return domain.Order{}, apperror.NewDBError("Falha ao mapear linhas do pedido", err)
		}
		order.Lines = append(order.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return domain.Order{}, apperror.NewDBError("Erro após iteração de linhas do pedido", err)
	}

	return order, nil
}

// FindByUser lista os cabeçalhos dos pedidos do usuário, mais recentes
// primeiro. As linhas são carregadas apenas na consulta individual (FindByID).
func (r *OrderRepository) FindByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout,
		`SELECT id, user_id, status, created_at, updated_at FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		r.logger.Error("Falha ao executar FindByUser query.", err)
		return nil, apperror.NewDBError("Falha ao buscar pedidos do usuário", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.Status, &order.CreatedAt, &order.UpdatedAt); err != nil {
			r.logger.Error("Falha ao mapear pedido na iteração de FindByUser.", err)
			return nil, apperror.NewDBError("Falha ao mapear pedidos do DB", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro após iteração de pedidos", err)
	}

	return orders, nil
}

// UpdateStatus atualiza o status do ciclo de vida do pedido.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Falha ao atualizar status do pedido.", err)
		return apperror.NewDBError("Falha ao atualizar status do pedido", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Pedido com ID %s não encontrado.", id))
	}
	return nil
}

// CountOpenLinesByVariant conta as linhas de pedidos não cancelados que
// referenciam a variante. É a verificação de pré-condição usada antes da
// deleção de uma variante.
func (r *OrderRepository) CountOpenLinesByVariant(ctx context.Context, variantID string) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var count int
	err := r.DB.QueryRowContext(ctxTimeout, `
        SELECT COUNT(*)
        FROM order_lines l
        JOIN orders o ON o.id = l.order_id
        WHERE l.variant_id = $1 AND o.status <> $2`,
		variantID, domain.OrderStatusCancelled,
	).Scan(&count)
	if err != nil {
		r.logger.Error("Falha ao contar reservas da variante.", err)
		return 0, apperror.NewDBError("Falha ao contar reservas da variante", err)
	}
	return count, nil
}
