package variantrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"varstock/internal/domain"
	apperror "varstock/internal/errors"
	"varstock/internal/pkg/logger"
)

// VariantRepository é a camada de persistência do Variant Store.
// As duas unique constraints do schema — (product_id, selection_signature) e
// (sku) — são o backstop durável das invariantes de unicidade.
type VariantRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewVariantRepository cria e retorna uma nova instância do Repositório de Variantes.
func NewVariantRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *VariantRepository {
	return &VariantRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const variantColumns = `id, product_id, selection, selection_signature, sku, stock_quantity, price_override, is_active, version, created_by, created_at, updated_at`

// rowScanner abstrai *sql.Row e *sql.Rows para o mapeamento das colunas.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanVariant mapeia uma linha do DB para a struct de domínio.
func scanVariant(row rowScanner) (domain.ProductVariant, error) {
	var v domain.ProductVariant
	var selectionJSON []byte
	var priceOverride sql.NullFloat64

	err := row.Scan(
		&v.ID, &v.ProductID, &selectionJSON, new(string), &v.SKU,
		&v.StockQuantity, &priceOverride, &v.IsActive, &v.Version,
		&v.CreatedBy, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return domain.ProductVariant{}, err
	}

	if err := json.Unmarshal(selectionJSON, &v.Selection); err != nil {
		return domain.ProductVariant{}, fmt.Errorf("falha ao desserializar a seleção de atributos: %w", err)
	}
	if priceOverride.Valid {
		v.PriceOverride = &priceOverride.Float64
	}
	return v, nil
}

// isUniqueViolation verifica se o erro do driver é de violação de chave única (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// SaveBatch persiste o conjunto de novas variantes como uma unidade atômica:
// ou todas são criadas, ou nenhuma (previne matrizes parciais após falha no
// meio do lote). Violação de unicidade (SKU ou seleção duplicada por corrida
// concorrente) é traduzida para ConflictError.
func (r *VariantRepository) SaveBatch(ctx context.Context, variants []domain.ProductVariant) ([]domain.ProductVariant, error) {
	if len(variants) == 0 {
		return []domain.ProductVariant{}, nil
	}

	r.logger.Debug("Iniciando SaveBatch de variantes no repositório.", map[string]interface{}{
		"product_id": variants[0].ProductID,
		"total":      len(variants),
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação para o lote de variantes.", err)
		return nil, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	const insertSQL = `
        INSERT INTO product_variants
            (id, product_id, selection, selection_signature, sku, stock_quantity, price_override, is_active, version, created_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for _, v := range variants {
		selectionJSON, marshalErr := json.Marshal(v.Selection)
		if marshalErr != nil {
			return nil, apperror.NewInternalError("Falha ao serializar a seleção de atributos.", marshalErr)
		}

		var priceOverride sql.NullFloat64
		if v.PriceOverride != nil {
			priceOverride = sql.NullFloat64{Float64: *v.PriceOverride, Valid: true}
		}

		_, err = tx.ExecContext(ctxTimeout, insertSQL,
			v.ID, v.ProductID, selectionJSON, v.Selection.Signature(), v.SKU,
			v.StockQuantity, priceOverride, v.IsActive, v.Version,
			v.CreatedBy, v.CreatedAt, v.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				r.logger.Warn("Violação de unicidade ao inserir variante.", map[string]interface{}{
					"product_id": v.ProductID,
					"sku":        v.SKU,
				})
				return nil, apperror.NewConflictError(fmt.Sprintf(
					"Variante com SKU %s ou seleção equivalente já existe para o produto %s.", v.SKU, v.ProductID))
			}
			r.logger.Error("Falha ao inserir variante no lote.", err)
			return nil, apperror.NewDBError("Falha ao inserir variante", err)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação do lote de variantes.", commitErr)
		return nil, apperror.NewDBError("Falha ao commitar transação", commitErr)
	}

	r.logger.Info("Lote de variantes persistido com sucesso.", map[string]interface{}{
		"product_id": variants[0].ProductID,
		"total":      len(variants),
	})
	return variants, nil
}

// FindByID busca uma variante pelo seu identificador.
func (r *VariantRepository) FindByID(ctx context.Context, id string) (domain.ProductVariant, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE id = $1`

	v, err := scanVariant(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.ProductVariant{}, apperror.NewNotFoundError(fmt.Sprintf("Variante com ID %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar variante no DB.", err)
		return domain.ProductVariant{}, apperror.NewDBError("Falha ao buscar variante", err)
	}
	return v, nil
}

// FindByProduct lista as variantes de um produto em ordem estável:
// criação primeiro, id como desempate.
func (r *VariantRepository) FindByProduct(ctx context.Context, productID string) ([]domain.ProductVariant, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE product_id = $1 ORDER BY created_at, id`

	rows, err := r.DB.QueryContext(ctxTimeout, query, productID)
	if err != nil {
		r.logger.Error("Falha ao executar FindByProduct query.", err)
		return nil, apperror.NewDBError("Falha ao buscar variantes do produto", err)
	}
	defer rows.Close()

	var variants []domain.ProductVariant
	for rows.Next() {
		v, scanErr := scanVariant(rows)
		if scanErr != nil {
			r.logger.Error("Falha ao mapear variante na iteração de FindByProduct.", scanErr)
			return nil, apperror.NewDBError("Falha ao mapear variantes do DB", scanErr)
		}
		variants = append(variants, v)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de variantes.", err)
		return nil, apperror.NewDBError("Erro após iteração de variantes", err)
	}

	return variants, nil
}

// UpdateAttributes atualiza apenas os campos que não são de estoque
// (price override e flag de ativação). Não toca em stock_quantity nem version.
func (r *VariantRepository) UpdateAttributes(ctx context.Context, id string, patch domain.VariantAttributePatch) (domain.ProductVariant, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	current, err := r.FindByID(ctxTimeout, id)
	if err != nil {
		return domain.ProductVariant{}, err
	}

	// Aplica o patch sobre o estado atual. Campos nil permanecem inalterados.
	newPriceOverride := current.PriceOverride
	if patch.ClearPriceOverride {
		newPriceOverride = nil
	} else if patch.PriceOverride != nil {
		newPriceOverride = patch.PriceOverride
	}
	newIsActive := current.IsActive
	if patch.IsActive != nil {
		newIsActive = *patch.IsActive
	}

	var priceOverride sql.NullFloat64
	if newPriceOverride != nil {
		priceOverride = sql.NullFloat64{Float64: *newPriceOverride, Valid: true}
	}

	query := `
        UPDATE product_variants
        SET price_override = $1, is_active = $2, updated_at = $3
        WHERE id = $4
        RETURNING ` + variantColumns

	updated, err := scanVariant(r.DB.QueryRowContext(ctxTimeout, query, priceOverride, newIsActive, time.Now().UTC(), id))
	if err == sql.ErrNoRows {
		return domain.ProductVariant{}, apperror.NewNotFoundError(fmt.Sprintf("Variante com ID %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar atributos da variante.", err)
		return domain.ProductVariant{}, apperror.NewDBError("Falha ao atualizar atributos da variante", err)
	}

	r.logger.Info("Atributos da variante atualizados.", map[string]interface{}{"id": id})
	return updated, nil
}

// UpdateStockOCC realiza a escrita condicional do protocolo de ajuste de
// estoque: grava a nova quantidade e incrementa a versão somente se a versão
// no banco ainda for a lida pelo chamador. Zero linhas afetadas significa que
// um escritor concorrente venceu a corrida — o chamador (Service) decide
// re-ler e tentar de novo dentro do orçamento de retries.
func (r *VariantRepository) UpdateStockOCC(ctx context.Context, id string, newQuantity, expectedVersion int) (domain.ProductVariant, error) {
	r.logger.Debug("Iniciando escrita condicional de estoque (OCC).", map[string]interface{}{
		"id":               id,
		"new_quantity":     newQuantity,
		"expected_version": expectedVersion,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE product_variants
        SET stock_quantity = $1, version = version + 1, updated_at = $2
        WHERE id = $3 AND version = $4
        RETURNING ` + variantColumns

	updated, err := scanVariant(r.DB.QueryRowContext(ctxTimeout, query, newQuantity, time.Now().UTC(), id, expectedVersion))
	if err == sql.ErrNoRows {
		// Versão desatualizada (ou variante removida em concorrência).
		r.logger.Warn("Falha no controle de concorrência otimista (OCC). Versão do registro desatualizada.", map[string]interface{}{
			"id":               id,
			"expected_version": expectedVersion,
		})
		return domain.ProductVariant{}, apperror.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar estoque da variante.", err)
		return domain.ProductVariant{}, apperror.NewDBError("Falha ao atualizar estoque", err)
	}

	r.logger.Info("Estoque da variante atualizado com sucesso.", map[string]interface{}{
		"id":           id,
		"new_quantity": updated.StockQuantity,
		"new_version":  updated.Version,
	})
	return updated, nil
}

// Delete remove a variante. A pré-condição de negócio (nenhuma reserva de
// pedido em aberto) é responsabilidade do chamador; o repositório só garante
// a existência do registro.
func (r *VariantRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM product_variants WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar variante no DB.", err)
		return apperror.NewDBError("Falha ao deletar variante", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após deleção de variante.", err)
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Variante com ID %s não encontrada.", id))
	}

	r.logger.Info("Variante deletada com sucesso.", map[string]interface{}{"id": id})
	return nil
}
