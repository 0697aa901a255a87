package attributerepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"varstock/internal/domain"
	apperror "varstock/internal/errors"
	"varstock/internal/pkg/logger"
)

// AttributeRepository é o catálogo de atributos: lookup somente leitura dos
// tipos (e.g., Tamanho, Cor) e seus valores permitidos. É o insumo
// combinatório da geração de matriz.
type AttributeRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewAttributeRepository cria e retorna uma nova instância do Repositório de Atributos.
func NewAttributeRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *AttributeRepository {
	return &AttributeRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// ListTypes retorna todos os tipos de atributo com seus valores permitidos.
func (r *AttributeRepository) ListTypes(ctx context.Context) ([]domain.AttributeTypeWithValues, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT id, name, created_at FROM attribute_types ORDER BY name`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao executar ListTypes query.", err)
		return nil, apperror.NewDBError("Falha ao buscar tipos de atributo", err)
	}
	defer rows.Close()

	types, err := r.collectTypes(rows)
	if err != nil {
		return nil, err
	}
	return r.attachValues(ctxTimeout, types)
}

// GetTypesByProduct retorna os tipos de atributo que o produto declara como
// obrigatórios, com seus valores permitidos. Alimenta a validação das
// combinações na geração de matriz.
func (r *AttributeRepository) GetTypesByProduct(ctx context.Context, productID string) ([]domain.AttributeTypeWithValues, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT t.id, t.name, t.created_at
        FROM attribute_types t
        JOIN product_attribute_types pat ON pat.attribute_type_id = t.id
        WHERE pat.product_id = $1
        ORDER BY t.name`

	rows, err := r.DB.QueryContext(ctxTimeout, query, productID)
	if err != nil {
		r.logger.Error("Falha ao executar GetTypesByProduct query.", err)
		return nil, apperror.NewDBError("Falha ao buscar tipos de atributo do produto", err)
	}
	defer rows.Close()

	types, err := r.collectTypes(rows)
	if err != nil {
		return nil, err
	}
	return r.attachValues(ctxTimeout, types)
}

// collectTypes mapeia as linhas de tipos para o domínio.
func (r *AttributeRepository) collectTypes(rows *sql.Rows) ([]domain.AttributeTypeWithValues, error) {
	var types []domain.AttributeTypeWithValues
	for rows.Next() {
		var t domain.AttributeTypeWithValues
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			r.logger.Error("Falha ao mapear tipo de atributo.", err)
			return nil, apperror.NewDBError("Falha ao mapear tipos de atributo", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de tipos de atributo.", err)
		return nil, apperror.NewDBError("Erro após iteração de tipos de atributo", err)
	}
	return types, nil
}

// attachValues carrega os valores permitidos de todos os tipos em uma única
// query (ANY sobre os IDs) e os distribui.
func (r *AttributeRepository) attachValues(ctx context.Context, types []domain.AttributeTypeWithValues) ([]domain.AttributeTypeWithValues, error) {
	if len(types) == 0 {
		return types, nil
	}

	ids := make([]string, len(types))
	index := make(map[string]int, len(types))
	for i, t := range types {
		ids[i] = t.ID
		index[t.ID] = i
	}

	query := `
        SELECT id, attribute_type_id, value
        FROM attribute_values
        WHERE attribute_type_id = ANY($1)
        ORDER BY value`

	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		r.logger.Error("Falha ao buscar valores de atributo.", err)
		return nil, apperror.NewDBError("Falha ao buscar valores de atributo", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.AttributeValue
		if err := rows.Scan(&v.ID, &v.TypeID, &v.Value); err != nil {
			r.logger.Error("Falha ao mapear valor de atributo.", err)
			return nil, apperror.NewDBError("Falha ao mapear valores de atributo", err)
		}
		if i, ok := index[v.TypeID]; ok {
			types[i].Values = append(types[i].Values, v)
		}
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de valores de atributo.", err)
		return nil, apperror.NewDBError("Erro após iteração de valores de atributo", err)
	}

	return types, nil
}
