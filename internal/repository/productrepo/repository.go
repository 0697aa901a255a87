package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"varstock/internal/domain"
	apperror "varstock/internal/errors"
	"varstock/internal/pkg/cache"
	"varstock/internal/pkg/logger"
)

// Chave de cache para produtos (estratégia Cache-Aside).
const productCacheKey = "product:%s"

// ProductRepository contém as conexões necessárias para acessar os dados de produto.
type ProductRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Save persiste um novo Produto no banco de dados.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const productSQL = `
        INSERT INTO products (id, name, description, base_price, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, name, description, base_price, is_active, created_at, updated_at`

	err := r.DB.QueryRowContext(ctxTimeout, productSQL,
		product.ID, product.Name, product.Description, product.BasePrice,
		product.IsActive, product.CreatedAt, product.UpdatedAt,
	).Scan(
		&product.ID, &product.Name, &product.Description, &product.BasePrice,
		&product.IsActive, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao criar produto", err)
	}

	r.logger.Info("Produto criado com sucesso.", map[string]interface{}{"id": product.ID, "name": product.Name})
	return product, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)
	var product domain.Product

	// 1. Tentar obter do Cache (Redis)
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		// Cache HIT
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			return product, nil
		}
		// Se a desserialização falhar, continua para o DB.
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (ex: conexão perdida): logamos, mas continuamos.
		r.logger.Warn("Falha ao ler do cache Redis. Prosseguindo para o DB.", map[string]interface{}{"key": key})
	}

	// 2. Busca no Banco de Dados (PostgreSQL)
	productSQL := `
        SELECT id, name, description, base_price, is_active, created_at, updated_at
        FROM products
        WHERE id = $1`

	err = r.DB.QueryRowContext(ctxTimeout, productSQL, id).Scan(
		&product.ID, &product.Name, &product.Description, &product.BasePrice,
		&product.IsActive, &product.CreatedAt, &product.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		return domain.Product{}, apperror.NewDBError("Falha ao buscar produto no DB", err)
	}

	// 3. Popular o cache para futuras requisições (Cache-Aside WRITE).
	if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, productJSON, r.CacheTTL)
	}

	return product, nil
}

// FindAll lista os produtos segundo o filtro de busca e paginação.
func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	offset := (filter.Page - 1) * filter.Limit

	query := `
        SELECT id, name, description, base_price, is_active, created_at, updated_at
        FROM products
        WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
          AND ($2 = FALSE OR is_active = TRUE)
        ORDER BY created_at, id
        LIMIT $3 OFFSET $4`

	rows, err := r.DB.QueryContext(ctxTimeout, query, filter.Name, filter.ActiveOnly, filter.Limit, offset)
	if err != nil {
		r.logger.Error("Falha ao executar FindAll query.", err)
		return nil, apperror.NewDBError("Falha ao buscar produtos", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var product domain.Product
		err := rows.Scan(
			&product.ID, &product.Name, &product.Description, &product.BasePrice,
			&product.IsActive, &product.CreatedAt, &product.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Falha ao mapear produto na iteração de FindAll.", err)
			return nil, apperror.NewDBError("Falha ao mapear produtos do DB", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de produtos.", err)
		return nil, apperror.NewDBError("Erro após iteração de produtos", err)
	}

	return products, nil
}
