package variantservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"varstock/internal/domain"
	apperror "varstock/internal/errors"
	"varstock/internal/pkg/logger"
)

// VariantRepository define o contrato que o Serviço de Variantes espera da
// camada de Persistência.
type VariantRepository interface {
	SaveBatch(ctx context.Context, variants []domain.ProductVariant) ([]domain.ProductVariant, error)
	FindByID(ctx context.Context, id string) (domain.ProductVariant, error)
	FindByProduct(ctx context.Context, productID string) ([]domain.ProductVariant, error)
	UpdateAttributes(ctx context.Context, id string, patch domain.VariantAttributePatch) (domain.ProductVariant, error)
	UpdateStockOCC(ctx context.Context, id string, newQuantity, expectedVersion int) (domain.ProductVariant, error)
	Delete(ctx context.Context, id string) error
}

// ProductGetter é o recorte mínimo do repositório de produtos que a geração
// de matriz precisa (confirmar que o produto existe).
type ProductGetter interface {
	FindByID(ctx context.Context, id string) (domain.Product, error)
}

// AttributeCatalog é o recorte do catálogo de atributos usado na validação
// das combinações.
type AttributeCatalog interface {
	GetTypesByProduct(ctx context.Context, productID string) ([]domain.AttributeTypeWithValues, error)
}

// Service implementa o Variant Store e o protocolo de ajuste de estoque.
type Service struct {
	repo       VariantRepository
	products   ProductGetter
	attributes AttributeCatalog
	maxRetries int
	logger     logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Variantes.
// maxRetries é o orçamento de tentativas do protocolo OCC (mínimo 1).
func NewService(repo VariantRepository, products ProductGetter, attributes AttributeCatalog, maxRetries int, logger logger.Logger) *Service {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Service{
		repo:       repo,
		products:   products,
		attributes: attributes,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// GetVariant busca uma variante pelo ID.
func (s *Service) GetVariant(ctx context.Context, id string) (domain.ProductVariant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ProductVariant{}, apperror.NewValidationError("O ID da variante deve ser um UUID válido.")
	}
	return s.repo.FindByID(ctx, id)
}

// ListByProduct lista as variantes de um produto em ordem estável
// (criação, depois id).
func (s *Service) ListByProduct(ctx context.Context, productID string) ([]domain.ProductVariant, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	return s.repo.FindByProduct(ctx, productID)
}

// UpdateAttributes atualiza os campos que não são de estoque (price override,
// flag de ativação). Nunca toca em stock_quantity nem version.
func (s *Service) UpdateAttributes(ctx context.Context, id string, patch domain.VariantAttributePatch) (domain.ProductVariant, error) {
	if patch.PriceOverride != nil && *patch.PriceOverride < 0 {
		return domain.ProductVariant{}, apperror.NewValidationError("O price override não pode ser negativo.")
	}
	if patch.PriceOverride != nil && patch.ClearPriceOverride {
		return domain.ProductVariant{}, apperror.NewValidationError("Não é possível definir e limpar o price override na mesma requisição.")
	}
	return s.repo.UpdateAttributes(ctx, id, patch)
}

// SetStock atribui a quantidade absoluta de estoque (correção manual do
// admin): "o estoque agora é exatamente N". A versão é incrementada pela
// escrita condicional para que ajustes concorrentes não se percam.
func (s *Service) SetStock(ctx context.Context, id string, newQuantity int) (domain.ProductVariant, error) {
	if newQuantity < 0 {
		// Rejeita antes de qualquer leitura: nenhuma mutação ocorre e a
		// versão permanece inalterada.
		return domain.ProductVariant{}, apperror.NewValidationError("A quantidade absoluta de estoque não pode ser negativa.")
	}

	return s.mutateStock(ctx, id, func(current domain.ProductVariant) (int, error) {
		return newQuantity, nil
	})
}

// AdjustStock aplica uma mudança relativa de estoque: delta negativo na
// colocação de pedido, positivo no cancelamento/reposição. A verificação de
// resultado negativo é feita contra a quantidade recém-lida em CADA
// tentativa — nunca contra o valor velho da primeira leitura — para que um
// decremento não passe sobre uma contagem desatualizada.
func (s *Service) AdjustStock(ctx context.Context, id string, delta int) (domain.ProductVariant, error) {
	if delta == 0 {
		return domain.ProductVariant{}, apperror.NewValidationError("O ajuste de estoque (delta) não pode ser zero.")
	}

	return s.mutateStock(ctx, id, func(current domain.ProductVariant) (int, error) {
		newQuantity := current.StockQuantity + delta
		if newQuantity < 0 {
			return 0, apperror.NewInsufficientStockError(current.ID, delta, current.StockQuantity)
		}
		return newQuantity, nil
	})
}

// mutateStock é o ciclo ler-computar-escrever do protocolo de ajuste:
// lê (quantidade, versão), computa a quantidade candidata e escreve
// condicionado à versão lida. Se outro escritor venceu a corrida, re-lê e
// tenta de novo até esgotar o orçamento, quando falha rápido com
// ConcurrencyConflictError em vez de ficar em spin.
func (s *Service) mutateStock(ctx context.Context, id string, compute func(domain.ProductVariant) (int, error)) (domain.ProductVariant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ProductVariant{}, apperror.NewValidationError("O ID da variante deve ser um UUID válido.")
	}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return domain.ProductVariant{}, err
		}

		newQuantity, err := compute(current)
		if err != nil {
			// Terminal: e.g. InsufficientStockError contra a quantidade fresca.
			return domain.ProductVariant{}, err
		}

		updated, err := s.repo.UpdateStockOCC(ctx, id, newQuantity, current.Version)
		if err == nil {
			return updated, nil
		}

		var conflict *apperror.ConflictError
		if errors.As(err, &conflict) {
			s.logger.Debug("Conflito de versão na escrita de estoque. Re-lendo.", map[string]interface{}{
				"id":      id,
				"attempt": attempt,
			})
			continue
		}

		// Qualquer outro erro (DB fora, variante deletada, etc.) é terminal.
		return domain.ProductVariant{}, err
	}

	s.logger.Warn("Orçamento de retries do protocolo de estoque esgotado.", map[string]interface{}{
		"id":       id,
		"attempts": s.maxRetries,
	})
	return domain.ProductVariant{}, apperror.NewConcurrencyConflictError(id, s.maxRetries)
}

// DeleteVariant remove a variante. A pré-condição de que não existem reservas
// de pedido em aberto é responsabilidade do chamador (camada de pedidos),
// verificada antes desta chamada.
func (s *Service) DeleteVariant(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError("O ID da variante deve ser um UUID válido.")
	}
	return s.repo.Delete(ctx, id)
}

// GenerateMatrix transforma as combinações de atributos selecionadas em
// variantes concretas e persistidas. A operação é idempotente: combinações já
// existentes são puladas (não erram), e o SKU determinístico garante que
// re-execuções após falha parcial produzam os mesmos identificadores.
func (s *Service) GenerateMatrix(ctx context.Context, productID string, request domain.MatrixRequest, createdBy string) ([]domain.ProductVariant, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	if request.DefaultStock < 0 {
		return nil, apperror.NewValidationError("O estoque inicial padrão não pode ser negativo.")
	}

	// Lista vazia é no-op, não erro.
	if len(request.Combinations) == 0 {
		return []domain.ProductVariant{}, nil
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	requiredTypes, err := s.attributes.GetTypesByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	// 1. Validar cada combinação contra os tipos obrigatórios do produto.
	for i, combo := range request.Combinations {
		if err := validateCombination(combo, requiredTypes); err != nil {
			return nil, apperror.NewValidationError(fmt.Sprintf("Combinação %d inválida: %s", i+1, err.Error()))
		}
	}

	// 2. Deduplicar por assinatura (igualdade de conjunto, independente da ordem).
	// Uma combinação repetida na entrada produz exatamente uma variante.
	deduped := dedupeBySignature(request.Combinations)

	// 3. Pular combinações já persistidas (idempotência na reaplicação).
	existing, err := s.repo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	existingSignatures := make(map[string]struct{}, len(existing))
	for _, v := range existing {
		existingSignatures[v.Selection.Signature()] = struct{}{}
	}

	now := time.Now().UTC()
	var toCreate []domain.ProductVariant
	for _, combo := range deduped {
		if _, ok := existingSignatures[combo.Signature()]; ok {
			continue
		}

		toCreate = append(toCreate, domain.ProductVariant{
			ID:        uuid.New().String(),
			ProductID: product.ID,
			Selection: combo,
			// 4. SKU determinístico: mesma combinação → mesmo SKU, sempre.
			SKU:           domain.DeriveSKU(product.ID, combo),
			StockQuantity: request.DefaultStock,
			IsActive:      true,
			Version:       1,
			CreatedBy:     createdBy,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	if len(toCreate) == 0 {
		s.logger.Info("Geração de matriz sem variantes novas (todas já existem).", map[string]interface{}{
			"product_id": productID,
		})
		return []domain.ProductVariant{}, nil
	}

	// 5. Persistir como unidade atômica (tudo ou nada).
	created, err := s.repo.SaveBatch(ctx, toCreate)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Matriz de variantes gerada com sucesso.", map[string]interface{}{
		"product_id": productID,
		"requested":  len(request.Combinations),
		"created":    len(created),
	})
	return created, nil
}

// validateCombination garante que a combinação cobre exatamente os tipos
// obrigatórios do produto, com valores permitidos.
func validateCombination(combo domain.AttributeSelection, requiredTypes []domain.AttributeTypeWithValues) error {
	if len(combo) == 0 {
		return errors.New("a combinação não pode ser vazia")
	}

	required := make(map[string]domain.AttributeTypeWithValues, len(requiredTypes))
	for _, t := range requiredTypes {
		required[domain.NormalizeAttributeName(t.Name)] = t
	}

	// Todo tipo obrigatório precisa de um valor.
	seen := make(map[string]struct{}, len(combo))
	for typeName, value := range combo {
		key := domain.NormalizeAttributeName(typeName)
		t, ok := required[key]
		if !ok {
			return fmt.Errorf("o tipo de atributo '%s' não é declarado pelo produto", typeName)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("o tipo de atributo '%s' aparece mais de uma vez", typeName)
		}
		seen[key] = struct{}{}
		if !t.HasValue(value) {
			return fmt.Errorf("o valor '%s' não é permitido para o tipo '%s'", value, t.Name)
		}
	}

	for key, t := range required {
		if _, ok := seen[key]; !ok {
			return fmt.Errorf("falta um valor para o tipo obrigatório '%s'", t.Name)
		}
	}
	return nil
}

// dedupeBySignature colapsa combinações repetidas preservando a ordem da
// primeira ocorrência.
func dedupeBySignature(combos []domain.AttributeSelection) []domain.AttributeSelection {
	seen := make(map[string]struct{}, len(combos))
	var out []domain.AttributeSelection
	for _, combo := range combos {
		sig := combo.Signature()
		if _, ok := seen[sig]; ok {
			continue
		}
		seen[sig] = struct{}{}
		out = append(out, combo)
	}
	return out
}
