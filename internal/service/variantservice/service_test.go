package variantservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"varstock/internal/domain"
	apperror "varstock/internal/errors"
	"varstock/internal/pkg/logger"
	"varstock/internal/service/variantservice"
)

// MockVariantRepository é uma implementação mock da interface VariantRepository
type MockVariantRepository struct {
	mock.Mock
}

func (m *MockVariantRepository) SaveBatch(ctx context.Context, variants []domain.ProductVariant) ([]domain.ProductVariant, error) {
	args := m.Called(ctx, variants)
	return args.Get(0).([]domain.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) FindByID(ctx context.Context, id string) (domain.ProductVariant, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) FindByProduct(ctx context.Context, productID string) ([]domain.ProductVariant, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) UpdateAttributes(ctx context.Context, id string, patch domain.VariantAttributePatch) (domain.ProductVariant, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(domain.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) UpdateStockOCC(ctx context.Context, id string, newQuantity, expectedVersion int) (domain.ProductVariant, error) {
	args := m.Called(ctx, id, newQuantity, expectedVersion)
	return args.Get(0).(domain.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProductGetter é uma implementação mock da interface ProductGetter
type MockProductGetter struct {
	mock.Mock
}

func (m *MockProductGetter) FindByID(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

// MockAttributeCatalog é uma implementação mock da interface AttributeCatalog
type MockAttributeCatalog struct {
	mock.Mock
}

func (m *MockAttributeCatalog) GetTypesByProduct(ctx context.Context, productID string) ([]domain.AttributeTypeWithValues, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.AttributeTypeWithValues), args.Error(1)
}

// newTypeWithValues monta um tipo de atributo com seus valores permitidos.
func newTypeWithValues(name string, values ...string) domain.AttributeTypeWithValues {
	t := domain.AttributeTypeWithValues{
		AttributeType: domain.AttributeType{
			ID:        uuid.New().String(),
			Name:      name,
			CreatedAt: time.Now(),
		},
	}
	for _, v := range values {
		t.Values = append(t.Values, domain.AttributeValue{
			ID:     uuid.New().String(),
			TypeID: t.ID,
			Value:  v,
		})
	}
	return t
}

// sneakersCatalog é o catálogo usado pelos testes de matriz:
// Tamanho (US 9, US 10) e Cor (Preto, Branco).
func sneakersCatalog() []domain.AttributeTypeWithValues {
	return []domain.AttributeTypeWithValues{
		newTypeWithValues("Tamanho", "US 9", "US 10"),
		newTypeWithValues("Cor", "Preto", "Branco"),
	}
}

func newTestService(repo *MockVariantRepository, products *MockProductGetter, attributes *MockAttributeCatalog, maxRetries int) *variantservice.Service {
	return variantservice.NewService(repo, products, attributes, maxRetries, logger.NewLogger("debug"))
}

// --- Geração de Matriz ---

// TestGenerateMatrix_Success testa a geração completa: combinações válidas
// viram variantes com SKU determinístico, estoque padrão e versão 1.
func TestGenerateMatrix_Success(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	mockProducts := new(MockProductGetter)
	mockAttributes := new(MockAttributeCatalog)
	svc := newTestService(mockRepo, mockProducts, mockAttributes, 3)

	productID := uuid.New().String()
	mockProducts.On("FindByID", mock.Anything, productID).
		Return(domain.Product{ID: productID, Name: "Tênis Runner", BasePrice: 299.90}, nil)
	mockAttributes.On("GetTypesByProduct", mock.Anything, productID).
		Return(sneakersCatalog(), nil)
	mockRepo.On("FindByProduct", mock.Anything, productID).
		Return([]domain.ProductVariant{}, nil)

	var saved []domain.ProductVariant
	mockRepo.On("SaveBatch", mock.Anything, mock.AnythingOfType("[]domain.ProductVariant")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).([]domain.ProductVariant)
		}).
		Return([]domain.ProductVariant{}, nil)

	request := domain.MatrixRequest{
		Combinations: []domain.AttributeSelection{
			{"Tamanho": "US 9", "Cor": "Preto"},
			{"Tamanho": "US 9", "Cor": "Branco"},
			{"Tamanho": "US 10", "Cor": "Preto"},
		},
		DefaultStock: 7,
	}

	_, err := svc.GenerateMatrix(context.Background(), productID, request, "admin@varstock.io")

	assert.NoError(t, err)
	assert.Len(t, saved, 3)
	for _, v := range saved {
		assert.Equal(t, productID, v.ProductID)
		assert.Equal(t, domain.DeriveSKU(productID, v.Selection), v.SKU)
		assert.Equal(t, 7, v.StockQuantity)
		assert.Equal(t, 1, v.Version)
		assert.True(t, v.IsActive)
		assert.Equal(t, "admin@varstock.io", v.CreatedBy)
	}
	mockRepo.AssertExpectations(t)
}

// TestGenerateMatrix_CollapsesDuplicateCombinations testa que combinações
// repetidas na entrada (mesmo com ordem de pares diferente) produzem
// exatamente uma variante.
func TestGenerateMatrix_CollapsesDuplicateCombinations(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	mockProducts := new(MockProductGetter)
	mockAttributes := new(MockAttributeCatalog)
	svc := newTestService(mockRepo, mockProducts, mockAttributes, 3)

	productID := uuid.New().String()
	mockProducts.On("FindByID", mock.Anything, productID).
		Return(domain.Product{ID: productID}, nil)
	mockAttributes.On("GetTypesByProduct", mock.Anything, productID).
		Return(sneakersCatalog(), nil)
	mockRepo.On("FindByProduct", mock.Anything, productID).
		Return([]domain.ProductVariant{}, nil)

	var saved []domain.ProductVariant
	mockRepo.On("SaveBatch", mock.Anything, mock.AnythingOfType("[]domain.ProductVariant")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).([]domain.ProductVariant)
		}).
		Return([]domain.ProductVariant{}, nil)

	request := domain.MatrixRequest{
		Combinations: []domain.AttributeSelection{
			{"Tamanho": "US 9", "Cor": "Preto"},
			{"Tamanho": "US 10", "Cor": "Branco"},
			{"Cor": "Preto", "Tamanho": "US 9"}, // duplicata em ordem diferente
		},
	}

	_, err := svc.GenerateMatrix(context.Background(), productID, request, "admin")

	assert.NoError(t, err)
	assert.Len(t, saved, 2)
	mockRepo.AssertExpectations(t)
}

// TestGenerateMatrix_SkipsExistingVariants testa a idempotência: re-submeter
// combinações já persistidas não cria nada nem erra.
func TestGenerateMatrix_SkipsExistingVariants(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	mockProducts := new(MockProductGetter)
	mockAttributes := new(MockAttributeCatalog)
	svc := newTestService(mockRepo, mockProducts, mockAttributes, 3)

	productID := uuid.New().String()
	existingSelection := domain.AttributeSelection{"Tamanho": "US 9", "Cor": "Preto"}

	mockProducts.On("FindByID", mock.Anything, productID).
		Return(domain.Product{ID: productID}, nil)
	mockAttributes.On("GetTypesByProduct", mock.Anything, productID).
		Return(sneakersCatalog(), nil)
	mockRepo.On("FindByProduct", mock.Anything, productID).
		Return([]domain.ProductVariant{
			{
				ID:        uuid.New().String(),
				ProductID: productID,
				Selection: existingSelection,
				SKU:       domain.DeriveSKU(productID, existingSelection),
				Version:   1,
			},
		}, nil)

	request := domain.MatrixRequest{
		Combinations: []domain.AttributeSelection{existingSelection},
	}

	result, err := svc.GenerateMatrix(context.Background(), productID, request, "admin")

	assert.NoError(t, err)
	assert.Empty(t, result)
	mockRepo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

// TestGenerateMatrix_Fail_UnknownAttributeType testa a rejeição de uma
// combinação com tipo que o produto não declara.
func TestGenerateMatrix_Fail_UnknownAttributeType(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	mockProducts := new(MockProductGetter)
	mockAttributes := new(MockAttributeCatalog)
	svc := newTestService(mockRepo, mockProducts, mockAttributes, 3)

	productID := uuid.New().String()
	mockProducts.On("FindByID", mock.Anything, productID).
		Return(domain.Product{ID: productID}, nil)
	mockAttributes.On("GetTypesByProduct", mock.Anything, productID).
		Return(sneakersCatalog(), nil)

	request := domain.MatrixRequest{
		Combinations: []domain.AttributeSelection{
			{"Tamanho": "US 9", "Cor": "Preto", "Material": "Couro"},
		},
	}

	_, err := svc.GenerateMatrix(context.Background(), productID, request, "admin")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "Material")
	mockRepo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
}

// TestGenerateMatrix_Fail_MissingRequiredType testa a rejeição de uma
// combinação que não cobre todos os tipos obrigatórios.
func TestGenerateMatrix_Fail_MissingRequiredType(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	mockProducts := new(MockProductGetter)
	mockAttributes := new(MockAttributeCatalog)
	svc := newTestService(mockRepo, mockProducts, mockAttributes, 3)

	productID := uuid.New().String()
	mockProducts.On("FindByID", mock.Anything, productID).
		Return(domain.Product{ID: productID}, nil)
	mockAttributes.On("GetTypesByProduct", mock.Anything, productID).
		Return(sneakersCatalog(), nil)

	request := domain.MatrixRequest{
		Combinations: []domain.AttributeSelection{
			{"Tamanho": "US 9"}, // falta "Cor"
		},
	}

	_, err := svc.GenerateMatrix(context.Background(), productID, request, "admin")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "Cor")
	mockRepo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
}

// TestGenerateMatrix_Fail_ValueNotAllowed testa a rejeição de um valor que
// não pertence ao tipo.
func TestGenerateMatrix_Fail_ValueNotAllowed(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	mockProducts := new(MockProductGetter)
	mockAttributes := new(MockAttributeCatalog)
	svc := newTestService(mockRepo, mockProducts, mockAttributes, 3)

	productID := uuid.New().String()
	mockProducts.On("FindByID", mock.Anything, productID).
		Return(domain.Product{ID: productID}, nil)
	mockAttributes.On("GetTypesByProduct", mock.Anything, productID).
		Return(sneakersCatalog(), nil)

	request := domain.MatrixRequest{
		Combinations: []domain.AttributeSelection{
			{"Tamanho": "US 15", "Cor": "Preto"},
		},
	}

	_, err := svc.GenerateMatrix(context.Background(), productID, request, "admin")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "US 15")
	mockRepo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
}

// TestGenerateMatrix_EmptyCombinations testa que uma lista vazia é no-op,
// não erro: nada é consultado nem persistido.
func TestGenerateMatrix_EmptyCombinations(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	mockProducts := new(MockProductGetter)
	mockAttributes := new(MockAttributeCatalog)
	svc := newTestService(mockRepo, mockProducts, mockAttributes, 3)

	result, err := svc.GenerateMatrix(context.Background(), uuid.New().String(), domain.MatrixRequest{}, "admin")

	assert.NoError(t, err)
	assert.Empty(t, result)
	mockProducts.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
}

// TestGenerateMatrix_Fail_NegativeDefaultStock testa a rejeição do estoque
// inicial negativo antes de qualquer consulta.
func TestGenerateMatrix_Fail_NegativeDefaultStock(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	mockProducts := new(MockProductGetter)
	mockAttributes := new(MockAttributeCatalog)
	svc := newTestService(mockRepo, mockProducts, mockAttributes, 3)

	request := domain.MatrixRequest{
		Combinations: []domain.AttributeSelection{{"Tamanho": "US 9", "Cor": "Preto"}},
		DefaultStock: -1,
	}

	_, err := svc.GenerateMatrix(context.Background(), uuid.New().String(), request, "admin")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockProducts.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

// TestGenerateMatrix_Fail_ConflictOnConcurrentInsert testa o backstop de
// unicidade do armazenamento: quando uma geração concorrente vence a corrida e
// o lote viola o índice único, o ConflictError do repositório propaga intacto.
func TestGenerateMatrix_Fail_ConflictOnConcurrentInsert(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	mockProducts := new(MockProductGetter)
	mockAttributes := new(MockAttributeCatalog)
	svc := newTestService(mockRepo, mockProducts, mockAttributes, 3)

	productID := uuid.New().String()
	mockProducts.On("FindByID", mock.Anything, productID).
		Return(domain.Product{ID: productID}, nil)
	mockAttributes.On("GetTypesByProduct", mock.Anything, productID).
		Return(sneakersCatalog(), nil)
	mockRepo.On("FindByProduct", mock.Anything, productID).
		Return([]domain.ProductVariant{}, nil)
	mockRepo.On("SaveBatch", mock.Anything, mock.AnythingOfType("[]domain.ProductVariant")).
		Return([]domain.ProductVariant{}, apperror.NewConflictError("Variante com SKU ou seleção equivalente já existe."))

	request := domain.MatrixRequest{
		Combinations: []domain.AttributeSelection{{"Tamanho": "US 9", "Cor": "Preto"}},
	}

	_, err := svc.GenerateMatrix(context.Background(), productID, request, "admin")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertExpectations(t)
}

// --- Protocolo de Ajuste de Estoque ---

// TestAdjustStock_Success testa o ciclo ler-computar-escrever sem conflito.
func TestAdjustStock_Success(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	svc := newTestService(mockRepo, new(MockProductGetter), new(MockAttributeCatalog), 3)

	variantID := uuid.New().String()
	current := domain.ProductVariant{ID: variantID, StockQuantity: 10, Version: 4}
	updated := domain.ProductVariant{ID: variantID, StockQuantity: 13, Version: 5}

	mockRepo.On("FindByID", mock.Anything, variantID).Return(current, nil)
	mockRepo.On("UpdateStockOCC", mock.Anything, variantID, 13, 4).Return(updated, nil)

	result, err := svc.AdjustStock(context.Background(), variantID, 3)

	assert.NoError(t, err)
	assert.Equal(t, 13, result.StockQuantity)
	assert.Equal(t, 5, result.Version)
	mockRepo.AssertExpectations(t)
}

// TestAdjustStock_RetriesOnVersionConflict testa que um conflito de versão
// provoca re-leitura e nova tentativa, e a segunda escrita usa a quantidade
// e a versão frescas.
func TestAdjustStock_RetriesOnVersionConflict(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	svc := newTestService(mockRepo, new(MockProductGetter), new(MockAttributeCatalog), 3)

	variantID := uuid.New().String()

	// 1ª tentativa: lê (10, v1), outro escritor vence a corrida.
	mockRepo.On("FindByID", mock.Anything, variantID).
		Return(domain.ProductVariant{ID: variantID, StockQuantity: 10, Version: 1}, nil).Once()
	mockRepo.On("UpdateStockOCC", mock.Anything, variantID, 13, 1).
		Return(domain.ProductVariant{}, apperror.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")).Once()

	// 2ª tentativa: re-lê o estado fresco (12, v2) e escreve com sucesso.
	mockRepo.On("FindByID", mock.Anything, variantID).
		Return(domain.ProductVariant{ID: variantID, StockQuantity: 12, Version: 2}, nil).Once()
	mockRepo.On("UpdateStockOCC", mock.Anything, variantID, 15, 2).
		Return(domain.ProductVariant{ID: variantID, StockQuantity: 15, Version: 3}, nil).Once()

	result, err := svc.AdjustStock(context.Background(), variantID, 3)

	assert.NoError(t, err)
	assert.Equal(t, 15, result.StockQuantity)
	assert.Equal(t, 3, result.Version)
	mockRepo.AssertExpectations(t)
}

// TestAdjustStock_Fail_InsufficientStockOnFreshRead testa que a verificação de
// estoque negativo usa a quantidade re-lida em cada tentativa: o decremento
// que cabia na primeira leitura (5) não passa sobre a contagem fresca (2).
func TestAdjustStock_Fail_InsufficientStockOnFreshRead(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	svc := newTestService(mockRepo, new(MockProductGetter), new(MockAttributeCatalog), 3)

	variantID := uuid.New().String()

	// 1ª tentativa: (5, v1) permite -4, mas um decremento concorrente vence.
	mockRepo.On("FindByID", mock.Anything, variantID).
		Return(domain.ProductVariant{ID: variantID, StockQuantity: 5, Version: 1}, nil).Once()
	mockRepo.On("UpdateStockOCC", mock.Anything, variantID, 1, 1).
		Return(domain.ProductVariant{}, apperror.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")).Once()

	// 2ª tentativa: o estado fresco é (2, v2); 2-4 < 0 é terminal.
	mockRepo.On("FindByID", mock.Anything, variantID).
		Return(domain.ProductVariant{ID: variantID, StockQuantity: 2, Version: 2}, nil).Once()

	_, err := svc.AdjustStock(context.Background(), variantID, -4)

	assert.Error(t, err)
	var insufficient *apperror.InsufficientStockError
	assert.True(t, errors.As(err, &insufficient))
	assert.Equal(t, variantID, insufficient.VariantID)
	assert.Equal(t, -4, insufficient.Requested)
	assert.Equal(t, 2, insufficient.Available)
	mockRepo.AssertExpectations(t)
}

// TestAdjustStock_Fail_RetryBudgetExhausted testa o esgotamento do orçamento
// de tentativas sob contenção persistente.
func TestAdjustStock_Fail_RetryBudgetExhausted(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	svc := newTestService(mockRepo, new(MockProductGetter), new(MockAttributeCatalog), 2)

	variantID := uuid.New().String()
	mockRepo.On("FindByID", mock.Anything, variantID).
		Return(domain.ProductVariant{ID: variantID, StockQuantity: 10, Version: 1}, nil).Times(2)
	mockRepo.On("UpdateStockOCC", mock.Anything, variantID, 11, 1).
		Return(domain.ProductVariant{}, apperror.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")).Times(2)

	_, err := svc.AdjustStock(context.Background(), variantID, 1)

	assert.Error(t, err)
	var conflict *apperror.ConcurrencyConflictError
	assert.True(t, errors.As(err, &conflict))
	assert.Equal(t, 2, conflict.Attempts)
	mockRepo.AssertExpectations(t)
}

// TestAdjustStock_Fail_ZeroDelta testa que delta zero é rejeitado sem tocar
// no repositório.
func TestAdjustStock_Fail_ZeroDelta(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	svc := newTestService(mockRepo, new(MockProductGetter), new(MockAttributeCatalog), 3)

	_, err := svc.AdjustStock(context.Background(), uuid.New().String(), 0)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

// TestAdjustStock_Fail_InternalErrorIsTerminal testa que erros que não são de
// conflito encerram o ciclo sem re-tentativa.
func TestAdjustStock_Fail_InternalErrorIsTerminal(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	svc := newTestService(mockRepo, new(MockProductGetter), new(MockAttributeCatalog), 3)

	variantID := uuid.New().String()
	dbErr := apperror.NewDBError("Falha ao atualizar estoque", errors.New("connection reset"))

	mockRepo.On("FindByID", mock.Anything, variantID).
		Return(domain.ProductVariant{ID: variantID, StockQuantity: 10, Version: 1}, nil).Once()
	mockRepo.On("UpdateStockOCC", mock.Anything, variantID, 11, 1).
		Return(domain.ProductVariant{}, dbErr).Once()

	_, err := svc.AdjustStock(context.Background(), variantID, 1)

	assert.Error(t, err)
	assert.IsType(t, &apperror.InternalError{}, err)
	mockRepo.AssertExpectations(t)
}

// TestSetStock_Success testa a atribuição absoluta de estoque.
func TestSetStock_Success(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	svc := newTestService(mockRepo, new(MockProductGetter), new(MockAttributeCatalog), 3)

	variantID := uuid.New().String()
	mockRepo.On("FindByID", mock.Anything, variantID).
		Return(domain.ProductVariant{ID: variantID, StockQuantity: 5, Version: 3}, nil)
	mockRepo.On("UpdateStockOCC", mock.Anything, variantID, 0, 3).
		Return(domain.ProductVariant{ID: variantID, StockQuantity: 0, Version: 4}, nil)

	result, err := svc.SetStock(context.Background(), variantID, 0)

	assert.NoError(t, err)
	assert.Equal(t, 0, result.StockQuantity)
	assert.Equal(t, 4, result.Version)
	mockRepo.AssertExpectations(t)
}

// TestSetStock_Fail_NegativeQuantity testa que a quantidade negativa é
// rejeitada antes de qualquer leitura: nenhuma mutação, versão intacta.
func TestSetStock_Fail_NegativeQuantity(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	svc := newTestService(mockRepo, new(MockProductGetter), new(MockAttributeCatalog), 3)

	_, err := svc.SetStock(context.Background(), uuid.New().String(), -1)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "UpdateStockOCC", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- Atributos e Remoção ---

// TestUpdateAttributes_Success_DoesNotTouchStockOrVersion testa que o patch
// de atributos flui para o repositório sem passar pelo caminho de estoque:
// nenhuma escrita condicional acontece e quantidade/versão voltam inalteradas.
func TestUpdateAttributes_Success_DoesNotTouchStockOrVersion(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	svc := newTestService(mockRepo, new(MockProductGetter), new(MockAttributeCatalog), 3)

	variantID := uuid.New().String()
	price := 179.90
	inactive := false
	patch := domain.VariantAttributePatch{
		PriceOverride: &price,
		IsActive:      &inactive,
	}

	mockRepo.On("UpdateAttributes", mock.Anything, variantID, patch).
		Return(domain.ProductVariant{
			ID:            variantID,
			PriceOverride: &price,
			IsActive:      false,
			StockQuantity: 7,
			Version:       4,
		}, nil)

	result, err := svc.UpdateAttributes(context.Background(), variantID, patch)

	assert.NoError(t, err)
	assert.Equal(t, 7, result.StockQuantity)
	assert.Equal(t, 4, result.Version)
	assert.Equal(t, price, *result.PriceOverride)
	assert.False(t, result.IsActive)
	mockRepo.AssertNotCalled(t, "UpdateStockOCC", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

// TestUpdateAttributes_Fail_NegativeOverride testa a rejeição de price
// override negativo.
func TestUpdateAttributes_Fail_NegativeOverride(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	svc := newTestService(mockRepo, new(MockProductGetter), new(MockAttributeCatalog), 3)

	negative := -10.0
	_, err := svc.UpdateAttributes(context.Background(), uuid.New().String(), domain.VariantAttributePatch{
		PriceOverride: &negative,
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "UpdateAttributes", mock.Anything, mock.Anything, mock.Anything)
}

// TestUpdateAttributes_Fail_SetAndClearOverride testa a rejeição de definir e
// limpar o override na mesma requisição.
func TestUpdateAttributes_Fail_SetAndClearOverride(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	svc := newTestService(mockRepo, new(MockProductGetter), new(MockAttributeCatalog), 3)

	price := 199.90
	_, err := svc.UpdateAttributes(context.Background(), uuid.New().String(), domain.VariantAttributePatch{
		PriceOverride:      &price,
		ClearPriceOverride: true,
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "UpdateAttributes", mock.Anything, mock.Anything, mock.Anything)
}

// TestDeleteVariant_Fail_NotFound testa a propagação do NotFound do repositório.
func TestDeleteVariant_Fail_NotFound(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	svc := newTestService(mockRepo, new(MockProductGetter), new(MockAttributeCatalog), 3)

	variantID := uuid.New().String()
	mockRepo.On("Delete", mock.Anything, variantID).
		Return(apperror.NewNotFoundError("Variante não encontrada."))

	err := svc.DeleteVariant(context.Background(), variantID)

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	mockRepo.AssertExpectations(t)
}

// TestDeleteVariant_Fail_InvalidID testa a rejeição de ID que não é UUID.
func TestDeleteVariant_Fail_InvalidID(t *testing.T) {
	mockRepo := new(MockVariantRepository)
	svc := newTestService(mockRepo, new(MockProductGetter), new(MockAttributeCatalog), 3)

	err := svc.DeleteVariant(context.Background(), "nao-e-um-uuid")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
