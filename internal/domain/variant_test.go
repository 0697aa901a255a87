package domain_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"varstock/internal/domain"
)

// TestSignature_OrderIndependent testa que a assinatura canônica não depende
// da ordem de inserção dos pares.
func TestSignature_OrderIndependent(t *testing.T) {
	a := domain.AttributeSelection{"Tamanho": "US 9", "Cor": "Preto"}
	b := domain.AttributeSelection{"Cor": "Preto", "Tamanho": "US 9"}

	assert.Equal(t, a.Signature(), b.Signature())
	assert.True(t, a.Equal(b))
}

// TestSignature_NormalizesTypeName testa a normalização do nome do tipo
// (caixa e espaços nas bordas) na assinatura.
func TestSignature_NormalizesTypeName(t *testing.T) {
	a := domain.AttributeSelection{"Tamanho": "US 9"}
	b := domain.AttributeSelection{" tamanho ": "US 9"}

	assert.Equal(t, a.Signature(), b.Signature())
}

// TestSignature_DifferentValues testa que valores diferentes produzem
// assinaturas diferentes.
func TestSignature_DifferentValues(t *testing.T) {
	a := domain.AttributeSelection{"Tamanho": "US 9", "Cor": "Preto"}
	b := domain.AttributeSelection{"Tamanho": "US 9", "Cor": "Branco"}

	assert.NotEqual(t, a.Signature(), b.Signature())
	assert.False(t, a.Equal(b))
}

// TestDeriveSKU_Deterministic testa que a mesma combinação produz sempre o
// mesmo SKU, independente da ordem de entrada da seleção.
func TestDeriveSKU_Deterministic(t *testing.T) {
	productID := uuid.New().String()

	sku1 := domain.DeriveSKU(productID, domain.AttributeSelection{"Tamanho": "US 9", "Cor": "Preto"})
	sku2 := domain.DeriveSKU(productID, domain.AttributeSelection{"Cor": "Preto", "Tamanho": "US 9"})

	assert.Equal(t, sku1, sku2)
	assert.True(t, strings.HasPrefix(sku1, "VS-"))
}

// TestDeriveSKU_UniquePerSelection testa que combinações diferentes do mesmo
// produto produzem SKUs diferentes.
func TestDeriveSKU_UniquePerSelection(t *testing.T) {
	productID := uuid.New().String()

	sku1 := domain.DeriveSKU(productID, domain.AttributeSelection{"Tamanho": "US 9", "Cor": "Preto"})
	sku2 := domain.DeriveSKU(productID, domain.AttributeSelection{"Tamanho": "US 10", "Cor": "Preto"})

	assert.NotEqual(t, sku1, sku2)
}

// TestDeriveSKU_UniquePerProduct testa que a mesma combinação em produtos
// diferentes produz SKUs diferentes.
func TestDeriveSKU_UniquePerProduct(t *testing.T) {
	selection := domain.AttributeSelection{"Tamanho": "US 9", "Cor": "Preto"}

	sku1 := domain.DeriveSKU(uuid.New().String(), selection)
	sku2 := domain.DeriveSKU(uuid.New().String(), selection)

	assert.NotEqual(t, sku1, sku2)
}
