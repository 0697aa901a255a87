package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// AttributeSelection é o mapeamento completo de nome do AttributeType para o
// AttributeValue escolhido (e.g., {"Tamanho": "US 9", "Cor": "Preto"}).
// A igualdade de seleções é por conjunto, independente da ordem de entrada.
type AttributeSelection map[string]string

// Signature produz a assinatura canônica da seleção: pares "tipo=valor"
// ordenados pelo nome do tipo normalizado. Duas seleções com os mesmos pares
// produzem sempre a mesma assinatura, independente da ordem de inserção.
func (s AttributeSelection) Signature() string {
	pairs := make([]string, 0, len(s))
	for typeName, value := range s {
		pairs = append(pairs, NormalizeAttributeName(typeName)+"="+value)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "|")
}

// Equal compara duas seleções por igualdade de conjunto.
func (s AttributeSelection) Equal(other AttributeSelection) bool {
	return s.Signature() == other.Signature()
}

// NormalizeAttributeName normaliza o nome do tipo para comparação
// (remove espaços nas bordas e ignora caixa).
func NormalizeAttributeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DeriveSKU deriva o SKU determinístico de uma variante a partir da identidade
// do produto e da assinatura canônica da seleção. A mesma combinação produz
// sempre o mesmo SKU, mesmo entre execuções repetidas, o que torna a geração
// de matriz segura para retries após falha parcial.
func DeriveSKU(productID string, selection AttributeSelection) string {
	sum := sha256.Sum256([]byte(productID + "#" + selection.Signature()))

	ref := strings.ToUpper(strings.ReplaceAll(productID, "-", ""))
	if len(ref) > 8 {
		ref = ref[:8]
	}

	return "VS-" + ref + "-" + strings.ToUpper(hex.EncodeToString(sum[:5]))
}

// ProductVariant é a unidade concreta de venda: a combinação única de valores
// de atributos de um produto, com estoque e versão próprios.
type ProductVariant struct {
	ID            string             `json:"id"`
	ProductID     string             `json:"product_id"`
	Selection     AttributeSelection `json:"attribute_selection"`
	SKU           string             `json:"sku"`
	StockQuantity int                `json:"stock_quantity"`
	PriceOverride *float64           `json:"price_override,omitempty"` // nil = usa o preço base do produto
	IsActive      bool               `json:"is_active"`
	Version       int                `json:"version"` // Para Controle de Concorrência Otimista (OCC)
	CreatedBy     string             `json:"created_by"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// VariantAttributePatch define as alterações permitidas em campos que não são
// de estoque. Campos nil permanecem inalterados; estoque e versão nunca são
// tocados por este caminho.
type VariantAttributePatch struct {
	PriceOverride      *float64 `json:"price_override,omitempty"`
	ClearPriceOverride bool     `json:"clear_price_override,omitempty"`
	IsActive           *bool    `json:"is_active,omitempty"`
}

// MatrixRequest é o payload de entrada da geração de matriz de variantes.
type MatrixRequest struct {
	Combinations []AttributeSelection `json:"combinations"`
	DefaultStock int                  `json:"default_stock"` // 0 se não informado
}

// StockSetRequest é o payload para a atribuição absoluta de estoque (correção manual).
type StockSetRequest struct {
	Quantity int `json:"quantity"`
}

// StockAdjustRequest é o payload para o ajuste relativo de estoque
// (delta negativo = pedido realizado; positivo = cancelamento/reposição).
type StockAdjustRequest struct {
	Delta int `json:"delta"`
}
