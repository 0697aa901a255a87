package domain

import "time"

// AttributeType representa um eixo de variação de produto (e.g., "Tamanho", "Cor").
// É um catálogo de leitura: os tipos e valores não pertencem a um produto,
// apenas são referenciados por ele.
type AttributeType struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"` // Ex: "Tamanho"
	CreatedAt time.Time `json:"created_at"`
}

// AttributeValue representa um valor permitido dentro de um AttributeType.
type AttributeValue struct {
	ID     string `json:"id"`
	TypeID string `json:"type_id"`
	Value  string `json:"value"` // Ex: "US 9"
}

// AttributeTypeWithValues agrega um tipo aos seus valores permitidos.
// É o formato consumido pela validação da geração de matriz.
type AttributeTypeWithValues struct {
	AttributeType
	Values []AttributeValue `json:"values"`
}

// HasValue verifica se o valor informado é permitido para este tipo.
func (t AttributeTypeWithValues) HasValue(value string) bool {
	for _, v := range t.Values {
		if v.Value == value {
			return true
		}
	}
	return false
}
