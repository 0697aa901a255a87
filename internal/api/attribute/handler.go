package attribute

import (
	"context"
	"encoding/json"
	"net/http"

	"varstock/internal/domain"
	apperror "varstock/internal/errors"
	"varstock/internal/pkg/logger"
)

// AttributeCatalog define o contrato de leitura do catálogo de atributos.
type AttributeCatalog interface {
	ListTypes(ctx context.Context) ([]domain.AttributeTypeWithValues, error)
	GetTypesByProduct(ctx context.Context, productID string) ([]domain.AttributeTypeWithValues, error)
}

// Handler expõe o catálogo de atributos (somente leitura).
type Handler struct {
	Catalog AttributeCatalog
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler do catálogo.
func NewHandler(catalog AttributeCatalog, log logger.Logger) *Handler {
	return &Handler{
		Catalog: catalog,
		Logger:  log,
	}
}

func (h *Handler) respond(w http.ResponseWriter, data interface{}, err error) {
	if err != nil {
		status, category, message := apperror.MapToHTTPStatus(err)
		if status >= 500 {
			h.Logger.Error("Erro ao consultar catálogo de atributos.", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}

// ListTypesHandler lida com GET /v1/attributes.
func (h *Handler) ListTypesHandler(w http.ResponseWriter, r *http.Request) {
	types, err := h.Catalog.ListTypes(r.Context())
	if types == nil && err == nil {
		types = []domain.AttributeTypeWithValues{}
	}
	h.respond(w, types, err)
}

// ListTypesByProductHandler lida com GET /v1/products/{productId}/attributes.
func (h *Handler) ListTypesByProductHandler(w http.ResponseWriter, r *http.Request) {
	types, err := h.Catalog.GetTypesByProduct(r.Context(), r.PathValue("productId"))
	if types == nil && err == nil {
		types = []domain.AttributeTypeWithValues{}
	}
	h.respond(w, types, err)
}
