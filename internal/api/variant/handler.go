package variant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"varstock/internal/domain"
	apperror "varstock/internal/errors"
	"varstock/internal/pkg/logger"
	"varstock/internal/pkg/middleware"
)

// VariantService define o contrato que o Handler espera da camada de Serviço.
type VariantService interface {
	GenerateMatrix(ctx context.Context, productID string, request domain.MatrixRequest, createdBy string) ([]domain.ProductVariant, error)
	GetVariant(ctx context.Context, id string) (domain.ProductVariant, error)
	ListByProduct(ctx context.Context, productID string) ([]domain.ProductVariant, error)
	UpdateAttributes(ctx context.Context, id string, patch domain.VariantAttributePatch) (domain.ProductVariant, error)
	SetStock(ctx context.Context, id string, newQuantity int) (domain.ProductVariant, error)
	AdjustStock(ctx context.Context, id string, delta int) (domain.ProductVariant, error)
	DeleteVariant(ctx context.Context, id string) error
}

// ReservationChecker é a asserção de pré-condição da deleção: o Variant Store
// não rastreia reservas, então o chamador (este handler, via subsistema de
// pedidos) verifica antes de invocar o delete.
type ReservationChecker interface {
	HasOpenReservations(ctx context.Context, variantID string) (bool, error)
}

// Handler agrupa todos os métodos de Handler de variantes e estoque.
type Handler struct {
	Service      VariantService
	Reservations ReservationChecker
	Logger       logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc VariantService, reservations ReservationChecker, log logger.Logger) *Handler {
	return &Handler{
		Service:      svc,
		Reservations: reservations,
		Logger:       log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	errorResponse := domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// GenerateMatrixHandler lida com POST /v1/products/{productId}/variants/matrix.
// A identidade autenticada (claims do JWT) alimenta o campo de auditoria created_by.
func (h *Handler) GenerateMatrixHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := r.PathValue("productId")

	var request domain.MatrixRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	createdBy := ""
	if claims, ok := middleware.GetUserClaimsFromContext(ctx); ok {
		createdBy = claims.UserID
	}

	created, err := h.Service.GenerateMatrix(ctx, productID, request, createdBy)
	h.handleServiceResponse(w, r, created, err, http.StatusCreated)
}

// ListByProductHandler lida com GET /v1/products/{productId}/variants.
func (h *Handler) ListByProductHandler(w http.ResponseWriter, r *http.Request) {
	variants, err := h.Service.ListByProduct(r.Context(), r.PathValue("productId"))
	if variants == nil && err == nil {
		variants = []domain.ProductVariant{}
	}
	h.handleServiceResponse(w, r, variants, err, http.StatusOK)
}

// GetVariantHandler lida com GET /v1/variants/{id}.
func (h *Handler) GetVariantHandler(w http.ResponseWriter, r *http.Request) {
	variant, err := h.Service.GetVariant(r.Context(), r.PathValue("id"))
	h.handleServiceResponse(w, r, variant, err, http.StatusOK)
}

// UpdateAttributesHandler lida com PATCH /v1/variants/{id}.
// Atualiza apenas campos que não são de estoque.
func (h *Handler) UpdateAttributesHandler(w http.ResponseWriter, r *http.Request) {
	var patch domain.VariantAttributePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	updated, err := h.Service.UpdateAttributes(r.Context(), r.PathValue("id"), patch)
	h.handleServiceResponse(w, r, updated, err, http.StatusOK)
}

// SetStockHandler lida com PUT /v1/variants/{id}/stock — atribuição absoluta
// (correção manual do admin).
func (h *Handler) SetStockHandler(w http.ResponseWriter, r *http.Request) {
	var request domain.StockSetRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	updated, err := h.Service.SetStock(r.Context(), r.PathValue("id"), request.Quantity)
	h.handleServiceResponse(w, r, updated, err, http.StatusOK)
}

// AdjustStockHandler lida com POST /v1/variants/{id}/stock/adjust — ajuste
// relativo (ciclo de vida de pedidos, reposição).
func (h *Handler) AdjustStockHandler(w http.ResponseWriter, r *http.Request) {
	var request domain.StockAdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	updated, err := h.Service.AdjustStock(r.Context(), r.PathValue("id"), request.Delta)
	h.handleServiceResponse(w, r, updated, err, http.StatusOK)
}

// DeleteVariantHandler lida com DELETE /v1/variants/{id}.
// Antes de deletar, verifica a pré-condição de negócio: nenhuma reserva de
// pedido em aberto pode referenciar a variante.
func (h *Handler) DeleteVariantHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	hasReservations, err := h.Reservations.HasOpenReservations(ctx, id)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	if hasReservations {
		h.handleServiceResponse(w, r, nil, apperror.NewConflictError(
			fmt.Sprintf("A variante %s possui reservas de pedido em aberto e não pode ser removida.", id)), 0)
		return
	}

	err = h.Service.DeleteVariant(ctx, id)
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}
