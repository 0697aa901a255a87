package order

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

// OrderService define o contrato que o Handler espera da camada de Serviço.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, lines []domain.OrderLineInput) (domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) (domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
}

// PlaceOrderRequest é o payload de entrada da colocação de pedido.
type PlaceOrderRequest struct {
	Lines []domain.OrderLineInput `json:"lines"`
}

// Handler agrupa todos os métodos de Handler de pedido.
type Handler struct {
	Service OrderService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc OrderService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
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

// PlaceOrderHandler lida com POST /v1/orders. O usuário vem das claims do JWT.
func (h *Handler) PlaceOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := middleware.GetUserClaimsFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), 0)
		return
	}

	var request PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	created, err := h.Service.PlaceOrder(ctx, claims.UserID, request.Lines)
	h.handleServiceResponse(w, r, created, err, http.StatusCreated)
}

// CancelOrderHandler lida com POST /v1/orders/{id}/cancel. Repõe o estoque
// de cada linha e marca o pedido como cancelado.
func (h *Handler) CancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	cancelled, err := h.Service.CancelOrder(r.Context(), r.PathValue("id"))
	h.handleServiceResponse(w, r, cancelled, err, http.StatusOK)
}

// GetOrderHandler lida com GET /v1/orders/{id}.
func (h *Handler) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	order, err := h.Service.GetOrder(r.Context(), r.PathValue("id"))
	h.handleServiceResponse(w, r, order, err, http.StatusOK)
}

// ListOrdersHandler lida com GET /v1/orders — pedidos do usuário autenticado.
func (h *Handler) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := middleware.GetUserClaimsFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), 0)
		return
	}

	orders, err := h.Service.ListOrders(ctx, claims.UserID)
	if orders == nil && err == nil {
		orders = []domain.Order{}
	}
	h.handleServiceResponse(w, r, orders, err, http.StatusOK)
}
